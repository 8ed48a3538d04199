package handlers

import (
	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetAchievements(c *fiber.Ctx) error {
	achievements, err := h.Achievements.FindAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if achievements == nil {
		achievements = []models.Achievement{}
	}
	return c.JSON(achievements)
}

func (h *Handler) GetAchievement(c *fiber.Ctx) error {
	achievementID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid achievement ID")
	}

	a, err := h.Achievements.FindOne(c.UserContext(), achievementID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(a)
}

func (h *Handler) CreateAchievement(c *fiber.Ctx) error {
	var req models.CreateAchievementRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	a, err := h.Achievements.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *Handler) UpdateAchievement(c *fiber.Ctx) error {
	achievementID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid achievement ID")
	}

	var req models.UpdateAchievementRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	a, err := h.Achievements.Update(c.UserContext(), achievementID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(a)
}

func (h *Handler) DeleteAchievement(c *fiber.Ctx) error {
	achievementID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid achievement ID")
	}

	if err := h.Achievements.Remove(c.UserContext(), achievementID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) AssignAchievement(c *fiber.Ctx) error {
	achievementID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid achievement ID")
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return badRequest(c, "Invalid user ID")
	}

	grant, err := h.Achievements.AssignToUser(c.UserContext(), userID, achievementID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(grant)
}
