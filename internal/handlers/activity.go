package handlers

import (
	"github.com/arnold/charity-quests-api/internal/middleware"
	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

// GetQuestActivity returns paginated activity for a quest
func (h *Handler) GetQuestActivity(c *fiber.Ctx) error {
	questID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid quest ID")
	}
	if _, err := h.Quests.FindOne(c.UserContext(), questID); err != nil {
		return respondError(c, err)
	}

	page, limit := pagination(c)
	activities, total, err := h.Activity.ListByQuest(c.UserContext(), questID, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	if activities == nil {
		activities = []models.Activity{}
	}

	return c.JSON(fiber.Map{
		"activities": activities,
		"total":      total,
		"page":       page,
		"limit":      limit,
	})
}

// RegisterDeviceToken saves the FCM token for push notifications
func (h *Handler) RegisterDeviceToken(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Token is required")
	}

	if err := h.Push.RegisterDevice(c.UserContext(), middleware.GetUserID(c), req.Token); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
