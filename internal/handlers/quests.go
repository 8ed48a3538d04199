package handlers

import (
	"strconv"

	"github.com/arnold/charity-quests-api/internal/middleware"
	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func (h *Handler) GetQuests(c *fiber.Ctx) error {
	filter := models.QuestFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	var ok bool
	if filter.CityID, ok = parseOptionalID(c, "cityId"); !ok {
		return badRequest(c, "Invalid city ID")
	}
	if filter.OwnerID, ok = parseOptionalID(c, "ownerId"); !ok {
		return badRequest(c, "Invalid owner ID")
	}
	if filter.OrganizationTypeID, ok = parseOptionalID(c, "organizationTypeId"); !ok {
		return badRequest(c, "Invalid organization type ID")
	}
	filter.Page, filter.Limit = pagination(c)

	quests, err := h.Quests.FindAll(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	if quests == nil {
		quests = []models.Quest{}
	}

	return c.JSON(fiber.Map{
		"quests": quests,
		"page":   filter.Page,
		"limit":  filter.Limit,
	})
}

func (h *Handler) GetQuest(c *fiber.Ctx) error {
	questID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid quest ID")
	}

	quest, err := h.Quests.FindOne(c.UserContext(), questID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quest)
}

func (h *Handler) CreateQuest(c *fiber.Ctx) error {
	var req models.CreateQuestRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	quest, err := h.Quests.Create(c.UserContext(), req, middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(quest)
}

func (h *Handler) UpdateQuest(c *fiber.Ctx) error {
	questID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid quest ID")
	}

	var req models.UpdateQuestRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	quest, err := h.Quests.Update(c.UserContext(), questID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quest)
}

func (h *Handler) DeleteQuest(c *fiber.Ctx) error {
	questID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid quest ID")
	}

	if err := h.Quests.Remove(c.UserContext(), questID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) ArchiveQuest(c *fiber.Ctx) error {
	questID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid quest ID")
	}

	quest, err := h.Quests.Archive(c.UserContext(), questID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quest)
}

func (h *Handler) UnarchiveQuest(c *fiber.Ctx) error {
	questID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid quest ID")
	}

	quest, err := h.Quests.Unarchive(c.UserContext(), questID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quest)
}

// QuestOwnerOrAdmin only lets the quest owner and admins through.
func (h *Handler) QuestOwnerOrAdmin(c *fiber.Ctx) error {
	questID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid quest ID")
	}
	if err := h.Quests.Authorize(c.UserContext(), questID, middleware.GetUserID(c), middleware.IsAdmin(c)); err != nil {
		return respondError(c, err)
	}
	return c.Next()
}

// participant resolves the user a participation route acts on: the :userId
// param on admin routes, the token user otherwise.
func participant(c *fiber.Ctx) (uuid.UUID, bool) {
	if c.Params("userId") == "" {
		return middleware.GetUserID(c), true
	}
	return parseID(c, "userId")
}

func (h *Handler) JoinQuest(c *fiber.Ctx) error {
	questID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid quest ID")
	}
	userID, ok := participant(c)
	if !ok {
		return badRequest(c, "Invalid user ID")
	}

	uq, err := h.Quests.Join(c.UserContext(), userID, questID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(uq)
}

func (h *Handler) LeaveQuest(c *fiber.Ctx) error {
	questID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid quest ID")
	}
	userID, ok := participant(c)
	if !ok {
		return badRequest(c, "Invalid user ID")
	}

	if err := h.Quests.Leave(c.UserContext(), userID, questID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) CompleteQuest(c *fiber.Ctx) error {
	questID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid quest ID")
	}
	userID, ok := participant(c)
	if !ok {
		return badRequest(c, "Invalid user ID")
	}

	uq, err := h.Quests.Complete(c.UserContext(), userID, questID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(uq)
}

func (h *Handler) UpdateRequirement(c *fiber.Ctx) error {
	questID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid quest ID")
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return badRequest(c, "Invalid step index")
	}

	var req models.UpdateRequirementRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.CurrentValue == nil {
		return badRequest(c, "currentValue is required")
	}

	quest, err := h.Quests.UpdateRequirementCurrentValue(c.UserContext(), questID, index, *req.CurrentValue)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quest)
}

func (h *Handler) GetParticipants(c *fiber.Ctx) error {
	questID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid quest ID")
	}

	rows, err := h.Quests.Participants(c.UserContext(), questID)
	if err != nil {
		return respondError(c, err)
	}
	if rows == nil {
		rows = []models.UserQuest{}
	}
	return c.JSON(rows)
}

func (h *Handler) AddQuestCategory(c *fiber.Ctx) error {
	questID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid quest ID")
	}
	categoryID, ok := parseID(c, "categoryId")
	if !ok {
		return badRequest(c, "Invalid category ID")
	}

	if err := h.Categories.Add(c.UserContext(), questID, categoryID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

func (h *Handler) RemoveQuestCategory(c *fiber.Ctx) error {
	questID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid quest ID")
	}
	categoryID, ok := parseID(c, "categoryId")
	if !ok {
		return badRequest(c, "Invalid category ID")
	}

	if err := h.Categories.Remove(c.UserContext(), questID, categoryID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) GetStats(c *fiber.Ctx) error {
	stats, err := h.Aggregator.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
