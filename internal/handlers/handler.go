package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/arnold/charity-quests-api/internal/apperrors"
	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/arnold/charity-quests-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ActivityFeed reads the per-quest activity feed.
type ActivityFeed interface {
	ListByQuest(ctx context.Context, questID uuid.UUID, page, limit int) ([]models.Activity, int64, error)
}

// Handler holds the services behind the HTTP routes.
type Handler struct {
	Quests       *services.QuestService
	Achievements *services.AchievementService
	Categories   *services.CategoryService
	Aggregator   *services.Aggregator
	Push         *services.PushService
	Activity     ActivityFeed
	Hub          *Hub
}

// respondError maps domain errors to their HTTP status. Anything else is
// logged and reported as a 500 without details.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return c.Status(statusFor(appErr.Kind)).JSON(fiber.Map{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
	}

	slog.Error("Request failed",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.Any("error", err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindBadRequest:
		return fiber.StatusBadRequest
	case apperrors.KindConflict:
		return fiber.StatusConflict
	case apperrors.KindForbidden:
		return fiber.StatusForbidden
	}
	return fiber.StatusInternalServerError
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(param))
	return id, err == nil
}

// parseOptionalID parses a query parameter holding a uuid. An absent
// parameter yields nil.
func parseOptionalID(c *fiber.Ctx, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// pagination reads page and limit with the same defaults everywhere.
func pagination(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return page, limit
}
