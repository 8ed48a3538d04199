package routes

import (
	"github.com/arnold/charity-quests-api/internal/handlers"
	"github.com/arnold/charity-quests-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func Setup(app *fiber.App, h *handlers.Handler, jwtSecret string) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	protected := api.Group("/", middleware.Protected(jwtSecret))
	admin := middleware.AdminOnly()
	owner := h.QuestOwnerOrAdmin

	quests := protected.Group("/quests")
	quests.Get("/", h.GetQuests)
	quests.Post("/", h.CreateQuest)
	quests.Get("/:id", h.GetQuest)
	quests.Patch("/:id", owner, h.UpdateQuest)
	quests.Delete("/:id", owner, h.DeleteQuest)
	quests.Post("/:id/archive", owner, h.ArchiveQuest)
	quests.Post("/:id/unarchive", owner, h.UnarchiveQuest)

	// Participation of the token user
	quests.Post("/:id/join", h.JoinQuest)
	quests.Post("/:id/leave", h.LeaveQuest)
	quests.Post("/:id/complete", h.CompleteQuest)

	// Participation on behalf of another user
	quests.Post("/:id/users/:userId/join", admin, h.JoinQuest)
	quests.Post("/:id/users/:userId/leave", admin, h.LeaveQuest)
	quests.Post("/:id/users/:userId/complete", admin, h.CompleteQuest)

	quests.Patch("/:id/steps/:index/requirement", owner, h.UpdateRequirement)
	quests.Get("/:id/participants", h.GetParticipants)
	quests.Get("/:id/activity", h.GetQuestActivity)

	quests.Post("/:id/categories/:categoryId", admin, h.AddQuestCategory)
	quests.Delete("/:id/categories/:categoryId", admin, h.RemoveQuestCategory)

	achievements := protected.Group("/achievements")
	achievements.Get("/", h.GetAchievements)
	achievements.Get("/:id", h.GetAchievement)
	achievements.Post("/", admin, h.CreateAchievement)
	achievements.Patch("/:id", admin, h.UpdateAchievement)
	achievements.Delete("/:id", admin, h.DeleteAchievement)
	achievements.Post("/:id/assign/:userId", admin, h.AssignAchievement)

	protected.Get("/stats", h.GetStats)

	// Device token for push notifications
	protected.Post("/device-token", h.RegisterDeviceToken)

	// WebSocket for real-time quest updates
	app.Use("/ws", handlers.WebSocketUpgrade(jwtSecret))
	app.Get("/ws/quests/:id", websocket.New(h.Hub.HandleWebSocket))
}
