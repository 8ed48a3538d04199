// Package events carries domain events from the progression services to
// downstream listeners such as the websocket hub, the activity feed and
// push notifications.
package events

import (
	"time"

	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/google/uuid"
)

type Name string

const (
	QuestCreated       Name = "quest_created"
	UserJoined         Name = "user_joined"
	QuestCompleted     Name = "quest_completed"
	RequirementUpdated Name = "requirement_updated"
	AchievementGranted Name = "achievement_granted"
)

// Event is the envelope delivered to listeners and sent over websockets.
type Event struct {
	Name       Name      `json:"type"`
	QuestID    uuid.UUID `json:"questId"`
	UserID     uuid.UUID `json:"userId"`
	Data       any       `json:"data,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type QuestCreatedData struct {
	Title         string     `json:"title"`
	OwnerID       uuid.UUID  `json:"ownerId"`
	AchievementID *uuid.UUID `json:"achievementId,omitempty"`
}

type UserJoinedData struct {
	UserQuestID uuid.UUID `json:"userQuestId"`
}

type QuestCompletedData struct {
	UserQuestID      uuid.UUID  `json:"userQuestId"`
	QuestTitle       string     `json:"questTitle"`
	ExperienceReward int        `json:"experienceReward"`
	AchievementID    *uuid.UUID `json:"achievementId,omitempty"`
}

type RequirementUpdatedData struct {
	StepIndex int           `json:"stepIndex"`
	Steps     []models.Step `json:"steps"`
}

type AchievementGrantedData struct {
	AchievementID uuid.UUID `json:"achievementId"`
	Title         string    `json:"title"`
}

func New(name Name, questID, userID uuid.UUID, data any) Event {
	return Event{
		Name:       name,
		QuestID:    questID,
		UserID:     userID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}
