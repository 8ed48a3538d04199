package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Activity is one entry of a quest's feed, written from domain events.
type Activity struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	QuestID    uuid.UUID      `json:"questId" gorm:"type:uuid;index;not null"`
	UserID     *uuid.UUID     `json:"userId" gorm:"type:uuid"`
	ActionType string         `json:"actionType" gorm:"not null"` // quest_created, user_joined, quest_completed, requirement_updated, achievement_granted
	Metadata   datatypes.JSON `json:"metadata"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// QuestStats is a participation summary for one quest.
type QuestStats struct {
	QuestID      uuid.UUID `json:"questId"`
	Participants int64     `json:"participants"`
	Completions  int64     `json:"completions"`
}

// PlatformStats aggregates counts across the platform.
type PlatformStats struct {
	QuestsByStatus map[string]int64 `json:"questsByStatus"`
	Participations int64            `json:"participations"`
	Completions    int64            `json:"completions"`
	Grants         int64            `json:"grants"`
}
