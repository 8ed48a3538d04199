package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RarityCommon    = "common"
	RarityEpic      = "epic"
	RarityRare      = "rare"
	RarityLegendary = "legendary"
	RarityPrivate   = "private"
)

func IsValidRarity(rarity string) bool {
	switch rarity {
	case RarityCommon, RarityEpic, RarityRare, RarityLegendary, RarityPrivate:
		return true
	}
	return false
}

// Achievement is a badge. Private achievements are bound to exactly one quest.
type Achievement struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Title       string         `json:"title" gorm:"not null;index"`
	Description string         `json:"description"`
	Icon        *string        `json:"icon"`
	Rarity      string         `json:"rarity" gorm:"not null;default:'common'"`
	QuestID     *uuid.UUID     `json:"questId" gorm:"type:uuid;index"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// UserAchievement records a grant. One row per (user, achievement).
type UserAchievement struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement"`
	AchievementID uuid.UUID `json:"achievementId" gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement"`
	GrantedAt     time.Time `json:"grantedAt"`
}

func (ua *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	if ua.ID == uuid.Nil {
		ua.ID = uuid.New()
	}
	return nil
}

// Achievement DTOs
type CreateAchievementRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        *string    `json:"icon"`
	Rarity      string     `json:"rarity"`
	QuestID     *uuid.UUID `json:"questId"`
}

type UpdateAchievementRequest struct {
	Title       Optional[string]    `json:"title"`
	Description Optional[string]    `json:"description"`
	Icon        Optional[string]    `json:"icon"`
	Rarity      Optional[string]    `json:"rarity"`
	QuestID     Optional[uuid.UUID] `json:"questId"`
}
