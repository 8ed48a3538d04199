package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExperiencePerLevel is the amount of experience between two levels.
const ExperiencePerLevel = 100

type User struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Email       string         `json:"email" gorm:"uniqueIndex;not null"`
	Name        string         `json:"name"`
	DisplayName string         `json:"displayName"`
	AvatarURL   string         `json:"avatarUrl"`
	Experience  int            `json:"experience" gorm:"not null;default:0"`
	Level       int            `json:"level" gorm:"not null;default:1"`
	FCMToken    string         `json:"-" gorm:"column:fcm_token"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// LevelForExperience maps total experience to a level, starting at 1.
func LevelForExperience(experience int) int {
	if experience < 0 {
		experience = 0
	}
	return 1 + experience/ExperiencePerLevel
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Level == 0 {
		u.Level = LevelForExperience(u.Experience)
	}
	return nil
}

// PublicName prefers the display name.
func (u *User) PublicName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}
