package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestStatusActive    = "active"
	QuestStatusArchived  = "archived"
	QuestStatusCompleted = "completed"
)

// MaxGalleryImages caps the number of gallery entries on a quest.
const MaxGalleryImages = 10

func IsValidQuestStatus(status string) bool {
	switch status {
	case QuestStatusActive, QuestStatusArchived, QuestStatusCompleted:
		return true
	}
	return false
}

type Geolocation struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
}

type Contact struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Quest struct {
	ID                 uuid.UUID                    `json:"id" gorm:"type:uuid;primaryKey"`
	Title              string                       `json:"title" gorm:"not null"`
	Description        string                       `json:"description"`
	Status             string                       `json:"status" gorm:"not null;default:'active';index"`
	ExperienceReward   int                          `json:"experienceReward" gorm:"not null;default:0"`
	OwnerID            uuid.UUID                    `json:"ownerId" gorm:"type:uuid;index;not null"`
	CityID             uuid.UUID                    `json:"cityId" gorm:"type:uuid;index;not null"`
	OrganizationTypeID *uuid.UUID                   `json:"organizationTypeId" gorm:"type:uuid;index"`
	Geolocation        Geolocation                  `json:"geolocation" gorm:"embedded;embeddedPrefix:geo_"`
	Contacts           datatypes.JSONSlice[Contact] `json:"contacts"`
	CoverImage         *string                      `json:"coverImage"`
	Gallery            datatypes.JSONSlice[string]  `json:"gallery"`
	AchievementID      *uuid.UUID                   `json:"achievementId" gorm:"type:uuid;uniqueIndex"`
	Steps              datatypes.JSONSlice[Step]    `json:"steps"`
	Version            int                          `json:"version" gorm:"not null;default:1"`
	CreatedAt          time.Time                    `json:"createdAt"`
	UpdatedAt          time.Time                    `json:"updatedAt"`
	DeletedAt          gorm.DeletedAt               `json:"-" gorm:"index"`

	Owner            *User             `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	City             *City             `json:"city,omitempty" gorm:"foreignKey:CityID"`
	OrganizationType *OrganizationType `json:"organizationType,omitempty" gorm:"foreignKey:OrganizationTypeID"`
	Achievement      *Achievement      `json:"achievement,omitempty" gorm:"foreignKey:AchievementID"`

	// Filled by the aggregation helpers, never persisted.
	Categories        []Category `json:"categories,omitempty" gorm:"-"`
	ParticipantsCount int64      `json:"participantsCount" gorm:"-"`
	CompletionsCount  int64      `json:"completionsCount" gorm:"-"`
}

func (q *Quest) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.Status == "" {
		q.Status = QuestStatusActive
	}
	if q.Version == 0 {
		q.Version = 1
	}
	return nil
}

// QuestFilter narrows list projections. Zero values are ignored.
type QuestFilter struct {
	Status             string
	CityID             *uuid.UUID
	OwnerID            *uuid.UUID
	OrganizationTypeID *uuid.UUID
	Search             string
	Page               int
	Limit              int
}

// Quest DTOs
type CreateQuestRequest struct {
	Title              string                    `json:"title"`
	Description        string                    `json:"description"`
	ExperienceReward   int                       `json:"experienceReward"`
	CityID             uuid.UUID                 `json:"cityId"`
	OrganizationTypeID *uuid.UUID                `json:"organizationTypeId"`
	Geolocation        Geolocation               `json:"geolocation"`
	Contacts           []Contact                 `json:"contacts"`
	CoverImage         *string                   `json:"coverImage"`
	Gallery            []string                  `json:"gallery"`
	Steps              []Step                    `json:"steps"`
	CategoryIDs        []uuid.UUID               `json:"categoryIds"`
	Achievement        *CreateAchievementRequest `json:"achievement"`
}

type UpdateQuestRequest struct {
	Title              Optional[string]      `json:"title"`
	Description        Optional[string]      `json:"description"`
	ExperienceReward   Optional[int]         `json:"experienceReward"`
	CityID             Optional[uuid.UUID]   `json:"cityId"`
	OrganizationTypeID Optional[uuid.UUID]   `json:"organizationTypeId"`
	Geolocation        Optional[Geolocation] `json:"geolocation"`
	Contacts           Optional[[]Contact]   `json:"contacts"`
	CoverImage         Optional[string]      `json:"coverImage"`
	Gallery            Optional[[]string]    `json:"gallery"`
	AchievementID      Optional[uuid.UUID]   `json:"achievementId"`
	Steps              Optional[[]Step]      `json:"steps"`
	CategoryIDs        Optional[[]uuid.UUID] `json:"categoryIds"`
}

type UpdateRequirementRequest struct {
	CurrentValue *int `json:"currentValue"`
}
