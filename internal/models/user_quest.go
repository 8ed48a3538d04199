package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ParticipationInProgress = "in_progress"
	ParticipationCompleted  = "completed"
	ParticipationFailed     = "failed"
)

// UserQuest tracks one user's participation in one quest. Rows are hard
// deleted on leave, so the unique index covers every live row.
type UserQuest struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID  `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_user_quest"`
	QuestID     uuid.UUID  `json:"questId" gorm:"type:uuid;not null;uniqueIndex:idx_user_quest;index"`
	Status      string     `json:"status" gorm:"not null;default:'in_progress'"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (uq *UserQuest) BeforeCreate(tx *gorm.DB) error {
	if uq.ID == uuid.Nil {
		uq.ID = uuid.New()
	}
	return nil
}

// ExperienceCredit is a ledger entry. The unique participation id makes a
// completion credit apply at most once.
type ExperienceCredit struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserQuestID uuid.UUID `json:"userQuestId" gorm:"type:uuid;not null;uniqueIndex"`
	UserID      uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Amount      int       `json:"amount" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (ec *ExperienceCredit) BeforeCreate(tx *gorm.DB) error {
	if ec.ID == uuid.Nil {
		ec.ID = uuid.New()
	}
	return nil
}
