package services

import (
	"context"
	"errors"
	"time"

	"github.com/arnold/charity-quests-api/internal/events"
	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/google/uuid"
)

// Store sentinels. Implementations wrap or return these so the services can
// translate them into domain errors.
var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record")
	ErrStaleWrite = errors.New("stale write")
)

type QuestStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Quest, error)
	GetWithRelations(ctx context.Context, id uuid.UUID) (*models.Quest, error)
	List(ctx context.Context, filter models.QuestFilter) ([]models.Quest, error)
	Create(ctx context.Context, quest *models.Quest) error
	// Save writes every column of quest and bumps its version.
	Save(ctx context.Context, quest *models.Quest) error
	// UpdateSteps replaces the steps of quest id if its version still equals
	// expectedVersion, otherwise it returns ErrStaleWrite.
	UpdateSteps(ctx context.Context, id uuid.UUID, steps []models.Step, expectedVersion int) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// SetAchievement returns ErrDuplicate when another quest holds achievementID.
	SetAchievement(ctx context.Context, id uuid.UUID, achievementID *uuid.UUID) error
	// FindByAchievement returns the live quest holding achievementID.
	FindByAchievement(ctx context.Context, achievementID uuid.UUID) (*models.Quest, error)
	// SoftDelete marks the quest deleted and clears its achievement binding.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type ParticipationStore interface {
	Find(ctx context.Context, userID, questID uuid.UUID) (*models.UserQuest, error)
	ListByQuest(ctx context.Context, questID uuid.UUID) ([]models.UserQuest, error)
	// Create returns ErrDuplicate if the (user, quest) pair already exists.
	Create(ctx context.Context, uq *models.UserQuest) error
	// MarkCompleted flips a non-completed row to completed. It returns
	// ErrStaleWrite when the row was already completed.
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	StatsByQuest(ctx context.Context, questIDs []uuid.UUID) ([]models.QuestStats, error)
	Totals(ctx context.Context) (participations, completions int64, err error)
}

type AchievementStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Achievement, error)
	FindByTitle(ctx context.Context, title string) (*models.Achievement, error)
	List(ctx context.Context) ([]models.Achievement, error)
	Create(ctx context.Context, a *models.Achievement) error
	Save(ctx context.Context, a *models.Achievement) error
	SetQuest(ctx context.Context, id uuid.UUID, questID *uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindGrant(ctx context.Context, userID, achievementID uuid.UUID) (*models.UserAchievement, error)
	// Grant returns ErrDuplicate if the user already holds the achievement.
	Grant(ctx context.Context, grant *models.UserAchievement) error
	CountGrants(ctx context.Context) (int64, error)
	// ListPrivateCreatedBefore returns private achievements created before t.
	ListPrivateCreatedBefore(ctx context.Context, t time.Time) ([]models.Achievement, error)
}

type CategoryStore interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error)
	LinkExists(ctx context.Context, questID, categoryID uuid.UUID) (bool, error)
	Link(ctx context.Context, questID uuid.UUID, categoryIDs []uuid.UUID) error
	// Unlink returns ErrNotFound if the pair is absent.
	Unlink(ctx context.Context, questID, categoryID uuid.UUID) error
	UnlinkAll(ctx context.Context, questID uuid.UUID) error
	// ListByQuestIDs returns one row per association, tagged with its quest id.
	ListByQuestIDs(ctx context.Context, questIDs []uuid.UUID) ([]models.QuestCategoryRow, error)
}

type UserStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	// SetFCMToken stores the push device token of a user.
	SetFCMToken(ctx context.Context, id uuid.UUID, token string) error
}

// ReferenceStore resolves entities owned by other modules.
type ReferenceStore interface {
	GetCity(ctx context.Context, id uuid.UUID) (*models.City, error)
	GetOrganizationType(ctx context.Context, id uuid.UUID) (*models.OrganizationType, error)
}

// RewardLedger applies experience. Credit is idempotent per key: a second
// credit with the same key is a no-op and reports applied=false.
type RewardLedger interface {
	Credit(ctx context.Context, userID uuid.UUID, amount int, key uuid.UUID) (applied bool, err error)
}

// Repository groups the stores behind one transactional boundary.
type Repository interface {
	Quests() QuestStore
	Participation() ParticipationStore
	Achievements() AchievementStore
	Categories() CategoryStore
	Users() UserStore
	References() ReferenceStore
	Ledger() RewardLedger
	// Transaction runs fn against a repository bound to one transaction.
	Transaction(ctx context.Context, fn func(repo Repository) error) error
}

// EventSink receives domain events. Publish must not block.
type EventSink interface {
	Publish(e events.Event)
}

// Discard is an EventSink that drops every event.
var Discard EventSink = discardSink{}

type discardSink struct{}

func (discardSink) Publish(events.Event) {}
