// Package repository implements the service store contracts on gorm.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/arnold/charity-quests-api/internal/services"
	"gorm.io/gorm"
)

// Repository is the gorm backed services.Repository. A Repository returned
// by Transaction is bound to that transaction.
type Repository struct {
	db   *gorm.DB
	refs *referenceCache
}

// New wraps db. cacheSize bounds the city/organization type lookup cache
// and cacheTTL is how long a cached lookup is trusted.
func New(db *gorm.DB, cacheSize int, cacheTTL time.Duration) (*Repository, error) {
	refs, err := newReferenceCache(cacheSize, cacheTTL)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db, refs: refs}, nil
}

func (r *Repository) DB() *gorm.DB { return r.db }

func (r *Repository) Quests() services.QuestStore { return questStore{db: r.db} }
func (r *Repository) Participation() services.ParticipationStore { return participationStore{db: r.db} }
func (r *Repository) Achievements() services.AchievementStore { return achievementStore{db: r.db} }
func (r *Repository) Categories() services.CategoryStore { return categoryStore{db: r.db} }
func (r *Repository) Users() services.UserStore { return userStore{db: r.db} }
func (r *Repository) Ledger() services.RewardLedger { return ledger{db: r.db} }

func (r *Repository) References() services.ReferenceStore {
	return referenceStore{db: r.db, cache: r.refs}
}

// Activities is not part of services.Repository; the activity feed is
// written by a listener and read by the handlers.
func (r *Repository) Activities() *ActivityStore {
	return &ActivityStore{db: r.db}
}

func (r *Repository) Transaction(ctx context.Context, fn func(repo services.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, refs: r.refs})
	})
}

// translate maps gorm errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return services.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return services.ErrDuplicate
	}
	return err
}
