package repository

import (
	"context"

	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/arnold/charity-quests-api/internal/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledger struct {
	db *gorm.DB
}

// Credit writes a ledger row keyed by the participation id and applies the
// amount to the user's experience and level. A repeated key changes
// nothing.
func (l ledger) Credit(ctx context.Context, userID uuid.UUID, amount int, key uuid.UUID) (bool, error) {
	applied := false
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		credit := &models.ExperienceCredit{UserQuestID: key, UserID: userID, Amount: amount}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(credit)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		res = tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"experience": gorm.Expr("experience + ?", amount),
				"level":      gorm.Expr("1 + (experience + ?) / ?", amount, models.ExperiencePerLevel),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrNotFound
		}
		applied = true
		return nil
	})
	return applied, err
}
