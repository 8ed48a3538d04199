package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/arnold/charity-quests-api/internal/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type participationStore struct {
	db *gorm.DB
}

func (s participationStore) Find(ctx context.Context, userID, questID uuid.UUID) (*models.UserQuest, error) {
	var uq models.UserQuest
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND quest_id = ?", userID, questID).
		First(&uq).Error
	if err != nil {
		return nil, translate(err)
	}
	return &uq, nil
}

func (s participationStore) ListByQuest(ctx context.Context, questID uuid.UUID) ([]models.UserQuest, error) {
	var rows []models.UserQuest
	err := s.db.WithContext(ctx).
		Where("quest_id = ?", questID).
		Preload("User").
		Order("started_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return rows, nil
}

// Create inserts with ON CONFLICT DO NOTHING so a duplicate join does not
// abort the surrounding transaction.
func (s participationStore) Create(ctx context.Context, uq *models.UserQuest) error {
	res := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(uq)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return services.ErrDuplicate
	}
	return nil
}

func (s participationStore) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.UserQuest{}).
		Where("id = ? AND status <> ?", id, models.ParticipationCompleted).
		Updates(map[string]any{
			"status":       models.ParticipationCompleted,
			"completed_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrStaleWrite
	}
	return nil
}

func (s participationStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.UserQuest{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (s participationStore) StatsByQuest(ctx context.Context, questIDs []uuid.UUID) ([]models.QuestStats, error) {
	if len(questIDs) == 0 {
		return nil, nil
	}
	var stats []models.QuestStats
	err := s.db.WithContext(ctx).
		Model(&models.UserQuest{}).
		Select("quest_id, COUNT(*) AS participants, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completions",
			models.ParticipationCompleted).
		Where("quest_id IN ?", questIDs).
		Group("quest_id").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("participation stats: %w", err)
	}
	return stats, nil
}

func (s participationStore) Totals(ctx context.Context) (int64, int64, error) {
	var row struct {
		Participations int64
		Completions    int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.UserQuest{}).
		Select("COUNT(*) AS participations, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completions",
			models.ParticipationCompleted).
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("participation totals: %w", err)
	}
	return row.Participations, row.Completions, nil
}
