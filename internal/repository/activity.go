package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arnold/charity-quests-api/internal/events"
	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityStore persists the per-quest activity feed.
type ActivityStore struct {
	db *gorm.DB
}

func (s *ActivityStore) Record(ctx context.Context, activity *models.Activity) error {
	return s.db.WithContext(ctx).Create(activity).Error
}

// ListByQuest returns one page of a quest's feed, newest first, and the
// total number of entries.
func (s *ActivityStore) ListByQuest(ctx context.Context, questID uuid.UUID, page, limit int) ([]models.Activity, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	offset := (page - 1) * limit

	var activities []models.Activity
	err := s.db.WithContext(ctx).
		Where("quest_id = ?", questID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Activity{}).Where("quest_id = ?", questID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count activity: %w", err)
	}
	return activities, total, nil
}

// Handle records e as a feed entry. It is an events listener.
func (s *ActivityStore) Handle(ctx context.Context, e events.Event) error {
	if e.QuestID == uuid.Nil {
		return nil
	}
	metadata, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("encode activity metadata: %w", err)
	}
	activity := &models.Activity{
		QuestID:    e.QuestID,
		ActionType: string(e.Name),
		Metadata:   datatypes.JSON(metadata),
		CreatedAt:  e.OccurredAt,
	}
	if e.UserID != uuid.Nil {
		userID := e.UserID
		activity.UserID = &userID
	}
	return s.Record(ctx, activity)
}
