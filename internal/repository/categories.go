package repository

import (
	"context"
	"fmt"

	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/arnold/charity-quests-api/internal/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type categoryStore struct {
	db *gorm.DB
}

func (s categoryStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.Category
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	return out, nil
}

func (s categoryStore) LinkExists(ctx context.Context, questID, categoryID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.QuestCategory{}).
		Where("quest_id = ? AND category_id = ?", questID, categoryID).
		Count(&count).Error
	return count > 0, err
}

func (s categoryStore) Link(ctx context.Context, questID uuid.UUID, categoryIDs []uuid.UUID) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	rows := make([]models.QuestCategory, len(categoryIDs))
	for i, id := range categoryIDs {
		rows[i] = models.QuestCategory{QuestID: questID, CategoryID: id}
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("link categories: %w", err)
	}
	return nil
}

func (s categoryStore) Unlink(ctx context.Context, questID, categoryID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("quest_id = ? AND category_id = ?", questID, categoryID).
		Delete(&models.QuestCategory{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (s categoryStore) UnlinkAll(ctx context.Context, questID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("quest_id = ?", questID).
		Delete(&models.QuestCategory{}).Error
}

// ListByQuestIDs loads the association rows for every quest in one query
// and their categories in a second one. Soft-deleted categories are
// skipped.
func (s categoryStore) ListByQuestIDs(ctx context.Context, questIDs []uuid.UUID) ([]models.QuestCategoryRow, error) {
	if len(questIDs) == 0 {
		return nil, nil
	}
	var links []models.QuestCategory
	err := s.db.WithContext(ctx).
		Where("quest_id IN ?", questIDs).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("list quest categories: %w", err)
	}
	if len(links) == 0 {
		return nil, nil
	}

	seen := make(map[uuid.UUID]bool, len(links))
	ids := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		if !seen[l.CategoryID] {
			seen[l.CategoryID] = true
			ids = append(ids, l.CategoryID)
		}
	}
	categories, err := s.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	rows := make([]models.QuestCategoryRow, 0, len(links))
	for _, l := range links {
		if c, ok := byID[l.CategoryID]; ok {
			rows = append(rows, models.QuestCategoryRow{QuestID: l.QuestID, Category: c})
		}
	}
	return rows, nil
}
