package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/arnold/charity-quests-api/internal/services"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type questStore struct {
	db *gorm.DB
}

func (s questStore) Get(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	var quest models.Quest
	if err := s.db.WithContext(ctx).First(&quest, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &quest, nil
}

func (s questStore) GetWithRelations(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	var quest models.Quest
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("City").
		Preload("OrganizationType").
		Preload("Achievement").
		First(&quest, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &quest, nil
}

func (s questStore) List(ctx context.Context, filter models.QuestFilter) ([]models.Quest, error) {
	query := s.db.WithContext(ctx).Model(&models.Quest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CityID != nil {
		query = query.Where("city_id = ?", *filter.CityID)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.OrganizationTypeID != nil {
		query = query.Where("organization_type_id = ?", *filter.OrganizationTypeID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	// Pagination
	if filter.Limit > 0 {
		limit := filter.Limit
		if limit > maxPageSize {
			limit = defaultPageSize
		}
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	var quests []models.Quest
	if err := query.Order("created_at DESC").Find(&quests).Error; err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	return quests, nil
}

func (s questStore) Create(ctx context.Context, quest *models.Quest) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(quest).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Save writes every column under a version check.
func (s questStore) Save(ctx context.Context, quest *models.Quest) error {
	expected := quest.Version
	quest.Version = expected + 1

	res := s.db.WithContext(ctx).
		Model(quest).
		Where("version = ?", expected).
		Select("*").
		Omit(clause.Associations, "created_at").
		Updates(quest)
	if res.Error != nil {
		quest.Version = expected
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		quest.Version = expected
		return s.missingOrStale(ctx, quest.ID)
	}
	return nil
}

func (s questStore) UpdateSteps(ctx context.Context, id uuid.UUID, steps []models.Step, expectedVersion int) error {
	res := s.db.WithContext(ctx).
		Model(&models.Quest{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{
			"steps":   datatypes.JSONSlice[models.Step](steps),
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.missingOrStale(ctx, id)
	}
	return nil
}

func (s questStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return s.updateColumns(ctx, id, map[string]any{
		"status":  status,
		"version": gorm.Expr("version + 1"),
	})
}

func (s questStore) SetAchievement(ctx context.Context, id uuid.UUID, achievementID *uuid.UUID) error {
	return s.updateColumns(ctx, id, map[string]any{
		"achievement_id": achievementID,
		"version":        gorm.Expr("version + 1"),
	})
}

func (s questStore) FindByAchievement(ctx context.Context, achievementID uuid.UUID) (*models.Quest, error) {
	var quest models.Quest
	if err := s.db.WithContext(ctx).First(&quest, "achievement_id = ?", achievementID).Error; err != nil {
		return nil, translate(err)
	}
	return &quest, nil
}

// SoftDelete marks the quest deleted and releases its achievement so the
// unique achievement_id column can be claimed by another quest.
func (s questStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return s.updateColumns(ctx, id, map[string]any{
		"achievement_id": nil,
		"deleted_at":     time.Now(),
	})
}

func (s questStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Quest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count quests by status: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (s questStore) updateColumns(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	res := s.db.WithContext(ctx).Model(&models.Quest{}).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

// missingOrStale explains a conditional update that matched no row.
func (s questStore) missingOrStale(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Quest{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return services.ErrNotFound
	}
	return services.ErrStaleWrite
}
