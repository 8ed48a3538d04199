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

type achievementStore struct {
	db *gorm.DB
}

func (s achievementStore) Get(ctx context.Context, id uuid.UUID) (*models.Achievement, error) {
	var a models.Achievement
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s achievementStore) FindByTitle(ctx context.Context, title string) (*models.Achievement, error) {
	var a models.Achievement
	if err := s.db.WithContext(ctx).Where("title = ?", title).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s achievementStore) List(ctx context.Context) ([]models.Achievement, error) {
	var out []models.Achievement
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return out, nil
}

func (s achievementStore) Create(ctx context.Context, a *models.Achievement) error {
	return translate(s.db.WithContext(ctx).Create(a).Error)
}

func (s achievementStore) Save(ctx context.Context, a *models.Achievement) error {
	res := s.db.WithContext(ctx).Model(a).Select("*").Omit("created_at").Updates(a)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (s achievementStore) SetQuest(ctx context.Context, id uuid.UUID, questID *uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Model(&models.Achievement{}).
		Where("id = ?", id).
		Update("quest_id", questID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (s achievementStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Achievement{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (s achievementStore) FindGrant(ctx context.Context, userID, achievementID uuid.UUID) (*models.UserAchievement, error) {
	var grant models.UserAchievement
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&grant).Error
	if err != nil {
		return nil, translate(err)
	}
	return &grant, nil
}

func (s achievementStore) Grant(ctx context.Context, grant *models.UserAchievement) error {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(grant)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return services.ErrDuplicate
	}
	return nil
}

func (s achievementStore) CountGrants(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.UserAchievement{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count grants: %w", err)
	}
	return count, nil
}

func (s achievementStore) ListPrivateCreatedBefore(ctx context.Context, t time.Time) ([]models.Achievement, error) {
	var out []models.Achievement
	err := s.db.WithContext(ctx).
		Where("rarity = ? AND created_at < ?", models.RarityPrivate, t).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list private achievements: %w", err)
	}
	return out, nil
}
