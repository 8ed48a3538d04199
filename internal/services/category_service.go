package services

import (
	"context"
	"errors"

	"github.com/arnold/charity-quests-api/internal/apperrors"
	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/google/uuid"
)

// CategoryService manages quest/category associations.
type CategoryService struct {
	repo Repository
}

func NewCategoryService(repo Repository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) Add(ctx context.Context, questID, categoryID uuid.UUID) error {
	if _, err := requireQuest(ctx, s.repo, questID); err != nil {
		return err
	}
	if err := requireCategories(ctx, s.repo, []uuid.UUID{categoryID}); err != nil {
		return err
	}
	exists, err := s.repo.Categories().LinkExists(ctx, questID, categoryID)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.CategoryLinkExists(questID, categoryID)
	}
	return s.repo.Categories().Link(ctx, questID, []uuid.UUID{categoryID})
}

// AddMany links every category in ids, skipping pairs that already exist.
func (s *CategoryService) AddMany(ctx context.Context, questID uuid.UUID, ids []uuid.UUID) error {
	if _, err := requireQuest(ctx, s.repo, questID); err != nil {
		return err
	}
	ids = uniqueIDs(ids)
	if err := requireCategories(ctx, s.repo, ids); err != nil {
		return err
	}
	missing := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		exists, err := s.repo.Categories().LinkExists(ctx, questID, id)
		if err != nil {
			return err
		}
		if !exists {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return s.repo.Categories().Link(ctx, questID, missing)
}

func (s *CategoryService) Remove(ctx context.Context, questID, categoryID uuid.UUID) error {
	if _, err := requireQuest(ctx, s.repo, questID); err != nil {
		return err
	}
	err := s.repo.Categories().Unlink(ctx, questID, categoryID)
	if errors.Is(err, ErrNotFound) {
		return apperrors.CategoryLinkNotFound(questID, categoryID)
	}
	return err
}

func (s *CategoryService) RemoveAll(ctx context.Context, questID uuid.UUID) error {
	if _, err := requireQuest(ctx, s.repo, questID); err != nil {
		return err
	}
	return s.repo.Categories().UnlinkAll(ctx, questID)
}

// ForQuests loads the categories of many quests in one query.
func (s *CategoryService) ForQuests(ctx context.Context, questIDs []uuid.UUID) (map[uuid.UUID][]models.Category, error) {
	rows, err := s.repo.Categories().ListByQuestIDs(ctx, uniqueIDs(questIDs))
	if err != nil {
		return nil, err
	}
	return GroupCategories(rows), nil
}

// replaceCategories drops every association of questID and recreates the
// given set. An empty set just clears the tags.
func replaceCategories(ctx context.Context, repo Repository, questID uuid.UUID, ids []uuid.UUID) error {
	if err := repo.Categories().UnlinkAll(ctx, questID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return repo.Categories().Link(ctx, questID, ids)
}
