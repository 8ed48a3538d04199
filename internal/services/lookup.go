package services

import (
	"context"
	"errors"

	"github.com/arnold/charity-quests-api/internal/apperrors"
	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/google/uuid"
)

func requireUser(ctx context.Context, repo Repository, id uuid.UUID) (*models.User, error) {
	user, err := repo.Users().Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.UserNotFound(id)
	}
	return user, err
}

func requireQuest(ctx context.Context, repo Repository, id uuid.UUID) (*models.Quest, error) {
	quest, err := repo.Quests().Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.QuestNotFound(id)
	}
	return quest, err
}

func requireAchievement(ctx context.Context, repo Repository, id uuid.UUID) (*models.Achievement, error) {
	a, err := repo.Achievements().Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.AchievementNotFound(id)
	}
	return a, err
}

func requireCity(ctx context.Context, repo Repository, id uuid.UUID) error {
	_, err := repo.References().GetCity(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperrors.CityNotFound(id)
	}
	return err
}

func requireOrganizationType(ctx context.Context, repo Repository, id uuid.UUID) error {
	_, err := repo.References().GetOrganizationType(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperrors.OrganizationTypeNotFound(id)
	}
	return err
}

// requireCategories checks that every id names a live category and reports
// the first missing one in input order.
func requireCategories(ctx context.Context, repo Repository, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := repo.Categories().FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	seen := make(map[uuid.UUID]bool, len(found))
	for _, c := range found {
		seen[c.ID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			return apperrors.CategoryNotFound(id)
		}
	}
	return nil
}

func requireParticipation(ctx context.Context, repo Repository, userID, questID uuid.UUID) (*models.UserQuest, error) {
	uq, err := repo.Participation().Find(ctx, userID, questID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.ParticipationNotFound(userID, questID)
	}
	return uq, err
}

// uniqueIDs drops duplicates and nil ids while keeping the first-seen order.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ensureAchievementFree fails when a quest outside allowed holds the
// achievement.
func ensureAchievementFree(ctx context.Context, repo Repository, achievementID uuid.UUID, allowed ...uuid.UUID) error {
	holder, err := repo.Quests().FindByAchievement(ctx, achievementID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, id := range allowed {
		if holder.ID == id {
			return nil
		}
	}
	return apperrors.AchievementAlreadyBound(achievementID, holder.ID)
}

// bindingConflict explains a bind the store rejected as a duplicate.
func bindingConflict(ctx context.Context, repo Repository, achievementID uuid.UUID) error {
	holder, err := repo.Quests().FindByAchievement(ctx, achievementID)
	if err != nil {
		return apperrors.AchievementAlreadyBound(achievementID, uuid.Nil)
	}
	return apperrors.AchievementAlreadyBound(achievementID, holder.ID)
}
