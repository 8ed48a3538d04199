package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arnold/charity-quests-api/internal/apperrors"
	"github.com/arnold/charity-quests-api/internal/events"
	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/google/uuid"
)

// AchievementService enforces the rarity/quest binding and grant
// idempotency.
type AchievementService struct {
	repo Repository
	sink EventSink
	now  func() time.Time
}

func NewAchievementService(repo Repository, sink EventSink) *AchievementService {
	if sink == nil {
		sink = Discard
	}
	return &AchievementService{repo: repo, sink: sink, now: time.Now}
}

func (s *AchievementService) FindOne(ctx context.Context, id uuid.UUID) (*models.Achievement, error) {
	return requireAchievement(ctx, s.repo, id)
}

func (s *AchievementService) FindAll(ctx context.Context) ([]models.Achievement, error) {
	return s.repo.Achievements().List(ctx)
}

func (s *AchievementService) Create(ctx context.Context, req models.CreateAchievementRequest) (*models.Achievement, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperrors.TitleRequired("Achievement")
	}
	rarity := req.Rarity
	if rarity == "" {
		rarity = models.RarityCommon
	}
	if !models.IsValidRarity(rarity) {
		return nil, apperrors.InvalidRarity(rarity)
	}
	if err := ensureTitleAvailable(ctx, s.repo, title, uuid.Nil); err != nil {
		return nil, err
	}
	quest, err := s.checkBinding(ctx, rarity, req.QuestID)
	if err != nil {
		return nil, err
	}
	if quest != nil && quest.AchievementID != nil {
		return nil, apperrors.QuestHasAchievement(quest.ID, *quest.AchievementID)
	}

	a := &models.Achievement{
		Title:       title,
		Description: req.Description,
		Icon:        req.Icon,
		Rarity:      rarity,
		QuestID:     req.QuestID,
	}
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Achievements().Create(ctx, a); err != nil {
			return fmt.Errorf("create achievement: %w", err)
		}
		if quest != nil {
			return tx.Quests().SetAchievement(ctx, quest.ID, &a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Update applies a partial patch. Moving away from private detaches the
// quest instead of failing. Staying private without a questId in the patch
// re-validates the stored quest.
func (s *AchievementService) Update(ctx context.Context, id uuid.UUID, req models.UpdateAchievementRequest) (*models.Achievement, error) {
	a, err := requireAchievement(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	title := a.Title
	if req.Title.Present() {
		title = strings.TrimSpace(req.Title.Value)
		if title == "" {
			return nil, apperrors.TitleRequired("Achievement")
		}
		if title != a.Title {
			if err := ensureTitleAvailable(ctx, s.repo, title, a.ID); err != nil {
				return nil, err
			}
		}
	}

	rarity := a.Rarity
	if req.Rarity.Present() {
		if !models.IsValidRarity(req.Rarity.Value) {
			return nil, apperrors.InvalidRarity(req.Rarity.Value)
		}
		rarity = req.Rarity.Value
	}

	questID := a.QuestID
	if req.QuestID.Set {
		questID = req.QuestID.Ptr()
	}
	var quest *models.Quest
	switch {
	case rarity != models.RarityPrivate && a.Rarity == models.RarityPrivate:
		questID = nil
	case rarity != models.RarityPrivate:
		if req.QuestID.Present() {
			return nil, apperrors.PublicForbidsQuest(rarity)
		}
		questID = nil
	default:
		if quest, err = s.checkBinding(ctx, rarity, questID); err != nil {
			return nil, err
		}
		if quest.AchievementID != nil && *quest.AchievementID != a.ID {
			return nil, apperrors.QuestHasAchievement(quest.ID, *quest.AchievementID)
		}
		allowed := []uuid.UUID{quest.ID}
		if a.QuestID != nil {
			allowed = append(allowed, *a.QuestID)
		}
		if err := ensureAchievementFree(ctx, s.repo, a.ID, allowed...); err != nil {
			return nil, err
		}
	}

	previousQuest := a.QuestID
	a.Title = title
	a.Rarity = rarity
	a.QuestID = questID
	if req.Description.Set {
		a.Description = req.Description.Value
	}
	if req.Icon.Set {
		a.Icon = req.Icon.Ptr()
	}

	bindTaken := false
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Achievements().Save(ctx, a); err != nil {
			return fmt.Errorf("save achievement: %w", err)
		}
		if previousQuest != nil && (questID == nil || *questID != *previousQuest) {
			if err := detachFromQuest(ctx, tx, *previousQuest, a.ID); err != nil {
				return err
			}
		}
		if quest != nil && quest.AchievementID == nil {
			err := tx.Quests().SetAchievement(ctx, quest.ID, &a.ID)
			bindTaken = errors.Is(err, ErrDuplicate)
			return err
		}
		return nil
	})
	if bindTaken {
		return nil, bindingConflict(ctx, s.repo, a.ID)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AchievementService) Remove(ctx context.Context, id uuid.UUID) error {
	a, err := requireAchievement(ctx, s.repo, id)
	if err != nil {
		return err
	}
	return s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Achievements().SoftDelete(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return apperrors.AchievementNotFound(id)
			}
			return err
		}
		if a.QuestID != nil {
			return detachFromQuest(ctx, tx, *a.QuestID, id)
		}
		return nil
	})
}

// AssignToUser grants an achievement directly. Granting twice is a Conflict.
func (s *AchievementService) AssignToUser(ctx context.Context, userID, achievementID uuid.UUID) (*models.UserAchievement, error) {
	if _, err := requireUser(ctx, s.repo, userID); err != nil {
		return nil, err
	}
	a, err := requireAchievement(ctx, s.repo, achievementID)
	if err != nil {
		return nil, err
	}
	_, err = s.repo.Achievements().FindGrant(ctx, userID, achievementID)
	if err == nil {
		return nil, apperrors.AlreadyGranted(userID, achievementID)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	grant := &models.UserAchievement{UserID: userID, AchievementID: achievementID, GrantedAt: s.now()}
	if err := s.repo.Achievements().Grant(ctx, grant); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperrors.AlreadyGranted(userID, achievementID)
		}
		return nil, err
	}

	questID := uuid.Nil
	if a.QuestID != nil {
		questID = *a.QuestID
	}
	s.sink.Publish(events.New(events.AchievementGranted, questID, userID, events.AchievementGrantedData{
		AchievementID: a.ID,
		Title:         a.Title,
	}))
	return grant, nil
}

// ReconcileOrphans soft-deletes private achievements older than grace whose
// quest is missing: either never bound by an interrupted quest creation, or
// bound to a quest that was deleted since.
func (s *AchievementService) ReconcileOrphans(ctx context.Context, grace time.Duration) ([]uuid.UUID, error) {
	candidates, err := s.repo.Achievements().ListPrivateCreatedBefore(ctx, s.now().Add(-grace))
	if err != nil {
		return nil, err
	}

	var removed []uuid.UUID
	for _, a := range candidates {
		orphan := a.QuestID == nil
		if !orphan {
			_, err := s.repo.Quests().Get(ctx, *a.QuestID)
			switch {
			case errors.Is(err, ErrNotFound):
				orphan = true
			case err != nil:
				return removed, err
			}
		}
		if !orphan {
			continue
		}
		if err := s.repo.Achievements().SoftDelete(ctx, a.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return removed, err
		}
		removed = append(removed, a.ID)
		slog.Info("Removed orphaned private achievement",
			slog.String("achievement_id", a.ID.String()),
			slog.Any("quest_id", a.QuestID))
	}
	return removed, nil
}

// checkBinding enforces rarity = private <=> questId names a live quest.
func (s *AchievementService) checkBinding(ctx context.Context, rarity string, questID *uuid.UUID) (*models.Quest, error) {
	if rarity != models.RarityPrivate {
		if questID != nil {
			return nil, apperrors.PublicForbidsQuest(rarity)
		}
		return nil, nil
	}
	if questID == nil {
		return nil, apperrors.PrivateRequiresQuest()
	}
	return requireQuest(ctx, s.repo, *questID)
}

func ensureTitleAvailable(ctx context.Context, repo Repository, title string, self uuid.UUID) error {
	existing, err := repo.Achievements().FindByTitle(ctx, title)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return apperrors.DuplicateTitle(title)
	}
	return nil
}

// grantIfMissing grants achievementID to userID unless the grant already
// exists or the achievement is gone. It returns the achievement only when a
// new grant row was written.
func grantIfMissing(ctx context.Context, repo Repository, userID, achievementID uuid.UUID, at time.Time) (*models.Achievement, error) {
	a, err := repo.Achievements().Get(ctx, achievementID)
	if errors.Is(err, ErrNotFound) {
		slog.Warn("Quest references a missing achievement, skipping grant",
			slog.String("achievement_id", achievementID.String()))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	_, err = repo.Achievements().FindGrant(ctx, userID, achievementID)
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	err = repo.Achievements().Grant(ctx, &models.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		GrantedAt:     at,
	})
	if errors.Is(err, ErrDuplicate) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func detachFromQuest(ctx context.Context, repo Repository, questID, achievementID uuid.UUID) error {
	quest, err := repo.Quests().Get(ctx, questID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if quest.AchievementID == nil || *quest.AchievementID != achievementID {
		return nil
	}
	return repo.Quests().SetAchievement(ctx, questID, nil)
}
