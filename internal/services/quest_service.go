// Package services holds the quest progression engine, the achievement
// binder, category tagging and the aggregation helpers. Services depend only
// on the store contracts in stores.go and publish domain events through an
// EventSink.
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

// MinCreatorLevel is the level a user needs to create quests.
const MinCreatorLevel = 5

const requirementUpdateAttempts = 3

type QuestService struct {
	repo       Repository
	sink       EventSink
	aggregator *Aggregator
	now        func() time.Time
}

func NewQuestService(repo Repository, sink EventSink) *QuestService {
	if sink == nil {
		sink = Discard
	}
	return &QuestService{
		repo:       repo,
		sink:       sink,
		aggregator: NewAggregator(repo),
		now:        time.Now,
	}
}

func (s *QuestService) Create(ctx context.Context, req models.CreateQuestRequest, creatorID uuid.UUID) (*models.Quest, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperrors.TitleRequired("Quest")
	}
	if req.ExperienceReward < 0 {
		return nil, apperrors.ExperienceNegative(req.ExperienceReward)
	}

	creator, err := requireUser(ctx, s.repo, creatorID)
	if err != nil {
		return nil, err
	}
	if creator.Level < MinCreatorLevel {
		return nil, apperrors.InsufficientLevel(creatorID, creator.Level, MinCreatorLevel)
	}
	if err := requireCity(ctx, s.repo, req.CityID); err != nil {
		return nil, err
	}
	if req.OrganizationTypeID != nil {
		if err := requireOrganizationType(ctx, s.repo, *req.OrganizationTypeID); err != nil {
			return nil, err
		}
	}
	categoryIDs := uniqueIDs(req.CategoryIDs)
	if err := requireCategories(ctx, s.repo, categoryIDs); err != nil {
		return nil, err
	}
	if len(req.Gallery) > models.MaxGalleryImages {
		return nil, apperrors.GalleryTooLarge(len(req.Gallery), models.MaxGalleryImages)
	}
	steps, err := normalizeSteps(req.Steps)
	if err != nil {
		return nil, err
	}

	draft := &questDraft{
		quest: &models.Quest{
			Title:              strings.TrimSpace(req.Title),
			Description:        req.Description,
			Status:             models.QuestStatusActive,
			ExperienceReward:   req.ExperienceReward,
			OwnerID:            creatorID,
			CityID:             req.CityID,
			OrganizationTypeID: req.OrganizationTypeID,
			Geolocation:        req.Geolocation,
			Contacts:           req.Contacts,
			CoverImage:         req.CoverImage,
			Gallery:            req.Gallery,
			Steps:              steps,
		},
	}
	if req.Achievement != nil {
		title := strings.TrimSpace(req.Achievement.Title)
		if title == "" {
			return nil, apperrors.TitleRequired("Achievement")
		}
		if err := ensureTitleAvailable(ctx, s.repo, title, uuid.Nil); err != nil {
			return nil, err
		}
		draft.achievement = &models.Achievement{
			Title:       title,
			Description: req.Achievement.Description,
			Icon:        req.Achievement.Icon,
		}
	}

	var joined *models.UserQuest
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := draft.build(ctx, tx); err != nil {
			return err
		}
		if len(categoryIDs) > 0 {
			if err := tx.Categories().Link(ctx, draft.quest.ID, categoryIDs); err != nil {
				return fmt.Errorf("link categories: %w", err)
			}
		}
		uq := &models.UserQuest{
			UserID:    creatorID,
			QuestID:   draft.quest.ID,
			Status:    models.ParticipationInProgress,
			StartedAt: s.now(),
		}
		if err := tx.Participation().Create(ctx, uq); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return nil
			}
			return fmt.Errorf("join creator: %w", err)
		}
		joined = uq
		return nil
	})
	if err != nil {
		return nil, err
	}

	if joined != nil {
		s.sink.Publish(events.New(events.UserJoined, draft.quest.ID, creatorID,
			events.UserJoinedData{UserQuestID: joined.ID}))
	}
	s.sink.Publish(events.New(events.QuestCreated, draft.quest.ID, creatorID, events.QuestCreatedData{
		Title:         draft.quest.Title,
		OwnerID:       creatorID,
		AchievementID: draft.quest.AchievementID,
	}))

	slog.Info("Quest created",
		slog.String("quest_id", draft.quest.ID.String()),
		slog.String("owner_id", creatorID.String()))

	return s.FindOne(ctx, draft.quest.ID)
}

func (s *QuestService) FindAll(ctx context.Context, filter models.QuestFilter) ([]models.Quest, error) {
	if filter.Status != "" && !models.IsValidQuestStatus(filter.Status) {
		return nil, apperrors.InvalidStatus(filter.Status)
	}
	quests, err := s.repo.Quests().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.aggregator.Enrich(ctx, quests); err != nil {
		return nil, err
	}
	return quests, nil
}

func (s *QuestService) FindByStatus(ctx context.Context, status string, filter models.QuestFilter) ([]models.Quest, error) {
	if !models.IsValidQuestStatus(status) {
		return nil, apperrors.InvalidStatus(status)
	}
	filter.Status = status
	return s.FindAll(ctx, filter)
}

func (s *QuestService) FindOne(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	quest, err := s.repo.Quests().GetWithRelations(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.QuestNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	one := []models.Quest{*quest}
	if err := s.aggregator.Enrich(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// Update applies a partial patch. Absent fields are left alone and explicit
// nulls clear nullable fields.
func (s *QuestService) Update(ctx context.Context, id uuid.UUID, req models.UpdateQuestRequest) (*models.Quest, error) {
	quest, err := requireQuest(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	before := models.CloneSteps(quest.Steps)

	if req.Title.Present() && strings.TrimSpace(req.Title.Value) == "" {
		return nil, apperrors.TitleRequired("Quest")
	}
	if req.ExperienceReward.Present() && req.ExperienceReward.Value < 0 {
		return nil, apperrors.ExperienceNegative(req.ExperienceReward.Value)
	}
	if req.AchievementID.Present() {
		a, err := requireAchievement(ctx, s.repo, req.AchievementID.Value)
		if err != nil {
			return nil, err
		}
		if a.QuestID != nil && *a.QuestID != quest.ID {
			return nil, apperrors.AchievementAlreadyBound(a.ID, *a.QuestID)
		}
		if err := ensureAchievementFree(ctx, s.repo, a.ID, quest.ID); err != nil {
			return nil, err
		}
	}
	if req.CityID.Present() {
		if err := requireCity(ctx, s.repo, req.CityID.Value); err != nil {
			return nil, err
		}
	}
	if req.OrganizationTypeID.Present() {
		if err := requireOrganizationType(ctx, s.repo, req.OrganizationTypeID.Value); err != nil {
			return nil, err
		}
	}
	if req.Gallery.Present() && len(req.Gallery.Value) > models.MaxGalleryImages {
		return nil, apperrors.GalleryTooLarge(len(req.Gallery.Value), models.MaxGalleryImages)
	}
	var steps []models.Step
	if req.Steps.Set {
		if steps, err = normalizeSteps(req.Steps.Value); err != nil {
			return nil, err
		}
	}
	var categoryIDs []uuid.UUID
	if req.CategoryIDs.Set {
		categoryIDs = uniqueIDs(req.CategoryIDs.Value)
		if err := requireCategories(ctx, s.repo, categoryIDs); err != nil {
			return nil, err
		}
	}

	if req.Title.Present() {
		quest.Title = strings.TrimSpace(req.Title.Value)
	}
	if req.Description.Set {
		quest.Description = req.Description.Value
	}
	if req.ExperienceReward.Present() {
		quest.ExperienceReward = req.ExperienceReward.Value
	}
	if req.CityID.Present() {
		quest.CityID = req.CityID.Value
	}
	if req.OrganizationTypeID.Set {
		quest.OrganizationTypeID = req.OrganizationTypeID.Ptr()
	}
	if req.Geolocation.Set {
		quest.Geolocation = req.Geolocation.Value
	}
	if req.Contacts.Set {
		quest.Contacts = req.Contacts.Value
	}
	if req.CoverImage.Set {
		quest.CoverImage = req.CoverImage.Ptr()
	}
	if req.Gallery.Set {
		quest.Gallery = req.Gallery.Value
	}
	if req.AchievementID.Set {
		quest.AchievementID = req.AchievementID.Ptr()
	}
	changed := false
	if req.Steps.Set {
		changed = requirementsChanged(before, steps)
		quest.Steps = steps
	}

	bindTaken := false
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Quests().Save(ctx, quest); err != nil {
			switch {
			case errors.Is(err, ErrStaleWrite):
				return apperrors.ConcurrentQuestWrite(id)
			case errors.Is(err, ErrDuplicate) && quest.AchievementID != nil:
				bindTaken = true
			}
			return fmt.Errorf("save quest: %w", err)
		}
		if req.CategoryIDs.Set {
			return replaceCategories(ctx, tx, id, categoryIDs)
		}
		return nil
	})
	if bindTaken {
		return nil, bindingConflict(ctx, s.repo, *quest.AchievementID)
	}
	if err != nil {
		return nil, err
	}

	if changed {
		s.sink.Publish(events.New(events.RequirementUpdated, id, uuid.Nil, events.RequirementUpdatedData{
			StepIndex: -1,
			Steps:     models.CloneSteps(quest.Steps),
		}))
	}

	return s.FindOne(ctx, id)
}

// Authorize lets admins and the owner of quest id manage it.
func (s *QuestService) Authorize(ctx context.Context, id, userID uuid.UUID, admin bool) error {
	quest, err := requireQuest(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if admin || quest.OwnerID == userID {
		return nil
	}
	return apperrors.NotQuestOwner(id, userID)
}

// Remove soft-deletes a quest and releases its achievement binding. A bound
// private achievement is left in place and cleaned up later by
// AchievementService.ReconcileOrphans.
func (s *QuestService) Remove(ctx context.Context, id uuid.UUID) error {
	if _, err := requireQuest(ctx, s.repo, id); err != nil {
		return err
	}
	if err := s.repo.Quests().SoftDelete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperrors.QuestNotFound(id)
		}
		return err
	}
	return nil
}

func (s *QuestService) Join(ctx context.Context, userID, questID uuid.UUID) (*models.UserQuest, error) {
	if _, err := requireUser(ctx, s.repo, userID); err != nil {
		return nil, err
	}
	quest, err := requireQuest(ctx, s.repo, questID)
	if err != nil {
		return nil, err
	}
	if quest.Status != models.QuestStatusActive {
		return nil, apperrors.QuestNotActive(questID, quest.Status)
	}
	_, err = s.repo.Participation().Find(ctx, userID, questID)
	if err == nil {
		return nil, apperrors.AlreadyJoined(userID, questID)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	uq := &models.UserQuest{
		UserID:    userID,
		QuestID:   questID,
		Status:    models.ParticipationInProgress,
		StartedAt: s.now(),
	}
	if err := s.repo.Participation().Create(ctx, uq); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperrors.AlreadyJoined(userID, questID)
		}
		return nil, err
	}

	s.sink.Publish(events.New(events.UserJoined, questID, userID, events.UserJoinedData{UserQuestID: uq.ID}))
	return uq, nil
}

func (s *QuestService) Leave(ctx context.Context, userID, questID uuid.UUID) error {
	if _, err := requireUser(ctx, s.repo, userID); err != nil {
		return err
	}
	if _, err := requireQuest(ctx, s.repo, questID); err != nil {
		return err
	}
	uq, err := requireParticipation(ctx, s.repo, userID, questID)
	if err != nil {
		return err
	}
	if uq.Status == models.ParticipationCompleted {
		return apperrors.CompletedQuestCannotBeLeft(questID)
	}
	if err := s.repo.Participation().Delete(ctx, uq.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Complete marks the participation completed, credits the quest's experience
// reward and grants the bound achievement in one transaction. A retry after
// success always sees Conflict and never credits twice.
func (s *QuestService) Complete(ctx context.Context, userID, questID uuid.UUID) (*models.UserQuest, error) {
	if _, err := requireUser(ctx, s.repo, userID); err != nil {
		return nil, err
	}
	quest, err := requireQuest(ctx, s.repo, questID)
	if err != nil {
		return nil, err
	}
	uq, err := requireParticipation(ctx, s.repo, userID, questID)
	if err != nil {
		return nil, err
	}
	if uq.Status == models.ParticipationCompleted {
		return nil, apperrors.AlreadyCompleted(userID, questID)
	}

	now := s.now()
	var granted *models.Achievement
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Participation().MarkCompleted(ctx, uq.ID, now); err != nil {
			if errors.Is(err, ErrStaleWrite) {
				return apperrors.AlreadyCompleted(userID, questID)
			}
			return fmt.Errorf("mark completed: %w", err)
		}
		if quest.ExperienceReward > 0 {
			if _, err := tx.Ledger().Credit(ctx, userID, quest.ExperienceReward, uq.ID); err != nil {
				return fmt.Errorf("credit experience: %w", err)
			}
		}
		if quest.AchievementID != nil {
			a, err := grantIfMissing(ctx, tx, userID, *quest.AchievementID, now)
			if err != nil {
				return fmt.Errorf("grant achievement: %w", err)
			}
			granted = a
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uq.Status = models.ParticipationCompleted
	uq.CompletedAt = &now

	s.sink.Publish(events.New(events.QuestCompleted, questID, userID, events.QuestCompletedData{
		UserQuestID:      uq.ID,
		QuestTitle:       quest.Title,
		ExperienceReward: quest.ExperienceReward,
		AchievementID:    quest.AchievementID,
	}))
	if granted != nil {
		s.sink.Publish(events.New(events.AchievementGranted, questID, userID, events.AchievementGrantedData{
			AchievementID: granted.ID,
			Title:         granted.Title,
		}))
	}

	slog.Info("Quest completed",
		slog.String("quest_id", questID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("experience", quest.ExperienceReward))

	return uq, nil
}

// UpdateRequirementCurrentValue sets the current value of one step's
// requirement. The whole steps sequence is rewritten under a version check;
// a concurrent write causes a re-read and a bounded retry.
func (s *QuestService) UpdateRequirementCurrentValue(ctx context.Context, questID uuid.UUID, stepIndex, value int) (*models.Quest, error) {
	for attempt := 0; attempt < requirementUpdateAttempts; attempt++ {
		quest, err := requireQuest(ctx, s.repo, questID)
		if err != nil {
			return nil, err
		}
		if quest.Status != models.QuestStatusActive {
			return nil, apperrors.QuestNotActive(questID, quest.Status)
		}
		if len(quest.Steps) == 0 {
			return nil, apperrors.QuestHasNoSteps(questID)
		}
		if stepIndex < 0 || stepIndex >= len(quest.Steps) {
			return nil, apperrors.StepIndexOutOfRange(questID, stepIndex, len(quest.Steps))
		}
		req := quest.Steps[stepIndex].Requirement
		if req == nil || req.TargetValue == nil {
			return nil, apperrors.StepHasNoRequirement(questID, stepIndex)
		}
		if err := checkCurrentValue(stepIndex, value, *req.TargetValue); err != nil {
			return nil, err
		}

		steps := models.CloneSteps(quest.Steps)
		steps[stepIndex].Requirement.CurrentValue = value

		err = s.repo.Quests().UpdateSteps(ctx, questID, steps, quest.Version)
		if errors.Is(err, ErrStaleWrite) {
			slog.Warn("Concurrent requirement update, retrying",
				slog.String("quest_id", questID.String()),
				slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, err
		}

		quest.Steps = steps
		quest.Version++
		s.sink.Publish(events.New(events.RequirementUpdated, questID, uuid.Nil, events.RequirementUpdatedData{
			StepIndex: stepIndex,
			Steps:     models.CloneSteps(steps),
		}))
		return quest, nil
	}
	return nil, apperrors.ConcurrentQuestWrite(questID)
}

func (s *QuestService) Archive(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	return s.transition(ctx, id, models.QuestStatusActive, models.QuestStatusArchived)
}

func (s *QuestService) Unarchive(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	return s.transition(ctx, id, models.QuestStatusArchived, models.QuestStatusActive)
}

func (s *QuestService) transition(ctx context.Context, id uuid.UUID, from, to string) (*models.Quest, error) {
	quest, err := requireQuest(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if quest.Status != from {
		return nil, apperrors.QuestStatusTransition(id, quest.Status, to)
	}
	if err := s.repo.Quests().UpdateStatus(ctx, id, to); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.QuestNotFound(id)
		}
		return nil, err
	}
	quest.Status = to
	return quest, nil
}

// Participants lists the participation rows of a quest.
func (s *QuestService) Participants(ctx context.Context, questID uuid.UUID) ([]models.UserQuest, error) {
	if _, err := requireQuest(ctx, s.repo, questID); err != nil {
		return nil, err
	}
	return s.repo.Participation().ListByQuest(ctx, questID)
}
