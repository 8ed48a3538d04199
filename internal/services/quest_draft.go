package services

import (
	"context"
	"fmt"

	"github.com/arnold/charity-quests-api/internal/models"
)

// questDraft creates a quest together with its inline private achievement.
// Quest and achievement reference each other, so the build runs in three
// phases: the achievement is written without a quest, then the quest is
// written pointing at it, then the achievement is bound back to the quest.
//
// Outside a transaction an interrupted build leaves a private achievement
// with a nil quest id. Such rows are orphans, not corruption, and are
// removed by AchievementService.ReconcileOrphans.
type questDraft struct {
	quest       *models.Quest
	achievement *models.Achievement
}

func (d *questDraft) build(ctx context.Context, repo Repository) error {
	if err := d.createAchievement(ctx, repo); err != nil {
		return err
	}
	if err := d.createQuest(ctx, repo); err != nil {
		return err
	}
	return d.bindAchievement(ctx, repo)
}

func (d *questDraft) createAchievement(ctx context.Context, repo Repository) error {
	if d.achievement == nil {
		return nil
	}
	d.achievement.Rarity = models.RarityPrivate
	d.achievement.QuestID = nil
	if err := repo.Achievements().Create(ctx, d.achievement); err != nil {
		return fmt.Errorf("create inline achievement: %w", err)
	}
	d.quest.AchievementID = &d.achievement.ID
	return nil
}

func (d *questDraft) createQuest(ctx context.Context, repo Repository) error {
	if err := repo.Quests().Create(ctx, d.quest); err != nil {
		return fmt.Errorf("create quest: %w", err)
	}
	return nil
}

func (d *questDraft) bindAchievement(ctx context.Context, repo Repository) error {
	if d.achievement == nil {
		return nil
	}
	questID := d.quest.ID
	if err := repo.Achievements().SetQuest(ctx, d.achievement.ID, &questID); err != nil {
		return fmt.Errorf("bind achievement to quest: %w", err)
	}
	d.achievement.QuestID = &questID
	return nil
}
