package services

import (
	"context"

	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Aggregator batches per-quest lookups for list projections: one query per
// relation for the whole result set, grouped by quest id afterwards.
type Aggregator struct {
	repo Repository
}

func NewAggregator(repo Repository) *Aggregator {
	return &Aggregator{repo: repo}
}

// Enrich fills categories and participation counts on every quest.
func (a *Aggregator) Enrich(ctx context.Context, quests []models.Quest) error {
	if len(quests) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(quests))
	for i := range quests {
		ids[i] = quests[i].ID
	}

	var (
		rows  []models.QuestCategoryRow
		stats []models.QuestStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = a.repo.Categories().ListByQuestIDs(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = a.repo.Participation().StatsByQuest(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	byQuest := GroupCategories(rows)
	statsByQuest := make(map[uuid.UUID]models.QuestStats, len(stats))
	for _, st := range stats {
		statsByQuest[st.QuestID] = st
	}
	for i := range quests {
		categories := byQuest[quests[i].ID]
		if categories == nil {
			categories = []models.Category{}
		}
		quests[i].Categories = categories
		st := statsByQuest[quests[i].ID]
		quests[i].ParticipantsCount = st.Participants
		quests[i].CompletionsCount = st.Completions
	}
	return nil
}

// Stats summarizes the platform.
func (a *Aggregator) Stats(ctx context.Context) (*models.PlatformStats, error) {
	out := &models.PlatformStats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		byStatus, err := a.repo.Quests().CountByStatus(gctx)
		out.QuestsByStatus = byStatus
		return err
	})
	g.Go(func() error {
		var err error
		out.Participations, out.Completions, err = a.repo.Participation().Totals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Grants, err = a.repo.Achievements().CountGrants(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out.QuestsByStatus == nil {
		out.QuestsByStatus = map[string]int64{}
	}
	return out, nil
}

// GroupCategories groups tagged rows by quest id, keeping row order.
func GroupCategories(rows []models.QuestCategoryRow) map[uuid.UUID][]models.Category {
	out := make(map[uuid.UUID][]models.Category)
	for _, row := range rows {
		out[row.QuestID] = append(out[row.QuestID], row.Category)
	}
	return out
}
