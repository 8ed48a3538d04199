package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arnold/charity-quests-api/internal/events"
	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memState is the data behind memRepo. It is copied wholesale for
// transaction snapshots.
type memState struct {
	users        map[uuid.UUID]models.User
	quests       map[uuid.UUID]models.Quest
	participants map[uuid.UUID]models.UserQuest
	achievements map[uuid.UUID]models.Achievement
	grants       map[uuid.UUID]models.UserAchievement
	categories   map[uuid.UUID]models.Category
	links        []models.QuestCategory
	cities       map[uuid.UUID]models.City
	orgTypes     map[uuid.UUID]models.OrganizationType
	credits      map[uuid.UUID]models.ExperienceCredit
}

func newMemState() *memState {
	return &memState{
		users:        map[uuid.UUID]models.User{},
		quests:       map[uuid.UUID]models.Quest{},
		participants: map[uuid.UUID]models.UserQuest{},
		achievements: map[uuid.UUID]models.Achievement{},
		grants:       map[uuid.UUID]models.UserAchievement{},
		categories:   map[uuid.UUID]models.Category{},
		cities:       map[uuid.UUID]models.City{},
		orgTypes:     map[uuid.UUID]models.OrganizationType{},
		credits:      map[uuid.UUID]models.ExperienceCredit{},
	}
}

func (s *memState) clone() *memState {
	out := newMemState()
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.quests {
		out.quests[k] = copyQuest(v)
	}
	for k, v := range s.participants {
		out.participants[k] = v
	}
	for k, v := range s.achievements {
		out.achievements[k] = v
	}
	for k, v := range s.grants {
		out.grants[k] = v
	}
	for k, v := range s.categories {
		out.categories[k] = v
	}
	out.links = append([]models.QuestCategory(nil), s.links...)
	for k, v := range s.cities {
		out.cities[k] = v
	}
	for k, v := range s.orgTypes {
		out.orgTypes[k] = v
	}
	for k, v := range s.credits {
		out.credits[k] = v
	}
	return out
}

func copyQuest(q models.Quest) models.Quest {
	q.Steps = models.CloneSteps(q.Steps)
	q.Gallery = append([]string(nil), q.Gallery...)
	q.Contacts = append([]models.Contact(nil), q.Contacts...)
	return q
}

// memRepo is an in-memory Repository. Transactions snapshot the state and
// restore it when fn fails.
type memRepo struct {
	mu    *sync.Mutex
	state **memState
	// failures injects an error for the named operation.
	failures map[string]error
	// staleUpdates makes the next n UpdateSteps calls report ErrStaleWrite.
	staleUpdates *int
}

func newMemRepo() *memRepo {
	state := newMemState()
	stale := 0
	return &memRepo{mu: &sync.Mutex{}, state: &state, failures: map[string]error{}, staleUpdates: &stale}
}

func (r *memRepo) s() *memState { return *r.state }

func (r *memRepo) fail(op string) error {
	return r.failures[op]
}

func (r *memRepo) Quests() QuestStore { return memQuests{r} }
func (r *memRepo) Participation() ParticipationStore { return memParticipation{r} }
func (r *memRepo) Achievements() AchievementStore { return memAchievements{r} }
func (r *memRepo) Categories() CategoryStore { return memCategories{r} }
func (r *memRepo) Users() UserStore { return memUsers{r} }
func (r *memRepo) References() ReferenceStore { return memReferences{r} }
func (r *memRepo) Ledger() RewardLedger { return memLedger{r} }

func (r *memRepo) Transaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	snapshot := r.s().clone()
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		*r.state = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

// Seeding helpers.

func (r *memRepo) addUser(level int) models.User {
	u := models.User{ID: uuid.New(), Email: uuid.NewString() + "@example.org", Level: level, Experience: (level - 1) * models.ExperiencePerLevel}
	r.s().users[u.ID] = u
	return u
}

func (r *memRepo) addCity() models.City {
	c := models.City{ID: uuid.New(), Name: "Springfield"}
	r.s().cities[c.ID] = c
	return c
}

func (r *memRepo) addOrgType() models.OrganizationType {
	o := models.OrganizationType{ID: uuid.New(), Name: "Food bank"}
	r.s().orgTypes[o.ID] = o
	return o
}

func (r *memRepo) addCategory(name string) models.Category {
	c := models.Category{ID: uuid.New(), Name: name}
	r.s().categories[c.ID] = c
	return c
}

func (r *memRepo) user(id uuid.UUID) models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s().users[id]
}

func (r *memRepo) grantCount(userID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, g := range r.s().grants {
		if g.UserID == userID {
			n++
		}
	}
	return n
}

func (r *memRepo) participationCount(userID, questID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.s().participants {
		if p.UserID == userID && p.QuestID == questID {
			n++
		}
	}
	return n
}

type memQuests struct{ r *memRepo }

func (m memQuests) Get(_ context.Context, id uuid.UUID) (*models.Quest, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	q, ok := m.r.s().quests[id]
	if !ok || q.DeletedAt.Valid {
		return nil, ErrNotFound
	}
	out := copyQuest(q)
	return &out, nil
}

func (m memQuests) GetWithRelations(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	q, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	s := m.r.s()
	if u, ok := s.users[q.OwnerID]; ok {
		q.Owner = &u
	}
	if c, ok := s.cities[q.CityID]; ok {
		q.City = &c
	}
	if q.OrganizationTypeID != nil {
		if o, ok := s.orgTypes[*q.OrganizationTypeID]; ok {
			q.OrganizationType = &o
		}
	}
	if q.AchievementID != nil {
		if a, ok := s.achievements[*q.AchievementID]; ok && !a.DeletedAt.Valid {
			q.Achievement = &a
		}
	}
	return q, nil
}

func (m memQuests) List(_ context.Context, filter models.QuestFilter) ([]models.Quest, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []models.Quest
	for _, q := range m.r.s().quests {
		if q.DeletedAt.Valid {
			continue
		}
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		if filter.OwnerID != nil && q.OwnerID != *filter.OwnerID {
			continue
		}
		out = append(out, copyQuest(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m memQuests) Create(_ context.Context, q *models.Quest) error {
	if err := m.r.fail("quests.create"); err != nil {
		return err
	}
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if err := q.BeforeCreate(nil); err != nil {
		return err
	}
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	m.r.s().quests[q.ID] = copyQuest(*q)
	return nil
}

func (m memQuests) Save(_ context.Context, q *models.Quest) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	stored, ok := m.r.s().quests[q.ID]
	if !ok || stored.DeletedAt.Valid {
		return ErrNotFound
	}
	if stored.Version != q.Version {
		return ErrStaleWrite
	}
	if q.AchievementID != nil && m.holder(*q.AchievementID, q.ID) {
		return ErrDuplicate
	}
	q.Version++
	q.UpdatedAt = time.Now()
	saved := copyQuest(*q)
	saved.CreatedAt = stored.CreatedAt
	m.r.s().quests[q.ID] = saved
	return nil
}

func (m memQuests) UpdateSteps(_ context.Context, id uuid.UUID, steps []models.Step, expectedVersion int) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if *m.r.staleUpdates > 0 {
		*m.r.staleUpdates--
		q := m.r.s().quests[id]
		q.Version++
		m.r.s().quests[id] = q
		return ErrStaleWrite
	}
	q, ok := m.r.s().quests[id]
	if !ok || q.DeletedAt.Valid {
		return ErrNotFound
	}
	if q.Version != expectedVersion {
		return ErrStaleWrite
	}
	q.Steps = models.CloneSteps(steps)
	q.Version++
	q.UpdatedAt = time.Now()
	m.r.s().quests[id] = q
	return nil
}

func (m memQuests) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	q, ok := m.r.s().quests[id]
	if !ok || q.DeletedAt.Valid {
		return ErrNotFound
	}
	q.Status = status
	m.r.s().quests[id] = q
	return nil
}

func (m memQuests) SetAchievement(_ context.Context, id uuid.UUID, achievementID *uuid.UUID) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	q, ok := m.r.s().quests[id]
	if !ok || q.DeletedAt.Valid {
		return ErrNotFound
	}
	if achievementID != nil && m.holder(*achievementID, id) {
		return ErrDuplicate
	}
	q.AchievementID = achievementID
	m.r.s().quests[id] = q
	return nil
}

// holder reports whether a quest other than id holds achievementID. Callers
// hold the lock.
func (m memQuests) holder(achievementID, id uuid.UUID) bool {
	for _, other := range m.r.s().quests {
		if other.ID != id && other.AchievementID != nil && *other.AchievementID == achievementID {
			return true
		}
	}
	return false
}

func (m memQuests) FindByAchievement(_ context.Context, achievementID uuid.UUID) (*models.Quest, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, q := range m.r.s().quests {
		if !q.DeletedAt.Valid && q.AchievementID != nil && *q.AchievementID == achievementID {
			out := copyQuest(q)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m memQuests) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	q, ok := m.r.s().quests[id]
	if !ok || q.DeletedAt.Valid {
		return ErrNotFound
	}
	q.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	q.AchievementID = nil
	m.r.s().quests[id] = q
	return nil
}

func (m memQuests) CountByStatus(_ context.Context) (map[string]int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	out := map[string]int64{}
	for _, q := range m.r.s().quests {
		if !q.DeletedAt.Valid {
			out[q.Status]++
		}
	}
	return out, nil
}

type memParticipation struct{ r *memRepo }

func (m memParticipation) Find(_ context.Context, userID, questID uuid.UUID) (*models.UserQuest, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, p := range m.r.s().participants {
		if p.UserID == userID && p.QuestID == questID {
			out := p
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m memParticipation) ListByQuest(_ context.Context, questID uuid.UUID) ([]models.UserQuest, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []models.UserQuest
	for _, p := range m.r.s().participants {
		if p.QuestID == questID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m memParticipation) Create(_ context.Context, uq *models.UserQuest) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, p := range m.r.s().participants {
		if p.UserID == uq.UserID && p.QuestID == uq.QuestID {
			return ErrDuplicate
		}
	}
	if err := uq.BeforeCreate(nil); err != nil {
		return err
	}
	m.r.s().participants[uq.ID] = *uq
	return nil
}

func (m memParticipation) MarkCompleted(_ context.Context, id uuid.UUID, at time.Time) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	p, ok := m.r.s().participants[id]
	if !ok || p.Status == models.ParticipationCompleted {
		return ErrStaleWrite
	}
	p.Status = models.ParticipationCompleted
	p.CompletedAt = &at
	m.r.s().participants[id] = p
	return nil
}

func (m memParticipation) Delete(_ context.Context, id uuid.UUID) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if _, ok := m.r.s().participants[id]; !ok {
		return ErrNotFound
	}
	delete(m.r.s().participants, id)
	return nil
}

func (m memParticipation) StatsByQuest(_ context.Context, questIDs []uuid.UUID) ([]models.QuestStats, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	byQuest := map[uuid.UUID]*models.QuestStats{}
	for _, id := range questIDs {
		byQuest[id] = &models.QuestStats{QuestID: id}
	}
	for _, p := range m.r.s().participants {
		st, ok := byQuest[p.QuestID]
		if !ok {
			continue
		}
		st.Participants++
		if p.Status == models.ParticipationCompleted {
			st.Completions++
		}
	}
	out := make([]models.QuestStats, 0, len(byQuest))
	for _, st := range byQuest {
		out = append(out, *st)
	}
	return out, nil
}

func (m memParticipation) Totals(_ context.Context) (int64, int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var total, completed int64
	for _, p := range m.r.s().participants {
		total++
		if p.Status == models.ParticipationCompleted {
			completed++
		}
	}
	return total, completed, nil
}

type memAchievements struct{ r *memRepo }

func (m memAchievements) Get(_ context.Context, id uuid.UUID) (*models.Achievement, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	a, ok := m.r.s().achievements[id]
	if !ok || a.DeletedAt.Valid {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m memAchievements) FindByTitle(_ context.Context, title string) (*models.Achievement, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, a := range m.r.s().achievements {
		if a.Title == title && !a.DeletedAt.Valid {
			out := a
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m memAchievements) List(_ context.Context) ([]models.Achievement, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []models.Achievement
	for _, a := range m.r.s().achievements {
		if !a.DeletedAt.Valid {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m memAchievements) Create(_ context.Context, a *models.Achievement) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if err := a.BeforeCreate(nil); err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	m.r.s().achievements[a.ID] = *a
	return nil
}

func (m memAchievements) Save(_ context.Context, a *models.Achievement) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	m.r.s().achievements[a.ID] = *a
	return nil
}

func (m memAchievements) SetQuest(_ context.Context, id uuid.UUID, questID *uuid.UUID) error {
	if err := m.r.fail("achievements.setQuest"); err != nil {
		return err
	}
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	a, ok := m.r.s().achievements[id]
	if !ok {
		return ErrNotFound
	}
	a.QuestID = questID
	m.r.s().achievements[id] = a
	return nil
}

func (m memAchievements) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	a, ok := m.r.s().achievements[id]
	if !ok || a.DeletedAt.Valid {
		return ErrNotFound
	}
	a.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	m.r.s().achievements[id] = a
	return nil
}

func (m memAchievements) FindGrant(_ context.Context, userID, achievementID uuid.UUID) (*models.UserAchievement, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, g := range m.r.s().grants {
		if g.UserID == userID && g.AchievementID == achievementID {
			out := g
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m memAchievements) Grant(_ context.Context, grant *models.UserAchievement) error {
	if err := m.r.fail("achievements.grant"); err != nil {
		return err
	}
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, g := range m.r.s().grants {
		if g.UserID == grant.UserID && g.AchievementID == grant.AchievementID {
			return ErrDuplicate
		}
	}
	if err := grant.BeforeCreate(nil); err != nil {
		return err
	}
	m.r.s().grants[grant.ID] = *grant
	return nil
}

func (m memAchievements) CountGrants(_ context.Context) (int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	return int64(len(m.r.s().grants)), nil
}

func (m memAchievements) ListPrivateCreatedBefore(_ context.Context, t time.Time) ([]models.Achievement, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []models.Achievement
	for _, a := range m.r.s().achievements {
		if a.Rarity == models.RarityPrivate && !a.DeletedAt.Valid && a.CreatedAt.Before(t) {
			out = append(out, a)
		}
	}
	return out, nil
}

type memCategories struct{ r *memRepo }

func (m memCategories) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Category, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []models.Category
	for _, id := range ids {
		if c, ok := m.r.s().categories[id]; ok && !c.DeletedAt.Valid {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m memCategories) LinkExists(_ context.Context, questID, categoryID uuid.UUID) (bool, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, l := range m.r.s().links {
		if l.QuestID == questID && l.CategoryID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

func (m memCategories) Link(_ context.Context, questID uuid.UUID, categoryIDs []uuid.UUID) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	s := m.r.s()
	for _, id := range categoryIDs {
		s.links = append(s.links, models.QuestCategory{QuestID: questID, CategoryID: id})
	}
	return nil
}

func (m memCategories) Unlink(_ context.Context, questID, categoryID uuid.UUID) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	s := m.r.s()
	for i, l := range s.links {
		if l.QuestID == questID && l.CategoryID == categoryID {
			s.links = append(s.links[:i], s.links[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m memCategories) UnlinkAll(_ context.Context, questID uuid.UUID) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	s := m.r.s()
	kept := s.links[:0]
	for _, l := range s.links {
		if l.QuestID != questID {
			kept = append(kept, l)
		}
	}
	s.links = kept
	return nil
}

func (m memCategories) ListByQuestIDs(_ context.Context, questIDs []uuid.UUID) ([]models.QuestCategoryRow, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	wanted := map[uuid.UUID]bool{}
	for _, id := range questIDs {
		wanted[id] = true
	}
	var out []models.QuestCategoryRow
	for _, l := range m.r.s().links {
		if wanted[l.QuestID] {
			out = append(out, models.QuestCategoryRow{QuestID: l.QuestID, Category: m.r.s().categories[l.CategoryID]})
		}
	}
	return out, nil
}

type memUsers struct{ r *memRepo }

func (m memUsers) Get(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	u, ok := m.r.s().users[id]
	if !ok || u.DeletedAt.Valid {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m memUsers) SetFCMToken(_ context.Context, id uuid.UUID, token string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	u, ok := m.r.s().users[id]
	if !ok {
		return ErrNotFound
	}
	u.FCMToken = token
	m.r.s().users[id] = u
	return nil
}

type memReferences struct{ r *memRepo }

func (m memReferences) GetCity(_ context.Context, id uuid.UUID) (*models.City, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	c, ok := m.r.s().cities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m memReferences) GetOrganizationType(_ context.Context, id uuid.UUID) (*models.OrganizationType, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	o, ok := m.r.s().orgTypes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

type memLedger struct{ r *memRepo }

func (m memLedger) Credit(_ context.Context, userID uuid.UUID, amount int, key uuid.UUID) (bool, error) {
	if err := m.r.fail("ledger.credit"); err != nil {
		return false, err
	}
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	s := m.r.s()
	if _, ok := s.credits[key]; ok {
		return false, nil
	}
	u, ok := s.users[userID]
	if !ok {
		return false, ErrNotFound
	}
	s.credits[key] = models.ExperienceCredit{ID: uuid.New(), UserQuestID: key, UserID: userID, Amount: amount}
	u.Experience += amount
	u.Level = models.LevelForExperience(u.Experience)
	s.users[userID] = u
	return true, nil
}

// recordingSink collects published events.
type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Publish(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) names() []events.Name {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Name, len(s.events))
	for i, e := range s.events {
		out[i] = e.Name
	}
	return out
}

func (s *recordingSink) count(name events.Name) int {
	n := 0
	for _, got := range s.names() {
		if got == name {
			n++
		}
	}
	return n
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func (s *recordingSink) last() events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}
