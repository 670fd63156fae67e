// Package repotest provides in-memory repositories for tests. They mirror the
// Postgres repositories closely enough to drive the services end to end,
// including pgx.ErrNoRows for missing rows.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/beckershow/colaborador-portal/internal/domain"
	"github.com/beckershow/colaborador-portal/internal/repository"
)

var (
	_ repository.UserRepository         = (*Users)(nil)
	_ repository.SettingsRepository     = (*Settings)(nil)
	_ repository.TeamConfigRepository   = (*Teams)(nil)
	_ repository.UserOverrideRepository = (*Overrides)(nil)
	_ repository.FeedbackRepository     = (*Feedbacks)(nil)
)

// Users keeps accounts in insertion order.
type Users struct {
	mu    sync.Mutex
	byID  map[string]*domain.User
	order []string
}

// NewUsers seeds the store with users.
func NewUsers(users ...*domain.User) *Users {
	m := &Users{byID: map[string]*domain.User{}}
	for _, u := range users {
		m.byID[u.ID] = u
		m.order = append(m.order, u.ID)
	}
	return m
}

func (m *Users) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *Users) ListByManager(_ context.Context, managerID string) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.User
	for _, id := range m.order {
		if u := m.byID[id]; u.IsManagedBy(managerID) {
			result = append(result, *u)
		}
	}
	return result, nil
}

// Settings holds the global defaults. Saves counts writes.
type Settings struct {
	mu       sync.Mutex
	defaults *domain.GlobalDefaults
	Saves    int
}

func (m *Settings) GetGlobalDefaults(context.Context) (domain.GlobalDefaults, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.defaults == nil {
		return domain.DefaultGlobalDefaults(), nil
	}
	return *m.defaults, nil
}

func (m *Settings) SaveGlobalDefaults(_ context.Context, d domain.GlobalDefaults) (domain.GlobalDefaults, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.UpdatedAt = time.Now()
	m.defaults = &d
	m.Saves++
	return d, nil
}

// Teams holds team configs by manager. Saves counts writes.
type Teams struct {
	mu      sync.Mutex
	configs map[string]domain.TeamConfig
	Saves   int
}

// NewTeams returns an empty store.
func NewTeams() *Teams {
	return &Teams{configs: map[string]domain.TeamConfig{}}
}

func (m *Teams) Get(_ context.Context, managerID string) (*domain.TeamConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[managerID]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (m *Teams) Upsert(_ context.Context, cfg domain.TeamConfig) (domain.TeamConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg.UpdatedAt = time.Now()
	m.configs[cfg.ManagerID] = cfg
	m.Saves++
	return cfg, nil
}

// Overrides holds individual overrides by user. The roster is read from users.
type Overrides struct {
	mu        sync.Mutex
	users     *Users
	overrides map[string]domain.UserOverride
}

// NewOverrides returns an empty store reading team rosters from users.
func NewOverrides(users *Users) *Overrides {
	return &Overrides{users: users, overrides: map[string]domain.UserOverride{}}
}

func (m *Overrides) Get(_ context.Context, userID string) (*domain.UserOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.overrides[userID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *Overrides) Upsert(_ context.Context, o domain.UserOverride) (domain.UserOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.UpdatedAt = time.Now()
	m.overrides[o.UserID] = o
	return o, nil
}

func (m *Overrides) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overrides, userID)
	return nil
}

// ListTeamMembers only joins overrides set for managerID's team.
func (m *Overrides) ListTeamMembers(ctx context.Context, managerID string) ([]repository.TeamMemberOverride, error) {
	members, err := m.users.ListByManager(ctx, managerID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]repository.TeamMemberOverride, 0, len(members))
	for _, u := range members {
		row := repository.TeamMemberOverride{UserID: u.ID, Name: u.Name}
		if o, ok := m.overrides[u.ID]; ok && o.ManagerID == managerID {
			row.Override = &o
		}
		result = append(result, row)
	}
	return result, nil
}

// Feedbacks stores feedbacks with creation times taken from a clock.
// FailNext, when set, is returned once by the next Create.
type Feedbacks struct {
	mu        sync.Mutex
	items     map[string]domain.Feedback
	now       func() time.Time
	createSeq int
	FailNext  error
}

// NewFeedbacks returns an empty store stamping rows with now.
func NewFeedbacks(now func() time.Time) *Feedbacks {
	return &Feedbacks{items: map[string]domain.Feedback{}, now: now}
}

func (m *Feedbacks) Create(_ context.Context, fb *domain.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return err
	}
	m.createSeq++
	// Nanosecond offsets keep list ordering stable.
	fb.CreatedAt = m.now().Add(time.Duration(m.createSeq))
	fb.UpdatedAt = fb.CreatedAt
	m.items[fb.ID] = *fb
	return nil
}

func (m *Feedbacks) Update(_ context.Context, fb *domain.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[fb.ID]; !ok {
		return pgx.ErrNoRows
	}
	fb.UpdatedAt = m.now()
	m.items[fb.ID] = *fb
	return nil
}

func (m *Feedbacks) GetByID(_ context.Context, id string) (*domain.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fb, ok := m.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &fb, nil
}

func (m *Feedbacks) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *Feedbacks) CountSentSince(_ context.Context, senderID string, dayStart, weekStart time.Time) (domain.SendCounters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c domain.SendCounters
	for _, fb := range m.items {
		if fb.SenderID != senderID {
			continue
		}
		if !fb.CreatedAt.Before(dayStart) {
			c.SentToday++
		}
		if !fb.CreatedAt.Before(weekStart) {
			c.SentThisWeek++
		}
	}
	return c, nil
}

func (m *Feedbacks) ListPendingByManager(_ context.Context, managerID string) ([]domain.Feedback, error) {
	return m.filter(func(fb domain.Feedback) bool {
		return fb.Status == domain.FeedbackStatusPending && fb.ManagerID != nil && *fb.ManagerID == managerID
	}), nil
}

func (m *Feedbacks) ListAllPending(context.Context) ([]domain.Feedback, error) {
	return m.filter(func(fb domain.Feedback) bool { return fb.Status == domain.FeedbackStatusPending }), nil
}

func (m *Feedbacks) ListBySender(_ context.Context, senderID string) ([]domain.Feedback, error) {
	return m.filter(func(fb domain.Feedback) bool { return fb.SenderID == senderID }), nil
}

func (m *Feedbacks) ListByRecipient(_ context.Context, recipientID string) ([]domain.Feedback, error) {
	return m.filter(func(fb domain.Feedback) bool {
		return fb.RecipientID == recipientID && fb.Status == domain.FeedbackStatusApproved
	}), nil
}

func (m *Feedbacks) filter(keep func(domain.Feedback) bool) []domain.Feedback {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Feedback
	for _, fb := range m.items {
		if keep(fb) {
			result = append(result, fb)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

// Backdate moves a stored feedback's creation time.
func (m *Feedbacks) Backdate(id string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fb := m.items[id]
	fb.CreatedAt = at
	m.items[id] = fb
}
