package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventra/registration-service/internal/model"
	"github.com/eventra/registration-service/internal/notify"
	"github.com/eventra/registration-service/internal/repository"
)

// memStore is an in-memory Store used by the service tests. Its
// WithEventLock gives the same per-event exclusive-section semantics the
// pgx store gets from SELECT … FOR UPDATE, via a keyed semaphore.
type memStore struct {
	mu     sync.Mutex
	users  map[string]*model.User // by id
	emails map[string]string      // email -> id
	events map[string]*model.Event
	regs   map[string]*model.Registration
	locks  map[string]chan struct{}
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[string]*model.User),
		emails: make(map[string]string),
		events: make(map[string]*model.Event),
		regs:   make(map[string]*model.Registration),
		locks:  make(map[string]chan struct{}),
	}
}

func (m *memStore) userStore() *memUsers   { return &memUsers{m} }
func (m *memStore) eventStore() *memEvents { return &memEvents{m} }
func (m *memStore) regStore() *memRegs     { return &memRegs{m} }

// ── seeding helpers ──────────────────────────────────────────────────────

func (m *memStore) addUser(email, name string) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Role:      model.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	m.users[u.ID] = u
	m.emails[u.Email] = u.ID
	return cloneUser(u)
}

func (m *memStore) addEvent(e *model.Event) *model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	m.events[e.ID] = cloneEvent(e)
	return cloneEvent(e)
}

func (m *memStore) registrationRows(eventID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.regs {
		if r.EventID == eventID {
			n++
		}
	}
	return n
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

func cloneEvent(e *model.Event) *model.Event {
	c := *e
	return &c
}

func cloneReg(r *model.Registration) *model.Registration {
	c := *r
	if r.CancelledAt != nil {
		t := *r.CancelledAt
		c.CancelledAt = &t
	}
	if r.CheckedInAt != nil {
		t := *r.CheckedInAt
		c.CheckedInAt = &t
	}
	return &c
}

// ── EventLocker ──────────────────────────────────────────────────────────

func (m *memStore) lockFor(eventID string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	sem, ok := m.locks[eventID]
	if !ok {
		sem = make(chan struct{}, 1)
		m.locks[eventID] = sem
	}
	return sem
}

func (m *memStore) WithEventLock(ctx context.Context, eventID string, fn func(tx repository.EventTx) error) error {
	sem := m.lockFor(eventID)
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sem }()

	m.mu.Lock()
	e, ok := m.events[eventID]
	if !ok {
		m.mu.Unlock()
		return model.ErrNotFound
	}
	event := cloneEvent(e)
	m.mu.Unlock()

	return fn(&memEventTx{store: m, event: event})
}

type memEventTx struct {
	store *memStore
	event *model.Event
}

func (t *memEventTx) Event() *model.Event { return t.event }

func (t *memEventTx) ConfirmedCount(ctx context.Context) (int, error) {
	return t.store.regStore().CountByEventAndStatus(ctx, t.event.ID, model.RegistrationConfirmed)
}

func (t *memEventTx) FindRegistration(ctx context.Context, userID string) (*model.Registration, error) {
	return t.store.regStore().GetByUserAndEvent(ctx, userID, t.event.ID)
}

func (t *memEventTx) CreateRegistration(_ context.Context, reg *model.Registration) error {
	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.regs {
		if r.UserID == reg.UserID && r.EventID == reg.EventID {
			return model.ErrDuplicateRegistration
		}
	}
	m.regs[reg.ID] = cloneReg(reg)
	return nil
}

func (t *memEventTx) UpdateRegistration(ctx context.Context, reg *model.Registration) error {
	return t.store.regStore().Update(ctx, reg)
}

// ── UserStore ────────────────────────────────────────────────────────────

type memUsers struct{ s *memStore }

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	id, ok := m.s.emails[email]
	if !ok {
		return nil, model.ErrNotFound
	}
	return cloneUser(m.s.users[id]), nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return cloneUser(u), nil
}

// ── EventStore ───────────────────────────────────────────────────────────

type memEvents struct{ s *memStore }

func (m *memEvents) Create(_ context.Context, e *model.Event) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.events[e.ID] = cloneEvent(e)
	return nil
}

func (m *memEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.events[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (m *memEvents) Update(_ context.Context, e *model.Event) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.events[e.ID]; !ok {
		return model.ErrNotFound
	}
	m.s.events[e.ID] = cloneEvent(e)
	return nil
}

func (m *memEvents) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.events[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.s.events, id)
	return nil
}

func (m *memEvents) List(_ context.Context, status model.EventStatus) ([]model.Event, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Event
	for _, e := range m.s.events {
		if status == "" || e.Status == status {
			out = append(out, *cloneEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (m *memEvents) ListByOrganizer(_ context.Context, organizerID string) ([]model.Event, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Event
	for _, e := range m.s.events {
		if e.OrganizerID == organizerID {
			out = append(out, *cloneEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ── RegistrationStore ────────────────────────────────────────────────────

type memRegs struct{ s *memStore }

func (m *memRegs) GetByID(_ context.Context, id string) (*model.Registration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.regs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return cloneReg(r), nil
}

func (m *memRegs) GetByUserAndEvent(_ context.Context, userID, eventID string) (*model.Registration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.regs {
		if r.UserID == userID && r.EventID == eventID {
			return cloneReg(r), nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *memRegs) GetByTicketCode(_ context.Context, ticketCode string) (*model.Registration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.regs {
		if r.TicketCode == ticketCode {
			return cloneReg(r), nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *memRegs) Update(_ context.Context, reg *model.Registration) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.regs[reg.ID]; !ok {
		return model.ErrNotFound
	}
	m.s.regs[reg.ID] = cloneReg(reg)
	return nil
}

func (m *memRegs) CountByEventAndStatus(_ context.Context, eventID string, status model.RegistrationStatus) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n := 0
	for _, r := range m.s.regs {
		if r.EventID == eventID && r.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memRegs) ListByEvent(_ context.Context, eventID string) ([]model.Registration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Registration
	for _, r := range m.s.regs {
		if r.EventID == eventID {
			out = append(out, *cloneReg(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (m *memRegs) ListByUser(_ context.Context, userID string, activeOnly bool) ([]model.Registration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Registration
	for _, r := range m.s.regs {
		if r.UserID != userID {
			continue
		}
		if activeOnly && r.Status != model.RegistrationConfirmed {
			continue
		}
		out = append(out, *cloneReg(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.After(out[j].RegisteredAt) })
	return out, nil
}

func (m *memRegs) CheckIn(_ context.Context, id string, at time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.regs[id]
	if !ok {
		return false, model.ErrNotFound
	}
	if r.CheckedInAt != nil {
		return false, nil
	}
	t := at
	r.CheckedInAt = &t
	r.Status = model.RegistrationAttended
	r.UpdatedAt = at
	return true, nil
}

// ── notification recorder ────────────────────────────────────────────────

type recordSink struct {
	mu    sync.Mutex
	err   error
	notes []notify.Notification
}

func (s *recordSink) Publish(_ context.Context, n notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.notes = append(s.notes, n)
	return nil
}

func (s *recordSink) byKey(key string) []notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []notify.Notification
	for _, n := range s.notes {
		if n.RoutingKey() == key {
			out = append(out, n)
		}
	}
	return out
}

// ── shared fixture ───────────────────────────────────────────────────────

type fixture struct {
	store   *memStore
	sink    *recordSink
	events  *EventService
	regs    *RegistrationService
	tickets *TicketService
}

func newFixture() *fixture {
	store := newMemStore()
	sink := &recordSink{}
	guard := NewCapacityGuard(store, 2*time.Second)
	return &fixture{
		store:   store,
		sink:    sink,
		events:  NewEventService(store.userStore(), store.eventStore(), store.regStore(), sink),
		regs:    NewRegistrationService(store.userStore(), store.eventStore(), store.regStore(), guard, sink),
		tickets: NewTicketService(store.userStore(), store.eventStore(), store.regStore()),
	}
}

func (f *fixture) publishedEvent(capacity int, start time.Time) *model.Event {
	organizer := f.store.addUser("organizer@example.com", "Organizer")
	return f.store.addEvent(&model.Event{
		Title:       "Go Meetup",
		Description: "Talks and pizza",
		Location:    "Main Hall",
		StartDate:   start,
		EndDate:     start.Add(3 * time.Hour),
		Capacity:    capacity,
		Status:      model.EventPublished,
		OrganizerID: organizer.ID,
	})
}
