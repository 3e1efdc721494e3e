package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/communityos/ticketing/internal/model"
)

// In-memory fakes for the store ports. They reproduce the store contract
// the engines rely on: ErrNotFound for misses, ErrDuplicate on unique
// violations, and version-conditional ticket writes.

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]*model.Event
}

func newFakeEventRepo(events ...*model.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: make(map[string]*model.Event)}
	for _, e := range events {
		r.events[e.ID] = e
	}
	return r
}

func (r *fakeEventRepo) Create(ctx context.Context, e *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[e.ID] = e
	return nil
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEventRepo) List(ctx context.Context) ([]model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Event
	for _, e := range r.events {
		out = append(out, *e)
	}
	return out, nil
}

func (r *fakeEventRepo) UpdateStatus(ctx context.Context, id string, status model.EventStatus) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	e.Status = status
	cp := *e
	return &cp, nil
}

func (r *fakeEventRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

type fakeRegistrationRepo struct {
	mu   sync.Mutex
	regs map[string]*model.Registration

	// createErr, when set, overrides Create to simulate a store-level
	// conflict that the pre-check did not see (a concurrency race).
	createErr error
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{regs: make(map[string]*model.Registration)}
}

func (r *fakeRegistrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.regs {
		if existing.EventID != reg.EventID {
			continue
		}
		if reg.UserID != "" && existing.UserID == reg.UserID {
			return model.ErrDuplicate
		}
		if reg.GuestEmail != "" && existing.GuestEmail == reg.GuestEmail {
			return model.ErrDuplicate
		}
	}
	cp := *reg
	r.regs[reg.ID] = &cp
	return nil
}

func (r *fakeRegistrationRepo) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (r *fakeRegistrationRepo) GetByUser(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.regs {
		if reg.EventID == eventID && reg.UserID == userID && userID != "" {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeRegistrationRepo) GetByGuestEmail(ctx context.Context, eventID, email string) (*model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.regs {
		if reg.EventID == eventID && reg.GuestEmail == email && email != "" {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeRegistrationRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Registration
	for _, reg := range r.regs {
		if reg.EventID == eventID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (r *fakeRegistrationRepo) Update(ctx context.Context, reg *model.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.regs[reg.ID]
	if !ok {
		return model.ErrNotFound
	}
	stored.AttendeeCount = reg.AttendeeCount
	stored.Notes = reg.Notes
	return nil
}

func (r *fakeRegistrationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regs[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.regs, id)
	return nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*model.Ticket

	// createErr, when set, makes Create fail to simulate issuance outages.
	createErr error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*model.Ticket)}
}

func (r *fakeTicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.tickets {
		if existing.EventID != t.EventID {
			continue
		}
		if t.UserID != "" && existing.UserID == t.UserID {
			return model.ErrDuplicate
		}
		if t.GuestEmail != "" && existing.GuestEmail == t.GuestEmail {
			return model.ErrDuplicate
		}
	}
	cp := *t
	r.tickets[t.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTicketRepo) GetByUser(ctx context.Context, eventID, userID string) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.EventID == eventID && t.UserID == userID && userID != "" {
			cp := *t
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeTicketRepo) GetByGuestEmail(ctx context.Context, eventID, email string) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.EventID == eventID && t.GuestEmail == email && email != "" {
			cp := *t
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeTicketRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Ticket
	for _, t := range r.tickets {
		if t.EventID == eventID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) UpdateConditional(ctx context.Context, t *model.Ticket, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[t.ID]
	if !ok {
		return model.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: ticket modified concurrently", model.ErrInvalidTransition)
	}
	cp := *t
	cp.Version = expectedVersion + 1
	r.tickets[t.ID] = &cp
	t.Version = cp.Version
	return nil
}

type fakeGrantStore struct {
	mu     sync.Mutex
	grants map[model.PermissionGrant]bool
}

func newFakeGrantStore() *fakeGrantStore {
	return &fakeGrantStore{grants: make(map[model.PermissionGrant]bool)}
}

func (s *fakeGrantStore) ListGrants(ctx context.Context) ([]model.PermissionGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PermissionGrant, 0, len(s.grants))
	for g := range s.grants {
		out = append(out, g)
	}
	return out, nil
}

func (s *fakeGrantStore) Insert(ctx context.Context, g model.PermissionGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[g] = true
	return nil
}

func (s *fakeGrantStore) Delete(ctx context.Context, g model.PermissionGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, g)
	return nil
}
