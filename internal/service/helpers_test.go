package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/communityos/ticketing/internal/message"
	"github.com/communityos/ticketing/internal/model"
	"github.com/communityos/ticketing/internal/policy"
	"github.com/communityos/ticketing/internal/testfixtures"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.AppUser
}

func newFakeUserRepo(users ...*model.AppUser) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*model.AppUser)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.AppUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.AppUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, u *model.AppUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return model.ErrDuplicate
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) (*model.AppUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// testEnv wires the engines over in-memory fakes with a fixed clock.
type testEnv struct {
	clock   *testfixtures.Clock
	users   *fakeUserRepo
	events  *fakeEventRepo
	regs    *fakeRegistrationRepo
	tickets *fakeTicketRepo
	grants  *fakeGrantStore
	policy  *policy.Policy

	ticketSvc *TicketService
	regSvc    *RegistrationService
	eventSvc  *EventService
	userSvc   *UserService
}

func newTestEnv(events ...*model.Event) *testEnv {
	env := &testEnv{
		clock:   testfixtures.NewClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
		users:   newFakeUserRepo(),
		events:  newFakeEventRepo(events...),
		regs:    newFakeRegistrationRepo(),
		tickets: newFakeTicketRepo(),
		grants:  newFakeGrantStore(),
	}

	cache := policy.NewPermissionCache(env.grants, time.Minute, env.clock.NowFunc())
	env.policy = policy.New(env.grants, cache)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := env.clock.NowFunc()

	env.ticketSvc = NewTicketService(env.tickets, env.events, env.policy, message.NewRenderer(), log, now)
	env.regSvc = NewRegistrationService(env.regs, env.events, env.ticketSvc, env.policy, log, now)
	env.eventSvc = NewEventService(env.events, env.regs, env.policy, log, now)
	env.userSvc = NewUserService(env.users, env.policy, log, now)
	return env
}

func memberUser() *model.AppUser {
	return &model.AppUser{ID: "member-1", Email: "member@example.com", Role: model.RoleMember}
}

func organizerUser() *model.AppUser {
	return &model.AppUser{ID: "organizer-1", Email: "org@example.com", Role: model.RoleOrganizer}
}

func moderatorUser() *model.AppUser {
	return &model.AppUser{ID: "moderator-1", Email: "mod@example.com", Role: model.RoleModerator}
}

func adminUser() *model.AppUser {
	return &model.AppUser{ID: "admin-1", Email: "admin@example.com", Role: model.RoleAdmin}
}

func ongoingEvent() *model.Event {
	return &model.Event{
		ID:         "event-1",
		Name:       "Summer Meetup",
		Capacity:   100,
		PriceCents: 2500,
		Status:     model.EventOngoing,
		StartsAt:   time.Date(2024, 7, 1, 18, 0, 0, 0, time.UTC),
		CreatedAt:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func validForm() model.RegistrationForm {
	return model.RegistrationForm{AttendeeCount: 1}
}
