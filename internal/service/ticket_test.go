package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communityos/ticketing/internal/model"
)

// issue registers a member and returns the freshly issued ticket.
func issue(t *testing.T, env *testEnv) *model.Ticket {
	t.Helper()
	reg, err := env.regSvc.RegisterForEvent(context.Background(), memberUser(), "event-1", validForm())
	require.NoError(t, err)
	ticket, err := env.tickets.GetByUser(context.Background(), reg.EventID, reg.UserID)
	require.NoError(t, err)
	return ticket
}

func TestIssueTicket_Idempotent(t *testing.T) {
	env := newTestEnv(ongoingEvent())
	ctx := context.Background()
	reg := &model.Registration{ID: "r1", EventID: "event-1", UserID: "member-1"}

	first, err := env.ticketSvc.IssueTicket(ctx, reg)
	require.NoError(t, err)

	second, err := env.ticketSvc.IssueTicket(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "reissuing returns the existing ticket unchanged")

	all, err := env.tickets.ListByEvent(ctx, "event-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAssign_StaffTierRequired(t *testing.T) {
	env := newTestEnv(ongoingEvent())
	ticket := issue(t, env)

	_, err := env.ticketSvc.Assign(context.Background(), memberUser(), ticket.ID, "organizer-1")
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = env.ticketSvc.Assign(context.Background(), nil, ticket.ID, "organizer-1")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestAssign_SetsAssigneeAndTimestamp(t *testing.T) {
	env := newTestEnv(ongoingEvent())
	ticket := issue(t, env)

	updated, err := env.ticketSvc.Assign(context.Background(), organizerUser(), ticket.ID, "organizer-1")
	require.NoError(t, err)
	assert.Equal(t, "organizer-1", updated.AssignedToID)
	require.NotNil(t, updated.AssignedAt)
	assert.Equal(t, model.StageAssigned, updated.Stage())
}

func TestAssign_ReassignmentKeepsProgress(t *testing.T) {
	env := newTestEnv(ongoingEvent())
	ticket := issue(t, env)
	ctx := context.Background()
	staff := organizerUser()

	_, err := env.ticketSvc.Assign(ctx, staff, ticket.ID, "organizer-1")
	require.NoError(t, err)
	_, _, err = env.ticketSvc.MarkPaymentSent(ctx, staff, ticket.ID)
	require.NoError(t, err)

	updated, err := env.ticketSvc.Assign(ctx, staff, ticket.ID, "moderator-1")
	require.NoError(t, err)
	assert.Equal(t, "moderator-1", updated.AssignedToID)
	assert.Equal(t, model.PaymentSent, updated.PaymentStatus, "re-assignment never rolls back payment")
	assert.Equal(t, model.StagePaymentSent, updated.Stage())
}

func TestAssign_BoardedTicketIsImmutable(t *testing.T) {
	env := newTestEnv(ongoingEvent())
	ticket := issue(t, env)
	ctx := context.Background()

	_, err := env.ticketSvc.SetStage(ctx, adminUser(), ticket.ID, model.StageBoarded)
	// SetStage needs an assignee on record first.
	require.ErrorIs(t, err, model.ErrPrecondition)

	_, err = env.ticketSvc.Assign(ctx, organizerUser(), ticket.ID, "organizer-1")
	require.NoError(t, err)
	_, err = env.ticketSvc.SetStage(ctx, adminUser(), ticket.ID, model.StageBoarded)
	require.NoError(t, err)

	_, err = env.ticketSvc.Assign(ctx, organizerUser(), ticket.ID, "moderator-1")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestMarkPaymentSent_Guards(t *testing.T) {
	env := newTestEnv(ongoingEvent())
	ticket := issue(t, env)
	ctx := context.Background()
	staff := organizerUser()

	_, _, err := env.ticketSvc.MarkPaymentSent(ctx, staff, ticket.ID)
	require.ErrorIs(t, err, model.ErrPrecondition)
	assert.Contains(t, err.Error(), "not assigned", "too early is distinguished from already done")

	_, err = env.ticketSvc.Assign(ctx, staff, ticket.ID, "organizer-1")
	require.NoError(t, err)

	updated, msg, err := env.ticketSvc.MarkPaymentSent(ctx, staff, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StagePaymentSent, updated.Stage())
	require.NotNil(t, updated.PaymentSentAt)
	assert.Contains(t, msg.Body, "25.00", "rendered message carries the amount")
	assert.Contains(t, msg.Body, ticket.ID, "rendered message carries the reference")

	_, _, err = env.ticketSvc.MarkPaymentSent(ctx, staff, ticket.ID)
	require.ErrorIs(t, err, model.ErrPrecondition)
	assert.Contains(t, err.Error(), "already")
}

func TestMarkPaymentSent_AnyStaffMemberCanAct(t *testing.T) {
	// Assignment records responsibility; it does not restrict which
	// staff member may act.
	env := newTestEnv(ongoingEvent())
	ticket := issue(t, env)
	ctx := context.Background()

	_, err := env.ticketSvc.Assign(ctx, organizerUser(), ticket.ID, "organizer-1")
	require.NoError(t, err)

	_, _, err = env.ticketSvc.MarkPaymentSent(ctx, moderatorUser(), ticket.ID)
	assert.NoError(t, err)
}

func TestMarkPaid_Guards(t *testing.T) {
	env := newTestEnv(ongoingEvent())
	ticket := issue(t, env)
	ctx := context.Background()
	staff := organizerUser()

	_, err := env.ticketSvc.MarkPaid(ctx, staff, ticket.ID)
	require.ErrorIs(t, err, model.ErrPrecondition)
	assert.Contains(t, err.Error(), "not been sent")

	_, err = env.ticketSvc.Assign(ctx, staff, ticket.ID, "organizer-1")
	require.NoError(t, err)
	_, _, err = env.ticketSvc.MarkPaymentSent(ctx, staff, ticket.ID)
	require.NoError(t, err)

	updated, err := env.ticketSvc.MarkPaid(ctx, staff, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StagePaid, updated.Stage())
	require.NotNil(t, updated.PaidAt)

	_, err = env.ticketSvc.MarkPaid(ctx, staff, ticket.ID)
	require.ErrorIs(t, err, model.ErrPrecondition)
	assert.Contains(t, err.Error(), "already paid")
}

func TestMarkBoarded_Guards(t *testing.T) {
	env := newTestEnv(ongoingEvent())
	ticket := issue(t, env)
	ctx := context.Background()
	staff := organizerUser()

	_, err := env.ticketSvc.MarkBoarded(ctx, staff, ticket.ID, staff.ID)
	assert.ErrorIs(t, err, model.ErrPrecondition)

	_, err = env.ticketSvc.Assign(ctx, staff, ticket.ID, "organizer-1")
	require.NoError(t, err)
	_, _, err = env.ticketSvc.MarkPaymentSent(ctx, staff, ticket.ID)
	require.NoError(t, err)
	_, err = env.ticketSvc.MarkPaid(ctx, staff, ticket.ID)
	require.NoError(t, err)

	boarder := moderatorUser()
	updated, err := env.ticketSvc.MarkBoarded(ctx, boarder, ticket.ID, boarder.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageBoarded, updated.Stage())
	assert.Equal(t, boarder.ID, updated.BoardedByID, "boarder is an audit field")
	assert.Equal(t, "organizer-1", updated.AssignedToID, "distinct from the assignee")

	_, err = env.ticketSvc.MarkBoarded(ctx, staff, ticket.ID, staff.ID)
	require.ErrorIs(t, err, model.ErrPrecondition)
	assert.Contains(t, err.Error(), "already boarded")
}

func TestSetStage_AdminOnly(t *testing.T) {
	env := newTestEnv(ongoingEvent())
	ticket := issue(t, env)

	_, err := env.ticketSvc.SetStage(context.Background(), organizerUser(), ticket.ID, model.StageNew)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestSetStage_BackwardClearsDownstreamFields(t *testing.T) {
	env := newTestEnv(ongoingEvent())
	ticket := issue(t, env)
	ctx := context.Background()
	staff := organizerUser()

	_, err := env.ticketSvc.Assign(ctx, staff, ticket.ID, "organizer-1")
	require.NoError(t, err)
	_, _, err = env.ticketSvc.MarkPaymentSent(ctx, staff, ticket.ID)
	require.NoError(t, err)
	_, err = env.ticketSvc.MarkPaid(ctx, staff, ticket.ID)
	require.NoError(t, err)
	_, err = env.ticketSvc.MarkBoarded(ctx, staff, ticket.ID, staff.ID)
	require.NoError(t, err)

	forced, err := env.ticketSvc.SetStage(ctx, adminUser(), ticket.ID, model.StageAssigned)
	require.NoError(t, err)
	assert.Equal(t, model.StageAssigned, forced.Stage())
	assert.Equal(t, "organizer-1", forced.AssignedToID, "assignee survives the rollback")
	assert.Equal(t, model.PaymentNone, forced.PaymentStatus)
	assert.Nil(t, forced.PaymentSentAt)
	assert.Nil(t, forced.PaidAt)
	assert.Equal(t, model.BoardingNone, forced.BoardingStatus)
	assert.Nil(t, forced.BoardedAt)
	assert.Empty(t, forced.BoardedByID)
}

func TestSetStage_AlwaysDerivesToTarget(t *testing.T) {
	env := newTestEnv(ongoingEvent())
	ticket := issue(t, env)
	ctx := context.Background()

	_, err := env.ticketSvc.Assign(ctx, organizerUser(), ticket.ID, "organizer-1")
	require.NoError(t, err)

	for _, target := range []model.Stage{
		model.StageBoarded,
		model.StagePaid,
		model.StagePaymentSent,
		model.StageAssigned,
		model.StageNew,
	} {
		forced, err := env.ticketSvc.SetStage(ctx, adminUser(), ticket.ID, target)
		require.NoError(t, err, "target %s", target)
		assert.Equal(t, target, forced.Stage(), "no partial overrides")
	}
}

func TestSetStage_UnknownStage(t *testing.T) {
	env := newTestEnv(ongoingEvent())
	ticket := issue(t, env)

	_, err := env.ticketSvc.SetStage(context.Background(), adminUser(), ticket.ID, model.Stage("limbo"))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestTransitions_ConcurrentModificationRejected(t *testing.T) {
	env := newTestEnv(ongoingEvent())
	ticket := issue(t, env)
	ctx := context.Background()

	// Two actors read the same version; the first write wins and the
	// second must be rejected instead of silently overwriting.
	readA, err := env.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	readB, err := env.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)

	readA.AssignedToID = "organizer-1"
	require.NoError(t, env.tickets.UpdateConditional(ctx, readA, readA.Version))

	readB.AssignedToID = "moderator-1"
	err = env.tickets.UpdateConditional(ctx, readB, readB.Version)
	require.ErrorIs(t, err, model.ErrInvalidTransition)

	// A fresh read-transition cycle through the engine succeeds.
	updated, err := env.ticketSvc.Assign(ctx, organizerUser(), ticket.ID, "moderator-1")
	require.NoError(t, err)
	assert.Equal(t, "moderator-1", updated.AssignedToID)
}
