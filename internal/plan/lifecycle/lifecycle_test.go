package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	creator  = Actor{ID: "user-dept-1"}
	stranger = Actor{ID: "user-dept-2"}
	approver = Actor{ID: "user-admin", CanApprove: true}
)

func TestDecideLegalTransitions(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		req    Request
		want   Outcome
	}{
		{
			name:   "approve pending",
			record: Record{Status: StatusPending, CreatedBy: creator.ID},
			req:    Request{Event: EventApprove, Actor: approver},
			want:   Outcome{Status: StatusAccepted},
		},
		{
			name:   "reject pending with justification",
			record: Record{Status: StatusPending, CreatedBy: creator.ID},
			req:    Request{Event: EventReject, Actor: approver, Justification: "duplicate of DR-2026-0003"},
			want:   Outcome{Status: StatusRejected, Justification: "duplicate of DR-2026-0003"},
		},
		{
			name:   "creator withdraws pending",
			record: Record{Status: StatusPending, CreatedBy: creator.ID},
			req:    Request{Event: EventWithdraw, Actor: creator},
			want:   Outcome{Status: StatusWithdrawn},
		},
		{
			name:   "creator requests cancellation of accepted",
			record: Record{Status: StatusAccepted, CreatedBy: creator.ID},
			req:    Request{Event: EventRequestCancellation, Actor: creator, Justification: "need lapsed"},
			want:   Outcome{Status: StatusAccepted, CancellationRequested: true, Justification: "need lapsed"},
		},
		{
			name:   "approver approves cancellation",
			record: Record{Status: StatusAccepted, CancellationRequested: true, CreatedBy: creator.ID},
			req:    Request{Event: EventApproveCancellation, Actor: approver},
			want:   Outcome{Status: StatusRemoved},
		},
		{
			name:   "approver denies cancellation",
			record: Record{Status: StatusAccepted, CancellationRequested: true, CreatedBy: creator.ID},
			req:    Request{Event: EventDenyCancellation, Actor: approver, Justification: "budget insufficient"},
			want:   Outcome{Status: StatusAccepted, CancellationRequested: false, Justification: "budget insufficient"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decide(tt.record, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecideGuardFailures(t *testing.T) {
	tests := []struct {
		name      string
		record    Record
		req       Request
		wantGuard string
	}{
		{
			name:      "approve without authority",
			record:    Record{Status: StatusPending, CreatedBy: creator.ID},
			req:       Request{Event: EventApprove, Actor: creator},
			wantGuard: GuardApprovalAuthority,
		},
		{
			name:      "approve a rejected record",
			record:    Record{Status: StatusRejected, CreatedBy: creator.ID},
			req:       Request{Event: EventApprove, Actor: approver},
			wantGuard: GuardSourceState,
		},
		{
			name:      "reject without justification",
			record:    Record{Status: StatusPending, CreatedBy: creator.ID},
			req:       Request{Event: EventReject, Actor: approver, Justification: "   "},
			wantGuard: GuardJustificationRequired,
		},
		{
			name:      "withdraw by someone else",
			record:    Record{Status: StatusPending, CreatedBy: creator.ID},
			req:       Request{Event: EventWithdraw, Actor: stranger},
			wantGuard: GuardCreatorOnly,
		},
		{
			name:      "withdraw after acceptance",
			record:    Record{Status: StatusAccepted, CreatedBy: creator.ID},
			req:       Request{Event: EventWithdraw, Actor: creator},
			wantGuard: GuardSourceState,
		},
		{
			name:      "request cancellation while pending",
			record:    Record{Status: StatusPending, CreatedBy: creator.ID},
			req:       Request{Event: EventRequestCancellation, Actor: creator, Justification: "x"},
			wantGuard: GuardSourceState,
		},
		{
			name:      "request cancellation by someone else",
			record:    Record{Status: StatusAccepted, CreatedBy: creator.ID},
			req:       Request{Event: EventRequestCancellation, Actor: stranger, Justification: "x"},
			wantGuard: GuardCreatorOnly,
		},
		{
			name:      "request cancellation without justification",
			record:    Record{Status: StatusAccepted, CreatedBy: creator.ID},
			req:       Request{Event: EventRequestCancellation, Actor: creator},
			wantGuard: GuardJustificationRequired,
		},
		{
			name:      "approve cancellation without pending request",
			record:    Record{Status: StatusAccepted, CreatedBy: creator.ID},
			req:       Request{Event: EventApproveCancellation, Actor: approver},
			wantGuard: GuardSourceState,
		},
		{
			name:      "deny cancellation without justification",
			record:    Record{Status: StatusAccepted, CancellationRequested: true, CreatedBy: creator.ID},
			req:       Request{Event: EventDenyCancellation, Actor: approver},
			wantGuard: GuardJustificationRequired,
		},
		{
			name:      "deny cancellation without authority",
			record:    Record{Status: StatusAccepted, CancellationRequested: true, CreatedBy: creator.ID},
			req:       Request{Event: EventDenyCancellation, Actor: creator, Justification: "x"},
			wantGuard: GuardApprovalAuthority,
		},
		{
			name:      "reject a removed record",
			record:    Record{Status: StatusRemoved, CreatedBy: creator.ID},
			req:       Request{Event: EventReject, Actor: approver, Justification: "x"},
			wantGuard: GuardSourceState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decide(tt.record, tt.req)
			require.Error(t, err)

			var precondition *PreconditionError
			require.True(t, errors.As(err, &precondition), "expected PreconditionError, got %T", err)
			assert.Equal(t, tt.wantGuard, precondition.Guard)
		})
	}
}

func TestDecideIdempotentRetries(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		req    Request
		want   Outcome
	}{
		{
			name:   "approve an already accepted record",
			record: Record{Status: StatusAccepted, CreatedBy: creator.ID},
			req:    Request{Event: EventApprove, Actor: approver},
			want:   Outcome{Status: StatusAccepted, NoOp: true},
		},
		{
			name:   "approve an accepted record with pending cancellation keeps the flag",
			record: Record{Status: StatusAccepted, CancellationRequested: true, CreatedBy: creator.ID},
			req:    Request{Event: EventApprove, Actor: approver},
			want:   Outcome{Status: StatusAccepted, CancellationRequested: true, NoOp: true},
		},
		{
			name:   "reject an already rejected record",
			record: Record{Status: StatusRejected, CreatedBy: creator.ID},
			req:    Request{Event: EventReject, Actor: approver},
			want:   Outcome{Status: StatusRejected, NoOp: true},
		},
		{
			name:   "withdraw an already withdrawn record",
			record: Record{Status: StatusWithdrawn, CreatedBy: creator.ID},
			req:    Request{Event: EventWithdraw, Actor: stranger},
			want:   Outcome{Status: StatusWithdrawn, NoOp: true},
		},
		{
			name:   "request cancellation twice",
			record: Record{Status: StatusAccepted, CancellationRequested: true, CreatedBy: creator.ID},
			req:    Request{Event: EventRequestCancellation, Actor: stranger},
			want:   Outcome{Status: StatusAccepted, CancellationRequested: true, NoOp: true},
		},
		{
			name:   "approve cancellation on a removed record",
			record: Record{Status: StatusRemoved, CreatedBy: creator.ID},
			req:    Request{Event: EventApproveCancellation, Actor: approver},
			want:   Outcome{Status: StatusRemoved, NoOp: true},
		},
		{
			name:   "deny cancellation after the flag was already cleared",
			record: Record{Status: StatusAccepted, CreatedBy: creator.ID},
			req:    Request{Event: EventDenyCancellation, Actor: approver},
			want:   Outcome{Status: StatusAccepted, NoOp: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decide(tt.record, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Retrying the retry changes nothing either.
			again, err := Decide(tt.record, tt.req)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestDecideUnknownEvent(t *testing.T) {
	_, err := Decide(Record{Status: StatusPending}, Request{Event: "escalate", Actor: approver})

	var precondition *PreconditionError
	require.True(t, errors.As(err, &precondition))
	assert.Equal(t, GuardSourceState, precondition.Guard)
}

func TestTerminal(t *testing.T) {
	assert.True(t, Terminal(StatusRejected))
	assert.True(t, Terminal(StatusWithdrawn))
	assert.True(t, Terminal(StatusRemoved))
	assert.False(t, Terminal(StatusPending))
	assert.False(t, Terminal(StatusAccepted))
}

func TestNormalizeLegacyCancelled(t *testing.T) {
	assert.Equal(t, StatusWithdrawn, Normalize("cancelled"))
	assert.Equal(t, StatusAccepted, Normalize("accepted"))
}
