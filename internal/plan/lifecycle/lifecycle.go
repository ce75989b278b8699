// Package lifecycle decides demand record status transitions.
//
// Decide is a pure function: it never touches storage and never mutates its
// input. The caller is responsible for applying the returned outcome to the
// record atomically (status + cancellation fields as one unit).
package lifecycle

import (
	"fmt"
	"strings"
)

// Status values of a demand record. Pending is initial; rejected, withdrawn
// and removed are terminal. Accepted exits only via the cancellation
// sub-protocol.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
	StatusRemoved   Status = "removed"
)

// Event names a requested transition.
type Event string

const (
	EventApprove             Event = "approve"
	EventReject              Event = "reject"
	EventWithdraw            Event = "withdraw"
	EventRequestCancellation Event = "request-cancellation"
	EventApproveCancellation Event = "approve-cancellation"
	EventDenyCancellation    Event = "deny-cancellation"
)

// Guard names reported inside PreconditionError.
const (
	GuardSourceState           = "source-state"
	GuardApprovalAuthority     = "approval-authority"
	GuardCreatorOnly           = "creator-only"
	GuardJustificationRequired = "justification-required"
)

// Actor is the identity a transition is requested as. CanApprove reflects the
// external access gate's decision; the engine only re-checks record-local
// invariants.
type Actor struct {
	ID         string
	CanApprove bool
}

// Record is the transition-relevant snapshot of a demand record.
type Record struct {
	Status                Status
	CancellationRequested bool
	CreatedBy             string
}

// Request is one transition attempt.
type Request struct {
	Event         Event
	Actor         Actor
	Justification string
}

// Outcome is the state the record must hold after the transition. NoOp marks
// an idempotent retry: the target state already holds and nothing must be
// written.
type Outcome struct {
	Status                Status
	CancellationRequested bool
	Justification         string
	NoOp                  bool
}

// PreconditionError reports a violated transition guard. The record is left
// untouched.
type PreconditionError struct {
	Event  Event
	Guard  string
	Detail string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("transition %s blocked by %s: %s", e.Event, e.Guard, e.Detail)
}

func precondition(ev Event, guard, detail string) error {
	return &PreconditionError{Event: ev, Guard: guard, Detail: detail}
}

// Decide validates one transition request against the record snapshot and
// returns the resulting state. All guard failures return *PreconditionError;
// retries of an already-applied transition return a NoOp success.
func Decide(rec Record, req Request) (Outcome, error) {
	switch req.Event {
	case EventApprove:
		return decideApprove(rec, req)
	case EventReject:
		return decideReject(rec, req)
	case EventWithdraw:
		return decideWithdraw(rec, req)
	case EventRequestCancellation:
		return decideRequestCancellation(rec, req)
	case EventApproveCancellation:
		return decideApproveCancellation(rec, req)
	case EventDenyCancellation:
		return decideDenyCancellation(rec, req)
	default:
		return Outcome{}, precondition(req.Event, GuardSourceState, "unknown event")
	}
}

func decideApprove(rec Record, req Request) (Outcome, error) {
	if !req.Actor.CanApprove {
		return Outcome{}, precondition(req.Event, GuardApprovalAuthority, "actor lacks plan approval authority")
	}
	if rec.Status == StatusAccepted {
		return Outcome{Status: StatusAccepted, CancellationRequested: rec.CancellationRequested, NoOp: true}, nil
	}
	if rec.Status != StatusPending {
		return Outcome{}, precondition(req.Event, GuardSourceState,
			fmt.Sprintf("record is %s, approve requires pending", rec.Status))
	}
	return Outcome{Status: StatusAccepted}, nil
}

func decideReject(rec Record, req Request) (Outcome, error) {
	if rec.Status == StatusRejected {
		return Outcome{Status: StatusRejected, NoOp: true}, nil
	}
	if rec.Status != StatusPending {
		return Outcome{}, precondition(req.Event, GuardSourceState,
			fmt.Sprintf("record is %s, reject requires pending", rec.Status))
	}
	if strings.TrimSpace(req.Justification) == "" {
		return Outcome{}, precondition(req.Event, GuardJustificationRequired, "rejection justification is empty")
	}
	return Outcome{Status: StatusRejected, Justification: strings.TrimSpace(req.Justification)}, nil
}

func decideWithdraw(rec Record, req Request) (Outcome, error) {
	if rec.Status == StatusWithdrawn {
		return Outcome{Status: StatusWithdrawn, NoOp: true}, nil
	}
	if rec.Status != StatusPending {
		return Outcome{}, precondition(req.Event, GuardSourceState,
			fmt.Sprintf("record is %s, withdraw requires pending", rec.Status))
	}
	if req.Actor.ID == "" || req.Actor.ID != rec.CreatedBy {
		return Outcome{}, precondition(req.Event, GuardCreatorOnly, "only the record creator may withdraw")
	}
	return Outcome{Status: StatusWithdrawn}, nil
}

func decideRequestCancellation(rec Record, req Request) (Outcome, error) {
	if rec.Status == StatusAccepted && rec.CancellationRequested {
		return Outcome{Status: StatusAccepted, CancellationRequested: true, NoOp: true}, nil
	}
	if rec.Status != StatusAccepted {
		return Outcome{}, precondition(req.Event, GuardSourceState,
			fmt.Sprintf("record is %s, cancellation can only be requested while accepted", rec.Status))
	}
	if req.Actor.ID == "" || req.Actor.ID != rec.CreatedBy {
		return Outcome{}, precondition(req.Event, GuardCreatorOnly, "only the record creator may request cancellation")
	}
	if strings.TrimSpace(req.Justification) == "" {
		return Outcome{}, precondition(req.Event, GuardJustificationRequired, "cancellation justification is empty")
	}
	// The record stays accepted and keeps counting in consolidation until the
	// request is resolved.
	return Outcome{
		Status:                StatusAccepted,
		CancellationRequested: true,
		Justification:         strings.TrimSpace(req.Justification),
	}, nil
}

func decideApproveCancellation(rec Record, req Request) (Outcome, error) {
	if !req.Actor.CanApprove {
		return Outcome{}, precondition(req.Event, GuardApprovalAuthority, "actor lacks plan approval authority")
	}
	if rec.Status == StatusRemoved {
		return Outcome{Status: StatusRemoved, NoOp: true}, nil
	}
	if rec.Status != StatusAccepted || !rec.CancellationRequested {
		return Outcome{}, precondition(req.Event, GuardSourceState,
			"no pending cancellation request on this record")
	}
	return Outcome{Status: StatusRemoved}, nil
}

func decideDenyCancellation(rec Record, req Request) (Outcome, error) {
	if !req.Actor.CanApprove {
		return Outcome{}, precondition(req.Event, GuardApprovalAuthority, "actor lacks plan approval authority")
	}
	if rec.Status == StatusAccepted && !rec.CancellationRequested {
		return Outcome{Status: StatusAccepted, NoOp: true}, nil
	}
	if rec.Status != StatusAccepted || !rec.CancellationRequested {
		return Outcome{}, precondition(req.Event, GuardSourceState,
			"no pending cancellation request on this record")
	}
	if strings.TrimSpace(req.Justification) == "" {
		return Outcome{}, precondition(req.Event, GuardJustificationRequired, "denial justification is empty")
	}
	return Outcome{
		Status:                StatusAccepted,
		CancellationRequested: false,
		Justification:         strings.TrimSpace(req.Justification),
	}, nil
}

// Terminal reports whether no further transition can leave the status.
func Terminal(s Status) bool {
	return s == StatusRejected || s == StatusWithdrawn || s == StatusRemoved
}

// Normalize maps legacy status values from imported data onto the current
// vocabulary. The historical "cancelled" value is the same terminal bucket as
// withdrawn.
func Normalize(raw string) Status {
	if raw == "cancelled" {
		return StatusWithdrawn
	}
	return Status(raw)
}
