// Package approval is the pending -> approved | rejected state machine shared by credit
// requests and mission requests.
package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/zhar/internal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsTerminal reports whether a reviewer has already decided the request.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) Target() Status {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

var (
	ErrRequestFinalized = internal.NewConflictError("request has already been reviewed with a different decision", internal.ErrCodeRequestFinalized)
	ErrUnknownStatus    = internal.NewValidationError("request has an unknown status", internal.ErrCodeValidationFailed)
)

// Transition computes the status reached by applying d to from. changed is false when the
// request already carries the target status.
func Transition(from Status, d Decision) (to Status, changed bool, err error) {
	if d != DecisionApprove && d != DecisionReject {
		return from, false, fmt.Errorf("unknown decision %q", d)
	}

	target := d.Target()
	switch {
	case from == StatusPending:
		return target, true, nil
	case !from.IsTerminal():
		return from, false, ErrUnknownStatus
	case from == target:
		return from, false, nil
	}
	return from, false, ErrRequestFinalized
}

// Review is the set of fields written by a transition.
type Review struct {
	Status     Status
	ReviewedBy string
	ReviewedAt time.Time
}

// Store is implemented by each request table.
type Store interface {
	CurrentStatus(ctx context.Context, id string) (Status, error)
	// CompareAndSetReview writes review only if the row still has status from.
	CompareAndSetReview(ctx context.Context, id string, from Status, review Review) (bool, error)
}

type Outcome struct {
	From    Status
	To      Status
	Changed bool
}

// Apply runs decision d against request id. A concurrent reviewer winning the race is
// observed on the re-read and resolved by Transition.
func Apply(ctx context.Context, store Store, id string, d Decision, actorID string, now time.Time) (Outcome, error) {
	for attempt := 0; attempt < 2; attempt++ {
		from, err := store.CurrentStatus(ctx, id)
		if err != nil {
			return Outcome{}, err
		}

		to, changed, err := Transition(from, d)
		if err != nil {
			return Outcome{From: from, To: from}, err
		}
		if !changed {
			return Outcome{From: from, To: to}, nil
		}

		applied, err := store.CompareAndSetReview(ctx, id, from, Review{
			Status:     to,
			ReviewedBy: actorID,
			ReviewedAt: now,
		})
		if err != nil {
			return Outcome{From: from}, err
		}
		if applied {
			return Outcome{From: from, To: to, Changed: true}, nil
		}
	}
	return Outcome{}, internal.NewConflictError("request changed while being reviewed", internal.ErrCodeConcurrentUpdate)
}
