// Package delivery models the forward-only progression of an order from
// receipt to hand-over, together with its append-only history.
package delivery

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Stage is a delivery stage.
type Stage string

const (
	StagePending    Stage = "pending"
	StageProcessing Stage = "processing"
	StageDelivering Stage = "delivering"
	StageCompleted  Stage = "completed"
)

var stages = []Stage{StagePending, StageProcessing, StageDelivering, StageCompleted}

var (
	ErrUnknownStage      = errors.New("unknown delivery stage")
	ErrInvalidTransition = errors.New("delivery transition not allowed")
)

var stageInfo = map[Stage]struct {
	label       string
	description string
}{
	StagePending: {
		label:       "Order Received",
		description: "Your order has been received and is waiting to be processed. We will notify you once we start preparing it.",
	},
	StageProcessing: {
		label:       "Processing",
		description: "Our team is currently preparing your order. This includes quality checks and packaging.",
	},
	StageDelivering: {
		label:       "Out for Delivery",
		description: "Your order is out for delivery. Our courier is on the way to your address.",
	},
	StageCompleted: {
		label:       "Delivered",
		description: "Your order has been successfully delivered. Thank you for shopping with us!",
	},
}

// Stages returns the stages in progression order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// ParseStage converts raw input into a Stage.
func ParseStage(value string) (Stage, error) {
	s := Stage(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := stageInfo[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, value)
	}
	return s, nil
}

func (s Stage) Valid() bool {
	_, ok := stageInfo[s]
	return ok
}

func (s Stage) Label() string {
	return stageInfo[s].label
}

// Description is the customer-facing copy shown for the stage.
func (s Stage) Description() string {
	return stageInfo[s].description
}

func (s Stage) index() int {
	for i, st := range stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the stage after s, or false when s is terminal or unknown.
func (s Stage) Next() (Stage, bool) {
	i := s.index()
	if i < 0 || i == len(stages)-1 {
		return "", false
	}
	return stages[i+1], true
}

func (s Stage) Terminal() bool {
	return s == StageCompleted
}

// CanTransition reports whether next immediately follows current.
func CanTransition(current, next Stage) bool {
	following, ok := current.Next()
	return ok && following == next
}

// Event is one entry of the delivery history.
type Event struct {
	Status      Stage     `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

// Tracker is the delivery state of a single transaction.
type Tracker struct {
	Status            Stage     `json:"status"`
	History           []Event   `json:"history"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
}

// NewTracker starts a tracker in the pending stage with a seeded history entry.
func NewTracker(at time.Time, estimate time.Duration) Tracker {
	return Tracker{
		Status: StagePending,
		History: []Event{{
			Status:      StagePending,
			Timestamp:   at,
			Description: StagePending.Description(),
		}},
		EstimatedDelivery: at.Add(estimate),
	}
}

// Advance moves the tracker to next and appends a history entry. An empty
// description falls back to the stage's default copy. Timestamps earlier than
// the latest entry are clamped so history stays ordered.
func (t *Tracker) Advance(next Stage, at time.Time, description string) error {
	if !next.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStage, next)
	}
	if !CanTransition(t.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}
	if latest, ok := t.Latest(); ok && at.Before(latest.Timestamp) {
		at = latest.Timestamp
	}
	if strings.TrimSpace(description) == "" {
		description = next.Description()
	}
	t.Status = next
	t.History = append(t.History, Event{Status: next, Timestamp: at, Description: description})
	return nil
}

// Latest returns the most recent history entry.
func (t Tracker) Latest() (Event, bool) {
	if len(t.History) == 0 {
		return Event{}, false
	}
	return t.History[len(t.History)-1], true
}

// Validate checks that history is ordered, follows the stage progression and
// ends at the current status.
func (t Tracker) Validate() error {
	if !t.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStage, t.Status)
	}
	if len(t.History) == 0 {
		return errors.New("delivery history is empty")
	}
	if t.History[0].Status != StagePending {
		return errors.New("delivery history must start at pending")
	}
	for i := 1; i < len(t.History); i++ {
		prev, cur := t.History[i-1], t.History[i]
		if cur.Timestamp.Before(prev.Timestamp) {
			return fmt.Errorf("delivery history out of order at %d", i)
		}
		if !CanTransition(prev.Status, cur.Status) {
			return fmt.Errorf("%w at %d: %s -> %s", ErrInvalidTransition, i, prev.Status, cur.Status)
		}
	}
	if latest, _ := t.Latest(); latest.Status != t.Status {
		return fmt.Errorf("delivery status %s does not match latest history entry %s", t.Status, latest.Status)
	}
	return nil
}
