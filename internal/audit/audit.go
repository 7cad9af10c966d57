// Package audit defines the notification interface the identity core emits
// events through. The core never persists audit records itself; recorders
// forward events to whatever the deployment uses for audit storage.
package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Outcome is the result of an audited operation.
type Outcome string

const (
	// OutcomeSuccess marks a completed operation.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure marks a rejected or failed operation.
	OutcomeFailure Outcome = "failure"
)

// Action is the kind of operation being audited.
type Action string

const (
	// ActionLogin is a login attempt.
	ActionLogin Action = "login"
	// ActionPasswordChange is a self-service password change.
	ActionPasswordChange Action = "password.change"
	// ActionPasswordReset is an administrative password reset.
	ActionPasswordReset Action = "password.reset"
	// ActionGroupSync is a group membership synchronization.
	ActionGroupSync Action = "group.sync"
	// ActionImport is a directory identity import.
	ActionImport Action = "user.import"
)

// Event is one audit notification.
type Event struct {
	// ID uniquely identifies the event.
	ID string
	// Actor is the username performing the operation ("" for anonymous attempts).
	Actor string
	// Action is the operation kind.
	Action Action
	// Target is what the operation acted on (usually a username).
	Target string
	// Outcome is success or failure.
	Outcome Outcome
	// Detail carries the internal diagnostic cause; never shown to end users.
	Detail string
	// At is the event timestamp.
	At time.Time
}

// Recorder receives audit events from the core.
type Recorder interface {
	Record(event Event)
}

// NewEvent builds an event with id and timestamp filled in.
func NewEvent(actor string, action Action, target string, outcome Outcome, detail string) Event {
	return Event{
		ID:      uuid.NewString(),
		Actor:   actor,
		Action:  action,
		Target:  target,
		Outcome: outcome,
		Detail:  detail,
		At:      time.Now(),
	}
}

// Logger is a Recorder writing events to the application log.
type Logger struct{}

// Record implements Recorder.
func (Logger) Record(event Event) {
	log.Info().
		Str("audit_id", event.ID).
		Str("actor", event.Actor).
		Str("action", string(event.Action)).
		Str("target", event.Target).
		Str("outcome", string(event.Outcome)).
		Str("detail", event.Detail).
		Msg("audit event")
}

// Nop is a Recorder discarding all events, for tests.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(Event) {}

// Capture is a Recorder keeping events in memory, for tests.
type Capture struct {
	Events []Event
}

// Record implements Recorder.
func (c *Capture) Record(event Event) {
	c.Events = append(c.Events, event)
}
