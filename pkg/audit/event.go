// Package audit logs one ifworkerd run's outcome per line: who started
// it, which interfaces it drove, which workers ended up failed, and
// whether it ran against a live bus or the in-memory fake.
package audit

import (
	"fmt"
	"time"
)

// Event represents one auditable engine run.
type Event struct {
	ID            string        `json:"id"`
	Timestamp     time.Time     `json:"timestamp"`
	User          string        `json:"user"`
	Run           string        `json:"run"`
	Operation     string        `json:"operation"`
	Interfaces    []string      `json:"interfaces,omitempty"`
	FailedWorkers []string      `json:"failed_workers,omitempty"`
	Success       bool          `json:"success"`
	Severity      Severity      `json:"severity"`
	Error         string        `json:"error,omitempty"`
	LiveBus       bool          `json:"live_bus"` // true if driven over transport/sshbus rather than rpcbus.Fake
	Duration      time.Duration `json:"duration"`
	ClientIP      string        `json:"client_ip,omitempty"`
	SessionID     string        `json:"session_id,omitempty"`
}

// Severity indicates how loudly an audit event should be surfaced.
// WithSuccess and WithError set it automatically; WithSeverity
// overrides that default for callers that need a finer distinction
// (e.g. a run that finished but left some workers in a pending
// disposition rather than cleanly failed).
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Filter defines criteria for querying audit events
type Filter struct {
	Run         string
	User        string
	Operation   string
	Interface   string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event
func NewEvent(user, run, operation string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		User:      user,
		Run:       run,
		Operation: operation,
	}
}

// WithInterfaces sets the full set of interfaces the run drove.
func (e *Event) WithInterfaces(names []string) *Event {
	e.Interfaces = names
	return e
}

// WithFailedWorkers sets the names of workers that ended up failed.
func (e *Event) WithFailedWorkers(names []string) *Event {
	e.FailedWorkers = names
	return e
}

// WithSuccess marks the event as successful, with severity info.
func (e *Event) WithSuccess() *Event {
	e.Success = true
	e.Severity = SeverityInfo
	return e
}

// WithError marks the event as failed, with severity error.
func (e *Event) WithError(err error) *Event {
	e.Success = false
	e.Severity = SeverityError
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithSeverity overrides the severity WithSuccess/WithError set. Useful
// for a run that ended cleanly but left workers in a pending
// disposition (interrupted rather than outright failed), which
// warrants SeverityWarning rather than SeverityError.
func (e *Event) WithSeverity(s Severity) *Event {
	e.Severity = s
	return e
}

// WithDuration sets the operation duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// WithLiveBus marks whether the run was driven over a real bus
// connection rather than the in-memory rpcbus.Fake.
func (e *Event) WithLiveBus(live bool) *Event {
	e.LiveBus = live
	return e
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
