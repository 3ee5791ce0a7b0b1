// Package schedule keeps the agent's calendar events.
package schedule

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrTitleRequired  = errors.New("title is required")
	ErrStartRequired  = errors.New("start time is required")
	ErrEndBeforeStart = errors.New("end must not be before start")
)

type Event struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ClientID   string    `json:"client_id,omitempty"`
	ContractID int64     `json:"contract_id,omitempty"`
}

func (e *Event) Validate() error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return ErrTitleRequired
	}
	if e.Start.IsZero() {
		return ErrStartRequired
	}
	if e.End.IsZero() {
		e.End = e.Start
	}
	if e.End.Before(e.Start) {
		return ErrEndBeforeStart
	}
	return nil
}

// Overlaps reports whether the event intersects [from, to).
func (e *Event) Overlaps(from, to time.Time) bool {
	return e.Start.Before(to) && !e.End.Before(from)
}
