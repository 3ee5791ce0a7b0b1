package schedule

import "time"

type Repo interface {
	Upsert(event *Event) error
	Delete(eventID string) error
	Get(eventID string) (*Event, error)
	// Between returns events overlapping [from, to) ordered by start.
	Between(from, to time.Time) ([]*Event, error)
}
