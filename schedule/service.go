package schedule

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Service struct {
	repo Repo
}

func NewService(repo Repo) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[schedule.NewService] repo is required")
	}
	return &Service{repo: repo}, nil
}

func (s *Service) Save(e *Event) (*Event, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if err := s.repo.Upsert(e); err != nil {
		return nil, errors.Wrap(err, "[schedule.Save] upsert")
	}
	return e, nil
}

// Move reschedules an event keeping its duration, as a calendar drag does.
func (s *Service) Move(id string, start time.Time) (*Event, error) {
	e, err := s.repo.Get(id)
	if err != nil {
		return nil, errors.Wrapf(err, "[schedule.Move] %s", id)
	}
	duration := e.End.Sub(e.Start)
	e.Start = start
	e.End = start.Add(duration)
	return s.Save(e)
}

func (s *Service) Delete(id string) error {
	return errors.Wrapf(s.repo.Delete(id), "[schedule.Delete] %s", id)
}

// Month returns events overlapping the calendar month containing day.
func (s *Service) Month(day time.Time) ([]*Event, error) {
	from := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	events, err := s.repo.Between(from, from.AddDate(0, 1, 0))
	return events, errors.Wrap(err, "[schedule.Month] between")
}

func (s *Service) Between(from, to time.Time) ([]*Event, error) {
	events, err := s.repo.Between(from, to)
	return events, errors.Wrap(err, "[schedule.Between] between")
}
