package clients

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Service struct {
	repo    Repo
	nowTime func() time.Time
}

type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = now
	}
}

func NewService(repo Repo, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[clients.NewService] repo is required")
	}
	s := &Service{repo: repo, nowTime: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Save validates and stores a client, assigning an id to new ones.
func (s *Service) Save(c *Client) (*Client, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	now := s.nowTime().UTC()
	if c.ID == "" {
		c.ID = uuid.New().String()
		c.CreatedAt = now
	} else if existing, err := s.repo.Get(c.ID); err == nil {
		c.CreatedAt = existing.CreatedAt
	}
	c.UpdatedAt = now

	if err := s.repo.Upsert(c); err != nil {
		return nil, errors.Wrap(err, "[clients.Save] upsert")
	}
	return c, nil
}

func (s *Service) Get(id string) (*Client, error) {
	c, err := s.repo.Get(id)
	return c, errors.Wrapf(err, "[clients.Get] %s", id)
}

func (s *Service) Delete(id string) error {
	return errors.Wrapf(s.repo.Delete(id), "[clients.Delete] %s", id)
}

// Search lists clients matching query; an empty query lists all.
func (s *Service) Search(query string) ([]*Client, error) {
	all, err := s.repo.List()
	if err != nil {
		return nil, errors.Wrap(err, "[clients.Search] list")
	}
	result := make([]*Client, 0, len(all))
	for _, c := range all {
		if c.Matches(query) {
			result = append(result, c)
		}
	}
	return result, nil
}
