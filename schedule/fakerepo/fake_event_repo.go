package fakeeventrepo

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/contract-desk/schedule"
)

var _ schedule.Repo = (*FakeEventRepo)(nil)

type FakeEventRepo struct {
	events map[string]*schedule.Event
	lock   sync.RWMutex
}

func NewFakeEventRepo() schedule.Repo {
	return &FakeEventRepo{events: make(map[string]*schedule.Event)}
}

func (r *FakeEventRepo) Upsert(event *schedule.Event) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	cp := *event
	r.events[event.ID] = &cp
	return nil
}

func (r *FakeEventRepo) Delete(eventID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.events[eventID]; !ok {
		return errors.New("not found")
	}
	delete(r.events, eventID)
	return nil
}

func (r *FakeEventRepo) Get(eventID string) (*schedule.Event, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	e, ok := r.events[eventID]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *e
	return &cp, nil
}

func (r *FakeEventRepo) Between(from, to time.Time) ([]*schedule.Event, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	result := make([]*schedule.Event, 0)
	for _, e := range r.events {
		if e.Overlaps(from, to) {
			cp := *e
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Start.Before(result[j].Start)
	})
	return result, nil
}
