package fakesessionstore

import (
	"errors"
	"sync"

	"github.com/jrsteele09/contract-desk/sessions"
	"github.com/jrsteele09/contract-desk/users"
)

var _ sessions.Store = (*FakeSessionStore)(nil)
var _ sessions.KV = (*FakeKV)(nil)

// FakeSessionStore is an in-memory Store that counts writes.
type FakeSessionStore struct {
	lock       sync.RWMutex
	remember   bool
	user       *users.User
	Writes     int
	FailWrites bool
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{}
}

func (s *FakeSessionStore) RememberMe() (bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.remember, nil
}

func (s *FakeSessionStore) SetRememberMe(remember bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.FailWrites {
		return errors.New("storage unavailable")
	}
	s.Writes++
	s.remember = remember
	return nil
}

func (s *FakeSessionStore) CachedUser() (*users.User, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.user == nil {
		return nil, nil
	}
	cp := *s.user
	return &cp, nil
}

func (s *FakeSessionStore) SetCachedUser(user *users.User) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.FailWrites {
		return errors.New("storage unavailable")
	}
	s.Writes++
	if user == nil {
		s.user = nil
		return nil
	}
	cp := *user
	s.user = &cp
	return nil
}

func (s *FakeSessionStore) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.Writes++
	s.remember = false
	s.user = nil
	return nil
}

// FakeKV is an in-memory KV backend.
type FakeKV struct {
	lock   sync.RWMutex
	values map[string]string
}

func NewFakeKV() *FakeKV {
	return &FakeKV{values: make(map[string]string)}
}

func (kv *FakeKV) Get(key string) (string, bool, error) {
	kv.lock.RLock()
	defer kv.lock.RUnlock()
	v, ok := kv.values[key]
	return v, ok, nil
}

func (kv *FakeKV) Set(key, value string) error {
	kv.lock.Lock()
	defer kv.lock.Unlock()
	kv.values[key] = value
	return nil
}

func (kv *FakeKV) Delete(keys ...string) error {
	kv.lock.Lock()
	defer kv.lock.Unlock()
	for _, k := range keys {
		delete(kv.values, k)
	}
	return nil
}
