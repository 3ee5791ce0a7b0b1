package sessions

import (
	"encoding/json"
	"strconv"

	"github.com/jrsteele09/contract-desk/users"
	"github.com/pkg/errors"
)

// Well-known keys in durable client storage.
const (
	RememberMeKey = "rememberMe"
	CachedUserKey = "currentUser"
)

// Store is the durable client-side session storage. Only the remember-me
// preference and a cached user for pre-filling forms live here, never tokens.
type Store interface {
	RememberMe() (bool, error)
	SetRememberMe(remember bool) error
	CachedUser() (*users.User, error)
	SetCachedUser(user *users.User) error
	Clear() error
}

// KV is the minimal durable key/value storage a Store can be built on.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// NewKVStore adapts any KV backend to a Store.
func NewKVStore(kv KV) Store {
	return &kvStore{kv: kv}
}

type kvStore struct {
	kv KV
}

func (s *kvStore) RememberMe() (bool, error) {
	v, ok, err := s.kv.Get(RememberMeKey)
	if err != nil {
		return false, errors.Wrap(err, "[sessions.RememberMe] read")
	}
	if !ok {
		return false, nil
	}
	remember, err := strconv.ParseBool(v)
	if err != nil {
		// Anything other than a clear "true" means not remembered.
		return false, nil
	}
	return remember, nil
}

func (s *kvStore) SetRememberMe(remember bool) error {
	return errors.Wrap(s.kv.Set(RememberMeKey, strconv.FormatBool(remember)), "[sessions.SetRememberMe] write")
}

func (s *kvStore) CachedUser() (*users.User, error) {
	v, ok, err := s.kv.Get(CachedUserKey)
	if err != nil {
		return nil, errors.Wrap(err, "[sessions.CachedUser] read")
	}
	if !ok || v == "" {
		return nil, nil
	}
	var u users.User
	if err := json.Unmarshal([]byte(v), &u); err != nil {
		return nil, nil
	}
	return &u, nil
}

func (s *kvStore) SetCachedUser(user *users.User) error {
	if user == nil {
		return errors.Wrap(s.kv.Delete(CachedUserKey), "[sessions.SetCachedUser] delete")
	}
	b, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "[sessions.SetCachedUser] encode")
	}
	return errors.Wrap(s.kv.Set(CachedUserKey, string(b)), "[sessions.SetCachedUser] write")
}

func (s *kvStore) Clear() error {
	return errors.Wrap(s.kv.Delete(RememberMeKey, CachedUserKey), "[sessions.Clear] delete")
}
