package localstore

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jrsteele09/contract-desk/sessions"
	"github.com/pkg/errors"
)

// KV is the key/value table backing the session store.
type KV struct {
	db  *sql.DB
	now func() time.Time
}

var _ sessions.KV = (*KV)(nil)

func (d *DB) KV() *KV {
	return &KV{db: d.db, now: time.Now}
}

// SessionStore returns the durable remember-me store.
func (d *DB) SessionStore() sessions.Store {
	return sessions.NewKVStore(d.KV())
}

func (k *KV) Get(key string) (string, bool, error) {
	var value string
	err := k.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "[KV.Get] %s", key)
	}
	return value, true, nil
}

func (k *KV) Set(key, value string) error {
	_, err := k.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, k.now().Unix())
	return errors.Wrapf(err, "[KV.Set] %s", key)
}

func (k *KV) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	_, err := k.db.Exec(`DELETE FROM kv WHERE key IN (`+placeholders+`)`, args...)
	return errors.Wrap(err, "[KV.Delete]")
}
