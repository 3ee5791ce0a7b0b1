package localstore

import (
	"database/sql"
	"time"

	"github.com/jrsteele09/contract-desk/clients"
	deskerrors "github.com/jrsteele09/contract-desk/internal/errors"
	"github.com/pkg/errors"
)

type ClientRepo struct {
	db *sql.DB
}

var _ clients.Repo = (*ClientRepo)(nil)

func (d *DB) Clients() *ClientRepo {
	return &ClientRepo{db: d.db}
}

func (r *ClientRepo) Upsert(client *clients.Client) error {
	if client.ID == "" {
		return errors.New("[ClientRepo.Upsert] client id is required")
	}
	_, err := r.db.Exec(
		`INSERT INTO clients (id, name, phone, email, memo, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, phone = excluded.phone, email = excluded.email,
		   memo = excluded.memo, updated_at = excluded.updated_at`,
		client.ID, client.Name, client.Phone, client.Email, client.Memo,
		client.CreatedAt.UnixMilli(), client.UpdatedAt.UnixMilli())
	return errors.Wrapf(err, "[ClientRepo.Upsert] %s", client.ID)
}

func (r *ClientRepo) Delete(clientID string) error {
	res, err := r.db.Exec(`DELETE FROM clients WHERE id = ?`, clientID)
	if err != nil {
		return errors.Wrapf(err, "[ClientRepo.Delete] %s", clientID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(deskerrors.ErrNotFound, "[ClientRepo.Delete] %s", clientID)
	}
	return nil
}

func (r *ClientRepo) Get(clientID string) (*clients.Client, error) {
	row := r.db.QueryRow(
		`SELECT id, name, phone, email, memo, created_at, updated_at FROM clients WHERE id = ?`, clientID)
	client, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(deskerrors.ErrNotFound, "[ClientRepo.Get] %s", clientID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[ClientRepo.Get] %s", clientID)
	}
	return client, nil
}

func (r *ClientRepo) List() ([]*clients.Client, error) {
	rows, err := r.db.Query(
		`SELECT id, name, phone, email, memo, created_at, updated_at FROM clients ORDER BY name, id`)
	if err != nil {
		return nil, errors.Wrap(err, "[ClientRepo.List] query")
	}
	defer rows.Close()

	list := []*clients.Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, errors.Wrap(err, "[ClientRepo.List] scan")
		}
		list = append(list, client)
	}
	return list, errors.Wrap(rows.Err(), "[ClientRepo.List] rows")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(s scanner) (*clients.Client, error) {
	var (
		c                clients.Client
		created, updated int64
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Memo, &created, &updated); err != nil {
		return nil, err
	}
	c.CreatedAt = time.UnixMilli(created).UTC()
	c.UpdatedAt = time.UnixMilli(updated).UTC()
	return &c, nil
}
