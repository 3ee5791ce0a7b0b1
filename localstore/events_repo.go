package localstore

import (
	"database/sql"
	"time"

	deskerrors "github.com/jrsteele09/contract-desk/internal/errors"
	"github.com/jrsteele09/contract-desk/schedule"
	"github.com/pkg/errors"
)

type EventRepo struct {
	db *sql.DB
}

var _ schedule.Repo = (*EventRepo)(nil)

func (d *DB) Events() *EventRepo {
	return &EventRepo{db: d.db}
}

func (r *EventRepo) Upsert(event *schedule.Event) error {
	if event.ID == "" {
		return errors.New("[EventRepo.Upsert] event id is required")
	}
	_, err := r.db.Exec(
		`INSERT INTO events (id, title, start_ms, end_ms, client_id, contract_id)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title, start_ms = excluded.start_ms, end_ms = excluded.end_ms,
		   client_id = excluded.client_id, contract_id = excluded.contract_id`,
		event.ID, event.Title, event.Start.UnixMilli(), event.End.UnixMilli(), event.ClientID, event.ContractID)
	return errors.Wrapf(err, "[EventRepo.Upsert] %s", event.ID)
}

func (r *EventRepo) Delete(eventID string) error {
	res, err := r.db.Exec(`DELETE FROM events WHERE id = ?`, eventID)
	if err != nil {
		return errors.Wrapf(err, "[EventRepo.Delete] %s", eventID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(deskerrors.ErrNotFound, "[EventRepo.Delete] %s", eventID)
	}
	return nil
}

func (r *EventRepo) Get(eventID string) (*schedule.Event, error) {
	row := r.db.QueryRow(
		`SELECT id, title, start_ms, end_ms, client_id, contract_id FROM events WHERE id = ?`, eventID)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(deskerrors.ErrNotFound, "[EventRepo.Get] %s", eventID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[EventRepo.Get] %s", eventID)
	}
	return event, nil
}

func (r *EventRepo) Between(from, to time.Time) ([]*schedule.Event, error) {
	rows, err := r.db.Query(
		`SELECT id, title, start_ms, end_ms, client_id, contract_id FROM events
		 WHERE start_ms < ? AND end_ms >= ?
		 ORDER BY start_ms, id`,
		to.UnixMilli(), from.UnixMilli())
	if err != nil {
		return nil, errors.Wrap(err, "[EventRepo.Between] query")
	}
	defer rows.Close()

	events := []*schedule.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "[EventRepo.Between] scan")
		}
		events = append(events, event)
	}
	return events, errors.Wrap(rows.Err(), "[EventRepo.Between] rows")
}

func scanEvent(s scanner) (*schedule.Event, error) {
	var (
		e          schedule.Event
		start, end int64
	)
	if err := s.Scan(&e.ID, &e.Title, &start, &end, &e.ClientID, &e.ContractID); err != nil {
		return nil, err
	}
	e.Start = time.UnixMilli(start).UTC()
	e.End = time.UnixMilli(end).UTC()
	return &e, nil
}
