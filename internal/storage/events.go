package storage

import (
	"context"
	"fmt"
	"time"
)

// EventRecord is one row of the ledger audit trail.
type EventRecord struct {
	ID         string
	Kind       string
	OwnerID    string
	EntityID   string
	Payload    []byte
	OccurredAt time.Time
	RecordedAt time.Time
}

// RecordEvent appends an event. Redelivered events with a known id are
// ignored.
func (q *Queries) RecordEvent(ctx context.Context, e EventRecord) error {
	_, err := q.exec(ctx, `
INSERT INTO ledger_events (id, kind, owner_id, entity_id, payload, occurred_at, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Kind, e.OwnerID, e.EntityID, string(e.Payload),
		formatTimestamp(e.OccurredAt), formatTimestamp(e.RecordedAt))
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// ListEvents returns the owner's events, oldest first.
func (q *Queries) ListEvents(ctx context.Context, owner string, limit int) ([]EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.query(ctx, `
SELECT id, kind, owner_id, entity_id, payload, occurred_at, recorded_at
FROM ledger_events WHERE owner_id = ? ORDER BY occurred_at ASC, id ASC LIMIT ?`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]EventRecord, 0)
	for rows.Next() {
		var (
			e                  EventRecord
			payload            string
			occurred, recorded string
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.OwnerID, &e.EntityID, &payload, &occurred, &recorded); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Payload = []byte(payload)
		if e.OccurredAt, err = parseTimestamp(occurred); err != nil {
			return nil, err
		}
		if e.RecordedAt, err = parseTimestamp(recorded); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
