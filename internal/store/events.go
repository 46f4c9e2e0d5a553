package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/zcancio/aide/internal/reduce"
	"github.com/zcancio/aide/internal/value"
)

// AppendEvent appends one event to an aide's log and returns its
// assigned sequence number. Payloads are stored in canonical JSON so a
// log diff is meaningful byte-for-byte.
//
// The insert runs in an immediate transaction: the max-seq read and
// the insert are atomic against other writers on the same file.
func (s *Store) AppendEvent(ctx context.Context, aideID string, ev reduce.Event) (int64, error) {
	payload := ev.Payload
	if payload == nil {
		payload = value.Object{}
	}
	payloadJSON, err := value.MarshalCanonical(payload)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("append event: begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE aide_id = ?
	`, aideID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("append event: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (id, aide_id, seq, type, payload, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		uuid.Must(uuid.NewV7()).String(),
		aideID,
		seq,
		ev.Type,
		string(payloadJSON),
		ev.Timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("append event: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append event: commit: %w", err)
	}
	return seq, nil
}

// Events returns an aide's full event log in sequence order.
func (s *Store) Events(ctx context.Context, aideID string) ([]reduce.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, type, payload, timestamp FROM events
		WHERE aide_id = ?
		ORDER BY seq
	`, aideID)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var events []reduce.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// EventsSince returns the events with seq greater than after, for
// catching a cached snapshot up to the log head.
func (s *Store) EventsSince(ctx context.Context, aideID string, after int64) ([]reduce.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, type, payload, timestamp FROM events
		WHERE aide_id = ? AND seq > ?
		ORDER BY seq
	`, aideID, after)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var events []reduce.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (reduce.Event, error) {
	var (
		ev          reduce.Event
		payloadJSON string
	)
	if err := rows.Scan(&ev.Seq, &ev.Type, &payloadJSON, &ev.Timestamp); err != nil {
		return reduce.Event{}, fmt.Errorf("read events: scan: %w", err)
	}
	v, err := value.Decode([]byte(payloadJSON))
	if err != nil {
		return reduce.Event{}, fmt.Errorf("read events: payload: %w", err)
	}
	obj, ok := v.(value.Object)
	if !ok {
		return reduce.Event{}, fmt.Errorf("read events: payload for seq %d is not an object", ev.Seq)
	}
	ev.Payload = obj
	return ev, nil
}
