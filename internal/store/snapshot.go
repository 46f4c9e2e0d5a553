package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zcancio/aide/internal/reduce"
	"github.com/zcancio/aide/internal/state"
)

// SaveSnapshot caches a materialized snapshot, replacing any earlier
// cache for the aide. seq is the last event folded into it.
func (s *Store) SaveSnapshot(ctx context.Context, aideID string, seq int64, snap *state.Snapshot) error {
	data, err := state.Marshal(snap)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (aide_id, seq, snapshot) VALUES (?, ?, ?)
		ON CONFLICT(aide_id) DO UPDATE SET seq = excluded.seq, snapshot = excluded.snapshot
	`, aideID, seq, string(data))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the cached snapshot and the seq it covers.
// A missing cache returns an empty snapshot at seq 0.
func (s *Store) LoadSnapshot(ctx context.Context, aideID string) (*state.Snapshot, int64, error) {
	var (
		seq  int64
		data string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, snapshot FROM snapshots WHERE aide_id = ?
	`, aideID).Scan(&seq, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return state.Empty(), 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load snapshot: %w", err)
	}
	snap, err := state.Unmarshal([]byte(data))
	if err != nil {
		return nil, 0, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, seq, nil
}

// Materialize returns the aide's current snapshot: the cached snapshot
// plus any events appended since it was saved. A stale or missing
// cache falls back to a full replay; the refreshed result is cached
// for the next call.
func (s *Store) Materialize(ctx context.Context, aideID string) (*state.Snapshot, int64, error) {
	snap, seq, err := s.LoadSnapshot(ctx, aideID)
	if err != nil {
		return nil, 0, err
	}

	events, err := s.EventsSince(ctx, aideID, seq)
	if err != nil {
		return nil, 0, err
	}
	if len(events) == 0 {
		return snap, seq, nil
	}

	slog.Debug("materializing snapshot", "aide", aideID, "cached_seq", seq, "pending", len(events))
	for _, ev := range events {
		snap = reduce.Reduce(snap, ev).Snapshot
		seq = ev.Seq
	}
	if err := s.SaveSnapshot(ctx, aideID, seq, snap); err != nil {
		return nil, 0, err
	}
	return snap, seq, nil
}
