package reduce

import (
	"github.com/zcancio/aide/internal/state"
)

// Replay folds an ordered event sequence over an empty snapshot.
//
// Replay is total: rejected events leave the snapshot unchanged and
// are skipped, so any event log replays to completion and the result
// is a pure function of the sequence. Events without an explicit
// sequence number take their 1-based position in the log.
func Replay(events []Event) *state.Snapshot {
	snap := state.Empty()
	for i, ev := range events {
		if ev.Seq == 0 {
			ev.Seq = int64(i + 1)
		}
		snap = Reduce(snap, ev).Snapshot
	}
	return snap
}

// ReplayWithResults is Replay plus the per-event outcomes, for callers
// that report skipped events (the CLI's replay command).
func ReplayWithResults(events []Event) (*state.Snapshot, []Result) {
	snap := state.Empty()
	results := make([]Result, 0, len(events))
	for i, ev := range events {
		if ev.Seq == 0 {
			ev.Seq = int64(i + 1)
		}
		res := Reduce(snap, ev)
		results = append(results, res)
		snap = res.Snapshot
	}
	return snap, results
}
