package grid

import (
	"fmt"

	"github.com/zcancio/aide/internal/reduce"
	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

// QueryPrimitive is a pseudo-primitive that reads a cell instead of
// mutating it. ResolvePrimitives answers it directly and drops it from
// the outgoing event list.
const QueryPrimitive = "grid.query"

// ResolvePrimitives rewrites cell_ref+collection payload pairs into
// plain entity refs and answers grid.query reads. The first failed
// resolution aborts the whole batch.
func ResolvePrimitives(events []reduce.Event, snap *state.Snapshot) ([]reduce.Event, []string, error) {
	resolved := make([]reduce.Event, 0, len(events))
	var responses []string

	for _, ev := range events {
		cellRef, hasCell := ev.Payload.Str("cell_ref")
		collectionID, hasCol := ev.Payload.Str("collection")

		if ev.Type == QueryPrimitive {
			if !hasCell || !hasCol {
				return nil, nil, fmt.Errorf("grid.query requires cell_ref and collection")
			}
			ref, err := ResolveCell(cellRef, collectionID, snap)
			if err != nil {
				return nil, nil, err
			}
			field, _ := ev.Payload.Str("field")
			responses = append(responses, queryResponse(snap, ref, cellRef, field))
			continue
		}

		if hasCell && hasCol {
			ref, err := ResolveCell(cellRef, collectionID, snap)
			if err != nil {
				return nil, nil, err
			}
			payload := ev.Payload.Clone()
			delete(payload, "cell_ref")
			payload["ref"] = value.String(ref)
			ev.Payload = payload
		}
		resolved = append(resolved, ev)
	}
	return resolved, responses, nil
}

func queryResponse(snap *state.Snapshot, ref, cellRef, field string) string {
	_, ent, ok := snap.ResolveRef(ref)
	if !ok {
		return fmt.Sprintf("%s: nothing there", cellRef)
	}
	if field == "" {
		return fmt.Sprintf("%s: occupied", cellRef)
	}
	v, ok := ent[field]
	if !ok || value.IsNull(v) {
		return fmt.Sprintf("%s: %s is not set", cellRef, field)
	}
	return fmt.Sprintf("%s: %s is %s", cellRef, field, displayString(v))
}

func displayString(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return string(s)
	}
	b, err := value.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
