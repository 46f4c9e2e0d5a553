// Package reduce implements the deterministic state-transition kernel:
// a pure reducer that takes a prior snapshot plus one event and
// produces a new snapshot or a rejection.
//
// Reduce never mutates its input. Handlers work on a private clone;
// a rejected reduction discards the clone and returns the caller's
// snapshot unchanged. Identical (snapshot, event) pairs always yield
// identical results.
package reduce

import (
	"fmt"

	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

// Event is one atomic proposed mutation.
type Event struct {
	Type      string       `json:"type"`
	Payload   value.Object `json:"payload"`
	Seq       int64        `json:"sequence,omitempty"`
	Timestamp string       `json:"timestamp,omitempty"`
}

// Result is the outcome of one reduction. When Applied is false the
// returned snapshot is the caller's input, value-equal and untouched.
type Result struct {
	Snapshot *state.Snapshot
	Applied  bool
	Warnings []Warning
	Err      *Error
}

// ErrorString returns the wire form of the rejection, or "" if applied.
func (r Result) ErrorString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// applyCtx carries one reduction's working state through a handler.
type applyCtx struct {
	snap     *state.Snapshot
	payload  value.Object
	seq      int64
	event    Event
	warnings []Warning
}

func (c *applyCtx) warn(code, format string, args ...any) {
	c.warnings = append(c.warnings, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
}

type handler func(*applyCtx) *Error

// handlers maps primitive names to their implementations. Dispatch is
// the only switch point; each handler independently enforces its
// idempotency and invariants.
var handlers = map[string]handler{
	"entity.create":          applyEntityCreate,
	"entity.update":          applyEntityUpdate,
	"entity.remove":          applyEntityRemove,
	"collection.create":      applyCollectionCreate,
	"collection.update":      applyCollectionUpdate,
	"collection.remove":      applyCollectionRemove,
	"field.add":              applyFieldAdd,
	"field.update":           applyFieldUpdate,
	"field.remove":           applyFieldRemove,
	"relationship.set":       applyRelationshipSet,
	"relationship.constrain": applyRelationshipConstrain,
	"block.set":              applyBlockSet,
	"block.remove":           applyBlockRemove,
	"block.reorder":          applyBlockReorder,
	"view.create":            applyViewCreate,
	"view.update":            applyViewUpdate,
	"view.remove":            applyViewRemove,
	"style.set":              applyStyleSet,
	"style.set_entity":       applyStyleSetEntity,
	"meta.update":            applyMetaUpdate,
	"meta.annotate":          applyMetaAnnotate,
	"meta.constrain":         applyMetaConstrain,
}

// Known reports whether a primitive type is recognized.
func Known(primitive string) bool {
	_, ok := handlers[primitive]
	return ok
}

// Reduce applies one event to a snapshot. The input snapshot is never
// mutated; on rejection it is returned as-is.
func Reduce(snap *state.Snapshot, ev Event) Result {
	h, ok := handlers[ev.Type]
	if !ok {
		return Result{
			Snapshot: snap,
			Applied:  false,
			Warnings: []Warning{},
			Err:      reject(CodeUnknownPrimitive, "%s", ev.Type),
		}
	}

	payload := ev.Payload
	if payload == nil {
		payload = value.Object{}
	}

	ctx := &applyCtx{
		snap:     snap.Clone(),
		payload:  payload,
		seq:      ev.Seq,
		event:    ev,
		warnings: []Warning{},
	}
	if err := h(ctx); err != nil {
		return Result{Snapshot: snap, Applied: false, Warnings: ctx.warnings, Err: err}
	}
	return Result{Snapshot: ctx.snap, Applied: true, Warnings: ctx.warnings}
}
