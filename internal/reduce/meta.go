package reduce

import (
	"github.com/zcancio/aide/internal/state"
)

// applyMetaUpdate shallow-merges the payload into page metadata. A
// null value deletes the key.
func applyMetaUpdate(c *applyCtx) *Error {
	mergeNullDeletes(c.snap.Meta, c.payload)
	return nil
}

// applyMetaAnnotate appends an immutable note carrying the event's
// sequence number and timestamp.
func applyMetaAnnotate(c *applyCtx) *Error {
	note, ok := c.payload.Str("note")
	if !ok || note == "" {
		return reject(CodeInvalidPayload, "note is required")
	}
	pinned, _ := c.payload.Boolean("pinned")
	c.snap.Annotations = append(c.snap.Annotations, state.Annotation{
		Note:      note,
		Pinned:    pinned,
		Seq:       c.seq,
		Timestamp: c.event.Timestamp,
	})
	return nil
}

// applyMetaConstrain upserts a constraint by id: the one
// constraint-mutation path that replaces rather than appends.
func applyMetaConstrain(c *applyCtx) *Error {
	id, ok := c.payload.Str("id")
	if !ok || id == "" {
		return reject(CodeInvalidPayload, "id is required")
	}
	cons := constraintFromPayload(c.payload, len(c.snap.Constraints))
	cons.ID = id
	for i, existing := range c.snap.Constraints {
		if existing.ID == id {
			c.snap.Constraints[i] = cons
			return nil
		}
	}
	c.snap.Constraints = append(c.snap.Constraints, cons)
	return nil
}
