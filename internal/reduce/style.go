package reduce

import (
	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

// applyStyleSet upserts top-level keys into the global style map. A
// null value deletes the key.
func applyStyleSet(c *applyCtx) *Error {
	mergeNullDeletes(c.snap.Styles, c.payload)
	return nil
}

// applyStyleSetEntity handles style.set_entity {ref, styles}: merges
// into the entity's style bag.
func applyStyleSetEntity(c *applyCtx) *Error {
	ref, ok := c.payload.Str("ref")
	if !ok || ref == "" {
		return reject(CodeInvalidPayload, "ref is required")
	}
	_, ent, ok := c.snap.ResolveRef(ref)
	if !ok {
		return reject(CodeEntityNotFound, "%s", ref)
	}
	styles, _ := c.payload.Obj("styles")
	if styles == nil {
		return nil
	}

	bag, ok := value.Object(ent).Obj(state.KeyStyles)
	if !ok {
		bag = value.Object{}
		ent[state.KeyStyles] = bag
	}
	mergeNullDeletes(bag, styles)
	return nil
}
