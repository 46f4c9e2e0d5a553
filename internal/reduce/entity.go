package reduce

import (
	"fmt"

	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

// applyEntityCreate handles entity.create {collection, id?, fields?}.
// A "ref" whose collection part matches may stand in for "id", the form
// the grid resolver produces.
//
// Recreating over a removed entity's id is allowed and overwrites the
// tombstone; a live entity with the same id is a rejection.
func applyEntityCreate(c *applyCtx) *Error {
	collID, ok := c.payload.Str("collection")
	if !ok {
		return reject(CodeInvalidPayload, "collection is required")
	}
	col, ok := c.snap.LiveCollection(collID)
	if !ok {
		return reject(CodeCollectionNotFound, "%s", collID)
	}

	id, ok := c.payload.Str("id")
	if !ok || id == "" {
		if ref, hasRef := c.payload.Str("ref"); hasRef {
			if refColl, refID, valid := state.SplitRef(ref); valid && refColl == collID {
				id = refID
			}
		}
	}
	if id == "" {
		id = nextEntityID(col)
	}
	if existing, present := col.Entities[id]; present && !existing.Removed() {
		return reject(CodeEntityAlreadyExists, "%s", id)
	}

	fields, _ := c.payload.Obj("fields")

	ent := state.Entity{}
	for _, name := range col.Schema.Names() {
		ft, _ := col.Schema.Get(name)
		v, provided := fields[name]
		if !provided {
			if !ft.Nullable {
				return reject(CodeRequiredFieldMissing, "%s", name)
			}
			ent[name] = value.Null{}
			continue
		}
		if !ft.Validate(v) {
			return reject(CodeTypeMismatch, "%s", name)
		}
		ent[name] = value.Clone(v)
	}
	for _, name := range fields.SortedKeys() {
		if !col.Schema.Has(name) {
			c.warn(WarnUnknownFieldIgnored, "unknown field %q ignored", name)
		}
	}

	ent[state.KeyCreatedSeq] = value.Int(c.seq)
	ent[state.KeyUpdatedSeq] = value.Int(c.seq)
	col.Entities[id] = ent

	// Post-insert constraint check. A strict violation converts the
	// whole create into a rejection; the clone is discarded, so the
	// insert is unwound for free.
	return c.checkConstraints(collID)
}

// nextEntityID generates "{collection}_{n+1}", skipping ids already
// taken (live or tombstoned) so generated ids never collide.
func nextEntityID(col *state.Collection) string {
	n := len(col.Entities)
	for {
		n++
		id := fmt.Sprintf("%s_%d", col.ID, n)
		if _, taken := col.Entities[id]; !taken {
			return id
		}
	}
}

// applyEntityUpdate handles both the single-ref and the filtered bulk
// form of entity.update. The bulk form is atomic: field values are
// validated against the live schema before any entity is touched, so
// a type mismatch never leaves a partial bulk mutation behind.
func applyEntityUpdate(c *applyCtx) *Error {
	fields, _ := c.payload.Obj("fields")

	if ref, ok := c.payload.Str("ref"); ok {
		return c.updateSingle(ref, fields)
	}
	if filter, ok := c.payload.Obj("filter"); ok {
		return c.updateFiltered(filter, fields)
	}
	return reject(CodeInvalidPayload, "ref or filter is required")
}

func (c *applyCtx) updateSingle(ref string, fields value.Object) *Error {
	collID, entityID, ok := state.SplitRef(ref)
	if !ok {
		return reject(CodeEntityNotFound, "%s", ref)
	}
	col, ok := c.snap.LiveCollection(collID)
	if !ok {
		return reject(CodeEntityNotFound, "%s", ref)
	}
	ent, ok := col.LiveEntity(entityID)
	if !ok {
		return reject(CodeEntityNotFound, "%s", ref)
	}

	known, err := c.validateFields(col, fields)
	if err != nil {
		return err
	}
	for _, name := range known {
		ent[name] = value.Clone(fields[name])
	}
	ent[state.KeyUpdatedSeq] = value.Int(c.seq)

	return c.checkConstraints(collID)
}

func (c *applyCtx) updateFiltered(filter, fields value.Object) *Error {
	collID, ok := filter.Str("collection")
	if !ok {
		return reject(CodeInvalidPayload, "filter.collection is required")
	}
	col, ok := c.snap.LiveCollection(collID)
	if !ok {
		return reject(CodeCollectionNotFound, "%s", collID)
	}
	where, _ := filter.Obj("where")

	known, err := c.validateFields(col, fields)
	if err != nil {
		return err
	}

	updated := 0
	for _, id := range col.LiveEntityIDs() {
		ent := col.Entities[id]
		if !matchesWhere(ent, where) {
			continue
		}
		for _, name := range known {
			ent[name] = value.Clone(fields[name])
		}
		ent[state.KeyUpdatedSeq] = value.Int(c.seq)
		updated++
	}
	// Zero matches is not an error; the count is surfaced either way.
	c.warn(WarnEntitiesUpdated, "updated %d entities in %s", updated, collID)

	return c.checkConstraints(collID)
}

// validateFields type-checks every updated field against the live
// schema, warning on unknown fields. Returns the known field names in
// deterministic order. Any mismatch aborts the whole update.
func (c *applyCtx) validateFields(col *state.Collection, fields value.Object) ([]string, *Error) {
	known := make([]string, 0, len(fields))
	for _, name := range fields.SortedKeys() {
		ft, ok := col.Schema.Get(name)
		if !ok {
			c.warn(WarnUnknownFieldIgnored, "unknown field %q ignored", name)
			continue
		}
		if !ft.Validate(fields[name]) {
			return nil, reject(CodeTypeMismatch, "%s", name)
		}
		known = append(known, name)
	}
	return known, nil
}

// matchesWhere applies equality AND semantics; there is no OR form.
func matchesWhere(ent state.Entity, where value.Object) bool {
	for k, want := range where {
		got, ok := ent[k]
		if !ok || !value.Equal(got, want) {
			return false
		}
	}
	return true
}

// applyEntityRemove soft-deletes the entity and strips every
// relationship referencing it from either endpoint. Repeated removal
// is a no-op warning, never an error: the tombstone stays put.
func applyEntityRemove(c *applyCtx) *Error {
	ref, ok := c.payload.Str("ref")
	if !ok {
		return reject(CodeInvalidPayload, "ref is required")
	}
	collID, entityID, ok := state.SplitRef(ref)
	if !ok {
		return reject(CodeEntityNotFound, "%s", ref)
	}
	col, ok := c.snap.LiveCollection(collID)
	if !ok {
		return reject(CodeEntityNotFound, "%s", ref)
	}
	ent, present := col.Entities[entityID]
	if !present {
		return reject(CodeEntityNotFound, "%s", ref)
	}
	if ent.Removed() {
		c.warn(WarnAlreadyRemoved, "%s is already removed", ref)
		return nil
	}

	ent[state.KeyRemoved] = value.Bool(true)
	ent[state.KeyRemovedSeq] = value.Int(c.seq)

	kept := c.snap.Relationships[:0]
	for _, rel := range c.snap.Relationships {
		if rel.From == ref || rel.To == ref {
			continue
		}
		kept = append(kept, rel)
	}
	c.snap.Relationships = kept

	return nil
}
