package reduce

import (
	"github.com/zcancio/aide/internal/schema"
	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

// applyCollectionCreate handles collection.create {id, schema?, name?,
// settings?}. Every declared field type is validated up front; the
// first invalid type rejects the whole create.
func applyCollectionCreate(c *applyCtx) *Error {
	id, ok := c.payload.Str("id")
	if !ok || id == "" {
		return reject(CodeInvalidPayload, "id is required")
	}
	if existing, present := c.snap.Collections[id]; present && !existing.Removed {
		return reject(CodeCollectionAlreadyExists, "%s", id)
	}

	rawSchema, _ := c.payload.Obj("schema")
	fields := schema.NewFields()
	for _, name := range rawSchema.SortedKeys() {
		ft, err := schema.Parse(rawSchema[name])
		if err != nil {
			return reject(CodeTypeMismatch, "%s", name)
		}
		fields.Set(name, ft)
	}

	name, ok := c.payload.Str("name")
	if !ok || name == "" {
		name = id
	}
	settings, _ := c.payload.Obj("settings")
	if settings == nil {
		settings = value.Object{}
	}

	c.snap.Collections[id] = &state.Collection{
		ID:         id,
		Name:       name,
		Schema:     fields,
		Settings:   settings.Clone(),
		Entities:   map[string]state.Entity{},
		CreatedSeq: c.seq,
	}
	return nil
}

// applyCollectionUpdate handles collection.update {id, name?,
// settings?}. Settings entries with a null value delete the key;
// non-null values upsert.
func applyCollectionUpdate(c *applyCtx) *Error {
	id, ok := c.payload.Str("id")
	if !ok {
		return reject(CodeInvalidPayload, "id is required")
	}
	col, ok := c.snap.LiveCollection(id)
	if !ok {
		return reject(CodeCollectionNotFound, "%s", id)
	}

	if name, ok := c.payload.Str("name"); ok && name != "" {
		col.Name = name
	}
	if settings, ok := c.payload.Obj("settings"); ok {
		mergeNullDeletes(col.Settings, settings)
	}
	return nil
}

// applyCollectionRemove tombstones the collection, cascades the
// tombstone to every contained entity, and purges views sourced from
// it. Removing an already-removed collection is a no-op warning.
func applyCollectionRemove(c *applyCtx) *Error {
	id, ok := c.payload.Str("id")
	if !ok {
		return reject(CodeInvalidPayload, "id is required")
	}
	col, present := c.snap.Collections[id]
	if !present {
		return reject(CodeCollectionNotFound, "%s", id)
	}
	if col.Removed {
		c.warn(WarnAlreadyRemoved, "%s is already removed", id)
		return nil
	}

	col.Removed = true
	for _, ent := range col.Entities {
		if ent.Removed() {
			continue
		}
		ent[state.KeyRemoved] = value.Bool(true)
		ent[state.KeyRemovedSeq] = value.Int(c.seq)
	}
	for viewID, v := range c.snap.Views {
		if v.Source == id {
			delete(c.snap.Views, viewID)
		}
	}
	return nil
}

// mergeNullDeletes shallow-merges src into dst, deleting keys whose
// incoming value is null.
func mergeNullDeletes(dst, src value.Object) {
	for k, v := range src {
		if value.IsNull(v) {
			delete(dst, k)
			continue
		}
		dst[k] = value.Clone(v)
	}
}
