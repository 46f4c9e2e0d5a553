package reduce

import (
	"sort"

	"github.com/zcancio/aide/internal/schema"
	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

// applyFieldAdd handles field.add {collection, name, type, default?}.
// Every entity, tombstoned ones included, receives the new field so
// schema and entity key sets stay in sync.
func applyFieldAdd(c *applyCtx) *Error {
	collID, ok := c.payload.Str("collection")
	if !ok {
		return reject(CodeInvalidPayload, "collection is required")
	}
	col, ok := c.snap.LiveCollection(collID)
	if !ok {
		return reject(CodeCollectionNotFound, "%s", collID)
	}
	name, ok := c.payload.Str("name")
	if !ok || name == "" {
		return reject(CodeInvalidPayload, "name is required")
	}
	if col.Schema.Has(name) {
		return reject(CodeFieldAlreadyExists, "%s", name)
	}

	rawType, ok := c.payload["type"]
	if !ok {
		return reject(CodeInvalidPayload, "type is required")
	}
	ft, err := schema.Parse(rawType)
	if err != nil {
		return reject(CodeTypeMismatch, "%s", name)
	}

	def, hasDefault := c.payload["default"]
	if hasDefault && value.IsNull(def) && !ft.Nullable {
		hasDefault = false
	}
	if hasDefault && !ft.Validate(def) {
		return reject(CodeTypeMismatch, "%s", name)
	}
	if !hasDefault && !ft.Nullable && col.LiveCount() > 0 {
		return reject(CodeRequiredFieldNoDefault, "%s", name)
	}

	fill := value.Value(value.Null{})
	if hasDefault {
		fill = def
	}
	col.Schema.Set(name, ft)
	for _, ent := range col.Entities {
		ent[name] = value.Clone(fill)
	}
	return nil
}

// applyFieldUpdate handles field.update {collection, name, type?,
// rename?}. Type changes follow a fixed compatibility matrix; value
// conversions are computed for every live entity before anything is
// written, so a failing conversion rejects the change with the
// snapshot untouched.
func applyFieldUpdate(c *applyCtx) *Error {
	collID, ok := c.payload.Str("collection")
	if !ok {
		return reject(CodeInvalidPayload, "collection is required")
	}
	col, ok := c.snap.LiveCollection(collID)
	if !ok {
		return reject(CodeCollectionNotFound, "%s", collID)
	}
	name, ok := c.payload.Str("name")
	if !ok || name == "" {
		return reject(CodeInvalidPayload, "name is required")
	}
	oldType, ok := col.Schema.Get(name)
	if !ok {
		return reject(CodeFieldNotFound, "%s", name)
	}

	if rawType, hasType := c.payload["type"]; hasType {
		newType, err := schema.Parse(rawType)
		if err != nil {
			return reject(CodeTypeMismatch, "%s", name)
		}
		if err := c.changeFieldType(col, name, oldType, newType); err != nil {
			return err
		}
	}

	if rename, hasRename := c.payload.Str("rename"); hasRename && rename != "" {
		if col.Schema.Has(rename) {
			return reject(CodeFieldAlreadyExists, "%s", rename)
		}
		if err := col.Schema.Rename(name, rename); err != nil {
			return reject(CodeFieldNotFound, "%s", name)
		}
		for _, ent := range col.Entities {
			if v, present := ent[name]; present {
				ent[rename] = v
				delete(ent, name)
			}
		}
	}
	return nil
}

func (c *applyCtx) changeFieldType(col *state.Collection, name string, oldType, newType schema.FieldType) *Error {
	switch oldType.Compatibility(newType) {
	case schema.Incompatible:
		return reject(CodeIncompatibleTypeChange, "%s", name)
	case schema.LossyNumeric:
		c.warn(WarnLossyTypeConversion, "converting %s from %s to %s may lose precision",
			name, oldType, newType)
	}

	// Convert-then-commit: all live values must convert before any
	// entity is written.
	type pending struct {
		ent state.Entity
		val value.Value
	}
	var conversions []pending
	for _, id := range col.LiveEntityIDs() {
		ent := col.Entities[id]
		v, present := ent[name]
		if !present {
			continue
		}
		converted, err := oldType.Convert(v, newType)
		if err != nil {
			return reject(CodeTypeMismatch, "%s", name)
		}
		conversions = append(conversions, pending{ent: ent, val: converted})
	}
	for _, p := range conversions {
		p.ent[name] = p.val
	}
	col.Schema.Set(name, newType)
	return nil
}

// applyFieldRemove handles field.remove {collection, name}: deletes
// the schema entry and the key from every entity, and scrubs the
// field out of any view config that referenced it.
func applyFieldRemove(c *applyCtx) *Error {
	collID, ok := c.payload.Str("collection")
	if !ok {
		return reject(CodeInvalidPayload, "collection is required")
	}
	col, ok := c.snap.LiveCollection(collID)
	if !ok {
		return reject(CodeCollectionNotFound, "%s", collID)
	}
	name, ok := c.payload.Str("name")
	if !ok || !col.Schema.Has(name) {
		return reject(CodeFieldNotFound, "%s", name)
	}

	col.Schema.Delete(name)
	for _, ent := range col.Entities {
		delete(ent, name)
	}

	viewIDs := make([]string, 0, len(c.snap.Views))
	for id := range c.snap.Views {
		viewIDs = append(viewIDs, id)
	}
	sort.Strings(viewIDs)
	for _, viewID := range viewIDs {
		v := c.snap.Views[viewID]
		if v.Source != collID {
			continue
		}
		for _, key := range []string{"show_fields", "hide_fields"} {
			arr, ok := v.Config.Arr(key)
			if !ok {
				continue
			}
			kept := arr[:0]
			removed := false
			for _, elem := range arr {
				if s, isStr := elem.(value.String); isStr && string(s) == name {
					removed = true
					continue
				}
				kept = append(kept, elem)
			}
			if removed {
				v.Config[key] = kept
				c.warn(WarnViewFieldMissing, "view %s: removed field %q from %s", viewID, name, key)
			}
		}
		for _, key := range []string{"sort_by", "group_by"} {
			if s, ok := v.Config.Str(key); ok && s == name {
				delete(v.Config, key)
				c.warn(WarnViewFieldMissing, "view %s: cleared %s referencing removed field %q", viewID, key, name)
			}
		}
	}
	return nil
}
