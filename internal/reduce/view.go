package reduce

import (
	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

// View types the renderer knows how to draw. Anything else falls back
// to table rendering.
const (
	ViewTypeTable = "table"
	ViewTypeList  = "list"
)

// applyViewCreate handles view.create {id, source, type?, config?}.
func applyViewCreate(c *applyCtx) *Error {
	id, ok := c.payload.Str("id")
	if !ok || id == "" {
		return reject(CodeInvalidPayload, "id is required")
	}
	if _, exists := c.snap.Views[id]; exists {
		return reject(CodeViewAlreadyExists, "%s", id)
	}
	source, ok := c.payload.Str("source")
	if !ok || source == "" {
		return reject(CodeInvalidPayload, "source is required")
	}
	if _, ok := c.snap.LiveCollection(source); !ok {
		return reject(CodeCollectionNotFound, "%s", source)
	}

	viewType, _ := c.payload.Str("type")
	if viewType == "" {
		viewType = ViewTypeTable
	}
	config, _ := c.payload.Obj("config")
	if config == nil {
		config = value.Object{}
	}
	c.snap.Views[id] = &state.View{
		ID:     id,
		Type:   viewType,
		Source: source,
		Config: config.Clone(),
	}
	return nil
}

// applyViewUpdate handles view.update {id, type?, source?, config?}.
// Config is shallow-merged; null values delete keys.
func applyViewUpdate(c *applyCtx) *Error {
	id, ok := c.payload.Str("id")
	if !ok {
		return reject(CodeInvalidPayload, "id is required")
	}
	v, ok := c.snap.Views[id]
	if !ok {
		return reject(CodeViewNotFound, "%s", id)
	}

	if viewType, ok := c.payload.Str("type"); ok && viewType != "" {
		v.Type = viewType
	}
	if source, ok := c.payload.Str("source"); ok && source != "" {
		if _, live := c.snap.LiveCollection(source); !live {
			return reject(CodeCollectionNotFound, "%s", source)
		}
		v.Source = source
	}
	if config, ok := c.payload.Obj("config"); ok {
		mergeNullDeletes(v.Config, config)
	}
	return nil
}

// applyViewRemove handles view.remove {id}.
func applyViewRemove(c *applyCtx) *Error {
	id, ok := c.payload.Str("id")
	if !ok {
		return reject(CodeInvalidPayload, "id is required")
	}
	if _, ok := c.snap.Views[id]; !ok {
		return reject(CodeViewNotFound, "%s", id)
	}
	delete(c.snap.Views, id)
	return nil
}
