package reduce

import (
	"fmt"

	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

// applyRelationshipSet handles relationship.set {from?, to?, type,
// cardinality?, data?}. Endpoints may be absent (one-sided
// placeholders) but when present must resolve to a live entity.
//
// Cardinality is first-write-wins per type name: the first set of a
// type registers it, and later calls use the stored value regardless
// of what the payload asserts.
func applyRelationshipSet(c *applyCtx) *Error {
	relType, ok := c.payload.Str("type")
	if !ok || relType == "" {
		return reject(CodeInvalidPayload, "type is required")
	}

	from, _ := c.payload.Str("from")
	to, _ := c.payload.Str("to")
	for _, ref := range []string{from, to} {
		if ref == "" {
			continue
		}
		if _, _, ok := c.snap.ResolveRef(ref); !ok {
			return reject(CodeEntityNotFound, "%s", ref)
		}
	}

	registered, known := c.snap.RelationshipTypes[relType]
	if !known {
		cardinality, _ := c.payload.Str("cardinality")
		if cardinality == "" {
			cardinality = state.CardinalityManyToMany
		}
		switch cardinality {
		case state.CardinalityManyToOne, state.CardinalityOneToOne, state.CardinalityManyToMany:
		default:
			return reject(CodeInvalidPayload, "invalid cardinality %q", cardinality)
		}
		registered = state.RelationshipType{Cardinality: cardinality}
		c.snap.RelationshipTypes[relType] = registered
	}

	switch registered.Cardinality {
	case state.CardinalityManyToOne:
		c.pruneRelationships(func(r state.Relationship) bool {
			return r.Type == relType && r.From == from
		})
	case state.CardinalityOneToOne:
		c.pruneRelationships(func(r state.Relationship) bool {
			return r.Type == relType && (r.From == from || r.To == to)
		})
	}

	data, _ := c.payload.Obj("data")
	if data == nil {
		data = value.Object{}
	}
	c.snap.Relationships = append(c.snap.Relationships, state.Relationship{
		From: from,
		To:   to,
		Type: relType,
		Data: data.Clone(),
		Seq:  c.seq,
	})
	return nil
}

func (c *applyCtx) pruneRelationships(drop func(state.Relationship) bool) {
	kept := c.snap.Relationships[:0]
	for _, rel := range c.snap.Relationships {
		if drop(rel) {
			continue
		}
		kept = append(kept, rel)
	}
	c.snap.Relationships = kept
}

// applyRelationshipConstrain appends a declarative constraint record.
// No validation beyond storage: constraints are evaluated lazily at
// entity mutation time, not at definition time.
func applyRelationshipConstrain(c *applyCtx) *Error {
	c.snap.Constraints = append(c.snap.Constraints, constraintFromPayload(c.payload, len(c.snap.Constraints)))
	return nil
}

func constraintFromPayload(payload value.Object, existing int) state.Constraint {
	cons := state.Constraint{}
	cons.ID, _ = payload.Str("id")
	if cons.ID == "" {
		cons.ID = fmt.Sprintf("constraint_%d", existing+1)
	}
	cons.Rule, _ = payload.Str("rule")
	cons.Collection, _ = payload.Str("collection")
	cons.Field, _ = payload.Str("field")
	cons.Message, _ = payload.Str("message")
	cons.Strict, _ = payload.Boolean("strict")
	if v, ok := payload["value"]; ok && !value.IsNull(v) {
		cons.Value = value.Clone(v)
	}
	return cons
}
