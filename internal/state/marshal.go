package state

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/zcancio/aide/internal/value"
)

// Marshal serializes a snapshot to JSON with deterministic key
// ordering: struct fields in declaration order, map keys sorted.
// Identical snapshots always produce identical bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal decodes a snapshot produced by Marshal (or the renderer's
// embedded data island).
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	normalize(&s)
	return &s, nil
}

// normalize restores the non-nil containers Empty guarantees, so a
// round-tripped snapshot compares equal to the original.
func normalize(s *Snapshot) {
	if s.Meta == nil {
		s.Meta = value.Object{}
	}
	if s.Collections == nil {
		s.Collections = map[string]*Collection{}
	}
	if s.Relationships == nil {
		s.Relationships = []Relationship{}
	}
	if s.RelationshipTypes == nil {
		s.RelationshipTypes = map[string]RelationshipType{}
	}
	if s.Constraints == nil {
		s.Constraints = []Constraint{}
	}
	if s.Blocks == nil {
		s.Blocks = map[string]*Block{}
	}
	if _, ok := s.Blocks[RootBlockID]; !ok {
		s.Blocks[RootBlockID] = &Block{Type: "root", Children: []string{}, Props: value.Object{}}
	}
	if s.Views == nil {
		s.Views = map[string]*View{}
	}
	if s.Styles == nil {
		s.Styles = value.Object{}
	}
	if s.Annotations == nil {
		s.Annotations = []Annotation{}
	}
	for _, col := range s.Collections {
		if col.Settings == nil {
			col.Settings = value.Object{}
		}
		if col.Entities == nil {
			col.Entities = map[string]Entity{}
		}
	}
	for _, b := range s.Blocks {
		if b.Children == nil {
			b.Children = []string{}
		}
		if b.Props == nil {
			b.Props = value.Object{}
		}
	}
}

// Equal reports value equality of two snapshots via their
// deterministic serialization.
func Equal(a, b *Snapshot) bool {
	ab, err := Marshal(a)
	if err != nil {
		return false
	}
	bb, err := Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// Clone deep-copies a snapshot. The reducer works on a private clone
// so a rejected reduction can hand the caller's snapshot back
// untouched.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Version:           s.Version,
		Meta:              s.Meta.Clone(),
		Collections:       make(map[string]*Collection, len(s.Collections)),
		Relationships:     make([]Relationship, len(s.Relationships)),
		RelationshipTypes: make(map[string]RelationshipType, len(s.RelationshipTypes)),
		Constraints:       make([]Constraint, len(s.Constraints)),
		Blocks:            make(map[string]*Block, len(s.Blocks)),
		Views:             make(map[string]*View, len(s.Views)),
		Styles:            s.Styles.Clone(),
		Annotations:       make([]Annotation, len(s.Annotations)),
	}
	copy(out.Annotations, s.Annotations)
	for id, col := range s.Collections {
		out.Collections[id] = col.Clone()
	}
	for i, rel := range s.Relationships {
		out.Relationships[i] = rel
		out.Relationships[i].Data = rel.Data.Clone()
	}
	for name, rt := range s.RelationshipTypes {
		out.RelationshipTypes[name] = rt
	}
	for i, c := range s.Constraints {
		out.Constraints[i] = c
		if c.Value != nil {
			out.Constraints[i].Value = value.Clone(c.Value)
		}
	}
	for id, b := range s.Blocks {
		out.Blocks[id] = &Block{
			Type:     b.Type,
			Children: append([]string(nil), b.Children...),
			Props:    b.Props.Clone(),
		}
		if b.Children == nil {
			out.Blocks[id].Children = []string{}
		}
	}
	for id, v := range s.Views {
		out.Views[id] = &View{ID: v.ID, Type: v.Type, Source: v.Source, Config: v.Config.Clone()}
	}
	return out
}

// Clone deep-copies a collection.
func (c *Collection) Clone() *Collection {
	out := &Collection{
		ID:         c.ID,
		Name:       c.Name,
		Schema:     c.Schema.Clone(),
		Settings:   c.Settings.Clone(),
		Entities:   make(map[string]Entity, len(c.Entities)),
		Removed:    c.Removed,
		CreatedSeq: c.CreatedSeq,
	}
	for id, ent := range c.Entities {
		out.Entities[id] = ent.Clone()
	}
	return out
}

// MarshalJSON serializes the constraint, omitting empty optional
// fields and using the value package's float-preserving encoding.
func (c Constraint) MarshalJSON() ([]byte, error) {
	obj := value.Object{
		"id":     value.String(c.ID),
		"rule":   value.String(c.Rule),
		"strict": value.Bool(c.Strict),
	}
	if c.Collection != "" {
		obj["collection"] = value.String(c.Collection)
	}
	if c.Field != "" {
		obj["field"] = value.String(c.Field)
	}
	if c.Value != nil && !value.IsNull(c.Value) {
		obj["value"] = c.Value
	}
	if c.Message != "" {
		obj["message"] = value.String(c.Message)
	}
	return obj.MarshalJSON()
}

// UnmarshalJSON decodes a constraint record.
func (c *Constraint) UnmarshalJSON(data []byte) error {
	var obj value.Object
	if err := obj.UnmarshalJSON(data); err != nil {
		return err
	}
	c.ID, _ = obj.Str("id")
	c.Rule, _ = obj.Str("rule")
	c.Collection, _ = obj.Str("collection")
	c.Field, _ = obj.Str("field")
	c.Message, _ = obj.Str("message")
	c.Strict, _ = obj.Boolean("strict")
	if v, ok := obj["value"]; ok {
		c.Value = v
	}
	return nil
}
