// Package state defines the snapshot aggregate: the complete persisted
// state of one aide page at a point in time. Snapshots are created by
// Empty and thereafter produced only by the reducer; nothing outside
// the kernel mutates one in place.
package state

import (
	"sort"
	"strings"

	"github.com/zcancio/aide/internal/schema"
	"github.com/zcancio/aide/internal/value"
)

// RootBlockID is the block tree root. It always exists and is never
// removable.
const RootBlockID = "block_root"

// CurrentVersion is the snapshot schema version stamped by Empty.
const CurrentVersion = 1

// Reserved entity bookkeeping keys. They live inside the entity's
// field map but are not governed by the collection schema.
const (
	KeyRemoved    = "_removed"
	KeyCreatedSeq = "_created_seq"
	KeyUpdatedSeq = "_updated_seq"
	KeyRemovedSeq = "_removed_seq"
	KeyStyles     = "_styles"
)

// Relationship cardinalities. Registered per relationship type on
// first use; immutable thereafter.
const (
	CardinalityManyToOne  = "many_to_one"
	CardinalityOneToOne   = "one_to_one"
	CardinalityManyToMany = "many_to_many"
)

// Snapshot is the sole persistent aggregate.
type Snapshot struct {
	Version           int                         `json:"version"`
	Meta              value.Object                `json:"meta"`
	Collections       map[string]*Collection      `json:"collections"`
	Relationships     []Relationship              `json:"relationships"`
	RelationshipTypes map[string]RelationshipType `json:"relationship_types"`
	Constraints       []Constraint                `json:"constraints"`
	Blocks            map[string]*Block           `json:"blocks"`
	Views             map[string]*View            `json:"views"`
	Styles            value.Object                `json:"styles"`
	Annotations       []Annotation                `json:"annotations"`
}

// Collection holds a schema and its entities. Removed collections are
// tombstoned, never physically deleted.
type Collection struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Schema     *schema.Fields    `json:"schema"`
	Settings   value.Object      `json:"settings"`
	Entities   map[string]Entity `json:"entities"`
	Removed    bool              `json:"_removed"`
	CreatedSeq int64             `json:"_created_seq"`
}

// Entity is a field-name to value map per the owning collection's
// schema, plus the reserved bookkeeping keys. Entities are never
// physically deleted; removal sets _removed.
type Entity map[string]value.Value

// Relationship links two entity refs. Either endpoint may be empty
// (one-sided placeholder). Insertion order is recency for cardinality
// pruning.
type Relationship struct {
	From string       `json:"from"`
	To   string       `json:"to"`
	Type string       `json:"type"`
	Data value.Object `json:"data"`
	Seq  int64        `json:"_seq"`
}

// RelationshipType records the cardinality registered on first use of
// a relationship type name.
type RelationshipType struct {
	Cardinality string `json:"cardinality"`
}

// Constraint is a declarative rule evaluated after entity mutations.
type Constraint struct {
	ID         string      `json:"id"`
	Rule       string      `json:"rule"`
	Collection string      `json:"collection,omitempty"`
	Field      string      `json:"field,omitempty"`
	Value      value.Value `json:"value,omitempty"`
	Message    string      `json:"message,omitempty"`
	Strict     bool        `json:"strict"`
}

// Block is one node of the page layout tree. Unlike entities, blocks
// are hard-deleted on removal.
type Block struct {
	Type     string       `json:"type"`
	Children []string     `json:"children"`
	Props    value.Object `json:"props"`
}

// View projects a collection into a rendered table or list.
type View struct {
	ID     string       `json:"id"`
	Type   string       `json:"type"`
	Source string       `json:"source"`
	Config value.Object `json:"config"`
}

// Annotation is an append-only note with the sequence number and
// timestamp of the event that created it.
type Annotation struct {
	Note      string `json:"note"`
	Pinned    bool   `json:"pinned"`
	Seq       int64  `json:"_seq"`
	Timestamp string `json:"timestamp"`
}

// Empty returns a fresh snapshot containing only the root block.
func Empty() *Snapshot {
	return &Snapshot{
		Version:           CurrentVersion,
		Meta:              value.Object{},
		Collections:       map[string]*Collection{},
		Relationships:     []Relationship{},
		RelationshipTypes: map[string]RelationshipType{},
		Constraints:       []Constraint{},
		Blocks: map[string]*Block{
			RootBlockID: {Type: "root", Children: []string{}, Props: value.Object{}},
		},
		Views:       map[string]*View{},
		Styles:      value.Object{},
		Annotations: []Annotation{},
	}
}

// Ref builds an entity ref "{collection}/{entity_id}".
func Ref(collection, entityID string) string {
	return collection + "/" + entityID
}

// SplitRef splits an entity ref into collection and entity id.
func SplitRef(ref string) (collection, entityID string, ok bool) {
	i := strings.Index(ref, "/")
	if i <= 0 || i == len(ref)-1 {
		return "", "", false
	}
	return ref[:i], ref[i+1:], true
}

// LiveCollection returns a collection only if it exists and is not
// tombstoned.
func (s *Snapshot) LiveCollection(id string) (*Collection, bool) {
	col, ok := s.Collections[id]
	if !ok || col.Removed {
		return nil, false
	}
	return col, true
}

// ResolveRef resolves an entity ref to a live entity in a live
// collection.
func (s *Snapshot) ResolveRef(ref string) (*Collection, Entity, bool) {
	collID, entityID, ok := SplitRef(ref)
	if !ok {
		return nil, nil, false
	}
	col, ok := s.LiveCollection(collID)
	if !ok {
		return nil, nil, false
	}
	ent, ok := col.LiveEntity(entityID)
	if !ok {
		return nil, nil, false
	}
	return col, ent, true
}

// LiveEntity returns an entity only if present and not tombstoned.
func (c *Collection) LiveEntity(id string) (Entity, bool) {
	ent, ok := c.Entities[id]
	if !ok || ent.Removed() {
		return nil, false
	}
	return ent, true
}

// LiveEntityIDs returns the ids of live entities ordered by creation
// sequence (ties broken by id), the order views render by default.
func (c *Collection) LiveEntityIDs() []string {
	ids := make([]string, 0, len(c.Entities))
	for id, ent := range c.Entities {
		if !ent.Removed() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := c.Entities[ids[i]].CreatedSeq(), c.Entities[ids[j]].CreatedSeq()
		if a != b {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}

// LiveCount returns the number of live entities.
func (c *Collection) LiveCount() int {
	n := 0
	for _, ent := range c.Entities {
		if !ent.Removed() {
			n++
		}
	}
	return n
}

// Removed reports whether the entity is tombstoned.
func (e Entity) Removed() bool {
	b, _ := value.Object(e).Boolean(KeyRemoved)
	return b
}

// CreatedSeq returns the entity's creation sequence number.
func (e Entity) CreatedSeq() int64 {
	n, _ := value.Object(e).Int64(KeyCreatedSeq)
	return n
}

// Field returns a schema-governed field value.
func (e Entity) Field(name string) (value.Value, bool) {
	v, ok := e[name]
	return v, ok
}

// Styles returns the entity's style bag, which may be nil.
func (e Entity) Styles() value.Object {
	o, _ := value.Object(e).Obj(KeyStyles)
	return o
}

// MarshalJSON serializes the entity with sorted keys.
func (e Entity) MarshalJSON() ([]byte, error) {
	return value.Object(e).MarshalJSON()
}

// UnmarshalJSON decodes the entity map.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var o value.Object
	if err := o.UnmarshalJSON(data); err != nil {
		return err
	}
	*e = Entity(o)
	return nil
}

// Clone deep-copies the entity.
func (e Entity) Clone() Entity {
	return Entity(value.Object(e).Clone())
}
