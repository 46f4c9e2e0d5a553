package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/zcancio/aide/internal/value"
)

// Fields is a collection schema: an ordered map of field name to type.
// Declaration order is preserved because it drives rendering defaults
// (a view with no show_fields displays fields in schema order).
type Fields struct {
	order []string
	types map[string]FieldType
}

// NewFields returns an empty schema.
func NewFields() *Fields {
	return &Fields{types: make(map[string]FieldType)}
}

// ParseFields interprets a raw schema object. Field order follows the
// source document when decoded via UnmarshalJSON; when built from an
// in-memory object, keys are taken in sorted order for determinism.
func ParseFields(raw value.Object) (*Fields, error) {
	fs := NewFields()
	for _, name := range raw.SortedKeys() {
		t, err := Parse(raw[name])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fs.Set(name, t)
	}
	return fs, nil
}

// Len returns the number of fields.
func (fs *Fields) Len() int {
	return len(fs.order)
}

// Names returns field names in declaration order.
func (fs *Fields) Names() []string {
	return append([]string(nil), fs.order...)
}

// Get returns the type for a field.
func (fs *Fields) Get(name string) (FieldType, bool) {
	t, ok := fs.types[name]
	return t, ok
}

// Has reports whether the field exists.
func (fs *Fields) Has(name string) bool {
	_, ok := fs.types[name]
	return ok
}

// Set adds or replaces a field. New fields append to the order.
func (fs *Fields) Set(name string, t FieldType) {
	if _, ok := fs.types[name]; !ok {
		fs.order = append(fs.order, name)
	}
	fs.types[name] = t
}

// Delete removes a field, preserving the relative order of the rest.
func (fs *Fields) Delete(name string) {
	if _, ok := fs.types[name]; !ok {
		return
	}
	delete(fs.types, name)
	for i, n := range fs.order {
		if n == name {
			fs.order = append(fs.order[:i], fs.order[i+1:]...)
			break
		}
	}
}

// Rename changes a field's name in place, keeping its position.
func (fs *Fields) Rename(oldName, newName string) error {
	t, ok := fs.types[oldName]
	if !ok {
		return fmt.Errorf("field %q not found", oldName)
	}
	if _, exists := fs.types[newName]; exists {
		return fmt.Errorf("field %q already exists", newName)
	}
	delete(fs.types, oldName)
	fs.types[newName] = t
	for i, n := range fs.order {
		if n == oldName {
			fs.order[i] = newName
			break
		}
	}
	return nil
}

// Clone deep-copies the schema.
func (fs *Fields) Clone() *Fields {
	out := &Fields{
		order: append([]string(nil), fs.order...),
		types: make(map[string]FieldType, len(fs.types)),
	}
	for k, t := range fs.types {
		out.types[k] = t.Clone()
	}
	return out
}

// MarshalJSON serializes the schema as an object in declaration order.
func (fs *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range fs.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := value.Marshal(fs.types[name].Raw())
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a schema object, preserving source key order
// via the token stream (Go maps would lose it).
func (fs *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("schema must be a JSON object")
	}

	out := NewFields()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		v, err := value.Decode(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		t, err := Parse(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		out.Set(name, t)
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}

	*fs = *out
	return nil
}
