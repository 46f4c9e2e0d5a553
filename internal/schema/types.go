// Package schema implements the field type system for collections:
// parsing the type grammar, validating values against types, and the
// conversion rules field.update relies on.
//
// A field type is either a scalar tag ("string", "int", "float",
// "bool", "date", "datetime", optionally suffixed "?" for nullable) or
// a structured type: {"enum": [...]} or {"list": "<scalar>"}.
// Structured types are never nullable.
package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/zcancio/aide/internal/value"
)

// Kind identifies a base type.
type Kind string

const (
	KindString   Kind = "string"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindBool     Kind = "bool"
	KindDate     Kind = "date"
	KindDatetime Kind = "datetime"
	KindEnum     Kind = "enum"
	KindList     Kind = "list"
)

var scalarKinds = map[Kind]bool{
	KindString:   true,
	KindInt:      true,
	KindFloat:    true,
	KindBool:     true,
	KindDate:     true,
	KindDatetime: true,
}

// FieldType is a parsed field type.
type FieldType struct {
	Kind     Kind
	Nullable bool     // scalars only; enum and list are never nullable
	Options  []string // enum members, in declaration order
	Elem     Kind     // list element kind (scalar)
}

// Parse interprets a raw type declaration. It returns an error for
// anything IsValid would reject.
func Parse(raw value.Value) (FieldType, error) {
	switch t := raw.(type) {
	case value.String:
		s := string(t)
		nullable := strings.HasSuffix(s, "?")
		base := Kind(strings.TrimSuffix(s, "?"))
		if !scalarKinds[base] {
			return FieldType{}, fmt.Errorf("unknown scalar type %q", s)
		}
		return FieldType{Kind: base, Nullable: nullable}, nil

	case value.Object:
		if opts, ok := t.Arr("enum"); ok {
			if len(t) != 1 {
				return FieldType{}, fmt.Errorf("enum type must have exactly one key")
			}
			if len(opts) == 0 {
				return FieldType{}, fmt.Errorf("enum type requires at least one option")
			}
			members := make([]string, len(opts))
			for i, o := range opts {
				s, ok := o.(value.String)
				if !ok {
					return FieldType{}, fmt.Errorf("enum option %d is not a string", i)
				}
				members[i] = string(s)
			}
			return FieldType{Kind: KindEnum, Options: members}, nil
		}
		if elem, ok := t.Str("list"); ok {
			if len(t) != 1 {
				return FieldType{}, fmt.Errorf("list type must have exactly one key")
			}
			ek := Kind(elem)
			if !scalarKinds[ek] {
				return FieldType{}, fmt.Errorf("list element type %q is not a scalar", elem)
			}
			return FieldType{Kind: KindList, Elem: ek}, nil
		}
		return FieldType{}, fmt.Errorf("structured type must be {enum: [...]} or {list: <scalar>}")

	default:
		return FieldType{}, fmt.Errorf("type must be a string or object, got %T", raw)
	}
}

// IsValid reports whether raw is a well-formed type declaration.
func IsValid(raw value.Value) bool {
	_, err := Parse(raw)
	return err == nil
}

// Raw returns the declaration form of the type, suitable for storing in
// a collection's serialized schema.
func (t FieldType) Raw() value.Value {
	switch t.Kind {
	case KindEnum:
		opts := make(value.Array, len(t.Options))
		for i, o := range t.Options {
			opts[i] = value.String(o)
		}
		return value.Object{"enum": opts}
	case KindList:
		return value.Object{"list": value.String(string(t.Elem))}
	default:
		s := string(t.Kind)
		if t.Nullable {
			s += "?"
		}
		return value.String(s)
	}
}

// Base returns the base type name: the scalar tag, "enum", or "list".
func (t FieldType) Base() string {
	return string(t.Kind)
}

// String renders the declaration form for error messages.
func (t FieldType) String() string {
	switch t.Kind {
	case KindEnum:
		return fmt.Sprintf("enum[%s]", strings.Join(t.Options, ","))
	case KindList:
		return fmt.Sprintf("list[%s]", t.Elem)
	default:
		if t.Nullable {
			return string(t.Kind) + "?"
		}
		return string(t.Kind)
	}
}

// Clone deep-copies the type.
func (t FieldType) Clone() FieldType {
	out := t
	if t.Options != nil {
		out.Options = append([]string(nil), t.Options...)
	}
	return out
}

// Validate reports whether v satisfies the type. Null is valid only
// for nullable scalar types. Int and Bool are distinct kinds; Float
// accepts both integer and floating values.
func (t FieldType) Validate(v value.Value) bool {
	if value.IsNull(v) {
		return t.Nullable
	}
	switch t.Kind {
	case KindEnum:
		s, ok := v.(value.String)
		if !ok {
			return false
		}
		for _, o := range t.Options {
			if o == string(s) {
				return true
			}
		}
		return false
	case KindList:
		arr, ok := v.(value.Array)
		if !ok {
			return false
		}
		elem := FieldType{Kind: t.Elem}
		for _, e := range arr {
			if !elem.Validate(e) {
				return false
			}
		}
		return true
	default:
		return validateScalar(v, t.Kind)
	}
}

func validateScalar(v value.Value, kind Kind) bool {
	switch kind {
	case KindString:
		_, ok := v.(value.String)
		return ok
	case KindInt:
		_, ok := v.(value.Int)
		return ok
	case KindFloat:
		switch v.(type) {
		case value.Int, value.Float:
			return true
		}
		return false
	case KindBool:
		_, ok := v.(value.Bool)
		return ok
	case KindDate:
		s, ok := v.(value.String)
		if !ok {
			return false
		}
		_, err := ParseDate(string(s))
		return err == nil
	case KindDatetime:
		s, ok := v.(value.String)
		if !ok {
			return false
		}
		_, err := ParseDatetime(string(s))
		return err == nil
	}
	return false
}

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// datetimeLayouts are tried in order. A trailing Z is accepted as a
// UTC offset; a bare local form without offset is also valid.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseDatetime parses an ISO-8601 datetime.
func ParseDatetime(s string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 datetime: %q", s)
}
