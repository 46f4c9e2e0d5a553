package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zcancio/aide/internal/value"
)

// Compatibility classifies a field type change.
type Compatibility int

const (
	// Incompatible changes are rejected outright.
	Incompatible Compatibility = iota
	// Compatible changes need no per-value inspection.
	Compatible
	// NeedsValueCheck changes are allowed only if every existing
	// non-null value converts cleanly.
	NeedsValueCheck
	// LossyNumeric changes (float to int) are allowed with a warning.
	LossyNumeric
)

// Compatibility returns the classification for converting old to new.
//
// The matrix is fixed:
//   - identical base types are always compatible (enum option changes
//     and nullability tightening still revalidate values);
//   - anything involving list on either side is incompatible;
//   - string converts to int/float/bool/date/datetime/enum with a
//     per-value check, and every scalar or enum converts to string;
//   - int widens to float freely; float narrows to int with a loss
//     warning;
//   - all other pairs (bool/int, date/datetime, ...) are incompatible.
func (t FieldType) Compatibility(newType FieldType) Compatibility {
	oldKind, newKind := t.Kind, newType.Kind

	if oldKind == KindList || newKind == KindList {
		if oldKind == KindList && newKind == KindList {
			// Same-element list declarations are the same type.
			if t.Elem == newType.Elem {
				return Compatible
			}
		}
		return Incompatible
	}

	if oldKind == newKind {
		// Enum option narrowing and nullable-to-required both need
		// existing values rechecked.
		if newKind == KindEnum || (t.Nullable && !newType.Nullable) {
			return NeedsValueCheck
		}
		return Compatible
	}

	switch {
	case oldKind == KindString:
		return NeedsValueCheck
	case newKind == KindString:
		return Compatible
	case oldKind == KindInt && newKind == KindFloat:
		return Compatible
	case oldKind == KindFloat && newKind == KindInt:
		return LossyNumeric
	case oldKind == KindEnum && newKind == KindString:
		return Compatible
	default:
		return Incompatible
	}
}

// Convert transforms a value from the receiver type to newType.
// Returns an error when the value cannot represent the new type; the
// caller rejects the whole field.update before mutating anything.
func (t FieldType) Convert(v value.Value, newType FieldType) (value.Value, error) {
	if value.IsNull(v) {
		if !newType.Nullable {
			return nil, fmt.Errorf("null value not allowed for %s", newType)
		}
		return value.Null{}, nil
	}

	switch newType.Kind {
	case KindString:
		return toString(v), nil

	case KindInt:
		switch val := v.(type) {
		case value.Int:
			return val, nil
		case value.Float:
			return value.Int(int64(val)), nil
		case value.String:
			n, err := strconv.ParseInt(strings.TrimSpace(string(val)), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not an int", val)
			}
			return value.Int(n), nil
		}

	case KindFloat:
		switch val := v.(type) {
		case value.Float:
			return val, nil
		case value.Int:
			return val, nil // float fields accept ints
		case value.String:
			f, err := strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a float", val)
			}
			return value.Float(f), nil
		}

	case KindBool:
		switch val := v.(type) {
		case value.Bool:
			return val, nil
		case value.String:
			switch strings.ToLower(strings.TrimSpace(string(val))) {
			case "true", "yes":
				return value.Bool(true), nil
			case "false", "no":
				return value.Bool(false), nil
			}
			return nil, fmt.Errorf("%q is not a bool", val)
		}

	case KindDate:
		if s, ok := v.(value.String); ok {
			if _, err := ParseDate(string(s)); err != nil {
				return nil, fmt.Errorf("%q is not a date", s)
			}
			return s, nil
		}

	case KindDatetime:
		if s, ok := v.(value.String); ok {
			if _, err := ParseDatetime(string(s)); err != nil {
				return nil, fmt.Errorf("%q is not a datetime", s)
			}
			return s, nil
		}

	case KindEnum:
		if s, ok := v.(value.String); ok {
			if !newType.Validate(s) {
				return nil, fmt.Errorf("%q is not one of the enum options", s)
			}
			return s, nil
		}
	}

	return nil, fmt.Errorf("cannot convert %T to %s", v, newType)
}

func toString(v value.Value) value.Value {
	switch val := v.(type) {
	case value.String:
		return val
	case value.Int:
		return value.String(strconv.FormatInt(int64(val), 10))
	case value.Float:
		return value.String(strconv.FormatFloat(float64(val), 'g', -1, 64))
	case value.Bool:
		return value.String(strconv.FormatBool(bool(val)))
	default:
		b, err := value.Marshal(v)
		if err != nil {
			return value.String(fmt.Sprintf("%v", v))
		}
		return value.String(b)
	}
}
