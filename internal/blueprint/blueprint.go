// Package blueprint compiles and validates blueprint documents, the
// structural intent (title, collections, layout) authored alongside an
// aide. Blueprints are opaque to the reducer and renderer; this package
// is the one place their shape is checked.
package blueprint

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/zcancio/aide/internal/value"
)

// schema constrains what a blueprint may contain. Everything is
// optional; a blueprint narrows intent, it never gates events.
const schema = `
#Blueprint: {
	title?:       string
	description?: string
	collections?: [string]: {
		name?:   string
		fields?: [string]: string
		settings?: {...}
	}
	layout?: [...{
		type: string
		...
	}]
	styles?: [string]: string
}
`

// Compile parses CUE source, validates it against the blueprint
// schema, and exports it as a plain value tree.
func Compile(src string) (value.Value, error) {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schema)
	if err := schemaVal.Err(); err != nil {
		return nil, fmt.Errorf("blueprint schema: %w", err)
	}

	doc := ctx.CompileString(src)
	if err := doc.Err(); err != nil {
		return nil, compileError(err)
	}

	unified := doc.Unify(schemaVal.LookupPath(cue.ParsePath("#Blueprint")))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, compileError(err)
	}

	return export(unified)
}

// FromJSON validates a JSON blueprint, the form embedded in rendered
// pages, against the same schema.
func FromJSON(data []byte) (value.Value, error) {
	v, err := value.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("blueprint json: %w", err)
	}
	if err := Validate(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate checks an already-decoded blueprint value against the
// schema.
func Validate(v value.Value) error {
	data, err := value.MarshalCanonical(v)
	if err != nil {
		return fmt.Errorf("blueprint: %w", err)
	}
	ctx := cuecontext.New()
	schemaVal := ctx.CompileString(schema)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("blueprint schema: %w", err)
	}
	doc := ctx.CompileString(string(data))
	if err := doc.Err(); err != nil {
		return compileError(err)
	}
	unified := doc.Unify(schemaVal.LookupPath(cue.ParsePath("#Blueprint")))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return compileError(err)
	}
	return nil
}

func export(v cue.Value) (value.Value, error) {
	var raw any
	if err := v.Decode(&raw); err != nil {
		return nil, compileError(err)
	}
	out, err := value.FromAny(raw)
	if err != nil {
		return nil, fmt.Errorf("blueprint: %w", err)
	}
	return out, nil
}

// compileError surfaces the first CUE error with its source position.
func compileError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		pos := positions[0]
		return fmt.Errorf("blueprint %s:%d:%d: %s", pos.Filename(), pos.Line(), pos.Column(), first.Error())
	}
	return fmt.Errorf("blueprint: %s", first.Error())
}
