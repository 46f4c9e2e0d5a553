package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcancio/aide/internal/value"
)

const validBlueprint = `
title:       "Potluck"
description: "Who brings what."
collections: guests: {
	name: "Guest List"
	fields: {
		name: "string"
		rsvp: "string?"
	}
	settings: icon: "🥗"
}
layout: [
	{type: "heading", text: "Potluck"},
	{type: "collection_view", view: "guests_table"},
]
styles: accent: "#ff5500"
`

func TestCompileValidBlueprint(t *testing.T) {
	v, err := Compile(validBlueprint)
	require.NoError(t, err)

	obj, ok := v.(value.Object)
	require.True(t, ok)

	title, _ := obj.Str("title")
	assert.Equal(t, "Potluck", title)

	collections, ok := obj.Obj("collections")
	require.True(t, ok)
	guests, ok := collections.Obj("guests")
	require.True(t, ok)
	fields, _ := guests.Obj("fields")
	rsvp, _ := fields.Str("rsvp")
	assert.Equal(t, "string?", rsvp)

	layout, ok := obj.Arr("layout")
	require.True(t, ok)
	require.Len(t, layout, 2)
}

func TestCompileEmptyBlueprint(t *testing.T) {
	// Everything is optional.
	v, err := Compile("")
	require.NoError(t, err)
	obj, ok := v.(value.Object)
	require.True(t, ok)
	assert.Empty(t, obj)
}

func TestCompileSyntaxErrorHasPosition(t *testing.T) {
	_, err := Compile("title: \"unterminated")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blueprint")
	assert.Contains(t, err.Error(), ":1:")
}

func TestCompileRejectsWrongFieldTypes(t *testing.T) {
	_, err := Compile(`title: 42`)
	require.Error(t, err)

	_, err = Compile(`layout: [{text: "no type"}]`)
	require.Error(t, err)

	_, err = Compile(`styles: accent: 7`)
	require.Error(t, err)
}

func TestValidateDecodedJSON(t *testing.T) {
	v, err := FromJSON([]byte(`{"title":"Potluck","collections":{"guests":{"fields":{"name":"string"}}}}`))
	require.NoError(t, err)

	title, _ := v.(value.Object).Str("title")
	assert.Equal(t, "Potluck", title)

	err = Validate(value.Object{"title": value.Int(42)})
	assert.Error(t, err)
}

func TestFromJSONMalformed(t *testing.T) {
	_, err := FromJSON([]byte(`{"title":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blueprint json")
}
