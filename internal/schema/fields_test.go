package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcancio/aide/internal/value"
)

func TestFieldsOrderPreserved(t *testing.T) {
	fs := NewFields()
	fs.Set("name", FieldType{Kind: KindString})
	fs.Set("age", FieldType{Kind: KindInt})
	fs.Set("active", FieldType{Kind: KindBool})

	assert.Equal(t, []string{"name", "age", "active"}, fs.Names())

	// Replacing a type keeps the position.
	fs.Set("age", FieldType{Kind: KindFloat})
	assert.Equal(t, []string{"name", "age", "active"}, fs.Names())
}

func TestFieldsDeleteKeepsRelativeOrder(t *testing.T) {
	fs := NewFields()
	fs.Set("a", FieldType{Kind: KindString})
	fs.Set("b", FieldType{Kind: KindString})
	fs.Set("c", FieldType{Kind: KindString})

	fs.Delete("b")
	assert.Equal(t, []string{"a", "c"}, fs.Names())
	assert.False(t, fs.Has("b"))
}

func TestFieldsRenameKeepsPosition(t *testing.T) {
	fs := NewFields()
	fs.Set("first", FieldType{Kind: KindString})
	fs.Set("second", FieldType{Kind: KindInt})
	fs.Set("third", FieldType{Kind: KindBool})

	require.NoError(t, fs.Rename("second", "middle"))
	assert.Equal(t, []string{"first", "middle", "third"}, fs.Names())

	ft, ok := fs.Get("middle")
	require.True(t, ok)
	assert.Equal(t, KindInt, ft.Kind)

	assert.Error(t, fs.Rename("missing", "x"))
	assert.Error(t, fs.Rename("first", "third"))
}

func TestFieldsJSONRoundTripPreservesOrder(t *testing.T) {
	src := `{"zulu":"string","alpha":"int?","mike":{"enum":["a","b"]},"kilo":{"list":"string"}}`

	var fs Fields
	require.NoError(t, json.Unmarshal([]byte(src), &fs))
	assert.Equal(t, []string{"zulu", "alpha", "mike", "kilo"}, fs.Names())

	out, err := json.Marshal(&fs)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestFieldsCloneIndependent(t *testing.T) {
	fs := NewFields()
	fs.Set("a", FieldType{Kind: KindEnum, Options: []string{"x"}})

	cloned := fs.Clone()
	cloned.Set("b", FieldType{Kind: KindInt})
	require.NoError(t, cloned.Rename("a", "z"))

	assert.Equal(t, []string{"a"}, fs.Names())
	assert.Equal(t, []string{"z", "b"}, cloned.Names())
}

func TestParseFieldsSortedKeys(t *testing.T) {
	fs, err := ParseFields(value.Object{
		"b": value.String("string"),
		"a": value.String("int"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, fs.Names())

	_, err = ParseFields(value.Object{"bad": value.String("nope")})
	assert.Error(t, err)
}
