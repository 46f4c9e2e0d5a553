package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcancio/aide/internal/value"
)

func TestParseScalars(t *testing.T) {
	ft, err := Parse(value.String("string"))
	require.NoError(t, err)
	assert.Equal(t, KindString, ft.Kind)
	assert.False(t, ft.Nullable)

	ft, err = Parse(value.String("int?"))
	require.NoError(t, err)
	assert.Equal(t, KindInt, ft.Kind)
	assert.True(t, ft.Nullable)

	_, err = Parse(value.String("number"))
	assert.Error(t, err)
}

func TestParseEnum(t *testing.T) {
	ft, err := Parse(value.Object{"enum": value.Array{value.String("yes"), value.String("no")}})
	require.NoError(t, err)
	assert.Equal(t, KindEnum, ft.Kind)
	assert.Equal(t, []string{"yes", "no"}, ft.Options)
	assert.False(t, ft.Nullable)

	_, err = Parse(value.Object{"enum": value.Array{}})
	assert.Error(t, err)
}

func TestParseList(t *testing.T) {
	ft, err := Parse(value.Object{"list": value.String("string")})
	require.NoError(t, err)
	assert.Equal(t, KindList, ft.Kind)
	assert.Equal(t, KindString, ft.Elem)

	// Lists of lists are not a thing.
	_, err = Parse(value.Object{"list": value.String("list")})
	assert.Error(t, err)
}

func TestRawRoundTrip(t *testing.T) {
	for _, raw := range []value.Value{
		value.String("string"),
		value.String("float?"),
		value.Object{"enum": value.Array{value.String("a")}},
		value.Object{"list": value.String("int")},
	} {
		ft, err := Parse(raw)
		require.NoError(t, err)
		back, err := Parse(ft.Raw())
		require.NoError(t, err)
		assert.Equal(t, ft, back)
	}
}

func TestValidateNullability(t *testing.T) {
	required, _ := Parse(value.String("string"))
	optional, _ := Parse(value.String("string?"))

	assert.False(t, required.Validate(value.Null{}))
	assert.True(t, optional.Validate(value.Null{}))
}

func TestValidateIntAndBoolAreDistinct(t *testing.T) {
	intType, _ := Parse(value.String("int"))
	boolType, _ := Parse(value.String("bool"))

	assert.False(t, intType.Validate(value.Bool(true)))
	assert.False(t, boolType.Validate(value.Int(1)))
}

func TestValidateFloatAcceptsInt(t *testing.T) {
	floatType, _ := Parse(value.String("float"))
	assert.True(t, floatType.Validate(value.Int(3)))
	assert.True(t, floatType.Validate(value.Float(3.5)))

	intType, _ := Parse(value.String("int"))
	assert.False(t, intType.Validate(value.Float(3.5)))
}

func TestValidateDates(t *testing.T) {
	dateType, _ := Parse(value.String("date"))
	assert.True(t, dateType.Validate(value.String("2026-03-05")))
	assert.False(t, dateType.Validate(value.String("03/05/2026")))
	assert.False(t, dateType.Validate(value.String("2026-3-5")))

	dtType, _ := Parse(value.String("datetime"))
	assert.True(t, dtType.Validate(value.String("2026-03-05T14:30:00Z")))
	assert.True(t, dtType.Validate(value.String("2026-03-05T14:30:00")))
	assert.True(t, dtType.Validate(value.String("2026-03-05T14:30")))
	assert.False(t, dtType.Validate(value.String("2026-03-05")))
}

func TestValidateEnumMembership(t *testing.T) {
	ft, _ := Parse(value.Object{"enum": value.Array{value.String("todo"), value.String("done")}})
	assert.True(t, ft.Validate(value.String("todo")))
	assert.False(t, ft.Validate(value.String("doing")))
	assert.False(t, ft.Validate(value.Null{}))
}

func TestValidateListElementwise(t *testing.T) {
	ft, _ := Parse(value.Object{"list": value.String("int")})
	assert.True(t, ft.Validate(value.Array{value.Int(1), value.Int(2)}))
	assert.False(t, ft.Validate(value.Array{value.Int(1), value.String("x")}))
	assert.True(t, ft.Validate(value.Array{}))
}
