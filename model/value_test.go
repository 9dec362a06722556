package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Constructors(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		typ  DataType
		str  string
	}{
		{"null", Null(), TypeNull, "NULL"},
		{"int", Int(-7), TypeInt, "-7"},
		{"long", Long(1 << 40), TypeLong, "1099511627776"},
		{"float", Float(1.5), TypeFloat, "1.5"},
		{"double", Double(-2.25), TypeDouble, "-2.25"},
		{"string", String("opossum"), TypeString, "opossum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.v.Type())
			assert.Equal(t, tt.str, tt.v.String())
			assert.Equal(t, tt.typ == TypeNull, tt.v.IsNull())
		})
	}
}

func TestValue_As(t *testing.T) {
	i, ok := As[int32](Int(-3))
	require.True(t, ok)
	assert.Equal(t, int32(-3), i)

	s, ok := As[string](String("x"))
	require.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = As[int64](Int(1))
	assert.False(t, ok)

	_, ok = As[string](Null())
	assert.False(t, ok)

	assert.Equal(t, Double(3.5), ValueOf(3.5))
	assert.Equal(t, TypeFloat, TypeOf[float32]())
}

func TestValue_Compare(t *testing.T) {
	assert.Equal(t, -1, Int(1).Compare(Int(2)))
	assert.Equal(t, 0, String("E").Compare(String("E")))
	assert.Equal(t, 1, String("F").Compare(String("E")))
	assert.Equal(t, -1, Null().Compare(Int(0)))
	assert.Equal(t, 1, Double(0.5).Compare(Double(-0.5)))
}

func TestValue_AppendKey(t *testing.T) {
	a := String("ab").AppendKey(String("c").AppendKey(nil))
	b := String("a").AppendKey(String("bc").AppendKey(nil))
	assert.NotEqual(t, a, b, "keys must be self-delimiting")

	assert.Equal(t, Int(5).AppendKey(nil), Int(5).AppendKey(nil))
	assert.NotEqual(t, Int(5).AppendKey(nil), Long(5).AppendKey(nil))
}

func TestValue_FloatEquality(t *testing.T) {
	negZero := math.Copysign(0, -1)
	nan := math.NaN()
	otherNaN := math.Float64frombits(math.Float64bits(nan) | 1)

	tests := []struct {
		name string
		a, b Value
	}{
		{"DoubleZero", Double(negZero), Double(0)},
		{"FloatZero", Float(float32(negZero)), Float(0)},
		{"DoubleNaN", Double(nan), Double(otherNaN)},
		{"FloatNaN", Float(float32(nan)), Float(float32(otherNaN))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 0, tt.a.Compare(tt.b))
			assert.True(t, tt.a.Equal(tt.b))
			assert.Equal(t, tt.a.AppendKey(nil), tt.b.AppendKey(nil))
		})
	}

	assert.False(t, Double(0).Equal(Double(1)))
	assert.False(t, Double(0).Equal(Float(0)))
	assert.NotEqual(t, Double(0).AppendKey(nil), Double(nan).AppendKey(nil))
}

func TestCheckType(t *testing.T) {
	def := ColumnDefinition{Name: "a", Type: TypeInt}
	assert.NoError(t, CheckType(def, Int(1)))
	assert.ErrorIs(t, CheckType(def, Long(1)), ErrSchemaMismatch)
	assert.ErrorIs(t, CheckType(def, Null()), ErrSchemaMismatch)

	def.Nullable = true
	assert.NoError(t, CheckType(def, Null()))
}

func TestColumnDefinition_Validate(t *testing.T) {
	assert.NoError(t, ColumnDefinition{Name: "a", Type: TypeString}.Validate())
	assert.ErrorIs(t, ColumnDefinition{Name: "", Type: TypeString}.Validate(), ErrSchemaMismatch)
	assert.ErrorIs(t, ColumnDefinition{Name: "a", Type: TypeNull}.Validate(), ErrSchemaMismatch)
}

func TestParseDataType(t *testing.T) {
	for d := TypeInt; d <= TypeString; d++ {
		got, err := ParseDataType(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := ParseDataType("decimal")
	assert.Error(t, err)
}
