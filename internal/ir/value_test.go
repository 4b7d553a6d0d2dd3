package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGo(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want IRValue
	}{
		{"nil", nil, IRNull{}},
		{"string", "acme", IRString("acme")},
		{"bool", true, IRBool(true)},
		{"int", 42, IRInt(42)},
		{"int32", int32(-7), IRInt(-7)},
		{"uint8", uint8(255), IRInt(255)},
		{"float", 9.5, IRFloat(9.5)},
		{"already IR", IRString("x"), IRString("x")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromGo(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFromGo_Rejects(t *testing.T) {
	_, err := FromGo(math.NaN())
	assert.Error(t, err)

	_, err = FromGo(math.Inf(1))
	assert.Error(t, err)

	_, err = FromGo(uint64(math.MaxUint64))
	assert.Error(t, err)

	_, err = FromGo(struct{}{})
	assert.Error(t, err)
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, TypeNull, TypeName(IRNull{}))
	assert.Equal(t, TypeNull, TypeName(nil))
	assert.Equal(t, TypeString, TypeName(IRString("a")))
	assert.Equal(t, TypeInt, TypeName(IRInt(1)))
	assert.Equal(t, TypeFloat, TypeName(IRFloat(1.5)))
	assert.Equal(t, TypeBool, TypeName(IRBool(false)))
}

func TestToGoRoundTrip(t *testing.T) {
	for _, v := range []any{"x", int64(3), 2.5, true} {
		iv, err := FromGo(v)
		require.NoError(t, err)
		assert.Equal(t, v, ToGo(iv))
	}
	assert.Nil(t, ToGo(IRNull{}))
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(IRNull{}))
	assert.True(t, IsNull(nil))
	assert.False(t, IsNull(IRString("")))
	assert.False(t, IsNull(IRInt(0)))
}
