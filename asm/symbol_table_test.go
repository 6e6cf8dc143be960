package asm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/jasm/classfile"
)

func TestSymbolTableOrder(t *testing.T) {
	st := newSymbolTable()

	assert.Equal(t, 2, st.addClass("a/B"), "class name goes first")
	assert.Equal(t, 1, st.addUtf8("a/B"))
	assert.Equal(t, 2, st.addClass("a/B"))

	ref := st.addMemberRef(classfile.ConstantMethodref, "a/B", "run", "()V")
	assert.Equal(t, 6, ref, "name, descriptor and name-and-type come before the ref")
	assert.Equal(t, 6, st.addMemberRef(classfile.ConstantMethodref, "a/B", "run", "()V"))
	assert.NotEqual(t, ref, st.addMemberRef(classfile.ConstantInterfaceMethodref, "a/B", "run", "()V"))

	long := st.addLong(5)
	assert.Equal(t, long+2, st.addInteger(5), "longs take two slots")
	assert.Equal(t, long, st.addLong(5))
	assert.NoError(t, st.err)
}

func TestSymbolTableConstants(t *testing.T) {
	st := newSymbolTable()
	for _, value := range []any{1, int32(1), int16(1), int8(1), Char(1), true} {
		idx, err := st.addConstant(value)
		require.NoError(t, err)
		assert.Equal(t, 1, idx, "%T shares the integer constant", value)
	}

	idx, err := st.addConstant(1 << 40)
	require.NoError(t, err)
	assert.True(t, isWide(1<<40))
	assert.False(t, isWide(7))
	assert.False(t, isWide(float32(1)))
	l, _ := st.addConstant(int64(1) << 40)
	assert.Equal(t, idx, l)

	_, err = st.addConstant([]int{1})
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestEncodeModifiedUtf8(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"abc", []byte("abc")},
		{"\x00", []byte{0xC0, 0x80}},
		{"¢", []byte{0xC2, 0xA2}},
		{"€", []byte{0xE2, 0x82, 0xAC}},
		{"\U0001F600", []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}},
	}
	for _, tt := range tests {
		got, err := encodeModifiedUtf8(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%q", tt.in)

		assert.Equal(t, tt.in, classfile.DecodeModifiedUtf8(got))
	}

	_, err := encodeModifiedUtf8(strings.Repeat("€", 0x6000))
	assert.ErrorIs(t, err, ErrStringTooLong)
}
