package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeTable(t *testing.T) {
	t.Parallel()

	type Case struct {
		ptr  interface{}
		typ  Type
		size int
		tag  string
	}
	cases := []Case{
		{new(bool), TypeBool, 1, "b"},
		{new(uint8), TypeUint8, 1, "u8"},
		{new(uint16), TypeUint16, 2, "u16"},
		{new(uint32), TypeUint32, 4, "u32"},
		{new(uint64), TypeUint64, 8, "u64"},
		{new(int8), TypeInt8, 1, "i8"},
		{new(int16), TypeInt16, 2, "i16"},
		{new(int32), TypeInt32, 4, "i32"},
		{new(int64), TypeInt64, 8, "i64"},
		{new(float32), TypeFloat, 4, "f"},
		{new(float64), TypeDouble, 8, "d"},
	}
	assert.Equal(t, int(typeCount), len(cases))
	for i, c := range cases {
		typ, ok := TypeOf(c.ptr)
		assert.True(t, ok, c.tag)
		assert.Equal(t, c.typ, typ)
		assert.Equal(t, Type(i), typ, "wire index")
		assert.Equal(t, c.size, typ.Size())
		assert.Equal(t, c.tag, typ.Tag())
		assert.Equal(t, c.tag, typ.String())
		parsed, ok := ParseTag(c.tag)
		assert.True(t, ok)
		assert.Equal(t, c.typ, parsed)
	}
}

func TestTypeOfUnsupported(t *testing.T) {
	t.Parallel()
	for _, x := range []interface{}{nil, 1, new(int), new(string), (*uint8)(nil), []byte{1}, new(complex64)} {
		_, ok := TypeOf(x)
		assert.False(t, ok, "%#v", x)
	}
	_, ok := ParseTag("u128")
	assert.False(t, ok)
	assert.False(t, typeCount.Valid())
	assert.Equal(t, 0, typeCount.Size())
	assert.Equal(t, "Type(11)", typeCount.String())
}
