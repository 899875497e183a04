package insight

import "fmt"

// Type is the closed set of value kinds a slot may reference.
// Numeric values are wire indexes, do not reorder.
type Type uint8

const (
	TypeBool Type = iota
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeFloat
	TypeDouble

	typeCount
)

type typeSpec struct {
	size int
	tag  string
}

var typeTable = [typeCount]typeSpec{
	TypeBool:   {1, "b"},
	TypeUint8:  {1, "u8"},
	TypeUint16: {2, "u16"},
	TypeUint32: {4, "u32"},
	TypeUint64: {8, "u64"},
	TypeInt8:   {1, "i8"},
	TypeInt16:  {2, "i16"},
	TypeInt32:  {4, "i32"},
	TypeInt64:  {8, "i64"},
	TypeFloat:  {4, "f"},
	TypeDouble: {8, "d"},
}

func (t Type) Valid() bool { return t < typeCount }

// Size is the number of payload bytes one value occupies in a data frame.
func (t Type) Size() int {
	if !t.Valid() {
		return 0
	}
	return typeTable[t].size
}

// Tag is the header string announcing this type to the host.
func (t Type) Tag() string {
	if !t.Valid() {
		return ""
	}
	return typeTable[t].tag
}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
	return typeTable[t].tag
}

// TypeOf maps a pointer to one of the supported primitives.
func TypeOf(ptr interface{}) (Type, bool) {
	switch p := ptr.(type) {
	case *bool:
		return TypeBool, p != nil
	case *uint8:
		return TypeUint8, p != nil
	case *uint16:
		return TypeUint16, p != nil
	case *uint32:
		return TypeUint32, p != nil
	case *uint64:
		return TypeUint64, p != nil
	case *int8:
		return TypeInt8, p != nil
	case *int16:
		return TypeInt16, p != nil
	case *int32:
		return TypeInt32, p != nil
	case *int64:
		return TypeInt64, p != nil
	case *float32:
		return TypeFloat, p != nil
	case *float64:
		return TypeDouble, p != nil
	}
	return 0, false
}

func ParseTag(tag string) (Type, bool) {
	for t := Type(0); t < typeCount; t++ {
		if typeTable[t].tag == tag {
			return t, true
		}
	}
	return 0, false
}
