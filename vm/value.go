package vm

import (
	"fmt"
	"strconv"
)

// ValueKind discriminates the variants of the runtime value domain.
type ValueKind uint8

const (
	// A 64-bit IEEE-754 float. The only numeric type in Reaper.
	NUMBER ValueKind = iota

	// A two-state boolean.
	BOOL

	// An owned immutable byte sequence, UTF-8 assumed.
	STRING

	// The unit value.
	NULL

	// An internal return-address tag carrying a nonnegative instruction
	// index. Never produced by user code and never observable via print.
	BYTECODE_PTR
)

func (kind ValueKind) String() string {
	switch kind {
	case NUMBER:
		return "number"
	case BOOL:
		return "bool"
	case STRING:
		return "string"
	case NULL:
		return "null"
	case BYTECODE_PTR:
		return "bytecode-ptr"
	}
	return "unknown"
}

// Value is a tagged runtime value. Only the field matching the kind is
// meaningful; the rest stay at their zero value.
type Value struct {
	kind    ValueKind
	number  float64
	boolean bool
	text    string
	ptr     int
}

// NumberValue wraps a float in a Value.
func NumberValue(n float64) Value {
	return Value{kind: NUMBER, number: n}
}

// BoolValue wraps a boolean in a Value.
func BoolValue(b bool) Value {
	return Value{kind: BOOL, boolean: b}
}

// StringValue wraps a string in a Value.
func StringValue(s string) Value {
	return Value{kind: STRING, text: s}
}

// NullValue returns the unit value.
func NullValue() Value {
	return Value{kind: NULL}
}

// BytecodePtrValue wraps an instruction index in a return-address Value.
func BytecodePtrValue(ip int) Value {
	return Value{kind: BYTECODE_PTR, ptr: ip}
}

// Kind returns the variant tag of the value.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Number returns the float held by a NUMBER value.
func (v Value) Number() float64 {
	return v.number
}

// Bool returns the boolean held by a BOOL value.
func (v Value) Bool() bool {
	return v.boolean
}

// Text returns the string held by a STRING value.
func (v Value) Text() string {
	return v.text
}

// Ptr returns the instruction index held by a BYTECODE_PTR value.
func (v Value) Ptr() int {
	return v.ptr
}

// equals reports structural equality. The caller guarantees both values
// are of the same kind.
func (v Value) equals(other Value) bool {
	switch v.kind {
	case NUMBER:
		return v.number == other.number
	case BOOL:
		return v.boolean == other.boolean
	case STRING:
		return v.text == other.text
	case NULL:
		return true
	case BYTECODE_PTR:
		return v.ptr == other.ptr
	}
	return false
}

// String returns the display form of the value, as written by OP_PRINT:
// numbers in their shortest float form, booleans as true/false, null as
// null and strings verbatim with no quoting.
func (v Value) String() string {
	switch v.kind {
	case NUMBER:
		return strconv.FormatFloat(v.number, 'g', -1, 64)
	case BOOL:
		return strconv.FormatBool(v.boolean)
	case STRING:
		return v.text
	case NULL:
		return "null"
	case BYTECODE_PTR:
		// only ever visible in the execution trace
		return fmt.Sprintf("ptr(%d)", v.ptr)
	}
	return "unknown"
}
