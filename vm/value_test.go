package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueDisplayForms(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{name: "whole number", value: NumberValue(7), want: "7"},
		{name: "fractional number", value: NumberValue(3.14), want: "3.14"},
		{name: "negative number", value: NumberValue(-2), want: "-2"},
		{name: "true", value: BoolValue(true), want: "true"},
		{name: "false", value: BoolValue(false), want: "false"},
		{name: "null", value: NullValue(), want: "null"},
		{name: "string verbatim", value: StringValue(`no "quoting"`), want: `no "quoting"`},
		{name: "bytecode ptr", value: BytecodePtrValue(8), want: "ptr(8)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestValueKinds(t *testing.T) {
	assert.Equal(t, NUMBER, NumberValue(1).Kind())
	assert.Equal(t, BOOL, BoolValue(true).Kind())
	assert.Equal(t, STRING, StringValue("s").Kind())
	assert.Equal(t, NULL, NullValue().Kind())
	assert.Equal(t, BYTECODE_PTR, BytecodePtrValue(0).Kind())
}

func TestValueEquals(t *testing.T) {
	assert.True(t, NumberValue(1).equals(NumberValue(1)))
	assert.False(t, NumberValue(1).equals(NumberValue(2)))
	assert.True(t, StringValue("a").equals(StringValue("a")))
	assert.False(t, StringValue("a").equals(StringValue("b")))
	assert.True(t, BoolValue(true).equals(BoolValue(true)))
	assert.False(t, BoolValue(true).equals(BoolValue(false)))
	assert.True(t, NullValue().equals(NullValue()))
}
