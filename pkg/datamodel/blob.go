package datamodel

import (
	"fmt"

	"github.com/spf13/cast"
)

// Blob is a run of raw bytes. A positive Length fixes the size in bytes; shorter data is
// zero padded and longer data truncated.
type Blob struct {
	node
	Length int

	data []byte
}

// NewBlob creates a blob holding a copy of data.
func NewBlob(name string, data []byte) *Blob {
	b := &Blob{data: append([]byte(nil), data...)}
	b.init(b, name)
	return b
}

// DefaultValue returns a copy of the blob bytes.
func (b *Blob) DefaultValue() any {
	return append([]byte(nil), b.data...)
}

// SetDefaultValue replaces the blob bytes.
func (b *Blob) SetDefaultValue(v any) error {
	data, err := toBytes(v)
	if err != nil {
		return fmt.Errorf("%w: blob %q: %v", ErrInvalidValue, b.FullName(), err)
	}
	b.data = data
	b.Invalidate()
	return nil
}

func (b *Blob) generate() *BitStream {
	return NewBitStreamFromBytes(fixLength(b.data, b.Length))
}

func (b *Blob) placeholder() *BitStream { return b.generate() }

// String is text encoded as bytes, with the same Length semantics as Blob.
type String struct {
	node
	Length int

	value string
}

// NewString creates a string element.
func NewString(name, value string) *String {
	s := &String{value: value}
	s.init(s, name)
	return s
}

// DefaultValue returns the string value.
func (s *String) DefaultValue() any { return s.value }

// SetDefaultValue replaces the string value.
func (s *String) SetDefaultValue(v any) error {
	var str string
	switch val := v.(type) {
	case []byte:
		str = string(val)
	case *BitStream:
		str = string(val.Bytes())
	default:
		var err error
		if str, err = cast.ToStringE(v); err != nil {
			return fmt.Errorf("%w: string %q: %v", ErrInvalidValue, s.FullName(), err)
		}
	}
	s.value = str
	s.Invalidate()
	return nil
}

func (s *String) generate() *BitStream {
	return NewBitStreamFromBytes(fixLength([]byte(s.value), s.Length))
}

func (s *String) placeholder() *BitStream { return s.generate() }

func toBytes(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return append([]byte(nil), val...), nil
	case *BitStream:
		return val.Bytes(), nil
	case string:
		return []byte(val), nil
	}
	str, err := cast.ToStringE(v)
	if err != nil {
		return nil, err
	}
	return []byte(str), nil
}

func fixLength(data []byte, length int) []byte {
	if length <= 0 || len(data) == length {
		return data
	}
	out := make([]byte, length)
	copy(out, data)
	return out
}
