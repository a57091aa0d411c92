package datamodel

import (
	"bytes"
	"fmt"
)

// BitStream is a growable, bit-addressable buffer with a read/write position.
// Bits are stored most significant bit first within each byte.
type BitStream struct {
	buf    []byte
	length int64 // in bits
	pos    int64 // in bits
}

// NewBitStream returns an empty stream.
func NewBitStream() *BitStream {
	return &BitStream{}
}

// NewBitStreamFromBytes returns a stream holding a copy of b, positioned at zero.
func NewBitStreamFromBytes(b []byte) *BitStream {
	buf := make([]byte, len(b))
	copy(buf, b)
	return &BitStream{buf: buf, length: int64(len(b)) * 8}
}

// LengthBits returns the number of bits written.
func (s *BitStream) LengthBits() int64 { return s.length }

// LengthBytes returns the length rounded up to whole bytes.
func (s *BitStream) LengthBytes() int64 { return (s.length + 7) / 8 }

// PositionBits returns the current read/write position.
func (s *BitStream) PositionBits() int64 { return s.pos }

// Remaining returns the number of bits between the position and the end.
func (s *BitStream) Remaining() int64 { return s.length - s.pos }

// SeekBits moves the position to an absolute bit offset.
func (s *BitStream) SeekBits(offset int64) error {
	if offset < 0 || offset > s.length {
		return fmt.Errorf("seek to bit %d outside stream of %d bits: %w", offset, s.length, ErrShortStream)
	}
	s.pos = offset
	return nil
}

// Rewind moves the position back to the start.
func (s *BitStream) Rewind() { s.pos = 0 }

// WriteBit writes a single bit at the position, growing the stream as needed.
func (s *BitStream) WriteBit(bit uint8) {
	idx := s.pos / 8
	for int64(len(s.buf)) <= idx {
		s.buf = append(s.buf, 0)
	}
	mask := byte(0x80) >> uint(s.pos%8)
	if bit&1 == 1 {
		s.buf[idx] |= mask
	} else {
		s.buf[idx] &^= mask
	}
	s.pos++
	if s.pos > s.length {
		s.length = s.pos
	}
}

// WriteBits writes the low n bits of value, most significant first.
func (s *BitStream) WriteBits(value uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		s.WriteBit(uint8(value >> uint(i) & 1))
	}
}

// WriteBytes writes every bit of b.
func (s *BitStream) WriteBytes(b []byte) {
	if s.pos%8 == 0 && s.pos == s.length {
		s.buf = append(s.buf[:s.pos/8], b...)
		s.pos += int64(len(b)) * 8
		s.length = s.pos
		return
	}
	for _, c := range b {
		s.WriteBits(uint64(c), 8)
	}
}

// WriteStream appends every bit of other, independent of other's position.
func (s *BitStream) WriteStream(other *BitStream) {
	if other == nil {
		return
	}
	for i := int64(0); i < other.length; i++ {
		s.WriteBit(other.bitAt(i))
	}
}

// ReadBit reads one bit at the position.
func (s *BitStream) ReadBit() (uint8, error) {
	if s.pos >= s.length {
		return 0, ErrShortStream
	}
	bit := s.bitAt(s.pos)
	s.pos++
	return bit, nil
}

// ReadBits reads n bits (n <= 64) as an unsigned big-endian value.
func (s *BitStream) ReadBits(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, fmt.Errorf("cannot read %d bits into a 64-bit value", n)
	}
	if s.Remaining() < int64(n) {
		return 0, fmt.Errorf("need %d bits, have %d: %w", n, s.Remaining(), ErrShortStream)
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<1 | uint64(s.bitAt(s.pos))
		s.pos++
	}
	return v, nil
}

// ReadBytes reads n whole bytes starting at the (possibly unaligned) position.
func (s *BitStream) ReadBytes(n int) ([]byte, error) {
	if s.Remaining() < int64(n)*8 {
		return nil, fmt.Errorf("need %d bytes, have %d bits: %w", n, s.Remaining(), ErrShortStream)
	}
	out := make([]byte, n)
	if s.pos%8 == 0 {
		copy(out, s.buf[s.pos/8:s.pos/8+int64(n)])
		s.pos += int64(n) * 8
		return out, nil
	}
	for i := range out {
		v, _ := s.ReadBits(8)
		out[i] = byte(v)
	}
	return out, nil
}

// Bytes returns a copy of the whole stream. A trailing partial byte is zero filled.
func (s *BitStream) Bytes() []byte {
	n := s.LengthBytes()
	out := make([]byte, n)
	copy(out, s.buf[:n])
	if rem := s.length % 8; rem != 0 {
		out[n-1] &= byte(0xFF) << uint(8-rem)
	}
	return out
}

// Clone returns an independent copy, positioned at zero.
func (s *BitStream) Clone() *BitStream {
	if s == nil {
		return nil
	}
	buf := make([]byte, len(s.buf))
	copy(buf, s.buf)
	return &BitStream{buf: buf, length: s.length}
}

// Equal reports whether both streams hold the same bits.
func (s *BitStream) Equal(other *BitStream) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.length == other.length && bytes.Equal(s.Bytes(), other.Bytes())
}

func (s *BitStream) String() string {
	return fmt.Sprintf("BitStream(%d bits: %x)", s.length, s.Bytes())
}

func (s *BitStream) bitAt(i int64) uint8 {
	return s.buf[i/8] >> uint(7-i%8) & 1
}
