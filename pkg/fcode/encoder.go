package fcode

import (
	"io"
	"unicode/utf8"

	"github.com/tijsvd/fcode/internal/wire"
)

// Encoder emits fcode values to a byte sink. Methods append one value
// each; composite values are opened with a Begin method and then
// receive exactly the declared number of children.
//
// An Encoder is driven either directly or by the reflection walker in
// Marshal. It holds no state besides the sink, so a failed encode
// leaves the sink's buffered output undefined; callers discard it.
type Encoder struct {
	w       io.Writer
	scratch [wire.MaxVarintLen128]byte
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// writeVarint emits a tag byte plus varint payload.
func (e *Encoder) writeVarint(wt wire.WireType, v uint64) error {
	buf := wire.AppendVarint(e.scratch[:0], wt, v)
	if _, err := e.w.Write(buf); err != nil {
		return writeError(err)
	}
	return nil
}

// Bool encodes a boolean as Int 0 or 1.
func (e *Encoder) Bool(v bool) error {
	var u uint64
	if v {
		u = 1
	}
	return e.writeVarint(wire.WireInt, u)
}

// Uint64 encodes an unsigned integer as an Int varint.
func (e *Encoder) Uint64(v uint64) error {
	return e.writeVarint(wire.WireInt, v)
}

// Uint8 encodes an unsigned 8-bit integer.
func (e *Encoder) Uint8(v uint8) error { return e.Uint64(uint64(v)) }

// Uint16 encodes an unsigned 16-bit integer.
func (e *Encoder) Uint16(v uint16) error { return e.Uint64(uint64(v)) }

// Uint32 encodes an unsigned 32-bit integer.
func (e *Encoder) Uint32(v uint32) error { return e.Uint64(uint64(v)) }

// Uint128 encodes an unsigned 128-bit integer.
func (e *Encoder) Uint128(v Uint128) error {
	buf := wire.AppendVarint128(e.scratch[:0], wire.WireInt, v.Hi, v.Lo)
	if _, err := e.w.Write(buf); err != nil {
		return writeError(err)
	}
	return nil
}

// Int64 encodes a signed integer as a zig-zag Int varint.
func (e *Encoder) Int64(v int64) error {
	return e.Uint64(wire.ZigZagEncode(v))
}

// Int8 encodes a signed 8-bit integer.
func (e *Encoder) Int8(v int8) error { return e.Int64(int64(v)) }

// Int16 encodes a signed 16-bit integer.
func (e *Encoder) Int16(v int16) error { return e.Int64(int64(v)) }

// Int32 encodes a signed 32-bit integer.
func (e *Encoder) Int32(v int32) error { return e.Int64(int64(v)) }

// Int128 encodes a signed 128-bit integer.
func (e *Encoder) Int128(v Int128) error {
	hi, lo := wire.ZigZagEncode128(v.Hi, v.Lo)
	return e.Uint128(Uint128{Hi: hi, Lo: lo})
}

// Float32 encodes a float32 as Fixed32, exact IEEE-754 bits.
func (e *Encoder) Float32(v float32) error {
	buf := append(e.scratch[:0], byte(wire.WireFixed32))
	buf = wire.AppendFloat32(buf, v)
	if _, err := e.w.Write(buf); err != nil {
		return writeError(err)
	}
	return nil
}

// Float64 encodes a float64 as Fixed64, exact IEEE-754 bits.
func (e *Encoder) Float64(v float64) error {
	buf := append(e.scratch[:0], byte(wire.WireFixed64))
	buf = wire.AppendFloat64(buf, v)
	if _, err := e.w.Write(buf); err != nil {
		return writeError(err)
	}
	return nil
}

// Rune encodes a Unicode scalar value as an unsigned 32-bit Int.
func (e *Encoder) Rune(r rune) error {
	if !utf8.ValidRune(r) {
		return ErrInvalidChar
	}
	return e.Uint64(uint64(uint32(r)))
}

// String encodes a string as a Bytes payload.
func (e *Encoder) String(s string) error {
	if err := e.writeVarint(wire.WireBytes, uint64(len(s))); err != nil {
		return err
	}
	if _, err := io.WriteString(e.w, s); err != nil {
		return writeError(err)
	}
	return nil
}

// Bytes encodes a byte string as a Bytes payload.
func (e *Encoder) Bytes(b []byte) error {
	if err := e.writeVarint(wire.WireBytes, uint64(len(b))); err != nil {
		return err
	}
	if _, err := e.w.Write(b); err != nil {
		return writeError(err)
	}
	return nil
}

// Unit encodes the unit value, a single Int byte of 0.
func (e *Encoder) Unit() error {
	return e.Bool(false)
}

// None encodes an absent optional: Variant 0 followed by unit.
func (e *Encoder) None() error {
	if err := e.writeVarint(wire.WireVariant, 0); err != nil {
		return err
	}
	return e.Unit()
}

// Some begins a present optional: Variant 1. Exactly one value must
// follow.
func (e *Encoder) Some() error {
	return e.writeVarint(wire.WireVariant, 1)
}

// BeginSequence begins a sequence, tuple, or struct of n values.
// Exactly n values must follow. Sequences of unknown length are not
// representable; n must not be negative.
func (e *Encoder) BeginSequence(n int) error {
	if n < 0 {
		return ErrUnknownLength
	}
	return e.writeVarint(wire.WireSequence, uint64(n))
}

// BeginMap begins a map of n entries, encoded as a Sequence of 2n
// values with keys and values interleaved.
func (e *Encoder) BeginMap(n int) error {
	if n < 0 {
		return ErrUnknownLength
	}
	return e.writeVarint(wire.WireSequence, uint64(n)*2)
}

// BeginVariant begins an enum variant: the discriminant followed by
// exactly one value (for tuple and struct variants, that value is a
// Sequence of the fields; for unit variants it is unit).
func (e *Encoder) BeginVariant(disc uint32) error {
	return e.writeVarint(wire.WireVariant, uint64(disc))
}
