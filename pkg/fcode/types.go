package fcode

import "math"

// Uint128 is an unsigned 128-bit integer, carried on the wire as a
// varint of up to 19 bytes. Hi holds the most significant 64 bits.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// Uint128From64 widens a uint64 to Uint128.
func Uint128From64(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// MaxUint128 is the largest representable Uint128.
var MaxUint128 = Uint128{Hi: math.MaxUint64, Lo: math.MaxUint64}

// IsZero reports whether the value is zero.
func (u Uint128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

// Uint64 narrows to uint64. The second result is false when the value
// does not fit.
func (u Uint128) Uint64() (uint64, bool) {
	return u.Lo, u.Hi == 0
}

// Int128 is a signed 128-bit integer in two's complement, zig-zag
// transformed on the wire. Hi holds the most significant 64 bits,
// including the sign.
type Int128 struct {
	Hi uint64
	Lo uint64
}

// Int128From64 sign-extends an int64 to Int128.
func Int128From64(v int64) Int128 {
	return Int128{Hi: uint64(v >> 63), Lo: uint64(v)}
}

// Extremes of the Int128 range.
var (
	MaxInt128 = Int128{Hi: math.MaxInt64, Lo: math.MaxUint64}
	MinInt128 = Int128{Hi: 1 << 63}
)

// IsZero reports whether the value is zero.
func (i Int128) IsZero() bool {
	return i.Hi == 0 && i.Lo == 0
}

// Sign returns -1, 0, or 1.
func (i Int128) Sign() int {
	if i.Hi&(1<<63) != 0 {
		return -1
	}
	if i.IsZero() {
		return 0
	}
	return 1
}

// Int64 narrows to int64. The second result is false when the value
// does not fit.
func (i Int128) Int64() (int64, bool) {
	v := int64(i.Lo)
	return v, i.Hi == uint64(v>>63)
}
