// Package wire provides the low-level encoding primitives for the fcode
// wire format: tag-packed varints, zig-zag transforms, and fixed-width
// little-endian values.
//
// Every encoded value starts with a single tag byte. The low 3 bits hold
// the wire type. For wire types with a varint payload (Int, Sequence,
// Bytes, Variant) bits 3-6 carry the low 4 bits of the payload and bit 7
// is the continuation bit. For Fixed32/Fixed64 bits 3-7 are zero.
package wire

import "errors"

// WireType indicates how a value's payload is laid out on the wire.
type WireType uint8

const (
	// WireInt is a varint payload of up to 128 bits. Signed values are
	// zig-zag transformed before encoding.
	WireInt WireType = 0

	// WireFixed32 is exactly 4 little-endian bytes.
	WireFixed32 WireType = 1

	// WireFixed64 is exactly 8 little-endian bytes.
	WireFixed64 WireType = 2

	// WireSequence is a varint element count followed by that many
	// encoded values back to back.
	WireSequence WireType = 3

	// WireBytes is a varint byte count followed by raw bytes.
	WireBytes WireType = 4

	// WireVariant is a varint discriminant followed by exactly one
	// encoded value.
	WireVariant WireType = 5
)

// Wire type values 6 and 7 are reserved. They never appear in valid data;
// any path that dispatches on a wire type must reject them.

// ErrReservedWireType indicates a tag byte carrying wire type 6 or 7.
var ErrReservedWireType = errors.New("wire: reserved wire type")

// FromTag extracts the wire type from a tag byte.
// The result may be a reserved value; check IsValid before dispatching.
func FromTag(tagbyte byte) WireType {
	return WireType(tagbyte & 7)
}

// IsValid reports whether the wire type is one of the six known types.
func (w WireType) IsValid() bool {
	return w <= WireVariant
}

// String returns a human-readable name for the wire type.
func (w WireType) String() string {
	switch w {
	case WireInt:
		return "Int"
	case WireFixed32:
		return "Fixed32"
	case WireFixed64:
		return "Fixed64"
	case WireSequence:
		return "Sequence"
	case WireBytes:
		return "Bytes"
	case WireVariant:
		return "Variant"
	default:
		return "Reserved"
	}
}
