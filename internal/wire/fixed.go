package wire

import (
	"encoding/binary"
	"math"
)

// Sizes of the fixed-width payloads, excluding the tag byte.
const (
	Fixed32Size = 4
	Fixed64Size = 8
)

// AppendFixed32 appends a 32-bit value in little-endian byte order.
func AppendFixed32(buf []byte, v uint32) []byte {
	return append(buf,
		byte(v),
		byte(v>>8),
		byte(v>>16),
		byte(v>>24),
	)
}

// AppendFixed64 appends a 64-bit value in little-endian byte order.
func AppendFixed64(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v),
		byte(v>>8),
		byte(v>>16),
		byte(v>>24),
		byte(v>>32),
		byte(v>>40),
		byte(v>>48),
		byte(v>>56),
	)
}

// DecodeFixed32 decodes a little-endian 32-bit value.
// Payloads are not guaranteed to be aligned; binary.LittleEndian performs
// byte-wise loads.
func DecodeFixed32(data []byte) (uint32, error) {
	if len(data) < Fixed32Size {
		return 0, ErrTruncated
	}
	return binary.LittleEndian.Uint32(data), nil
}

// DecodeFixed64 decodes a little-endian 64-bit value.
func DecodeFixed64(data []byte) (uint64, error) {
	if len(data) < Fixed64Size {
		return 0, ErrTruncated
	}
	return binary.LittleEndian.Uint64(data), nil
}

// AppendFloat32 appends a float32 as its exact IEEE-754 bits in
// little-endian order. The bits pass through unmodified; NaN payloads
// and negative zero are preserved.
func AppendFloat32(buf []byte, v float32) []byte {
	return AppendFixed32(buf, math.Float32bits(v))
}

// AppendFloat64 appends a float64 as its exact IEEE-754 bits in
// little-endian order.
func AppendFloat64(buf []byte, v float64) []byte {
	return AppendFixed64(buf, math.Float64bits(v))
}

// DecodeFloat32 decodes a float32 from little-endian IEEE-754 bytes.
func DecodeFloat32(data []byte) (float32, error) {
	bits, err := DecodeFixed32(data)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// DecodeFloat64 decodes a float64 from little-endian IEEE-754 bytes.
func DecodeFloat64(data []byte) (float64, error) {
	bits, err := DecodeFixed64(data)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}
