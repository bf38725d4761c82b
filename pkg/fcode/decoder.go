package fcode

import (
	"errors"
	"math"
	"unicode/utf8"

	"github.com/tijsvd/fcode/internal/wire"
)

// Decoder reads fcode values from an immutable byte slice. All reads
// advance a cursor; every value begins with a tag byte whose wire type
// is verified against the expectation of the caller.
//
// A Decoder holds no state besides its cursor and is abandoned on the
// first error; all errors are fatal to the current decode.
type Decoder struct {
	data   []byte
	pos    int
	depth  int
	limits Limits
}

// NewDecoder creates a Decoder over data with default limits.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data, limits: DefaultLimits}
}

// NewDecoderWithOptions creates a Decoder with the specified options.
func NewDecoderWithOptions(data []byte, opts Options) *Decoder {
	return &Decoder{data: data, limits: opts.Limits}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.pos
}

// Pos returns the current cursor position.
func (d *Decoder) Pos() int {
	return d.pos
}

// translateWire maps internal wire errors onto the package sentinels.
func translateWire(err error) error {
	switch {
	case errors.Is(err, wire.ErrTruncated):
		return ErrUnexpectedEOF
	case errors.Is(err, wire.ErrOverflow):
		return ErrValueOverflow
	default:
		return err
	}
}

// readByte consumes the next byte.
func (d *Decoder) readByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, ErrUnexpectedEOF
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

// read consumes exactly n bytes and returns them as a subslice of the
// input; the result aliases the decoder's data.
func (d *Decoder) read(n int) ([]byte, error) {
	if n > d.Remaining() {
		return nil, ErrUnexpectedEOF
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// readVarint consumes the continuation bytes of a 64-bit varint.
func (d *Decoder) readVarint(tagbyte byte) (uint64, error) {
	v, n, err := wire.DecodeVarint(tagbyte, d.data[d.pos:])
	if err != nil {
		return 0, translateWire(err)
	}
	d.pos += n
	return v, nil
}

// readVarint128 consumes the continuation bytes of a 128-bit varint.
func (d *Decoder) readVarint128(tagbyte byte) (hi, lo uint64, err error) {
	hi, lo, n, err := wire.DecodeVarint128(tagbyte, d.data[d.pos:])
	if err != nil {
		return 0, 0, translateWire(err)
	}
	d.pos += n
	return hi, lo, nil
}

// readFixed32 consumes 4 little-endian bytes.
func (d *Decoder) readFixed32() (uint32, error) {
	b, err := d.read(wire.Fixed32Size)
	if err != nil {
		return 0, err
	}
	v, _ := wire.DecodeFixed32(b)
	return v, nil
}

// readFixed64 consumes 8 little-endian bytes.
func (d *Decoder) readFixed64() (uint64, error) {
	b, err := d.read(wire.Fixed64Size)
	if err != nil {
		return 0, err
	}
	v, _ := wire.DecodeFixed64(b)
	return v, nil
}

func (d *Decoder) enterNested() error {
	if d.limits.MaxDepth > 0 && d.depth >= d.limits.MaxDepth {
		return ErrMaxDepthExceeded
	}
	d.depth++
	return nil
}

func (d *Decoder) exitNested() {
	if d.depth > 0 {
		d.depth--
	}
}

// Skip consumes a single value of any wire type without interpreting
// it. This is what lets a decoder drop trailing fields it does not
// know about.
func (d *Decoder) Skip() error {
	tagbyte, err := d.readByte()
	if err != nil {
		return err
	}
	switch wire.FromTag(tagbyte) {
	case wire.WireInt:
		n, err := wire.SkipVarint(tagbyte, d.data[d.pos:])
		if err != nil {
			return translateWire(err)
		}
		d.pos += n
	case wire.WireFixed32:
		if _, err := d.read(wire.Fixed32Size); err != nil {
			return err
		}
	case wire.WireFixed64:
		if _, err := d.read(wire.Fixed64Size); err != nil {
			return err
		}
	case wire.WireSequence:
		n, err := d.readVarint(tagbyte)
		if err != nil {
			return err
		}
		if err := d.enterNested(); err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if err := d.Skip(); err != nil {
				return err
			}
		}
		d.exitNested()
	case wire.WireBytes:
		n, err := d.readVarint(tagbyte)
		if err != nil {
			return err
		}
		if n > uint64(d.Remaining()) {
			return ErrUnexpectedEOF
		}
		d.pos += int(n)
	case wire.WireVariant:
		if _, err := d.readVarint(tagbyte); err != nil {
			return err
		}
		if err := d.enterNested(); err != nil {
			return err
		}
		if err := d.Skip(); err != nil {
			return err
		}
		d.exitNested()
	default:
		return ErrUnexpectedWireType
	}
	return nil
}

// Uint64 decodes an unsigned 64-bit integer. Int varints are accepted,
// and so is Fixed64, for producers that chose a non-varint layout.
func (d *Decoder) Uint64() (uint64, error) {
	tagbyte, err := d.readByte()
	if err != nil {
		return 0, err
	}
	switch wire.FromTag(tagbyte) {
	case wire.WireInt:
		return d.readVarint(tagbyte)
	case wire.WireFixed64:
		return d.readFixed64()
	default:
		return 0, ErrUnexpectedWireType
	}
}

// Uint32 decodes an unsigned 32-bit integer, accepting Int or Fixed32.
func (d *Decoder) Uint32() (uint32, error) {
	tagbyte, err := d.readByte()
	if err != nil {
		return 0, err
	}
	switch wire.FromTag(tagbyte) {
	case wire.WireInt:
		v, err := d.readVarint(tagbyte)
		if err != nil {
			return 0, err
		}
		if v > math.MaxUint32 {
			return 0, ErrValueOverflow
		}
		return uint32(v), nil
	case wire.WireFixed32:
		return d.readFixed32()
	default:
		return 0, ErrUnexpectedWireType
	}
}

// Uint16 decodes an unsigned 16-bit integer from an Int varint.
func (d *Decoder) Uint16() (uint16, error) {
	v, err := d.uintVarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint16 {
		return 0, ErrValueOverflow
	}
	return uint16(v), nil
}

// Uint8 decodes an unsigned 8-bit integer from an Int varint.
func (d *Decoder) Uint8() (uint8, error) {
	v, err := d.uintVarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint8 {
		return 0, ErrValueOverflow
	}
	return uint8(v), nil
}

// uintVarint decodes an Int-only unsigned varint.
func (d *Decoder) uintVarint() (uint64, error) {
	tagbyte, err := d.readByte()
	if err != nil {
		return 0, err
	}
	if wire.FromTag(tagbyte) != wire.WireInt {
		return 0, ErrUnexpectedWireType
	}
	return d.readVarint(tagbyte)
}

// Uint128 decodes an unsigned 128-bit integer from an Int varint.
func (d *Decoder) Uint128() (Uint128, error) {
	tagbyte, err := d.readByte()
	if err != nil {
		return Uint128{}, err
	}
	if wire.FromTag(tagbyte) != wire.WireInt {
		return Uint128{}, ErrUnexpectedWireType
	}
	hi, lo, err := d.readVarint128(tagbyte)
	if err != nil {
		return Uint128{}, err
	}
	return Uint128{Hi: hi, Lo: lo}, nil
}

// Int64 decodes a signed 64-bit integer: a zig-zag Int varint, or
// Fixed64 taken as two's complement little-endian.
func (d *Decoder) Int64() (int64, error) {
	tagbyte, err := d.readByte()
	if err != nil {
		return 0, err
	}
	switch wire.FromTag(tagbyte) {
	case wire.WireInt:
		v, err := d.readVarint(tagbyte)
		if err != nil {
			return 0, err
		}
		return wire.ZigZagDecode(v), nil
	case wire.WireFixed64:
		v, err := d.readFixed64()
		if err != nil {
			return 0, err
		}
		return int64(v), nil
	default:
		return 0, ErrUnexpectedWireType
	}
}

// Int32 decodes a signed 32-bit integer, accepting Int or Fixed32.
func (d *Decoder) Int32() (int32, error) {
	tagbyte, err := d.readByte()
	if err != nil {
		return 0, err
	}
	switch wire.FromTag(tagbyte) {
	case wire.WireInt:
		v, err := d.readVarint(tagbyte)
		if err != nil {
			return 0, err
		}
		s := wire.ZigZagDecode(v)
		if s < math.MinInt32 || s > math.MaxInt32 {
			return 0, ErrValueOverflow
		}
		return int32(s), nil
	case wire.WireFixed32:
		v, err := d.readFixed32()
		if err != nil {
			return 0, err
		}
		return int32(v), nil
	default:
		return 0, ErrUnexpectedWireType
	}
}

// Int16 decodes a signed 16-bit integer from a zig-zag Int varint.
func (d *Decoder) Int16() (int16, error) {
	v, err := d.intVarint()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, ErrValueOverflow
	}
	return int16(v), nil
}

// Int8 decodes a signed 8-bit integer from a zig-zag Int varint.
func (d *Decoder) Int8() (int8, error) {
	v, err := d.intVarint()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt8 || v > math.MaxInt8 {
		return 0, ErrValueOverflow
	}
	return int8(v), nil
}

// intVarint decodes an Int-only signed varint.
func (d *Decoder) intVarint() (int64, error) {
	v, err := d.uintVarint()
	if err != nil {
		return 0, err
	}
	return wire.ZigZagDecode(v), nil
}

// Int128 decodes a signed 128-bit integer from a zig-zag Int varint.
func (d *Decoder) Int128() (Int128, error) {
	u, err := d.Uint128()
	if err != nil {
		return Int128{}, err
	}
	hi, lo := wire.ZigZagDecode128(u.Hi, u.Lo)
	return Int128{Hi: hi, Lo: lo}, nil
}

// Bool decodes a boolean: false iff the integer value is zero. Any
// integer layout a Uint64 accepts is valid input.
func (d *Decoder) Bool() (bool, error) {
	v, err := d.Uint64()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Float32 decodes a float32 from Fixed32, or from Fixed64 with silent
// truncation (a too-large magnitude becomes infinity).
func (d *Decoder) Float32() (float32, error) {
	tagbyte, err := d.readByte()
	if err != nil {
		return 0, err
	}
	switch wire.FromTag(tagbyte) {
	case wire.WireFixed32:
		v, err := d.readFixed32()
		if err != nil {
			return 0, err
		}
		return math.Float32frombits(v), nil
	case wire.WireFixed64:
		v, err := d.readFixed64()
		if err != nil {
			return 0, err
		}
		return float32(math.Float64frombits(v)), nil
	default:
		return 0, ErrUnexpectedWireType
	}
}

// Float64 decodes a float64 from Fixed64, or exactly widened from
// Fixed32.
func (d *Decoder) Float64() (float64, error) {
	tagbyte, err := d.readByte()
	if err != nil {
		return 0, err
	}
	switch wire.FromTag(tagbyte) {
	case wire.WireFixed32:
		v, err := d.readFixed32()
		if err != nil {
			return 0, err
		}
		return float64(math.Float32frombits(v)), nil
	case wire.WireFixed64:
		v, err := d.readFixed64()
		if err != nil {
			return 0, err
		}
		return math.Float64frombits(v), nil
	default:
		return 0, ErrUnexpectedWireType
	}
}

// Rune decodes a Unicode scalar value from an unsigned 32-bit integer.
func (d *Decoder) Rune() (rune, error) {
	v, err := d.Uint32()
	if err != nil {
		return 0, err
	}
	r := rune(v)
	if !utf8.ValidRune(r) {
		return 0, ErrInvalidChar
	}
	return r, nil
}

// Bytes decodes a byte string. The returned slice aliases the input
// buffer; copy it if it must outlive the input.
func (d *Decoder) Bytes() ([]byte, error) {
	tagbyte, err := d.readByte()
	if err != nil {
		return nil, err
	}
	if wire.FromTag(tagbyte) != wire.WireBytes {
		return nil, ErrUnexpectedWireType
	}
	n, err := d.readVarint(tagbyte)
	if err != nil {
		return nil, err
	}
	if d.limits.MaxBytesLength > 0 && n > uint64(d.limits.MaxBytesLength) {
		return nil, ErrMaxSizeExceeded
	}
	if n > uint64(d.Remaining()) {
		return nil, ErrUnexpectedEOF
	}
	return d.read(int(n))
}

// String decodes a UTF-8 string from a Bytes payload, re-validating
// the encoding.
func (d *Decoder) String() (string, error) {
	b, err := d.Bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

// Option decodes an optional's Variant header. It reports false after
// consuming the absent child, or true with the present value still
// pending; the caller then decodes it.
func (d *Decoder) Option() (bool, error) {
	disc, err := d.variantDisc()
	if err != nil {
		return false, err
	}
	if disc == 0 {
		return false, d.Skip()
	}
	return true, nil
}

// Unit decodes a unit value by skipping one value of any wire type.
// Deprecating a field to unit therefore never conflicts with old
// producers that still send the original type.
func (d *Decoder) Unit() error {
	return d.Skip()
}

// variantDisc reads a Variant tag and its full discriminant.
func (d *Decoder) variantDisc() (uint64, error) {
	tagbyte, err := d.readByte()
	if err != nil {
		return 0, err
	}
	if wire.FromTag(tagbyte) != wire.WireVariant {
		return 0, ErrUnexpectedWireType
	}
	return d.readVarint(tagbyte)
}

// Variant decodes an enum's Variant header and returns the
// discriminant, which must fit in 32 bits. Exactly one child value
// follows: unit for unit variants, the inner value for newtype
// variants, a Sequence of the fields for tuple and struct variants.
func (d *Decoder) Variant() (uint32, error) {
	disc, err := d.variantDisc()
	if err != nil {
		return 0, err
	}
	if disc > math.MaxUint32 {
		return 0, ErrValueOverflow
	}
	return uint32(disc), nil
}

// SeqReader iterates the children of one Sequence on the wire. The
// reader hands out at most the caller's declared arity and remembers
// how many wire elements remain; Finish drains the remainder via skip
// so the cursor always ends at the composite boundary.
//
// Finish must run on every exit path, including error returns, for the
// wire to stay synchronized. It is idempotent.
type SeqReader struct {
	d       *Decoder
	nread   int // elements remaining on the wire
	nreturn int // elements remaining to hand out
}

// seqReader reads a Sequence header and builds a reader delivering at
// most arity elements (arity < 0 delivers everything).
func (d *Decoder) seqReader(arity int) (*SeqReader, error) {
	tagbyte, err := d.readByte()
	if err != nil {
		return nil, err
	}
	if wire.FromTag(tagbyte) != wire.WireSequence {
		return nil, ErrUnexpectedWireType
	}
	n64, err := d.readVarint(tagbyte)
	if err != nil {
		return nil, err
	}
	if d.limits.MaxSequenceLength > 0 && n64 > uint64(d.limits.MaxSequenceLength) {
		return nil, ErrMaxSizeExceeded
	}
	if n64 > uint64(d.Remaining()) {
		// Even a one-byte element needs one byte of input.
		return nil, ErrUnexpectedEOF
	}
	n := int(n64)
	nreturn := n
	if arity >= 0 && arity < n {
		nreturn = arity
	}
	if err := d.enterNested(); err != nil {
		return nil, err
	}
	return &SeqReader{d: d, nread: n, nreturn: nreturn}, nil
}

// Sequence decodes a Sequence header for a variable-length sequence;
// every element on the wire is delivered.
func (d *Decoder) Sequence() (*SeqReader, error) {
	return d.seqReader(-1)
}

// Tuple decodes a Sequence header for a tuple or struct of the given
// declared arity. When the wire carries more elements, the extras are
// skipped by Finish; when it carries fewer, the reader stops early and
// the caller fills the remaining positions with defaults.
func (d *Decoder) Tuple(arity int) (*SeqReader, error) {
	if arity < 0 {
		return nil, NewDecodeError("negative arity", nil)
	}
	return d.seqReader(arity)
}

// Map decodes a Sequence header for a map. The element count must be
// even; keys and values alternate. Use Entries for the entry count and
// call Next twice per entry.
func (d *Decoder) Map() (*SeqReader, error) {
	s, err := d.seqReader(-1)
	if err != nil {
		return nil, err
	}
	if s.nread%2 != 0 {
		return nil, ErrInvalidMap
	}
	return s, nil
}

// Len returns the number of elements still to be handed out.
func (s *SeqReader) Len() int {
	return s.nreturn
}

// Entries returns the number of map entries still to be handed out.
func (s *SeqReader) Entries() int {
	return s.nreturn / 2
}

// Next reports whether another element is available and accounts for
// it. The caller decodes exactly one value from the decoder after each
// true return.
func (s *SeqReader) Next() bool {
	if s.nreturn == 0 {
		return false
	}
	s.nreturn--
	s.nread--
	return true
}

// Finish skips whatever wire elements were not handed out and closes
// the composite. It is safe to call more than once; later calls are
// no-ops.
func (s *SeqReader) Finish() error {
	if s.d == nil {
		return nil
	}
	d := s.d
	s.d = nil
	for s.nread > 0 {
		if err := d.Skip(); err != nil {
			return err
		}
		s.nread--
	}
	d.exitNested()
	return nil
}
