package fcode

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestDecoderPrimitives(t *testing.T) {
	t.Run("int32 42", func(t *testing.T) {
		d := NewDecoder([]byte{0xa0, 0x05})
		v, err := d.Int32()
		if err != nil || v != 42 {
			t.Errorf("Int32 = (%d, %v), want (42, nil)", v, err)
		}
		if d.Remaining() != 0 {
			t.Errorf("%d bytes left", d.Remaining())
		}
	})

	t.Run("some 7", func(t *testing.T) {
		d := NewDecoder([]byte{0x0d, 0x70})
		ok, err := d.Option()
		if err != nil || !ok {
			t.Fatalf("Option = (%v, %v), want (true, nil)", ok, err)
		}
		v, err := d.Int32()
		if err != nil || v != 7 {
			t.Errorf("Int32 = (%d, %v), want (7, nil)", v, err)
		}
	})

	t.Run("none", func(t *testing.T) {
		d := NewDecoder([]byte{0x05, 0x00})
		ok, err := d.Option()
		if err != nil || ok {
			t.Errorf("Option = (%v, %v), want (false, nil)", ok, err)
		}
		if d.Remaining() != 0 {
			t.Errorf("absent child not consumed, %d bytes left", d.Remaining())
		}
	})

	t.Run("unit accepts any value", func(t *testing.T) {
		// Deprecated fields decode as unit regardless of what the
		// producer still sends.
		for _, data := range [][]byte{
			{0x00},
			{0xa0, 0x05},
			{0x34, 'f', 'o', 'o', 'b', 'a', 'r'},
			{0x13, 0x08, 0x10},
		} {
			d := NewDecoder(data)
			if err := d.Unit(); err != nil {
				t.Errorf("Unit(% x): %v", data, err)
			}
			if d.Remaining() != 0 {
				t.Errorf("Unit(% x) left %d bytes", data, d.Remaining())
			}
		}
	})

	t.Run("string", func(t *testing.T) {
		d := NewDecoder(append([]byte{0x34}, "foobar"...))
		s, err := d.String()
		if err != nil || s != "foobar" {
			t.Errorf("String = (%q, %v), want (foobar, nil)", s, err)
		}
	})

	t.Run("bytes alias input", func(t *testing.T) {
		data := append([]byte{0x34}, "foobar"...)
		d := NewDecoder(data)
		b, err := d.Bytes()
		if err != nil {
			t.Fatal(err)
		}
		if &b[0] != &data[1] {
			t.Error("Bytes should alias the input buffer")
		}
	})

	t.Run("rune", func(t *testing.T) {
		d := NewDecoder([]byte{0x88, 0x06})
		r, err := d.Rune()
		if err != nil || r != 'a' {
			t.Errorf("Rune = (%q, %v), want ('a', nil)", r, err)
		}
	})
}

func TestDecoderIntWidths(t *testing.T) {
	encode := func(v int64) []byte {
		var buf bytes.Buffer
		if err := NewEncoder(&buf).Int64(v); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}

	// In-range narrowing succeeds.
	d := NewDecoder(encode(127))
	if v, err := d.Int8(); err != nil || v != 127 {
		t.Errorf("Int8 = (%d, %v)", v, err)
	}

	// Out-of-range narrowing overflows.
	for _, tt := range []struct {
		v      int64
		decode func(*Decoder) error
	}{
		{128, func(d *Decoder) error { _, err := d.Int8(); return err }},
		{-129, func(d *Decoder) error { _, err := d.Int8(); return err }},
		{1 << 20, func(d *Decoder) error { _, err := d.Int16(); return err }},
		{1 << 40, func(d *Decoder) error { _, err := d.Int32(); return err }},
	} {
		err := tt.decode(NewDecoder(encode(tt.v)))
		if !errors.Is(err, ErrValueOverflow) {
			t.Errorf("narrowing %d: %v, want ErrValueOverflow", tt.v, err)
		}
	}
}

func TestDecoderFixedWidthInts(t *testing.T) {
	// 32-bit and wider integers also accept the fixed-width layouts,
	// taken as two's complement little-endian.
	d := NewDecoder([]byte{0x01, 0xfe, 0xff, 0xff, 0xff})
	if v, err := d.Int32(); err != nil || v != -2 {
		t.Errorf("Int32 from Fixed32 = (%d, %v), want (-2, nil)", v, err)
	}

	d = NewDecoder([]byte{0x01, 0x2a, 0x00, 0x00, 0x00})
	if v, err := d.Uint32(); err != nil || v != 42 {
		t.Errorf("Uint32 from Fixed32 = (%d, %v), want (42, nil)", v, err)
	}

	d = NewDecoder([]byte{0x02, 0x2a, 0, 0, 0, 0, 0, 0, 0})
	if v, err := d.Uint64(); err != nil || v != 42 {
		t.Errorf("Uint64 from Fixed64 = (%d, %v), want (42, nil)", v, err)
	}

	d = NewDecoder([]byte{0x02, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	if v, err := d.Int64(); err != nil || v != -1 {
		t.Errorf("Int64 from Fixed64 = (%d, %v), want (-1, nil)", v, err)
	}

	// Narrow widths accept only Int varints.
	d = NewDecoder([]byte{0x01, 0x2a, 0x00, 0x00, 0x00})
	if _, err := d.Uint16(); !errors.Is(err, ErrUnexpectedWireType) {
		t.Errorf("Uint16 from Fixed32 = %v, want ErrUnexpectedWireType", err)
	}
}

func TestDecoderBool(t *testing.T) {
	// Bool routes through the unsigned integer path: any nonzero value
	// is true.
	tests := []struct {
		data []byte
		want bool
	}{
		{[]byte{0x00}, false},
		{[]byte{0x08}, true},
		{[]byte{0xa0, 0x05}, true},
	}
	for _, tt := range tests {
		d := NewDecoder(tt.data)
		v, err := d.Bool()
		if err != nil || v != tt.want {
			t.Errorf("Bool(% x) = (%v, %v), want (%v, nil)", tt.data, v, err, tt.want)
		}
	}
}

func TestDecoderFloats(t *testing.T) {
	enc32 := func(v float32) []byte {
		var buf bytes.Buffer
		NewEncoder(&buf).Float32(v)
		return buf.Bytes()
	}
	enc64 := func(v float64) []byte {
		var buf bytes.Buffer
		NewEncoder(&buf).Float64(v)
		return buf.Bytes()
	}

	// Widening is exact.
	d := NewDecoder(enc32(1.5))
	if v, err := d.Float64(); err != nil || v != 1.5 {
		t.Errorf("Float64 from Fixed32 = (%v, %v), want (1.5, nil)", v, err)
	}

	// Narrowing truncates silently; out-of-range becomes infinity.
	d = NewDecoder(enc64(1.5))
	if v, err := d.Float32(); err != nil || v != 1.5 {
		t.Errorf("Float32 from Fixed64 = (%v, %v), want (1.5, nil)", v, err)
	}
	d = NewDecoder(enc64(1e300))
	if v, err := d.Float32(); err != nil || !math.IsInf(float64(v), 1) {
		t.Errorf("Float32 from huge Fixed64 = (%v, %v), want (+Inf, nil)", v, err)
	}

	// Ints are not floats.
	d = NewDecoder([]byte{0xa0, 0x05})
	if _, err := d.Float64(); !errors.Is(err, ErrUnexpectedWireType) {
		t.Errorf("Float64 from Int = %v, want ErrUnexpectedWireType", err)
	}
}

func TestDecoderBoundaryInts(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	if err := e.Uint64(math.MaxUint64); err != nil {
		t.Fatal(err)
	}
	d := NewDecoder(buf.Bytes())
	if v, err := d.Uint64(); err != nil || v != math.MaxUint64 {
		t.Errorf("max uint64 round-trip = (%d, %v)", v, err)
	}

	buf.Reset()
	if err := e.Int64(math.MinInt64); err != nil {
		t.Fatal(err)
	}
	if len(buf.Bytes()) != 10 {
		t.Errorf("min int64 encodes to %d bytes, want 10", buf.Len())
	}
	d = NewDecoder(buf.Bytes())
	if v, err := d.Int64(); err != nil || v != math.MinInt64 {
		t.Errorf("min int64 round-trip = (%d, %v)", v, err)
	}

	buf.Reset()
	if err := e.Uint128(MaxUint128); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 19 {
		t.Errorf("max uint128 encodes to %d bytes, want 19", buf.Len())
	}
	d = NewDecoder(buf.Bytes())
	if v, err := d.Uint128(); err != nil || v != MaxUint128 {
		t.Errorf("max uint128 round-trip = (%v, %v)", v, err)
	}

	for _, v := range []Int128{MinInt128, MaxInt128, Int128From64(-42), Int128From64(42)} {
		buf.Reset()
		if err := e.Int128(v); err != nil {
			t.Fatal(err)
		}
		d = NewDecoder(buf.Bytes())
		got, err := d.Int128()
		if err != nil || got != v {
			t.Errorf("int128 round-trip = (%v, %v), want (%v, nil)", got, err, v)
		}
	}

	// A 64-bit decoder rejects values beyond its width.
	buf.Reset()
	if err := e.Uint128(Uint128{Hi: 1}); err != nil {
		t.Fatal(err)
	}
	d = NewDecoder(buf.Bytes())
	if _, err := d.Uint64(); !errors.Is(err, ErrValueOverflow) {
		t.Errorf("Uint64 of 2^64 = %v, want ErrValueOverflow", err)
	}
}

func TestDecoderErrors(t *testing.T) {
	t.Run("truncated varint", func(t *testing.T) {
		d := NewDecoder([]byte{0x80})
		if _, err := d.Uint64(); !errors.Is(err, ErrUnexpectedEOF) {
			t.Errorf("got %v, want ErrUnexpectedEOF", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		d := NewDecoder(nil)
		if _, err := d.Uint64(); !errors.Is(err, ErrUnexpectedEOF) {
			t.Errorf("got %v, want ErrUnexpectedEOF", err)
		}
	})

	t.Run("truncated bytes payload", func(t *testing.T) {
		d := NewDecoder([]byte{0x34, 'f', 'o'})
		if _, err := d.Bytes(); !errors.Is(err, ErrUnexpectedEOF) {
			t.Errorf("got %v, want ErrUnexpectedEOF", err)
		}
	})

	t.Run("reserved wire types", func(t *testing.T) {
		for _, b := range []byte{0x06, 0x07} {
			d := NewDecoder([]byte{b})
			if err := d.Skip(); !errors.Is(err, ErrUnexpectedWireType) {
				t.Errorf("Skip(%#02x) = %v, want ErrUnexpectedWireType", b, err)
			}
			d = NewDecoder([]byte{b})
			if _, err := d.Uint64(); !errors.Is(err, ErrUnexpectedWireType) {
				t.Errorf("Uint64(%#02x) = %v, want ErrUnexpectedWireType", b, err)
			}
		}
	})

	t.Run("wire type mismatch", func(t *testing.T) {
		d := NewDecoder([]byte{0x34, 'f', 'o', 'o', 'b', 'a', 'r'})
		if _, err := d.Uint64(); !errors.Is(err, ErrUnexpectedWireType) {
			t.Errorf("got %v, want ErrUnexpectedWireType", err)
		}
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		d := NewDecoder([]byte{0x0c, 0xff})
		if _, err := d.String(); !errors.Is(err, ErrInvalidUTF8) {
			t.Errorf("got %v, want ErrInvalidUTF8", err)
		}
	})

	t.Run("surrogate code point", func(t *testing.T) {
		var buf bytes.Buffer
		NewEncoder(&buf).Uint32(0xd800)
		d := NewDecoder(buf.Bytes())
		if _, err := d.Rune(); !errors.Is(err, ErrInvalidChar) {
			t.Errorf("got %v, want ErrInvalidChar", err)
		}
	})

	t.Run("odd map length", func(t *testing.T) {
		d := NewDecoder([]byte{0x1b, 0x00, 0x00, 0x00})
		if _, err := d.Map(); !errors.Is(err, ErrInvalidMap) {
			t.Errorf("got %v, want ErrInvalidMap", err)
		}
	})

	t.Run("sequence count beyond input", func(t *testing.T) {
		// Declared length is validated against the limits and the
		// remaining input before anything is allocated.
		d := NewDecoder([]byte{0xfb, 0xff, 0xff, 0xff, 0x0f})
		if _, err := d.Sequence(); err == nil {
			t.Error("huge declared sequence length should fail")
		}
	})
}

func TestSkipAdvancesExactly(t *testing.T) {
	// Skip must advance the cursor by exactly the value's byte length,
	// for every wire type.
	var buf bytes.Buffer
	e := NewEncoder(&buf)

	marks := []int{}
	mark := func() { marks = append(marks, buf.Len()) }

	mark()
	e.Int64(-123456789)
	mark()
	e.Float32(3.5)
	mark()
	e.Float64(-7.25)
	mark()
	e.String("hello, wire")
	mark()
	e.BeginSequence(3)
	e.Uint64(1)
	e.String("two")
	e.BeginSequence(2)
	e.Bool(true)
	e.Bool(false)
	mark()
	e.BeginVariant(4)
	e.String("payload")
	mark()
	e.Unit()
	mark()

	d := NewDecoder(buf.Bytes())
	for i := 0; i+1 < len(marks); i++ {
		if err := d.Skip(); err != nil {
			t.Fatalf("skip value %d: %v", i, err)
		}
		if d.Pos() != marks[i+1] {
			t.Fatalf("skip value %d: cursor at %d, want %d", i, d.Pos(), marks[i+1])
		}
	}
	if d.Remaining() != 0 {
		t.Errorf("%d bytes left after skipping all values", d.Remaining())
	}
}

func TestSeqReaderDrain(t *testing.T) {
	// A reader torn down early must consume the elements it never
	// handed out.
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.BeginSequence(3)
	e.Uint64(1)
	e.Uint64(2)
	e.Uint64(3)
	e.Uint64(99) // following value

	d := NewDecoder(buf.Bytes())
	seq, err := d.Tuple(1)
	if err != nil {
		t.Fatal(err)
	}
	if seq.Len() != 1 {
		t.Fatalf("Len = %d, want 1", seq.Len())
	}
	if !seq.Next() {
		t.Fatal("Next = false, want true")
	}
	v, err := d.Uint64()
	if err != nil || v != 1 {
		t.Fatalf("element = (%d, %v)", v, err)
	}
	if seq.Next() {
		t.Error("second Next should report no more elements")
	}
	if err := seq.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	// Finish is idempotent.
	if err := seq.Finish(); err != nil {
		t.Fatalf("second Finish: %v", err)
	}

	v, err = d.Uint64()
	if err != nil || v != 99 {
		t.Errorf("value after drained sequence = (%d, %v), want (99, nil)", v, err)
	}
}

func TestSeqReaderShortWire(t *testing.T) {
	// Fewer wire elements than the declared arity: the reader stops
	// early and Finish has nothing to drain.
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.BeginSequence(1)
	e.Uint64(7)

	d := NewDecoder(buf.Bytes())
	seq, err := d.Tuple(3)
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for seq.Next() {
		if _, err := d.Uint64(); err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 1 {
		t.Errorf("delivered %d elements, want 1", n)
	}
	if err := seq.Finish(); err != nil {
		t.Fatal(err)
	}
	if d.Remaining() != 0 {
		t.Errorf("%d bytes left", d.Remaining())
	}
}

func TestDecoderDepthLimit(t *testing.T) {
	// Deep nesting of sequences must not blow the stack during skip.
	depth := 1000
	data := bytes.Repeat([]byte{0x0b}, depth) // Sequence of length 1, repeatedly
	data = append(data, 0x00)
	d := NewDecoder(data)
	if err := d.Skip(); !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("deep skip = %v, want ErrMaxDepthExceeded", err)
	}

	// Without limits the same input is fine.
	d = NewDecoderWithOptions(data, Options{Limits: NoLimits})
	if err := d.Skip(); err != nil {
		t.Errorf("deep skip without limits: %v", err)
	}
}

func TestVariantDiscriminantOverflow(t *testing.T) {
	var buf bytes.Buffer
	// A discriminant beyond 32 bits is rejected.
	e := NewEncoder(&buf)
	if err := e.writeVarint(5, uint64(math.MaxUint32)+1); err != nil {
		t.Fatal(err)
	}
	buf.WriteByte(0x00)
	d := NewDecoder(buf.Bytes())
	if _, err := d.Variant(); !errors.Is(err, ErrValueOverflow) {
		t.Errorf("wide discriminant = %v, want ErrValueOverflow", err)
	}
}
