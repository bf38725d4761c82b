package fcode

import (
	"io"
	"reflect"
)

// byteSink collects encoder output in memory.
type byteSink struct {
	buf []byte
}

func (s *byteSink) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Marshal encodes a value into a new byte slice.
func Marshal(v any) ([]byte, error) {
	return MarshalWithOptions(v, DefaultOptions)
}

// MarshalWithOptions encodes a value with the specified options.
func MarshalWithOptions(v any, opts Options) ([]byte, error) {
	sink := byteSink{buf: GetBuffer(64)}
	defer func() { PutBuffer(sink.buf) }()
	if err := encodeValue(NewEncoder(&sink), reflect.ValueOf(v), &opts); err != nil {
		return nil, err
	}
	out := make([]byte, len(sink.buf))
	copy(out, sink.buf)
	return out, nil
}

// MarshalAppend appends the encoding of v to buf and returns the
// extended buffer.
func MarshalAppend(buf []byte, v any) ([]byte, error) {
	sink := byteSink{buf: buf}
	opts := DefaultOptions
	if err := encodeValue(NewEncoder(&sink), reflect.ValueOf(v), &opts); err != nil {
		return nil, err
	}
	return sink.buf, nil
}

// MarshalTo encodes a value to an io.Writer. Use this to extend an
// existing buffer or feed a compressor; sink errors surface as
// EncodeError with the sink's error as cause.
func MarshalTo(w io.Writer, v any) error {
	opts := DefaultOptions
	return encodeValue(NewEncoder(w), reflect.ValueOf(v), &opts)
}

// Unmarshal decodes a value from data into v, which must be a non-nil
// pointer. The whole buffer must be consumed; trailing bytes fail with
// ErrDataBeyondEnd.
func Unmarshal(data []byte, v any) error {
	return UnmarshalWithOptions(data, v, DefaultOptions)
}

// UnmarshalWithOptions decodes with the specified options.
func UnmarshalWithOptions(data []byte, v any, opts Options) error {
	d := NewDecoderWithOptions(data, opts)
	if err := unmarshalValue(d, v, &opts); err != nil {
		return err
	}
	if d.Remaining() > 0 {
		return ErrDataBeyondEnd
	}
	return nil
}

// UnmarshalPrefix decodes a value from the front of data, which may
// carry more data after it. It returns the number of bytes consumed.
func UnmarshalPrefix(data []byte, v any) (int, error) {
	opts := DefaultOptions
	d := NewDecoderWithOptions(data, opts)
	if err := unmarshalValue(d, v, &opts); err != nil {
		return 0, err
	}
	return d.Pos(), nil
}

// unmarshalValue validates the target and runs the decode walk.
func unmarshalValue(d *Decoder, v any, opts *Options) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNotPointer
	}
	return decodeValue(d, rv.Elem(), opts)
}
