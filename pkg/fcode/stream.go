package fcode

import (
	"bufio"
	"errors"
	"io"

	"github.com/tijsvd/fcode/internal/wire"
)

// StreamWriter writes a sequence of encoded messages to an io.Writer.
// Each message is framed as a Bytes value: a tag-packed varint byte
// count followed by the message payload, so a stream can be skipped
// over with the same primitives as any other value.
//
// A StreamWriter is not safe for concurrent use.
type StreamWriter struct {
	w    *bufio.Writer
	opts Options
	err  error
}

// NewStreamWriter creates a StreamWriter with a 4096-byte buffer.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: bufio.NewWriterSize(w, 4096), opts: DefaultOptions}
}

// NewStreamWriterWithOptions creates a StreamWriter with options.
func NewStreamWriterWithOptions(w io.Writer, opts Options) *StreamWriter {
	return &StreamWriter{w: bufio.NewWriterSize(w, 4096), opts: opts}
}

// WriteMessage encodes v and appends it as one frame.
func (sw *StreamWriter) WriteMessage(v any) error {
	if sw.err != nil {
		return sw.err
	}
	payload, err := MarshalWithOptions(v, sw.opts)
	if err != nil {
		return err
	}
	header := wire.AppendVarint(make([]byte, 0, wire.MaxVarintLen64), wire.WireBytes, uint64(len(payload)))
	if _, err := sw.w.Write(header); err != nil {
		sw.err = writeError(err)
		return sw.err
	}
	if _, err := sw.w.Write(payload); err != nil {
		sw.err = writeError(err)
		return sw.err
	}
	return nil
}

// Flush writes buffered frames to the underlying writer.
func (sw *StreamWriter) Flush() error {
	if sw.err != nil {
		return sw.err
	}
	if err := sw.w.Flush(); err != nil {
		sw.err = writeError(err)
		return sw.err
	}
	return nil
}

// Err returns the first write error, if any.
func (sw *StreamWriter) Err() error {
	return sw.err
}

// StreamReader reads messages framed by a StreamWriter. A clean end of
// stream surfaces as io.EOF from ReadMessage; a stream ending inside a
// frame is ErrUnexpectedEOF.
//
// A StreamReader is not safe for concurrent use.
type StreamReader struct {
	r    *bufio.Reader
	opts Options
	buf  []byte
}

// NewStreamReader creates a StreamReader with a 4096-byte buffer.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: bufio.NewReaderSize(r, 4096), opts: DefaultOptions}
}

// NewStreamReaderWithOptions creates a StreamReader with options.
func NewStreamReaderWithOptions(r io.Reader, opts Options) *StreamReader {
	return &StreamReader{r: bufio.NewReaderSize(r, 4096), opts: opts}
}

// readFrame reads one frame header plus payload into the reusable
// buffer.
func (sr *StreamReader) readFrame() ([]byte, error) {
	tagbyte, err := sr.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	if wire.FromTag(tagbyte) != wire.WireBytes {
		return nil, ErrUnexpectedWireType
	}

	// Reassemble the varint length from the tag byte and continuation
	// bytes.
	var cont [wire.MaxVarintLen64 - 1]byte
	ncont := 0
	for tagbyte&0x80 != 0 {
		if ncont == len(cont) {
			return nil, ErrValueOverflow
		}
		b, err := sr.r.ReadByte()
		if err != nil {
			return nil, eofToUnexpected(err)
		}
		cont[ncont] = b
		ncont++
		if b&0x80 == 0 {
			break
		}
	}
	n, _, err := wire.DecodeVarint(tagbyte, cont[:ncont])
	if err != nil {
		return nil, translateWire(err)
	}
	if sr.opts.Limits.MaxBytesLength > 0 && n > uint64(sr.opts.Limits.MaxBytesLength) {
		return nil, ErrMaxSizeExceeded
	}

	if uint64(cap(sr.buf)) < n {
		sr.buf = make([]byte, n)
	}
	sr.buf = sr.buf[:n]
	if _, err := io.ReadFull(sr.r, sr.buf); err != nil {
		return nil, eofToUnexpected(err)
	}
	return sr.buf, nil
}

// ReadMessage decodes the next frame into v. The frame must be
// consumed entirely, as with Unmarshal.
func (sr *StreamReader) ReadMessage(v any) error {
	payload, err := sr.readFrame()
	if err != nil {
		return err
	}
	return UnmarshalWithOptions(payload, v, sr.opts)
}

// eofToUnexpected maps a mid-frame EOF onto the decode sentinel.
func eofToUnexpected(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrUnexpectedEOF
	}
	return err
}
