package codec

import (
	"encoding/binary"
	"fmt"
)

// FixedWriter serializes a record into a byte slice of a size fixed up front.
// Every field occupies its declared width; short values are zero-padded.
// The first error sticks and is reported by Finish.
type FixedWriter struct {
	buf []byte
	off int
	err error
}

func NewFixedWriter(size int) *FixedWriter {
	return &FixedWriter{buf: make([]byte, size)}
}

func (w *FixedWriter) reserve(n int, field string) []byte {
	if w.err != nil {
		return nil
	}
	if w.off+n > len(w.buf) {
		w.err = fmt.Errorf("layout overflow at %s: need %d bytes at offset %d of %d", field, n, w.off, len(w.buf))
		return nil
	}
	b := w.buf[w.off : w.off+n]
	w.off += n
	return b
}

// Bytes writes b zero-padded to width. It fails if b is longer than width.
func (w *FixedWriter) Bytes(field string, b []byte, width int) {
	if w.err == nil && len(b) > width {
		w.err = fmt.Errorf("%s too long: %d > %d bytes", field, len(b), width)
		return
	}
	dst := w.reserve(width, field)
	if dst != nil {
		copy(dst, b)
	}
}

func (w *FixedWriter) String(field string, s string, width int) {
	w.Bytes(field, []byte(s), width)
}

func (w *FixedWriter) U8(field string, v uint8) {
	if dst := w.reserve(1, field); dst != nil {
		dst[0] = v
	}
}

func (w *FixedWriter) Bool(field string, v bool) {
	var b uint8
	if v {
		b = 1
	}
	w.U8(field, b)
}

func (w *FixedWriter) U16(field string, v uint16) {
	if dst := w.reserve(2, field); dst != nil {
		binary.LittleEndian.PutUint16(dst, v)
	}
}

func (w *FixedWriter) U32(field string, v uint32) {
	if dst := w.reserve(4, field); dst != nil {
		binary.LittleEndian.PutUint32(dst, v)
	}
}

func (w *FixedWriter) U64(field string, v uint64) {
	if dst := w.reserve(8, field); dst != nil {
		binary.LittleEndian.PutUint64(dst, v)
	}
}

func (w *FixedWriter) I32(field string, v int32) { w.U32(field, uint32(v)) }

func (w *FixedWriter) I64(field string, v int64) { w.U64(field, uint64(v)) }

// Finish returns the encoded record. The whole buffer must have been consumed.
func (w *FixedWriter) Finish() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.off != len(w.buf) {
		return nil, fmt.Errorf("layout underflow: wrote %d of %d bytes", w.off, len(w.buf))
	}
	return w.buf, nil
}

// FixedReader is the decoding counterpart of FixedWriter.
type FixedReader struct {
	buf []byte
	off int
	err error
}

// NewFixedReader expects b to be exactly size bytes long.
func NewFixedReader(b []byte, size int) *FixedReader {
	r := &FixedReader{buf: b}
	if len(b) != size {
		r.err = fmt.Errorf("invalid record length: got %d want %d", len(b), size)
	}
	return r
}

func (r *FixedReader) take(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = fmt.Errorf("truncated record at %s", field)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

// Bytes returns a copy of the next width bytes.
func (r *FixedReader) Bytes(field string, width int) []byte {
	b := r.take(width, field)
	if b == nil {
		return make([]byte, width)
	}
	return append([]byte(nil), b...)
}

// String reads a zero-padded string field. Trailing zero bytes are dropped.
func (r *FixedReader) String(field string, width int) string {
	b := r.take(width, field)
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}

func (r *FixedReader) U8(field string) uint8 {
	b := r.take(1, field)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *FixedReader) Bool(field string) bool {
	v := r.U8(field)
	if v > 1 && r.err == nil {
		r.err = fmt.Errorf("invalid bool at %s: %d", field, v)
	}
	return v == 1
}

func (r *FixedReader) U16(field string) uint16 {
	b := r.take(2, field)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *FixedReader) U32(field string) uint32 {
	b := r.take(4, field)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *FixedReader) U64(field string) uint64 {
	b := r.take(8, field)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *FixedReader) I32(field string) int32 { return int32(r.U32(field)) }

func (r *FixedReader) I64(field string) int64 { return int64(r.U64(field)) }

func (r *FixedReader) Err() error { return r.err }

// PackNibbles stores one 4-bit value per slot, two slots per byte (low nibble first).
func PackNibbles(vals []uint8) ([]byte, error) {
	out := make([]byte, (len(vals)+1)/2)
	for i, v := range vals {
		if v > 0x0f {
			return nil, fmt.Errorf("nibble %d out of range: %d", i, v)
		}
		if i%2 == 0 {
			out[i/2] |= v
		} else {
			out[i/2] |= v << 4
		}
	}
	return out, nil
}

// UnpackNibbles is the inverse of PackNibbles for n slots.
func UnpackNibbles(b []byte, n int) []uint8 {
	out := make([]uint8, n)
	for i := 0; i < n && i/2 < len(b); i++ {
		if i%2 == 0 {
			out[i] = b[i/2] & 0x0f
		} else {
			out[i] = b[i/2] >> 4
		}
	}
	return out
}
