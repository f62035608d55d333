package binary

import (
	"bytes"
	"encoding/binary"
)

// Writer provides buffered writing utilities for table encoding.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// WriteU8 writes a single byte.
func (w *Writer) WriteU8(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteU16 writes a 2-byte big-endian value.
func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

// WriteU32 writes a 4-byte big-endian value.
func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// WriteU16Field writes v into the low half of a 4-byte slot, upper half zero.
func (w *Writer) WriteU16Field(v uint16) {
	w.WriteU32(uint32(v))
}

// Zero writes n zero bytes.
func (w *Writer) Zero(n int) {
	for ; n > 0; n-- {
		w.buf.WriteByte(0)
	}
}

// PadTo writes zero bytes until Len() == off. It does nothing if the
// writer is already at or past off.
func (w *Writer) PadTo(off int) {
	w.Zero(off - w.buf.Len())
}
