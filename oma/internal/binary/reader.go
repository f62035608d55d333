package binary

import (
	"encoding/binary"

	"github.com/omgaudio/omadb/errors"
)

// Reader is a forward-only cursor over an immutable byte buffer.
// All multi-byte values are most-significant byte first.
type Reader struct {
	buf []byte
	pos int
}

// NewReader creates a Reader positioned at offset 0 of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Len returns the size of the underlying buffer.
func (r *Reader) Len() int {
	return len(r.buf)
}

// Take returns the next n bytes and advances past them. The returned
// slice aliases the buffer and must not be modified.
func (r *Reader) Take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, errors.BufferUnderrun(r.pos, n, r.Remaining())
	}
	b := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU8 reads a single byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.Take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a 2-byte big-endian value.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.Take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadU32 reads a 4-byte big-endian value.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.Take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadU16Field reads a 4-byte slot whose upper half is reserved and
// returns the low-order 16 bits.
func (r *Reader) ReadU16Field() (uint16, error) {
	b, err := r.Take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[2:]), nil
}

// ReadTag reads a 4-byte tag such as "TREE" or "GPLB".
func (r *Reader) ReadTag() ([4]byte, error) {
	var tag [4]byte
	b, err := r.Take(4)
	if err != nil {
		return tag, err
	}
	copy(tag[:], b)
	return tag, nil
}

// ExpectU32 reads a 4-byte value and fails unless it equals want.
func (r *Reader) ExpectU32(want uint32) error {
	off := r.pos
	got, err := r.ReadU32()
	if err != nil {
		return err
	}
	if got != want {
		return errors.MagicMismatch(off, want, got)
	}
	return nil
}

// SkipTo discards bytes up to the absolute offset off. Seeking backwards
// is an error; the format never rewinds.
func (r *Reader) SkipTo(off int) error {
	if off < r.pos {
		return errors.BackwardSeek(off, r.pos)
	}
	_, err := r.Take(off - r.pos)
	return err
}
