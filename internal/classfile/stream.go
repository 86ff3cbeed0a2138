package classfile

import (
	"encoding/binary"
	"errors"
)

var ErrStreamEOF = errors.New("stream: unexpected end of data")

// Reader reads class file data with a moving cursor. All multi-byte
// quantities in a class file are big-endian.
type Reader struct {
	data []byte
	pos  int
	end  int
}

// NewReader creates a reader over the given data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, pos: 0, end: len(data)}
}

// Position returns the current read position.
func (r *Reader) Position() int { return r.pos }

// Remaining returns bytes left to read.
func (r *Reader) Remaining() int { return r.end - r.pos }

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if r.pos >= r.end {
		return 0, ErrStreamEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadUint16 reads a big-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	if r.pos+2 > r.end {
		return 0, ErrStreamEOF
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadUint32 reads a big-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	if r.pos+4 > r.end {
		return 0, ErrStreamEOF
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadUint64 reads a big-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	if r.pos+8 > r.end {
		return 0, ErrStreamEOF
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadBytes returns the next n bytes. The returned slice aliases the
// underlying data and must not be modified.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > r.end {
		return nil, ErrStreamEOF
	}
	out := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return out, nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.pos+n > r.end {
		return ErrStreamEOF
	}
	r.pos += n
	return nil
}
