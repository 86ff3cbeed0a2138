package classfile

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedContainer = errors.New("classfile: malformed container")
	ErrInvalidIndex       = errors.New("classfile: invalid constant pool index")
	ErrKindMismatch       = errors.New("classfile: constant pool kind mismatch")
)

// malformed builds an ErrMalformedContainer error for the given section and
// file offset.
func malformed(section string, offset int, format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d: %s", ErrMalformedContainer, section, offset, fmt.Sprintf(format, args...))
}

// truncated reports a read that ran past the end of the buffer.
func truncated(section string, r *Reader) error {
	return malformed(section, r.Position(), "truncated (%d bytes remaining)", r.Remaining())
}
