package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"jcallgraph/internal/bytecode"
	"jcallgraph/internal/classfile"
)

// Mode controls error handling behavior.
type Mode int

const (
	ModeBestEffort Mode = iota // failing files are logged and skipped
	ModeStrict                 // first failing file aborts the run
)

func (m Mode) String() string {
	switch m {
	case ModeBestEffort:
		return "best-effort"
	case ModeStrict:
		return "strict"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses "strict" or "best-effort".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "strict":
		return ModeStrict, nil
	case "best-effort", "":
		return ModeBestEffort, nil
	}
	return 0, fmt.Errorf("pipeline: unknown mode %q", s)
}

// FailureKind classifies why a file produced no edges.
type FailureKind string

const (
	FailRead               FailureKind = "read"
	FailMalformed          FailureKind = "malformed"
	FailInvalidIndex       FailureKind = "invalid_index"
	FailKindMismatch       FailureKind = "kind_mismatch"
	FailTruncated          FailureKind = "truncated"
	FailInvalidInstruction FailureKind = "invalid_instruction"
	FailCanceled           FailureKind = "canceled"
	FailOther              FailureKind = "other"
)

// Classify maps a processing error onto a FailureKind.
func Classify(err error) FailureKind {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailCanceled
	case errors.Is(err, bytecode.ErrTruncatedInstruction):
		return FailTruncated
	case errors.Is(err, bytecode.ErrInvalidInstruction):
		return FailInvalidInstruction
	case errors.Is(err, classfile.ErrKindMismatch):
		return FailKindMismatch
	case errors.Is(err, classfile.ErrInvalidIndex):
		return FailInvalidIndex
	case errors.Is(err, classfile.ErrMalformedContainer):
		return FailMalformed
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return FailRead
	}
	return FailOther
}

// Failure records one file that was skipped.
type Failure struct {
	Path string      `json:"path"`
	Kind FailureKind `json:"kind"`
	Msg  string      `json:"msg"`
}

func (f Failure) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Kind, f.Path, f.Msg)
}
