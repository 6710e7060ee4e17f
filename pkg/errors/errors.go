package errors

import (
	"errors"
	"fmt"
)

var (
	ErrTruncatedRecord = errors.New("truncated posting record")
	ErrCorruptIndex    = errors.New("corrupt index file")
	ErrBufferOverflow  = errors.New("workspace buffer overflow")
	ErrTermNotFound    = errors.New("term not in lexicon")
	ErrNoInput         = errors.New("no input files")
)

// StageError attaches the pipeline stage name to an underlying error so the
// binaries can report where a build failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err.Error())
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func Stage(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

func Stagef(stage string, format string, args ...any) *StageError {
	return &StageError{Stage: stage, Err: fmt.Errorf(format, args...)}
}
