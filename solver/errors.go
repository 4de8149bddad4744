package solver

import (
	"errors"
	"fmt"
)

// ErrNotLoaded is returned when inference is attempted before a parameter
// snapshot has been loaded. This is a programming error in the caller.
var ErrNotLoaded = errors.New("solver: parameters not loaded")

// ErrMissingSnapshot is returned when the parameter file is absent at load
// time.
var ErrMissingSnapshot = errors.New("solver: parameter snapshot missing")

// ShapeError reports an input tensor whose dimensions do not match the
// engine configuration. The frame must be discarded by the caller.
type ShapeError struct {
	Want string
	Got  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("solver: input shape mismatch: want %s, got %s", e.Want, e.Got)
}
