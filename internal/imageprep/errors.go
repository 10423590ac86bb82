package imageprep

import (
	"errors"
	"fmt"
)

var (
	ErrDecode = errors.New("image decode failed")
	ErrEncode = errors.New("image encode failed")
	// ErrTooManyPixels rejects images whose header declares more than MaxPixels.
	ErrTooManyPixels = errors.New("image dimensions too large")
)

// DecodeError reports that the selected file could not be read as an image.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to load image %q for compression: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// EncodeError reports that the resized image could not be re-encoded.
type EncodeError struct {
	Name string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode image %q: %v", e.Name, e.Err)
}

func (e *EncodeError) Unwrap() []error { return []error{ErrEncode, e.Err} }
