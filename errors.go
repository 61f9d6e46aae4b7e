package img2ascii

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks. Every typed error below unwraps to its
// sentinel.
var (
	ErrDecode            = errors.New("img2ascii: decode failed")
	ErrEmptyInput        = errors.New("img2ascii: empty input")
	ErrUnsupportedConfig = errors.New("img2ascii: unsupported configuration")
)

// DecodeError reports input bytes that could not be interpreted as any
// supported media kind, or a container whose first frame is unreadable.
type DecodeError struct {
	Kind Kind
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("img2ascii: cannot decode %s input", e.Kind)
	}
	return fmt.Sprintf("img2ascii: cannot decode %s input: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDecode}
	}
	return []error{ErrDecode, e.Err}
}

// EmptyInputError reports that a stage which needs at least one frame
// was handed none.
type EmptyInputError struct {
	Stage string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("img2ascii: %s: no frames", e.Stage)
}

func (e *EmptyInputError) Unwrap() error { return ErrEmptyInput }

// UnsupportedConfigError reports an invalid option value, e.g. a zero
// target width or an empty glyph ramp.
type UnsupportedConfigError struct {
	Field  string
	Reason string
}

func (e *UnsupportedConfigError) Error() string {
	return fmt.Sprintf("img2ascii: invalid %s: %s", e.Field, e.Reason)
}

func (e *UnsupportedConfigError) Unwrap() error { return ErrUnsupportedConfig }

func configErrorf(field, format string, args ...any) error {
	return &UnsupportedConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
