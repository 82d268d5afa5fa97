package registry

import (
	"errors"
	"fmt"
)

// Registry errors
var (
	ErrTypeNotFound       = errors.New("type not registered")
	ErrDuplicateType      = errors.New("type already registered")
	ErrInvalidDescriptor  = errors.New("invalid type descriptor")
	ErrSubstitutionActive = errors.New("a registry substitution is already active")
	ErrNotSubstituted     = errors.New("substitution is not active")
	ErrUnsupportedType    = errors.New("unsupported go type")
)

// Decode errors
var (
	ErrShapeMismatch  = errors.New("value does not match type shape")
	ErrUnknownField   = errors.New("unknown field")
	ErrMissingField   = errors.New("missing required field")
	ErrUnknownVariant = errors.New("unknown enum variant")
	ErrLength         = errors.New("wrong number of elements")
	ErrNoParser       = errors.New("opaque type has no parser")
)

// DecodeError reports where inside a value a decode failed.
type DecodeError struct {
	Path     string
	TypePath string
	Err      error
}

func (e *DecodeError) Error() string {
	at := e.Path
	if at == "" {
		at = "$"
	}
	return fmt.Sprintf("decode %s at %s: %v", e.TypePath, at, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func wrapDecode(at, typePath string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Path: at, TypePath: typePath, Err: err}
}
