package extras

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedBlob = errors.New("malformed metadata blob")
	ErrStrictDecode  = errors.New("extended component failed to decode in strict mode")
)

type DiagnosticKind string

const (
	MalformedBlob     DiagnosticKind = "malformed_blob"
	UnregisteredType  DiagnosticKind = "unregistered_type"
	NotAComponent     DiagnosticKind = "not_a_component"
	DecodeFailed      DiagnosticKind = "decode_failed"
	MalformedExtended DiagnosticKind = "malformed_extended"
)

// Diagnostic is one problem found while parsing a blob. Every diagnostic is
// also logged as a warning when it is recorded.
type Diagnostic struct {
	Kind DiagnosticKind
	Node string
	Type string
	Err  error
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: node=%q type=%q", d.Kind, d.Node, d.Type)
	if d.Err != nil {
		s += ": " + d.Err.Error()
	}
	return s
}
