// Package errs defines the error-kind taxonomy shared by every orchestrator
// package. A Kind is not a distinct Go type per error; it is a tag on a
// single *Error wrapper so callers can branch with errors.Is/errors.As while
// the message stays human-readable.
package errs

import "fmt"

// Kind classifies an error for caller-side branching.
type Kind int

const (
	// KindValidation marks malformed caller input (bad id, empty field, unknown phase).
	KindValidation Kind = iota
	// KindNotFound marks a referenced entity that does not exist.
	KindNotFound
	// KindCyclicDependency marks a graph mutation refused because it would close a cycle.
	KindCyclicDependency
	// KindSessionAlreadyExists marks a duplicate SessionId on register.
	KindSessionAlreadyExists
	// KindWorkflowTransition marks a refused Workflow phase advance.
	KindWorkflowTransition
	// KindRepository marks a persistence-layer failure (I/O, atomic-write, etc).
	KindRepository
	// KindSerialization marks malformed JSON/TOML on load.
	KindSerialization
	// KindPatternLoad marks an invalid or empty completion-pattern configuration.
	KindPatternLoad
	// KindPatternTimeout marks completion-pattern matching exceeding its wall-clock budget.
	KindPatternTimeout
	// KindPathTraversal marks an id that fails the path-safety check.
	KindPathTraversal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "Validation"
	case KindNotFound:
		return "NotFound"
	case KindCyclicDependency:
		return "CyclicDependency"
	case KindSessionAlreadyExists:
		return "SessionAlreadyExists"
	case KindWorkflowTransition:
		return "WorkflowTransition"
	case KindRepository:
		return "RepositoryError"
	case KindSerialization:
		return "Serialization"
	case KindPatternLoad:
		return "PatternLoadError"
	case KindPatternTimeout:
		return "PatternTimeout"
	case KindPathTraversal:
		return "PathTraversal"
	default:
		return "Unknown"
	}
}

// Error is the common error shape returned by orchestrator packages.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, errs.Kind(...)) style checks against a bare
// Kind sentinel created with New(kind, "").
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error of the given kind with a message and no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind, wrapping an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Of reports the Kind of err if it is (or wraps) an *Error, plus whether one was found.
func Of(err error) (Kind, bool) {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return 0, false
	}
	return e.Kind, true
}

// Is reports whether err is of the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := Of(err)
	return ok && k == kind
}
