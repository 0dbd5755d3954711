// Package overlayerr defines the error taxonomy shared by the overlay
// engine's packages (spec §7): one distinguished type per error kind so
// callers can tell fatal conditions from best-effort ones with errors.As.
package overlayerr

import "fmt"

// Error is the base type for all overlay engine errors. It embeds a cause
// so errors.Is/errors.As traverse the chain.
type Error struct {
	msg   string
	cause error
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.cause }

func newError(cause error, msg string, args ...any) Error {
	return Error{msg: fmt.Sprintf(msg, args...), cause: cause}
}

// FormatVersionError indicates an unsupported or missing stand-off format
// version (§6: only version 5 is accepted). Fatal.
type FormatVersionError struct{ Error }

func NewFormatVersionError(cause error, msg string, args ...any) *FormatVersionError {
	return &FormatVersionError{newError(cause, msg, args...)}
}

// MissingAnchorsError indicates missing anchors: a stand-off document with
// no text/body/ab, a seg with no ptr child, or an overlay for which no
// anchor chunk was found. Always fatal; there is no lenient mode. An ab
// element with no ptr or seg children is not reported with this error.
type MissingAnchorsError struct{ Error }

func NewMissingAnchorsError(cause error, msg string, args ...any) *MissingAnchorsError {
	return &MissingAnchorsError{newError(cause, msg, args...)}
}

// OutOfBoundsRangeError is raised only informationally: the engine does not
// fail when an annotation range exceeds the document, it anchors onto the
// closest available chunk and keeps going. Callers that want to surface the
// condition can collect these rather than stopping the projection.
type OutOfBoundsRangeError struct {
	Error
	Target int // requested character offset
	Best   int // offset actually anchored
}

func NewOutOfBoundsRangeError(target, best int) *OutOfBoundsRangeError {
	return &OutOfBoundsRangeError{
		Error: newError(nil, "overlay: offset %d out of bounds, anchored at %d", target, best),
		Target: target,
		Best:   best,
	}
}

// StructuralInvariantError indicates the tree no longer matches the
// bookkeeping the projector relies on (e.g. a chunk's node is no longer a
// child of its recorded parent). Fatal — abort the document.
type StructuralInvariantError struct{ Error }

func NewStructuralInvariantError(cause error, msg string, args ...any) *StructuralInvariantError {
	return &StructuralInvariantError{newError(cause, msg, args...)}
}

// DanglingReferenceError marks a reference to an identifier that was never
// defined — an annotation's fs/@type pointing at no tagset's tag, for
// instance (pkg/tei's reader).
type DanglingReferenceError struct{ Error }

func NewDanglingReferenceError(cause error, msg string, args ...any) *DanglingReferenceError {
	return &DanglingReferenceError{newError(cause, msg, args...)}
}
