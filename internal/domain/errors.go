package domain

import (
	"errors"
	"fmt"
)

// Kind is the stable category of a failure surfaced by the core.
type Kind string

const (
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindNotFound             Kind = "NOT_FOUND"
	KindPreconditionFailed   Kind = "PRECONDITION_FAILED"
	KindConflictExhausted    Kind = "CONFLICT_EXHAUSTED"
	KindReelGenerationFailed Kind = "REEL_GENERATION_FAILED"
	KindUpstreamUnavailable  Kind = "UPSTREAM_UNAVAILABLE"
	KindInternal             Kind = "INTERNAL"
)

// Error carries a Kind alongside the operation that failed and an optional cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind so callers can write errors.Is(err, domain.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind templates for errors.Is checks.
var (
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrPreconditionFailed   = &Error{Kind: KindPreconditionFailed}
	ErrConflictExhausted    = &Error{Kind: KindConflictExhausted}
	ErrReelGenerationFailed = &Error{Kind: KindReelGenerationFailed}
	ErrUpstreamUnavailable  = &Error{Kind: KindUpstreamUnavailable}
)

// Repository sentinels. Services translate these into kinds.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSlugTaken        = errors.New("slug already taken")
	ErrSessionCompleted = errors.New("session already completed")
	ErrPhotosChanged    = errors.New("session photos changed")
)

func InvalidInput(op, msg string) error {
	return &Error{Kind: KindInvalidInput, Op: op, Msg: msg}
}

func NotFound(op, msg string) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: msg}
}

func PreconditionFailed(op, msg string) error {
	return &Error{Kind: KindPreconditionFailed, Op: op, Msg: msg}
}

func ConflictExhausted(op string, attempts int, err error) error {
	return &Error{Kind: KindConflictExhausted, Op: op, Msg: fmt.Sprintf("slug still taken after %d attempts", attempts), Err: err}
}

func ReelGenerationFailed(op string, err error) error {
	return &Error{Kind: KindReelGenerationFailed, Op: op, Msg: "all reel strategies failed", Err: err}
}

func UpstreamUnavailable(op string, err error) error {
	return &Error{Kind: KindUpstreamUnavailable, Op: op, Err: err}
}

// KindOf reports the kind of err, or KindInternal when none is attached.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
