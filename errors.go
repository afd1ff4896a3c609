package volcanocache

import (
	"context"
	"errors"
	"fmt"
)

/*
ErrorKind classifies failures surfaced by the pipeline and the cache.

  - validation: a request parameter is out of range or malformed.
    Recoverable by the caller correcting its input.
  - generation: synthesizing a dataset failed. Fatal to the request,
    never to the process or to other cache entries.
  - cache: a cached entry was unreadable. The entry is discarded and
    regenerated; the kind only surfaces if regeneration fails as well.
  - canceled: the caller's context ended before the pipeline finished.
*/
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindGeneration ErrorKind = "generation"
	KindCache      ErrorKind = "cache"
	KindCanceled   ErrorKind = "canceled"
)

var (
	ErrInvalidParams = errors.New("invalid parameters")
	ErrGeneration    = errors.New("dataset generation failed")
	ErrCacheEntry    = errors.New("corrupted cache entry")
)

// Error is the structured failure returned by Pipeline.Run and the
// validators. It carries enough detail to diagnose without a stack trace.
type Error struct {
	Kind    ErrorKind
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(field, detail string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("invalid %s", field),
		Detail:  detail,
		Err:     ErrInvalidParams,
	}
}

// AsError converts any error into a *Error, keeping the kind of errors
// that already carry one and inferring it from sentinels otherwise.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindCanceled, Message: "request canceled", Detail: err.Error(), Err: err}
	case errors.Is(err, ErrInvalidParams):
		return &Error{Kind: KindValidation, Message: "invalid parameters", Detail: err.Error(), Err: err}
	case errors.Is(err, ErrCacheEntry):
		return &Error{Kind: KindCache, Message: "cache entry unusable", Detail: err.Error(), Err: err}
	default:
		return &Error{Kind: KindGeneration, Message: "error processing data", Detail: err.Error(), Err: err}
	}
}
