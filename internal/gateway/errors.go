package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies relay failures. None of them are retried
// automatically; each user turn gets exactly one attempt.
type ErrorKind string

const (
	// KindConfig: the model credential is absent or malformed. Fatal and
	// operator-fixable, never retryable.
	KindConfig ErrorKind = "configuration"
	// KindUpstream: the provider rejected the request; Status mirrors the
	// provider's HTTP code.
	KindUpstream ErrorKind = "upstream"
	// KindNetwork: DNS or connection failure reaching the provider.
	KindNetwork ErrorKind = "network"
	// KindTimeout: the caller's deadline expired and the in-flight request
	// was cancelled.
	KindTimeout ErrorKind = "timeout"
	// KindMalformed: the incoming payload was not usable.
	KindMalformed ErrorKind = "malformed"
)

// Error is a classified relay failure. Status is the HTTP status the relay
// endpoint mirrors back to its caller.
type Error struct {
	Kind   ErrorKind
	Status int
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Detail)
}

func newError(kind ErrorKind, status int, format string, args ...any) *Error {
	return &Error{Kind: kind, Status: status, Detail: fmt.Sprintf(format, args...)}
}

// AsError unwraps err into a classified relay error; unclassified errors are
// treated as internal.
func AsError(err error) *Error {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}
	return &Error{Kind: KindUpstream, Status: http.StatusInternalServerError, Detail: err.Error()}
}
