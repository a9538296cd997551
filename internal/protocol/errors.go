package protocol

import (
	"errors"
	"fmt"
)

// ErrorKind names a failure category on the wire.
type ErrorKind string

const (
	KindDuplicateName   ErrorKind = "DuplicateNameError"
	KindNotFound        ErrorKind = "NotFoundError"
	KindInvalidArgument ErrorKind = "InvalidArgumentError"
	KindHandler         ErrorKind = "HandlerError"
	KindTransport       ErrorKind = "TransportError"
)

// KindedError is implemented by every error in the taxonomy.
type KindedError interface {
	error
	Kind() ErrorKind
}

// Compile-time verification that all error types implement KindedError.
var (
	_ KindedError = (*DuplicateNameError)(nil)
	_ KindedError = (*NotFoundError)(nil)
	_ KindedError = (*InvalidArgumentError)(nil)
	_ KindedError = (*HandlerError)(nil)
	_ KindedError = (*TransportError)(nil)
)

// ErrRegistrySealed is returned by registration attempts after serving began.
var ErrRegistrySealed = errors.New("registry is sealed: registration is closed once serving starts")

// KindOf returns the kind of the first KindedError in err's chain.
// Unclassified errors are reported as handler failures.
func KindOf(err error) ErrorKind {
	var ke KindedError
	if errors.As(err, &ke) {
		return ke.Kind()
	}
	return KindHandler
}

// DuplicateNameError is returned when a name is registered twice in a class.
type DuplicateNameError struct {
	Class Class
	Name  string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s '%s' is already registered", e.Class, e.Name)
}

// Kind implements KindedError.
func (e *DuplicateNameError) Kind() ErrorKind { return KindDuplicateName }

// NotFoundError is returned when a capability name is unknown.
type NotFoundError struct {
	Class Class
	Name  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown %s '%s'", e.Class, e.Name)
}

// Kind implements KindedError.
func (e *NotFoundError) Kind() ErrorKind { return KindNotFound }

// InvalidArgumentError reports a schema mismatch for one parameter.
type InvalidArgumentError struct {
	Param  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e.Param == "" {
		return e.Reason
	}
	return fmt.Sprintf("argument '%s': %s", e.Param, e.Reason)
}

// Kind implements KindedError.
func (e *InvalidArgumentError) Kind() ErrorKind { return KindInvalidArgument }

// Parameter returns the offending parameter name.
func (e *InvalidArgumentError) Parameter() string { return e.Param }

// HandlerError wraps a failure raised by a collaborator handler.
type HandlerError struct {
	Message string
	Err     error
}

func (e *HandlerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "handler failed"
}

func (e *HandlerError) Unwrap() error { return e.Err }

// Kind implements KindedError.
func (e *HandlerError) Kind() ErrorKind { return KindHandler }

// TransportError reports a frame that could not be decoded or written.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Kind implements KindedError.
func (e *TransportError) Kind() ErrorKind { return KindTransport }
