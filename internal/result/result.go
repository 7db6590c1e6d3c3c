// Package result is the single error vocabulary of the module. It maps
// transport status codes to values or typed errors.
package result

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidToken         = errors.New("invalid token")
	ErrMalformedToken       = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrInvalidGateway       = errors.New("invalid gateway url")
	ErrDuplicateMediaStream = errors.New("a local audio stream is already active")
	ErrInvalidMediaHandle   = errors.New("invalid media handle")
	ErrNotOwner             = errors.New("media is owned by a remote peer")
	ErrInvalidState         = errors.New("invalid state")
	ErrTransport            = errors.New("transport error")
)

// TransportError is an opaque failure reported by the network layer.
type TransportError struct {
	Code    uint32
	Message string
}

func (e *TransportError) Error() string {
	if e.Code == 0 {
		return "transport: " + e.Message
	}
	return fmt.Sprintf("transport: %s (0x%08x)", e.Message, e.Code)
}

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Transport wraps err into a TransportError. Errors that already carry a
// code are returned as they are.
func Transport(err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Message: err.Error()}
}

func Transportf(format string, args ...any) error {
	return &TransportError{Message: fmt.Sprintf(format, args...)}
}
