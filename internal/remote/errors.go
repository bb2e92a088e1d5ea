package remote

import (
	"errors"
	"fmt"
)

// TransportError means the server could not be reached or its reply could
// not be read.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("reach %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StoreError means the server answered but reported failure.
type StoreError struct {
	Status  int
	Message string
}

func (e *StoreError) Error() string {
	if e.Status == 0 {
		return "store error: " + e.Message
	}
	return fmt.Sprintf("store error (%d): %s", e.Status, e.Message)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsStore reports whether err is a StoreError.
func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
