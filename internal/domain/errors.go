package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// ValidationError indicates malformed user input or a malformed import document.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e ValidationError) Error() string {
	msg := e.Reason
	if e.Field != "" {
		msg = fmt.Sprintf("%s %s", e.Field, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e ValidationError) Unwrap() error { return e.Err }

// ConnectivityError indicates a remote backend could not be reached or refused
// the credentials.
type ConnectivityError struct {
	Endpoint string
	Err      error
}

func (e ConnectivityError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("remote unreachable: %v", e.Err)
	}
	return fmt.Sprintf("remote %s unreachable: %v", e.Endpoint, e.Err)
}

func (e ConnectivityError) Unwrap() error { return e.Err }

// PermissionError indicates access to a local directory was denied or revoked.
// The directory has to be selected again.
type PermissionError struct {
	Path string
	Err  error
}

func (e PermissionError) Error() string {
	return fmt.Sprintf("permission denied for %s: %v", e.Path, e.Err)
}

func (e PermissionError) Unwrap() error { return e.Err }
