package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// ErrAuthFailed covers both an unknown user and a wrong secret.
	ErrAuthFailed     = fmt.Errorf("authentication failed")
	ErrNameTaken      = fmt.Errorf("username already exists")
	ErrNotFound       = fmt.Errorf("identity not found")
	ErrMalformedInput = fmt.Errorf("malformed input")
	ErrStorage        = fmt.Errorf("storage failure")
	ErrTransport      = fmt.Errorf("transport failure")
)
