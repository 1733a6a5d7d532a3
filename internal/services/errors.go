package services

import "errors"

// ErrBusy is returned when an action is attempted while another request or
// an animation holds the gate. Nothing is sent.
var ErrBusy = errors.New("another action is in progress")

// ValidationError is a locally rejected input. It is reported to the user
// and never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
