package gateway

import (
	"errors"
	"fmt"
)

const (
	defaultHTTPMessage    = "operation failed"
	defaultNetworkMessage = "network request failed"
)

// ErrAborted is returned for requests superseded by a newer request of the
// same kind or cancelled by the caller. It is never shown to the user.
var ErrAborted = errors.New("request aborted")

// HTTPError is a non-2xx reply of the action endpoint.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NetworkError means no response was received at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", defaultNetworkMessage, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UserMessage is the notice text for err.
func UserMessage(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return defaultNetworkMessage
	}
	return err.Error()
}
