package transport

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by Send while no push connection is open.
var ErrNotConnected = errors.New("push channel not connected")

// ConnectError reports a push channel that failed to establish or dropped.
type ConnectError struct {
	URL string
	Err error
}

func (e *ConnectError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("push channel %s closed", e.URL)
	}
	return fmt.Sprintf("push channel %s: %v", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
