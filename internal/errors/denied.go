package app_error

import "fmt"

// DeniedError rejects a websocket handshake before the upgrade, so the
// client only ever sees close-before-accept. Status maps onto the HTTP
// response written instead of the upgrade.
type DeniedError struct {
	Status int
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("connection denied: %s", e.Reason)
}

func Denied(status int, reason string) *DeniedError {
	return &DeniedError{Status: status, Reason: reason}
}
