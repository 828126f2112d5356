package app_error

import (
	"encoding/json"
	"net/http"
)

// Websocket close codes used by the session protocol. 1000 is the normal
// closure from RFC 6455; the 4xxx range is application-defined.
const (
	CloseNormal          = 1000
	CloseProtocolError   = 4000
	CloseForbidden       = 4003
	CloseNotFound        = 4004
	CloseFeatureDisabled = 4009
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e AppError) Error() string {
	return e.Message
}

func (e AppError) JSON(w http.ResponseWriter) error {
	return json.NewEncoder(w).Encode(e)
}

func NewAppError(code int, msg, field string) *AppError {
	return &AppError{
		Code:    code,
		Message: msg,
		Field:   field,
	}
}
