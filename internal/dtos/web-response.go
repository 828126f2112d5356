package dtos

// Response is the uniform envelope for every REST endpoint. RequestID
// echoes the id from the request id middleware so widget-side logs can be
// correlated with server logs.
type Response[T any] struct {
	Message   string         `json:"message"`
	Data      T              `json:"data"`
	RequestID string         `json:"request_id,omitempty"`
	Errors    *ErrorResponse `json:"errors,omitempty"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
