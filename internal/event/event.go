package event

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Kind is the closed set of inbound frame types. Dispatch happens through
// one exhaustive switch per consumer instead of string lookups scattered
// around the handlers.
type Kind int

const (
	KindUnknown Kind = iota
	KindChatMessage
	KindRequest
	KindNotice
)

const (
	TypeChatMessage = "chat_message"
	TypeRequest     = "request"
	TypeNotice      = "notice"
)

func ParseKind(s string) Kind {
	switch s {
	case TypeChatMessage:
		return KindChatMessage
	case TypeRequest:
		return KindRequest
	case TypeNotice:
		return KindNotice
	default:
		return KindUnknown
	}
}

// Frame is the raw inbound shape. is_host is never read from the client;
// the session derives it.
type Frame struct {
	Type      string `json:"type" validate:"required"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Envelope is the canonical event stored in the hot cache and fanned out
// to room members. Seq is the per-room tie-break sequence assigned at
// append time.
type Envelope struct {
	Type      string `json:"type" validate:"required"`
	Message   string `json:"message" validate:"required"`
	IsHost    bool   `json:"is_host"`
	Timestamp string `json:"timestamp" validate:"required"`
	Seq       int64  `json:"seq,omitempty"`
}

// Batch is the backlog delivery shape: a single frame carrying up to the
// page cap of envelopes.
type Batch struct {
	Type string     `json:"type"`
	Data []Envelope `json:"data"`
}

var validate = validator.New()

// Validate checks the envelope schema and bounds the message text.
// maxLen counts runes, not bytes.
func (e Envelope) Validate(maxLen int) error {
	if err := validate.Struct(e); err != nil {
		return err
	}
	if n := len([]rune(e.Message)); n > maxLen {
		return fmt.Errorf("message length %d exceeds limit %d", n, maxLen)
	}
	if _, err := ParseTimestamp(e.Timestamp); err != nil {
		return err
	}
	return nil
}

// Timestamp layouts accepted on the wire. Clients send local-looking
// ISO-8601 strings with optional milliseconds; RFC 3339 is accepted too.
var tsLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range tsLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("incorrect timestamp format %q, should be YYYY-MM-DDTHH:MM:SS", s)
}

// FormatTimestamp renders the millisecond-precision wire format.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000")
}
