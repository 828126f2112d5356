package event

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindChatMessage, ParseKind("chat_message"))
	assert.Equal(t, KindRequest, ParseKind("request"))
	assert.Equal(t, KindNotice, ParseKind("notice"))

	// Anything outside the closed set maps to unknown, including casing
	// and whitespace variants.
	assert.Equal(t, KindUnknown, ParseKind("CHAT_MESSAGE"))
	assert.Equal(t, KindUnknown, ParseKind("chat_message "))
	assert.Equal(t, KindUnknown, ParseKind(""))
	assert.Equal(t, KindUnknown, ParseKind("shutdown"))
}

func TestEnvelopeValidate_Success(t *testing.T) {
	env := Envelope{
		Type:      TypeChatMessage,
		Message:   "hello there",
		Timestamp: "2026-08-30T10:15:00.123",
	}

	assert.NoError(t, env.Validate(1000))
}

func TestEnvelopeValidate_EmptyMessage(t *testing.T) {
	env := Envelope{
		Type:      TypeChatMessage,
		Timestamp: "2026-08-30T10:15:00.123",
	}

	assert.Error(t, env.Validate(1000), "empty message should fail required validation")
}

func TestEnvelopeValidate_MessageLengthBound(t *testing.T) {
	atLimit := Envelope{
		Type:      TypeChatMessage,
		Message:   strings.Repeat("가", 1000),
		Timestamp: "2026-08-30T10:15:00.123",
	}
	assert.NoError(t, atLimit.Validate(1000), "limit counts runes, not bytes")

	overLimit := Envelope{
		Type:      TypeChatMessage,
		Message:   strings.Repeat("a", 1001),
		Timestamp: "2026-08-30T10:15:00.123",
	}
	assert.Error(t, overLimit.Validate(1000))
}

func TestEnvelopeValidate_BadTimestamp(t *testing.T) {
	env := Envelope{
		Type:      TypeChatMessage,
		Message:   "hi",
		Timestamp: "30-08-2026 10:15",
	}

	assert.Error(t, env.Validate(1000))
}

func TestParseTimestamp_AcceptedLayouts(t *testing.T) {
	cases := []string{
		"2026-08-30T10:15:00.123",
		"2026-08-30T10:15:00",
		"2026-08-30T10:15:00Z",
	}
	for _, c := range cases {
		_, err := ParseTimestamp(c)
		assert.NoError(t, err, "should parse %q", c)
	}

	_, err := ParseTimestamp("not-a-timestamp")
	assert.Error(t, err)
}

func TestFormatTimestamp_RoundTrip(t *testing.T) {
	orig := time.Date(2026, 8, 30, 10, 15, 0, 123_000_000, time.UTC)

	parsed, err := ParseTimestamp(FormatTimestamp(orig))
	require.NoError(t, err)
	assert.Equal(t, orig.UnixMilli(), parsed.UnixMilli(), "millisecond precision should survive the round trip")
}
