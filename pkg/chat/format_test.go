package chat

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestFormatWithSpeaker(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		speaker  string
		expected string
	}{
		{
			name:     "adds speaker prefix to plain message",
			message:  "Computer, make it rain.",
			speaker:  "Riker",
			expected: "Riker: Computer, make it rain.",
		},
		{
			name:     "preserves existing speaker prefix",
			message:  "Narrator: The holodeck hums.",
			speaker:  "Riker",
			expected: "Narrator: The holodeck hums.",
		},
		{
			name:     "preserves colon in sentence (acceptable false positive)",
			message:  "I look at the map: it shows a path.",
			speaker:  "Riker",
			expected: "I look at the map: it shows a path.",
		},
		{
			name:     "handles empty message",
			message:  "",
			speaker:  "Riker",
			expected: "Riker: ",
		},
		{
			name:     "prefixes when colon is past the speaker limit",
			message:  "This is a really really really really really long name: message",
			speaker:  "Data",
			expected: "Data: This is a really really really really really long name: message",
		},
		{
			name:     "preserves speaker names with spaces",
			message:  "Captain Picard: Engage.",
			speaker:  "Riker",
			expected: "Captain Picard: Engage.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWithSpeaker(tt.message, tt.speaker)
			if result != tt.expected {
				t.Errorf("FormatWithSpeaker(%q, %q) = %q; want %q",
					tt.message, tt.speaker, result, tt.expected)
			}
		})
	}
}

func TestRoundRequest_Validate(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	tests := []struct {
		name    string
		req     RoundRequest
		wantErr bool
	}{
		{
			name: "valid short message",
			req:  RoundRequest{SessionID: id, Message: "Computer, start a western."},
		},
		{
			name: "empty message continues the round",
			req:  RoundRequest{SessionID: id},
		},
		{
			name: "message at max length",
			req:  RoundRequest{SessionID: id, Message: strings.Repeat("a", MaxMessageLength)},
		},
		{
			name:    "message too long",
			req:     RoundRequest{SessionID: id, Message: strings.Repeat("a", MaxMessageLength+1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), "exceeds maximum length") {
				t.Errorf("unexpected error message: %v", err)
			}
		})
	}
}
