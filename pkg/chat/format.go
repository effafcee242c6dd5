package chat

import "strings"

// maxSpeakerLength bounds how far into a message a "Name:" prefix may appear.
const maxSpeakerLength = 50

// FormatWithSpeaker prefixes message with "speaker: " unless the message
// already starts with a speaker prefix.
func FormatWithSpeaker(message, speaker string) string {
	if idx := strings.Index(message, ":"); idx > 0 && idx <= maxSpeakerLength {
		return message
	}
	return speaker + ": " + message
}
