package transcription

import (
	"strings"
	"time"
	"unicode"
)

// Result is one produced text. It is not persisted.
type Result struct {
	Text        string    `json:"text"`
	PromptUsed  string    `json:"prompt_used"`
	PromptID    string    `json:"prompt_id"`
	ProducedAt  time.Time `json:"produced_at"`
	RecordingID string    `json:"recording_id"`
	Title       string    `json:"title"`
}

// Filename is the export name, "<title>_transcription.txt", with
// characters that are unsafe in file names replaced.
func (r Result) Filename() string {
	title := strings.Map(func(c rune) rune {
		switch {
		case c == '/' || c == '\\' || c == ':' || c == '*' || c == '?' || c == '"' || c == '<' || c == '>' || c == '|':
			return '_'
		case unicode.IsControl(c):
			return -1
		}
		return c
	}, strings.TrimSpace(r.Title))
	title = strings.Trim(title, ". ")
	if title == "" {
		title = "recording"
	}
	return title + "_transcription.txt"
}
