// Package prompt holds the instructions sent alongside audio for
// transcription. A Prompt is either a built-in template shipped with the
// application or a user prompt stored per owner; Kind says which.
package prompt
