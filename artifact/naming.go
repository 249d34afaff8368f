package artifact

import (
	"fmt"
	"mime"
	"strings"
	"time"
)

// DefaultExtension is used when the media type says nothing useful.
const DefaultExtension = "webm"

// subtypeExtensions maps media subtypes to file extensions where they differ.
var subtypeExtensions = map[string]string{
	"mpeg":     "mp3",
	"mp4":      "m4a",
	"wave":     "wav",
	"vnd.wave": "wav",
	"matroska": "mka",
}

// Extension derives a file extension from a media type such as
// "audio/webm;codecs=opus". Parameters are ignored.
func Extension(mediaType string) string {
	base, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		base, _, _ = strings.Cut(strings.ToLower(mediaType), ";")
		base = strings.TrimSpace(base)
	}
	_, sub, ok := strings.Cut(base, "/")
	if !ok || sub == "" {
		return DefaultExtension
	}
	if ext, ok := subtypeExtensions[sub]; ok {
		return ext
	}
	sub = strings.TrimPrefix(sub, "x-")
	if ext, ok := subtypeExtensions[sub]; ok {
		return ext
	}
	if strings.ContainsAny(sub, "./+") {
		return DefaultExtension
	}
	return sub
}

// ObjectPath names a recording object: <owner>/recording_YYYYMMDD_HHMMSS.<ext>.
// Two saves by the same owner within one second collide.
func ObjectPath(ownerID string, at time.Time, mediaType string) string {
	return fmt.Sprintf("%s/recording_%s.%s", ownerID, at.Format("20060102_150405"), Extension(mediaType))
}
