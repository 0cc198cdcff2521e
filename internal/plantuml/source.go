package plantuml

import (
	"errors"
	"strings"
)

// StartMarker opens every UML diagram description.
const StartMarker = "@startuml"

// ErrMissingStartMarker is returned when a diagram source has no StartMarker.
var ErrMissingStartMarker = errors.New("plantuml: source has no " + StartMarker + " marker")

// Inject inserts header immediately after the first StartMarker in src.
//
// The header is inserted verbatim; callers that want it on its own line
// include the leading newline themselves. An empty header returns src as-is
// once the marker has been found.
func Inject(src, header string) (string, error) {
	idx := strings.Index(src, StartMarker)
	if idx < 0 {
		return "", ErrMissingStartMarker
	}
	if header == "" {
		return src, nil
	}
	at := idx + len(StartMarker)
	var b strings.Builder
	b.Grow(len(src) + len(header))
	b.WriteString(src[:at])
	b.WriteString(header)
	b.WriteString(src[at:])
	return b.String(), nil
}

// URL joins a rendering server base URL and an encoded diagram with exactly one slash.
func URL(server, encoded string) string {
	return strings.TrimRight(server, "/") + "/" + encoded
}
