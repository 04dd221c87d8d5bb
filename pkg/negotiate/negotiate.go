// Package negotiate chooses a response representation format from the
// client's Accept preference list against a registry of supported
// serializers, and performs the serialization itself.
package negotiate

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/cmayhew/weft/pkg/web"
)

// Built-in format names. Formats are identified by their media type.
const (
	HTML  = "text/html"
	JSON  = "application/json"
	XML   = "application/xml"
	Plain = "text/plain"
)

// SerializeFunc renders a value in one representation format.
type SerializeFunc func(v any) (string, error)

// Negotiator maps Accept preferences to a supported format and holds
// the serializer bound to each format. The registry is populated at
// startup and read-only afterwards.
type Negotiator struct {
	formats map[string]SerializeFunc
}

// New returns a negotiator with the built-in formats registered:
// HTML, JSON, XML, and plain text.
func New() *Negotiator {
	n := &Negotiator{formats: make(map[string]SerializeFunc)}
	n.Register(HTML, serializeString)
	n.Register(Plain, serializeString)
	n.Register(JSON, func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	})
	n.Register(XML, func(v any) (string, error) {
		b, err := xml.Marshal(v)
		return string(b), err
	})
	return n
}

// Register binds a serializer to a format name, replacing any
// existing binding. Not safe to call concurrently with Negotiate or
// Serialize; register everything at startup.
func (n *Negotiator) Register(format string, fn SerializeFunc) {
	n.formats[format] = fn
}

// Negotiate picks the response format for a request. The Accept header
// is treated as a comma-separated preference list in client order; the
// first entry present in the registry wins. When nothing matches, the
// path's file extension is consulted, and failing that the result is
// HTML.
func (n *Negotiator) Negotiate(req *web.Request) string {
	for _, entry := range strings.Split(req.Header("Accept"), ",") {
		// Drop any quality parameters ("text/html;q=0.9").
		name, _, _ := strings.Cut(strings.TrimSpace(entry), ";")
		if _, ok := n.formats[name]; ok {
			return name
		}
	}

	if format, ok := formatForExtension(path.Ext(req.Path)); ok {
		if _, registered := n.formats[format]; registered {
			return format
		}
	}

	return HTML
}

// Serialize renders v in the given format. A nil value yields the
// empty string. A missing format or a serializer failure degrades to
// the value's default string form rather than failing the request.
func (n *Negotiator) Serialize(v any, format string) string {
	if v == nil {
		return ""
	}

	fn, ok := n.formats[format]
	if !ok {
		return fmt.Sprint(v)
	}

	out, err := fn(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return out
}

// formatForExtension guesses a format from a path extension.
func formatForExtension(ext string) (string, bool) {
	switch ext {
	case ".html", ".htm":
		return HTML, true
	case ".json":
		return JSON, true
	case ".xml":
		return XML, true
	case ".txt":
		return Plain, true
	}
	return "", false
}

// serializeString renders strings verbatim and everything else via fmt.
func serializeString(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}
