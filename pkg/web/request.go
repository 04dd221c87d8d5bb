// Package web holds the HTTP vocabulary of the framework: the Request
// and Response types, the Cookie value type, and the textual HTTP/1.x
// subset framing used to read requests from and write responses to a
// raw TCP connection.
//
// The wire format is deliberately minimal: a request line, headers, a
// blank line, and an optional Content-Length-delimited body. There is
// no chunked transfer, no compression, and no persistent connections.
package web

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/cmayhew/weft/pkg/session"
)

// SessionCookie is the name of the cookie carrying the session id.
const SessionCookie = "weft_session"

// DefaultMaxBodyBytes caps the request body when ReadRequest is given
// a non-positive limit.
const DefaultMaxBodyBytes = 1 << 20

// ErrBodyTooLarge is returned when the declared Content-Length exceeds
// the body limit. The declaration is rejected before any body bytes
// are read or buffered.
var ErrBodyTooLarge = errors.New("request body exceeds limit")

// Principal identifies an authenticated caller. It is attached to the
// request by authentication middleware and is nil for anonymous requests.
type Principal struct {
	// Subject is the unique identifier of the caller (required, non-empty).
	Subject string

	// Metadata carries authenticator-specific data.
	Metadata map[string]string
}

// Request is a parsed HTTP request. It is owned exclusively by the
// connection that produced it and must not be shared across connections.
type Request struct {
	Method string
	Path   string
	Proto  string

	// RawQuery is the portion of the request target after "?", if any.
	RawQuery string

	// Headers maps canonicalized header names to values. Duplicate
	// header names are last-write-wins.
	Headers map[string]string

	// Body is the raw request body, read according to Content-Length.
	Body string

	// Cookies maps cookie names to values, parsed from the Cookie header.
	Cookies map[string]string

	// Params holds route parameters extracted by the router.
	Params map[string]string

	// Session is the resolved session for this request.
	Session *session.Session

	// Principal is the authenticated caller, or nil.
	Principal *Principal
}

// Header returns the value of the named header. Lookup is
// case-insensitive: names are canonicalized the same way they are at
// parse time. Returns the empty string when the header is absent.
func (r *Request) Header(name string) string {
	return r.Headers[textproto.CanonicalMIMEHeaderKey(name)]
}

// SessionID returns the session id presented by the client, or the
// empty string when no session cookie is present.
func (r *Request) SessionID() string {
	return r.Cookies[SessionCookie]
}

// ReadRequest reads one request from r: the request line, headers up to
// a blank line, and a Content-Length-delimited body when that header is
// present. A declared body larger than maxBody bytes is rejected with
// ErrBodyTooLarge before anything is allocated for it; a non-positive
// maxBody means DefaultMaxBodyBytes. Any other framing violation is
// returned as an error; the caller is expected to answer with a 500 and
// close the connection.
func ReadRequest(r *bufio.Reader, maxBody int64) (*Request, error) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	line, err := readLine(r)
	if err != nil {
		return nil, fmt.Errorf("reading request line: %w", err)
	}

	parts := strings.Fields(line)
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed request line %q", line)
	}

	req := &Request{
		Method:  parts[0],
		Path:    parts[1],
		Proto:   parts[2],
		Headers: make(map[string]string),
		Cookies: make(map[string]string),
		Params:  make(map[string]string),
	}

	if i := strings.IndexByte(req.Path, '?'); i >= 0 {
		req.RawQuery = req.Path[i+1:]
		req.Path = req.Path[:i]
	}

	// Headers until the blank line. Split on the first colon, trim both
	// sides, canonicalize the name. Duplicates are last-write-wins.
	for {
		line, err := readLine(r)
		if err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header line %q", line)
		}
		key := textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(name))
		req.Headers[key] = strings.TrimSpace(value)
	}

	if cookie := req.Headers["Cookie"]; cookie != "" {
		parseCookies(cookie, req.Cookies)
	}

	if cl := req.Headers["Content-Length"]; cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid Content-Length %q", cl)
		}
		if n > maxBody {
			return nil, fmt.Errorf("declared Content-Length %d: %w", n, ErrBodyTooLarge)
		}
		body := make([]byte, n)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
		req.Body = string(body)
	}

	return req, nil
}

// readLine reads a single CRLF- or LF-terminated line, without the
// line ending.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// parseCookies parses a Cookie header value ("a=1; b=2") into dst.
func parseCookies(header string, dst map[string]string) {
	for _, pair := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" {
			continue
		}
		dst[name] = value
	}
}
