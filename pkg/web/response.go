package web

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Response is the mutable response under construction for one request.
// It is created fresh per request, shaped by middleware and the
// dispatcher, and written to the connection exactly once.
type Response struct {
	Status      int
	ContentType string
	Body        string

	// Cookies are rendered as one Set-Cookie header each, in order.
	Cookies []Cookie
}

// NewResponse returns a response with the framework defaults: 200 OK
// and an HTML content type.
func NewResponse() *Response {
	return &Response{
		Status:      http.StatusOK,
		ContentType: "text/html",
	}
}

// SetCookie appends a cookie to be sent with the response.
func (r *Response) SetCookie(c Cookie) {
	r.Cookies = append(r.Cookies, c)
}

// Write renders the status line, Content-Type, Content-Length (byte
// length of the final body), one Set-Cookie header per cookie, a blank
// line, and the body, and writes the whole thing to w in one call.
func (r *Response) Write(w io.Writer) error {
	var b strings.Builder

	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", status, http.StatusText(status))
	fmt.Fprintf(&b, "Content-Type: %s\r\n", r.ContentType)
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(r.Body))
	for _, c := range r.Cookies {
		fmt.Fprintf(&b, "Set-Cookie: %s\r\n", c.String())
	}
	b.WriteString("\r\n")
	b.WriteString(r.Body)

	_, err := io.WriteString(w, b.String())
	return err
}
