package web

import (
	"strings"
	"testing"
	"time"
)

func TestResponseWriteWireFormat(t *testing.T) {
	res := &Response{
		Status:      200,
		ContentType: "text/plain",
		Body:        "hello",
	}

	var b strings.Builder
	if err := res.Write(&b); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Length: 5\r\n" +
		"\r\n" +
		"hello"
	if got := b.String(); got != want {
		t.Errorf("Write() output = %q, want %q", got, want)
	}
}

func TestResponseWriteSetCookieHeaders(t *testing.T) {
	res := NewResponse()
	res.Body = "ok"
	res.SetCookie(Cookie{Name: "a", Value: "1", Path: "/"})
	res.SetCookie(Cookie{Name: "b", Value: "2", Expires: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})

	var b strings.Builder
	if err := res.Write(&b); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := b.String()

	// Cookies appear in order, one Set-Cookie header each.
	first := strings.Index(out, "Set-Cookie: a=1; Path=/;\r\n")
	second := strings.Index(out, "Set-Cookie: b=2; Expires=Mon, 01 Jan 2024 00:00:00 GMT;\r\n")
	if first == -1 || second == -1 {
		t.Fatalf("missing Set-Cookie headers in %q", out)
	}
	if first > second {
		t.Error("Set-Cookie headers emitted out of order")
	}
}

func TestResponseContentLengthRecomputedFromBody(t *testing.T) {
	res := NewResponse()
	res.Body = "héllo" // multibyte: length must be byte length, not rune count

	var b strings.Builder
	if err := res.Write(&b); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if !strings.Contains(b.String(), "Content-Length: 6\r\n") {
		t.Errorf("expected Content-Length: 6 in %q", b.String())
	}
}
