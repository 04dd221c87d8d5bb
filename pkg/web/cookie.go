package web

import (
	"net/http"
	"strings"
	"time"
)

// Cookie is a Set-Cookie value. The zero Expires time means the
// Expires clause is omitted (a session cookie).
type Cookie struct {
	Name     string
	Value    string
	Expires  time.Time
	Path     string
	HttpOnly bool
	Secure   bool
}

// String renders the cookie in its canonical wire form. Every present
// clause is terminated by a semicolon and clauses are separated by a
// single space:
//
//	test=3; Expires=Mon, 01 Jan 2024 00:00:00 GMT; Path=/; HttpOnly; Secure;
//
// Optional clauses are omitted entirely when unset.
func (c Cookie) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)
	b.WriteByte(';')

	if !c.Expires.IsZero() {
		b.WriteString(" Expires=")
		b.WriteString(c.Expires.UTC().Format(http.TimeFormat))
		b.WriteByte(';')
	}
	if c.Path != "" {
		b.WriteString(" Path=")
		b.WriteString(c.Path)
		b.WriteByte(';')
	}
	if c.HttpOnly {
		b.WriteString(" HttpOnly;")
	}
	if c.Secure {
		b.WriteString(" Secure;")
	}
	return b.String()
}
