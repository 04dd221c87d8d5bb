package web

import (
	"testing"
	"time"
)

func TestCookieCanonicalRendering(t *testing.T) {
	c := Cookie{
		Name:     "test",
		Value:    "3",
		Expires:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
	}

	want := "test=3; Expires=Mon, 01 Jan 2024 00:00:00 GMT; Path=/; HttpOnly; Secure;"
	if got := c.String(); got != want {
		t.Errorf("Cookie.String() = %q, want %q", got, want)
	}
}

func TestCookieOptionalClausesOmitted(t *testing.T) {
	tests := []struct {
		name string
		c    Cookie
		want string
	}{
		{
			name: "bare",
			c:    Cookie{Name: "sid", Value: "abc"},
			want: "sid=abc;",
		},
		{
			name: "path only",
			c:    Cookie{Name: "sid", Value: "abc", Path: "/app"},
			want: "sid=abc; Path=/app;",
		},
		{
			name: "httponly only",
			c:    Cookie{Name: "sid", Value: "abc", HttpOnly: true},
			want: "sid=abc; HttpOnly;",
		},
		{
			name: "secure only",
			c:    Cookie{Name: "sid", Value: "abc", Secure: true},
			want: "sid=abc; Secure;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.String(); got != tt.want {
				t.Errorf("Cookie.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCookieExpiresRenderedInGMT(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	c := Cookie{
		Name:    "test",
		Value:   "1",
		Expires: time.Date(2024, 1, 1, 1, 0, 0, 0, loc), // 00:00 UTC
	}

	want := "test=1; Expires=Mon, 01 Jan 2024 00:00:00 GMT;"
	if got := c.String(); got != want {
		t.Errorf("Cookie.String() = %q, want %q", got, want)
	}
}
