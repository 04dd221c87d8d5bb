package negotiate

import (
	"testing"

	"github.com/cmayhew/weft/pkg/web"
)

func request(path, accept string) *web.Request {
	headers := map[string]string{}
	if accept != "" {
		headers["Accept"] = accept
	}
	return &web.Request{Path: path, Headers: headers}
}

func TestNegotiateClientPreferenceOrderWins(t *testing.T) {
	n := New()

	// First registry hit in client order wins, regardless of any
	// server-side ordering.
	got := n.Negotiate(request("/users/all", "application/json,text/html"))
	if got != JSON {
		t.Errorf("Negotiate() = %q, want %q", got, JSON)
	}

	got = n.Negotiate(request("/users/all", "text/html,application/json"))
	if got != HTML {
		t.Errorf("Negotiate() = %q, want %q", got, HTML)
	}
}

func TestNegotiateSkipsUnknownEntries(t *testing.T) {
	n := New()

	got := n.Negotiate(request("/", "image/png, application/xml"))
	if got != XML {
		t.Errorf("Negotiate() = %q, want %q", got, XML)
	}
}

func TestNegotiateStripsQualityParameters(t *testing.T) {
	n := New()

	got := n.Negotiate(request("/", "application/json;q=0.9, text/html;q=0.8"))
	if got != JSON {
		t.Errorf("Negotiate() = %q, want %q", got, JSON)
	}
}

func TestNegotiateFallsBackToExtension(t *testing.T) {
	n := New()

	tests := []struct {
		path string
		want string
	}{
		{"/report.json", JSON},
		{"/report.xml", XML},
		{"/notes.txt", Plain},
		{"/index.html", HTML},
	}
	for _, tt := range tests {
		if got := n.Negotiate(request(tt.path, "image/png")); got != tt.want {
			t.Errorf("Negotiate(%s) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNegotiateDefaultsToHTML(t *testing.T) {
	n := New()

	if got := n.Negotiate(request("/users/all", "")); got != HTML {
		t.Errorf("Negotiate() = %q, want %q", got, HTML)
	}
	if got := n.Negotiate(request("/users/all", "image/png")); got != HTML {
		t.Errorf("Negotiate() = %q, want %q", got, HTML)
	}
}

func TestSerializeJSON(t *testing.T) {
	n := New()

	got := n.Serialize(map[string]int{"a": 1}, JSON)
	if got != `{"a":1}` {
		t.Errorf("Serialize() = %q, want %q", got, `{"a":1}`)
	}
}

func TestSerializeNilIsEmpty(t *testing.T) {
	n := New()

	if got := n.Serialize(nil, JSON); got != "" {
		t.Errorf("Serialize(nil) = %q, want empty", got)
	}
}

func TestSerializeFailureDegradesToStringForm(t *testing.T) {
	n := New()

	// Channels cannot be marshaled; the value's default string form is
	// used instead of failing the request.
	ch := make(chan int)
	if got := n.Serialize(ch, JSON); got == "" {
		t.Error("Serialize() degraded form must not be empty")
	}

	// XML cannot marshal maps either.
	if got := n.Serialize(map[string]int{"a": 1}, XML); got != "map[a:1]" {
		t.Errorf("Serialize() = %q, want degraded map form", got)
	}
}

func TestSerializeUnknownFormatDegrades(t *testing.T) {
	n := New()

	if got := n.Serialize(42, "application/unknown"); got != "42" {
		t.Errorf("Serialize() = %q, want %q", got, "42")
	}
}

func TestSerializeStringVerbatimForTextFormats(t *testing.T) {
	n := New()

	if got := n.Serialize("<b>hi</b>", HTML); got != "<b>hi</b>" {
		t.Errorf("Serialize() = %q, want verbatim string", got)
	}
	if got := n.Serialize("plain", Plain); got != "plain" {
		t.Errorf("Serialize() = %q, want verbatim string", got)
	}
}
