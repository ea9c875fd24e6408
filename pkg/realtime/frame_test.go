package realtime

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrame_MarshalParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
	}{
		{
			name: "send with body",
			frame: &Frame{
				Command: CmdSend,
				Headers: map[string]string{
					HeaderDestination: "/app/meeting/abc123/chat.sendMessage",
					HeaderContentType: "application/json",
				},
				Body: []byte(`{"content":"hello"}`),
			},
		},
		{
			name: "subscribe without body",
			frame: &Frame{
				Command: CmdSubscribe,
				Headers: map[string]string{
					HeaderID:          "sub-1",
					HeaderDestination: "/topic/meeting/abc123/chat",
				},
			},
		},
		{
			name: "headers needing escapes",
			frame: &Frame{
				Command: CmdSend,
				Headers: map[string]string{
					HeaderDestination: "/queue/a:b",
					HeaderMessage:     "line one\nline two\\tail",
				},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseFrame(test.frame.Marshal())
			if err != nil {
				t.Fatalf("ParseFrame: %v", err)
			}
			if got.Command != test.frame.Command {
				t.Errorf("Command = %q, want %q", got.Command, test.frame.Command)
			}
			for k, want := range test.frame.Headers {
				if got.Headers[k] != want {
					t.Errorf("Headers[%q] = %q, want %q", k, got.Headers[k], want)
				}
			}
			if len(got.Headers) != len(test.frame.Headers) {
				t.Errorf("len(Headers) = %d, want %d", len(got.Headers), len(test.frame.Headers))
			}
			if !bytes.Equal(got.Body, test.frame.Body) {
				t.Errorf("Body = %q, want %q", got.Body, test.frame.Body)
			}
		})
	}
}

func TestParseFrame_Heartbeat(t *testing.T) {
	for _, data := range []string{"\n", "\r\n", "\n\n"} {
		f, err := ParseFrame([]byte(data))
		if err != nil {
			t.Errorf("ParseFrame(%q) error: %v", data, err)
		}
		if f != nil {
			t.Errorf("ParseFrame(%q) = %+v, want nil heartbeat", data, f)
		}
	}
}

func TestParseFrame_ConnectedHeadersAreLiteral(t *testing.T) {
	// CONNECTED headers must not be unescaped per the STOMP 1.2 spec.
	data := []byte("CONNECTED\nversion:1.2\nserver:broker\\1.0\n\n\x00")
	f, err := ParseFrame(data)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if f.Command != CmdConnected {
		t.Errorf("Command = %q, want CONNECTED", f.Command)
	}
	if got := f.Headers["server"]; got != `broker\1.0` {
		t.Errorf(`Headers["server"] = %q, want broker\1.0`, got)
	}
}

func TestParseFrame_DuplicateHeaderKeepsFirst(t *testing.T) {
	data := []byte("MESSAGE\nsubscription:first\nsubscription:second\n\n\x00")
	f, err := ParseFrame(data)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if got := f.Headers[HeaderSubscription]; got != "first" {
		t.Errorf("subscription = %q, want first", got)
	}
}

func TestParseFrame_BodyStopsAtNUL(t *testing.T) {
	data := []byte("MESSAGE\n\nbody\x00trailing")
	f, err := ParseFrame(data)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if string(f.Body) != "body" {
		t.Errorf("Body = %q, want body", f.Body)
	}
}

func TestParseFrame_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"no newline", "MESSAGE", ErrMalformedFrame},
		{"no terminating blank line", "MESSAGE\ndestination:/x", ErrMalformedFrame},
		{"header without colon", "MESSAGE\nnocolon\n\n\x00", ErrMalformedFrame},
		{"bad escape", "MESSAGE\nmsg:bad\\tescape\n\n\x00", ErrInvalidHeaderEscape},
		{"dangling escape", "MESSAGE\nmsg:bad\\\n\n\x00", ErrInvalidHeaderEscape},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := ParseFrame([]byte(test.data)); !errors.Is(err, test.want) {
				t.Errorf("ParseFrame(%q) error = %v, want %v", test.data, err, test.want)
			}
		})
	}
}

func TestNewFrame(t *testing.T) {
	f := NewFrame(CmdSubscribe, HeaderID, "sub-9", HeaderDestination, "/topic/x")
	if f.Headers[HeaderID] != "sub-9" || f.Headers[HeaderDestination] != "/topic/x" {
		t.Errorf("NewFrame headers = %v", f.Headers)
	}
}
