package realtime

import (
	"bytes"
	"sort"
	"strings"
)

// STOMP 1.2 frame commands used by the client.
const (
	CmdConnect     = "CONNECT"
	CmdConnected   = "CONNECTED"
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdSend        = "SEND"
	CmdMessage     = "MESSAGE"
	CmdReceipt     = "RECEIPT"
	CmdError       = "ERROR"
	CmdDisconnect  = "DISCONNECT"
)

// Standard header names.
const (
	HeaderDestination   = "destination"
	HeaderSubscription  = "subscription"
	HeaderID            = "id"
	HeaderAck           = "ack"
	HeaderContentType   = "content-type"
	HeaderMessage       = "message"
	HeaderAcceptVersion = "accept-version"
	HeaderHost          = "host"
	HeaderHeartBeat     = "heart-beat"
)

// Frame is a single STOMP frame. One WebSocket message carries one frame.
type Frame struct {
	Command string
	Headers map[string]string
	Body    []byte
}

// NewFrame builds a frame from alternating header key/value pairs.
func NewFrame(command string, headers ...string) *Frame {
	f := &Frame{Command: command, Headers: make(map[string]string, len(headers)/2)}
	for i := 0; i+1 < len(headers); i += 2 {
		f.Headers[headers[i]] = headers[i+1]
	}
	return f
}

// Marshal serializes the frame for transmission: command line, escaped
// headers, blank line, body, NUL terminator. Headers are written in sorted
// order so output is deterministic.
func (f *Frame) Marshal() []byte {
	var buf bytes.Buffer
	buf.WriteString(f.Command)
	buf.WriteByte('\n')

	keys := make([]string, 0, len(f.Headers))
	for k := range f.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	literal := f.Command == CmdConnect || f.Command == CmdConnected
	for _, k := range keys {
		buf.WriteString(escapeHeader(k, literal))
		buf.WriteByte(':')
		buf.WriteString(escapeHeader(f.Headers[k], literal))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.Write(f.Body)
	buf.WriteByte(0)
	return buf.Bytes()
}

// ParseFrame decodes one frame. A bare EOL heartbeat yields (nil, nil).
// Repeated headers keep the first value, per the STOMP spec.
func ParseFrame(data []byte) (*Frame, error) {
	if len(bytes.TrimLeft(data, "\r\n")) == 0 {
		return nil, nil
	}

	nl := bytes.IndexByte(data, '\n')
	if nl < 0 {
		return nil, ErrMalformedFrame
	}
	command := strings.TrimSuffix(string(data[:nl]), "\r")
	if command == "" {
		return nil, ErrMalformedFrame
	}
	rest := data[nl+1:]

	f := &Frame{Command: command, Headers: make(map[string]string)}
	literal := command == CmdConnected || command == CmdConnect
	for {
		nl = bytes.IndexByte(rest, '\n')
		if nl < 0 {
			return nil, ErrMalformedFrame
		}
		line := strings.TrimSuffix(string(rest[:nl]), "\r")
		rest = rest[nl+1:]
		if line == "" {
			break
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, ErrMalformedFrame
		}
		key, err := unescapeHeader(line[:colon], literal)
		if err != nil {
			return nil, err
		}
		value, err := unescapeHeader(line[colon+1:], literal)
		if err != nil {
			return nil, err
		}
		if _, dup := f.Headers[key]; !dup {
			f.Headers[key] = value
		}
	}

	body := rest
	if i := bytes.IndexByte(body, 0); i >= 0 {
		body = body[:i]
	}
	if len(body) > 0 {
		f.Body = append([]byte(nil), body...)
	}
	return f, nil
}

func escapeHeader(s string, literal bool) string {
	if literal {
		return s
	}
	var buf strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			buf.WriteString(`\\`)
		case '\r':
			buf.WriteString(`\r`)
		case '\n':
			buf.WriteString(`\n`)
		case ':':
			buf.WriteString(`\c`)
		default:
			buf.WriteByte(s[i])
		}
	}
	return buf.String()
}

func unescapeHeader(s string, literal bool) (string, error) {
	if literal || !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var buf strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			buf.WriteByte(s[i])
			continue
		}
		i++
		if i >= len(s) {
			return "", ErrInvalidHeaderEscape
		}
		switch s[i] {
		case '\\':
			buf.WriteByte('\\')
		case 'r':
			buf.WriteByte('\r')
		case 'n':
			buf.WriteByte('\n')
		case 'c':
			buf.WriteByte(':')
		default:
			return "", ErrInvalidHeaderEscape
		}
	}
	return buf.String(), nil
}
