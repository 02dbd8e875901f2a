package protocol

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// Range header pattern searched for anywhere in the request buffer.
// Only the start offset is honored; a second bound is never parsed.
const rangePrefix = "Range: bytes="

// Request represents one parsed inbound request.
type Request struct {
	Method     string
	Path       string
	RangeStart int64

	// RangeInvalid is set when a Range header was present but its offset
	// could not be parsed; RangeStart is 0 in that case.
	RangeInvalid bool
}

// ParseRequest extracts the method, path and optional range offset from a raw
// request buffer. The request line is whitespace-split; the protocol version
// is tolerated but ignored. Anything after the request line is only consulted
// for the Range pattern.
func ParseRequest(data []byte) (*Request, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty request")
	}

	line := data
	if idx := bytes.IndexAny(data, "\r\n"); idx >= 0 {
		line = data[:idx]
	}

	fields := bytes.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("malformed request line: %q", string(line))
	}

	req := &Request{
		Method: string(fields[0]),
		Path:   string(fields[1]),
	}

	start, ok, err := parseRangeStart(data)
	if err != nil {
		req.RangeInvalid = true
	} else if ok {
		req.RangeStart = start
	}

	return req, nil
}

// parseRangeStart scans the buffer for the Range pattern. It returns the
// offset and true when a well-formed "Range: bytes=N-" is found, false when
// no Range header (or no trailing dash) is present, and an error when the
// offset digits fail to parse.
func parseRangeStart(data []byte) (int64, bool, error) {
	pos := bytes.Index(data, []byte(rangePrefix))
	if pos < 0 {
		return 0, false, nil
	}

	rest := data[pos+len(rangePrefix):]
	dash := bytes.IndexByte(rest, '-')
	if dash < 0 {
		return 0, false, nil
	}

	start, err := strconv.ParseInt(string(rest[:dash]), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid range offset %q: %w", string(rest[:dash]), err)
	}

	return start, true, nil
}

// URLDecode decodes percent escapes and '+' characters in a path segment.
// A truncated escape at the end of the input passes the '%' through
// literally, as does an escape with non-hex digits.
func URLDecode(value string) string {
	decoded := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		switch {
		case value[i] == '%' && i+2 < len(value):
			hi, okHi := hexVal(value[i+1])
			lo, okLo := hexVal(value[i+2])
			if okHi && okLo {
				decoded = append(decoded, hi<<4|lo)
				i += 2
			} else {
				decoded = append(decoded, '%')
			}
		case value[i] == '+':
			decoded = append(decoded, ' ')
		default:
			decoded = append(decoded, value[i])
		}
	}
	return string(decoded)
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// StatusText returns the reason phrase for the few status codes this server
// emits.
func StatusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 404:
		return "Not Found"
	case 500:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}

// WriteHeader emits the status line and header block. Every response closes
// the connection and allows any origin.
func WriteHeader(w io.Writer, status int, contentType string, contentLength int64) error {
	header := fmt.Sprintf(
		"HTTP/1.1 %d %s\r\nContent-Type: %s\r\nContent-Length: %d\r\nConnection: close\r\nAccess-Control-Allow-Origin: *\r\n\r\n",
		status, StatusText(status), contentType, contentLength)

	_, err := io.WriteString(w, header)
	return err
}

// WriteResponse emits a complete response with an in-memory body.
func WriteResponse(w io.Writer, status int, contentType string, body []byte) error {
	if err := WriteHeader(w, status, contentType, int64(len(body))); err != nil {
		return err
	}

	_, err := w.Write(body)
	return err
}

// String returns a human-readable representation of the request
func (r *Request) String() string {
	return fmt.Sprintf("Request{Method:%s, Path:%s, RangeStart:%d}", r.Method, r.Path, r.RangeStart)
}
