package protocol

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		expected    *Request
		expectError bool
		errorMsg    string
	}{
		{
			name: "simple catalog request",
			data: []byte("GET /catalog HTTP/1.1\r\nHost: localhost\r\n\r\n"),
			expected: &Request{
				Method: "GET",
				Path:   "/catalog",
			},
		},
		{
			name: "stream request with range",
			data: []byte("GET /stream/song HTTP/1.1\r\nHost: localhost\r\nRange: bytes=100-\r\n\r\n"),
			expected: &Request{
				Method:     "GET",
				Path:       "/stream/song",
				RangeStart: 100,
			},
		},
		{
			name: "range pattern matched anywhere in buffer",
			data: []byte("GET /stream/song HTTP/1.1\r\nX-Junk: Range: bytes=42-\r\n\r\n"),
			expected: &Request{
				Method:     "GET",
				Path:       "/stream/song",
				RangeStart: 42,
			},
		},
		{
			name: "range with end bound honors only the start",
			data: []byte("GET /stream/song HTTP/1.1\r\nRange: bytes=200-999\r\n\r\n"),
			expected: &Request{
				Method:     "GET",
				Path:       "/stream/song",
				RangeStart: 200,
			},
		},
		{
			name: "range without dash ignored",
			data: []byte("GET /stream/song HTTP/1.1\r\nRange: bytes=100"),
			expected: &Request{
				Method: "GET",
				Path:   "/stream/song",
			},
		},
		{
			name: "malformed range offset yields zero and flag",
			data: []byte("GET /stream/song HTTP/1.1\r\nRange: bytes=abc-\r\n\r\n"),
			expected: &Request{
				Method:       "GET",
				Path:         "/stream/song",
				RangeStart:   0,
				RangeInvalid: true,
			},
		},
		{
			name: "version missing is tolerated",
			data: []byte("GET /catalog"),
			expected: &Request{
				Method: "GET",
				Path:   "/catalog",
			},
		},
		{
			name: "method is not validated",
			data: []byte("BREW /catalog HTTP/1.1\r\n\r\n"),
			expected: &Request{
				Method: "BREW",
				Path:   "/catalog",
			},
		},
		{
			name:        "empty request",
			data:        []byte{},
			expectError: true,
			errorMsg:    "empty request",
		},
		{
			name:        "request line with single token",
			data:        []byte("GET\r\n"),
			expectError: true,
			errorMsg:    "malformed request line",
		},
		{
			name:        "blank first line",
			data:        []byte("\r\nGET /catalog HTTP/1.1\r\n"),
			expectError: true,
			errorMsg:    "malformed request line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseRequest(tt.data)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if result.Method != tt.expected.Method {
				t.Errorf("Method = %q, expected %q", result.Method, tt.expected.Method)
			}
			if result.Path != tt.expected.Path {
				t.Errorf("Path = %q, expected %q", result.Path, tt.expected.Path)
			}
			if result.RangeStart != tt.expected.RangeStart {
				t.Errorf("RangeStart = %d, expected %d", result.RangeStart, tt.expected.RangeStart)
			}
			if result.RangeInvalid != tt.expected.RangeInvalid {
				t.Errorf("RangeInvalid = %v, expected %v", result.RangeInvalid, tt.expected.RangeInvalid)
			}
		})
	}
}

func TestURLDecode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain id",
			input:    "track01",
			expected: "track01",
		},
		{
			name:     "percent encoded space",
			input:    "my%20song",
			expected: "my song",
		},
		{
			name:     "plus decodes to space",
			input:    "my+song",
			expected: "my song",
		},
		{
			name:     "mixed escapes",
			input:    "caf%C3%A9+mix",
			expected: "caf\xc3\xa9 mix",
		},
		{
			name:     "uppercase hex",
			input:    "%2Fetc",
			expected: "/etc",
		},
		{
			name:     "truncated escape at end",
			input:    "song%4",
			expected: "song%4",
		},
		{
			name:     "lone percent at end",
			input:    "song%",
			expected: "song%",
		},
		{
			name:     "non-hex escape passes through",
			input:    "song%zz1",
			expected: "song%zz1",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := URLDecode(tt.input)
			if result != tt.expected {
				t.Errorf("URLDecode(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{200, "OK"},
		{404, "Not Found"},
		{500, "Internal Server Error"},
		{206, "Unknown"},
		{418, "Unknown"},
	}

	for _, tt := range tests {
		result := StatusText(tt.code)
		if result != tt.expected {
			t.Errorf("StatusText(%d) = %q, expected %q", tt.code, result, tt.expected)
		}
	}
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, 200, "audio/mpeg", 4096); err != nil {
		t.Fatalf("WriteHeader() returned error: %v", err)
	}

	got := buf.String()
	expected := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: audio/mpeg\r\n" +
		"Content-Length: 4096\r\n" +
		"Connection: close\r\n" +
		"Access-Control-Allow-Origin: *\r\n" +
		"\r\n"

	if got != expected {
		t.Errorf("WriteHeader() output:\n%q\nexpected:\n%q", got, expected)
	}
}

func TestWriteResponse(t *testing.T) {
	var buf bytes.Buffer
	body := []byte(`{"error": "Track not found"}`)
	if err := WriteResponse(&buf, 404, "application/json", body); err != nil {
		t.Fatalf("WriteResponse() returned error: %v", err)
	}

	got := buf.String()
	if !strings.HasPrefix(got, "HTTP/1.1 404 Not Found\r\n") {
		t.Errorf("Response missing status line: %q", got)
	}
	if !strings.Contains(got, "Content-Length: 28\r\n") {
		t.Errorf("Response missing content length: %q", got)
	}
	if !strings.HasSuffix(got, "\r\n\r\n"+string(body)) {
		t.Errorf("Response body not after blank line: %q", got)
	}
}
