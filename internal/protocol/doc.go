// Package protocol implements parsing of the server's minimal HTTP-shaped
// request format and emission of its response headers. The parser is
// deliberately not a real HTTP implementation: it extracts the method and
// path from the request line, scans the whole buffer for a single
// "Range: bytes=N-" pattern, and ignores everything else. Its limitations
// (single-range only, no header-line anchoring, no body handling) are part
// of the wire contract and covered by tests.
package protocol
