package stream

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/CitroenGames/Server/internal/protocol"
)

// MediaTypeAudio is the content type used for streamed track bytes.
const MediaTypeAudio = "audio/mpeg"

// MediaTypeJSON is the content type used for description documents.
const MediaTypeJSON = "application/json"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Streamer sends headers followed by file bytes in fixed-size chunks.
type Streamer struct {
	bufferSize int
	logger     *slog.Logger
}

// NewStreamer creates a streamer using the given chunk size
func NewStreamer(bufferSize int, logger *slog.Logger) *Streamer {
	return &Streamer{
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// SendFile streams file bytes from start to end-of-file. The offset is
// clamped into [0, fileSize]; a negative or past-end offset yields an empty
// 200 body rather than an error. The status is always 200, never 206, even
// when a range offset is honored; that asymmetry is part of the protocol.
//
// headerSent reports whether response bytes reached the connection: when
// false the caller may still emit an error response of its own. Once the
// header is out, a write failure aborts the stream and is only returned for
// logging.
func (s *Streamer) SendFile(w io.Writer, path string, start int64, mediaType string) (written int64, headerSent bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	size := info.Size()

	clamped := clamp(start, 0, size)
	if clamped != start {
		s.logger.Debug("Range offset clamped",
			slog.String("path", path),
			slog.Int64("requested", start),
			slog.Int64("clamped", clamped),
		)
	}
	start = clamped

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return 0, false, fmt.Errorf("failed to seek %s: %w", path, err)
	}

	if err := protocol.WriteHeader(w, 200, mediaType, size-start); err != nil {
		return 0, true, fmt.Errorf("failed to write header: %w", err)
	}

	written, err = s.copyChunks(w, f)
	if err != nil {
		return written, true, fmt.Errorf("stream aborted after %d bytes: %w", written, err)
	}
	return written, true, nil
}

// SendDescription streams a description document verbatim from offset 0,
// minus a leading UTF-8 byte-order mark if one is present; the reported
// content length excludes the skipped mark.
func (s *Streamer) SendDescription(w io.Writer, path string) (written int64, headerSent bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	size := info.Size()

	var offset int64
	if size >= int64(len(utf8BOM)) {
		head := make([]byte, len(utf8BOM))
		if _, err := io.ReadFull(f, head); err != nil {
			return 0, false, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if bytes.Equal(head, utf8BOM) {
			offset = int64(len(utf8BOM))
		}
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, false, fmt.Errorf("failed to seek %s: %w", path, err)
	}

	if err := protocol.WriteHeader(w, 200, MediaTypeJSON, size-offset); err != nil {
		return 0, true, fmt.Errorf("failed to write header: %w", err)
	}

	written, err = s.copyChunks(w, f)
	if err != nil {
		return written, true, fmt.Errorf("stream aborted after %d bytes: %w", written, err)
	}
	return written, true, nil
}

// copyChunks copies the remainder of r to w through a bounded buffer. The
// first failed write ends the copy.
func (s *Streamer) copyChunks(w io.Writer, r io.Reader) (int64, error) {
	buf := make([]byte, s.bufferSize)
	return io.CopyBuffer(w, r, buf)
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
