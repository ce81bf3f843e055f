package zipfmt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned by Scanner.Find when the stream ends before any
// of the requested magics appears.
var ErrNotFound = errors.New("zipfmt: signature not found before end of stream")

// Scanner searches a stream forward for record magics when the exact
// offset of the next record is unknown.
type Scanner struct {
	r         io.ReadSeeker
	chunkSize int
}

// NewScanner returns a Scanner reading r in chunkSize steps.
// A non-positive chunkSize selects DefaultChunkSize.
func NewScanner(r io.ReadSeeker, chunkSize int) *Scanner {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Scanner{r: r, chunkSize: chunkSize}
}

// Find reads forward from the current stream position and returns the
// absolute offset of the first occurrence of any of magics, together with
// the magic that matched. On success the stream is positioned at that
// offset. The first match is accepted as-is; callers that need a genuine
// record must validate it themselves.
func (s *Scanner) Find(magics ...[4]byte) (int64, [4]byte, error) {
	var none [4]byte
	if len(magics) == 0 {
		return 0, none, errors.New("find: no signature given")
	}

	base, err := s.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, none, fmt.Errorf("failed to get current position: %w", err)
	}

	// window holds the tail of the previous chunk so a magic split across
	// two reads is still seen.
	window := make([]byte, 0, s.chunkSize+SignatureLen-1)
	chunk := make([]byte, s.chunkSize)

	for {
		n, readErr := io.ReadFull(s.r, chunk)
		window = append(window, chunk[:n]...)

		if i, magic := indexAny(window, magics); i >= 0 {
			off := base + int64(i)
			if _, err := s.r.Seek(off, io.SeekStart); err != nil {
				return 0, none, fmt.Errorf("failed to seek to signature at offset %d: %w", off, err)
			}
			return off, magic, nil
		}

		switch {
		case errors.Is(readErr, io.EOF), errors.Is(readErr, io.ErrUnexpectedEOF):
			return 0, none, ErrNotFound
		case readErr != nil:
			return 0, none, fmt.Errorf("failed to read chunk at offset %d: %w", base+int64(len(window)-n), readErr)
		}

		keep := min(len(window), SignatureLen-1)
		base += int64(len(window) - keep)
		window = append(window[:0], window[len(window)-keep:]...)
	}
}

// indexAny returns the lowest index in b at which any of magics starts.
func indexAny(b []byte, magics [][4]byte) (int, [4]byte) {
	best := -1
	var found [4]byte
	for _, m := range magics {
		i := bytes.Index(b, m[:])
		if i >= 0 && (best < 0 || i < best) {
			best = i
			found = m
		}
	}
	return best, found
}
