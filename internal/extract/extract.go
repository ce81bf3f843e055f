// Package extract verifies recovered entries and writes them to storage.
package extract

import (
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var (
	ErrSizeMismatch     = errors.New("extract: size mismatch")
	ErrChecksumMismatch = errors.New("extract: checksum mismatch")
)

// Materializer writes verified entries into an afero filesystem.
type Materializer struct {
	fs afero.Fs

	// skipSizeCheck disables the length comparison; the checksum is
	// always enforced.
	skipSizeCheck bool
}

// New returns a Materializer writing into fs.
func New(fs afero.Fs, skipSizeCheck bool) *Materializer {
	return &Materializer{fs: fs, skipSizeCheck: skipSizeCheck}
}

// NewOutputFs returns the filesystem recovered entries are written to.
// Real runs are confined to dir so names cannot climb out of it;
// dry runs write to memory.
func NewOutputFs(dir string, dryRun bool) (afero.Fs, error) {
	if dryRun {
		return afero.NewMemMapFs(), nil
	}

	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return afero.NewBasePathFs(afero.NewOsFs(), abs), nil
}

// IsDir reports whether an entry name denotes a directory.
func IsDir(name string) bool {
	return strings.HasSuffix(name, "/")
}

// WriteEntry persists one recovered entry.
//
// A name ending in `/` creates a directory and payload is ignored.
// Otherwise payload must be expectedSize bytes long and hash to
// expectedCRC; nothing is written unless both hold.
func (m *Materializer) WriteEntry(name string, payload []byte, expectedCRC uint32, expectedSize uint64) error {
	target := filepath.FromSlash(name)

	if IsDir(name) {
		if err := m.fs.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", name, err)
		}
		return nil
	}

	if !m.skipSizeCheck && uint64(len(payload)) != expectedSize {
		return fmt.Errorf("%w: unzipped data doesn't match expected size, %d != %d, in %s",
			ErrSizeMismatch, len(payload), expectedSize, name)
	}

	if sum := crc32.ChecksumIEEE(payload); sum != expectedCRC {
		return fmt.Errorf("%w: %08x != %08x, in %s", ErrChecksumMismatch, sum, expectedCRC, name)
	}

	if dir := filepath.Dir(target); dir != "." {
		if err := m.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create parent directory for %s: %w", name, err)
		}
	}

	if err := afero.WriteFile(m.fs, target, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
