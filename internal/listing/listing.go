// Package listing reads entry names from an archive's central directory.
// The result is informational only; recovery never depends on it.
package listing

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/klauspost/compress/zip"
)

// Names returns entry names in central directory order.
func Names(r io.ReaderAt, size int64) ([]string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read central directory: %w", err)
	}

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// Log lists the central directory of r through logger. A broken central
// directory is logged as a warning and yields -1.
func Log(logger *slog.Logger, r io.ReaderAt, size int64) int {
	names, err := Names(r, size)
	if err != nil {
		logger.Warn("could not list central directory", "error", err)
		return -1
	}

	logger.Info(fmt.Sprintf("found %d file(s) from central directory", len(names)))
	for _, name := range names {
		logger.Info("central directory entry", "entry", name)
	}
	return len(names)
}
