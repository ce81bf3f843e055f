// Package recovery runs one archive recovery: the informational central
// directory listing followed by the local header walk.
package recovery

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ossyrian/zipfix/internal/codec"
	"github.com/ossyrian/zipfix/internal/config"
	"github.com/ossyrian/zipfix/internal/extract"
	"github.com/ossyrian/zipfix/internal/listing"
	"github.com/ossyrian/zipfix/internal/walker"
)

// Options converts app configuration into walker options.
func Options(cfg *config.Config) (walker.Options, error) {
	policy, err := walker.ParseDesyncPolicy(cfg.OnDesync)
	if err != nil {
		return walker.Options{}, err
	}
	if cfg.ChunkSize < 0 {
		return walker.Options{}, fmt.Errorf("invalid chunk size: %d", cfg.ChunkSize)
	}

	return walker.Options{
		ChunkSize:        cfg.ChunkSize,
		OnDesync:         policy,
		VerifyDescriptor: cfg.VerifyDescriptor,
		KeepGoing:        cfg.KeepGoing,
		CP437Names:       cfg.CP437Names,
	}, nil
}

// Run recovers the entries of file into cfg.OutputDir.
func Run(file *os.File, cfg *config.Config) (*walker.Result, error) {
	logger := slog.With(
		"archive", cfg.InputFile,
	)

	opts, err := Options(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	logger.Info("reading central directory")
	listed := listing.Log(logger, file, info.Size())

	fs, err := extract.NewOutputFs(cfg.OutputDir, cfg.DryRun)
	if err != nil {
		return nil, err
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind archive: %w", err)
	}

	logger.Info("reading local file headers",
		"output_dir", cfg.OutputDir,
		"dry_run", cfg.DryRun,
	)

	w := walker.New(file, codec.NewRegistry(), extract.New(fs, cfg.SkipSizeCheck), opts, logger)
	res, err := w.Walk()
	if err != nil {
		return res, err
	}

	logger.Info("recovery finished",
		"stop", res.Stop.String(),
		"recovered", len(res.Entries),
		"skipped", len(res.Skipped),
		"resyncs", res.Resyncs,
		"central_directory_entries", listed,
	)
	return res, nil
}
