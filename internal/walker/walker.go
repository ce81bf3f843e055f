// Package walker recovers ZIP entries by walking the local file headers
// of an archive body instead of trusting its central directory.
package walker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ossyrian/zipfix/internal/codec"
	"github.com/ossyrian/zipfix/internal/extract"
	"github.com/ossyrian/zipfix/internal/zipfmt"
)

// EntryWriter verifies and persists a recovered entry.
type EntryWriter interface {
	WriteEntry(name string, payload []byte, expectedCRC uint32, expectedSize uint64) error
}

// Walker reads local file headers from an archive stream in order.
// It owns the stream position for the duration of Walk.
type Walker struct {
	file    io.ReadSeeker
	codec   codec.Decompressor
	sink    EntryWriter
	opts    Options
	logger  *slog.Logger
	scanner *zipfmt.Scanner
}

// New returns a Walker over file. A nil logger uses slog.Default().
func New(file io.ReadSeeker, dec codec.Decompressor, sink EntryWriter, opts Options, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.OnDesync == "" {
		opts.OnDesync = DesyncAbort
	}
	return &Walker{
		file:    file,
		codec:   dec,
		sink:    sink,
		opts:    opts,
		logger:  logger,
		scanner: zipfmt.NewScanner(file, opts.chunkSize()),
	}
}

// errTruncated marks a soft stop: the stream ended inside a record, or a
// located data descriptor could not be read back.
var errTruncated = errors.New("stream ended early")

// Walk processes entries from the current stream position until the
// central directory, the end of the stream, or a fatal error.
//
// Reaching the end of the stream early is not an error; the returned
// Result then has Stop set to StopTruncated. Entries written before a
// fatal error stay on storage and are listed in the Result.
func (w *Walker) Walk() (*Result, error) {
	res := &Result{}

	for {
		offset, err := w.file.Seek(0, io.SeekCurrent)
		if err != nil {
			return res, fmt.Errorf("failed to get current position: %w", err)
		}

		hdr, stop, err := w.awaitHeader(offset)
		if err != nil {
			if w.opts.OnDesync != DesyncScanForward || !errors.Is(err, zipfmt.ErrSignatureMismatch) {
				return res, err
			}
			if err := w.resync(offset); err != nil {
				if errors.Is(err, zipfmt.ErrNotFound) {
					w.stopTruncated(res, offset)
					return res, nil
				}
				return res, err
			}
			res.Resyncs++
			continue
		}

		switch stop {
		case StopCentralDirectory:
			w.logger.Info("found start of central directory, all entries processed",
				"offset", offset,
				"entries", len(res.Entries),
			)
			res.Stop = stop
			return res, nil
		case StopTruncated:
			w.stopTruncated(res, offset)
			return res, nil
		}

		entry, err := w.processEntry(offset, hdr)
		switch {
		case errors.Is(err, errTruncated):
			w.stopTruncated(res, offset)
			return res, nil
		case err != nil && w.opts.KeepGoing && skippable(err):
			w.logger.Warn("skipping entry",
				"entry", hdr.Name,
				"offset", offset,
				"error", err,
			)
			res.Skipped = append(res.Skipped, *entry)
		case err != nil:
			return res, &EntryError{Name: hdr.Name, Offset: offset, Err: err}
		default:
			res.Entries = append(res.Entries, *entry)
		}
	}
}

func (w *Walker) stopTruncated(res *Result, offset int64) {
	w.logger.Warn("found end of file, some entries may have been missed",
		"offset", offset,
		"entries", len(res.Entries),
	)
	res.Stop = StopTruncated
}

// awaitHeader reads one fixed-size header record at offset and decides
// whether the walk stops there or an entry follows.
func (w *Walker) awaitHeader(offset int64) (*zipfmt.LocalFileHeader, StopReason, error) {
	var buf [zipfmt.LocalHeaderLen]byte

	n, err := io.ReadFull(w.file, buf[:])
	sig, hasSig := zipfmt.Signature(buf[:n])
	if hasSig && (sig == zipfmt.CentralDirMagic || sig == zipfmt.EndOfCentralDirMagic) {
		return nil, StopCentralDirectory, nil
	}

	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return nil, StopTruncated, nil
	case err != nil:
		return nil, 0, fmt.Errorf("failed to read header at offset %d: %w", offset, err)
	}

	hdr, err := zipfmt.DecodeLocalHeader(buf[:])
	if err != nil {
		return nil, 0, &EntryError{Offset: offset, Err: err}
	}
	return hdr, 0, nil
}

// resync positions the stream at the next recognizable record after a
// header that failed to decode at offset.
func (w *Walker) resync(offset int64) error {
	if _, err := w.file.Seek(offset+1, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek past offset %d: %w", offset, err)
	}

	next, magic, err := w.scanner.Find(zipfmt.LocalHeaderMagic, zipfmt.CentralDirMagic, zipfmt.EndOfCentralDirMagic)
	if err != nil {
		return err
	}

	w.logger.Warn("resynchronized after unrecognized header",
		"offset", offset,
		"resumed_at", next,
		"skipped_bytes", next-offset,
		"signature", fmt.Sprintf("%q", magic),
	)
	return nil
}

// processEntry takes an entry from its decoded header through size
// resolution, decompression and storage, leaving the stream at the
// next header. The returned Entry is non-nil whenever the header's
// variable fields were read.
func (w *Walker) processEntry(offset int64, hdr *zipfmt.LocalFileHeader) (*Entry, error) {
	vars := make([]byte, int(hdr.NameLength)+int(hdr.ExtraLength))
	if _, err := io.ReadFull(w.file, vars); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errTruncated
		}
		return nil, fmt.Errorf("failed to read name and extra field: %w", err)
	}
	hdr.Name = zipfmt.DecodeName(vars[:hdr.NameLength], hdr.Flags, w.opts.CP437Names)
	hdr.Extra = vars[hdr.NameLength:]

	logger := w.logger.With("entry", hdr.Name, "offset", offset)
	logger.Info("found entry",
		"method", hdr.Method,
		"deferred", hdr.Deferred(),
		"dir", hdr.IsDir(),
	)
	if len(hdr.Extra) > 0 {
		logger.Debug("skipped extra field", "bytes", len(hdr.Extra))
	}

	entry := &Entry{
		Name:             hdr.Name,
		Offset:           offset,
		Method:           hdr.Method,
		CRC32:            hdr.CRC32,
		CompressedSize:   uint64(hdr.CompressedSize),
		UncompressedSize: uint64(hdr.UncompressedSize),
		Deferred:         hdr.Deferred(),
	}

	payloadStart, err := w.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return entry, fmt.Errorf("failed to get payload position: %w", err)
	}

	if entry.Deferred {
		dd, ddOffset, err := w.findDescriptor(payloadStart)
		if err != nil {
			if errors.Is(err, zipfmt.ErrNotFound) {
				logger.Warn("no data descriptor before end of file", "error", err)
				return entry, errTruncated
			}
			return entry, err
		}
		logger.Debug("resolved sizes from data descriptor",
			"descriptor_offset", ddOffset,
			"crc32", dd.CRC32,
			"compressed_size", dd.CompressedSize,
			"uncompressed_size", dd.UncompressedSize,
		)
		entry.CRC32 = dd.CRC32
		entry.CompressedSize = uint64(dd.CompressedSize)
		entry.UncompressedSize = uint64(dd.UncompressedSize)

		if _, err := w.file.Seek(payloadStart, io.SeekStart); err != nil {
			return entry, fmt.Errorf("failed to seek back to payload: %w", err)
		}
	}

	compressed, err := io.ReadAll(io.LimitReader(w.file, int64(entry.CompressedSize)))
	if err != nil {
		return entry, fmt.Errorf("failed to read payload: %w", err)
	}
	if uint64(len(compressed)) < entry.CompressedSize {
		return entry, errTruncated
	}

	// The payload is in memory, so consume the descriptor now; the stream
	// then sits on the next header even if this entry fails to verify.
	if entry.Deferred {
		if _, err := w.file.Seek(zipfmt.DataDescriptorLen, io.SeekCurrent); err != nil {
			return entry, fmt.Errorf("failed to skip data descriptor: %w", err)
		}
	}

	payload, err := w.codec.Decompress(entry.Method, compressed)
	if err != nil {
		return entry, &decodeError{err: err}
	}

	if err := w.sink.WriteEntry(entry.Name, payload, entry.CRC32, entry.UncompressedSize); err != nil {
		return entry, err
	}

	logger.Debug("wrote entry", "bytes", len(payload))
	return entry, nil
}

// findDescriptor scans forward from payloadStart for the data descriptor
// that closes the current entry.
func (w *Walker) findDescriptor(payloadStart int64) (*zipfmt.DataDescriptor, int64, error) {
	from := payloadStart
	for {
		if _, err := w.file.Seek(from, io.SeekStart); err != nil {
			return nil, 0, fmt.Errorf("failed to seek to offset %d: %w", from, err)
		}

		off, _, err := w.scanner.Find(zipfmt.DataDescriptorMagic)
		if err != nil {
			return nil, 0, err
		}

		var buf [zipfmt.DataDescriptorLen]byte
		if _, err := io.ReadFull(w.file, buf[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, 0, fmt.Errorf("%w: data descriptor at offset %d is cut short", zipfmt.ErrNotFound, off)
			}
			return nil, 0, fmt.Errorf("failed to read data descriptor: %w", err)
		}

		dd, err := zipfmt.DecodeDataDescriptor(buf[:])
		if err != nil {
			w.logger.Warn("error reading data descriptor",
				"descriptor_offset", off,
				"error", err,
			)
			return nil, 0, errTruncated
		}

		if !w.opts.VerifyDescriptor || w.plausibleDescriptor(payloadStart, off, dd) {
			return dd, off, nil
		}

		w.logger.Debug("rejected data descriptor candidate",
			"descriptor_offset", off,
			"compressed_size", dd.CompressedSize,
		)
		from = off + 1
	}
}

// plausibleDescriptor checks a candidate found at off against the
// payload it would close. The stream must sit right after the candidate.
func (w *Walker) plausibleDescriptor(payloadStart, off int64, dd *zipfmt.DataDescriptor) bool {
	if off-payloadStart != int64(dd.CompressedSize) {
		return false
	}

	var next [zipfmt.SignatureLen]byte
	n, err := io.ReadFull(w.file, next[:])
	if n == 0 && errors.Is(err, io.EOF) {
		return true
	}
	if err != nil {
		return false
	}
	return next == zipfmt.LocalHeaderMagic ||
		next == zipfmt.CentralDirMagic ||
		next == zipfmt.EndOfCentralDirMagic
}

// decodeError marks a payload the codec could not decompress.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "failed to decompress: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// skippable reports whether err concerns only the current entry's
// content, so the walk may continue with the next header.
func skippable(err error) bool {
	var de *decodeError
	return errors.As(err, &de) ||
		errors.Is(err, extract.ErrSizeMismatch) ||
		errors.Is(err, extract.ErrChecksumMismatch)
}
