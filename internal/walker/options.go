package walker

import (
	"fmt"

	"github.com/ossyrian/zipfix/internal/zipfmt"
)

// DesyncPolicy decides what happens when a header position holds neither
// a local file header nor the central directory.
type DesyncPolicy string

const (
	// DesyncAbort stops the run with an error.
	DesyncAbort DesyncPolicy = "abort"
	// DesyncScanForward skips ahead to the next recognizable record.
	DesyncScanForward DesyncPolicy = "scan-forward"
)

// ParseDesyncPolicy converts a config string to a DesyncPolicy.
// The empty string selects DesyncAbort.
func ParseDesyncPolicy(s string) (DesyncPolicy, error) {
	switch DesyncPolicy(s) {
	case "", DesyncAbort:
		return DesyncAbort, nil
	case DesyncScanForward:
		return DesyncScanForward, nil
	default:
		return "", fmt.Errorf("unknown desync policy %q (want %q or %q)", s, DesyncAbort, DesyncScanForward)
	}
}

// Options holds per-run settings. The zero value reproduces the
// baseline behavior: 1 KiB scan chunks, abort on desync, first
// descriptor match accepted, stop on the first bad entry.
type Options struct {
	ChunkSize int
	OnDesync  DesyncPolicy

	// VerifyDescriptor rejects a data descriptor candidate unless its
	// compressed size matches its distance from the payload start and
	// another record (or the end of the stream) follows it.
	VerifyDescriptor bool

	// KeepGoing logs and skips entries that fail to decompress or verify
	// instead of aborting the run.
	KeepGoing bool

	// CP437Names decodes non-UTF-8 names from code page 437.
	CP437Names bool
}

func (o Options) chunkSize() int {
	if o.ChunkSize <= 0 {
		return zipfmt.DefaultChunkSize
	}
	return o.ChunkSize
}

// StopReason says why a walk ended without error.
type StopReason int

const (
	// StopCentralDirectory means the walk reached the central directory
	// (or the end of central directory record) and every entry was seen.
	StopCentralDirectory StopReason = iota + 1
	// StopTruncated means the stream ended early; entries before that
	// point were recovered, later ones may be missing.
	StopTruncated
)

func (s StopReason) String() string {
	switch s {
	case StopCentralDirectory:
		return "central directory"
	case StopTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// Entry describes one entry found in the archive body.
type Entry struct {
	Name             string
	Offset           int64 // offset of the local file header
	Method           uint16
	CRC32            uint32
	CompressedSize   uint64
	UncompressedSize uint64
	Deferred         bool // sizes came from a data descriptor
}

// Result summarizes a walk.
type Result struct {
	Entries []Entry // written to storage
	Skipped []Entry // failed verification with KeepGoing set
	Resyncs int     // desyncs recovered by DesyncScanForward
	Stop    StopReason
}

// EntryError identifies the entry or offset at which a run aborted.
type EntryError struct {
	Name   string // empty when no header could be decoded
	Offset int64
	Err    error
}

func (e *EntryError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("entry %s at offset %d: %v", e.Name, e.Offset, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}
