// Package codec decompresses ZIP entry payloads by compression method.
package codec

import (
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"

	"github.com/ossyrian/zipfix/internal/zipfmt"
)

// ErrUnsupportedMethod is returned for compression methods with no decoder.
var ErrUnsupportedMethod = errors.New("codec: unsupported compression method")

// Decompressor turns an entry's compressed bytes into its raw bytes.
type Decompressor interface {
	Decompress(method uint16, compressed []byte) ([]byte, error)
}

// ReaderFunc wraps a compressed stream in a decompressing reader.
type ReaderFunc func(r io.Reader) (io.ReadCloser, error)

// Registry maps compression methods to decoders.
type Registry struct {
	readers map[uint16]ReaderFunc
}

// NewRegistry returns a Registry that knows store, deflate, bzip2 and zstd.
func NewRegistry() *Registry {
	return &Registry{
		readers: map[uint16]ReaderFunc{
			zipfmt.MethodStore:   storeReader,
			zipfmt.MethodDeflate: deflateReader,
			zipfmt.MethodBzip2:   bzip2Reader,
			zipfmt.MethodZstd:    zstdReader,
		},
	}
}

// Decompress decodes compressed with the decoder registered for method.
func (reg *Registry) Decompress(method uint16, compressed []byte) ([]byte, error) {
	fn, ok := reg.readers[method]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMethod, method)
	}

	rc, err := fn(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to open method %d decoder: %w", method, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress method %d payload: %w", method, err)
	}
	return raw, nil
}

func storeReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

func deflateReader(r io.Reader) (io.ReadCloser, error) {
	return flate.NewReader(r), nil
}

func bzip2Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(bzip2.NewReader(r)), nil
}

func zstdReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}
