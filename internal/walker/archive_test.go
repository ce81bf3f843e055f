package walker_test

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"log/slog"
	"testing"

	"github.com/klauspost/compress/flate"

	"github.com/ossyrian/zipfix/internal/zipfmt"
)

// testEntry describes one entry for archiveBuilder.
type testEntry struct {
	name     string
	method   uint16
	data     []byte
	deferred bool
	extra    []byte

	// corruption applied to the recorded CRC-32 and uncompressed size
	crcDelta  uint32
	sizeDelta uint32
}

// archiveBuilder writes archive bodies record by record, giving tests
// exact control over offsets and corruption.
type archiveBuilder struct {
	t   *testing.T
	buf bytes.Buffer
}

func newArchive(t *testing.T) *archiveBuilder {
	t.Helper()
	return &archiveBuilder{t: t}
}

func (b *archiveBuilder) add(e testEntry) *archiveBuilder {
	b.t.Helper()

	compressed := e.data
	if e.method == zipfmt.MethodDeflate {
		var cbuf bytes.Buffer
		fw, err := flate.NewWriter(&cbuf, flate.DefaultCompression)
		if err != nil {
			b.t.Fatal(err)
		}
		fw.Write(e.data)
		fw.Close()
		compressed = cbuf.Bytes()
	}

	crc := crc32.ChecksumIEEE(e.data) + e.crcDelta
	csize := uint32(len(compressed))
	usize := uint32(len(e.data)) + e.sizeDelta

	var flags uint16
	hdrCRC, hdrCSize, hdrUSize := crc, csize, usize
	if e.deferred {
		flags |= zipfmt.FlagDataDescriptor
		hdrCRC, hdrCSize, hdrUSize = 0, 0, 0
	}

	b.buf.Write(zipfmt.LocalHeaderMagic[:])
	b.le(uint16(20), flags, e.method, uint16(0), uint16(0x5821))
	b.le(hdrCRC, hdrCSize, hdrUSize)
	b.le(uint16(len(e.name)), uint16(len(e.extra)))
	b.buf.WriteString(e.name)
	b.buf.Write(e.extra)
	b.buf.Write(compressed)

	if e.deferred {
		b.buf.Write(zipfmt.DataDescriptorMagic[:])
		b.le(crc, csize, usize)
	}
	return b
}

// centralDirectory appends a placeholder central directory header and an
// end of central directory record.
func (b *archiveBuilder) centralDirectory() *archiveBuilder {
	b.buf.Write(zipfmt.CentralDirMagic[:])
	b.buf.Write(make([]byte, 42))
	b.buf.Write(zipfmt.EndOfCentralDirMagic[:])
	b.buf.Write(make([]byte, 18))
	return b
}

func (b *archiveBuilder) raw(p []byte) *archiveBuilder {
	b.buf.Write(p)
	return b
}

func (b *archiveBuilder) offset() int {
	return b.buf.Len()
}

func (b *archiveBuilder) bytes() []byte {
	return bytes.Clone(b.buf.Bytes())
}

func (b *archiveBuilder) le(vals ...any) {
	for _, v := range vals {
		binary.Write(&b.buf, binary.LittleEndian, v)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
