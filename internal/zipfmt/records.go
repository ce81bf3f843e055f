package zipfmt

import "strings"

// LocalFileHeader is the fixed part of a local file header.
// Name and Extra are filled in by the caller after reading the
// variable-length fields that follow the fixed record.
type LocalFileHeader struct {
	Signature        [4]byte
	VersionNeeded    uint16
	Flags            uint16
	Method           uint16
	ModifiedTime     uint16
	ModifiedDate     uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLength       uint16
	ExtraLength      uint16

	Name  string
	Extra []byte
}

// Deferred reports whether CRC-32 and sizes live in a trailing data descriptor.
func (h *LocalFileHeader) Deferred() bool {
	return h.Flags&FlagDataDescriptor != 0
}

// IsDir tells if the entry names a directory.
// Following ZIP convention, a name ending with `/` is a directory.
func (h *LocalFileHeader) IsDir() bool {
	return strings.HasSuffix(h.Name, "/")
}

// DataDescriptor trails the payload of an entry whose sizes were deferred.
type DataDescriptor struct {
	Signature        [4]byte
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
}
