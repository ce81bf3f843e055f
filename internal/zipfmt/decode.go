package zipfmt

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrSignatureMismatch is wrapped by every *SignatureError.
	ErrSignatureMismatch = errors.New("zipfmt: signature mismatch")
	// ErrShortRecord is returned when a buffer is not exactly one record long.
	ErrShortRecord = errors.New("zipfmt: wrong record length")
)

// SignatureError reports a record whose first four bytes are not the
// magic expected for its kind.
type SignatureError struct {
	Record string
	Got    [4]byte
	Want   [4]byte
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("invalid %s signature: expected %q, got %q", e.Record, e.Want, e.Got)
}

func (e *SignatureError) Unwrap() error {
	return ErrSignatureMismatch
}

// Signature returns the leading magic of b, or false when b is too short.
func Signature(b []byte) ([4]byte, bool) {
	var sig [4]byte
	if len(b) < SignatureLen {
		return sig, false
	}
	copy(sig[:], b)
	return sig, true
}

// DecodeLocalHeader decodes exactly LocalHeaderLen bytes into a header.
// Name and Extra are left empty.
func DecodeLocalHeader(b []byte) (*LocalFileHeader, error) {
	if len(b) != LocalHeaderLen {
		return nil, fmt.Errorf("%w: local file header needs %d bytes, got %d",
			ErrShortRecord, LocalHeaderLen, len(b))
	}

	h := &LocalFileHeader{}
	copy(h.Signature[:], b[:4])
	if h.Signature != LocalHeaderMagic {
		return nil, &SignatureError{Record: "local file header", Got: h.Signature, Want: LocalHeaderMagic}
	}

	rb := readBuf(b[4:])
	h.VersionNeeded = rb.uint16()
	h.Flags = rb.uint16()
	h.Method = rb.uint16()
	h.ModifiedTime = rb.uint16()
	h.ModifiedDate = rb.uint16()
	h.CRC32 = rb.uint32()
	h.CompressedSize = rb.uint32()
	h.UncompressedSize = rb.uint32()
	h.NameLength = rb.uint16()
	h.ExtraLength = rb.uint16()

	return h, nil
}

// DecodeDataDescriptor decodes exactly DataDescriptorLen bytes.
func DecodeDataDescriptor(b []byte) (*DataDescriptor, error) {
	if len(b) != DataDescriptorLen {
		return nil, fmt.Errorf("%w: data descriptor needs %d bytes, got %d",
			ErrShortRecord, DataDescriptorLen, len(b))
	}

	d := &DataDescriptor{}
	copy(d.Signature[:], b[:4])
	if d.Signature != DataDescriptorMagic {
		return nil, &SignatureError{Record: "data descriptor", Got: d.Signature, Want: DataDescriptorMagic}
	}

	rb := readBuf(b[4:])
	d.CRC32 = rb.uint32()
	d.CompressedSize = rb.uint32()
	d.UncompressedSize = rb.uint32()

	return d, nil
}

// readBuf consumes little-endian integers from the front of a byte slice.
type readBuf []byte

func (b *readBuf) uint16() uint16 {
	v := binary.LittleEndian.Uint16(*b)
	*b = (*b)[2:]
	return v
}

func (b *readBuf) uint32() uint32 {
	v := binary.LittleEndian.Uint32(*b)
	*b = (*b)[4:]
	return v
}
