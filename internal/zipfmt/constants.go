package zipfmt

// Magic numbers found at the start of each ZIP record kind.
var (
	// LocalHeaderMagic starts every local file header ("PK\x03\x04").
	LocalHeaderMagic = [4]byte{'P', 'K', 0x03, 0x04}
	// DataDescriptorMagic starts a data descriptor ("PK\x07\x08").
	DataDescriptorMagic = [4]byte{'P', 'K', 0x07, 0x08}
	// CentralDirMagic starts every central directory file header ("PK\x01\x02").
	CentralDirMagic = [4]byte{'P', 'K', 0x01, 0x02}
	// EndOfCentralDirMagic starts the end of central directory record ("PK\x05\x06").
	EndOfCentralDirMagic = [4]byte{'P', 'K', 0x05, 0x06}
)

const (
	// SignatureLen is the length of every record magic.
	SignatureLen = 4

	// LocalHeaderLen is the fixed part of a local file header,
	// not counting the filename and extra field that follow it.
	LocalHeaderLen = 30

	// DataDescriptorLen is a signed, non-zip64 data descriptor.
	DataDescriptorLen = 16

	// DefaultChunkSize is how many bytes the Scanner reads per step.
	DefaultChunkSize = 1024
)

// General purpose flag bits.
const (
	// FlagDataDescriptor (bit 3) means CRC-32 and sizes are zero in the
	// local header and follow the payload in a data descriptor.
	FlagDataDescriptor uint16 = 0x0008
	// FlagUTF8 (bit 11) means the filename is UTF-8 encoded.
	FlagUTF8 uint16 = 0x0800
)

// Compression methods understood by the codec package.
const (
	MethodStore   uint16 = 0
	MethodDeflate uint16 = 8
	MethodBzip2   uint16 = 12
	MethodZstd    uint16 = 93
)
