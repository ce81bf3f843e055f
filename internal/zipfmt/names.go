package zipfmt

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeName turns raw filename bytes into a string.
//
// Names are kept verbatim unless cp437 is set, the header does not carry
// the UTF-8 flag and the bytes are not valid UTF-8, in which case they are
// decoded from IBM code page 437 as APPNOTE prescribes.
func DecodeName(raw []byte, flags uint16, cp437 bool) string {
	if !cp437 || flags&FlagUTF8 != 0 || utf8.Valid(raw) {
		return string(raw)
	}
	name, err := charmap.CodePage437.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(name)
}
