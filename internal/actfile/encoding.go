package actfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// Encoding identifies how an activity file is stored on disk
type Encoding int

const (
	// UTF16LE with a byte order mark, the format MSTS tools write
	UTF16LE Encoding = iota
	// UTF8BOM is UTF-8 preceded by a byte order mark
	UTF8BOM
	// UTF8 without a byte order mark
	UTF8
	// UTF16LENoBOM is UTF-16LE written without a byte order mark
	UTF16LENoBOM
)

func (e Encoding) String() string {
	switch e {
	case UTF16LE:
		return "UTF-16LE"
	case UTF8BOM:
		return "UTF-8 BOM"
	case UTF8:
		return "UTF-8"
	case UTF16LENoBOM:
		return "UTF-16LE (no BOM)"
	}
	return "unknown"
}

var (
	ErrUndecodable = errors.New("file is neither UTF-16LE nor UTF-8")

	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

func (e Encoding) codec() encoding.Encoding {
	switch e {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case UTF16LENoBOM:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case UTF8BOM:
		return unicode.UTF8BOM
	}
	return unicode.UTF8
}

// Decode detects the encoding of data and returns its text. UTF-16LE is
// tried first, with a byte order mark or, without one, when the high bytes
// show the NUL pattern of mostly-ASCII text. UTF-8 with or without a byte
// order mark is the fallback.
func Decode(data []byte) (string, Encoding, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF16LE) && validUTF16LE(data[len(bomUTF16LE):]):
		text, err := UTF16LE.codec().NewDecoder().Bytes(data)
		if err == nil {
			return string(text), UTF16LE, nil
		}
	case looksUTF16LE(data) && validUTF16LE(data):
		text, err := UTF16LENoBOM.codec().NewDecoder().Bytes(data)
		if err == nil {
			return string(text), UTF16LENoBOM, nil
		}
	}

	enc := UTF8
	body := data
	if bytes.HasPrefix(data, bomUTF8) {
		enc = UTF8BOM
		body = data[len(bomUTF8):]
	}
	if !utf8.Valid(body) {
		return "", 0, ErrUndecodable
	}
	return string(body), enc, nil
}

// validUTF16LE reports whether b is a whole number of UTF-16LE code units
// with every surrogate correctly paired
func validUTF16LE(b []byte) bool {
	if len(b)%2 != 0 {
		return false
	}
	for i := 0; i < len(b); i += 2 {
		r := rune(binary.LittleEndian.Uint16(b[i:]))
		if !utf16.IsSurrogate(r) {
			continue
		}
		if r >= 0xDC00 || i+4 > len(b) {
			return false
		}
		lo := rune(binary.LittleEndian.Uint16(b[i+2:]))
		if lo < 0xDC00 || lo > 0xDFFF {
			return false
		}
		i += 2
	}
	return true
}

// looksUTF16LE reports whether at least half of the code units of b have a
// zero high byte. Valid UTF-8 text never contains NUL bytes.
func looksUTF16LE(b []byte) bool {
	if len(b) < 2 || len(b)%2 != 0 {
		return false
	}
	zeros := 0
	for i := 1; i < len(b); i += 2 {
		if b[i] == 0 {
			zeros++
		}
	}
	return zeros*2 >= len(b)/2
}

// Encode renders text in enc
func Encode(text string, enc Encoding) ([]byte, error) {
	if enc == UTF8 {
		return []byte(text), nil
	}
	return enc.codec().NewEncoder().Bytes([]byte(text))
}

// lineEnding returns the newline sequence used by text
func lineEnding(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}
