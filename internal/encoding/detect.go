// Package encoding normalizes uploaded text files to UTF-8. Spreadsheet
// exports from Colombian banks and desktop office suites are frequently
// Windows-1252 or UTF-16 rather than UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// sniffLen is how much of the input is inspected before choosing a decoder.
const sniffLen = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Charset names returned by Detect.
const (
	UTF8        = "UTF-8"
	UTF8BOM     = "UTF-8-BOM"
	UTF16LE     = "UTF-16LE"
	UTF16BE     = "UTF-16BE"
	Windows1252 = "windows-1252"
	ISO88591    = "ISO-8859-1"
)

// Detect names the charset of a sample taken from the start of a file.
// A byte order mark wins, then strict UTF-8 validation, then chardet's
// best guess among the Latin charsets. Anything else is read as
// Windows-1252, the usual charset of spreadsheet exports in Spanish.
func Detect(sample []byte) string {
	switch {
	case bytes.HasPrefix(sample, bomUTF8):
		return UTF8BOM
	case bytes.HasPrefix(sample, bomUTF16LE):
		return UTF16LE
	case bytes.HasPrefix(sample, bomUTF16BE):
		return UTF16BE
	case validUTF8Prefix(sample):
		return UTF8
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil {
		return Windows1252
	}

	switch result.Charset {
	case "UTF-8":
		return UTF8
	case "ISO-8859-1":
		return ISO88591
	}

	return Windows1252
}

// validUTF8Prefix tolerates a multi-byte rune cut off by the end of a full
// sample. A short sample is the whole file and must be valid as is.
func validUTF8Prefix(sample []byte) bool {
	if utf8.Valid(sample) {
		return true
	}

	if len(sample) < sniffLen {
		return false
	}

	for cut := 1; cut < utf8.UTFMax && cut < len(sample); cut++ {
		if utf8.Valid(sample[:len(sample)-cut]) && !utf8.FullRune(sample[len(sample)-cut:]) {
			return true
		}
	}

	return false
}

func decoderFor(charset string) encoding.Encoding {
	switch charset {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case ISO88591:
		return charmap.ISO8859_1
	case Windows1252:
		return charmap.Windows1252
	}

	return nil
}

// NewUTF8Reader returns a reader that yields r decoded to UTF-8, with any
// UTF-8 byte order mark removed.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	sample, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	charset := Detect(sample)

	switch charset {
	case UTF8:
		return br, nil
	case UTF8BOM:
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	}

	return decoderFor(charset).NewDecoder().Reader(br), nil
}
