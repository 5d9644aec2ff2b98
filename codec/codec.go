// Package codec converts between host text (UTF-8) and the fixed size, space padded,
// G2 encoded fields of the disk: 8.3 file names, 8 byte comments and the volume label.
package codec

import (
	"fmt"
	"strings"
)

const (
	// NameSize is the size of the name part of a file name.
	NameSize = 8
	// SuffixSize is the size of the suffix part of a file name.
	SuffixSize = 3
	// CommentSize is the size of a comment and of the volume label.
	CommentSize = 8
)

// Meta is the structured prefix "(TTTT[EEEE])" a host comment may start with.
type Meta struct {
	Type     uint16
	HasType  bool
	Extra    uint16
	HasExtra bool
}

// fill copies whole units into dst, pads the rest with spaces and returns the number
// of consumed units.
func fill(dst []byte, units [][]byte) int {
	p, used := 0, 0
	for _, unit := range units {
		if p+len(unit) > len(dst) {
			break
		}
		p += copy(dst[p:], unit)
		used++
	}
	for ; p < len(dst); p++ {
		dst[p] = ' '
	}
	return used
}

// HostToDiskName converts a host file name to its 11 byte disk form, 8 bytes of name
// and 3 of suffix:
//  "TOTO.BIN"      -> "TOTO    BIN"
//  ".BIN"          -> "        BIN"
//  "TOTO.T.A"      -> "TOTO    T  "
//  "TOTO...A"      -> "TOTO    A  "
//  "TOTO12345.BIN" -> "TOTO1234BIN"
func HostToDiskName(host string) [NameSize + SuffixSize]byte {
	var raw [NameSize + SuffixSize]byte
	units := g2Units(toLatin1(host))

	isDot := func(unit []byte) bool {
		return len(unit) == 1 && unit[0] == '.'
	}

	// Name up to the first dot.
	end := 0
	for end < len(units) && !isDot(units[end]) {
		end++
	}
	fill(raw[:NameSize], units[:end])

	// Suffix after the dots, up to the next one.
	start := end
	for start < len(units) && isDot(units[start]) {
		start++
	}
	end = start
	for end < len(units) && !isDot(units[end]) {
		end++
	}
	fill(raw[NameSize:], units[start:end])

	return raw
}

// DiskToHostName converts an 11 byte disk name to a host name:
//  "TOTO    BIN" -> "TOTO.BIN"
//  "        BIN" -> ".BIN"
//  "TOTO       " -> "TOTO"
//  "           " -> " "
// With normalize, characters a host cannot display and '/' become '~'.
func DiskToHostName(raw []byte, normalizeName bool) string {
	name := padRight(decodeG2(raw[:NameSize]), NameSize)
	suffix := padRight(decodeG2(raw[NameSize:NameSize+SuffixSize]), SuffixSize)

	name = trimSpaces(name)
	suffix = trimSpaces(suffix)

	var latin []byte
	switch {
	case len(name) == 0 && len(suffix) == 0:
		latin = []byte{' '}
	case len(suffix) == 0:
		latin = name
	default:
		latin = append(append(append(latin, name...), '.'), suffix...)
	}

	if normalizeName {
		normalize(latin, true)
	}
	return fromLatin1(latin)
}

// Canonical reduces a host name to the name it gets back after a trip to the disk.
// Two host names denote the same file exactly when their canonical forms match.
func Canonical(host string) string {
	raw := HostToDiskName(host)
	return DiskToHostName(raw[:], true)
}

// ParseMeta splits the optional "(TTTT[EEEE])" prefix off a host comment.
// Both values are hexadecimal and only taken if all four digits are present.
func ParseMeta(comment string) (Meta, string) {
	var meta Meta

	p := 0
	for p < len(comment) && comment[p] == ' ' {
		p++
	}
	if p >= len(comment) || comment[p] != '(' {
		return meta, comment
	}
	p++

	hex := func() (uint16, bool) {
		var v uint16
		i := 0
		for ; i < 4 && p < len(comment); i, p = i+1, p+1 {
			d, ok := hexDigit(comment[p])
			if !ok {
				break
			}
			v = v<<4 | uint16(d)
		}
		if i != 4 {
			return 0, false
		}
		return v, true
	}

	meta.Type, meta.HasType = hex()
	meta.Extra, meta.HasExtra = hex()

	// Skip whatever is left inside the parenthesis and the spaces after it.
	for p < len(comment) {
		p++
		if comment[p-1] == ')' {
			break
		}
	}
	for p < len(comment) && comment[p] == ' ' {
		p++
	}
	return meta, comment[p:]
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// FormatMeta puts the structured prefix in front of a comment, the reverse of ParseMeta.
func FormatMeta(comment string, typ uint16, extra uint16, hasExtra bool) string {
	var prefix string
	if hasExtra {
		prefix = fmt.Sprintf("(%04X%04X)", typ, extra)
	} else {
		prefix = fmt.Sprintf("(%04X)", typ)
	}
	if comment == "" {
		return prefix
	}
	return prefix + " " + comment
}

// HostToDiskComment converts a host comment to its 8 byte disk form. A structured
// prefix is removed from the text and returned separately.
func HostToDiskComment(host string) ([CommentSize]byte, Meta) {
	var raw [CommentSize]byte
	meta, text := ParseMeta(host)
	fill(raw[:], g2Units(toLatin1(text)))
	return raw, meta
}

// DiskToHostComment converts an 8 byte disk comment. It ends at the first 0x00 or 0xFF.
func DiskToHostComment(raw []byte) string {
	n := 0
	for n < CommentSize && n < len(raw) && raw[n] != 0 && raw[n] != 0xff {
		n++
	}
	latin := decodeG2(trimSpaces(raw[:n]))
	normalize(latin, false)
	return fromLatin1(latin)
}

// HostToDiskLabel converts a volume name. It follows the comment rules.
func HostToDiskLabel(host string) [CommentSize]byte {
	raw, _ := HostToDiskComment(host)
	return raw
}

// DiskToHostLabel converts the 8 byte volume name. Trailing spaces and bytes above 127
// are dropped.
func DiskToHostLabel(raw []byte) string {
	if len(raw) > CommentSize {
		raw = raw[:CommentSize]
	}
	l := len(raw)
	for l > 0 && (raw[l-1] == ' ' || raw[l-1] > 127) {
		l--
	}
	latin := decodeG2(raw[:l])
	normalize(latin, false)
	return fromLatin1(latin)
}

// Types derived from file name suffixes. Unknown suffixes get DefaultType.
var suffixTypes = map[string]uint16{
	"BAS": 0x0000,
	"BAT": 0x0000,
	"DAT": 0x01FF,
	"CHG": 0x01FF,
	"CAR": 0x01FF,
	"ASC": 0x01FF,
	"TXT": 0x01FF,
	"HTM": 0x01FF,
	"DOC": 0x01FF,
	"S":   0x01FF,
	"C":   0x01FF,
	"H":   0x01FF,
	"ASS": 0x0300,
	"ASM": 0x03FF,
	"AND": 0x0500,
	"PAR": 0x0A00,
}

// DefaultType is the type of binaries and of every unknown suffix.
const DefaultType uint16 = 0x0200

// TypeFromName derives the file type from the suffix of a host name.
func TypeFromName(host string) uint16 {
	dot := strings.LastIndexByte(host, '.')
	if dot < 0 {
		return DefaultType
	}
	if typ, ok := suffixTypes[strings.ToUpper(host[dot+1:])]; ok {
		return typ
	}
	return DefaultType
}

func trimSpaces(b []byte) []byte {
	l := len(b)
	for l > 0 && b[l-1] == ' ' {
		l--
	}
	return b[:l]
}

func padRight(b []byte, size int) []byte {
	for len(b) < size {
		b = append(b, ' ')
	}
	return b
}
