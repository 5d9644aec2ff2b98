package codec

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// g2Escape starts a G2 sequence: an accent or a special character.
const g2Escape = 0x16

// Accent selectors following g2Escape.
const (
	g2Grave      = 0x41
	g2Acute      = 0x42
	g2Circumflex = 0x43
	g2Diaeresis  = 0x48
	g2Cedilla    = 0x4b
)

// accentLetters lists the letters an accent table is indexed by.
// Index 0 is the accent on its own.
const accentLetters = " aeiouyAEIOUY"

// Latin-1 values per accent, in accentLetters order.
// Plain ASCII values mark combinations Latin-1 does not have.
var accentTables = map[byte][13]byte{
	g2Grave:      {0x60, 0xe0, 0xe8, 0xec, 0xf2, 0xf9, 'y', 0xc0, 0xc8, 0xcc, 0xd2, 0xd9, 'Y'},
	g2Acute:      {0xb4, 0xe1, 0xe9, 0xed, 0xf3, 0xfa, 0xfd, 0xc1, 0xc9, 0xcd, 0xd3, 0xda, 0xdd},
	g2Circumflex: {0x5e, 0xe2, 0xea, 0xee, 0xf4, 0xfb, 'y', 0xc2, 0xca, 0xce, 0xd4, 0xdb, 'Y'},
	g2Diaeresis:  {0xa8, 0xe4, 0xeb, 0xef, 0xf6, 0xfc, 0xff, 0xc4, 0xcb, 0xcf, 0xd6, 0xdc, 'Y'},
}

// G2 codes of single special characters.
var g2Specials = map[byte]byte{
	0x23: 0xa3, // pound
	0x24: '$',
	0x26: '#',
	0x27: 0xa7, // section
	0x2c: '-',
	0x2e: '-',
	0x2d: '|',
	0x2f: '|',
	0x30: ' ',
	0x31: 0xb1, // plus-minus
	0x38: 0xf7, // division
	0x3c: 0xbc,
	0x3d: 0xbd,
	0x3e: 0xbe,
	0x7b: 0xdf, // sharp s
}

// latin1ToG2 maps Latin-1 characters to the bytes following g2Escape.
var latin1ToG2 = buildLatin1ToG2()

func buildLatin1ToG2() map[byte][]byte {
	m := map[byte][]byte{
		0xe7: {g2Cedilla, 'c'},
		0xc7: {g2Cedilla, 'C'},
		0xa3: {0x23},
		0xa7: {0x27},
		0xb1: {0x31},
		0xf7: {0x38},
		0xbc: {0x3c},
		0xbd: {0x3d},
		0xbe: {0x3e},
		0xdf: {0x7b},
	}
	for accent, table := range accentTables {
		// Index 0 is skipped, lone accents are not encoded.
		for i := 1; i < len(table); i++ {
			if table[i] < 0x80 {
				continue
			}
			m[table[i]] = []byte{accent, accentLetters[i]}
		}
	}
	return m
}

var (
	latin1Encoder = encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	latin1Decoder = charmap.ISO8859_1.NewDecoder()
)

// toLatin1 converts UTF-8 host text. Runes outside Latin-1 become the SUB control
// character, which the normalization later turns into '~'.
func toLatin1(s string) []byte {
	out, err := latin1Encoder.String(s)
	if err != nil {
		return []byte(s)
	}
	return []byte(out)
}

func fromLatin1(b []byte) string {
	out, err := latin1Decoder.Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// g2Units splits Latin-1 text into its G2 encoding, one slice per source character,
// so truncation never cuts an escape sequence in half.
func g2Units(latin []byte) [][]byte {
	units := make([][]byte, 0, len(latin))
	for _, c := range latin {
		if seq, ok := latin1ToG2[c]; ok {
			units = append(units, append([]byte{g2Escape}, seq...))
			continue
		}
		units = append(units, []byte{c})
	}
	return units
}

// decodeG2 turns G2 encoded bytes back into Latin-1.
// An escape sequence cut off at the end is dropped.
func decodeG2(src []byte) []byte {
	const (
		plain = iota
		escaped
		accented
		cedilla
	)

	dst := make([]byte, 0, len(src))
	state := plain
	var table [13]byte
	for _, c := range src {
		switch state {
		case plain:
			if c == g2Escape {
				state = escaped
				continue
			}
			dst = append(dst, c)

		case escaped:
			state = plain
			switch c {
			case 0x6a:
				dst = append(dst, 'O', 'E')
			case 0x7a:
				dst = append(dst, 'o', 'e')
			case g2Grave, g2Acute, g2Circumflex, g2Diaeresis:
				table = accentTables[c]
				state = accented
			case g2Cedilla:
				state = cedilla
			default:
				if special, ok := g2Specials[c]; ok {
					dst = append(dst, special)
				}
			}

		case accented:
			state = plain
			for i := 0; i < len(accentLetters); i++ {
				if accentLetters[i] == c {
					c = table[i]
					break
				}
			}
			dst = append(dst, c)

		case cedilla:
			state = plain
			switch c {
			case ' ':
				c = 0xb8
			case 'c':
				c = 0xe7
			case 'C':
				c = 0xc7
			}
			dst = append(dst, c)
		}
	}
	return dst
}

// normalize replaces bytes a host cannot display, plus '/' if slash is set.
func normalize(latin []byte, slash bool) {
	for i, c := range latin {
		if c < 32 || (c > 127 && c < 192) || (slash && c == '/') {
			latin[i] = '~'
		}
	}
}
