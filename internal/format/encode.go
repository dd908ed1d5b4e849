package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/melsec-monitor/internal/register"
)

// Write is a planned register write: Words stored from Start onwards.
type Write struct {
	Start register.Ref
	Words []uint16
}

// Encode parses text in format f into register words.
//
// 16-bit formats produce one word, masked to 16 bits. 32-bit formats
// produce [low, high].
//
// Accepted input:
//   - U16: decimal (may be negative) or 0x-prefixed hex
//   - I16: decimal
//   - HEX: hex digits with optional 0x prefix
//   - BIN: binary digits with optional 0b prefix
//   - ASCII: any text, spaces included; padded with NUL or cut to two characters
//   - U32: decimal (may be negative) or 0x-prefixed hex, taken mod 2^32
//   - I32: decimal
//   - F32: decimal float at single precision
//
// Returns:
//   - []uint16: Encoded words
//   - error: ErrInvalidInput if the text is empty or malformed,
//     ErrUnknownFormat if f is not supported
func Encode(f Format, text string) ([]uint16, error) {
	if f == ASCII {
		return []uint16{encodeASCII(text)}, nil
	}

	s := strings.TrimSpace(text)
	if s == "" {
		return nil, fmt.Errorf("%w: empty %s value", ErrInvalidInput, f)
	}

	switch f {
	case U16:
		v, err := parseHexOrDecimal(s)
		if err != nil {
			return nil, invalid(f, text)
		}
		return []uint16{uint16(v & wordMask)}, nil

	case I16:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, invalid(f, text)
		}
		return []uint16{uint16(v & wordMask)}, nil

	case HEX:
		v, err := strconv.ParseUint(trimPrefixFold(s, "0x"), 16, 64)
		if err != nil {
			return nil, invalid(f, text)
		}
		return []uint16{uint16(v & wordMask)}, nil

	case BIN:
		v, err := strconv.ParseUint(trimPrefixFold(s, "0b"), 2, 64)
		if err != nil {
			return nil, invalid(f, text)
		}
		return []uint16{uint16(v & wordMask)}, nil

	case U32:
		v, err := parseHexOrDecimal(s)
		if err != nil {
			return nil, invalid(f, text)
		}
		return pair(uint32(v)), nil

	case I32:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, invalid(f, text)
		}
		return pair(uint32(v)), nil

	case F32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, invalid(f, text)
		}
		return pair(math.Float32bits(float32(v))), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// PlanWrite encodes text and decides where the words go.
//
// 32-bit values are always written at the even anchor of target, so editing
// either half of a pair rewrites the whole pair.
//
// Example:
//
//	w, _ := format.PlanWrite(format.I32, register.At("D", 11), "-1")
//	// w.Start = D10, w.Words = [0xFFFF, 0xFFFF]
func PlanWrite(f Format, target register.Ref, text string) (Write, error) {
	words, err := Encode(f, text)
	if err != nil {
		return Write{}, err
	}

	start := target
	if f.Wide() {
		start = target.Anchor()
	}
	return Write{Start: start, Words: words}, nil
}

func encodeASCII(text string) uint16 {
	chars := []rune(text)
	for len(chars) < 2 {
		chars = append(chars, 0)
	}
	return uint16(chars[0]&byteMask)<<8 | uint16(chars[1]&byteMask)
}

// parseHexOrDecimal accepts 0x-prefixed hex or signed decimal.
func parseHexOrDecimal(s string) (int64, error) {
	if hex, ok := cutPrefixFold(s, "0x"); ok {
		v, err := strconv.ParseUint(hex, 16, 64)
		return int64(v), err
	}
	return strconv.ParseInt(s, 10, 64)
}

func pair(v uint32) []uint16 {
	w := Split(v)
	return []uint16{w[0], w[1]}
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

func trimPrefixFold(s, prefix string) string {
	rest, _ := cutPrefixFold(s, prefix)
	return rest
}

func invalid(f Format, text string) error {
	return fmt.Errorf("%w: %q is not a valid %s value", ErrInvalidInput, text, f)
}

// ParseWords parses a comma-separated list of raw words such as "1, 0x10, 65535".
//
// Each token is decimal (may be negative) or 0x-prefixed hex and is masked
// to 16 bits. Empty tokens are skipped.
//
// Returns:
//   - []uint16: The words in order
//   - error: ErrInvalidInput if a token is malformed or the list is empty
func ParseWords(text string) ([]uint16, error) {
	var words []uint16
	for _, tok := range strings.Split(text, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := parseHexOrDecimal(tok)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a word", ErrInvalidInput, tok)
		}
		words = append(words, uint16(v&wordMask))
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: no words in %q", ErrInvalidInput, text)
	}
	return words, nil
}
