package format

import (
	"fmt"
	"math"
	"strconv"
)

const (
	wordBits  = 16
	wordMask  = 0xFFFF
	byteMask  = 0xFF
	printLow  = 0x20
	printHigh = 0x7E
)

// Bits returns the 16 bits of w, most significant first.
func Bits(w uint16) [wordBits]bool {
	var bits [wordBits]bool
	for i := 0; i < wordBits; i++ {
		bits[i] = w&(1<<(wordBits-1-i)) != 0
	}
	return bits
}

// Raw16 returns the raw hex column for a single word, e.g. "0x00FF".
func Raw16(w uint16) string {
	return fmt.Sprintf("0x%04X", w)
}

// Raw32 returns the raw hex column for a complete pair, e.g. "0x00011234".
func Raw32(low, high uint16) string {
	return fmt.Sprintf("0x%08X", Join(low, high))
}

// Join combines a register pair into its 32-bit value.
func Join(low, high uint16) uint32 {
	return uint32(high)<<wordBits | uint32(low)
}

// Split breaks a 32-bit value into [low, high] words.
func Split(v uint32) [2]uint16 {
	return [2]uint16{uint16(v & wordMask), uint16(v >> wordBits)}
}

// Decode16 renders a single word in a 16-bit format.
//
// Wide formats are rendered as U16; use DecodePair for them.
func Decode16(f Format, w uint16) string {
	switch f {
	case I16:
		return strconv.FormatInt(int64(int16(w)), 10)
	case HEX:
		return fmt.Sprintf("0x%04X", w)
	case BIN:
		return fmt.Sprintf("0b%016b", w)
	case ASCII:
		return string([]byte{printable(byte(w >> 8)), printable(byte(w & byteMask))})
	default:
		return strconv.FormatUint(uint64(w), 10)
	}
}

// DecodePair renders a register pair in a 32-bit format.
//
// Narrow formats render the low word only.
func DecodePair(f Format, low, high uint16) string {
	v := Join(low, high)
	switch f {
	case U32:
		return strconv.FormatUint(uint64(v), 10)
	case I32:
		return strconv.FormatInt(int64(int32(v)), 10)
	case F32:
		return strconv.FormatFloat(float64(math.Float32frombits(v)), 'g', -1, 32)
	default:
		return Decode16(f, low)
	}
}

func printable(b byte) byte {
	if b >= printLow && b <= printHigh {
		return b
	}
	return '.'
}
