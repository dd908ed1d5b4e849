package format

import (
	"fmt"
	"strings"
)

// Format is a display format for register words.
type Format string

// Supported display formats.
const (
	U16   Format = "U16"   // unsigned decimal
	I16   Format = "I16"   // signed decimal (two's complement)
	HEX   Format = "HEX"   // 0x + 4 hex digits
	BIN   Format = "BIN"   // 0b + 16 binary digits
	ASCII Format = "ASCII" // high byte, low byte
	U32   Format = "U32"   // unsigned 32-bit over a pair
	I32   Format = "I32"   // signed 32-bit over a pair
	F32   Format = "F32"   // IEEE-754 single over a pair
)

// Default is the format used when nothing has been persisted.
const Default = U16

// All returns every format in toolbar order.
func All() []Format {
	return []Format{U16, I16, HEX, BIN, ASCII, U32, I32, F32}
}

// Parse returns the Format named by s (case-insensitive).
//
// Returns:
//   - Format: The matching format
//   - error: ErrUnknownFormat if s names no format
func Parse(s string) (Format, error) {
	f := Format(strings.ToUpper(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	switch f {
	case U16, I16, HEX, BIN, ASCII, U32, I32, F32:
		return true
	}
	return false
}

// Wide reports whether f spans a register pair.
func (f Format) Wide() bool {
	return f == U32 || f == I32 || f == F32
}

// Words returns how many registers one value of f occupies.
func (f Format) Words() int {
	if f.Wide() {
		return 2
	}
	return 1
}

// String implements fmt.Stringer.
func (f Format) String() string {
	return string(f)
}
