package register

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is a device register family such as "D" or "M".
// Keys are opaque and compared by exact string equality.
type Key string

// Address is a word offset within a Key.
type Address uint32

// Ref names a single 16-bit register.
type Ref struct {
	Key  Key
	Addr Address
}

// At returns the Ref for key and addr.
func At(key Key, addr Address) Ref {
	return Ref{Key: key, Addr: addr}
}

// String returns the register in "<key><decimal address>" form, e.g. "D100".
func (r Ref) String() string {
	return string(r.Key) + strconv.FormatUint(uint64(r.Addr), 10)
}

// Offset returns the Ref n words after r.
func (r Ref) Offset(n int) Ref {
	return Ref{Key: r.Key, Addr: r.Addr + Address(n)}
}

// IsHigh reports whether r is the high (odd) half of a 32-bit pair.
func (r Ref) IsHigh() bool {
	return r.Addr%2 == 1
}

// Anchor returns the even (low word) address of the pair containing r.
func (r Ref) Anchor() Ref {
	return Ref{Key: r.Key, Addr: r.Addr &^ 1}
}

// Partner returns the other half of the pair containing r:
// the odd neighbour for an even address, the even neighbour for an odd one.
func (r Ref) Partner() Ref {
	return Ref{Key: r.Key, Addr: r.Addr ^ 1}
}

// Less orders Refs by key, then address.
func (r Ref) Less(o Ref) bool {
	if r.Key != o.Key {
		return r.Key < o.Key
	}
	return r.Addr < o.Addr
}

// ParseTarget parses a register target such as "D100" or "m20".
//
// The input is trimmed and upper-cased, then split into the leading run of
// letters A-Z (the key) and the remainder (the address). The address is
// hexadecimal when it contains any letter A-F (an optional 0X prefix is
// accepted) and decimal otherwise.
//
// Parameters:
//   - s: Raw user input
//
// Returns:
//   - Ref: Parsed register
//   - error: ErrNoMatch if the input is empty, has no key, has no address,
//     or the address is not a number
//
// Example:
//
//	ref, err := register.ParseTarget("D1A") // D26
func ParseTarget(s string) (Ref, error) {
	in := strings.ToUpper(strings.TrimSpace(s))

	i := 0
	for i < len(in) && in[i] >= 'A' && in[i] <= 'Z' {
		i++
	}
	if i == 0 {
		return Ref{}, fmt.Errorf("%w: %q has no register key", ErrNoMatch, s)
	}

	key := in[:i]
	num := strings.TrimSpace(in[i:])
	if num == "" {
		return Ref{}, fmt.Errorf("%w: %q has no address", ErrNoMatch, s)
	}

	addr, err := parseAddress(num)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %q: %v", ErrNoMatch, s, err)
	}

	return Ref{Key: Key(key), Addr: addr}, nil
}

// ParseTargetLenient parses like ParseTarget but never fails.
//
// When the input does not match, the key becomes every A-Z letter of the
// upper-cased input and the address is 0. "D" therefore targets D0.
func ParseTargetLenient(s string) Ref {
	if ref, err := ParseTarget(s); err == nil {
		return ref
	}

	var b strings.Builder
	for _, c := range strings.ToUpper(s) {
		if c >= 'A' && c <= 'Z' {
			b.WriteRune(c)
		}
	}
	return Ref{Key: Key(b.String()), Addr: 0}
}

func parseAddress(num string) (Address, error) {
	base := 10
	if strings.ContainsAny(num, "ABCDEF") {
		base = 16
		num = strings.TrimPrefix(num, "0X")
	}

	v, err := strconv.ParseUint(num, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", num)
	}
	return Address(v), nil
}
