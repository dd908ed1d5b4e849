package monitor

import (
	"github.com/nerrad567/melsec-monitor/internal/format"
	"github.com/nerrad567/melsec-monitor/internal/register"
)

// RowView is the rendered state of one register row.
type RowView struct {
	Ref    register.Ref
	Label  string
	Format format.Format

	// Known is false until a value has been observed for Ref.
	Known bool

	// Bits holds the stored word most significant bit first.
	Bits [16]bool

	// Formatted is the value column; blank when unknown.
	Formatted string

	// Raw is the hex column: 4 digits for a word, 8 for a complete pair.
	Raw string

	// PairedEmpty marks the high half of a pair in a 32-bit format.
	// Its value is shown on the even row above it.
	PairedEmpty bool
}

// buildRow applies the pairing rules for f to ref.
//
// 16-bit formats show the word itself. In 32-bit formats the odd row is
// paired-empty, and the even row shows the combined value only when its
// high half is known; otherwise it shows the low word's raw hex alone.
func buildRow(ref register.Ref, f format.Format, words map[register.Ref]uint16) RowView {
	w, known := words[ref]
	row := RowView{
		Ref:    ref,
		Label:  ref.String(),
		Format: f,
		Known:  known,
	}
	if known {
		row.Bits = format.Bits(w)
	}

	if !f.Wide() {
		if known {
			row.Formatted = format.Decode16(f, w)
			row.Raw = format.Raw16(w)
		}
		return row
	}

	if ref.IsHigh() {
		row.PairedEmpty = true
		return row
	}
	if !known {
		return row
	}

	high, ok := words[ref.Partner()]
	if !ok {
		row.Raw = format.Raw16(w)
		return row
	}
	row.Formatted = format.DecodePair(f, w, high)
	row.Raw = format.Raw32(w, high)
	return row
}
