package format

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/melsec-monitor/internal/register"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
		want   []uint16
	}{
		{"u16 decimal", U16, "1234", []uint16{1234}},
		{"u16 hex", U16, "0xFF", []uint16{0x00FF}},
		{"u16 upper hex prefix", U16, "0XFF", []uint16{0x00FF}},
		{"u16 masks", U16, "65537", []uint16{1}},
		{"u16 negative wraps", U16, "-1", []uint16{0xFFFF}},
		{"i16 negative", I16, "-2", []uint16{0xFFFE}},
		{"i16 spaces", I16, "  12 ", []uint16{12}},
		{"hex bare", HEX, "abcd", []uint16{0xABCD}},
		{"hex prefixed", HEX, "0x1", []uint16{1}},
		{"bin bare", BIN, "101", []uint16{5}},
		{"bin prefixed", BIN, "0b1000000000000000", []uint16{0x8000}},
		{"ascii two", ASCII, "AB", []uint16{0x4142}},
		{"ascii one padded", ASCII, "A", []uint16{0x4100}},
		{"ascii empty", ASCII, "", []uint16{0x0000}},
		{"ascii truncated", ASCII, "ABC", []uint16{0x4142}},
		{"ascii leading space kept", ASCII, " A", []uint16{0x2041}},
		{"ascii trailing space kept", ASCII, "A ", []uint16{0x4120}},
		{"u32 decimal", U32, "70196", []uint16{0x1234, 0x0001}},
		{"u32 hex", U32, "0x00011234", []uint16{0x1234, 0x0001}},
		{"u32 negative wraps", U32, "-1", []uint16{0xFFFF, 0xFFFF}},
		{"i32 minus one", I32, "-1", []uint16{0xFFFF, 0xFFFF}},
		{"i32 min", I32, "-2147483648", []uint16{0x0000, 0x8000}},
		{"f32 one", F32, "1", []uint16{0x0000, 0x3F80}},
		{"f32 fraction", F32, "0.1", []uint16{0xCCCD, 0x3DCC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.format, tt.input)
			if err != nil {
				t.Fatalf("Encode(%s, %q) error = %v", tt.format, tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Encode(%s, %q) = %#04x, want %#04x", tt.format, tt.input, got, tt.want)
			}
		})
	}
}

func TestEncode_Invalid(t *testing.T) {
	tests := []struct {
		format Format
		input  string
	}{
		{U16, ""},
		{U16, "abc"},
		{U16, "0x"},
		{I16, "0x10"},
		{I16, "1.5"},
		{HEX, "xyz"},
		{BIN, "102"},
		{U32, "   "},
		{I32, "one"},
		{F32, "not-a-float"},
		{F32, "1e39"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format)+"/"+tt.input, func(t *testing.T) {
			_, err := Encode(tt.format, tt.input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Encode(%s, %q) error = %v, want ErrInvalidInput", tt.format, tt.input, err)
			}
		})
	}
}

func TestEncode_UnknownFormat(t *testing.T) {
	_, err := Encode(Format("F64"), "1")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Encode(F64) error = %v, want ErrUnknownFormat", err)
	}
}

func TestPlanWrite(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		target register.Ref
		input  string
		want   Write
	}{
		{
			name:   "narrow at target",
			format: U16,
			target: register.At("D", 11),
			input:  "5",
			want:   Write{Start: register.At("D", 11), Words: []uint16{5}},
		},
		{
			name:   "wide from odd half uses anchor",
			format: I32,
			target: register.At("D", 11),
			input:  "-1",
			want:   Write{Start: register.At("D", 10), Words: []uint16{0xFFFF, 0xFFFF}},
		},
		{
			name:   "wide from even half",
			format: U32,
			target: register.At("D", 10),
			input:  "70196",
			want:   Write{Start: register.At("D", 10), Words: []uint16{0x1234, 0x0001}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanWrite(tt.format, tt.target, tt.input)
			if err != nil {
				t.Fatalf("PlanWrite() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PlanWrite() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPlanWrite_InvalidDoesNotPlan(t *testing.T) {
	w, err := PlanWrite(U16, register.At("D", 0), "nope")
	if err == nil {
		t.Fatal("PlanWrite() expected error")
	}
	if w.Words != nil {
		t.Errorf("PlanWrite() words = %v, want none", w.Words)
	}
}

func TestParseWords(t *testing.T) {
	got, err := ParseWords(" 1, 0x10 ,,65537, -1")
	if err != nil {
		t.Fatalf("ParseWords() error = %v", err)
	}
	want := []uint16{1, 0x10, 1, 0xFFFF}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseWords() = %v, want %v", got, want)
	}

	for _, bad := range []string{"", " , ", "1,two", "0x"} {
		if _, err := ParseWords(bad); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseWords(%q) error = %v, want ErrInvalidInput", bad, err)
		}
	}
}
