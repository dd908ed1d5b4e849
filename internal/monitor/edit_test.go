package monitor

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/melsec-monitor/internal/format"
	"github.com/nerrad567/melsec-monitor/internal/register"
)

type issuedWrite struct {
	write  format.Write
	format format.Format
}

func newTestEditor(f format.Format) (*Editor, *Store, *FormatSetting, *[]issuedWrite) {
	fs := NewFormatSetting(f)
	store := NewStore(fs)
	var issued []issuedWrite
	ed := NewEditor(fs, store, func(w format.Write, f format.Format) {
		issued = append(issued, issuedWrite{write: w, format: f})
	})
	return ed, store, fs, &issued
}

func TestEditor_OpenDefaultsToDisplayFormat(t *testing.T) {
	ed, _, _, _ := newTestEditor(format.HEX)

	sess := ed.Open(register.At("D", 3))
	if sess.Format != format.HEX || sess.Target != register.At("D", 3) {
		t.Errorf("Open() = %+v", sess)
	}
	if _, ok := ed.Session(); !ok {
		t.Error("Session() reports closed after Open")
	}
}

func TestEditor_SubmitWide(t *testing.T) {
	ed, store, _, issued := newTestEditor(format.I32)

	ed.Open(register.At("D", 11))
	w, err := ed.Submit("-1")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := format.Write{Start: register.At("D", 10), Words: []uint16{0xFFFF, 0xFFFF}}
	if !reflect.DeepEqual(w, want) {
		t.Errorf("Submit() = %+v, want %+v", w, want)
	}
	if len(*issued) != 1 || !reflect.DeepEqual((*issued)[0].write, want) {
		t.Errorf("issued = %+v", *issued)
	}

	for _, ref := range []register.Ref{register.At("D", 10), register.At("D", 11)} {
		if v, ok := store.Get(ref); !ok || v != 0xFFFF {
			t.Errorf("%v = 0x%04X, %v, want 0xFFFF", ref, v, ok)
		}
	}
	if _, ok := ed.Session(); ok {
		t.Error("session still open after submit")
	}
}

func TestEditor_SubmitASCII(t *testing.T) {
	ed, store, _, _ := newTestEditor(format.ASCII)

	ed.Open(register.At("D", 0))
	if _, err := ed.Submit("AB"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if v, _ := store.Get(register.At("D", 0)); v != 0x4142 {
		t.Errorf("D0 = 0x%04X, want 0x4142", v)
	}
}

func TestEditor_InvalidKeepsSessionOpen(t *testing.T) {
	ed, store, _, issued := newTestEditor(format.U16)

	ed.Open(register.At("D", 0))
	_, err := ed.Submit("twelve")
	if !errors.Is(err, format.ErrInvalidInput) {
		t.Fatalf("Submit() error = %v, want ErrInvalidInput", err)
	}
	if _, ok := ed.Session(); !ok {
		t.Error("session closed after a parse error")
	}
	if len(*issued) != 0 {
		t.Errorf("issued %d writes for invalid input", len(*issued))
	}
	if store.Len() != 0 {
		t.Error("store changed for invalid input")
	}
}

func TestEditor_SetFormatFollowsDisplay(t *testing.T) {
	ed, _, fs, _ := newTestEditor(format.U16)

	if err := ed.SetFormat(format.F32); !errors.Is(err, ErrNoSession) {
		t.Errorf("SetFormat() without session = %v, want ErrNoSession", err)
	}

	ed.Open(register.At("D", 0))
	if err := ed.SetFormat(format.F32); err != nil {
		t.Fatalf("SetFormat() error = %v", err)
	}
	if fs.Current() != format.F32 {
		t.Errorf("display format = %s, want F32", fs.Current())
	}
	if sess, _ := ed.Session(); sess.Format != format.F32 {
		t.Errorf("write format = %s, want F32", sess.Format)
	}
	if err := ed.SetFormat("F64"); !errors.Is(err, format.ErrUnknownFormat) {
		t.Errorf("SetFormat(F64) = %v, want ErrUnknownFormat", err)
	}
}

func TestEditor_DisplayFormatFollowsIntoSession(t *testing.T) {
	ed, _, fs, _ := newTestEditor(format.U16)

	fs.Set(format.HEX)
	if _, ok := ed.Session(); ok {
		t.Fatal("display change opened a session")
	}

	ed.Open(register.At("D", 4))
	fs.Set(format.I32)
	if sess, _ := ed.Session(); sess.Format != format.I32 {
		t.Errorf("write format = %s, want I32", sess.Format)
	}

	w, err := ed.Submit("-1")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if w.Start != register.At("D", 4) || len(w.Words) != 2 {
		t.Errorf("Submit() = %+v, want I32 pair at D4", w)
	}
}

func TestEditor_ReopenDiscardsPrevious(t *testing.T) {
	ed, _, _, issued := newTestEditor(format.U16)

	ed.Open(register.At("D", 0))
	ed.Open(register.At("D", 5))
	if _, err := ed.Submit("1"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if got := (*issued)[0].write.Start; got != register.At("D", 5) {
		t.Errorf("write went to %v, want D5", got)
	}
}

func TestEditor_CancelAndClosedSubmit(t *testing.T) {
	ed, _, _, _ := newTestEditor(format.U16)

	if ed.Cancel() {
		t.Error("Cancel() with nothing open reported true")
	}
	ed.Open(register.At("D", 0))
	if !ed.Cancel() {
		t.Error("Cancel() with open session reported false")
	}
	if _, err := ed.Submit("1"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Submit() after cancel = %v, want ErrNoSession", err)
	}
}
