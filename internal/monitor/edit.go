package monitor

import (
	"fmt"

	"github.com/nerrad567/melsec-monitor/internal/format"
	"github.com/nerrad567/melsec-monitor/internal/register"
)

// EditSession is the pending edit of one register.
type EditSession struct {
	Target register.Ref
	Format format.Format
}

// Editor owns the single edit session.
//
// Lifecycle: Closed -> Open(target, format) -> Submit or Cancel -> Closed.
// Opening while a session is open discards the old one unsubmitted.
// Editor is owned by the Loop.
type Editor struct {
	formats *FormatSetting
	store   *Store
	issue   func(w format.Write, f format.Format)
	session *EditSession
}

// NewEditor creates a closed editor.
//
// issue sends a planned write to the mock. It must not block; the result of
// the remote call does not affect the optimistic store update.
//
// A display format change also becomes the open session's write format.
func NewEditor(formats *FormatSetting, store *Store, issue func(w format.Write, f format.Format)) *Editor {
	e := &Editor{
		formats: formats,
		store:   store,
		issue:   issue,
	}
	formats.Subscribe(func(f format.Format) {
		if e.session != nil {
			e.session.Format = f
		}
	})
	return e
}

// Open starts editing target with the active display format as write format.
func (e *Editor) Open(target register.Ref) EditSession {
	e.session = &EditSession{Target: target, Format: e.formats.Current()}
	return *e.session
}

// Session returns the open session; ok is false when closed.
func (e *Editor) Session() (EditSession, bool) {
	if e.session == nil {
		return EditSession{}, false
	}
	return *e.session, true
}

// SetFormat changes the write format of the open session.
// The display format follows it.
func (e *Editor) SetFormat(f format.Format) error {
	if e.session == nil {
		return ErrNoSession
	}
	if !f.Valid() {
		return fmt.Errorf("%w: %q", format.ErrUnknownFormat, f)
	}
	e.session.Format = f
	e.formats.Set(f)
	return nil
}

// Submit encodes text with the session's write format and writes it.
//
// On a parse failure the session stays open and nothing is written. On
// success the write is issued, every written word is stored immediately
// without waiting for confirmation, and the session closes.
//
// Returns:
//   - format.Write: The words written and where
//   - error: ErrNoSession, or a format.ErrInvalidInput parse error
func (e *Editor) Submit(text string) (format.Write, error) {
	if e.session == nil {
		return format.Write{}, ErrNoSession
	}

	f := e.session.Format
	w, err := format.PlanWrite(f, e.session.Target, text)
	if err != nil {
		return format.Write{}, err
	}

	e.issue(w, f)
	for i, word := range w.Words {
		e.store.Set(w.Start.Offset(i), int(word))
	}
	e.session = nil
	return w, nil
}

// Cancel closes the session without writing. It reports whether one was open.
func (e *Editor) Cancel() bool {
	open := e.session != nil
	e.session = nil
	return open
}
