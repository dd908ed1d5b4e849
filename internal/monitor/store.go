package monitor

import (
	"sort"

	"github.com/nerrad567/melsec-monitor/internal/register"
)

// wordMask keeps the low 16 bits of any incoming value.
const wordMask = 0xFFFF

// Store is the sparse cache of last known register words.
//
// Entries appear on first observed value and are never removed. A register
// that was never observed is unknown, which is rendered blank rather than 0.
// Store is owned by the Loop and is not safe for concurrent use.
type Store struct {
	words     map[register.Ref]uint16
	format    *FormatSetting
	renderers []Renderer
	watchers  []func(ref register.Ref, value uint16)
}

// NewStore creates an empty store rendering in the formats held by fs.
func NewStore(fs *FormatSetting) *Store {
	return &Store{
		words:  make(map[register.Ref]uint16),
		format: fs,
	}
}

// AddRenderer registers r to receive every row render.
func (s *Store) AddRenderer(r Renderer) {
	s.renderers = append(s.renderers, r)
}

// Watch registers fn to run on every stored value, before rendering.
// Renders caused only by a format change do not call fn.
func (s *Store) Watch(fn func(ref register.Ref, value uint16)) {
	s.watchers = append(s.watchers, fn)
}

// Set stores value & 0xFFFF at ref and renders the row.
//
// In a 32-bit format the partner half is re-rendered too when it is known,
// so the pair's combined value follows either word.
func (s *Store) Set(ref register.Ref, value int) {
	w := uint16(value & wordMask)
	s.words[ref] = w

	for _, fn := range s.watchers {
		fn(ref, w)
	}

	s.render(ref)

	if s.format.Current().Wide() {
		partner := ref.Partner()
		if _, ok := s.words[partner]; ok {
			s.render(partner)
		}
	}
}

// Get returns the stored word; ok is false when ref is unknown.
func (s *Store) Get(ref register.Ref) (uint16, bool) {
	w, ok := s.words[ref]
	return w, ok
}

// Len returns the number of known registers.
func (s *Store) Len() int {
	return len(s.words)
}

// SeedPlaceholders stores 0 at count consecutive registers from start.
//
// Existing values are overwritten. Rows appear immediately and fill in as
// live data arrives.
func (s *Store) SeedPlaceholders(start register.Ref, count int) {
	for i := 0; i < count; i++ {
		s.Set(start.Offset(i), 0)
	}
}

// Refs returns every known register ordered by key, then address.
func (s *Store) Refs() []register.Ref {
	refs := make([]register.Ref, 0, len(s.words))
	for ref := range s.words {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	return refs
}

// RenderAll re-renders every known register, e.g. after a format change.
func (s *Store) RenderAll() {
	for _, ref := range s.Refs() {
		s.render(ref)
	}
}

// View computes the row for ref in the active format.
func (s *Store) View(ref register.Ref) RowView {
	return buildRow(ref, s.format.Current(), s.words)
}

func (s *Store) render(ref register.Ref) {
	if len(s.renderers) == 0 {
		return
	}
	row := s.View(ref)
	for _, r := range s.renderers {
		r.Render(row)
	}
}

