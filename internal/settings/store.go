package settings

import (
	"context"
	"errors"

	"github.com/nerrad567/melsec-monitor/internal/format"
)

// Keys used in the settings table.
const (
	KeyDisplayFormat = "displayFormat"
	KeyAutoStart     = "autoStartNext"
	KeyPopupPosition = "editPopupPos"
)

// Store exposes typed preferences over a Repository.
type Store struct {
	repo Repository
}

// NewStore wraps repo.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// DisplayFormat returns the saved display format. An absent or unrecognised
// value reports ok=false so the caller keeps its default.
func (s *Store) DisplayFormat(ctx context.Context) (format.Format, bool, error) {
	v, err := s.repo.Get(ctx, KeyDisplayFormat)
	if errors.Is(err, ErrNotFound) {
		return format.Default, false, nil
	}
	if err != nil {
		return format.Default, false, err
	}
	f, err := format.Parse(v)
	if err != nil {
		return format.Default, false, nil //nolint:nilerr // stale value falls back to default
	}
	return f, true, nil
}

// SetDisplayFormat saves f.
func (s *Store) SetDisplayFormat(ctx context.Context, f format.Format) error {
	if !f.Valid() {
		return format.ErrUnknownFormat
	}
	return s.repo.Set(ctx, KeyDisplayFormat, f.String())
}

// AutoStart reports whether the mock server should start on launch.
func (s *Store) AutoStart(ctx context.Context) (bool, error) {
	v, err := s.repo.Get(ctx, KeyAutoStart)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "1", nil
}

// SetAutoStart stores "1" when enabled and removes the key otherwise.
func (s *Store) SetAutoStart(ctx context.Context, enabled bool) error {
	if enabled {
		return s.repo.Set(ctx, KeyAutoStart, "1")
	}
	return s.repo.Delete(ctx, KeyAutoStart)
}
