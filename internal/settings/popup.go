package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Size is a width and height in terminal cells.
type Size struct {
	Width  int
	Height int
}

// DefaultPopupSize is the edit popup's size.
var DefaultPopupSize = Size{Width: 44, Height: 8}

// Position is the top-left corner of the edit popup.
type Position struct {
	Left int `json:"left"`
	Top  int `json:"top"`
}

// Clamp keeps a popup of the given size fully inside viewport. A popup
// larger than the viewport is pinned to the top-left corner.
func (p Position) Clamp(popup, viewport Size) Position {
	return Position{
		Left: clampAxis(p.Left, popup.Width, viewport.Width),
		Top:  clampAxis(p.Top, popup.Height, viewport.Height),
	}
}

func clampAxis(v, extent, limit int) int {
	hi := limit - extent
	if v > hi {
		v = hi
	}
	if v < 0 {
		v = 0
	}
	return v
}

// PopupPosition loads the saved popup position clamped to viewport. When
// clamping moved it the corrected value is written back. ok is false when
// nothing usable is saved.
func (s *Store) PopupPosition(ctx context.Context, popup, viewport Size) (Position, bool, error) {
	v, err := s.repo.Get(ctx, KeyPopupPosition)
	if errors.Is(err, ErrNotFound) {
		return Position{}, false, nil
	}
	if err != nil {
		return Position{}, false, err
	}

	var saved Position
	if err := json.Unmarshal([]byte(v), &saved); err != nil {
		return Position{}, false, nil //nolint:nilerr // corrupt value is treated as unset
	}

	clamped := saved.Clamp(popup, viewport)
	if clamped != saved {
		if err := s.SetPopupPosition(ctx, clamped); err != nil {
			return clamped, true, err
		}
	}
	return clamped, true, nil
}

// SetPopupPosition saves pos as JSON.
func (s *Store) SetPopupPosition(ctx context.Context, pos Position) error {
	b, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("encoding popup position: %w", err)
	}
	return s.repo.Set(ctx, KeyPopupPosition, string(b))
}
