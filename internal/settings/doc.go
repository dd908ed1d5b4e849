// Package settings persists melsecmon user preferences in SQLite.
//
// Values are stored as text in a single key/value table. Store layers typed
// accessors on top: the display format, the auto-start flag (stored as "1"
// or absent), and the edit popup position as JSON {"left":..,"top":..}.
// Store satisfies monitor.Preferences.
package settings
