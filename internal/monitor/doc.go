// Package monitor is the register monitor engine.
//
// It keeps a sparse cache of the last known 16-bit value of every register
// it has seen, renders each cached register in the active display format,
// and turns user edits into register writes on the remote protocol mock.
//
// # Components
//
//   - Store: (key, address) to word cache; the single source of truth
//   - FormatSetting: the process-wide display format with change subscribers
//   - Router: delivers live updates into the Store, from the push channel
//     when it is available and from a Poller otherwise
//   - Editor: the single pending edit session
//   - DiagLog: the timestamped diagnostic log shown beside the rows
//   - Engine: wires the above to the Remote and owns the server lifecycle
//
// # Threading
//
// All engine state belongs to one goroutine, the Loop. Push notifications,
// poll results, remote call completions and UI requests are posted to the
// Loop as closures and applied one at a time, so a single update (store
// write plus the renders it triggers) is never interleaved with another.
// Engine methods with a context.Context parameter may be called from any
// goroutine; everything else must run on the Loop.
//
// # Rendering
//
// The engine never draws. It emits RowView values to registered Renderers,
// which materialise rows however they like (see package rowview).
package monitor
