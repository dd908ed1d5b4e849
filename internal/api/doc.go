// Package api serves the optional melsecmon HTTP API and WebSocket feed.
//
// Routes live under /api/v1:
//
//	GET  /health        engine state (mode, server status, target, format)
//	GET  /rows          every known register row
//	GET  /words/{ref}   one row, e.g. /words/D100
//	PUT  /format        {"format":"F32"}
//	POST /words         {"target":"D100","format":"I32","text":"-1"}
//	                    or {"target":"D100","text":"1,0x10"} for raw words
//	GET  /ws            WebSocket; subscribe to "register.changed"
//
// Every handler reaches the engine through its Loop, so HTTP requests are
// serialised with UI input and incoming updates.
package api
