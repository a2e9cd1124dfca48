// Package host runs an interpreter over an in-memory surface and exposes it
// over HTTP and websocket.
//
// Every batch, hydration, simulated event and query goes through a single
// event-loop goroutine, so the interpreter is never touched concurrently.
// Outbound interpreter messages are fanned out to every subscriber.
//
// Routes:
//
//	GET  /snapshot                   serialized surface markup
//	GET  /stats                      store, stack and listener counters
//	POST /edits                      binary or JSON edit batch
//	POST /hydrate                    {"ids": [...], "markup": "..."}
//	POST /nodes/{id}/events/{name}   simulate a native event
//	GET  /nodes/{id}/rect            bounding box of a node
//	GET  /ws                         binary frames in, JSON messages out
//	GET  /metrics                    Prometheus exposition, when configured
package host
