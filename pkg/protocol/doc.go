// Package protocol implements the wire formats spoken between an edit
// producer, the interpreter and its host.
//
// Three kinds of data cross the boundary:
//
//   - Edit batches (producer → interpreter): an ordered list of tagged edit
//     records. Batches have a compact binary form and an equivalent JSON text
//     form; both preserve record order and field types exactly.
//   - Outbound messages (interpreter → host): user events carrying a
//     normalized payload, file-dialog requests and navigation requests.
//     These are JSON encoded, mirroring the IPC shape hosts already speak.
//   - Frames: a 6-byte header that multiplexes the above over a single
//     byte-oriented transport such as a WebSocket.
//
// # Edit Batch Wire Format
//
//	[Seq: uvarint][Count: uvarint] then Count records of
//	[Op: 1 byte][fields in the order listed for that op]
//
// Node ids are uvarints, strings are uvarint length-prefixed UTF-8, counts
// and indices are uvarints, booleans are one byte and paths are
// length-prefixed byte strings of sibling-skip counts.
//
// Example CreateTextNode record:
//
//	[0x03][id][len "hi"]["hi"]
//	Total: 5 bytes for id < 128
//
// # File Structure
//
//   - encoder.go: Binary encoder
//   - decoder.go: Binary decoder with allocation limits
//   - edit.go: Edit records, opcodes and batch encoding
//   - edit_json.go: Text (JSON) form of edit records
//   - payload.go: Normalized event payloads
//   - message.go: Outbound messages
//   - hydrate.go: Hydration requests
//   - frame.go: Frame header and transport helpers
//   - error.go: Error messages sent to the producer
package protocol
