// Package interp applies edit batches to a rendering surface.
//
// An Interpreter is a stack machine. Creation edits push new nodes onto an
// operand stack and bind them to producer-assigned ids in a Store;
// structural edits pop them into place. Alongside the tree it keeps a
// listener registry: bubbling listeners are delegated to a single native
// handler per event name on the root, non-bubbling listeners attach to the
// node itself. Native events are resolved back to node ids, normalized and
// sent to the host as protocol messages.
//
// # Batches
//
// Apply validates a whole batch before touching the surface. Stack arity,
// id liveness and template existence are simulated first, so most protocol
// violations reject the batch with no side effects. Violations that depend
// on the live tree, such as a child path that does not resolve, abort the
// batch at the offending record and clear the operand stack. Either way the
// caller receives a *ViolationError and the interpreter remains usable.
//
// # Concurrency
//
// An Interpreter is not safe for concurrent use. Hosts serialize batches,
// native events and queries on one goroutine; see package host.
package interp
