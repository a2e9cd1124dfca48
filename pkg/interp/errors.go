package interp

import (
	"errors"
	"fmt"

	"github.com/vango-dev/vinterp/pkg/protocol"
)

// Sentinel errors for protocol violations. A violation aborts the rest of
// the batch; the interpreter itself stays usable.
var (
	// ErrStackUnderflow is returned when an edit pops more nodes than the
	// operand stack holds.
	ErrStackUnderflow = errors.New("interp: stack underflow")

	// ErrUnknownNode is returned when an edit references an id that is not
	// in the node store.
	ErrUnknownNode = errors.New("interp: unknown node")

	// ErrNodeInUse is returned when a creation edit targets a live id.
	ErrNodeInUse = errors.New("interp: node id in use")

	// ErrMalformedEdit is returned for records with missing or invalid fields.
	ErrMalformedEdit = errors.New("interp: malformed edit")

	// ErrUnknownTemplate is returned when loading a template that was never
	// saved.
	ErrUnknownTemplate = errors.New("interp: unknown template")

	// ErrTemplateExists is returned when saving over an existing template.
	ErrTemplateExists = errors.New("interp: template already saved")

	// ErrBadPath is returned when a child path does not resolve.
	ErrBadPath = errors.New("interp: path does not resolve")

	// ErrRootRemoval is returned when an edit would remove the mount root.
	ErrRootRemoval = errors.New("interp: cannot remove root")

	// ErrDetached is returned when a sibling insertion or a replacement
	// targets a node without a parent.
	ErrDetached = errors.New("interp: anchor has no parent")

	// ErrCycle is returned when a structural edit would place a node inside
	// its own subtree.
	ErrCycle = errors.New("interp: node would contain itself")
)

// ViolationError reports the record that aborted a batch.
type ViolationError struct {
	Seq   uint64
	Index int // Position of the offending record in the batch
	Edit  protocol.Edit
	Err   error // Underlying sentinel
}

// Error returns the error message with record context.
func (e *ViolationError) Error() string {
	return fmt.Sprintf("interp: batch %d: edit %d %s: %v", e.Seq, e.Index, e.Edit, e.Err)
}

// Unwrap returns the underlying error.
func (e *ViolationError) Unwrap() error {
	return e.Err
}

// IsViolation reports whether err is a protocol violation.
func IsViolation(err error) bool {
	var v *ViolationError
	return errors.As(err, &v)
}

// Reason returns a short stable label for the sentinel behind err, for use
// as a metric label or error code lookup.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStackUnderflow):
		return "stack_underflow"
	case errors.Is(err, ErrUnknownNode):
		return "unknown_node"
	case errors.Is(err, ErrNodeInUse):
		return "node_in_use"
	case errors.Is(err, ErrMalformedEdit):
		return "malformed_edit"
	case errors.Is(err, ErrUnknownTemplate):
		return "unknown_template"
	case errors.Is(err, ErrTemplateExists):
		return "template_exists"
	case errors.Is(err, ErrBadPath):
		return "bad_path"
	case errors.Is(err, ErrRootRemoval):
		return "root_removal"
	case errors.Is(err, ErrDetached):
		return "detached"
	case errors.Is(err, ErrCycle):
		return "cycle"
	}
	return "other"
}
