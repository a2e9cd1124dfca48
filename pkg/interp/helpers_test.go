package interp

import (
	"io"
	"log/slog"
	"testing"

	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
	"github.com/vango-dev/vinterp/pkg/surface/htmldom"
)

// recorder collects outbound messages.
type recorder struct {
	msgs []protocol.Message
}

func (r *recorder) Send(msg protocol.Message) { r.msgs = append(r.msgs, msg) }

func (r *recorder) methods() []string {
	out := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Method
	}
	return out
}

func (r *recorder) events() []protocol.EventMessage {
	var out []protocol.EventMessage
	for _, m := range r.msgs {
		if ev, ok := m.Params.(protocol.EventMessage); ok {
			out = append(out, ev)
		}
	}
	return out
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestInterp(t *testing.T, opts ...Option) (*Interpreter, *htmldom.Document, *recorder) {
	t.Helper()
	doc := htmldom.New()
	rec := &recorder{}
	opts = append([]Option{WithSink(rec), WithLogger(quietLogger)}, opts...)
	return New(doc, opts...), doc, rec
}

func mustApply(t *testing.T, in *Interpreter, edits ...protocol.Edit) {
	t.Helper()
	if err := in.ApplyEdits(edits...); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
}

func mustNode(t *testing.T, in *Interpreter, id protocol.NodeID) surface.Node {
	t.Helper()
	n, err := in.Node(id)
	if err != nil {
		t.Fatalf("Node(%d) error = %v", id, err)
	}
	return n
}

func createElement(tag string, id protocol.NodeID) protocol.Edit {
	return protocol.Edit{Op: protocol.OpCreateElement, Tag: tag, ID: id}
}

func createText(text string, id protocol.NodeID) protocol.Edit {
	return protocol.Edit{Op: protocol.OpCreateTextNode, Text: text, ID: id}
}

func appendChildren(parent protocol.NodeID, count uint32) protocol.Edit {
	return protocol.Edit{Op: protocol.OpAppendChildren, ID: parent, Count: count}
}

func pushRoot(id protocol.NodeID) protocol.Edit {
	return protocol.Edit{Op: protocol.OpPushRoot, ID: id}
}

func setAttr(id protocol.NodeID, name, value string) protocol.Edit {
	return protocol.Edit{Op: protocol.OpSetAttribute, ID: id, Name: name, Value: value}
}

func listen(id protocol.NodeID, name string, bubbles bool) protocol.Edit {
	return protocol.Edit{Op: protocol.OpNewEventListener, ID: id, Name: name, Bubbles: bubbles}
}

func unlisten(id protocol.NodeID, name string, bubbles bool) protocol.Edit {
	return protocol.Edit{Op: protocol.OpRemoveEventListener, ID: id, Name: name, Bubbles: bubbles}
}

func remove(id protocol.NodeID) protocol.Edit {
	return protocol.Edit{Op: protocol.OpRemove, ID: id}
}
