package interp

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
)

const testRoot protocol.NodeID = 100

func TestBasicTreeBuild(t *testing.T) {
	in, doc, _ := newTestInterp(t, WithRootID(testRoot))

	mustApply(t, in,
		createElement("div", 0),
		createText("hi", 1),
		appendChildren(0, 1),
		pushRoot(testRoot),
		appendChildren(testRoot, 1),
	)

	div := mustNode(t, in, 0)
	if doc.Parent(div) != doc.Root() {
		t.Error("node 0 is not a child of root")
	}
	if text := mustNode(t, in, 1); doc.Parent(text) != div || doc.Text(text) != "hi" {
		t.Error("node 1 is not the text child of node 0")
	}
	if got := doc.HTML(); got != "<div>hi</div>" {
		t.Errorf("HTML() = %s", got)
	}
	if in.StackDepth() != 0 {
		t.Errorf("StackDepth() = %d, want 0", in.StackDepth())
	}
}

func TestAppendChildrenOrder(t *testing.T) {
	in, doc, _ := newTestInterp(t)
	mustApply(t, in,
		createElement("ul", 1),
		createElement("li", 2),
		createElement("li", 3),
		createElement("li", 4),
		appendChildren(1, 3),
		appendChildren(0, 1),
	)
	mustApply(t, in,
		setAttr(2, "id", "a"), setAttr(3, "id", "b"), setAttr(4, "id", "c"),
	)
	if got := doc.HTML(); got != `<ul><li id="a"></li><li id="b"></li><li id="c"></li></ul>` {
		t.Errorf("HTML() = %s", got)
	}
}

func TestSiblingEdits(t *testing.T) {
	in, doc, _ := newTestInterp(t)
	mustApply(t, in,
		createText("b", 2),
		appendChildren(0, 1),
		createText("a", 1),
		protocol.Edit{Op: protocol.OpInsertBefore, ID: 2, Count: 1},
		createText("c", 3),
		createText("d", 4),
		protocol.Edit{Op: protocol.OpInsertAfter, ID: 2, Count: 2},
	)
	if got := doc.HTML(); got != "abcd" {
		t.Fatalf("HTML() = %s, want abcd", got)
	}

	mustApply(t, in,
		createElement("i", 5),
		protocol.Edit{Op: protocol.OpReplaceWith, ID: 3, Count: 1},
	)
	if got := doc.HTML(); got != "ab<i></i>d" {
		t.Errorf("HTML() after ReplaceWith = %s", got)
	}
	if in.Store().Has(3) {
		t.Error("replaced id 3 still bound")
	}

	err := in.ApplyEdits(createText("x", 6), protocol.Edit{Op: protocol.OpInsertBefore, ID: 6, Count: 0})
	if !errors.Is(err, ErrDetached) {
		t.Errorf("InsertBefore detached anchor error = %v, want ErrDetached", err)
	}
}

func TestArityInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	ops := []protocol.EditOp{
		protocol.OpAppendChildren,
		protocol.OpInsertBefore,
		protocol.OpInsertAfter,
		protocol.OpReplaceWith,
	}

	properties.Property("popping past the stack is rejected without side effects", prop.ForAll(
		func(depth, extra, opIndex int) bool {
			in, doc, _ := newTestInterp(t)
			// An attached anchor for the sibling ops.
			if err := in.ApplyEdits(createElement("p", 1), appendChildren(0, 1)); err != nil {
				return false
			}
			setup := make([]protocol.Edit, depth)
			for i := range setup {
				setup[i] = createElement("span", protocol.NodeID(10+i))
			}
			if err := in.ApplyEdits(setup...); err != nil {
				return false
			}
			before := doc.HTML()
			storeLen := in.Store().Len()

			target := protocol.NodeID(1)
			if ops[opIndex] == protocol.OpAppendChildren {
				target = 0
			}
			err := in.ApplyEdits(
				createText("side effect", 99),
				protocol.Edit{Op: ops[opIndex], ID: target, Count: uint32(depth + 2 + extra)},
			)
			return errors.Is(err, ErrStackUnderflow) &&
				doc.HTML() == before &&
				in.Store().Len() == storeLen &&
				in.StackDepth() == depth
		},
		gen.IntRange(0, 5),
		gen.IntRange(0, 3),
		gen.IntRange(0, len(ops)-1),
	))

	properties.TestingRun(t)
}

func TestArityZeroDepthOps(t *testing.T) {
	tests := []struct {
		name string
		edit protocol.Edit
	}{
		{"PopRoot", protocol.Edit{Op: protocol.OpPopRoot}},
		{"LoadChild", protocol.Edit{Op: protocol.OpLoadChild, Path: []uint8{0}}},
		{"AssignID", protocol.Edit{Op: protocol.OpAssignID, Path: []uint8{0}, ID: 5}},
		{"HydrateText", protocol.Edit{Op: protocol.OpHydrateText, Path: []uint8{0}, ID: 5}},
		{"ReplacePlaceholder", protocol.Edit{Op: protocol.OpReplacePlaceholder, Path: []uint8{0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _, _ := newTestInterp(t)
			err := in.ApplyEdits(tt.edit)
			if !errors.Is(err, ErrStackUnderflow) {
				t.Errorf("Apply(%v) error = %v, want ErrStackUnderflow", tt.edit, err)
			}
			var verr *ViolationError
			if !errors.As(err, &verr) || verr.Index != 0 {
				t.Errorf("error %v is not a ViolationError at index 0", err)
			}
		})
	}
}

func TestViolationRejectsWholeBatch(t *testing.T) {
	in, doc, _ := newTestInterp(t)
	err := in.ApplyEdits(
		createElement("div", 1),
		appendChildren(0, 1),
		setAttr(42, "class", "x"),
	)
	var verr *ViolationError
	if !errors.As(err, &verr) || !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("Apply() error = %v, want ViolationError wrapping ErrUnknownNode", err)
	}
	if verr.Index != 2 {
		t.Errorf("Index = %d, want 2", verr.Index)
	}
	if doc.HTML() != "" || in.Store().Has(1) {
		t.Errorf("rejected batch left side effects: %q", doc.HTML())
	}

	// The interpreter stays usable.
	mustApply(t, in, createElement("div", 1), appendChildren(0, 1))
	if doc.HTML() != "<div></div>" {
		t.Errorf("HTML() = %s", doc.HTML())
	}
}

func TestBadPathAbortsMidBatch(t *testing.T) {
	in, doc, _ := newTestInterp(t)
	err := in.ApplyEdits(
		createElement("div", 1),
		appendChildren(0, 1),
		pushRoot(1),
		protocol.Edit{Op: protocol.OpLoadChild, Path: []uint8{3}},
		setAttr(1, "class", "late"),
	)
	if !errors.Is(err, ErrBadPath) {
		t.Fatalf("Apply() error = %v, want ErrBadPath", err)
	}
	if doc.HTML() != "<div></div>" {
		t.Errorf("records before the violation should apply, HTML() = %s", doc.HTML())
	}
	if in.StackDepth() != 0 {
		t.Errorf("StackDepth() = %d, want 0 after abort", in.StackDepth())
	}
}

func TestCreateAtLiveID(t *testing.T) {
	in, _, _ := newTestInterp(t)
	mustApply(t, in, createElement("div", 1))
	if err := in.ApplyEdits(createText("x", 1)); !errors.Is(err, ErrNodeInUse) {
		t.Errorf("create at live id error = %v, want ErrNodeInUse", err)
	}
	if err := in.ApplyEdits(createElement("", 2)); !errors.Is(err, ErrMalformedEdit) {
		t.Errorf("empty tag error = %v, want ErrMalformedEdit", err)
	}
	if err := in.ApplyEdits(createElement("div", MaxNodeID+1)); !errors.Is(err, ErrMalformedEdit) {
		t.Errorf("huge id error = %v, want ErrMalformedEdit", err)
	}
}

func TestIDReuseAfterRemoval(t *testing.T) {
	in, doc, _ := newTestInterp(t)
	mustApply(t, in,
		createElement("div", 1),
		createElement("span", 2),
		appendChildren(1, 1),
		appendChildren(0, 1),
	)
	// Removing the parent frees the child id within the same batch.
	mustApply(t, in,
		remove(1),
		createElement("p", 2),
		appendChildren(0, 1),
	)
	if got := doc.HTML(); got != "<p></p>" {
		t.Errorf("HTML() = %s", got)
	}
}

func TestRemoveSemantics(t *testing.T) {
	in, doc, _ := newTestInterp(t, WithRootID(testRoot))
	mustApply(t, in, createElement("div", 1), appendChildren(testRoot, 1))

	mustApply(t, in, remove(7))
	mustApply(t, in, remove(1), remove(1))
	if doc.HTML() != "" {
		t.Errorf("HTML() = %s", doc.HTML())
	}
	if err := in.ApplyEdits(remove(testRoot)); !errors.Is(err, ErrRootRemoval) {
		t.Errorf("Remove(root) error = %v, want ErrRootRemoval", err)
	}
	if err := in.ApplyEdits(protocol.Edit{Op: protocol.OpReplaceWith, ID: testRoot}); !errors.Is(err, ErrRootRemoval) {
		t.Errorf("ReplaceWith(root) error = %v, want ErrRootRemoval", err)
	}
}

func TestStackPersistsAcrossBatches(t *testing.T) {
	in, doc, _ := newTestInterp(t)
	mustApply(t, in, createElement("div", 1))
	if in.StackDepth() != 1 {
		t.Fatalf("StackDepth() = %d, want 1", in.StackDepth())
	}
	mustApply(t, in, appendChildren(0, 1))
	if doc.HTML() != "<div></div>" {
		t.Errorf("HTML() = %s", doc.HTML())
	}
}

func TestLoadChildAndPathOps(t *testing.T) {
	in, doc, _ := newTestInterp(t)
	mustApply(t, in,
		createElement("section", 1),
		appendChildren(0, 1),
		setAttr(1, InnerHTMLAttr, `<h1>t</h1><p><b>x</b><i></i></p>`),
	)

	mustApply(t, in,
		pushRoot(1),
		protocol.Edit{Op: protocol.OpAssignID, Path: []uint8{1, 0}, ID: 2},
		protocol.Edit{Op: protocol.OpHydrateText, Path: []uint8{0, 0}, Text: "title", ID: 3},
		protocol.Edit{Op: protocol.OpLoadChild, Path: []uint8{1}},
		protocol.Edit{Op: protocol.OpPopRoot},
		createText("filled", 4),
		protocol.Edit{Op: protocol.OpReplacePlaceholder, Path: []uint8{1, 1}, Count: 1},
		protocol.Edit{Op: protocol.OpPopRoot},
	)

	if got := doc.HTML(); got != "<section><h1>title</h1><p><b>x</b>filled</p></section>" {
		t.Errorf("HTML() = %s", got)
	}
	if doc.Tag(mustNode(t, in, 2)) != "b" {
		t.Error("AssignID bound the wrong node")
	}
	if doc.Text(mustNode(t, in, 3)) != "title" {
		t.Error("HydrateText did not bind the text node")
	}
	if in.StackDepth() != 0 {
		t.Errorf("StackDepth() = %d", in.StackDepth())
	}
}

func TestHydrateTextReplacesElement(t *testing.T) {
	in, doc, _ := newTestInterp(t)
	mustApply(t, in,
		createElement("p", 1),
		createElement("br", 2),
		appendChildren(1, 1),
		appendChildren(0, 1),
		pushRoot(1),
		protocol.Edit{Op: protocol.OpHydrateText, Path: []uint8{0}, Text: "t", ID: 3},
		protocol.Edit{Op: protocol.OpPopRoot},
	)
	if doc.HTML() != "<p>t</p>" {
		t.Errorf("HTML() = %s", doc.HTML())
	}
	if in.Store().Has(2) {
		t.Error("replaced element id should be unbound")
	}
}

func TestTemplateReuse(t *testing.T) {
	in, doc, _ := newTestInterp(t)
	mustApply(t, in,
		createElement("li", 1),
		createElement("li", 2),
		createElement("li", 3),
		protocol.Edit{Op: protocol.OpPopRoot},
		protocol.Edit{Op: protocol.OpPopRoot},
		protocol.Edit{Op: protocol.OpPopRoot},
		setAttr(2, "class", "mid"),
		protocol.Edit{Op: protocol.OpSaveTemplate, Template: "row", IDs: []protocol.NodeID{1, 2, 3}},
	)
	// Later edits to the source do not leak into the skeleton.
	mustApply(t, in, setAttr(2, "class", "changed"))

	var batch []protocol.Edit
	var ids []protocol.NodeID
	for inst := 0; inst < 2; inst++ {
		for i := 0; i < 3; i++ {
			id := protocol.NodeID(10*(inst+1) + i)
			ids = append(ids, id)
			batch = append(batch, protocol.Edit{Op: protocol.OpLoadTemplate, Template: "row", Index: uint32(i), ID: id})
		}
	}
	batch = append(batch, appendChildren(0, 6))
	mustApply(t, in, batch...)

	for _, e := range batch {
		if e.Op != protocol.OpLoadTemplate && e.Op != protocol.OpAppendChildren {
			t.Errorf("instantiation issued %v", e.Op)
		}
	}

	seen := map[surface.Node]bool{}
	for _, id := range ids {
		n := mustNode(t, in, id)
		if seen[n] {
			t.Errorf("id %d shares a node", id)
		}
		seen[n] = true
	}
	want := `<li></li><li class="mid"></li><li></li>`
	if got := doc.HTML(); got != want+want {
		t.Errorf("HTML() = %s", got)
	}

	if err := in.ApplyEdits(protocol.Edit{Op: protocol.OpSaveTemplate, Template: "row", IDs: []protocol.NodeID{1}}); !errors.Is(err, ErrTemplateExists) {
		t.Errorf("resave error = %v, want ErrTemplateExists", err)
	}
	if err := in.ApplyEdits(protocol.Edit{Op: protocol.OpLoadTemplate, Template: "nope", ID: 50}); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("unknown template error = %v, want ErrUnknownTemplate", err)
	}
	if err := in.ApplyEdits(protocol.Edit{Op: protocol.OpLoadTemplate, Template: "row", Index: 3, ID: 50}); !errors.Is(err, ErrMalformedEdit) {
		t.Errorf("template index error = %v, want ErrMalformedEdit", err)
	}
}

func TestTemplateSavedAndLoadedInOneBatch(t *testing.T) {
	in, doc, _ := newTestInterp(t)
	mustApply(t, in,
		createElement("b", 1),
		protocol.Edit{Op: protocol.OpPopRoot},
		protocol.Edit{Op: protocol.OpSaveTemplate, Template: "t", IDs: []protocol.NodeID{1}},
		protocol.Edit{Op: protocol.OpLoadTemplate, Template: "t", ID: 2},
		appendChildren(0, 1),
	)
	if doc.HTML() != "<b></b>" {
		t.Errorf("HTML() = %s", doc.HTML())
	}
}

func TestUnknownOpcode(t *testing.T) {
	in, _, _ := newTestInterp(t)
	if err := in.ApplyEdits(protocol.Edit{Op: 0xEE}); !errors.Is(err, ErrMalformedEdit) {
		t.Errorf("unknown op error = %v, want ErrMalformedEdit", err)
	}
}

func TestCreateElementNS(t *testing.T) {
	in, doc, _ := newTestInterp(t)
	mustApply(t, in,
		protocol.Edit{Op: protocol.OpCreateElementNS, Tag: "svg", Namespace: "http://www.w3.org/2000/svg", ID: 1},
		protocol.Edit{Op: protocol.OpCreatePlaceholder, ID: 2},
		appendChildren(0, 2),
	)
	if got := doc.HTML(); got != "<svg></svg><pre hidden=\"\"></pre>" {
		t.Errorf("HTML() = %s", got)
	}
}

func TestStructuralEditsRejectCycles(t *testing.T) {
	popRoot := protocol.Edit{Op: protocol.OpPopRoot}
	tests := []struct {
		name  string
		edits []protocol.Edit
		want  error
	}{
		{
			name:  "append parent under its child",
			edits: []protocol.Edit{pushRoot(1), appendChildren(2, 1)},
			want:  ErrCycle,
		},
		{
			name:  "append node under itself",
			edits: []protocol.Edit{pushRoot(2), pushRoot(2), appendChildren(2, 1)},
			want:  ErrCycle,
		},
		{
			name:  "append root under a child",
			edits: []protocol.Edit{pushRoot(0), appendChildren(1, 1)},
			want:  ErrCycle,
		},
		{
			name:  "append root under a detached node",
			edits: []protocol.Edit{createElement("p", 3), pushRoot(0), appendChildren(3, 1)},
			want:  ErrRootRemoval,
		},
		{
			name:  "insert parent before its child",
			edits: []protocol.Edit{pushRoot(1), {Op: protocol.OpInsertBefore, ID: 2, Count: 1}},
			want:  ErrCycle,
		},
		{
			name:  "insert node after itself",
			edits: []protocol.Edit{pushRoot(2), {Op: protocol.OpInsertAfter, ID: 2, Count: 1}},
			want:  ErrCycle,
		},
		{
			name:  "replace child with its parent",
			edits: []protocol.Edit{pushRoot(1), {Op: protocol.OpReplaceWith, ID: 2, Count: 1}},
			want:  ErrCycle,
		},
		{
			name: "replace placeholder with its parent",
			edits: []protocol.Edit{
				pushRoot(1),
				pushRoot(1),
				{Op: protocol.OpReplacePlaceholder, Path: []uint8{0}, Count: 1},
				popRoot,
			},
			want: ErrCycle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, doc, _ := newTestInterp(t)
			mustApply(t, in,
				createElement("div", 1),
				createElement("span", 2),
				appendChildren(1, 1),
				appendChildren(0, 1),
				listen(2, "click", true),
			)

			err := in.ApplyEdits(tt.edits...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Apply() error = %v, want %v", err, tt.want)
			}
			if got := doc.HTML(); got != "<div><span></span></div>" {
				t.Errorf("HTML() = %s, tree changed by rejected edit", got)
			}
			if in.StackDepth() != 0 {
				t.Errorf("StackDepth() = %d, want 0", in.StackDepth())
			}

			mustApply(t, in, remove(1))
			if doc.HTML() != "" || in.Store().Has(1) || in.Store().Has(2) {
				t.Errorf("remove after rejected edit left HTML() = %q", doc.HTML())
			}
			if in.RefCount("click") != 0 || in.NodeListeners(2) != 0 {
				t.Errorf("RefCount(click) = %d, NodeListeners(2) = %d, want 0",
					in.RefCount("click"), in.NodeListeners(2))
			}
		})
	}
}

func TestReplaceWithDetachedTarget(t *testing.T) {
	in, doc, _ := newTestInterp(t)
	mustApply(t, in, createElement("div", 1), protocol.Edit{Op: protocol.OpPopRoot})

	err := in.ApplyEdits(createElement("p", 2), protocol.Edit{Op: protocol.OpReplaceWith, ID: 1, Count: 1})
	if !errors.Is(err, ErrDetached) {
		t.Fatalf("ReplaceWith detached target error = %v, want ErrDetached", err)
	}
	if !in.Store().Has(1) {
		t.Error("detached target unbound by rejected replacement")
	}
	if doc.HTML() != "" || in.StackDepth() != 0 {
		t.Errorf("HTML() = %q, StackDepth() = %d", doc.HTML(), in.StackDepth())
	}
}

func TestRebindingTrackedNode(t *testing.T) {
	tests := []struct {
		name string
		edit protocol.Edit
	}{
		{"AssignID on element", protocol.Edit{Op: protocol.OpAssignID, Path: []uint8{0}, ID: 7}},
		{"AssignID on text", protocol.Edit{Op: protocol.OpAssignID, Path: []uint8{0, 0}, ID: 7}},
		{"AssignID on stack top", protocol.Edit{Op: protocol.OpAssignID, ID: 7}},
		{"HydrateText on tracked text", protocol.Edit{Op: protocol.OpHydrateText, Path: []uint8{0, 0}, Text: "b", ID: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, doc, _ := newTestInterp(t)
			mustApply(t, in,
				createElement("div", 1),
				createText("a", 2),
				appendChildren(1, 1),
				appendChildren(0, 1),
				listen(1, "click", true),
			)

			err := in.ApplyEdits(pushRoot(0), tt.edit, protocol.Edit{Op: protocol.OpPopRoot})
			if !errors.Is(err, ErrNodeInUse) {
				t.Fatalf("Apply() error = %v, want ErrNodeInUse", err)
			}
			if !in.Store().Has(1) || !in.Store().Has(2) || in.Store().Has(7) {
				t.Error("rejected rebinding changed the store")
			}
			if got := doc.HTML(); got != "<div>a</div>" {
				t.Errorf("HTML() = %s", got)
			}

			mustApply(t, in, remove(1))
			if in.RefCount("click") != 0 || in.NodeListeners(1) != 0 || len(in.DelegatedEvents()) != 0 {
				t.Errorf("listeners leaked: RefCount = %d, NodeListeners = %d, delegated = %v",
					in.RefCount("click"), in.NodeListeners(1), in.DelegatedEvents())
			}
			if in.Store().Len() != 1 {
				t.Errorf("Store().Len() = %d, want only the root", in.Store().Len())
			}
		})
	}
}

func TestRemovedParentTakesBatchChildren(t *testing.T) {
	in, doc, _ := newTestInterp(t)
	err := in.ApplyEdits(
		createElement("p", 3),
		appendChildren(0, 1),
		createElement("div", 1),
		createElement("span", 2),
		appendChildren(1, 1),
		appendChildren(0, 1),
		remove(1),
		setAttr(2, "class", "x"),
	)
	var verr *ViolationError
	if !errors.As(err, &verr) || !errors.Is(err, ErrUnknownNode) || verr.Index != 7 {
		t.Fatalf("Apply() error = %v, want ErrUnknownNode at index 7", err)
	}
	if doc.HTML() != "" || in.Store().Len() != 1 {
		t.Errorf("batch should be rejected whole, HTML() = %q", doc.HTML())
	}

	// A child moved out through LoadChild outlives its old parent.
	mustApply(t, in,
		createElement("div", 1),
		createElement("span", 2),
		appendChildren(1, 1),
		appendChildren(0, 1),
		pushRoot(1),
		protocol.Edit{Op: protocol.OpLoadChild, Path: []uint8{0}},
		protocol.Edit{Op: protocol.OpInsertAfter, ID: 1, Count: 1},
		protocol.Edit{Op: protocol.OpPopRoot},
		remove(1),
		setAttr(2, "class", "x"),
	)
	if got := doc.HTML(); got != `<span class="x"></span>` {
		t.Errorf("HTML() = %s", got)
	}
}
