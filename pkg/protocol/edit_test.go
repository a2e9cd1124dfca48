package protocol

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"testing"
)

func sampleEdits() []Edit {
	return []Edit{
		{Op: OpCreateElement, ID: 1, Tag: "div"},
		{Op: OpCreateElementNS, ID: 2, Tag: "svg", Namespace: "http://www.w3.org/2000/svg"},
		{Op: OpCreateTextNode, ID: 3, Text: "hi"},
		{Op: OpCreatePlaceholder, ID: 4},
		{Op: OpAppendChildren, ID: 1, Count: 2},
		{Op: OpInsertBefore, ID: 1, Count: 1},
		{Op: OpInsertAfter, ID: 1, Count: 1},
		{Op: OpReplaceWith, ID: 4, Count: 3},
		{Op: OpRemove, ID: 9},
		{Op: OpSetText, ID: 3, Text: ""},
		{Op: OpSetAttribute, ID: 1, Name: "class", Value: "a b"},
		{Op: OpSetAttribute, ID: 1, Name: "color", Value: "red", Namespace: "style"},
		{Op: OpRemoveAttribute, ID: 1, Name: "href", Namespace: "xlink"},
		{Op: OpNewEventListener, ID: 1, Name: "click", Bubbles: true},
		{Op: OpRemoveEventListener, ID: 1, Name: "focus"},
		{Op: OpLoadChild, Path: []uint8{0, 2, 1}},
		{Op: OpPushRoot, ID: 0},
		{Op: OpPopRoot},
		{Op: OpAssignID, Path: []uint8{1}, ID: 12},
		{Op: OpHydrateText, Path: []uint8{0, 0}, Text: "x", ID: 13},
		{Op: OpReplacePlaceholder, Path: []uint8{3}, Count: 2},
		{Op: OpSaveTemplate, Template: "row", IDs: []NodeID{5, 6, 7}},
		{Op: OpLoadTemplate, Template: "row", Index: 0, ID: 300},
	}
}

func TestEditBatchRoundTrip(t *testing.T) {
	in := &EditBatch{Seq: 42, Edits: sampleEdits()}

	out, err := DecodeEdits(EncodeEdits(in))
	if err != nil {
		t.Fatalf("DecodeEdits() error = %v", err)
	}
	if out.Seq != in.Seq {
		t.Errorf("Seq = %d, want %d", out.Seq, in.Seq)
	}
	if len(out.Edits) != len(in.Edits) {
		t.Fatalf("len(Edits) = %d, want %d", len(out.Edits), len(in.Edits))
	}
	for i := range in.Edits {
		if !reflect.DeepEqual(out.Edits[i], in.Edits[i]) {
			t.Errorf("edit %d = %v, want %v", i, out.Edits[i], in.Edits[i])
		}
	}
}

func TestDecodeEditsErrors(t *testing.T) {
	valid := EncodeEdits(&EditBatch{Seq: 1, Edits: []Edit{{Op: OpCreateTextNode, ID: 1, Text: "hello"}}})

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, io.ErrUnexpectedEOF},
		{"truncated", valid[:len(valid)-2], io.ErrUnexpectedEOF},
		{"unknown op", []byte{0x01, 0x01, 0xEE}, ErrInvalidOp},
		{"count past end", []byte{0x01, 0x05, byte(OpPopRoot)}, io.ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEdits(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeEdits() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEditOpText(t *testing.T) {
	for op, name := range opNames {
		text, err := op.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) error = %v", op, err)
		}
		if string(text) != name {
			t.Errorf("MarshalText(%v) = %s, want %s", op, text, name)
		}
		var back EditOp
		if err := back.UnmarshalText(text); err != nil || back != op {
			t.Errorf("UnmarshalText(%s) = %v, %v", text, back, err)
		}
	}

	if _, err := EditOp(0xEE).MarshalText(); !errors.Is(err, ErrInvalidOp) {
		t.Errorf("MarshalText(0xEE) error = %v, want ErrInvalidOp", err)
	}
	if got := EditOp(0xEE).String(); got != "EditOp(0xee)" {
		t.Errorf("String() = %q", got)
	}
}

func TestEditJSONRoundTrip(t *testing.T) {
	in := sampleEdits()
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	b, err := ParseEditsJSON(data)
	if err != nil {
		t.Fatalf("ParseEditsJSON() error = %v", err)
	}
	if !reflect.DeepEqual(b.Edits, in) {
		t.Errorf("ParseEditsJSON() = %v, want %v", b.Edits, in)
	}
}

func TestParseEditsJSON(t *testing.T) {
	src := `{"seq": 7, "edits": [
		{"op": "CreateElement", "tag": "div", "id": 0},
		{"op": "CreateTextNode", "text": "hi", "id": 1},
		{"op": "AppendChildren", "id": 0, "count": 1},
		{"op": "LoadChild", "path": [0, 1]}
	]}`
	b, err := ParseEditsJSON([]byte(src))
	if err != nil {
		t.Fatalf("ParseEditsJSON() error = %v", err)
	}
	if b.Seq != 7 || len(b.Edits) != 4 {
		t.Fatalf("ParseEditsJSON() = seq %d, %d edits", b.Seq, len(b.Edits))
	}
	if b.Edits[1].Text != "hi" || b.Edits[1].ID != 1 {
		t.Errorf("edit 1 = %v", b.Edits[1])
	}
	if !reflect.DeepEqual(b.Edits[3].Path, []uint8{0, 1}) {
		t.Errorf("edit 3 path = %v", b.Edits[3].Path)
	}

	if _, err := ParseEditsJSON([]byte(`[{"op": "Explode"}]`)); err == nil {
		t.Error("ParseEditsJSON() with unknown op should fail")
	}
	if _, err := ParseEditsJSON([]byte(`[{"op": "LoadChild", "path": [300]}]`)); err == nil {
		t.Error("ParseEditsJSON() with out of range path step should fail")
	}
}

func TestHydrateRoundTrip(t *testing.T) {
	in := &HydrateRequest{IDs: []NodeID{4, 9, 1 << 40}, Markup: `<div data-node-hydration="0"></div>`}
	out, err := DecodeHydrate(EncodeHydrate(in))
	if err != nil {
		t.Fatalf("DecodeHydrate() error = %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("DecodeHydrate() = %+v, want %+v", out, in)
	}
}
