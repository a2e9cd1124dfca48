package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vango-dev/vinterp/pkg/interp"
	"github.com/vango-dev/vinterp/pkg/protocol"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"protocol error", CodeStackUnderflow, "Stack underflow", CategoryProtocol},
		{"hydration error", CodeHydrationRange, "Hydration index out of range", CategoryHydration},
		{"config error", CodeConfigNotFound, "Configuration file not found", CategoryConfig},
		{"cli error", CodeUsage, "Invalid arguments", CategoryCLI},
		{"unknown error code", "E999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestRegistryComplete(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, _ := GetTemplate(code)
		if tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("%s: incomplete template %+v", code, tmpl)
		}
		if tmpl.DocURL != docBase+code {
			t.Errorf("%s: DocURL = %q", code, tmpl.DocURL)
		}
	}
	for reason, code := range violationCodes {
		if _, ok := GetTemplate(code); !ok {
			t.Errorf("reason %s maps to unregistered %s", reason, code)
		}
	}
}

func TestFromViolation(t *testing.T) {
	edits := []protocol.Edit{
		{Op: protocol.OpCreateTextNode, ID: 4, Text: "x"},
		{Op: protocol.OpCreateTextNode, ID: 5, Text: "y"},
		{Op: protocol.OpAppendChildren, ID: 0, Count: 3},
		{Op: protocol.OpPopRoot},
	}
	v := &interp.ViolationError{Seq: 7, Index: 2, Edit: edits[2], Err: interp.ErrStackUnderflow}

	err := FromError(fmt.Errorf("apply: %w", v), CodeServeFailed)
	if err.Code != CodeStackUnderflow {
		t.Fatalf("Code = %q, want %q", err.Code, CodeStackUnderflow)
	}
	if err.Location == nil || err.Location.Seq != 7 || err.Location.Index != 2 {
		t.Fatalf("Location = %+v", err.Location)
	}
	if !stderrors.Is(err, interp.ErrStackUnderflow) {
		t.Error("sentinel lost through wrapping")
	}

	err.WithEdits(edits, 1)
	if len(err.Context) != 3 || err.ContextStart != 1 {
		t.Errorf("Context = %v start %d", err.Context, err.ContextStart)
	}

	DisableColors()
	defer EnableColors()
	out := err.Format()
	for _, want := range []string{"ERROR E103: Stack underflow", "batch 7, edit 2", "→    2 │", docBase + CodeStackUnderflow} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if got := err.FormatCompact(); got != "batch 7, edit 2: E103: Stack underflow" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFromErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bad opcode", fmt.Errorf("%w: 0xee", protocol.ErrInvalidOp), CodeUnknownOp},
		{"oversized frame", protocol.ErrFrameTooLarge, CodeInvalidFrame},
		{"other", stderrors.New("boom"), CodeMalformedBatch},
		{"already coded", New(CodeConfigFormat), CodeConfigFormat},
		{"cycle", &interp.ViolationError{Err: interp.ErrCycle}, CodeCycle},
		{"detached replacement", &interp.ViolationError{Err: interp.ErrDetached}, CodeDetached},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromError(tt.err, CodeMalformedBatch).Code; got != tt.want {
				t.Errorf("code = %q, want %q", got, tt.want)
			}
		})
	}
	if FromError(nil, CodeUsage) != nil {
		t.Error("FromError(nil) should be nil")
	}
	if Code(fmt.Errorf("x: %w", New(CodeUsage))) != CodeUsage {
		t.Error("Code() does not unwrap")
	}
}

func TestFromMismatch(t *testing.T) {
	err := FromMismatch(interp.Mismatch{Kind: interp.MismatchUnbound, Index: 3, ID: 42})
	if err.Code != CodeHydrationUnbound || err.Category != CategoryHydration {
		t.Errorf("err = %+v", err)
	}
	if !strings.Contains(err.Detail, "id 42") {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New(CodeBadPath).WithLocation(3, 1).Wrap(interp.ErrBadPath).WithSuggestion("check LoadChild paths")
	var got map[string]any
	if e := json.Unmarshal([]byte(err.FormatJSON()), &got); e != nil {
		t.Fatal(e)
	}
	if got["code"] != CodeBadPath || got["cause"] != interp.ErrBadPath.Error() {
		t.Errorf("json = %v", got)
	}
	loc, _ := got["location"].(map[string]any)
	if loc["seq"] != float64(3) || loc["index"] != float64(1) {
		t.Errorf("location = %v", loc)
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()
	var buf bytes.Buffer
	Fprint(&buf, stderrors.New("plain"))
	if !strings.Contains(buf.String(), "ERROR: plain") {
		t.Errorf("Fprint(plain) = %q", buf.String())
	}
	buf.Reset()
	Fprint(&buf, Newf(CategoryCLI, "missing %s", "file"))
	if !strings.Contains(buf.String(), "ERROR: missing file") {
		t.Errorf("Fprint(coded) = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line too long: %q", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should wrap to nil")
	}
}
