package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/vinterp/internal/config"
	"github.com/vango-dev/vinterp/internal/errors"
	"github.com/vango-dev/vinterp/pkg/protocol"
)

const mountJSON = `{"seq":1,"edits":[
	{"op":"CreateElement","id":1,"tag":"button"},
	{"op":"AppendChildren","id":0,"count":1},
	{"op":"NewEventListener","id":1,"name":"click","bubbles":true}
]}`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestReplay(t *testing.T) {
	path := writeFile(t, "mount.json", []byte(mountJSON))

	out, _, err := run(t, "replay", "--fire", "1:click", "--messages", "--stats", path)
	if err != nil {
		t.Fatalf("replay error = %v", err)
	}
	for _, want := range []string{
		`"method":"user_event"`,
		`<button data-node-id="1"></button>`,
		"nodes=2 stack=0 delegated=click dropped=0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReplayViolation(t *testing.T) {
	mount := writeFile(t, "mount.json", []byte(mountJSON))
	bad := writeFile(t, "bad.json", []byte(`{"seq":2,"edits":[{"op":"PopRoot"}]}`))

	_, _, err := run(t, "replay", mount, bad)
	if err == nil {
		t.Fatal("replay succeeded")
	}
	if got := errors.Code(err); got != errors.CodeStackUnderflow {
		t.Errorf("code = %s, want %s", got, errors.CodeStackUnderflow)
	}
	e := err.(*errors.Error)
	if e.Location == nil || e.Location.Seq != 2 || e.Location.Index != 0 {
		t.Errorf("location = %v", e.Location)
	}
	if !strings.HasPrefix(e.Detail, bad) {
		t.Errorf("detail = %q, want file prefix", e.Detail)
	}
}

func TestReplayHydrateFrame(t *testing.T) {
	frame := protocol.NewFrame(protocol.FrameHydrate, protocol.EncodeHydrate(&protocol.HydrateRequest{
		IDs:    []protocol.NodeID{7},
		Markup: `<a data-node-hydration="0,click:1" href="/x">x</a>`,
	})).Encode()
	path := writeFile(t, "hydrate.frame", frame)

	out, stderr, err := run(t, "replay", "--fire", "7:click", "--messages", path)
	if err != nil {
		t.Fatalf("replay error = %v", err)
	}
	if strings.Contains(stderr, "warning:") {
		t.Errorf("unexpected mismatches: %s", stderr)
	}
	if !strings.Contains(out, `"element":7`) {
		t.Errorf("event for node 7 missing:\n%s", out)
	}
}

func TestReplayFireErrors(t *testing.T) {
	path := writeFile(t, "mount.json", []byte(mountJSON))
	tests := []struct {
		fire string
		code string
	}{
		{"nope", errors.CodeUsage},
		{"x:click", errors.CodeUsage},
		{"9:click", errors.CodeUnknownNode},
	}
	for _, tt := range tests {
		t.Run(tt.fire, func(t *testing.T) {
			_, _, err := run(t, "replay", "--fire", tt.fire, path)
			if got := errors.Code(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestInspectEncodeRoundTrip(t *testing.T) {
	src := writeFile(t, "mount.json", []byte(mountJSON))
	dst := filepath.Join(t.TempDir(), "mount.frame")

	if _, _, err := run(t, "inspect", "--encode", "frame", "-o", dst, src); err != nil {
		t.Fatalf("encode error = %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	f, err := protocol.DecodeFrame(data)
	if err != nil || f.Type != protocol.FrameEdits {
		t.Fatalf("frame = %+v, %v", f, err)
	}

	out, _, err := run(t, "inspect", dst)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"op": "CreateElement"`) || !strings.Contains(out, `"seq": 1`) {
		t.Errorf("inspect output:\n%s", out)
	}

	out, _, err = run(t, "inspect", "--text", dst)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "batch 1 (3 edits)\n") {
		t.Errorf("text output:\n%s", out)
	}
}

func TestInspectErrorFrame(t *testing.T) {
	em := protocol.NewError(protocol.CodeViolation, 4, 2, "stack underflow")
	path := writeFile(t, "err.frame", protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(em)).Encode())

	out, _, err := run(t, "inspect", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"seq": 4`) || !strings.Contains(out, `"index": 2`) {
		t.Errorf("inspect output:\n%s", out)
	}
}

func TestInspectBadEncode(t *testing.T) {
	path := writeFile(t, "mount.json", []byte(mountJSON))
	_, _, err := run(t, "inspect", "--encode", "yaml", path)
	if got := errors.Code(err); got != errors.CodeUsage {
		t.Errorf("code = %q, want %q", got, errors.CodeUsage)
	}
}

func TestDetectFormat(t *testing.T) {
	batch := protocol.EncodeEdits(&protocol.EditBatch{Edits: []protocol.Edit{{Op: protocol.OpPopRoot}}})
	frame := protocol.NewFrame(protocol.FrameEdits, batch).Encode()
	tests := []struct {
		name string
		path string
		data []byte
		want string
	}{
		{"json extension", "a.json", nil, formatJSON},
		{"frame extension", "a.frame", nil, formatFrame},
		{"bin extension", "a.bin", frame, formatBinary},
		{"json content", "a", []byte(`[]`), formatJSON},
		{"frame content", "a", frame, formatFrame},
		{"batch content", "a", batch, formatBinary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.path, tt.data); got != tt.want {
				t.Errorf("detectFormat() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseFire(t *testing.T) {
	id, ev, err := parseFire("12:focus!")
	if err != nil {
		t.Fatal(err)
	}
	if id != 12 || ev.Name != "focus" || ev.Bubbles {
		t.Errorf("parseFire() = %d, %+v", id, ev)
	}
	if _, ev, _ := parseFire("3:click"); !ev.Bubbles {
		t.Error("click does not bubble")
	}
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if out != "dev\n" {
		t.Errorf("version = %q", out)
	}
}

func TestNewHostConfig(t *testing.T) {
	path := writeFile(t, "vinterp.yaml", []byte(`
server:
  queueSize: 8
interp:
  rootId: 5
  sanitize: ugc
metrics:
  enabled: true
  path: /m
tracing:
  enabled: true
`))
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	hc := newHostConfig(cfg, prometheus.NewRegistry())
	if hc.QueueSize != 8 || hc.RootID != 5 || hc.Sanitizer == nil {
		t.Errorf("host config = %+v", hc)
	}
	if hc.Metrics == nil || hc.Gatherer == nil || hc.MetricsPath != "/m" || hc.Observer == nil {
		t.Error("metrics not wired")
	}

	cfg = config.New()
	cfg.Metrics.Enabled = false
	if hc := newHostConfig(cfg, prometheus.NewRegistry()); hc.Observer != nil || hc.Gatherer != nil {
		t.Error("observer wired with telemetry disabled")
	}
}
