package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/wippyai/safe-url-paths/engine"
	"github.com/wippyai/safe-url-paths/runtime"
)

func newRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	rt := runtime.New(engine.NewNative(nil), nil)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	return rt
}

func TestStringList(t *testing.T) {
	var s stringList
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&s, "static", "")
	if err := fs.Parse([]string{"-static", "/a/", "-static", "/b"}); err != nil {
		t.Fatal(err)
	}
	if len(s) != 2 || s[0] != "/a/" || s[1] != "/b" {
		t.Errorf("got %v", s)
	}
	if s.String() != "/a/,/b" {
		t.Errorf("String() = %q", s.String())
	}
}

const batchYAML = `
engine: native
templates:
  - name: profile
    statics: ["/users/", "/profile"]
    cases:
      - dynamics: ["jane doe"]
        expect: "/users/jane%20doe/profile"
      - dynamics: ["../admin"]
        expect: "/users/..%2Fadmin/profile"
  - statics: ["/files/", ""]
    cases:
      - dynamics: ["a b"]
`

func TestParseBatchConfig(t *testing.T) {
	cfg, err := parseBatchConfig([]byte(batchYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine != "native" || len(cfg.Templates) != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if got := *cfg.Templates[0].Cases[0].Expect; got != "/users/jane%20doe/profile" {
		t.Errorf("expect = %q", got)
	}
	if cfg.Templates[1].Cases[0].Expect != nil {
		t.Error("missing expect should stay nil")
	}
}

func TestParseBatchConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"no statics", "templates:\n  - name: x\n"},
		{"unknown field", "templates:\n  - statics: [\"/\"]\n    bogus: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseBatchConfig([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunBatch(t *testing.T) {
	cfg, err := parseBatchConfig([]byte(batchYAML))
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runBatch(context.Background(), newRuntime(t), cfg, &out); err != nil {
		t.Fatalf("runBatch: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "/files/a%20b") {
		t.Errorf("output missing unchecked case:\n%s", out.String())
	}
}

func TestRunBatch_ReportsMismatch(t *testing.T) {
	want := "/wrong"
	cfg := &batchConfig{Templates: []templateConfig{{
		Name:    "t",
		Statics: []string{"/a/", ""},
		Cases: []caseConfig{
			{Dynamics: []string{"x"}, Expect: &want},
			{Dynamics: []string{"\xff"}},
		},
	}}}

	var out bytes.Buffer
	err := runBatch(context.Background(), newRuntime(t), cfg, &out)
	if err == nil || !strings.Contains(err.Error(), "2 case(s) failed") {
		t.Fatalf("err = %v", err)
	}
	if strings.Count(out.String(), "FAIL") != 2 {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestOpenRuntime(t *testing.T) {
	ctx := context.Background()

	rt, err := openRuntime(ctx, options{}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close(ctx)
	if _, ok := rt.Backend().(*engine.Native); !ok {
		t.Errorf("default backend = %T, want native", rt.Backend())
	}

	if _, err := openRuntime(ctx, options{engineKind: "wazero"}, zap.NewNop()); err == nil {
		t.Error("wazero without -wasm should fail")
	}
	if _, err := openRuntime(ctx, options{wasmFile: filepath.Join(t.TempDir(), "missing.wasm")}, zap.NewNop()); err == nil {
		t.Error("missing wasm file should fail")
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safepath.log")
	logger, err := newLogger(true, path)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("log file = %q", data)
	}
}

func TestInteractiveModel(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)
	statics := []string{"/users/", "/posts/", ""}
	tmpl, err := rt.Compile(ctx, statics)
	if err != nil {
		t.Fatal(err)
	}
	defer tmpl.Close(ctx)

	m := newInteractiveModel(ctx, tmpl, statics, []string{"jane doe"})
	if m.result != "/users/jane%20doe/posts/" {
		t.Errorf("initial result = %q", m.result)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focusIdx != 1 {
		t.Fatalf("focusIdx = %d", m.focusIdx)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a/b")})
	if m.result != "/users/jane%20doe/posts/a%2Fb" {
		t.Errorf("result = %q", m.result)
	}

	view := m.View()
	if !strings.Contains(view, "/users/{0}/posts/{1}") {
		t.Errorf("view missing template:\n%s", view)
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc}); cmd == nil {
		t.Error("esc should quit")
	}
}
