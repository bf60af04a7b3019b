package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/wippyai/safe-url-paths/runtime"
)

// batchConfig is the -config file format.
type batchConfig struct {
	Engine    string           `yaml:"engine"`
	Wasm      string           `yaml:"wasm"`
	Templates []templateConfig `yaml:"templates"`
}

type templateConfig struct {
	Name    string       `yaml:"name"`
	Statics []string     `yaml:"statics"`
	Cases   []caseConfig `yaml:"cases"`
}

type caseConfig struct {
	Dynamics []string `yaml:"dynamics"`
	// Expect, when set, is compared with the output.
	Expect *string `yaml:"expect"`
}

func loadBatchConfig(path string) (*batchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parseBatchConfig(data)
}

func parseBatchConfig(data []byte) (*batchConfig, error) {
	var cfg batchConfig
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Templates) == 0 {
		return nil, fmt.Errorf("config has no templates")
	}
	for i, t := range cfg.Templates {
		if len(t.Statics) == 0 {
			return nil, fmt.Errorf("template %d (%s): statics must not be empty", i, t.Name)
		}
	}
	return &cfg, nil
}

// runBatch renders every case and reports mismatches. All cases run; the
// error counts the failures.
func runBatch(ctx context.Context, rt *runtime.Runtime, cfg *batchConfig, w io.Writer) error {
	failed := 0
	for _, tc := range cfg.Templates {
		name := tc.Name
		if name == "" {
			name = fmt.Sprintf("%v", tc.Statics)
		}

		tmpl, err := rt.Compile(ctx, tc.Statics)
		if err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", name, err)
			failed += len(tc.Cases)
			continue
		}

		for _, c := range tc.Cases {
			out, err := tmpl.Interpolate(ctx, c.Dynamics)
			switch {
			case err != nil:
				fmt.Fprintf(w, "FAIL %s %q: %v\n", name, c.Dynamics, err)
				failed++
			case c.Expect != nil && out != *c.Expect:
				fmt.Fprintf(w, "FAIL %s %q: got %q, want %q\n", name, c.Dynamics, out, *c.Expect)
				failed++
			default:
				fmt.Fprintf(w, "ok   %s %q -> %s\n", name, c.Dynamics, out)
			}
		}

		if err := tmpl.Close(ctx); err != nil {
			return fmt.Errorf("close template %s: %w", name, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d case(s) failed", failed)
	}
	return nil
}
