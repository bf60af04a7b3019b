package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/safe-url-paths/engine"
	"github.com/wippyai/safe-url-paths/interp"
	"github.com/wippyai/safe-url-paths/runtime"
)

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	wasmFile    string
	engineKind  string
	configFile  string
	logFile     string
	statics     stringList
	dynamics    stringList
	interactive bool
	verbose     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.wasmFile, "wasm", "", "Path to the guest wasm module")
	flag.StringVar(&opts.engineKind, "engine", "", "Backend: wazero, wasmtime or native (default wazero with -wasm, native without)")
	flag.StringVar(&opts.configFile, "config", "", "YAML file with a batch of templates")
	flag.StringVar(&opts.logFile, "log-file", "", "Write logs to a rotating file instead of stderr")
	flag.Var(&opts.statics, "static", "Static path fragment (repeatable, in order)")
	flag.Var(&opts.dynamics, "dynamic", "Dynamic value (repeatable, in order)")
	flag.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI")
	flag.BoolVar(&opts.verbose, "v", false, "Debug logging")
	flag.Parse()

	if len(opts.statics) == 0 && opts.configFile == "" && !opts.interactive {
		fmt.Fprintln(os.Stderr, "Usage: safepath [-wasm guest.wasm] [-engine kind] -static /users/ -dynamic 'jane doe' -static /profile")
		fmt.Fprintln(os.Stderr, "       safepath [-wasm guest.wasm] -config batch.yaml")
		fmt.Fprintln(os.Stderr, "       safepath [-wasm guest.wasm] -i -static /users/ -static /profile  (interactive mode)")
		os.Exit(1)
	}

	logger, err := newLogger(opts.verbose, opts.logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	engine.SetLogger(logger)
	interp.SetLogger(logger)
	runtime.SetLogger(logger)

	if err := run(context.Background(), opts, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *zap.Logger) error {
	var batch *batchConfig
	if opts.configFile != "" {
		cfg, err := loadBatchConfig(opts.configFile)
		if err != nil {
			return err
		}
		batch = cfg
		if opts.wasmFile == "" {
			opts.wasmFile = cfg.Wasm
		}
		if opts.engineKind == "" {
			opts.engineKind = cfg.Engine
		}
	}

	rt, err := openRuntime(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	switch {
	case batch != nil:
		return runBatch(ctx, rt, batch, os.Stdout)
	case opts.interactive:
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("interactive mode needs a terminal")
		}
		statics := []string(opts.statics)
		if len(statics) == 0 {
			statics = []string{"/"}
		}
		return runInteractive(ctx, rt, statics, opts.dynamics)
	default:
		out, err := rt.Interpolate(ctx, opts.statics, opts.dynamics)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}
}

func openRuntime(ctx context.Context, opts options, logger *zap.Logger) (*runtime.Runtime, error) {
	kind := engine.Kind(opts.engineKind)
	if kind == "" {
		kind = engine.KindNative
		if opts.wasmFile != "" {
			kind = engine.KindWazero
		}
	}

	var wasm []byte
	if kind != engine.KindNative {
		if opts.wasmFile == "" {
			return nil, fmt.Errorf("-wasm is required for the %s engine", kind)
		}
		data, err := os.ReadFile(opts.wasmFile)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		wasm = data
	}

	b, err := engine.New(ctx, kind, wasm, &engine.Config{
		Logger: logger,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("load %s backend: %w", kind, err)
	}
	logger.Debug("backend ready", zap.String("engine", string(kind)), zap.String("wasm", opts.wasmFile))
	return runtime.New(b, &runtime.Config{Logger: logger}), nil
}
