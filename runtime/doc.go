// Package runtime renders URL paths from templates through a guest backend.
//
// # Quick Start
//
//	ctx := context.Background()
//	b, err := engine.NewWazero(ctx, wasmBytes, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rt := runtime.New(b, nil)
//	defer rt.Close(ctx)
//
//	// Statics are packed into guest memory once
//	tmpl, err := rt.Compile(ctx, []string{"/users/", "/profile"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tmpl.Close(ctx)
//
//	path, err := tmpl.Interpolate(ctx, []string{"jane doe"})
//	fmt.Println(path) // "/users/jane%20doe/profile"
//
// # Memory
//
// Each Interpolate call packs the dynamics, calls the guest, copies the output
// out, and frees the dynamics, the output buffer and its descriptor before
// returning. A template's statics are freed by Template.Close.
//
// # Metrics
//
// NewMetrics registers prometheus collectors under the "safepath" namespace:
// interpolate_calls_total, interpolate_failures_total{kind},
// output_bytes_total and templates_open.
package runtime
