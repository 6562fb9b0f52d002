package fl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

const defWasmTimeout = 30 * time.Second

var _ Aggregator = (*WasmAggregator)(nil)

// WasmAggregator runs a WASI command module in-process. The module reads the
// JSON encoded updates from stdin and writes the aggregated params as JSON to
// stdout.
type WasmAggregator struct {
	wasmBinary []byte
	timeout    time.Duration
}

func NewWasmAggregator(wasmPath string, timeout time.Duration) (*WasmAggregator, error) {
	wasmBinary, err := os.ReadFile(wasmPath)
	if err != nil {
		return nil, fmt.Errorf("wasm aggregator file not found: %w", err)
	}

	return NewWasmAggregatorFromBinary(wasmBinary, timeout), nil
}

func NewWasmAggregatorFromBinary(wasmBinary []byte, timeout time.Duration) *WasmAggregator {
	if timeout <= 0 {
		timeout = defWasmTimeout
	}

	return &WasmAggregator{
		wasmBinary: wasmBinary,
		timeout:    timeout,
	}
}

func (w *WasmAggregator) Aggregate(updates []Update) (Params, error) {
	if len(updates) == 0 {
		return Params{}, ErrNoUpdates
	}

	updatesJSON, err := json.Marshal(updates)
	if err != nil {
		return Params{}, fmt.Errorf("failed to marshal updates: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	defer r.Close(ctx)

	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	var stdout, stderr bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithName("aggregator").
		WithArgs("aggregator").
		WithStdin(bytes.NewReader(updatesJSON)).
		WithStdout(&stdout).
		WithStderr(&stderr)

	mod, err := r.InstantiateWithConfig(ctx, w.wasmBinary, cfg)
	if err != nil {
		var exitErr *sys.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 0 {
			return Params{}, fmt.Errorf("wasm aggregator execution failed: %w: %s", err, stderr.String())
		}
	}
	if mod != nil {
		defer mod.Close(ctx)
	}

	var params Params
	if err := json.Unmarshal(stdout.Bytes(), &params); err != nil {
		return Params{}, fmt.Errorf("failed to unmarshal aggregated model: %w", err)
	}

	return params, nil
}
