package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/quantframe/backtest/internal/observ"
)

// SubprocessExecutor runs the external execution engine binary, one child
// process per Execute call. No retries are attempted; a failed run is
// reported to the caller.
type SubprocessExecutor struct {
	path    string
	timeout time.Duration
}

var _ Executor = (*SubprocessExecutor)(nil)

// SubprocessConfig configures the subprocess executor.
type SubprocessConfig struct {
	Path    string
	Timeout time.Duration // wall-clock limit per run; 0 selects the 60s default
}

// NewSubprocessExecutor validates the engine executable up front, before any
// run: the path must exist, be a regular file, and carry execute permission.
func NewSubprocessExecutor(config SubprocessConfig) (*SubprocessExecutor, error) {
	info, err := os.Stat(config.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewNotFoundError(config.Path)
		}
		return nil, NewTransportError("stat engine executable", err)
	}
	if info.IsDir() {
		return nil, NewNotAFileError(config.Path)
	}
	if info.Mode().Perm()&0111 == 0 {
		return nil, NewNotExecutableError(config.Path)
	}

	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return &SubprocessExecutor{path: config.Path, timeout: config.Timeout}, nil
}

// Execute encodes the input, round-trips it through the engine process, and
// decodes the trade and state channels. Stdout and stderr are drained
// concurrently with the stdin write to avoid pipe-buffer deadlock.
func (x *SubprocessExecutor) Execute(ctx context.Context, in Input) (*Result, error) {
	encoded, err := Encode(in.Bars, in.Signals, in.Symbol)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(runCtx, x.path,
		"--capital", strconv.FormatFloat(in.InitialCapital, 'f', -1, 64),
		"--size", strconv.FormatFloat(in.PositionSize, 'f', -1, 64),
	)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	// The cancel kill reaches only the direct child; a descendant it spawned
	// can keep the output pipes open past the deadline. WaitDelay forces the
	// pipes closed after the grace period so Wait stays bounded.
	cmd.WaitDelay = time.Second

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, NewTransportError("open stdin pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, NewTransportError("start engine process", err)
	}

	// Stdin is written concurrently with the output drain so a large input
	// cannot deadlock against a full pipe buffer.
	writeErr := make(chan error, 1)
	go func() {
		_, werr := io.WriteString(stdin, encoded)
		if cerr := stdin.Close(); werr == nil {
			werr = cerr
		}
		writeErr <- werr
	}()

	waitErr := cmd.Wait()
	werr := <-writeErr

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		observ.IncCounter("engine_timeouts_total", nil)
		return nil, NewTimeoutError(x.timeout)
	case runCtx.Err() != nil:
		return nil, NewTransportError("engine run canceled", runCtx.Err())
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			observ.IncCounter("engine_failures_total", nil)
			return nil, NewExecutionError(exitErr.ExitCode(), errBuf.String())
		}
		return nil, NewTransportError("wait for engine process", waitErr)
	}
	if werr != nil {
		return nil, NewTransportError("write engine input", werr)
	}

	trades, states, err := Decode(outBuf.String(), errBuf.String())
	if err != nil {
		return nil, err
	}

	observ.IncCounter("engine_runs_total", nil)
	observ.Log("engine_run_completed", map[string]any{
		"engine":      x.path,
		"bars":        len(in.Bars),
		"trades":      len(trades),
		"states":      len(states),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return &Result{Trades: trades, States: states}, nil
}
