package tools

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Invoker runs one tool over an input file, producing output.
type Invoker interface {
	Invoke(ctx context.Context, tool ID, input, output string) error
}

// Runner executes resolved tools. Calls to the same tool are serialized
// since the tools share scratch files next to their executables.
type Runner struct {
	resolver *Resolver
	timeout  time.Duration
	log      *zap.Logger

	mu    sync.Mutex
	locks map[ID]*semaphore.Weighted
}

// NewRunner creates a runner. A zero timeout disables the per-call limit.
func NewRunner(resolver *Resolver, timeout time.Duration, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		resolver: resolver,
		timeout:  timeout,
		log:      log,
		locks:    make(map[ID]*semaphore.Weighted),
	}
}

func (r *Runner) lock(id ID) *semaphore.Weighted {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.locks[id]
	if !ok {
		s = semaphore.NewWeighted(1)
		r.locks[id] = s
	}
	return s
}

// Invoke runs tool on input and checks that output was written.
func (r *Runner) Invoke(ctx context.Context, tool ID, input, output string) error {
	loc, err := r.resolver.Resolve(tool)
	if err != nil {
		return err
	}

	sem := r.lock(tool)
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer sem.Release(1)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	name, args := loc.Path, tool.Args(input, output)
	if loc.Mode == Wine {
		name, args = r.resolver.Host().Wine, append([]string{loc.Path}, args...)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	r.log.Debug("running tool",
		zap.String("tool", string(tool)),
		zap.String("mode", string(loc.Mode)),
		zap.String("command", name+" "+strings.Join(args, " ")))

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runErr != nil {
		return r.failure(ctx, tool, runErr, &stderr)
	}
	if _, err := os.Stat(output); err != nil {
		return &ExecError{Tool: tool, Stderr: strings.TrimSpace(stderr.String()), Err: errors.New("no output written")}
	}

	r.log.Debug("tool finished", zap.String("tool", string(tool)), zap.Duration("elapsed", elapsed))
	return nil
}

// failure converts a failed run into a typed error.
func (r *Runner) failure(ctx context.Context, tool ID, err error, stderr *bytes.Buffer) error {
	text := strings.TrimSpace(stderr.String())

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ExecError{Tool: tool, ExitCode: -1, TimedOut: true, Stderr: text, Err: err}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExecError{Tool: tool, ExitCode: exitErr.ExitCode(), Stderr: text, Err: err}
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return &NotFoundError{Tool: tool}
	}
	return &ExecError{Tool: tool, ExitCode: -1, Stderr: text, Err: err}
}
