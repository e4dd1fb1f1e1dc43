// Package executor implements the snippet execution engine: a goja-based
// runner that evaluates one snippet in an isolated VM under full output
// capture, and a supervisor that bounds each invocation with a wall-clock
// timeout so an event-driven caller is never blocked by a runaway snippet.
//
// Every failure mode is converted into Result fields; Run never returns an
// error and never panics past its boundary.
package executor

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimeout bounds an invocation when the caller does not supply one.
const DefaultTimeout = 90 * time.Second

// Options controls one supervised execution.
type Options struct {
	Timeout time.Duration // max wall-clock duration; DefaultTimeout when zero
}

// Run executes the snippet on its own goroutine and races completion against
// the timeout. On timeout the VM is interrupted and a synthetic failed Result
// is returned immediately; interruption stops pure-script loops but a snippet
// blocked inside a host call keeps its goroutine until that call returns.
// Cancellation is therefore best-effort, the caller's unblocking is not.
//
// Concurrent Run calls are independent: each gets a fresh VM, namespace and
// directory snapshot. The shared output directory is the one accepted race;
// two concurrent snippets writing into it can misattribute produced files.
func Run(ctx context.Context, req *Request, opts Options) *Result {
	if req == nil {
		return &Result{Success: false, ErrorText: "nil execution request", Files: []string{}}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	r := newRunner(ctx, req)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan *Result, 1)
	start := time.Now()

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- &Result{
					Success:   false,
					Stdout:    r.out.String(),
					ErrorText: fmt.Sprintf("internal panic during execution: %v", p),
					Files:     []string{},
				}
			}
		}()
		done <- r.run()
	}()

	select {
	case res := <-done:
		res.Elapsed = time.Since(start)
		return res
	case <-runCtx.Done():
		r.interrupt()
		return &Result{
			Success:   false,
			ErrorText: fmt.Sprintf("execution timed out after %s", timeout),
			Files:     []string{},
			Elapsed:   time.Since(start),
		}
	}
}
