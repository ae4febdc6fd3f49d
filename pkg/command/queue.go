package command

import "context"

// Result is the outcome of a queued invocation.
type Result struct {
	Value any
	Err   error
}

type job struct {
	ctx  context.Context
	name string
	args Args
	opts []RunOption
	done chan Result
}

// Enqueue schedules a Run. Queued jobs execute strictly one at a time in FIFO order.
// A job whose context is cancelled before it starts is rejected with the context error.
func (e *Engine) Enqueue(ctx context.Context, name string, args Args, opts ...RunOption) <-chan Result {
	j := &job{ctx: ctx, name: name, args: args, opts: opts, done: make(chan Result, 1)}

	e.queueMu.Lock()
	e.pending = append(e.pending, j)
	start := !e.draining
	e.draining = true
	e.queueMu.Unlock()

	if start {
		go e.drain()
	}
	return j.done
}

// Queue is Enqueue followed by a wait. It returns early when ctx is cancelled.
func (e *Engine) Queue(ctx context.Context, name string, args Args, opts ...RunOption) (any, error) {
	select {
	case res := <-e.Enqueue(ctx, name, args, opts...):
		return res.Value, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// QueueLen returns the number of jobs waiting to start.
func (e *Engine) QueueLen() int {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()
	return len(e.pending)
}

func (e *Engine) drain() {
	for {
		e.queueMu.Lock()
		if len(e.pending) == 0 {
			e.draining = false
			e.queueMu.Unlock()
			return
		}
		j := e.pending[0]
		e.pending[0] = nil
		e.pending = e.pending[1:]
		e.queueMu.Unlock()

		if err := j.ctx.Err(); err != nil {
			j.done <- Result{Err: err}
			continue
		}
		v, err := e.Run(j.ctx, j.name, j.args, j.opts...)
		j.done <- Result{Value: v, Err: err}
	}
}
