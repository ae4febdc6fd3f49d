package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/google/uuid"
)

// Middleware observes an execution. Errors and panics are logged and ignored.
type Middleware func(ctx context.Context, ex *Execution) error

// Authorizer decides whether a command may run. A non-nil error denies it.
type Authorizer func(ctx context.Context, name string, args Args) error

// Engine is the single entry point for mutations: every command runs through
// authorization, validation, precondition, middlewares and history.
type Engine struct {
	mu       sync.RWMutex
	commands map[string]Command

	before  []Middleware
	after   []Middleware
	finally []Middleware

	authorizer Authorizer

	historyMu   sync.RWMutex
	history     []*Execution
	historyMax  int
	historyTrim int

	inflightMu sync.Mutex
	inflight   []*Execution

	queueMu  sync.Mutex
	pending  []*job
	draining bool

	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHistoryLimits overrides the history bounds. trim must be smaller than max.
func WithHistoryLimits(max, trim int) Option {
	return func(e *Engine) {
		if max > 0 && trim > 0 && trim < max {
			e.historyMax = max
			e.historyTrim = trim
		}
	}
}

// WithAuthorizer installs an authorization check. The default allows everything.
func WithAuthorizer(a Authorizer) Option {
	return func(e *Engine) {
		e.authorizer = a
	}
}

// NewEngine creates an engine with the ping command registered.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		commands:    make(map[string]Command),
		historyMax:  DefaultHistoryMax,
		historyTrim: DefaultHistoryTrim,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.commands["ping"] = Ping
	return e
}

// Register adds cmd under name. Overwriting an existing command logs a warning.
func (e *Engine) Register(name string, cmd Command) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.commands[name]; exists {
		e.logger.Warn("command overwritten", "command", name)
	}
	e.commands[name] = cmd
}

// Unregister removes a command and reports whether it existed.
func (e *Engine) Unregister(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.commands[name]
	delete(e.commands, name)
	return ok
}

// Has reports whether name is registered.
func (e *Engine) Has(name string) bool {
	_, ok := e.lookup(name)
	return ok
}

// Describe returns the description of a registered command.
func (e *Engine) Describe(name string) (string, bool) {
	cmd, ok := e.lookup(name)
	if !ok {
		return "", false
	}
	return cmd.Description(), true
}

func (e *Engine) lookup(name string) (Command, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cmd, ok := e.commands[name]
	return cmd, ok
}

// Before adds a middleware that runs after the checks and before Execute.
func (e *Engine) Before(mw Middleware) { e.use(&e.before, mw) }

// After adds a middleware that runs after a successful Execute.
func (e *Engine) After(mw Middleware) { e.use(&e.after, mw) }

// Finally adds a middleware that runs after every recorded execution, failed or not.
func (e *Engine) Finally(mw Middleware) { e.use(&e.finally, mw) }

func (e *Engine) use(stage *[]Middleware, mw Middleware) {
	e.mu.Lock()
	defer e.mu.Unlock()
	*stage = append(*stage, mw)
}

func (e *Engine) stage(stage []Middleware) []Middleware {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Middleware, len(stage))
	copy(out, stage)
	return out
}

// Run executes a registered command.
//
// Unknown names fail with ErrCommandNotFound and are not recorded. Every other
// outcome is appended to history. Failures are returned as *Error unless the
// Silent option is set, in which case Run returns (nil, nil).
func (e *Engine) Run(ctx context.Context, name string, args Args, opts ...RunOption) (any, error) {
	cmd, ok := e.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCommandNotFound, name)
	}
	if args == nil {
		args = Args{}
	}

	ex := &Execution{
		ID:        uuid.NewString(),
		Command:   name,
		Args:      args,
		StartedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&ex.Options)
	}

	e.enter(ex)
	result, err := e.execute(ctx, cmd, ex)
	e.leave(ex)

	ex.FinishedAt = time.Now()
	ex.Duration = ex.FinishedAt.Sub(ex.StartedAt)
	ex.Result = result
	ex.Success = err == nil
	if err != nil {
		ex.Err = err
		ex.Error = err.Error()
		ex.Kind = KindOf(err)
	}

	if ex.Success {
		e.runStage(ctx, "after", e.stage(e.after), ex)
	}
	e.runStage(ctx, "finally", e.stage(e.finally), ex)
	e.record(ex)

	if err != nil {
		e.logger.Debug("command failed", "command", name, "kind", ex.Kind, "err", err)
		if ex.Options.Silent {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

func (e *Engine) execute(ctx context.Context, cmd Command, ex *Execution) (result any, err error) {
	name := ex.Command

	if e.authorizer != nil {
		if err := e.authorizer(ctx, name, ex.Args); err != nil {
			return nil, newError(KindAuthorization, name, err)
		}
	}
	if err := cmd.ValidateArgs(ex.Args); err != nil {
		return nil, newError(KindValidation, name, err)
	}
	if !cmd.CanExecute(ctx, ex.Args) {
		return nil, newError(KindPrecondition, name, nil)
	}

	e.runStage(ctx, "before", e.stage(e.before), ex)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("command panicked", "command", name, "panic", r)
			result = nil
			err = newError(KindExecution, name, fmt.Errorf("panic: %v", r))
		}
	}()
	result, err = cmd.Execute(ctx, ex.Args)
	if err != nil {
		return nil, newError(KindExecution, name, err)
	}
	return result, nil
}

func (e *Engine) runStage(ctx context.Context, stage string, mws []Middleware, ex *Execution) {
	for i, mw := range mws {
		if err := e.callMiddleware(ctx, mw, ex); err != nil {
			e.logger.Warn("middleware failed", "stage", stage, "index", i, "command", ex.Command, "err", err)
		}
	}
}

func (e *Engine) callMiddleware(ctx context.Context, mw Middleware, ex *Execution) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return mw(ctx, ex)
}

func (e *Engine) enter(ex *Execution) {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	e.inflight = append(e.inflight, ex)
}

func (e *Engine) leave(ex *Execution) {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	for i, cur := range e.inflight {
		if cur == ex {
			e.inflight = append(e.inflight[:i], e.inflight[i+1:]...)
			return
		}
	}
}

// CurrentCommand returns the name of the most recently started command still running, or "".
func (e *Engine) CurrentCommand() string {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	if len(e.inflight) == 0 {
		return ""
	}
	return e.inflight[len(e.inflight)-1].Command
}

// IsExecuting reports whether any command is running.
func (e *Engine) IsExecuting() bool {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	return len(e.inflight) > 0
}
