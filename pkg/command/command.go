package command

import "context"

// Args carries the named arguments of one invocation.
type Args map[string]any

// Command is one named operation of the builder.
// ValidateArgs and CanExecute run before Execute and must not mutate anything.
type Command interface {
	ValidateArgs(args Args) error
	CanExecute(ctx context.Context, args Args) bool
	Execute(ctx context.Context, args Args) (any, error)
	Description() string
}

// Func adapts plain functions to Command. Nil hooks accept everything.
type Func struct {
	Desc     string
	Validate func(args Args) error
	Can      func(ctx context.Context, args Args) bool
	Run      func(ctx context.Context, args Args) (any, error)
}

// ValidateArgs implements Command.
func (f Func) ValidateArgs(args Args) error {
	if f.Validate == nil {
		return nil
	}
	return f.Validate(args)
}

// CanExecute implements Command.
func (f Func) CanExecute(ctx context.Context, args Args) bool {
	if f.Can == nil {
		return true
	}
	return f.Can(ctx, args)
}

// Execute implements Command.
func (f Func) Execute(ctx context.Context, args Args) (any, error) {
	if f.Run == nil {
		return nil, nil
	}
	return f.Run(ctx, args)
}

// Description implements Command.
func (f Func) Description() string { return f.Desc }

// Ping answers {pong: true, args: <args>}. It is registered on every engine as "ping".
var Ping = Func{
	Desc: "Health check that echoes its arguments",
	Run: func(ctx context.Context, args Args) (any, error) {
		return map[string]any{"pong": true, "args": args}, nil
	},
}
