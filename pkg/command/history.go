package command

import (
	"sort"
	"time"
)

// Default history bounds: once History exceeds DefaultHistoryMax entries it is
// trimmed to the DefaultHistoryTrim most recent ones.
const (
	DefaultHistoryMax  = 1000
	DefaultHistoryTrim = 500
)

// RunOptions are per-invocation switches.
type RunOptions struct {
	Silent bool           `json:"silent,omitempty"`
	Source string         `json:"source,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// RunOption configures one invocation.
type RunOption func(*RunOptions)

// Silent records failures but makes Run return (nil, nil) instead of the error.
func Silent() RunOption {
	return func(o *RunOptions) { o.Silent = true }
}

// Source tags the execution with its origin (e.g. "http", "mcp", "cli").
func Source(source string) RunOption {
	return func(o *RunOptions) { o.Source = source }
}

// Meta attaches a free-form value to the execution.
func Meta(key string, value any) RunOption {
	return func(o *RunOptions) {
		if o.Meta == nil {
			o.Meta = make(map[string]any)
		}
		o.Meta[key] = value
	}
}

// Execution is the record of one Run: the unit of history.
type Execution struct {
	ID         string        `json:"id"`
	Command    string        `json:"command"`
	Args       Args          `json:"args"`
	Options    RunOptions    `json:"options"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Duration   time.Duration `json:"duration"`
	Result     any           `json:"result,omitempty"`
	Err        error         `json:"-"`
	Error      string        `json:"error,omitempty"`
	Kind       Kind          `json:"kind,omitempty"`
	Success    bool          `json:"success"`
}

// HistoryFilter selects history entries. Zero fields match everything.
type HistoryFilter struct {
	Command string
	Success *bool
	Since   time.Time
	// Limit keeps only the most recent N matches.
	Limit int
}

func (f HistoryFilter) match(e *Execution) bool {
	if f.Command != "" && e.Command != f.Command {
		return false
	}
	if f.Success != nil && e.Success != *f.Success {
		return false
	}
	if !f.Since.IsZero() && e.StartedAt.Before(f.Since) {
		return false
	}
	return true
}

// Stats summarizes the recorded history.
type Stats struct {
	Registered  int            `json:"registered"`
	Total       int            `json:"total"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
	ByCommand   map[string]int `json:"byCommand"`
	AvgDuration time.Duration  `json:"avgDuration"`
	QueueLength int            `json:"queueLength"`
}

// History returns copies of the recorded executions in completion order.
func (e *Engine) History(filter HistoryFilter) []Execution {
	e.historyMu.RLock()
	defer e.historyMu.RUnlock()

	out := make([]Execution, 0, len(e.history))
	for _, ex := range e.history {
		if filter.match(ex) {
			out = append(out, *ex)
		}
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[len(out)-filter.Limit:]
	}
	return out
}

// ClearHistory drops every recorded execution.
func (e *Engine) ClearHistory() {
	e.historyMu.Lock()
	defer e.historyMu.Unlock()
	e.history = nil
}

// Stats computes counters over the current history.
func (e *Engine) Stats() Stats {
	s := Stats{
		Registered:  len(e.Names()),
		ByCommand:   make(map[string]int),
		QueueLength: e.QueueLen(),
	}

	e.historyMu.RLock()
	defer e.historyMu.RUnlock()
	var total time.Duration
	for _, ex := range e.history {
		s.Total++
		if ex.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
		s.ByCommand[ex.Command]++
		total += ex.Duration
	}
	if s.Total > 0 {
		s.AvgDuration = total / time.Duration(s.Total)
	}
	return s
}

func (e *Engine) record(ex *Execution) {
	e.historyMu.Lock()
	defer e.historyMu.Unlock()
	e.history = append(e.history, ex)
	if len(e.history) > e.historyMax {
		keep := e.historyTrim
		trimmed := make([]*Execution, keep)
		copy(trimmed, e.history[len(e.history)-keep:])
		e.history = trimmed
	}
}

// Names returns the registered command names, sorted.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.commands))
	for name := range e.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
