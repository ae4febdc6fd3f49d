package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/canopy/internal/logging"
)

// NewLogger configures the application logger from a level name.
// It writes to Stderr to keep Stdout for command output and JSON-RPC.
func NewLogger(level string) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(lvl), nil
}

// PrintSystemMessage prints a standardized system message to stdout.
func PrintSystemMessage(format string, args ...any) {
	fmt.Printf(">>> %s\n", fmt.Sprintf(format, args...))
}
