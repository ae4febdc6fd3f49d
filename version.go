package canopy

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the builder release, stamped into document metadata.
var Version = strings.TrimSpace(version)
