package track

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// SignalTrack is a named coverage file with its declared reference genome.
// A track may only be converted or merged with the chromosome-size table of
// that genome; there is no automatic inference.
type SignalTrack struct {
	Path   string
	Genome string
}

// ConfigError indicates a configuration the pipeline must reject rather than
// tolerate: a track paired with the wrong chromosome-size table, a malformed
// table, or a required tool that cannot be found.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "track configuration: " + e.Reason }

func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// Runner executes one external command, with stderr captured by the caller.
// Tests substitute a fake; the default runs through os/exec.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stderr io.Writer) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args []string, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = stderr
	return cmd.Run()
}
