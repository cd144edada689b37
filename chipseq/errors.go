package chipseq

import (
	"fmt"
	"strings"
)

// ManifestError indicates the sample manifest could not be used at all:
// unreadable file, or no usable rows after filtering.
type ManifestError struct {
	Path   string
	Reason string
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %s", e.Path, e.Reason)
}

// ControlError records a genome whose control resolution failed: Controls
// holds the control-matching sample names, so an empty slice means no sample
// matched the control predicate and two or more means the choice is ambiguous.
type ControlError struct {
	Genome   string
	Controls []string
}

func (e *ControlError) Error() string {
	if len(e.Controls) == 0 {
		return fmt.Sprintf("genome %s: no control (input) sample in manifest", e.Genome)
	}
	return fmt.Sprintf("genome %s: ambiguous control, %d samples match: %s",
		e.Genome, len(e.Controls), strings.Join(e.Controls, ", "))
}

// ValidationError aggregates the control-resolution failures of every
// offending genome so the operator sees all of them in one run.
type ValidationError struct {
	Controls []*ControlError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Controls))
	for i, c := range e.Controls {
		msgs[i] = c.Error()
	}
	return "control resolution failed: " + strings.Join(msgs, "; ")
}

// PreconditionError indicates that a staged alignment file promised by the
// manifest was missing when a peak-call job was about to be dispatched.
type PreconditionError struct {
	Sample string
	Path   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("sample %s: staged alignment file missing: %s", e.Sample, e.Path)
}

// ToolError indicates a nonzero exit from an external tool. The captured
// stderr lives at LogPath.
type ToolError struct {
	Tool    string
	Sample  string
	LogPath string
	Err     error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s failed for sample %s: %v (stderr: %s)", e.Tool, e.Sample, e.Err, e.LogPath)
}

func (e *ToolError) Unwrap() error { return e.Err }
