package chipseq

import "time"

// Mode selects the peak-shape model of the external caller.
type Mode string

const (
	ModeNarrow Mode = "narrow"
	ModeBroad  Mode = "broad"
)

// Opts is the run-level configuration of the peak-call step. Mode and
// thresholds apply to every job of a run; they are not per-sample.
type Opts struct {
	// PeakCaller is the peak-calling binary (macs2-compatible argument
	// contract).
	PeakCaller string
	// Mode selects narrow or broad peak calling for the whole run.
	Mode Mode
	// NarrowQ is the q-value threshold used in narrow mode.
	NarrowQ float64
	// BroadQ is the q-value threshold used in broad mode.
	BroadQ float64
	// KeepDup is the duplicate-handling policy passed through to the
	// caller verbatim.
	KeepDup string
	// Parallelism bounds the number of concurrently running jobs;
	// 0 means runtime.NumCPU().
	Parallelism int
	// Timeout bounds the wall-clock time of a single job; 0 means no
	// bound beyond the tool's own exit.
	Timeout time.Duration
}

// DefaultOpts holds the default values of Opts. The q-value defaults match
// the external caller's own defaults for each mode.
var DefaultOpts = Opts{
	PeakCaller:  "macs2",
	Mode:        ModeNarrow,
	NarrowQ:     0.05,
	BroadQ:      0.1,
	KeepDup:     "all",
	Parallelism: 1,
}
