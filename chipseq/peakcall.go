package chipseq

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// Runner executes one external command, with stderr captured by the caller.
// The default implementation uses os/exec; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stderr io.Writer) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args []string, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = stderr
	return cmd.Run()
}

// PeakCallJob pairs one treatment sample with its genome's control and
// carries every parameter of a single peak-caller invocation.
type PeakCallJob struct {
	Sample    string
	Genome    string
	Treatment string // staged alignment file of the treatment sample
	Control   string // staged alignment file of the control sample
	Family    GenomeFamily
	Mode      Mode
	QValue    float64
	KeepDup   string
	OutDir    string
}

// Args renders the peak caller's argument list for the job.
func (j *PeakCallJob) Args() []string {
	args := []string{
		"callpeak",
		"-t", j.Treatment,
		"-c", j.Control,
		"-f", "BAM",
		"-n", j.Sample,
		"--outdir", j.OutDir,
		"-q", strconv.FormatFloat(j.QValue, 'g', -1, 64),
		"--keep-dup", j.KeepDup,
		// -B emits the per-sample coverage bedGraphs the track-conversion
		// step consumes.
		"-B",
	}
	if code, ok := j.Family.SizeFlag(); ok {
		args = append(args, "-g", code)
	}
	if j.Mode == ModeBroad {
		args = append(args, "--broad")
	}
	return args
}

// JobResult is the retained outcome of one job: the stderr log location and
// the error, if any.
type JobResult struct {
	Sample   string
	Genome   string
	LogPath  string
	Duration time.Duration
	Err      error
}

// Invoker drives the external peak caller over the treatment samples of the
// resolved genome groups.
type Invoker struct {
	Opts Opts
	// Dir is the staging directory holding the canonical alignment files.
	Dir string
	// OutRoot is the root of the output tree. Each job writes to
	// OutRoot/<genome>/<sample>, so no two jobs share a path.
	OutRoot string
	// Runner defaults to os/exec execution when nil.
	Runner Runner
}

// Jobs builds one PeakCallJob per treatment sample, in sorted-genome then
// group order. Called by Invoke; exposed so a dry run can inspect the exact
// invocations.
func (inv *Invoker) Jobs(groups map[string]*GenomeGroup) []PeakCallJob {
	q := inv.Opts.NarrowQ
	if inv.Opts.Mode == ModeBroad {
		q = inv.Opts.BroadQ
	}
	var jobs []PeakCallJob
	for _, genome := range sortedKeys(groups) {
		g := groups[genome]
		family := FamilyOf(genome)
		if _, ok := family.SizeFlag(); !ok {
			log.Error.Printf("call-peaks: genome %s not in the family table; calling without an effective-genome-size flag", genome)
		}
		for _, name := range g.Treatments {
			jobs = append(jobs, PeakCallJob{
				Sample:    name,
				Genome:    genome,
				Treatment: filepath.Join(inv.Dir, DataFile(name)),
				Control:   filepath.Join(inv.Dir, DataFile(g.Control)),
				Family:    family,
				Mode:      inv.Opts.Mode,
				QValue:    q,
				KeepDup:   inv.Opts.KeepDup,
				OutDir:    filepath.Join(inv.OutRoot, genome, name),
			})
		}
	}
	return jobs
}

// Invoke runs every job. All preconditions are checked before the first
// dispatch: a missing treatment or control file means the manifest's
// promises were broken and aborts the run. Jobs then run under a bounded
// worker pool; any nonzero exit is fatal for the run, with the per-job
// stderr log named in the error. The returned results are in job order
// regardless of completion order.
func (inv *Invoker) Invoke(ctx context.Context, groups map[string]*GenomeGroup) ([]JobResult, error) {
	jobs := inv.Jobs(groups)
	for i := range jobs {
		for _, path := range []string{jobs[i].Treatment, jobs[i].Control} {
			if !fileExists(path) {
				return nil, &PreconditionError{Sample: jobs[i].Sample, Path: path}
			}
		}
		if err := os.MkdirAll(jobs[i].OutDir, 0775); err != nil {
			return nil, errors.E(err, "call-peaks: creating output directory", jobs[i].OutDir)
		}
	}

	runner := inv.Runner
	if runner == nil {
		runner = execRunner{}
	}
	workers := inv.Opts.Parallelism
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	results := make([]JobResult, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}
	log.Printf("call-peaks: dispatching %d jobs across %d workers", len(jobs), workers)
	err := traverse.Each(workers, func(w int) error {
		for i := w; i < len(results); i += workers {
			results[i] = inv.run(ctx, runner, &jobs[i])
		}
		return nil
	})
	if err != nil {
		return results, err
	}

	var failed []string
	for i := range results {
		if results[i].Err != nil {
			log.Error.Printf("call-peaks: %v", results[i].Err)
			failed = append(failed, results[i].Sample)
		}
	}
	if len(failed) > 0 {
		return results, errors.E("call-peaks: peak calling failed for samples:", strings.Join(failed, ", "))
	}
	return results, nil
}

func (inv *Invoker) run(ctx context.Context, runner Runner, job *PeakCallJob) JobResult {
	res := JobResult{
		Sample:  job.Sample,
		Genome:  job.Genome,
		LogPath: filepath.Join(job.OutDir, job.Sample+".log"),
	}
	logFile, err := os.Create(res.LogPath)
	if err != nil {
		res.Err = errors.E(err, "call-peaks: creating log file", res.LogPath)
		return res
	}
	if inv.Opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Opts.Timeout)
		defer cancel()
	}
	start := time.Now()
	runErr := runner.Run(ctx, inv.Opts.PeakCaller, job.Args(), logFile)
	res.Duration = time.Since(start)
	if err := logFile.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		res.Err = &ToolError{Tool: inv.Opts.PeakCaller, Sample: job.Sample, LogPath: res.LogPath, Err: runErr}
	} else {
		log.Printf("call-peaks: sample %s (%s) done in %s", job.Sample, job.Genome, res.Duration)
	}
	return res
}
