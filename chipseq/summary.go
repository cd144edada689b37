package chipseq

import (
	"context"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
)

// Outcome classifies what happened to one sample over a run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeDegraded Outcome = "degraded"
)

// SampleOutcome is one line of the terminal summary.
type SampleOutcome struct {
	Sample  string
	Genome  string
	Outcome Outcome
	// Detail carries the reason for non-success outcomes, e.g. the stderr
	// log path of a failed job or the step that was skipped.
	Detail string
}

// Summary accumulates per-sample outcomes across pipeline steps for the
// single terminal report.
type Summary struct {
	Outcomes []SampleOutcome
}

// Add appends one outcome.
func (s *Summary) Add(sample, genome string, outcome Outcome, detail string) {
	s.Outcomes = append(s.Outcomes, SampleOutcome{Sample: sample, Genome: genome, Outcome: outcome, Detail: detail})
}

// Failed reports how many samples failed.
func (s *Summary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Outcome == OutcomeFailed {
			n++
		}
	}
	return n
}

// Log prints the summary through the standard logger, one line per sample.
func (s *Summary) Log() {
	for _, o := range s.Outcomes {
		if o.Detail != "" {
			log.Printf("summary: %s\t%s\t%s\t(%s)", o.Sample, o.Genome, o.Outcome, o.Detail)
		} else {
			log.Printf("summary: %s\t%s\t%s", o.Sample, o.Genome, o.Outcome)
		}
	}
}

// WriteTSV writes the summary as a machine-readable TSV file.
func (s *Summary) WriteTSV(ctx context.Context, path string) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := tsv.NewWriter(out.Writer(ctx))
	for _, col := range []string{"SAMPLE", "GENOME", "OUTCOME", "DETAIL"} {
		w.WriteString(col)
	}
	if err = w.EndLine(); err != nil {
		return err
	}
	for _, o := range s.Outcomes {
		w.WriteString(o.Sample)
		w.WriteString(o.Genome)
		w.WriteString(string(o.Outcome))
		w.WriteString(o.Detail)
		if err = w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}
