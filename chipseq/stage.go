package chipseq

import (
	"os"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

const (
	dataSuffix     = ".bam"
	indexSuffix    = ".bam.bai"
	altIndexSuffix = ".bai"
)

// DataFile returns the canonical alignment filename for a sample name.
func DataFile(name string) string { return name + dataSuffix }

// IndexFile returns the canonical alignment-index filename for a sample name.
func IndexFile(name string) string { return name + indexSuffix }

// StageAction describes what happened to one sample during staging.
type StageAction int

const (
	// Staged means the identifier-named artifact was renamed to its
	// canonical name during this run.
	Staged StageAction = iota
	// AlreadyStaged means the canonical file was present and no
	// identifier-named source existed; nothing was done.
	AlreadyStaged
	// SkippedMissing means neither the identifier-named source nor the
	// canonical file existed; the sample has not been delivered yet.
	SkippedMissing
)

func (a StageAction) String() string {
	switch a {
	case Staged:
		return "staged"
	case AlreadyStaged:
		return "already-staged"
	case SkippedMissing:
		return "skipped"
	}
	return "unknown"
}

// StageResult is the per-sample outcome of staging.
type StageResult struct {
	Sample Sample
	Action StageAction
	// Indexed is true when a canonical index file exists after staging.
	Indexed bool
}

// StageReport lists the per-sample staging outcomes, in manifest order.
type StageReport struct {
	Results []StageResult
}

// Missing returns the names of samples whose alignment file was not found.
func (r *StageReport) Missing() []string {
	var names []string
	for _, res := range r.Results {
		if res.Action == SkippedMissing {
			names = append(names, res.Sample.Name)
		}
	}
	return names
}

// Stage renames the raw alignment deliveries in dir from their
// identifier-based names to the canonical sample-name-based names. The data
// artifact <ID>.bam becomes <Name>.bam; an index is looked for first as
// <ID>.bam.bai and then as <ID>.bai, and staged as <Name>.bam.bai.
//
// An absent data artifact is a per-sample skip, not a failure: the file may
// not have been delivered yet. A rename that fails once the source exists
// aborts the run, because a partially staged genome group is unsafe for
// control resolution. A missing index is a warning only. Staging is
// idempotent: on a second run the identifier-named sources no longer exist
// and every sample reports already-staged.
func Stage(m *Manifest, dir string) (*StageReport, error) {
	report := &StageReport{}
	for _, s := range m.Samples {
		src := filepath.Join(dir, DataFile(s.ID))
		dst := filepath.Join(dir, DataFile(s.Name))
		res := StageResult{Sample: s}
		if _, err := os.Stat(src); os.IsNotExist(err) {
			if _, err := os.Stat(dst); err == nil {
				res.Action = AlreadyStaged
				res.Indexed = fileExists(filepath.Join(dir, IndexFile(s.Name)))
			} else {
				log.Printf("stage: sample %s: %s not found, skipping (not delivered yet?)", s.Name, src)
				res.Action = SkippedMissing
			}
			report.Results = append(report.Results, res)
			continue
		} else if err != nil {
			return nil, errors.E(err, "stage: stat", src)
		}
		if err := os.Rename(src, dst); err != nil {
			return nil, errors.E(err, "stage: renaming alignment file for sample", s.Name)
		}
		res.Action = Staged
		indexed, err := stageIndex(dir, s)
		if err != nil {
			return nil, err
		}
		res.Indexed = indexed
		// Post-condition: the canonical file must exist now.
		if !fileExists(dst) {
			return nil, errors.E("stage: canonical file missing after rename:", dst)
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// stageIndex renames the index artifact of a sample if one exists, trying
// the <ID>.bam.bai convention before the <ID>.bai fallback. Absence is a
// warning: downstream tools can re-index.
func stageIndex(dir string, s Sample) (bool, error) {
	dst := filepath.Join(dir, IndexFile(s.Name))
	for _, src := range []string{
		filepath.Join(dir, s.ID+indexSuffix),
		filepath.Join(dir, s.ID+altIndexSuffix),
	} {
		if !fileExists(src) {
			continue
		}
		if err := os.Rename(src, dst); err != nil {
			return false, errors.E(err, "stage: renaming index file for sample", s.Name)
		}
		return true, nil
	}
	log.Printf("stage: sample %s: no index artifact found, continuing without one", s.Name)
	return false, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
