package track

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// Tools locates the external track utilities and runs them. The zero value
// uses the conventional UCSC binary names found via $PATH.
type Tools struct {
	// Converter turns an interval-list text file into an indexed binary
	// track (bedGraphToBigWig contract: input, chrom.sizes, output).
	Converter string
	// Merger turns N indexed binary tracks into one interval-list text
	// file (bigWigMerge contract: inputs..., output).
	Merger string
	// Runner defaults to os/exec execution when nil.
	Runner Runner
}

// DefaultTools uses the conventional binary names.
var DefaultTools = Tools{Converter: "bedGraphToBigWig", Merger: "bigWigMerge"}

// ConvertStatus reports whether a conversion ran or why it was skipped.
type ConvertStatus int

const (
	Converted ConvertStatus = iota
	// SkippedNoTool means the converter binary was not resolvable.
	SkippedNoTool
	// SkippedNoTable means no chromosome-size table was supplied for the
	// track's genome.
	SkippedNoTable
)

func (s ConvertStatus) String() string {
	switch s {
	case Converted:
		return "converted"
	case SkippedNoTool:
		return "skipped (converter not found)"
	case SkippedNoTable:
		return "skipped (no chromosome-size table)"
	}
	return "unknown"
}

func (t *Tools) runner() Runner {
	if t.Runner != nil {
		return t.Runner
	}
	return execRunner{}
}

// resolve locates a tool binary: a name with a path separator must exist as
// given, a bare name is searched on $PATH.
func resolve(bin string) (string, bool) {
	if bin == "" {
		return "", false
	}
	if filepath.Base(bin) != bin {
		if _, err := os.Stat(bin); err != nil {
			return "", false
		}
		return bin, true
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", false
	}
	return path, true
}

// Convert turns the interval-list coverage file of trk into an indexed
// binary track at out, using the chromosome-size table of the track's
// genome. Conversion is a convenience step: a missing converter binary or a
// nil table skips it with a warning instead of failing the run. A table
// bound to a different genome than the track declares is a *ConfigError —
// applying the wrong table would silently corrupt coordinates.
func (t *Tools) Convert(ctx context.Context, trk SignalTrack, sizes *ChromSizes, out string) (ConvertStatus, error) {
	if sizes == nil {
		log.Printf("convert: %s: no chromosome-size table for genome %s, skipping", trk.Path, trk.Genome)
		return SkippedNoTable, nil
	}
	if trk.Genome != sizes.Genome {
		return 0, configErrorf("track %s declares genome %s but the table is for %s",
			trk.Path, trk.Genome, sizes.Genome)
	}
	bin, ok := resolve(t.Converter)
	if !ok {
		log.Printf("convert: %s: converter %q not found, skipping", trk.Path, t.Converter)
		return SkippedNoTool, nil
	}
	var stderr bytes.Buffer
	if err := t.runner().Run(ctx, bin, []string{trk.Path, sizes.Path, out}, &stderr); err != nil {
		return 0, errors.Wrapf(err, "convert: %s failed for %s: %s", t.Converter, trk.Path, stderr.String())
	}
	log.Printf("convert: %s -> %s (%s)", trk.Path, out, trk.Genome)
	return Converted, nil
}
