package chipseq

import (
	"bufio"
	"context"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// Sample is one row of the sample manifest. Fields are fixed at parse time
// and never mutated afterwards.
type Sample struct {
	// ID is the delivery key naming the raw alignment artifact on disk.
	ID string
	// Name is the canonical sample name; all derived outputs are keyed by it.
	Name string
	// Genome is the reference build tag, e.g. "hg38" or "mm10".
	Genome string
}

// Manifest is the parsed sample sheet, in row order.
type Manifest struct {
	Path    string
	Samples []Sample
	// Skipped counts rows dropped because they had fewer than three fields.
	Skipped int
}

// LoadManifest parses a whitespace- or tab-delimited sample sheet with
// columns identifier, sample name, genome tag. Blank lines and lines starting
// with '#' are ignored. Rows with fewer than three fields are skipped with a
// warning. A missing file, or a manifest with zero usable rows, is a
// *ManifestError.
func LoadManifest(ctx context.Context, path string) (*Manifest, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, &ManifestError{Path: path, Reason: err.Error()}
	}
	m := &Manifest{Path: path}
	scanner := bufio.NewScanner(in.Reader(ctx))
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			log.Error.Printf("%s:%d: expected 3 fields (identifier, name, genome), got %d; skipping row",
				path, lineno, len(fields))
			m.Skipped++
			continue
		}
		m.Samples = append(m.Samples, Sample{ID: fields[0], Name: fields[1], Genome: fields[2]})
	}
	if err := scanner.Err(); err != nil {
		_ = in.Close(ctx)
		return nil, &ManifestError{Path: path, Reason: err.Error()}
	}
	if err := in.Close(ctx); err != nil {
		return nil, &ManifestError{Path: path, Reason: err.Error()}
	}
	if len(m.Samples) == 0 {
		return nil, &ManifestError{Path: path, Reason: "no usable sample rows"}
	}
	return m, nil
}

// Genomes returns the distinct genome tags of the manifest, in first-seen
// order.
func (m *Manifest) Genomes() []string {
	seen := make(map[string]bool)
	var genomes []string
	for _, s := range m.Samples {
		if !seen[s.Genome] {
			seen[s.Genome] = true
			genomes = append(genomes, s.Genome)
		}
	}
	return genomes
}
