package chipseq

import (
	"sort"
	"strings"
)

// GenomeGroup holds the samples of one reference genome: an ordered list of
// treatment sample names and the single resolved control sample.
type GenomeGroup struct {
	Genome     string
	Control    string
	Treatments []string
}

// IsControl reports whether a sample name designates a control ("input")
// sample. The match is a case-insensitive substring test on the literal
// "input".
func IsControl(name string) bool {
	return strings.Contains(strings.ToLower(name), "input")
}

// Partition groups the manifest's samples by genome tag and resolves the
// control sample of each group. Resolution is an explicit reduction: a genome
// with zero or with more than one control-matching sample is a configuration
// error, and the failures of all offending genomes are accumulated into a
// single *ValidationError so nothing is resolved by insertion order.
func Partition(m *Manifest) (map[string]*GenomeGroup, error) {
	groups := make(map[string]*GenomeGroup)
	controls := make(map[string][]string)
	for _, s := range m.Samples {
		g := groups[s.Genome]
		if g == nil {
			g = &GenomeGroup{Genome: s.Genome}
			groups[s.Genome] = g
		}
		if IsControl(s.Name) {
			controls[s.Genome] = append(controls[s.Genome], s.Name)
		} else {
			g.Treatments = append(g.Treatments, s.Name)
		}
	}

	var verr ValidationError
	for _, genome := range sortedKeys(groups) {
		candidates := controls[genome]
		if len(candidates) != 1 {
			verr.Controls = append(verr.Controls, &ControlError{Genome: genome, Controls: candidates})
			continue
		}
		groups[genome].Control = candidates[0]
	}
	if len(verr.Controls) > 0 {
		return nil, &verr
	}
	return groups, nil
}

func sortedKeys(groups map[string]*GenomeGroup) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
