package track

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// Merge combines several indexed binary tracks into one at out. Unlike
// Convert, merging is an explicit request: a missing merger or converter
// binary is a *ConfigError, not a degraded step.
//
// Every input track must declare the same genome as the chromosome-size
// table; a mismatch is rejected before anything is written. The merger tool
// produces the combined intervals as text, which are then totally ordered by
// (chromosome, start) with a byte-wise comparator before the converter
// re-indexes them, so the result is identical for any permutation of the
// inputs.
func (t *Tools) Merge(ctx context.Context, tracks []SignalTrack, sizes *ChromSizes, out string) error {
	if len(tracks) == 0 {
		return configErrorf("merge: no input tracks")
	}
	if sizes == nil {
		return configErrorf("merge: no chromosome-size table")
	}
	for _, trk := range tracks {
		if trk.Genome != sizes.Genome {
			return configErrorf("track %s declares genome %s but the table is for %s",
				trk.Path, trk.Genome, sizes.Genome)
		}
	}
	merger, ok := resolve(t.Merger)
	if !ok {
		return configErrorf("merge: merger %q not found", t.Merger)
	}
	converter, ok := resolve(t.Converter)
	if !ok {
		return configErrorf("merge: converter %q not found", t.Converter)
	}

	tempDir, err := ioutil.TempDir("", "track-merge")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir) // nolint: errcheck

	mergedPath := filepath.Join(tempDir, "merged.bedGraph")
	args := make([]string, 0, len(tracks)+1)
	for _, trk := range tracks {
		args = append(args, trk.Path)
	}
	args = append(args, mergedPath)
	var stderr bytes.Buffer
	if err := t.runner().Run(ctx, merger, args, &stderr); err != nil {
		return errors.Wrapf(err, "merge: %s failed: %s", t.Merger, stderr.String())
	}

	in, err := os.Open(mergedPath)
	if err != nil {
		return err
	}
	ivs, err := readIntervals(in)
	if e := in.Close(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return errors.Wrapf(err, "merge: reading %s output", t.Merger)
	}
	sortIntervals(ivs)

	sortedPath := filepath.Join(tempDir, "sorted.bedGraph")
	sorted, err := os.Create(sortedPath)
	if err != nil {
		return err
	}
	err = writeIntervals(sorted, ivs)
	if e := sorted.Close(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return err
	}

	stderr.Reset()
	if err := t.runner().Run(ctx, converter, []string{sortedPath, sizes.Path, out}, &stderr); err != nil {
		return errors.Wrapf(err, "merge: %s failed: %s", t.Converter, stderr.String())
	}
	log.Printf("merge: %d tracks -> %s (%s, %d intervals)", len(tracks), out, sizes.Genome, len(ivs))
	return nil
}
