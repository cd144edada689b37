package track_test

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/lili-8477/bioinfo-tools/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolCall struct {
	name string
	args []string
}

// fakeToolRunner mimics the merger and converter contracts: the merger
// writes mergedOutput to its last argument, the converter records the
// interval text it was fed and writes a placeholder binary to its third
// argument.
type fakeToolRunner struct {
	mu           sync.Mutex
	calls        []toolCall
	mergedOutput string
	converted    []string
}

func (r *fakeToolRunner) Run(ctx context.Context, name string, args []string, stderr io.Writer) error {
	r.mu.Lock()
	r.calls = append(r.calls, toolCall{name: name, args: args})
	r.mu.Unlock()
	switch filepath.Base(name) {
	case "bigWigMerge":
		return ioutil.WriteFile(args[len(args)-1], []byte(r.mergedOutput), 0644)
	case "bedGraphToBigWig":
		in, err := ioutil.ReadFile(args[0])
		if err != nil {
			return err
		}
		r.mu.Lock()
		r.converted = append(r.converted, string(in))
		r.mu.Unlock()
		return ioutil.WriteFile(args[2], []byte("bigwig"), 0644)
	}
	return fmt.Errorf("unexpected tool %s", name)
}

// toolFixture creates dummy tool binaries (resolution only checks
// existence), a chromosome-size table, and a Tools value wired to the fake
// runner.
func toolFixture(t *testing.T, tempDir string, runner *fakeToolRunner) (track.Tools, *track.ChromSizes) {
	binDir := filepath.Join(tempDir, "bin")
	require.NoError(t, os.MkdirAll(binDir, 0755))
	converter := filepath.Join(binDir, "bedGraphToBigWig")
	merger := filepath.Join(binDir, "bigWigMerge")
	require.NoError(t, ioutil.WriteFile(converter, []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, ioutil.WriteFile(merger, []byte("#!/bin/sh\n"), 0755))

	sizesPath := filepath.Join(tempDir, "hg38.chrom.sizes")
	require.NoError(t, ioutil.WriteFile(sizesPath, []byte(hg38Sizes), 0644))
	sizes, err := track.ReadChromSizes(vcontext.Background(), "hg38", sizesPath)
	require.NoError(t, err)

	return track.Tools{Converter: converter, Merger: merger, Runner: runner}, sizes
}

func TestConvert(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	runner := &fakeToolRunner{}
	tools, sizes := toolFixture(t, tempDir, runner)

	bdg := filepath.Join(tempDir, "S1_ChIP_treat_pileup.bdg")
	require.NoError(t, ioutil.WriteFile(bdg, []byte("chr1\t0\t10\t1\n"), 0644))
	out := filepath.Join(tempDir, "S1_ChIP.bw")
	status, err := tools.Convert(vcontext.Background(), track.SignalTrack{Path: bdg, Genome: "hg38"}, sizes, out)
	require.NoError(t, err)
	assert.Equal(t, track.Converted, status)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{bdg, sizes.Path, out}, runner.calls[0].args)
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestConvertSkipsWhenDegraded(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	runner := &fakeToolRunner{}
	tools, sizes := toolFixture(t, tempDir, runner)
	trk := track.SignalTrack{Path: filepath.Join(tempDir, "a.bdg"), Genome: "hg38"}

	// No chromosome-size table for the genome.
	status, err := tools.Convert(vcontext.Background(), trk, nil, filepath.Join(tempDir, "a.bw"))
	require.NoError(t, err)
	assert.Equal(t, track.SkippedNoTable, status)

	// Converter binary not resolvable.
	tools.Converter = filepath.Join(tempDir, "bin", "missing")
	status, err = tools.Convert(vcontext.Background(), trk, sizes, filepath.Join(tempDir, "a.bw"))
	require.NoError(t, err)
	assert.Equal(t, track.SkippedNoTool, status)

	assert.Empty(t, runner.calls)
}

func TestConvertRejectsMismatchedTable(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	runner := &fakeToolRunner{}
	tools, sizes := toolFixture(t, tempDir, runner) // table is for hg38

	out := filepath.Join(tempDir, "a.bw")
	trk := track.SignalTrack{Path: filepath.Join(tempDir, "a.bdg"), Genome: "mm10"}
	_, err := tools.Convert(vcontext.Background(), trk, sizes, out)
	require.Error(t, err)
	cerr, ok := err.(*track.ConfigError)
	require.True(t, ok, "want *ConfigError, got %T", err)
	assert.Contains(t, cerr.Error(), "mm10")
	assert.Empty(t, runner.calls)
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "no output may be written on a genome mismatch")
}

const unsortedMerge = `chr2	100	200	3
chr1	50	60	1
chr10	0	10	2
chr1	5	10	4
`

const sortedMerge = `chr1	5	10	4
chr1	50	60	1
chr10	0	10	2
chr2	100	200	3
`

func TestMerge(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	runner := &fakeToolRunner{mergedOutput: unsortedMerge}
	tools, sizes := toolFixture(t, tempDir, runner)

	tracks := []track.SignalTrack{
		{Path: filepath.Join(tempDir, "a.bw"), Genome: "hg38"},
		{Path: filepath.Join(tempDir, "b.bw"), Genome: "hg38"},
	}
	out := filepath.Join(tempDir, "merged.bw")
	require.NoError(t, tools.Merge(vcontext.Background(), tracks, sizes, out))

	require.Len(t, runner.calls, 2)
	assert.Equal(t, tracks[0].Path, runner.calls[0].args[0])
	assert.Equal(t, tracks[1].Path, runner.calls[0].args[1])
	// The converter must see the intervals in byte-wise (chrom, start)
	// order, whatever order the merger emitted.
	require.Len(t, runner.converted, 1)
	assert.Equal(t, sortedMerge, runner.converted[0])
	assert.Equal(t, sizes.Path, runner.calls[1].args[1])
	assert.Equal(t, out, runner.calls[1].args[2])
	_, err := os.Stat(out)
	assert.NoError(t, err)
}

func TestMergeOrderIndependent(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	runner := &fakeToolRunner{mergedOutput: unsortedMerge}
	tools, sizes := toolFixture(t, tempDir, runner)

	a := track.SignalTrack{Path: filepath.Join(tempDir, "a.bw"), Genome: "hg38"}
	b := track.SignalTrack{Path: filepath.Join(tempDir, "b.bw"), Genome: "hg38"}
	out := filepath.Join(tempDir, "merged.bw")
	require.NoError(t, tools.Merge(vcontext.Background(), []track.SignalTrack{a, b}, sizes, out))
	require.NoError(t, tools.Merge(vcontext.Background(), []track.SignalTrack{b, a}, sizes, out))
	require.Len(t, runner.converted, 2)
	assert.Equal(t, runner.converted[0], runner.converted[1])
}

func TestMergeRejectsMismatchedTrack(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	runner := &fakeToolRunner{mergedOutput: unsortedMerge}
	tools, sizes := toolFixture(t, tempDir, runner) // table is for hg38

	tracks := []track.SignalTrack{
		{Path: filepath.Join(tempDir, "a.bw"), Genome: "hg38"},
		{Path: filepath.Join(tempDir, "b.bw"), Genome: "mm10"},
	}
	out := filepath.Join(tempDir, "merged.bw")
	err := tools.Merge(vcontext.Background(), tracks, sizes, out)
	require.Error(t, err)
	_, ok := err.(*track.ConfigError)
	require.True(t, ok, "want *ConfigError, got %T", err)
	assert.Contains(t, err.Error(), "mm10")
	assert.Empty(t, runner.calls)
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "no output may be written on a genome mismatch")
}

func TestMergeRequiresTools(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	runner := &fakeToolRunner{}
	tools, sizes := toolFixture(t, tempDir, runner)
	tools.Merger = filepath.Join(tempDir, "bin", "missing")

	tracks := []track.SignalTrack{{Path: filepath.Join(tempDir, "a.bw"), Genome: "hg38"}}
	err := tools.Merge(vcontext.Background(), tracks, sizes, filepath.Join(tempDir, "merged.bw"))
	require.Error(t, err)
	_, ok := err.(*track.ConfigError)
	assert.True(t, ok, "want *ConfigError, got %T", err)
	assert.Empty(t, runner.calls)
}
