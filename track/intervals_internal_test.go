package track

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadIntervals(t *testing.T) {
	in := `track type=bedGraph name=merged
# a comment

chr2	100	200	1.5
chr10	5	50	2
chr1	0	10	0.25 extra
`
	ivs, err := readIntervals(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, ivs, 3)
	assert.Equal(t, "chr2", ivs[0].chrom)
	assert.Equal(t, int64(100), ivs[0].start)
	assert.Equal(t, "chr1\t0\t10\t0.25 extra", ivs[2].line)
}

func TestReadIntervalsMalformed(t *testing.T) {
	_, err := readIntervals(strings.NewReader("chr1\tnotanumber\t10\t1\n"))
	assert.Error(t, err)
	_, err = readIntervals(strings.NewReader("chr1\n"))
	assert.Error(t, err)
}

// Chromosome names must order byte-wise, the way "LC_COLLATE=C sort" would:
// chr10 sorts before chr2.
func TestSortIntervalsByteOrder(t *testing.T) {
	ivs := []interval{
		{chrom: "chr2", start: 100, line: "chr2\t100"},
		{chrom: "chr1", start: 10, line: "chr1\t10"},
		{chrom: "chr10", start: 0, line: "chr10\t0"},
		{chrom: "chr1", start: 9, line: "chr1\t9"},
		{chrom: "chrX", start: 0, line: "chrX\t0"},
	}
	sortIntervals(ivs)
	var order []string
	for _, iv := range ivs {
		order = append(order, iv.line)
	}
	assert.Equal(t, []string{
		"chr1\t9",
		"chr1\t10",
		"chr10\t0",
		"chr2\t100",
		"chrX\t0",
	}, order)
}

func TestWriteIntervalsVerbatim(t *testing.T) {
	in := "chr1\t0\t10\t0.25\nchr1\t10\t20\t0.5\n"
	ivs, err := readIntervals(strings.NewReader(in))
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, writeIntervals(&out, ivs))
	assert.Equal(t, in, out.String())
}
