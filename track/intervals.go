package track

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// interval is one line of an interval-list (bedGraph) file. Only the sort
// key is decoded; the line is carried verbatim so values and optional extra
// columns pass through untouched.
type interval struct {
	chrom string
	start int64
	line  string
}

// readIntervals parses interval-list text: whitespace-delimited lines whose
// first two columns are the chromosome name and 0-based start coordinate.
// Blank lines and track/browser header lines are dropped.
func readIntervals(r io.Reader) ([]interval, error) {
	var ivs []interval
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "track") || strings.HasPrefix(trimmed, "browser") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			return nil, errors.Errorf("line %d: expected at least chrom and start, got %q", lineno, trimmed)
		}
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: bad start coordinate %q", lineno, fields[1])
		}
		ivs = append(ivs, interval{chrom: fields[0], start: start, line: line})
	}
	return ivs, scanner.Err()
}

// sortIntervals totally orders intervals by (chromosome, start). Chromosome
// names compare byte-wise, never under a locale collation: the indexed-track
// converter requires the same order as "LC_COLLATE=C sort -k1,1 -k2,2n",
// where "chr10" sorts before "chr2". The sort is stable so duplicate
// coordinates keep their input order.
func sortIntervals(ivs []interval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		if c := strings.Compare(ivs[i].chrom, ivs[j].chrom); c != 0 {
			return c < 0
		}
		return ivs[i].start < ivs[j].start
	})
}

// writeIntervals writes the interval lines in slice order.
func writeIntervals(w io.Writer, ivs []interval) error {
	bw := bufio.NewWriter(w)
	for i := range ivs {
		if _, err := fmt.Fprintln(bw, ivs[i].line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
