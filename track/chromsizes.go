package track

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// ChromSizes is the chromosome-length table of one reference genome, read
// from a UCSC-style two-column text file (name, length). The on-disk path is
// retained because the external converter takes the table as a file argument.
type ChromSizes struct {
	Genome string
	Path   string
	Names  []string
	sizes  map[string]int64
}

// ReadChromSizes parses the chromosome-size table at path and binds it to
// the given genome tag. Files ending in .gz are decompressed transparently.
// A malformed table is a *ConfigError: conversion against a bad table would
// produce corrupt output.
func ReadChromSizes(ctx context.Context, genome, path string) (c *ChromSizes, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "chrom sizes for %s", genome)
	}
	defer file.CloseAndReport(ctx, in, &err)
	var r io.Reader = in.Reader(ctx)
	if strings.HasSuffix(path, ".gz") {
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(r); err != nil {
			return nil, errors.Wrapf(err, "chrom sizes for %s", genome)
		}
		defer gz.Close() // nolint: errcheck
		r = gz
	}

	c = &ChromSizes{Genome: genome, Path: path, sizes: make(map[string]int64)}
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, configErrorf("%s:%d: expected chromosome name and length", path, lineno)
		}
		length, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || length <= 0 {
			return nil, configErrorf("%s:%d: bad chromosome length %q", path, lineno, fields[1])
		}
		if _, ok := c.sizes[fields[0]]; ok {
			return nil, configErrorf("%s:%d: duplicate chromosome %s", path, lineno, fields[0])
		}
		c.Names = append(c.Names, fields[0])
		c.sizes[fields[0]] = length
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "chrom sizes for %s", genome)
	}
	if len(c.Names) == 0 {
		return nil, configErrorf("%s: empty chromosome-size table", path)
	}
	return c, nil
}

// Length returns the length of the named chromosome.
func (c *ChromSizes) Length(name string) (int64, bool) {
	n, ok := c.sizes[name]
	return n, ok
}
