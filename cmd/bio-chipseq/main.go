package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/lili-8477/bioinfo-tools/chipseq"
	"github.com/lili-8477/bioinfo-tools/track"
	"v.io/x/lib/cmdline"
)

// tableFlag accumulates genome=path chromosome-size table bindings. The flag
// is repeatable and accepts comma-separated lists.
type tableFlag map[string]string

func (f tableFlag) String() string {
	pairs := make([]string, 0, len(f))
	for g, p := range f {
		pairs = append(pairs, g+"="+p)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (f tableFlag) Set(value string) error {
	for _, pair := range strings.Split(value, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("bad chromosome-size table binding %q, want genome=path", pair)
		}
		f[parts[0]] = parts[1]
	}
	return nil
}

// peakFlags is the run-level peak-calling configuration shared by the
// call-peaks and run subcommands.
type peakFlags struct {
	caller, mode, keepDup *string
	narrowQ, broadQ       *float64
	parallelism           *int
	timeout               *time.Duration
}

func registerPeakFlags(cmd *cmdline.Command) peakFlags {
	return peakFlags{
		caller:      cmd.Flags.String("peak-caller", chipseq.DefaultOpts.PeakCaller, "Peak-calling binary (macs2-compatible arguments)"),
		mode:        cmd.Flags.String("mode", string(chipseq.DefaultOpts.Mode), "Peak model: narrow or broad"),
		narrowQ:     cmd.Flags.Float64("narrow-q", chipseq.DefaultOpts.NarrowQ, "q-value threshold in narrow mode"),
		broadQ:      cmd.Flags.Float64("broad-q", chipseq.DefaultOpts.BroadQ, "q-value threshold in broad mode"),
		keepDup:     cmd.Flags.String("keep-dup", chipseq.DefaultOpts.KeepDup, "Duplicate-handling policy passed to the peak caller"),
		parallelism: cmd.Flags.Int("parallelism", chipseq.DefaultOpts.Parallelism, "Maximum number of simultaneous peak-calling jobs; 0 = runtime.NumCPU()"),
		timeout:     cmd.Flags.Duration("timeout", 0, "Per-job wall-clock bound; 0 = none"),
	}
}

func (f peakFlags) opts() (chipseq.Opts, error) {
	mode := chipseq.Mode(*f.mode)
	if mode != chipseq.ModeNarrow && mode != chipseq.ModeBroad {
		return chipseq.Opts{}, fmt.Errorf("bad -mode %q, want narrow or broad", *f.mode)
	}
	return chipseq.Opts{
		PeakCaller:  *f.caller,
		Mode:        mode,
		NarrowQ:     *f.narrowQ,
		BroadQ:      *f.broadQ,
		KeepDup:     *f.keepDup,
		Parallelism: *f.parallelism,
		Timeout:     *f.timeout,
	}, nil
}

func newCmdStage() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "stage",
		Short: "Rename raw alignment deliveries to canonical sample names",
	}
	manifest := cmd.Flags.String("manifest", "samples.tsv", "Sample manifest path")
	dir := cmd.Flags.String("dir", ".", "Directory holding the raw deliveries")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		ctx := vcontext.Background()
		m, err := chipseq.LoadManifest(ctx, *manifest)
		if err != nil {
			return err
		}
		report, err := chipseq.Stage(m, *dir)
		if err != nil {
			return err
		}
		for _, res := range report.Results {
			fmt.Fprintf(env.Stdout, "%s\t%s\n", res.Sample.Name, res.Action)
		}
		return nil
	})
	return cmd
}

func newCmdResolveControls() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "resolve-controls",
		Short: "Print the control and treatment samples resolved per genome",
	}
	manifest := cmd.Flags.String("manifest", "samples.tsv", "Sample manifest path")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		ctx := vcontext.Background()
		m, err := chipseq.LoadManifest(ctx, *manifest)
		if err != nil {
			return err
		}
		groups, err := chipseq.Partition(m)
		if err != nil {
			return err
		}
		for _, genome := range m.Genomes() {
			g := groups[genome]
			fmt.Fprintf(env.Stdout, "%s\tcontrol=%s\ttreatments=%s\n",
				g.Genome, g.Control, strings.Join(g.Treatments, ","))
		}
		return nil
	})
	return cmd
}

func newCmdCallPeaks() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "call-peaks",
		Short: "Invoke the external peak caller for every treatment sample",
	}
	manifest := cmd.Flags.String("manifest", "samples.tsv", "Sample manifest path")
	dir := cmd.Flags.String("dir", ".", "Directory holding the staged alignment files")
	out := cmd.Flags.String("out", "peaks", "Output root; each job writes to <out>/<genome>/<sample>")
	pf := registerPeakFlags(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		opts, err := pf.opts()
		if err != nil {
			return err
		}
		ctx := vcontext.Background()
		m, err := chipseq.LoadManifest(ctx, *manifest)
		if err != nil {
			return err
		}
		groups, err := chipseq.Partition(m)
		if err != nil {
			return err
		}
		inv := chipseq.Invoker{Opts: opts, Dir: *dir, OutRoot: *out}
		_, err = inv.Invoke(ctx, groups)
		return err
	})
	return cmd
}

func newCmdConvertTracks() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "convert-tracks",
		Short: "Convert per-sample coverage output into indexed binary tracks",
	}
	manifest := cmd.Flags.String("manifest", "samples.tsv", "Sample manifest path")
	out := cmd.Flags.String("out", "peaks", "Output root used by call-peaks")
	converter := cmd.Flags.String("converter", track.DefaultTools.Converter, "Interval-list to indexed-track converter binary")
	tables := tableFlag{}
	cmd.Flags.Var(tables, "chrom-sizes", "Chromosome-size table per genome as genome=path; repeatable")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		ctx := vcontext.Background()
		m, err := chipseq.LoadManifest(ctx, *manifest)
		if err != nil {
			return err
		}
		tools := track.Tools{Converter: *converter}
		summary := &chipseq.Summary{}
		if err := convertTracks(ctx, m, *out, tables, &tools, summary); err != nil {
			return err
		}
		summary.Log()
		return nil
	})
	return cmd
}

// convertTracks converts the coverage output of every treatment sample,
// recording a per-sample outcome. Conversion problems that stem from missing
// conveniences (no table, no converter, no coverage file) degrade the step;
// a genome/table mismatch or converter failure is fatal.
func convertTracks(ctx context.Context, m *chipseq.Manifest, outRoot string, tables tableFlag, tools *track.Tools, summary *chipseq.Summary) error {
	sizesByGenome := make(map[string]*track.ChromSizes)
	for _, genome := range m.Genomes() {
		path, ok := tables[genome]
		if !ok {
			continue
		}
		sizes, err := track.ReadChromSizes(ctx, genome, path)
		if err != nil {
			return err
		}
		sizesByGenome[genome] = sizes
	}
	for _, s := range m.Samples {
		if chipseq.IsControl(s.Name) {
			continue
		}
		sampleDir := filepath.Join(outRoot, s.Genome, s.Name)
		trk := track.SignalTrack{
			Path:   filepath.Join(sampleDir, s.Name+"_treat_pileup.bdg"),
			Genome: s.Genome,
		}
		if _, err := os.Stat(trk.Path); os.IsNotExist(err) {
			summary.Add(s.Name, s.Genome, chipseq.OutcomeDegraded, "no coverage output to convert")
			continue
		}
		status, err := tools.Convert(ctx, trk, sizesByGenome[s.Genome], filepath.Join(sampleDir, s.Name+".bw"))
		if err != nil {
			return err
		}
		if status == track.Converted {
			summary.Add(s.Name, s.Genome, chipseq.OutcomeSuccess, "track converted")
		} else {
			summary.Add(s.Name, s.Genome, chipseq.OutcomeDegraded, status.String())
		}
	}
	return nil
}

func newCmdMergeTracks() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "merge-tracks",
		Short:    "Merge several indexed binary tracks into one",
		ArgsName: "genome=trackpath...",
	}
	genome := cmd.Flags.String("genome", "", "Genome tag of the merge; selects the chromosome-size table")
	out := cmd.Flags.String("out", "merged.bw", "Merged track output path")
	converter := cmd.Flags.String("converter", track.DefaultTools.Converter, "Interval-list to indexed-track converter binary")
	merger := cmd.Flags.String("merger", track.DefaultTools.Merger, "Indexed-track merger binary")
	tables := tableFlag{}
	cmd.Flags.Var(tables, "chrom-sizes", "Chromosome-size table per genome as genome=path; repeatable")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) < 1 {
			return fmt.Errorf("merge-tracks takes one or more genome=trackpath arguments")
		}
		if *genome == "" {
			return fmt.Errorf("-genome is required")
		}
		tracks := make([]track.SignalTrack, 0, len(argv))
		for _, arg := range argv {
			parts := strings.SplitN(arg, "=", 2)
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				return fmt.Errorf("bad track %q, want genome=trackpath (the declared genome is mandatory)", arg)
			}
			tracks = append(tracks, track.SignalTrack{Genome: parts[0], Path: parts[1]})
		}
		path, ok := tables[*genome]
		if !ok {
			return fmt.Errorf("no chromosome-size table bound for genome %s (use -chrom-sizes %s=path)", *genome, *genome)
		}
		ctx := vcontext.Background()
		sizes, err := track.ReadChromSizes(ctx, *genome, path)
		if err != nil {
			return err
		}
		tools := track.Tools{Converter: *converter, Merger: *merger}
		return tools.Merge(ctx, tracks, sizes, *out)
	})
	return cmd
}

func newCmdRun() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "run",
		Short: "Stage deliveries, call peaks, and convert tracks in one pass",
	}
	manifest := cmd.Flags.String("manifest", "samples.tsv", "Sample manifest path")
	dir := cmd.Flags.String("dir", ".", "Directory holding the raw deliveries")
	out := cmd.Flags.String("out", "peaks", "Output root; each job writes to <out>/<genome>/<sample>")
	converter := cmd.Flags.String("converter", track.DefaultTools.Converter, "Interval-list to indexed-track converter binary")
	summaryPath := cmd.Flags.String("summary", "", "Write the per-sample outcome table as TSV; default <out>/summary.tsv")
	tables := tableFlag{}
	cmd.Flags.Var(tables, "chrom-sizes", "Chromosome-size table per genome as genome=path; repeatable")
	pf := registerPeakFlags(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		opts, err := pf.opts()
		if err != nil {
			return err
		}
		ctx := vcontext.Background()
		m, err := chipseq.LoadManifest(ctx, *manifest)
		if err != nil {
			return err
		}
		// Control resolution must succeed for every genome before any
		// file is touched.
		groups, err := chipseq.Partition(m)
		if err != nil {
			return err
		}
		summary := &chipseq.Summary{}
		report, err := chipseq.Stage(m, *dir)
		if err != nil {
			return err
		}
		for _, res := range report.Results {
			if res.Action == chipseq.SkippedMissing {
				summary.Add(res.Sample.Name, res.Sample.Genome, chipseq.OutcomeSkipped, "alignment file not delivered")
			}
		}

		inv := chipseq.Invoker{Opts: opts, Dir: *dir, OutRoot: *out}
		results, invokeErr := inv.Invoke(ctx, groups)
		for _, res := range results {
			if res.Err != nil {
				summary.Add(res.Sample, res.Genome, chipseq.OutcomeFailed, res.LogPath)
			} else {
				summary.Add(res.Sample, res.Genome, chipseq.OutcomeSuccess, fmt.Sprintf("peaks in %s", res.Duration.Round(time.Millisecond)))
			}
		}

		if invokeErr == nil {
			tools := track.Tools{Converter: *converter}
			if err := convertTracks(ctx, m, *out, tables, &tools, summary); err != nil {
				invokeErr = err
			}
		}

		summary.Log()
		tsvPath := *summaryPath
		if tsvPath == "" {
			tsvPath = filepath.Join(*out, "summary.tsv")
		}
		if err := os.MkdirAll(filepath.Dir(tsvPath), 0775); err != nil {
			log.Error.Printf("run: writing summary: %v", err)
		} else if err := summary.WriteTSV(ctx, tsvPath); err != nil {
			log.Error.Printf("run: writing summary: %v", err)
		}
		return invokeErr
	})
	return cmd
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(&cmdline.Command{
		Name:     "bio-chipseq",
		Short:    "Batch ChIP-seq peak-calling orchestrator",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdStage(),
			newCmdResolveControls(),
			newCmdCallPeaks(),
			newCmdConvertTracks(),
			newCmdMergeTracks(),
			newCmdRun(),
		},
	})
}
