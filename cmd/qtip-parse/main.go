// qtip-parse drives the three parse-mode operations spec.md §6.6 groups
// under one tool: scanning a SAM stream and, depending on mode, emitting
// simulated FASTQ reads (s), template-population CSVs (i), or feature-row
// CSVs (f).
//
// Usage:
//
//	qtip-parse {s,i,f} [options] -- sam-inputs... -- fasta-inputs... -- output-prefix
//
// The options section is a flat "name value name value ..." list.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/mapqtip/mapqtip/cliargs"
	"github.com/mapqtip/mapqtip/encoding/fasta"
	"github.com/mapqtip/mapqtip/rng"
	"github.com/mapqtip/mapqtip/samscan"
	"github.com/mapqtip/mapqtip/simulate"
	"github.com/mapqtip/mapqtip/template"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s {s,i,f} [options] -- sam-inputs... -- fasta-inputs... -- output-prefix\n", os.Args[0])
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if len(os.Args) < 2 {
		usage()
		log.Fatalf("qtip-parse: missing mode argument")
	}
	mode := os.Args[1]
	if mode != "s" && mode != "i" && mode != "f" {
		usage()
		log.Fatalf("qtip-parse: unrecognized mode %q; want one of s, i, f", mode)
	}

	sections := cliargs.SplitSections(os.Args[2:])
	if len(sections) != 4 {
		usage()
		log.Fatalf("qtip-parse: expected 4 `--`-delimited sections (options, sam, fasta, prefix), got %d", len(sections))
	}
	optTokens, samInputs, fastaInputs, prefixTokens := sections[0], sections[1], sections[2], sections[3]

	opts, err := cliargs.ParseOptionPairs(optTokens)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(prefixTokens) != 1 {
		log.Fatalf("qtip-parse: output-prefix section must contain exactly one token, got %d", len(prefixTokens))
	}
	outPrefix := prefixTokens[0]

	cfg, err := parseConfig(opts)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(samInputs) == 0 {
		log.Fatalf("qtip-parse: at least one SAM input is required")
	}
	if mode == "s" && len(fastaInputs) == 0 {
		log.Fatalf("qtip-parse: mode s requires at least one FASTA input")
	}

	ctx := vcontext.Background()
	if err := run(ctx, mode, cfg, samInputs, fastaInputs, outPrefix); err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("qtip-parse: exiting")
}

// config holds the parse-tool's recognized options, per spec.md §6.6.
type config struct {
	wiggle            int
	inputModelSize    int
	fractionEven      float64
	lowScoreBias      float64
	maxAllowedFragLen int
	simFactor         float64
	simFunction       simulate.Function
	simUnpMin         int
	simConcMin        int
	simDiscMin        int
	simBadEndMin      int
	seed              int64
}

func parseConfig(opts map[string]string) (config, error) {
	var cfg config
	var err error
	if cfg.wiggle, err = cliargs.Int(opts, "wiggle", 30); err != nil {
		return cfg, err
	}
	if cfg.inputModelSize, err = cliargs.Int(opts, "input-model-size", 1000); err != nil {
		return cfg, err
	}
	if cfg.fractionEven, err = cliargs.Float(opts, "fraction-even", 1.0); err != nil {
		return cfg, err
	}
	if cfg.fractionEven < 1.0 {
		log.Printf("qtip-parse: fraction-even < 1.0 is reserved and has no behavioral effect")
	}
	if cfg.lowScoreBias, err = cliargs.Float(opts, "low-score-bias", 1.0); err != nil {
		return cfg, err
	}
	if cfg.lowScoreBias < 1.0 {
		log.Printf("qtip-parse: low-score-bias < 1.0 is reserved and has no behavioral effect")
	}
	if cfg.maxAllowedFragLen, err = cliargs.Int(opts, "max-allowed-fraglen", 50000); err != nil {
		return cfg, err
	}
	if cfg.simFactor, err = cliargs.Float(opts, "sim-factor", 1.0); err != nil {
		return cfg, err
	}
	simFn := cliargs.String(opts, "sim-function", "sqrt")
	fn, ok := simulate.ParseFunction(simFn)
	if !ok {
		return cfg, fmt.Errorf("qtip-parse: unrecognized sim-function %q", simFn)
	}
	cfg.simFunction = fn
	if cfg.simUnpMin, err = cliargs.Int(opts, "sim-unp-min", 0); err != nil {
		return cfg, err
	}
	if cfg.simConcMin, err = cliargs.Int(opts, "sim-conc-min", 0); err != nil {
		return cfg, err
	}
	if cfg.simDiscMin, err = cliargs.Int(opts, "sim-disc-min", 0); err != nil {
		return cfg, err
	}
	if cfg.simBadEndMin, err = cliargs.Int(opts, "sim-bad-end-min", 0); err != nil {
		return cfg, err
	}
	seed, err := cliargs.Int(opts, "seed", 0)
	if err != nil {
		return cfg, err
	}
	cfg.seed = int64(seed)
	return cfg, nil
}

func run(ctx context.Context, mode string, cfg config, samInputs, fastaInputs []string, outPrefix string) error {
	scanSeed, simSeed := rng.SeedPair(cfg.seed)
	store := template.NewStore(cfg.inputModelSize, rng.New(scanSeed))

	switch mode {
	case "f":
		return runFeatures(ctx, cfg, samInputs, outPrefix)
	case "i":
		if err := scanTemplates(ctx, cfg, samInputs, store); err != nil {
			return err
		}
		return writeTemplateCSVs(ctx, store, outPrefix)
	case "s":
		if err := scanTemplates(ctx, cfg, samInputs, store); err != nil {
			return err
		}
		return runSimulate(ctx, cfg, store, fastaInputs, outPrefix, simSeed)
	default:
		return fmt.Errorf("qtip-parse: unreachable mode %q", mode)
	}
}

// scanAll opens sam paths in order and runs scanner over each, in effect
// concatenating them into one logical SAM stream (headers are already
// discarded by the scanner itself).
func scanAll(ctx context.Context, samPaths []string, scanner *samscan.Scanner) error {
	for _, path := range samPaths {
		f, err := file.Open(ctx, path)
		if err != nil {
			return err
		}
		err = scanner.Scan(f.Reader(ctx))
		closeErr := f.Close(ctx)
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}
	}
	return nil
}

func scanTemplates(ctx context.Context, cfg config, samInputs []string, store *template.Store) error {
	opts := samscan.Options{
		Wiggle:            cfg.wiggle,
		EmitTemplates:     true,
		MaxAllowedFragLen: cfg.maxAllowedFragLen,
		CheckSimType:      false,
		Store:             store,
	}
	scanner := samscan.NewScanner(opts, nil)
	if err := scanAll(ctx, samInputs, scanner); err != nil {
		return err
	}
	log.Printf("qtip-parse: scanned %d records (%d concordant, %d discordant, %d unpaired, %d bad-end)",
		scanner.Counts().Records, scanner.Counts().Concordant, scanner.Counts().Discordant,
		scanner.Counts().Unpaired, scanner.Counts().BadEnd)
	return nil
}

func runFeatures(ctx context.Context, cfg config, samInputs []string, outPrefix string) error {
	out, err := file.Create(ctx, outPrefix+".csv")
	if err != nil {
		return err
	}
	opts := samscan.Options{
		Wiggle:            cfg.wiggle,
		EmitFeatures:      true,
		MaxAllowedFragLen: cfg.maxAllowedFragLen,
		CheckSimType:      true,
	}
	scanner := samscan.NewScanner(opts, out.Writer(ctx))
	scanErr := scanAll(ctx, samInputs, scanner)
	closeErr := out.Close(ctx)
	if scanErr != nil {
		return scanErr
	}
	return closeErr
}

func writeTemplateCSVs(ctx context.Context, store *template.Store, outPrefix string) error {
	files := []struct {
		suffix string
		header []string
		rows   func() [][]string
	}{
		{"_unpaired.csv", template.UnpairedHeader, func() [][]string { return rowsOfUnpaired(store.U.Items()) }},
		{"_badend.csv", template.UnpairedHeader, func() [][]string { return rowsOfUnpaired(store.B.Items()) }},
		{"_concordant.csv", template.PairedHeader, func() [][]string { return rowsOfPaired(store.C.Items()) }},
		{"_discordant.csv", template.PairedHeader, func() [][]string { return rowsOfPaired(store.D.Items()) }},
	}
	for _, spec := range files {
		if err := writeCSVFile(ctx, outPrefix+spec.suffix, spec.header, spec.rows()); err != nil {
			return err
		}
	}
	return nil
}

func rowsOfUnpaired(items []*template.Unpaired) [][]string {
	rows := make([][]string, len(items))
	for i, u := range items {
		rows[i] = u.CSVRow()
	}
	return rows
}

func rowsOfPaired(items []*template.Paired) [][]string {
	rows := make([][]string, len(items))
	for i, p := range items {
		rows[i] = p.CSVRow()
	}
	return rows
}

func writeCSVFile(ctx context.Context, path string, header []string, rows [][]string) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	w := newCSVWriter(out.Writer(ctx))
	if err := w.writeRow(header); err != nil {
		out.Close(ctx)
		return err
	}
	for _, row := range rows {
		if err := w.writeRow(row); err != nil {
			out.Close(ctx)
			return err
		}
	}
	w.flush()
	if err := w.err(); err != nil {
		out.Close(ctx)
		return err
	}
	return out.Close(ctx)
}

// defaultOverlap is used when the template store has retained nothing
// (e.g. an all-unaligned or empty input model), so there is no observed
// template length to size the window overlap from.
const defaultOverlap = 300

const chunkSize = 64 * 1024

func runSimulate(ctx context.Context, cfg config, store *template.Store, fastaInputs []string, outPrefix string, simSeed int64) error {
	overlap := store.MaxTemplateLen()
	if overlap <= 0 {
		overlap = defaultOverlap
	}
	if overlap >= chunkSize {
		log.Printf("qtip-parse: largest retained template (%d bases) exceeds the chunk size; clamping window overlap to %d", overlap, chunkSize-1)
		overlap = chunkSize - 1
	}

	chunks, err := fasta.NewChunkReader(ctx, fastaInputs, chunkSize, overlap)
	if err != nil {
		return err
	}
	defer chunks.Close()

	unpairedOut, err := file.Create(ctx, outPrefix+"_unpaired.fastq")
	if err != nil {
		return err
	}
	defer unpairedOut.Close(ctx)
	r1Out, err := file.Create(ctx, outPrefix+"_1.fastq")
	if err != nil {
		return err
	}
	defer r1Out.Close(ctx)
	r2Out, err := file.Create(ctx, outPrefix+"_2.fastq")
	if err != nil {
		return err
	}
	defer r2Out.Close(ctx)

	sink := simulate.Sink{
		Unpaired: newFastqWriter(unpairedOut.Writer(ctx)),
		R1:       newFastqWriter(r1Out.Writer(ctx)),
		R2:       newFastqWriter(r2Out.Writer(ctx)),
	}

	var lTotal uint64
	for _, path := range fastaInputs {
		fi, err := file.Stat(ctx, path)
		if err != nil {
			return err
		}
		lTotal += uint64(fi.Size())
	}

	simOpts := simulate.Options{
		Overlap: overlap,
		LTotal:  lTotal,
		Budget: simulate.Budget{
			Factor:        cfg.simFactor,
			Function:      cfg.simFunction,
			MinUnpaired:   cfg.simUnpMin,
			MinConcordant: cfg.simConcMin,
			MinDiscordant: cfg.simDiscMin,
			MinBadEnd:     cfg.simBadEndMin,
		},
	}
	summary, err := simulate.Simulate(store, chunks, simOpts, rng.New(simSeed), sink)
	if err != nil {
		return err
	}
	log.Printf("qtip-parse: simulated %d unpaired, %d bad-end, %d concordant, %d discordant reads over %d windows (%d skipped as N-heavy)",
		summary.Wrote[template.ClassUnpaired], summary.Wrote[template.ClassBadEnd],
		summary.Wrote[template.ClassConcordant], summary.Wrote[template.ClassDiscordant],
		summary.WindowsUsed, summary.WindowsSkipN)
	return nil
}
