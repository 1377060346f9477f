// qtip-rewrite substitutes recalibrated MAPQ values into a SAM file,
// draining one or more merged prediction files in lockstep. See spec.md
// §4.9 and §6.6.
//
// Usage:
//
//	qtip-rewrite [options] -- sam-input -- prediction-files... -- output-file
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"golang.org/x/exp/slices"

	"github.com/mapqtip/mapqtip/cliargs"
	"github.com/mapqtip/mapqtip/predmerge"
	"github.com/mapqtip/mapqtip/rewrite"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options] -- sam-input -- prediction-files... -- output-file\n", os.Args[0])
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	sections := cliargs.SplitSections(os.Args[1:])
	if len(sections) != 4 {
		usage()
		log.Fatalf("qtip-rewrite: expected 4 `--`-delimited sections (options, sam, predictions, output), got %d", len(sections))
	}
	optTokens, samTokens, predTokens, outTokens := sections[0], sections[1], sections[2], sections[3]

	opts, err := cliargs.ParseOptionPairs(optTokens)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(samTokens) != 1 {
		log.Fatalf("qtip-rewrite: sam-input section must contain exactly one path, got %d", len(samTokens))
	}
	if len(predTokens) == 0 {
		log.Fatalf("qtip-rewrite: at least one prediction file is required")
	}
	if len(outTokens) != 1 {
		log.Fatalf("qtip-rewrite: output-file section must contain exactly one path, got %d", len(outTokens))
	}
	samPath, outPath := samTokens[0], outTokens[0]

	// The merger only cares about each stream's own line order, but sorting
	// the prediction paths makes which file breaks a same-line tie
	// independent of shell glob order.
	predPaths := append([]string(nil), predTokens...)
	slices.Sort(predPaths)

	rewriteOpts, err := parseRewriteOptions(opts)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := vcontext.Background()
	if err := run(ctx, samPath, predPaths, outPath, rewriteOpts); err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("qtip-rewrite: exiting")
}

func parseRewriteOptions(opts map[string]string) (rewrite.Options, error) {
	var ro rewrite.Options
	ro.OrigMapqTag = cliargs.String(opts, "orig-mapq-flag", "")
	ro.PreciseMapqTag = cliargs.String(opts, "precise-mapq-flag", "")

	var err error
	if ro.WriteOrigMapq, err = cliargs.Bool(opts, "write-orig-mapq", false); err != nil {
		return ro, err
	}
	if ro.WritePreciseMapq, err = cliargs.Bool(opts, "write-precise-mapq", false); err != nil {
		return ro, err
	}
	if ro.KeepZTZ, err = cliargs.Bool(opts, "keep-ztz", false); err != nil {
		return ro, err
	}
	return ro, nil
}

// run opens the SAM input and every prediction file, merges the
// predictions, rewrites MAPQ in lockstep, and releases every handle on
// every exit path, per spec.md §5's resource policy.
func run(ctx context.Context, samPath string, predPaths []string, outPath string, opts rewrite.Options) (err error) {
	samIn, err := file.Open(ctx, samPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := samIn.Close(ctx); err == nil {
			err = closeErr
		}
	}()

	predFiles := make([]file.File, 0, len(predPaths))
	predReaders := make([]io.Reader, 0, len(predPaths))
	defer func() {
		for _, f := range predFiles {
			if closeErr := f.Close(ctx); err == nil {
				err = closeErr
			}
		}
	}()
	for _, p := range predPaths {
		f, openErr := file.Open(ctx, p)
		if openErr != nil {
			return openErr
		}
		predFiles = append(predFiles, f)
		predReaders = append(predReaders, f.Reader(ctx))
	}

	merger, err := predmerge.NewMerger(predReaders)
	if err != nil {
		return err
	}

	out, err := file.Create(ctx, outPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(ctx); err == nil {
			err = closeErr
		}
	}()

	return rewrite.Rewrite(samIn.Reader(ctx), merger, out.Writer(ctx), opts)
}
