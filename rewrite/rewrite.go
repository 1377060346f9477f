// Package rewrite implements the SAM MAPQ rewriter: it merges a stream of
// predictions with the SAM file they were computed from and substitutes
// recalibrated MAPQ values in place, in a single lockstep pass. See
// spec.md §4.9.
package rewrite

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/grailbio/base/errors"

	"github.com/mapqtip/mapqtip/predmerge"
)

// Options configures one rewrite pass, per spec.md §6.6.
type Options struct {
	// OrigMapqTag and PreciseMapqTag name the aux tags appended for
	// WriteOrigMapq/WritePreciseMapq. Empty means the defaults "Zm"/"Zp".
	OrigMapqTag    string
	PreciseMapqTag string

	WriteOrigMapq    bool
	WritePreciseMapq bool

	// KeepZTZ, when false (the default), strips ZT:Z aux fields from
	// rewritten lines; the feature columns they carried are no longer
	// needed once predictions have been produced.
	KeepZTZ bool
}

func (o Options) origTag() string {
	if o.OrigMapqTag == "" {
		return "Zm"
	}
	return o.OrigMapqTag
}

func (o Options) preciseTag() string {
	if o.PreciseMapqTag == "" {
		return "Zp"
	}
	return o.PreciseMapqTag
}

var ztzPrefix = []byte("ZT:Z:")
var tabSep = []byte("\t")

// Rewrite drains sam line by line, substituting MAPQ on every line whose
// 1-based non-header ordinal matches a record produced by merger, and
// writes the result to w. Header lines (leading '@') are copied verbatim
// and do not advance the ordinal.
//
// If merger is exhausted first, remaining SAM lines pass through
// unchanged. If sam is exhausted while merger still holds a pending
// record, that is an input-inconsistency: fatal, per spec.md §4.9.
func Rewrite(sam io.Reader, merger *predmerge.Merger, w io.Writer, opts Options) error {
	sc := bufio.NewScanner(sam)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	bw := bufio.NewWriter(w)

	pred, havePred, err := merger.Next()
	if err != nil {
		return errors.E(err, "rewrite: reading first prediction")
	}

	var ordinal uint64
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] == '@' {
			if _, err := bw.Write(line); err != nil {
				return errors.E(err, "rewrite: writing header line")
			}
			if err := bw.WriteByte('\n'); err != nil {
				return errors.E(err, "rewrite: writing header line")
			}
			continue
		}
		ordinal++

		out := line
		if havePred && pred.Line == ordinal {
			rewritten, err := rewriteLine(line, pred.MapQ, opts)
			if err != nil {
				return err
			}
			out = rewritten
			pred, havePred, err = merger.Next()
			if err != nil {
				return errors.E(err, "rewrite: reading prediction for line", ordinal)
			}
		}
		if _, err := bw.Write(out); err != nil {
			return errors.E(err, "rewrite: writing line", ordinal)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return errors.E(err, "rewrite: writing line", ordinal)
		}
	}
	if err := sc.Err(); err != nil {
		return errors.E(err, "rewrite: reading SAM input")
	}
	if havePred {
		return errors.E("rewrite: SAM input exhausted at ordinal", ordinal,
			"but a prediction for line", pred.Line, "was never reached")
	}
	return bw.Flush()
}

// rewriteLine substitutes MAPQ on one non-header SAM line and applies the
// ZT:Z/provenance-tag policy opts describes. Every column other than
// MAPQ and the aux fields it touches is left byte-identical.
func rewriteLine(line []byte, mapq float64, opts Options) ([]byte, error) {
	fields := bytes.Split(line, tabSep)
	if len(fields) < 11 {
		return nil, errors.E("rewrite: SAM record has fewer than 11 columns")
	}
	origMapQ := string(fields[4])
	fields[4] = []byte(strconv.Itoa(int(math.Round(mapq))))

	kept := fields[:11:11]
	for _, f := range fields[11:] {
		if !opts.KeepZTZ && bytes.HasPrefix(f, ztzPrefix) {
			continue
		}
		kept = append(kept, f)
	}
	if opts.WriteOrigMapq {
		kept = append(kept, []byte(fmt.Sprintf("%s:i:%s", opts.origTag(), origMapQ)))
	}
	if opts.WritePreciseMapq {
		kept = append(kept, []byte(fmt.Sprintf("%s:Z:%.3f", opts.preciseTag(), mapq)))
	}
	return bytes.Join(kept, tabSep), nil
}
