package samscan

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mapqtip/mapqtip/align"
)

// csvWriter wraps encoding/csv.Writer with the header-shape logic spec.md §6.2
// needs: the number of ZT:Z-derived feature columns isn't known until the
// first aligned record is seen, so the header is written lazily.
type csvWriter struct {
	w             *csv.Writer
	headerWritten bool
}

func newCSVWriter(out io.Writer) *csvWriter {
	return &csvWriter{w: csv.NewWriter(out)}
}

func (c *csvWriter) writeHeader() error { return nil } // deferred; see ensureUnpairedHeader/ensurePairHeader

func (c *csvWriter) ensureUnpairedHeader(nZTZ int) error {
	if c.headerWritten {
		return nil
	}
	row := []string{"id", "len", "olen"}
	for i := 0; i < nZTZ; i++ {
		row = append(row, fmt.Sprintf("ztz_%d", i))
	}
	row = append(row, "mapq", "correct")
	c.headerWritten = true
	return c.w.Write(row)
}

func (c *csvWriter) ensurePairHeader(nZTZ, nOZTZ int) error {
	if c.headerWritten {
		return nil
	}
	row := []string{"id", "len"}
	for i := 0; i < nZTZ; i++ {
		row = append(row, fmt.Sprintf("ztz_%d", i))
	}
	row = append(row, "olen", "fraglen")
	for i := 0; i < nOZTZ; i++ {
		row = append(row, fmt.Sprintf("oztz_%d", i))
	}
	row = append(row, "mapq", "correct")
	c.headerWritten = true
	return c.w.Write(row)
}

func splitZTZ(r *align.Record) []string {
	if !r.HasZTZ || r.ZTZ == "" {
		return nil
	}
	return strings.Split(r.ZTZ, ",")
}

func (c *csvWriter) writeUnpaired(r *align.Record, oppLen int) error {
	ztz := splitZTZ(r)
	if err := c.ensureUnpairedHeader(len(ztz)); err != nil {
		return err
	}
	row := make([]string, 0, 5+len(ztz))
	row = append(row, strconv.FormatUint(r.LineOrdinal, 10), strconv.Itoa(len(r.Seq)), strconv.Itoa(oppLen))
	row = append(row, ztz...)
	row = append(row, strconv.Itoa(r.MapQ), strconv.Itoa(r.Correct))
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

// writePairRow emits one mate's feature row, repeating self then the
// opposite mate's ZT:Z fields, per spec.md §4.2.
func (c *csvWriter) writePairRow(self, opp *align.Record, fragLen int) error {
	ztz := splitZTZ(self)
	oztz := splitZTZ(opp)
	if err := c.ensurePairHeader(len(ztz), len(oztz)); err != nil {
		return err
	}
	row := make([]string, 0, 6+len(ztz)+len(oztz))
	row = append(row, strconv.FormatUint(self.LineOrdinal, 10), strconv.Itoa(len(self.Seq)))
	row = append(row, ztz...)
	row = append(row, strconv.Itoa(len(opp.Seq)), strconv.Itoa(fragLen))
	row = append(row, oztz...)
	row = append(row, strconv.Itoa(self.MapQ), strconv.Itoa(self.Correct))
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}
