package main

import (
	"encoding/csv"
	"io"

	"github.com/mapqtip/mapqtip/encoding/fastq"
)

// csvWriter is a thin wrapper letting writeCSVFile check for a deferred
// write error once, rather than after every row.
type csvWriter struct {
	w *csv.Writer
	e error
}

func newCSVWriter(w io.Writer) *csvWriter {
	return &csvWriter{w: csv.NewWriter(w)}
}

func (c *csvWriter) writeRow(row []string) error {
	if c.e != nil {
		return c.e
	}
	c.e = c.w.Write(row)
	return c.e
}

func (c *csvWriter) flush() {
	c.w.Flush()
	if c.e == nil {
		c.e = c.w.Error()
	}
}

func (c *csvWriter) err() error { return c.e }

func newFastqWriter(w io.Writer) *fastq.Writer {
	return fastq.NewWriter(w)
}
