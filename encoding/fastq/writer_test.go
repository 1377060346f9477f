package fastq

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterWritesFourLinesPerRead(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.Write(&Read{ID: "@r1", Seq: "ACGT", Unk: "+", Qual: "IIII"})
	assert.NoError(t, err)
	assert.Equal(t, "@r1\nACGT\n+\nIIII\n", buf.String())
}

func TestWriterConcatenatesMultipleReads(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	assert.NoError(t, w.Write(&Read{ID: "@r1", Seq: "AC", Unk: "+", Qual: "II"}))
	assert.NoError(t, w.Write(&Read{ID: "@r2", Seq: "GT", Unk: "+", Qual: "JJ"}))
	assert.Equal(t, "@r1\nAC\n+\nII\n@r2\nGT\n+\nJJ\n", buf.String())
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, bytes.ErrTooLarge }

func TestWriterStopsAfterFirstError(t *testing.T) {
	w := NewWriter(errWriter{})
	err := w.Write(&Read{ID: "@r1", Seq: "AC", Unk: "+", Qual: "II"})
	assert.ErrorIs(t, err, bytes.ErrTooLarge)
}
