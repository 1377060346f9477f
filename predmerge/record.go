// Package predmerge implements the prediction file format and the k-way
// merge of prediction streams into global ascending line order. See
// spec.md §3 ("Prediction record"), §4.8 and §6.5.
package predmerge

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/grailbio/base/errors"
)

// RecordSize is the on-disk size of one prediction record: two
// little-endian IEEE-754 float64 values.
const RecordSize = 16

// Record is one (line, mapq) prediction, per spec.md §3.
type Record struct {
	Line uint64
	MapQ float64
}

// WriteRecord appends r to w in the binary format spec.md §6.5 fixes.
func WriteRecord(w io.Writer, r Record) error {
	var buf [RecordSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(float64(r.Line)))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(r.MapQ))
	_, err := w.Write(buf[:])
	return err
}

// ReadRecord reads one record from r. It returns io.EOF (unwrapped) at a
// clean end of stream; any other short read is fatal, per spec.md §4.8.
func ReadRecord(r io.Reader) (Record, error) {
	var buf [RecordSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, errors.E(err, "predmerge: short read, not a clean EOF")
	}
	line := math.Float64frombits(binary.LittleEndian.Uint64(buf[0:8]))
	mapq := math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16]))
	return Record{Line: uint64(line), MapQ: mapq}, nil
}
