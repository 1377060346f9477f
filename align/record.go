// Package align decodes SAM alignment records into the classified,
// feature-bearing form the rest of this system operates on: flag
// classification, edit transcript reconstruction (via xscript), and the
// scoring/geometry fields the template store, scanner and simulator need.
// See spec.md §3 and §4.1.
package align

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/errors"
	"github.com/mapqtip/mapqtip/xscript"
)

// secondaryFlag is the bit this system treats as "secondary" per spec.md
// §3: "flag bit 0x800 is set". This mirrors the source's own convention
// rather than the stricter SAM-spec distinction between 0x100 (secondary)
// and 0x800 (supplementary).
const secondaryFlag = sam.Supplementary

// Record is a single decoded, non-header SAM alignment. It is reused
// across calls to Decode: two Records rotate through samscan's pairing
// lookback (spec.md §3's "two-slot rotation"), so Decode always resets
// every field rather than allocating a fresh Record.
type Record struct {
	LineOrdinal uint64

	QName string
	Flags sam.Flags
	RName string
	Pos   int // 1-based, as in SAM; 0 if unaligned.
	MapQ  int
	Cigar sam.Cigar
	Seq   string
	Qual  string

	MDZ    string
	HasMDZ bool
	ZTZ    string
	HasZTZ bool

	LeftClip  int
	RightClip int
	BestScore int
	HasScore  bool
	Xscript   xscript.Transcript

	// Correct is -1 (unknown) until an oracle evaluates the record against
	// its read name; see the oracle package.
	Correct int

	// Valid is set once Decode has successfully populated this Record. A
	// pairing slot that has not yet been filled, or has been cleared,
	// reports Valid() == false.
	valid bool
}

// Reset clears r so it can be reused for the next input line.
func (r *Record) Reset() {
	*r = Record{Correct: -1}
}

// Valid reports whether Decode has populated this Record since the last
// Reset.
func (r *Record) Valid() bool { return r.valid }

// Unmapped reports whether the record's own SEQ failed to align.
func (r *Record) Unmapped() bool { return r.Flags&sam.Unmapped != 0 }

// Aligned is the complement of Unmapped.
func (r *Record) Aligned() bool { return !r.Unmapped() }

// Paired reports whether the record is part of a pair, per the SAM FLAG
// (irrespective of whether the mate aligned).
func (r *Record) Paired() bool { return r.Flags&sam.Paired != 0 }

// Mate1 reports whether this is read 1 of a pair.
func (r *Record) Mate1() bool { return r.Flags&sam.Read1 != 0 }

// Mate2 reports whether this is read 2 of a pair.
func (r *Record) Mate2() bool { return r.Flags&sam.Read2 != 0 }

// Reverse reports whether the record aligned to the reverse strand.
func (r *Record) Reverse() bool { return r.Flags&sam.Reverse != 0 }

// FW is the complement of Reverse.
func (r *Record) FW() bool { return !r.Reverse() }

// Concordant reports whether the SAM FLAG's "properly paired" bit is set.
func (r *Record) Concordant() bool { return r.Flags&sam.ProperPair != 0 }

// Secondary reports whether this record must be skipped per spec.md §3.
func (r *Record) Secondary() bool { return r.Flags&secondaryFlag != 0 }

// LPos returns the leftmost reference position (1-based, inclusive)
// touched by the alignment, soft clips included, per spec.md §4.3.
func (r *Record) LPos() int { return r.Pos - r.LeftClip }

// RPos returns the rightmost reference position (1-based, inclusive)
// touched by the alignment, soft clips included: the len_on_ref positions
// starting at LPos.
func (r *Record) RPos() int { return r.LPos() + r.Xscript.LenOnRef() - 1 }

var tab = []byte("\t")

// Decode parses one non-header SAM line into r, computing the edit
// transcript and derived geometry fields for aligned records. line_ordinal
// is not assigned here: it belongs to the caller (samscan), which alone
// knows how many non-secondary records preceded this one.
func Decode(line []byte, r *Record) error {
	r.Reset()
	fields := bytes.Split(line, tab)
	if len(fields) < 11 {
		return errors.E("align: SAM record has fewer than 11 columns")
	}
	r.QName = string(fields[0])

	flag, err := strconv.ParseUint(string(fields[1]), 10, 16)
	if err != nil {
		return errors.E(err, "align: invalid FLAG")
	}
	r.Flags = sam.Flags(flag)

	r.RName = string(fields[2])

	pos, err := strconv.Atoi(string(fields[3]))
	if err != nil {
		return errors.E(err, "align: invalid POS")
	}
	r.Pos = pos

	mapq, err := strconv.Atoi(string(fields[4]))
	if err != nil {
		return errors.E(err, "align: invalid MAPQ")
	}
	r.MapQ = mapq

	if cigarStr := fields[5]; len(cigarStr) != 1 || cigarStr[0] != '*' {
		r.Cigar, err = sam.ParseCigar(cigarStr)
		if err != nil {
			return errors.E(err, "align: invalid CIGAR")
		}
	}

	r.Seq = string(fields[9])
	r.Qual = string(fields[10])

	for _, f := range fields[11:] {
		switch {
		case bytes.HasPrefix(f, []byte("MD:Z:")):
			r.MDZ = string(f[5:])
			r.HasMDZ = true
		case bytes.HasPrefix(f, []byte("ZT:Z:")):
			r.ZTZ = string(f[5:])
			r.HasZTZ = true
			r.BestScore, r.HasScore = parseBestScore(r.ZTZ)
		}
	}

	if r.Secondary() {
		r.valid = true
		return nil
	}

	if r.Aligned() {
		x, err := xscript.Decode(r.Cigar, r.MDZ, r.HasMDZ)
		if err != nil {
			return errors.E(err, "align: line", r.QName)
		}
		r.Xscript = x
		r.LeftClip = leadingSoftClip(x)
		r.RightClip = trailingSoftClip(x)
	}

	r.valid = true
	return nil
}

func leadingSoftClip(x xscript.Transcript) int {
	n := 0
	for n < len(x) && xscript.Op(x[n]) == xscript.OpSoftClip {
		n++
	}
	return n
}

func trailingSoftClip(x xscript.Transcript) int {
	n := 0
	for i := len(x) - 1; i >= 0 && xscript.Op(x[i]) == xscript.OpSoftClip; i-- {
		n++
	}
	return n
}

func parseBestScore(ztz string) (int, bool) {
	tok := ztz
	if i := strings.IndexByte(ztz, ','); i >= 0 {
		tok = ztz[:i]
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return v, true
}
