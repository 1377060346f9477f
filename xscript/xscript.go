// Package xscript translates a SAM alignment's CIGAR and (when present)
// MD:Z annotation into a single per-reference-position edit transcript, the
// five-letter (six, counting the N/D alias) alphabet {=, X, I, D, N, S}
// described in spec.md §4.1. Downstream packages (samscan, template,
// simulate) consume the resulting Transcript rather than re-deriving edit
// operations from CIGAR/MD:Z themselves.
package xscript

import (
	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/errors"
)

// Op is a single edit-transcript character.
type Op byte

// The edit transcript alphabet. N is kept distinct from D so callers that
// care about spliced alignments can tell them apart, but both count toward
// LenOnRef the same way (spec.md §3).
const (
	OpMatch    Op = '='
	OpMismatch Op = 'X'
	OpIns      Op = 'I'
	OpDel      Op = 'D'
	OpSkip     Op = 'N'
	OpSoftClip Op = 'S'
)

// Transcript is the expanded, position-by-position edit transcript: one
// byte per reference-or-query unit, not run-length encoded.
type Transcript []byte

// String renders the transcript.
func (t Transcript) String() string { return string(t) }

// LenOnRef returns the number of reference positions the transcript
// consumes: every {=, X, D, S, N} character (spec.md §3's len_on_ref).
func (t Transcript) LenOnRef() int {
	n := 0
	for _, c := range t {
		switch Op(c) {
		case OpMatch, OpMismatch, OpDel, OpSkip, OpSoftClip:
			n++
		}
	}
	return n
}

// LenOnRead returns the number of query bases the transcript consumes:
// every {=, X, I, S} character.
func (t Transcript) LenOnRead() int {
	n := 0
	for _, c := range t {
		switch Op(c) {
		case OpMatch, OpMismatch, OpIns, OpSoftClip:
			n++
		}
	}
	return n
}

func appendRun(t Transcript, ch Op, n int) Transcript {
	for i := 0; i < n; i++ {
		t = append(t, byte(ch))
	}
	return t
}

// HasExtendedOps reports whether cigar uses the '=' / 'X' operators, in
// which case the transcript is a direct expansion of the CIGAR and MD:Z is
// not consulted (spec.md §4.1).
func HasExtendedOps(cigar sam.Cigar) bool {
	for _, op := range cigar {
		switch op.Type() {
		case sam.CigarEqual, sam.CigarMismatch:
			return true
		}
	}
	return false
}

// Decode implements the full spec.md §4.1 algorithm: if cigar carries
// extended (=/X) operators, the transcript is their direct expansion and
// mdz is ignored; otherwise cigar and mdz are walked together. mdzPresent
// distinguishes an absent MD:Z tag from an empty one, since both branches
// require it if the CIGAR is not already extended.
func Decode(cigar sam.Cigar, mdz string, mdzPresent bool) (Transcript, error) {
	if HasExtendedOps(cigar) {
		return decodeExtended(cigar)
	}
	if !mdzPresent {
		return nil, errors.E("xscript: neither extended CIGAR nor MD:Z present")
	}
	return decodeWithMD(cigar, mdz)
}

func decodeExtended(cigar sam.Cigar) (Transcript, error) {
	var t Transcript
	for _, op := range cigar {
		n := op.Len()
		switch op.Type() {
		case sam.CigarEqual:
			t = appendRun(t, OpMatch, n)
		case sam.CigarMismatch:
			t = appendRun(t, OpMismatch, n)
		case sam.CigarInsertion:
			t = appendRun(t, OpIns, n)
		case sam.CigarDeletion:
			t = appendRun(t, OpDel, n)
		case sam.CigarSkipped:
			t = appendRun(t, OpSkip, n)
		case sam.CigarSoftClipped:
			t = appendRun(t, OpSoftClip, n)
		case sam.CigarHardClipped:
			// Hard-clipped bases are absent from SEQ; discard, per spec.md §4.1.
		case sam.CigarMatch:
			return nil, errors.E("xscript: bare M operator with an extended (=/X) CIGAR")
		case sam.CigarPadded:
			return nil, errors.E("xscript: P operator is not supported")
		default:
			return nil, errors.E("xscript: unsupported CIGAR operator", op.Type().String())
		}
	}
	return t, nil
}

func decodeWithMD(cigar sam.Cigar, mdz string) (Transcript, error) {
	runs, err := parseMD(mdz)
	if err != nil {
		return nil, err
	}
	cur := newMDCursor(runs)
	var t Transcript
	for _, op := range cigar {
		n := op.Len()
		switch op.Type() {
		case sam.CigarMatch:
			if err := cur.consumeMatch(n, &t); err != nil {
				return nil, err
			}
		case sam.CigarInsertion:
			t = appendRun(t, OpIns, n)
		case sam.CigarDeletion:
			if err := cur.consumeDeletion(n); err != nil {
				return nil, err
			}
			t = appendRun(t, OpDel, n)
		case sam.CigarSkipped:
			t = appendRun(t, OpSkip, n)
		case sam.CigarSoftClipped:
			t = appendRun(t, OpSoftClip, n)
		case sam.CigarHardClipped:
			// discarded, as above.
		case sam.CigarPadded:
			return nil, errors.E("xscript: P operator is not supported")
		case sam.CigarEqual, sam.CigarMismatch:
			return nil, errors.E("xscript: =/X operator present but extended-CIGAR branch was not selected")
		default:
			return nil, errors.E("xscript: unsupported CIGAR operator", op.Type().String())
		}
	}
	if !cur.done() {
		return nil, errors.E("xscript: MD:Z has unconsumed runs after CIGAR", mdz)
	}
	return t, nil
}
