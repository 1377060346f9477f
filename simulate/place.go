package simulate

import (
	"github.com/mapqtip/mapqtip/encoding/fasta"
	"github.com/mapqtip/mapqtip/rng"
	"github.com/mapqtip/mapqtip/template"
)

// MaxAttempts bounds the per-draw placement loop, per spec.md §4.6. Per
// the resolution recorded in DESIGN.md, a footprint that touches a
// non-ACGT base genuinely consumes an attempt and retries, rather than
// reproducing the source's do-while(false) bug that always proceeds to
// write the read.
const MaxAttempts = 10

func allACGT(b []byte) bool {
	for _, c := range b {
		switch c {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

// PlaceUnpaired tries up to MaxAttempts offsets within win for a footprint
// of u's reference length, returning the chosen reference slice and
// 0-based offset on success.
func PlaceUnpaired(win fasta.Window, u *template.Unpaired, olap int, src rng.Source) (ref []byte, off int, ok bool) {
	retsz := len(win.Buf)
	reflen := u.ReflenBases()
	span := retsz - olap
	if span <= 0 || reflen > retsz {
		return nil, 0, false
	}
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		o := int(src.Uniform01() * float64(span))
		if o+reflen > retsz {
			continue
		}
		region := win.Buf[o : o+reflen]
		if !allACGT(region) {
			continue
		}
		return region, o, true
	}
	return nil, 0, false
}

// PlacePaired tries up to MaxAttempts offsets within win for a pair
// spanning fragLen bases, returning the upstream and downstream mates'
// reference slices. Which mate (1 or 2) is upstream is p.Upstream1.
func PlacePaired(win fasta.Window, p *template.Paired, olap int, src rng.Source) (upRef, downRef []byte, off int, ok bool) {
	retsz := len(win.Buf)
	span := retsz - olap
	fragLen := p.FragLen
	if span <= 0 || fragLen > retsz {
		return nil, nil, 0, false
	}
	upLen := refLenOf(p, p.Upstream1)
	downLen := refLenOf(p, !p.Upstream1)

	for attempt := 0; attempt < MaxAttempts; attempt++ {
		o := int(src.Uniform01() * float64(span))
		if o+fragLen > retsz {
			continue
		}
		whole := win.Buf[o : o+fragLen]
		if !allACGT(whole) {
			continue
		}
		up := win.Buf[o : o+upLen]
		down := win.Buf[o+fragLen-downLen : o+fragLen]
		return up, down, o, true
	}
	return nil, nil, 0, false
}

func refLenOf(p *template.Paired, wantMate1 bool) int {
	if wantMate1 {
		return p.Xscript1.LenOnRef()
	}
	return p.Xscript2.LenOnRef()
}
