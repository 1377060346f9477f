package simulate

import (
	"github.com/grailbio/base/errors"

	"github.com/mapqtip/mapqtip/rng"
	"github.com/mapqtip/mapqtip/xscript"
)

var bases = [4]byte{'A', 'C', 'G', 'T'}

func randomBase(src rng.Source) byte {
	return bases[int(src.Uniform01()*4)%4]
}

// SimulatedRead owns a reusable, doubling-on-demand sequence buffer, per
// spec.md §5's ownership note: no per-read allocation once warmed up.
type SimulatedRead struct {
	buf []byte
}

func (r *SimulatedRead) reset(n int) []byte {
	if cap(r.buf) < n {
		newCap := cap(r.buf) * 2
		if newCap < n {
			newCap = n
		}
		r.buf = make([]byte, n, newCap)
	} else {
		r.buf = r.buf[:n]
	}
	return r.buf
}

// Mutate applies xscript to ref (a reference substring covering exactly
// len_on_ref(xscript) bases) and writes the resulting read bases into r's
// reusable buffer. The read length equals |qual|; that invariant is the
// caller's responsibility to have arranged (spec.md §4.6, testable
// property 4).
func (r *SimulatedRead) Mutate(ref []byte, x xscript.Transcript, src rng.Source) ([]byte, error) {
	readLen := x.LenOnRead()
	out := r.reset(readLen)

	ri, oi := 0, 0
	for _, c := range x {
		switch xscript.Op(c) {
		case xscript.OpMatch:
			out[oi] = ref[ri]
			ri++
			oi++
		case xscript.OpMismatch:
			b := randomBase(src)
			for b == ref[ri] {
				b = randomBase(src)
			}
			out[oi] = b
			ri++
			oi++
		case xscript.OpIns:
			out[oi] = randomBase(src)
			oi++
		case xscript.OpDel, xscript.OpSkip:
			ri++
		case xscript.OpSoftClip:
			out[oi] = randomBase(src)
			ri++
			oi++
		default:
			return nil, errors.E("simulate: unrecognized edit-transcript op", string(c))
		}
	}
	return out, nil
}

// RandomBases writes n uniformly random ACGT bases into r's reusable
// buffer, used for a bad-end template's synthesized companion mate
// (spec.md §4.6).
func (r *SimulatedRead) RandomBases(n int, src rng.Source) []byte {
	out := r.reset(n)
	for i := range out {
		out[i] = randomBase(src)
	}
	return out
}
