package template

import (
	"github.com/mapqtip/mapqtip/reservoir"
	"github.com/mapqtip/mapqtip/rng"
	"github.com/mapqtip/mapqtip/xscript"
)

// Store holds the four reservoir-sampled template populations spec.md
// §4.2's case table routes records into: unpaired, bad-end, concordant and
// discordant. Each reservoir has independent capacity K but shares one RNG
// stream, matching the source's single process-wide generator (spec.md
// §5).
type Store struct {
	U *reservoir.Sample[*Unpaired]
	B *reservoir.Sample[*Unpaired]
	C *reservoir.Sample[*Paired]
	D *reservoir.Sample[*Paired]
}

// NewStore constructs a Store with reservoir capacity k for every class,
// drawing acceptance decisions from src.
func NewStore(k int, src rng.Source) *Store {
	return &Store{
		U: reservoir.New[*Unpaired](k, src),
		B: reservoir.New[*Unpaired](k, src),
		C: reservoir.New[*Paired](k, src),
		D: reservoir.New[*Paired](k, src),
	}
}

// NObserved returns the observed-count (not sample size) for class c, the
// quantity spec.md §4.6's budget computation is keyed on.
func (s *Store) NObserved(c Class) uint64 {
	switch c {
	case ClassUnpaired:
		return s.U.N()
	case ClassBadEnd:
		return s.B.N()
	case ClassConcordant:
		return s.C.N()
	case ClassDiscordant:
		return s.D.N()
	default:
		return 0
	}
}

// AddUnpaired offers u to the reservoir for class c (Unpaired or BadEnd),
// deep-copying only if the reservoir accepts it. It follows the
// add_part1()/Set two-phase protocol so a rejected item never allocates
// its owned Qual/Xscript copies.
func (s *Store) AddUnpaired(c Class, build func() *Unpaired) {
	var r *reservoir.Sample[*Unpaired]
	switch c {
	case ClassUnpaired:
		r = s.U
	case ClassBadEnd:
		r = s.B
	default:
		return
	}
	slot, ok := r.AddPart1()
	if !ok {
		return
	}
	r.Set(slot, build())
}

// AddPaired offers a pair to the reservoir for class c (Concordant or
// Discordant), symmetric to AddUnpaired.
func (s *Store) AddPaired(c Class, build func() *Paired) {
	var r *reservoir.Sample[*Paired]
	switch c {
	case ClassConcordant:
		r = s.C
	case ClassDiscordant:
		r = s.D
	default:
		return
	}
	slot, ok := r.AddPart1()
	if !ok {
		return
	}
	r.Set(slot, build())
}

// MaxTemplateLen returns the largest reference footprint any currently
// retained template needs at placement time, across all four reservoirs.
// The FASTA chunk reader's window overlap must be at least this large so
// that no retained template can be split across a chunk boundary; see
// original_source/src/simplesim.h, which derives its own window overlap
// the same way from the four per-class template models.
func (s *Store) MaxTemplateLen() int {
	max := 0
	for _, u := range s.U.Items() {
		if l := u.ReflenBases(); l > max {
			max = l
		}
	}
	for _, u := range s.B.Items() {
		if l := u.ReflenBases(); l > max {
			max = l
		}
	}
	for _, p := range s.C.Items() {
		if p.FragLen > max {
			max = p.FragLen
		}
	}
	for _, p := range s.D.Items() {
		if p.FragLen > max {
			max = p.FragLen
		}
	}
	return max
}

// CloneUnpaired deep-copies u's owned Qual and Xscript, matching the
// source's strdup-on-insert ownership rule (spec.md §5).
func CloneUnpaired(u *Unpaired) *Unpaired {
	cp := *u
	cp.Qual = string([]byte(u.Qual))
	cp.Xscript = append(xscript.Transcript(nil), u.Xscript...)
	return &cp
}

// ClonePaired deep-copies p's owned Qual1/Qual2 and Xscript1/Xscript2.
func ClonePaired(p *Paired) *Paired {
	cp := *p
	cp.Qual1 = string([]byte(p.Qual1))
	cp.Qual2 = string([]byte(p.Qual2))
	cp.Xscript1 = append(xscript.Transcript(nil), p.Xscript1...)
	cp.Xscript2 = append(xscript.Transcript(nil), p.Xscript2...)
	return &cp
}
