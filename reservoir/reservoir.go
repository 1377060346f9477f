// Package reservoir implements Vitter's Algorithm R: a fixed-capacity,
// online uniform sample of an unknown-length stream. See spec.md §3 and
// §4.4, and the two-phase add_part1()/write design notes in spec.md §9,
// carried over from the ReservoirSampledEList in the original qsim
// sources' ds.h.
package reservoir

import "github.com/mapqtip/mapqtip/rng"

// Sample is a reservoir of at most K items of type T, drawn uniformly from
// everything ever offered via AddPart1.
type Sample[T any] struct {
	k     int
	n     uint64
	items []T
	src   rng.Source
}

// New constructs a Sample with capacity k, drawing acceptance decisions
// from src.
func New[T any](k int, src rng.Source) *Sample[T] {
	if k < 0 {
		k = 0
	}
	return &Sample[T]{k: k, src: src, items: make([]T, 0, k)}
}

// N returns the number of items ever offered to AddPart1/Add, including
// ones that were not retained. spec.md §4.6's budget computation is keyed
// on N, not on len(Items()).
func (s *Sample[T]) N() uint64 { return s.n }

// K returns the reservoir's capacity.
func (s *Sample[T]) K() int { return s.k }

// Items returns the current sample contents. The result aliases the
// Sample's backing array and is invalidated by the next accepted
// AddPart1/Set pair.
func (s *Sample[T]) Items() []T { return s.items }

// Empty reports whether N() == 0.
func (s *Sample[T]) Empty() bool { return s.n == 0 }

// AddPart1 offers the next stream item for reservoir inclusion without
// requiring the caller to have already constructed it. It always
// increments N(). If the item is selected for retention, it returns the
// slot index to write into and ok == true; the caller must then call Set
// with that slot before the next AddPart1 call. If ok is false, the item
// was not retained and no write should happen.
//
// This mirrors the source's add_part1()/write split, which exists so an
// expensive-to-construct item (e.g. a template that must deep-copy a qual
// string and an edit transcript) is only ever built when it will actually
// be kept.
func (s *Sample[T]) AddPart1() (slot int, ok bool) {
	s.n++
	if len(s.items) < s.k {
		var zero T
		s.items = append(s.items, zero)
		return len(s.items) - 1, true
	}
	if s.k == 0 {
		return 0, false
	}
	j := int(s.src.Uniform01() * float64(s.n))
	if j < 0 || j >= s.k {
		return 0, false
	}
	return j, true
}

// Set writes item into the slot returned by the immediately preceding,
// accepted AddPart1 call.
func (s *Sample[T]) Set(slot int, item T) {
	s.items[slot] = item
}

// Add offers item directly, skipping the two-phase protocol. It is
// convenient for cheap-to-copy T; for T that own heap-allocated buffers,
// prefer AddPart1/Set so rejected items are never constructed.
func (s *Sample[T]) Add(item T) {
	if slot, ok := s.AddPart1(); ok {
		s.Set(slot, item)
	}
}
