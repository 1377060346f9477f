// Package template holds the persistent, deep-copied summaries of aligned
// reads that the simulator later replays: one record per observed
// unpaired/bad-end alignment or concordant/discordant pair, reservoir
// sampled per class so a bounded-memory model can still represent an
// arbitrarily long SAM stream. See spec.md §3 ("Template") and §6.3, and
// original_source/src/template.h for the field order this package's CSV
// output preserves.
package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mapqtip/mapqtip/xscript"
)

// Class names the four routing buckets spec.md §4.2's case table produces.
type Class int

const (
	ClassUnpaired Class = iota
	ClassBadEnd
	ClassConcordant
	ClassDiscordant
)

func (c Class) String() string {
	switch c {
	case ClassUnpaired:
		return "u"
	case ClassBadEnd:
		return "b"
	case ClassConcordant:
		return "c"
	case ClassDiscordant:
		return "d"
	default:
		return "?"
	}
}

// Unpaired is T_u from spec.md §3: an unpaired alignment, or the aligned
// half of a bad-end pair (opp_len records how long the missing mate's
// synthesized companion must be at simulation time).
type Unpaired struct {
	BestScore int
	FW        bool
	Len       int
	MateFlag  int // 0 = unpaired, 1 = mate 1, 2 = mate 2
	OppLen    int
	Qual      string
	Xscript   xscript.Transcript
}

// ReflenBases returns the number of reference bases the alignment spans,
// per spec.md §3's reflen(T_u) = len_on_ref(xscript).
func (u *Unpaired) ReflenBases() int { return u.Xscript.LenOnRef() }

// CSVRow renders the fields in the order spec.md §6.3 fixes for the
// unpaired template row: best_score,fw,qual,len,mate_flag,opp_len,xscript.
func (u *Unpaired) CSVRow() []string {
	return []string{
		strconv.Itoa(u.BestScore),
		boolFlag(u.FW),
		u.Qual,
		strconv.Itoa(u.Len),
		strconv.Itoa(u.MateFlag),
		strconv.Itoa(u.OppLen),
		u.Xscript.String(),
	}
}

// Paired is T_p from spec.md §3: a concordant or discordant pair, storing
// each mate's own alignment plus the pair-level score sum and geometry.
type Paired struct {
	Score12 int

	Score1   int
	Len1     int
	FW1      bool
	Qual1    string
	Xscript1 xscript.Transcript

	Score2   int
	Len2     int
	FW2      bool
	Qual2    string
	Xscript2 xscript.Transcript

	Upstream1 bool
	FragLen   int
}

// CSVRow renders the fields in the order spec.md §6.3 fixes for the paired
// template row.
func (p *Paired) CSVRow() []string {
	return []string{
		strconv.Itoa(p.Score12),
		boolFlag(p.FW1),
		p.Qual1,
		strconv.Itoa(p.Score1),
		strconv.Itoa(p.Len1),
		p.Xscript1.String(),
		boolFlag(p.FW2),
		p.Qual2,
		strconv.Itoa(p.Score2),
		strconv.Itoa(p.Len2),
		p.Xscript2.String(),
		boolFlag(p.Upstream1),
		strconv.Itoa(p.FragLen),
	}
}

func boolFlag(b bool) string {
	if b {
		return "T"
	}
	return "F"
}

// UnpairedHeader is the CSV header for Unpaired.CSVRow, per spec.md §6.3.
var UnpairedHeader = []string{"best_score", "fw", "qual", "len", "mate_flag", "opp_len", "xscript"}

// PairedHeader is the CSV header for Paired.CSVRow, per spec.md §6.3.
var PairedHeader = []string{
	"sum_score", "fw1", "qual1", "score1", "len1", "xscript1",
	"fw2", "qual2", "score2", "len2", "xscript2",
	"upstream1", "fraglen",
}

func (u *Unpaired) String() string {
	return fmt.Sprintf("Unpaired{score=%d fw=%v len=%d mate=%d}", u.BestScore, u.FW, u.Len, u.MateFlag)
}

func (p *Paired) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Paired{score12=%d fraglen=%d upstream1=%v}", p.Score12, p.FragLen, p.Upstream1)
	return b.String()
}
