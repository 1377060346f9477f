// Package simulate implements the tandem read simulator: it replays
// template-store contents against reference windows to produce labeled
// FASTQ reads whose aggregate class counts meet a shaped budget. See
// spec.md §4.6.
package simulate

import (
	"github.com/mapqtip/mapqtip/encoding/fasta"
	"github.com/mapqtip/mapqtip/encoding/fastq"
	"github.com/mapqtip/mapqtip/reservoir"
	"github.com/mapqtip/mapqtip/rng"
	"github.com/mapqtip/mapqtip/template"
)

type unpairedSample = reservoir.Sample[*template.Unpaired]
type pairedSample = reservoir.Sample[*template.Paired]

// Sink is where simulated reads land: unpaired reads on Unpaired, and both
// mates of concordant/discordant/bad-end pairs (a bad-end pair's aligned
// mate included) on R1 and R2.
type Sink struct {
	Unpaired *fastq.Writer
	R1, R2   *fastq.Writer
}

// Options configures one Simulate run.
type Options struct {
	Budget  Budget
	Overlap int
	// LTotal is the precomputed sum of FASTA file byte sizes, spec.md
	// §4.6's L_total.
	LTotal uint64
}

// Summary tallies simulator outcomes for the end-of-run report spec.md §7
// requires for observational conditions.
type Summary struct {
	Wrote        map[template.Class]int
	Exhausted    map[template.Class]int // draws where every placement attempt failed
	WindowsUsed  int
	WindowsSkipN int
}

func newSummary() *Summary {
	return &Summary{Wrote: map[template.Class]int{}, Exhausted: map[template.Class]int{}}
}

func fracN(buf []byte) float64 {
	if len(buf) == 0 {
		return 1
	}
	n := 0
	for _, b := range buf {
		if b == 'N' {
			n++
		}
	}
	return float64(n) / float64(len(buf))
}

// Simulate drains chunks, drawing simulated reads from store and writing
// them to sink, until the reader is exhausted.
func Simulate(store *template.Store, chunks *fasta.ChunkReader, opts Options, src rng.Source, sink Sink) (*Summary, error) {
	summary := newSummary()
	read := &SimulatedRead{}
	companion := &SimulatedRead{}

	for {
		win, ok, err := chunks.Next()
		if err != nil {
			return summary, err
		}
		if !ok {
			break
		}
		retsz := len(win.Buf)
		nchances := retsz - opts.Overlap + 1
		if nchances <= 0 {
			continue
		}
		if fracN(win.Buf) >= 0.90 {
			summary.WindowsSkipN++
			continue
		}
		summary.WindowsUsed++

		p := 1.1 * float64(nchances) / float64(opts.LTotal)
		if p > 0.999 {
			p = 0.999
		}

		if err := simulateUnpairedClass(store.U, template.ClassUnpaired, opts, win, p, src, read, sink, summary); err != nil {
			return summary, err
		}
		if err := simulateBadEndClass(store.B, opts, win, p, src, read, companion, sink, summary); err != nil {
			return summary, err
		}
		if err := simulatePairedClass(store.C, template.ClassConcordant, opts, win, p, src, read, companion, sink, summary); err != nil {
			return summary, err
		}
		if err := simulatePairedClass(store.D, template.ClassDiscordant, opts, win, p, src, read, companion, sink, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func minForClass(b Budget, c template.Class) int {
	switch c {
	case template.ClassUnpaired:
		return b.MinUnpaired
	case template.ClassBadEnd:
		return b.MinBadEnd
	case template.ClassConcordant:
		return b.MinConcordant
	case template.ClassDiscordant:
		return b.MinDiscordant
	default:
		return 0
	}
}

func pickIndex(n int, src rng.Source) int {
	i := int(src.Uniform01() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

func simulateUnpairedClass(
	sample *unpairedSample, class template.Class, opts Options,
	win fasta.Window, p float64, src rng.Source, read *SimulatedRead,
	sink Sink, summary *Summary,
) error {
	items := sample.Items()
	if len(items) == 0 {
		return nil
	}
	target := opts.Budget.TargetClass(sample.N(), minForClass(opts.Budget, class))
	if target == 0 {
		return nil
	}
	k := src.Binomial(target, p)
	for i := 0; i < k; i++ {
		u := items[pickIndex(len(items), src)]
		ref, off, ok := PlaceUnpaired(win, u, opts.Overlap, src)
		if !ok {
			summary.Exhausted[class]++
			continue
		}
		seq, err := read.Mutate(ref, u.Xscript, src)
		if err != nil {
			return err
		}
		name := EncodeUnpaired(win.RefID, u.FW, int(win.RefOff)+off, u.BestScore, class.String())
		if err := writeRead(sink.Unpaired, name, seq, u.Qual, u.FW); err != nil {
			return err
		}
		summary.Wrote[class]++
	}
	return nil
}

func simulateBadEndClass(
	sample *unpairedSample, opts Options,
	win fasta.Window, p float64, src rng.Source, read, companion *SimulatedRead,
	sink Sink, summary *Summary,
) error {
	items := sample.Items()
	if len(items) == 0 {
		return nil
	}
	target := opts.Budget.TargetClass(sample.N(), opts.Budget.MinBadEnd)
	if target == 0 {
		return nil
	}
	k := src.Binomial(target, p)
	for i := 0; i < k; i++ {
		u := items[pickIndex(len(items), src)]
		ref, off, ok := PlaceUnpaired(win, u, opts.Overlap, src)
		if !ok {
			summary.Exhausted[template.ClassBadEnd]++
			continue
		}
		alignedSeq, err := read.Mutate(ref, u.Xscript, src)
		if err != nil {
			return err
		}
		compSeq := companion.RandomBases(u.OppLen, src)
		compQual := fixedQual(u.OppLen, 'I')

		alignedName := EncodeUnpaired(win.RefID, u.FW, int(win.RefOff)+off, u.BestScore, template.ClassBadEnd.String())
		mate1Seq, mate1Qual, mate2Seq, mate2Qual := alignedSeq, u.Qual, compSeq, compQual
		if u.MateFlag == 2 {
			mate1Seq, mate1Qual, mate2Seq, mate2Qual = compSeq, compQual, alignedSeq, u.Qual
		}
		if err := writeRead(sink.R1, alignedName, mate1Seq, mate1Qual, true); err != nil {
			return err
		}
		if err := writeRead(sink.R2, alignedName, mate2Seq, mate2Qual, true); err != nil {
			return err
		}
		summary.Wrote[template.ClassBadEnd]++
	}
	return nil
}

func simulatePairedClass(
	sample *pairedSample, class template.Class, opts Options,
	win fasta.Window, p float64, src rng.Source, read, mate2Buf *SimulatedRead,
	sink Sink, summary *Summary,
) error {
	items := sample.Items()
	if len(items) == 0 {
		return nil
	}
	target := opts.Budget.TargetClass(sample.N(), minForClass(opts.Budget, class))
	if target == 0 {
		return nil
	}
	k := src.Binomial(target, p)
	for i := 0; i < k; i++ {
		pr := items[pickIndex(len(items), src)]
		upRef, downRef, off, ok := PlacePaired(win, pr, opts.Overlap, src)
		if !ok {
			summary.Exhausted[class]++
			continue
		}
		upXscript, downXscript := pr.Xscript1, pr.Xscript2
		if !pr.Upstream1 {
			upXscript, downXscript = pr.Xscript2, pr.Xscript1
		}
		upSeq, err := read.Mutate(upRef, upXscript, src)
		if err != nil {
			return err
		}
		downSeq, err := mate2Buf.Mutate(downRef, downXscript, src)
		if err != nil {
			return err
		}

		upOff := int(win.RefOff) + off
		downOff := int(win.RefOff) + off + pr.FragLen - downXscript.LenOnRef()

		var seq1, qual1, seq2, qual2 string
		var fw1, fw2 bool
		var off1, off2 int
		if pr.Upstream1 {
			seq1, qual1, fw1, off1 = string(upSeq), pr.Qual1, pr.FW1, upOff
			seq2, qual2, fw2, off2 = string(downSeq), pr.Qual2, pr.FW2, downOff
		} else {
			seq2, qual2, fw2, off2 = string(upSeq), pr.Qual2, pr.FW2, upOff
			seq1, qual1, fw1, off1 = string(downSeq), pr.Qual1, pr.FW1, downOff
		}

		name := EncodePair(win.RefID, fw1, off1, pr.Score1, win.RefID, fw2, off2, pr.Score2, class.String())
		if err := writeRead(sink.R1, name, []byte(seq1), qual1, fw1); err != nil {
			return err
		}
		if err := writeRead(sink.R2, name, []byte(seq2), qual2, fw2); err != nil {
			return err
		}
		summary.Wrote[class]++
	}
	return nil
}

func fixedQual(n int, c byte) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return string(b)
}

// writeRead writes one FASTQ record, reverse-complementing sequence and
// quality when fw is false, per spec.md §6.4.
func writeRead(w *fastq.Writer, name string, seq []byte, qual string, fw bool) error {
	s, q := seq, []byte(qual)
	if !fw {
		s = ReverseComplement(seq)
		q = reverse([]byte(qual))
	}
	return w.Write(&fastq.Read{ID: "@" + name, Seq: string(s), Unk: "+", Qual: string(q)})
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
