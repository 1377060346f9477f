// Package samscan implements the one-pass SAM scanner: it decodes each
// non-header record, pairs adjacent mates via a two-slot lookback, routes
// every non-secondary record to one of spec.md §4.2's seven cases, and
// optionally emits feature rows and populates a template store.
package samscan

import (
	"bufio"
	"io"
	"strings"

	"github.com/grailbio/base/errors"

	"github.com/mapqtip/mapqtip/align"
	"github.com/mapqtip/mapqtip/oracle"
	"github.com/mapqtip/mapqtip/template"
)

// SimPrefix marks a read name as simulator-generated, per spec.md §4.2's
// "optional simulated-read-type gate". The suffix after the last
// oracle.Sep names the type the read was generated as; the scanner checks
// it against the case it actually routed to.
const SimPrefix = "qsim!"

// Options configures one Scan invocation.
type Options struct {
	// Wiggle is the correctness tolerance in bases, spec.md §6.6.
	Wiggle int
	// EmitFeatures requests feature-row CSV output (spec.md §6.2), which
	// makes ZT:Z mandatory on every aligned, non-secondary record.
	EmitFeatures bool
	// EmitTemplates requests template-store population (spec.md §4.2).
	EmitTemplates bool
	// MaxAllowedFragLen clamps fragment length before templating, per
	// spec.md §6.6 (default 50000, applied by the caller).
	MaxAllowedFragLen int
	// CheckSimType enables the simulated-read-type gate: routes that don't
	// match a SimPrefix-tagged read's declared type are dropped and
	// counted rather than templated/featured.
	CheckSimType bool
	// Store receives template-store output when EmitTemplates is set.
	Store *template.Store
}

// Counts tallies the observational outcomes spec.md §7 requires to be
// surfaced rather than treated as fatal.
type Counts struct {
	Records          uint64
	SecondarySkipped uint64
	UnalPairDropped  uint64
	TypeMismatch     uint64
	BadEnd           uint64
	Concordant       uint64
	Discordant       uint64
	Unpaired         uint64
}

// Scanner drives one pass over a SAM stream.
type Scanner struct {
	opts Options

	// slots implement the two-slot pairing lookback of spec.md §3 and §9:
	// two fully owned Records rotate in place, with pending holding the
	// index of a first-seen, not-yet-paired mate (or -1). slotOrd drives
	// the rotation and only advances for records that actually land in a
	// slot, so a secondary/supplementary record between two real mates
	// can't displace the stashed first mate before it's paired.
	slots    [2]align.Record
	pending  int
	slotOrd  uint64
	scratch  align.Record
	lineOrd  uint64
	featureW *csvWriter
	counts   Counts
}

// NewScanner constructs a Scanner. featureOut may be nil if opts does not
// request feature output.
func NewScanner(opts Options, featureOut io.Writer) *Scanner {
	s := &Scanner{opts: opts, pending: -1}
	s.slots[0].Correct = -1
	s.slots[1].Correct = -1
	if featureOut != nil {
		s.featureW = newCSVWriter(featureOut)
	}
	return s
}

// Counts returns the running tally.
func (s *Scanner) Counts() Counts { return s.counts }

// Scan reads r line by line, decoding and routing each non-header record.
func (s *Scanner) Scan(r io.Reader) error {
	if s.featureW != nil {
		if err := s.featureW.writeHeader(); err != nil {
			return err
		}
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] == '@' {
			continue
		}
		if err := s.scanOne(line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return errors.E(err, "samscan: reading SAM stream")
	}
	return nil
}

func (s *Scanner) scanOne(line []byte) error {
	s.lineOrd++
	s.counts.Records++

	if err := align.Decode(line, &s.scratch); err != nil {
		return errors.E(err, "samscan: line", s.lineOrd)
	}

	if s.scratch.Secondary() {
		s.counts.SecondarySkipped++
		return nil
	}

	slot := int(s.slotOrd) % 2
	s.slotOrd++
	rec := &s.slots[slot]
	*rec = s.scratch
	rec.LineOrdinal = s.lineOrd

	if s.opts.EmitFeatures && rec.Aligned() && !rec.HasZTZ {
		return errors.E("samscan: missing ZT:Z on line", s.lineOrd, "with feature output requested")
	}

	if !rec.Paired() {
		return s.routeUnpaired(rec)
	}

	other := &s.slots[1-slot]
	if s.pending != 1-slot || other.QName != rec.QName {
		// First mate seen for this qname; stash and wait for its partner.
		s.pending = slot
		return nil
	}
	s.pending = -1

	mate1, mate2 := rec, other
	if rec.Mate2() {
		mate1, mate2 = other, rec
	}
	return s.routePair(mate1, mate2)
}

func (s *Scanner) routeUnpaired(rec *align.Record) error {
	if rec.Unmapped() {
		return nil
	}
	s.counts.Unpaired++
	if s.opts.CheckSimType && strings.HasPrefix(rec.QName, SimPrefix) {
		if declared, ok := simDeclaredType(rec.QName); ok && declared != "u" {
			s.counts.TypeMismatch++
			return nil
		}
	}
	rec.Correct = oracle.Evaluate(rec.QName, rec.RName, rec.Pos, rec.FW(), s.opts.Wiggle)

	if s.opts.EmitTemplates && s.opts.Store != nil {
		u := unpairedFromRecord(rec, 0, 0)
		s.opts.Store.AddUnpaired(template.ClassUnpaired, func() *template.Unpaired {
			return template.CloneUnpaired(u)
		})
	}
	if s.featureW != nil {
		return s.featureW.writeUnpaired(rec, 0)
	}
	return nil
}

func (s *Scanner) routePair(m1, m2 *align.Record) error {
	if m1.Unmapped() && m2.Unmapped() {
		s.counts.UnalPairDropped++
		return nil
	}
	if m1.Unmapped() != m2.Unmapped() {
		return s.routeBadEnd(m1, m2)
	}

	class := template.ClassDiscordant
	if m1.Concordant() && m2.Concordant() {
		class = template.ClassConcordant
	}
	if class == template.ClassConcordant {
		s.counts.Concordant++
	} else {
		s.counts.Discordant++
	}

	if s.opts.CheckSimType {
		want := "c"
		if class == template.ClassDiscordant {
			want = "d"
		}
		if mismatchAgainstDeclared(m1.QName, want) {
			s.counts.TypeMismatch++
			return nil
		}
	}

	fragLen := align.FragmentLength(m1, m2)
	if s.opts.MaxAllowedFragLen > 0 && fragLen > s.opts.MaxAllowedFragLen {
		fragLen = s.opts.MaxAllowedFragLen
	}

	m1.Correct = oracle.EvaluatePair(m1.QName, m1.RName, m1.Pos, m1.FW(), m1.Mate2(), s.opts.Wiggle)
	m2.Correct = oracle.EvaluatePair(m2.QName, m2.RName, m2.Pos, m2.FW(), m2.Mate2(), s.opts.Wiggle)

	if s.opts.EmitTemplates && s.opts.Store != nil {
		p := pairedFromRecords(m1, m2, fragLen)
		s.opts.Store.AddPaired(class, func() *template.Paired {
			return template.ClonePaired(p)
		})
	}
	if s.featureW != nil {
		if err := s.featureW.writePairRow(m1, m2, fragLen); err != nil {
			return err
		}
		if err := s.featureW.writePairRow(m2, m1, fragLen); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) routeBadEnd(m1, m2 *align.Record) error {
	s.counts.BadEnd++
	aligned, unaligned := m1, m2
	if m2.Aligned() {
		aligned, unaligned = m2, m1
	}
	if s.opts.CheckSimType && mismatchAgainstDeclared(aligned.QName, "b") {
		s.counts.TypeMismatch++
		return nil
	}
	aligned.Correct = oracle.Evaluate(aligned.QName, aligned.RName, aligned.Pos, aligned.FW(), s.opts.Wiggle)

	if s.opts.EmitTemplates && s.opts.Store != nil {
		u := unpairedFromRecord(aligned, mateFlag(aligned), len(unaligned.Seq))
		s.opts.Store.AddUnpaired(template.ClassBadEnd, func() *template.Unpaired {
			return template.CloneUnpaired(u)
		})
	}
	if s.featureW != nil {
		return s.featureW.writeUnpaired(aligned, len(unaligned.Seq))
	}
	return nil
}

func mateFlag(r *align.Record) int {
	switch {
	case r.Mate1():
		return 1
	case r.Mate2():
		return 2
	default:
		return 0
	}
}

// simDeclaredType extracts the type suffix after the last oracle.Sep in a
// SimPrefix-tagged read name, per spec.md §4.2.
func simDeclaredType(qname string) (string, bool) {
	i := strings.LastIndex(qname, oracle.Sep)
	if i < 0 || i+len(oracle.Sep) == len(qname) {
		return "", false
	}
	return qname[i+len(oracle.Sep):], true
}

func mismatchAgainstDeclared(qname, want string) bool {
	if !strings.HasPrefix(qname, SimPrefix) {
		return false
	}
	declared, ok := simDeclaredType(qname)
	return ok && declared != want
}

func unpairedFromRecord(r *align.Record, mateFlag, oppLen int) *template.Unpaired {
	return &template.Unpaired{
		BestScore: r.BestScore,
		FW:        r.FW(),
		Len:       len(r.Seq),
		MateFlag:  mateFlag,
		OppLen:    oppLen,
		Qual:      r.Qual,
		Xscript:   r.Xscript,
	}
}

func pairedFromRecords(m1, m2 *align.Record, fragLen int) *template.Paired {
	return &template.Paired{
		Score12:   m1.BestScore + m2.BestScore,
		Score1:    m1.BestScore,
		Len1:      len(m1.Seq),
		FW1:       m1.FW(),
		Qual1:     m1.Qual,
		Xscript1:  m1.Xscript,
		Score2:    m2.BestScore,
		Len2:      len(m2.Seq),
		FW2:       m2.FW(),
		Qual2:     m2.Qual,
		Xscript2:  m2.Xscript,
		Upstream1: m1.LPos() <= m2.LPos(),
		FragLen:   fragLen,
	}
}
