package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapqtip/mapqtip/xscript"
)

type fixedSrc struct{ v float64 }

func (f fixedSrc) Uniform01() float64            { return f.v }
func (f fixedSrc) Binomial(n int, p float64) int { return 0 }

func TestStoreAddUnpairedDeepCopies(t *testing.T) {
	s := NewStore(2, fixedSrc{v: 0})
	built := &Unpaired{BestScore: -3, FW: true, Len: 10, Qual: "IIII", Xscript: xscript.Transcript("====")}
	s.AddUnpaired(ClassUnpaired, func() *Unpaired { return CloneUnpaired(built) })
	require.EqualValues(t, 1, s.NObserved(ClassUnpaired))
	require.Len(t, s.U.Items(), 1)

	got := s.U.Items()[0]
	assert.Equal(t, built.Qual, got.Qual)
	got.Qual = "XXXX"
	assert.Equal(t, "IIII", built.Qual, "clone must not alias the original")
}

func TestStoreCSVRowOrder(t *testing.T) {
	u := &Unpaired{BestScore: -5, FW: false, Len: 8, MateFlag: 1, OppLen: 8, Qual: "IIIIIIII", Xscript: xscript.Transcript("========")}
	row := u.CSVRow()
	assert.Equal(t, []string{"-5", "F", "IIIIIIII", "8", "1", "8", "========"}, row)

	p := &Paired{
		Score12: -9,
		Score1: -4, Len1: 8, FW1: true, Qual1: "IIIIIIII", Xscript1: xscript.Transcript("========"),
		Score2: -5, Len2: 8, FW2: false, Qual2: "JJJJJJJJ", Xscript2: xscript.Transcript("=X======"),
		Upstream1: true, FragLen: 200,
	}
	prow := p.CSVRow()
	assert.Equal(t, []string{
		"-9", "T", "IIIIIIII", "-4", "8", "========",
		"F", "JJJJJJJJ", "-5", "8", "=X======",
		"T", "200",
	}, prow)
}

func TestStoreClassRouting(t *testing.T) {
	s := NewStore(1, fixedSrc{v: 0})
	s.AddPaired(ClassConcordant, func() *Paired { return &Paired{Score12: 1} })
	s.AddPaired(ClassDiscordant, func() *Paired { return &Paired{Score12: 2} })
	assert.EqualValues(t, 1, s.NObserved(ClassConcordant))
	assert.EqualValues(t, 1, s.NObserved(ClassDiscordant))
	assert.EqualValues(t, 0, s.NObserved(ClassUnpaired))
}

func TestStoreMaxTemplateLenEmpty(t *testing.T) {
	s := NewStore(4, fixedSrc{v: 0})
	assert.Equal(t, 0, s.MaxTemplateLen())
}

func TestStoreMaxTemplateLenTakesLargestAcrossClasses(t *testing.T) {
	s := NewStore(4, fixedSrc{v: 0})
	s.AddUnpaired(ClassUnpaired, func() *Unpaired {
		return &Unpaired{Xscript: xscript.Transcript(strings.Repeat("=", 40))}
	})
	s.AddUnpaired(ClassBadEnd, func() *Unpaired {
		return &Unpaired{Xscript: xscript.Transcript(strings.Repeat("=", 90))}
	})
	s.AddPaired(ClassConcordant, func() *Paired { return &Paired{FragLen: 250} })
	s.AddPaired(ClassDiscordant, func() *Paired { return &Paired{FragLen: 60} })
	assert.Equal(t, 250, s.MaxTemplateLen())
}
