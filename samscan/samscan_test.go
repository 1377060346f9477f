package samscan

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapqtip/mapqtip/rng"
	"github.com/mapqtip/mapqtip/template"
)

func TestScannerRoutesUnpaired(t *testing.T) {
	sam := "read1\t0\tchr1\t101\t42\t10M\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\tMD:Z:10\tZT:Z:-5,1,2\n"
	var out bytes.Buffer
	sc := NewScanner(Options{EmitFeatures: true, Wiggle: 30}, &out)
	require.NoError(t, sc.Scan(strings.NewReader(sam)))
	assert.EqualValues(t, 1, sc.Counts().Unpaired)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,len,olen,ztz_0,ztz_1,ztz_2,mapq,correct", lines[0])
	assert.Equal(t, "1,10,0,-5,1,2,42,-1", lines[1])
}

func TestScannerRoutesConcordantPair(t *testing.T) {
	sam := "" +
		"p\t99\tchr1\t101\t42\t10M\t=\t191\t100\tACGTACGTAC\tIIIIIIIIII\tMD:Z:10\tZT:Z:0\n" +
		"p\t147\tchr1\t191\t42\t10M\t=\t101\t-100\tACGTACGTAC\tIIIIIIIIII\tMD:Z:10\tZT:Z:0\n"
	var out bytes.Buffer
	store := template.NewStore(10, rng.New(1))
	sc := NewScanner(Options{EmitFeatures: true, EmitTemplates: true, Store: store, Wiggle: 30, MaxAllowedFragLen: 50000}, &out)
	require.NoError(t, sc.Scan(strings.NewReader(sam)))
	assert.EqualValues(t, 1, sc.Counts().Concordant)
	assert.EqualValues(t, 1, store.NObserved(template.ClassConcordant))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,len,ztz_0,olen,fraglen,oztz_0,mapq,correct", lines[0])
}

func TestScannerRoutesBadEnd(t *testing.T) {
	sam := "" +
		"p\t73\tchr1\t101\t42\t10M\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\tMD:Z:10\tZT:Z:0\n" +
		"p\t133\t*\t0\t0\t*\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\n"
	sc := NewScanner(Options{Wiggle: 30}, nil)
	require.NoError(t, sc.Scan(strings.NewReader(sam)))
	assert.EqualValues(t, 1, sc.Counts().BadEnd)
}

func TestScannerDropsUnalignedPair(t *testing.T) {
	sam := "" +
		"p\t77\t*\t0\t0\t*\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\n" +
		"p\t141\t*\t0\t0\t*\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\n"
	sc := NewScanner(Options{}, nil)
	require.NoError(t, sc.Scan(strings.NewReader(sam)))
	assert.EqualValues(t, 1, sc.Counts().UnalPairDropped)
}

func TestScannerCountsSecondary(t *testing.T) {
	sam := "read1\t2048\tchr1\t101\t42\t*\t*\t0\t0\t*\t*\n"
	sc := NewScanner(Options{}, nil)
	require.NoError(t, sc.Scan(strings.NewReader(sam)))
	assert.EqualValues(t, 1, sc.Counts().SecondarySkipped)
}

func TestScannerSecondaryBetweenPairMatesDoesNotBreakPairing(t *testing.T) {
	// A secondary/supplementary record lands between a pair's two mates.
	// It must not perturb the pairing lookback: the real pair still has
	// to route to concordant.
	sam := "" +
		"p\t99\tchr1\t101\t42\t10M\t=\t191\t100\tACGTACGTAC\tIIIIIIIIII\tMD:Z:10\tZT:Z:0\n" +
		"other\t2048\tchr1\t150\t42\t10M\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\n" +
		"p\t147\tchr1\t191\t42\t10M\t=\t101\t-100\tACGTACGTAC\tIIIIIIIIII\tMD:Z:10\tZT:Z:0\n"
	sc := NewScanner(Options{Wiggle: 30, MaxAllowedFragLen: 50000}, nil)
	require.NoError(t, sc.Scan(strings.NewReader(sam)))
	assert.EqualValues(t, 1, sc.Counts().SecondarySkipped)
	assert.EqualValues(t, 1, sc.Counts().Concordant)
	assert.EqualValues(t, 0, sc.Counts().UnalPairDropped)
}

func TestScannerRequiresZTZWhenFeaturesRequested(t *testing.T) {
	sam := "read1\t0\tchr1\t101\t42\t10M\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\tMD:Z:10\n"
	var out bytes.Buffer
	sc := NewScanner(Options{EmitFeatures: true}, &out)
	err := sc.Scan(strings.NewReader(sam))
	assert.Error(t, err)
}
