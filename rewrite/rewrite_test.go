package rewrite

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapqtip/mapqtip/predmerge"
)

func predReader(t *testing.T, recs []predmerge.Record) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	for _, r := range recs {
		require.NoError(t, predmerge.WriteRecord(&buf, r))
	}
	return &buf
}

func TestRewriteSubstitutesMapqAndStripsZTZ(t *testing.T) {
	sam := strings.Join([]string{
		"@HD\tVN:1.6",
		"r1\t0\tchr1\t100\t30\t4M\t*\t0\t0\tACGT\tIIII\tZT:Z:1,2\tMD:Z:4",
		"r2\t0\tchr1\t200\t40\t4M\t*\t0\t0\tACGT\tIIII\tZT:Z:3,4\tMD:Z:4",
	}, "\n") + "\n"

	m, err := predmerge.NewMerger([]io.Reader{predReader(t, []predmerge.Record{{Line: 1, MapQ: 17.4}, {Line: 2, MapQ: 5.6}})})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Rewrite(strings.NewReader(sam), m, &out, Options{}))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "@HD\tVN:1.6", lines[0])
	assert.Equal(t, "r1\t0\tchr1\t100\t17\t4M\t*\t0\t0\tACGT\tIIII\tMD:Z:4", lines[1])
	assert.Equal(t, "r2\t0\tchr1\t200\t6\t4M\t*\t0\t0\tACGT\tIIII\tMD:Z:4", lines[2])
}

func TestRewriteKeepsZTZWhenRequested(t *testing.T) {
	sam := "r1\t0\tchr1\t100\t30\t4M\t*\t0\t0\tACGT\tIIII\tZT:Z:1,2\n"
	m, err := predmerge.NewMerger([]io.Reader{predReader(t, []predmerge.Record{{Line: 1, MapQ: 9}})})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Rewrite(strings.NewReader(sam), m, &out, Options{KeepZTZ: true}))
	assert.Equal(t, "r1\t0\tchr1\t100\t9\t4M\t*\t0\t0\tACGT\tIIII\tZT:Z:1,2\n", out.String())
}

func TestRewriteAppendsProvenanceTags(t *testing.T) {
	sam := "r1\t0\tchr1\t100\t30\t4M\t*\t0\t0\tACGT\tIIII\n"
	m, err := predmerge.NewMerger([]io.Reader{predReader(t, []predmerge.Record{{Line: 1, MapQ: 12.345}})})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Rewrite(strings.NewReader(sam), m, &out, Options{WriteOrigMapq: true, WritePreciseMapq: true}))
	assert.Equal(t, "r1\t0\tchr1\t100\t12\t4M\t*\t0\t0\tACGT\tIIII\tZm:i:30\tZp:Z:12.345\n", out.String())
}

func TestRewritePassesThroughAfterPredictionsExhausted(t *testing.T) {
	sam := strings.Join([]string{
		"r1\t0\tchr1\t100\t30\t4M\t*\t0\t0\tACGT\tIIII",
		"r2\t0\tchr1\t200\t40\t4M\t*\t0\t0\tACGT\tIIII",
	}, "\n") + "\n"
	m, err := predmerge.NewMerger([]io.Reader{predReader(t, []predmerge.Record{{Line: 1, MapQ: 1}})})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Rewrite(strings.NewReader(sam), m, &out, Options{}))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "r2\t0\tchr1\t200\t40\t4M\t*\t0\t0\tACGT\tIIII", lines[1])
}

func TestRewriteFatalWhenSamEndsBeforePredictions(t *testing.T) {
	sam := "r1\t0\tchr1\t100\t30\t4M\t*\t0\t0\tACGT\tIIII\n"
	m, err := predmerge.NewMerger([]io.Reader{predReader(t, []predmerge.Record{{Line: 1, MapQ: 1}, {Line: 5, MapQ: 2}})})
	require.NoError(t, err)

	var out bytes.Buffer
	err = Rewrite(strings.NewReader(sam), m, &out, Options{})
	assert.Error(t, err)
}
