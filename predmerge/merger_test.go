package predmerge

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, recs []Record) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	for _, r := range recs {
		require.NoError(t, WriteRecord(&buf, r))
	}
	return &buf
}

func TestMergerOrdersByLine(t *testing.T) {
	// spec.md §8 scenario b.
	a := encode(t, []Record{{0, 10}, {2, 20}, {3, 30}, {10, 11}, {12, 1}})
	b := encode(t, []Record{{1, 17}, {4, 27}, {6, 37}, {11, 47}, {14, 17}, {15, 18}})

	m, err := NewMerger([]io.Reader{a, b})
	require.NoError(t, err)

	var lines []uint64
	for {
		rec, ok, err := m.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		lines = append(lines, rec.Line)
	}
	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 6, 10, 11, 12, 14, 15}, lines)
}

func TestMergerEmptyYieldsNothing(t *testing.T) {
	m, err := NewMerger(nil)
	require.NoError(t, err)
	_, ok, err := m.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMergerSingleFileYieldsAllRecords(t *testing.T) {
	a := encode(t, []Record{{0, 1}, {1, 2}, {2, 3}})
	m, err := NewMerger([]io.Reader{a})
	require.NoError(t, err)
	count := 0
	for {
		_, ok, err := m.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 3, count)
}

func TestRecordRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecord(&buf, Record{Line: 42, MapQ: 17.5}))
	rec, err := ReadRecord(&buf)
	require.NoError(t, err)
	assert.Equal(t, Record{Line: 42, MapQ: 17.5}, rec)
}
