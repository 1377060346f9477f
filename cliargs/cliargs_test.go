package cliargs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSections(t *testing.T) {
	got := SplitSections([]string{"wiggle", "30", "--", "a.sam", "--", "ref.fa", "--", "out"})
	require.Len(t, got, 4)
	assert.Equal(t, []string{"wiggle", "30"}, got[0])
	assert.Equal(t, []string{"a.sam"}, got[1])
	assert.Equal(t, []string{"ref.fa"}, got[2])
	assert.Equal(t, []string{"out"}, got[3])
}

func TestSplitSectionsLeadingAndTrailingSeparators(t *testing.T) {
	got := SplitSections([]string{"--", "a", "--"})
	require.Len(t, got, 3)
	assert.Empty(t, got[0])
	assert.Equal(t, []string{"a"}, got[1])
	assert.Empty(t, got[2])
}

func TestParseOptionPairs(t *testing.T) {
	opts, err := ParseOptionPairs([]string{"wiggle", "30", "seed", "7"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"wiggle": "30", "seed": "7"}, opts)
}

func TestParseOptionPairsOddCountIsFatal(t *testing.T) {
	_, err := ParseOptionPairs([]string{"wiggle", "30", "seed"})
	assert.Error(t, err)
}

func TestIntFloatStringBoolDefaults(t *testing.T) {
	opts := map[string]string{"wiggle": "12", "factor": "1.5", "name": "x", "flag": "True"}

	n, err := Int(opts, "wiggle", 0)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	missing, err := Int(opts, "absent", 99)
	require.NoError(t, err)
	assert.Equal(t, 99, missing)

	f, err := Float(opts, "factor", 0)
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	assert.Equal(t, "x", String(opts, "name", "y"))
	assert.Equal(t, "y", String(opts, "absent", "y"))

	b, err := Bool(opts, "flag", false)
	require.NoError(t, err)
	assert.True(t, b)

	_, err = Bool(map[string]string{"flag": "yes"}, "flag", false)
	assert.Error(t, err)
}
