package xscript

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCigar(t *testing.T, s string) sam.Cigar {
	t.Helper()
	c, err := sam.ParseCigar([]byte(s))
	require.NoError(t, err)
	return c
}

// TestDecodeInsertionNoMismatch reproduces spec.md §8 scenario (c).
func TestDecodeInsertionNoMismatch(t *testing.T) {
	x, err := Decode(mustCigar(t, "3M1I2M"), "5", true)
	require.NoError(t, err)
	assert.Equal(t, "===I==", x.String())
	assert.Equal(t, 5, x.LenOnRef())
}

// TestDecodeSingleMismatch reproduces spec.md §8 scenario (d).
func TestDecodeSingleMismatch(t *testing.T) {
	x, err := Decode(mustCigar(t, "4M"), "2A1", true)
	require.NoError(t, err)
	assert.Equal(t, "==X=", x.String())
	assert.Equal(t, 4, x.LenOnRef())
	assert.Equal(t, byte(OpMismatch), x[2])
}

func TestDecodeExtendedCigar(t *testing.T) {
	x, err := Decode(mustCigar(t, "3=1X2="), "", false)
	require.NoError(t, err)
	assert.Equal(t, "===X==", x.String())
}

func TestDecodeExtendedCigarRejectsBareM(t *testing.T) {
	_, err := Decode(mustCigar(t, "3=1M"), "", false)
	assert.Error(t, err)
}

func TestDecodeMissingBoth(t *testing.T) {
	_, err := Decode(mustCigar(t, "10M"), "", false)
	assert.Error(t, err)
}

func TestDecodeDeletion(t *testing.T) {
	x, err := Decode(mustCigar(t, "3M2D3M"), "3^AC3", true)
	require.NoError(t, err)
	assert.Equal(t, "===DD===", x.String())
	assert.Equal(t, 8, x.LenOnRef())
	assert.Equal(t, 6, x.LenOnRead())
}

func TestDecodeDeletionLengthMismatch(t *testing.T) {
	_, err := Decode(mustCigar(t, "3M2D3M"), "3^A3", true)
	assert.Error(t, err)
}

func TestDecodeSoftClip(t *testing.T) {
	x, err := Decode(mustCigar(t, "2S6M2S"), "6", true)
	require.NoError(t, err)
	assert.Equal(t, "SS======SS", x.String())
	assert.Equal(t, 10, x.LenOnRef())
	assert.Equal(t, 10, x.LenOnRead())
}

func TestDecodeUnconsumedMD(t *testing.T) {
	_, err := Decode(mustCigar(t, "3M"), "3A2", true)
	assert.Error(t, err)
}

func TestDecodeSkip(t *testing.T) {
	x, err := Decode(mustCigar(t, "3M100N3M"), "6", true)
	require.NoError(t, err)
	assert.Equal(t, "===NNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNN===", x.String())
	assert.Equal(t, 106, x.LenOnRef())
	assert.Equal(t, 6, x.LenOnRead())
}
