package align

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, line string) *Record {
	t.Helper()
	r := &Record{}
	require.NoError(t, Decode([]byte(line), r))
	return r
}

func TestDecodeUnpairedAligned(t *testing.T) {
	r := decodeLine(t, "read1\t0\tchr1\t101\t42\t10M\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\tMD:Z:10\tZT:Z:-5,1,2")
	assert.True(t, r.Aligned())
	assert.False(t, r.Paired())
	assert.False(t, r.Secondary())
	assert.Equal(t, "==========", r.Xscript.String())
	assert.Equal(t, -5, r.BestScore)
	assert.True(t, r.HasScore)
	assert.Equal(t, 101, r.LPos())
	assert.Equal(t, 110, r.RPos())
}

func TestDecodeSoftClippedGeometry(t *testing.T) {
	r := decodeLine(t, "read2\t0\tchr1\t101\t42\t3S6M3S\t*\t0\t0\tACGTACGTACG\tIIIIIIIIIII\tMD:Z:6\tZT:Z:0")
	assert.Equal(t, 3, r.LeftClip)
	assert.Equal(t, 3, r.RightClip)
	assert.Equal(t, 98, r.LPos())
	assert.Equal(t, 109, r.RPos())
}

func TestDecodeSecondaryIsSkippedButNotFatal(t *testing.T) {
	r := decodeLine(t, "read3\t2048\tchr1\t101\t42\t*\t*\t0\t0\t*\t*")
	assert.True(t, r.Secondary())
	assert.True(t, r.Valid())
}

func TestDecodeRequiresCigarOrMD(t *testing.T) {
	r := &Record{}
	err := Decode([]byte("read4\t0\tchr1\t101\t42\t10M\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII"), r)
	assert.Error(t, err)
}

func TestDecodeUnalignedNeedsNoTranscript(t *testing.T) {
	r := decodeLine(t, "read5\t4\t*\t0\t0\t*\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII")
	assert.True(t, r.Unmapped())
	assert.Empty(t, r.Xscript)
}

func TestFragmentLengthIgnoresTLEN(t *testing.T) {
	m1 := decodeLine(t, "p\t99\tchr1\t101\t42\t10M\t=\t191\t100\tACGTACGTAC\tIIIIIIIIII\tMD:Z:10\tZT:Z:0")
	m2 := decodeLine(t, "p\t147\tchr1\t191\t42\t10M\t=\t101\t-100\tACGTACGTAC\tIIIIIIIIII\tMD:Z:10\tZT:Z:0")
	m2.Flags |= sam.Reverse
	assert.Equal(t, 100, FragmentLength(m1, m2))
}
