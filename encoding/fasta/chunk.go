package fasta

import (
	"bufio"
	"context"
	"io"

	"github.com/grailbio/base/file"
	"github.com/pkg/errors"
)

// fastaBufSize is the size of the per-file read buffer.  Chosen to match
// the range this system otherwise reads in (64 KiB - 256 KiB).
const fastaBufSize = 128 * 1024

// upperTable maps any byte to its upper-cased base, with every non-ACGT
// (lower or upper case) byte, including IUPAC ambiguity codes, collapsing
// to 'N'.
var upperTable = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = 'N'
	}
	t['A'], t['a'] = 'A', 'A'
	t['C'], t['c'] = 'C', 'C'
	t['G'], t['g'] = 'G', 'G'
	t['T'], t['t'] = 'T', 'T'
	return t
}()

// Window is one fixed-size stretch of upper-cased reference sequence.  Buf
// is a borrowed view into the reader's internal buffer: it is only valid
// until the next call to (*ChunkReader).Next.
type Window struct {
	// RefID is the first whitespace-delimited token of the defline that
	// introduced this reference, e.g. "chr7" for ">chr7 some comment".
	RefID string
	// RefIDFull is the entire defline, comment included.
	RefIDFull string
	// RefOff is the 0-based offset of Buf[0] within RefID.
	RefOff uint64
	// Buf holds up to chunkSize upper-cased ACGT/N bytes.  Its length may
	// be less than chunkSize for the final window of a reference.
	Buf []byte
}

// fileChain concatenates a sequence of files into a single byte stream,
// opening each lazily and closing it as soon as it is exhausted.  This is
// what lets ChunkReader treat "one or more multi-FASTA files" (spec §4.5)
// as one continuous input without the caller pre-concatenating them.
type fileChain struct {
	ctx   context.Context
	paths []string
	next  int
	cur   file.File
	br    *bufio.Reader
}

func newFileChain(ctx context.Context, paths []string) *fileChain {
	return &fileChain{ctx: ctx, paths: paths}
}

func (c *fileChain) advance() error {
	if c.cur != nil {
		err := c.cur.Close(c.ctx)
		c.cur = nil
		c.br = nil
		if err != nil {
			return err
		}
	}
	if c.next >= len(c.paths) {
		return io.EOF
	}
	f, err := file.Open(c.ctx, c.paths[c.next])
	if err != nil {
		return errors.Wrapf(err, "fasta: couldn't open %s", c.paths[c.next])
	}
	c.next++
	c.cur = f
	c.br = bufio.NewReaderSize(f.Reader(c.ctx), fastaBufSize)
	return nil
}

// ReadByte returns the next byte in the concatenated stream, transparently
// moving on to the next file when the current one is exhausted.
func (c *fileChain) ReadByte() (byte, error) {
	for {
		if c.br == nil {
			if err := c.advance(); err != nil {
				return 0, err
			}
		}
		b, err := c.br.ReadByte()
		if err == io.EOF {
			if aerr := c.advance(); aerr != nil {
				return 0, aerr
			}
			continue
		}
		if err != nil {
			return 0, err
		}
		return b, nil
	}
}

// UnreadByte pushes back the last byte read from the current file. It is
// only ever called immediately after a matching ReadByte, so it never needs
// to cross a file boundary.
func (c *fileChain) UnreadByte() error {
	if c.br == nil {
		return errors.New("fasta: UnreadByte with no open file")
	}
	return c.br.UnreadByte()
}

func (c *fileChain) Close() error {
	if c.cur == nil {
		return nil
	}
	err := c.cur.Close(c.ctx)
	c.cur, c.br = nil, nil
	return err
}

// ChunkReader yields fixed-size, overlapping windows over one or more
// multi-FASTA files, one reference at a time. Consecutive windows within a
// reference overlap by exactly Overlap bases; the overlap is not carried
// across a reference boundary. See spec §4.5 and the corresponding
// FastaChunkwiseParser in the original qsim sources: this reader reproduces
// its single-byte-pushback design using bufio's built-in UnreadByte instead
// of a hand-rolled sentinel.
type ChunkReader struct {
	src        *fileChain
	chunkSize  int
	overlap    int
	buf        []byte
	refID      string
	refIDFull  string
	refOff     uint64
	haveRef    bool
	freshRef   bool
	deflineBuf []byte
}

// NewChunkReader constructs a ChunkReader over paths, yielding windows of
// chunkSize bytes that overlap successive windows within a reference by
// overlap bytes. chunkSize must be greater than overlap.
func NewChunkReader(ctx context.Context, paths []string, chunkSize, overlap int) (*ChunkReader, error) {
	if chunkSize <= overlap {
		return nil, errors.New("fasta: chunkSize must exceed overlap")
	}
	return &ChunkReader{
		src:       newFileChain(ctx, paths),
		chunkSize: chunkSize,
		overlap:   overlap,
		buf:       make([]byte, chunkSize),
		freshRef:  true,
	}, nil
}

// Close releases the currently open input file, if any.
func (c *ChunkReader) Close() error {
	return c.src.Close()
}

// Next returns the next window. The second return value is false once every
// reference in every input file has been exhausted.
func (c *ChunkReader) Next() (Window, bool, error) {
	if !c.haveRef {
		found, err := c.scanToNextDefline()
		if err != nil {
			return Window{}, false, err
		}
		if !found {
			return Window{}, false, nil
		}
	}

	start := 0
	if !c.freshRef {
		copy(c.buf[:c.overlap], c.buf[c.chunkSize-c.overlap:c.chunkSize])
		start = c.overlap
	}

	n := start
	endOfRef := false
	for n < c.chunkSize {
		b, err := c.src.ReadByte()
		if err == io.EOF {
			endOfRef = true
			break
		}
		if err != nil {
			return Window{}, false, err
		}
		if b == '\n' || b == '\r' {
			continue
		}
		if b == '>' {
			if uerr := c.src.UnreadByte(); uerr != nil {
				return Window{}, false, uerr
			}
			endOfRef = true
			break
		}
		c.buf[n] = upperTable[b]
		n++
	}

	w := Window{
		RefID:     c.refID,
		RefIDFull: c.refIDFull,
		RefOff:    c.refOff,
		Buf:       c.buf[:n],
	}

	if endOfRef {
		c.haveRef = false
		c.freshRef = true
	} else {
		c.refOff += uint64(c.chunkSize - c.overlap)
		c.freshRef = false
	}
	return w, true, nil
}

// scanToNextDefline consumes bytes up to and including the next '>', then
// reads the rest of that line as the new reference's defline. It returns
// false (with a nil error) once the input is exhausted.
func (c *ChunkReader) scanToNextDefline() (bool, error) {
	for {
		b, err := c.src.ReadByte()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if b == '>' {
			break
		}
	}
	c.deflineBuf = c.deflineBuf[:0]
	for {
		b, err := c.src.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, err
		}
		if b == '\n' {
			break
		}
		if b == '\r' {
			continue
		}
		c.deflineBuf = append(c.deflineBuf, b)
	}
	c.refIDFull = string(c.deflineBuf)
	c.refID = c.refIDFull
	for i, ch := range c.refIDFull {
		if ch == ' ' || ch == '\t' {
			c.refID = c.refIDFull[:i]
			break
		}
	}
	c.refOff = 0
	c.haveRef = true
	c.freshRef = true
	return true, nil
}
