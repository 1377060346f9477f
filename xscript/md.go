package xscript

import (
	"strconv"

	"github.com/grailbio/base/errors"
)

type mdRunKind int

const (
	mdMatch mdRunKind = iota
	mdMismatch
	mdDeletion
)

type mdRun struct {
	kind mdRunKind
	n    int
}

func isBaseChar(c byte) bool {
	switch c {
	case 'A', 'C', 'G', 'T', 'N', 'a', 'c', 'g', 't', 'n':
		return true
	}
	return false
}

// parseMD decomposes an MD:Z value into an ordered sequence of match,
// mismatch and deletion runs, per spec.md §4.1's input model. Each mismatch
// base is its own length-1 run; a deletion run's length is the number of
// bases following '^'.
func parseMD(md string) ([]mdRun, error) {
	var runs []mdRun
	i := 0
	for i < len(md) {
		c := md[i]
		switch {
		case c >= '0' && c <= '9':
			j := i
			for j < len(md) && md[j] >= '0' && md[j] <= '9' {
				j++
			}
			n, err := strconv.Atoi(md[i:j])
			if err != nil {
				return nil, errors.E(err, "xscript: malformed MD:Z run length", md)
			}
			runs = append(runs, mdRun{mdMatch, n})
			i = j
		case c == '^':
			j := i + 1
			for j < len(md) && isBaseChar(md[j]) {
				j++
			}
			if j == i+1 {
				return nil, errors.E("xscript: empty MD:Z deletion run", md)
			}
			runs = append(runs, mdRun{mdDeletion, j - i - 1})
			i = j
		case isBaseChar(c):
			runs = append(runs, mdRun{mdMismatch, 1})
			i++
		default:
			return nil, errors.E("xscript: invalid character in MD:Z", md)
		}
	}
	return runs, nil
}

// mdCursor walks a parsed MD:Z run list left to right, splitting match runs
// that extend past a CIGAR M operation (spec.md §4.1).
type mdCursor struct {
	runs []mdRun
	idx  int
	rem  int
}

func newMDCursor(runs []mdRun) *mdCursor {
	c := &mdCursor{runs: runs}
	if len(runs) > 0 {
		c.rem = runs[0].n
	}
	return c
}

func (c *mdCursor) done() bool { return c.idx >= len(c.runs) }

func (c *mdCursor) advance() {
	c.idx++
	if c.idx < len(c.runs) {
		c.rem = c.runs[c.idx].n
	}
}

// consumeMatch consumes exactly n reference positions' worth of match and
// mismatch runs from the cursor, appending '=' or 'X' as appropriate,
// splitting the current match run if it extends past n.
func (c *mdCursor) consumeMatch(n int, t *Transcript) error {
	for n > 0 {
		if c.done() {
			return errors.E("xscript: MD:Z exhausted mid-CIGAR-M-run")
		}
		kind := c.runs[c.idx].kind
		if kind == mdDeletion {
			return errors.E("xscript: unexpected MD:Z deletion run inside CIGAR M")
		}
		take := c.rem
		if take > n {
			take = n
		}
		ch := OpMatch
		if kind == mdMismatch {
			ch = OpMismatch
		}
		*t = appendRun(*t, ch, take)
		c.rem -= take
		n -= take
		if c.rem == 0 {
			c.advance()
		}
	}
	return nil
}

// consumeDeletion consumes exactly one deletion run, requiring its length
// to equal n (the CIGAR D run length), per spec.md §4.1.
func (c *mdCursor) consumeDeletion(n int) error {
	if c.done() {
		return errors.E("xscript: MD:Z exhausted at CIGAR D")
	}
	if c.runs[c.idx].kind != mdDeletion {
		return errors.E("xscript: expected MD:Z deletion run at CIGAR D")
	}
	if c.rem != n {
		return errors.E("xscript: MD:Z deletion run length does not match CIGAR D run")
	}
	c.advance()
	return nil
}
