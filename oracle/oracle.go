// Package oracle implements the correctness oracle: given an aligned
// record and its read name, decide whether the alignment landed where the
// simulator (or, as a fallback, wgsim) placed the read. See spec.md §4.7
// and the truth-checking scripts under original_source/bin/simtests/.
package oracle

import (
	"strconv"
	"strings"
)

// Prefix and Sep must match the values the simulate package encodes read
// names with (spec.md §9's "must be kept coordinated" note).
const (
	Prefix = "qsim!"
	Sep    = ":"
)

// Unknown is returned when a read name matches neither the simulator's own
// convention nor the wgsim fallback.
const Unknown = -1

// Evaluate scores a single (unpaired, or bad-end aligned mate) alignment
// against the truth encoded in qname. pos is 1-based SAM POS; fw is
// whether the alignment reported the forward strand.
func Evaluate(qname, rname string, pos int, fw bool, wiggle int) int {
	if t, ok := parseSim(qname); ok {
		return t.score(rname, pos, fw, wiggle)
	}
	if t, ok := parseWgsim(qname); ok {
		return t.score(false, rname, pos, fw, wiggle)
	}
	return Unknown
}

// EvaluatePair scores one mate of a pair. isMate2 selects which truth
// tuple (simulator) or fragment end (wgsim) applies.
func EvaluatePair(qname, rname string, pos int, fw, isMate2 bool, wiggle int) int {
	if t, ok := parseSimPair(qname); ok {
		tt := t.mate1
		if isMate2 {
			tt = t.mate2
		}
		return tt.score(rname, pos, fw, wiggle)
	}
	if t, ok := parseWgsim(qname); ok {
		return t.score(isMate2, rname, pos, fw, wiggle)
	}
	return Unknown
}

// simTruth is one refid:strand:refoff:score tuple from a qsim!-style read
// name.
type simTruth struct {
	refID  string
	fw     bool
	refOff int
}

func (t simTruth) score(rname string, pos int, fw bool, wiggle int) int {
	if rname != t.refID || fw != t.fw {
		return 0
	}
	diff := (pos - 1) - t.refOff
	if diff < 0 {
		diff = -diff
	}
	if diff < wiggle {
		return 1
	}
	return 0
}

// parseSim parses "qsim!:refid:(+|-):refoff:score:typ" (unpaired form).
func parseSim(qname string) (simTruth, bool) {
	if !strings.HasPrefix(qname, Prefix+Sep) {
		return simTruth{}, false
	}
	parts := strings.Split(qname, Sep)
	// Prefix, refid, strand, refoff, score, typ
	if len(parts) != 6 {
		return simTruth{}, false
	}
	return parseTuple(parts[1:5])
}

type simPairTruth struct {
	mate1, mate2 simTruth
}

// parseSimPair parses "qsim!:refid1:strand1:refoff1:score1:refid2:strand2:refoff2:score2:typ".
func parseSimPair(qname string) (simPairTruth, bool) {
	if !strings.HasPrefix(qname, Prefix+Sep) {
		return simPairTruth{}, false
	}
	parts := strings.Split(qname, Sep)
	if len(parts) != 10 {
		return simPairTruth{}, false
	}
	m1, ok := parseTuple(parts[1:5])
	if !ok {
		return simPairTruth{}, false
	}
	m2, ok := parseTuple(parts[5:9])
	if !ok {
		return simPairTruth{}, false
	}
	return simPairTruth{mate1: m1, mate2: m2}, true
}

func parseTuple(fields []string) (simTruth, bool) {
	refid, strand, refoffStr := fields[0], fields[1], fields[2]
	refoff, err := strconv.Atoi(refoffStr)
	if err != nil {
		return simTruth{}, false
	}
	var fw bool
	switch strand {
	case "+":
		fw = true
	case "-":
		fw = false
	default:
		return simTruth{}, false
	}
	return simTruth{refID: refid, fw: fw, refOff: refoff}, true
}

// wgsimTruth holds the fragment boundaries, per-mate read lengths, and flip
// bit of a wgsim-style name: "refid_start_end_..._len1_len2_flip_id/{1,2}".
type wgsimTruth struct {
	refID      string
	start, end int // 1-based, inclusive
	len1, len2 int
	flip       bool
}

func (t wgsimTruth) score(isMate2 bool, rname string, pos int, fw bool, wiggle int) int {
	if rname != t.refID {
		return 0
	}
	mate1 := !isMate2
	useLeftEnd := mate1 != t.flip
	var expected0 int
	if useLeftEnd {
		expected0 = t.start - 1
	} else {
		length := t.len1
		if isMate2 {
			length = t.len2
		}
		expected0 = t.end - length
	}
	diff := (pos - 1) - expected0
	if diff < 0 {
		diff = -diff
	}
	_ = fw // wgsim names don't encode strand directly; only position is checked
	return boolToInt(diff < wiggle)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseWgsim parses "refid_start_end_..._len1_len2_flip_id/{1,2}", e.g.
// "11_25006153_25006410_0:0:0_0:0:0_100_100_1_1/1". refid, start, and end
// are the first three underscore-delimited fields; len1, len2, and flip are
// the fourth, third, and second from the end, followed by a trailing id
// field. Middle fields (per-mate edit-distance breakdowns) are ignored.
// Requires at least 8 underscores and exactly 4 colons, matching wgsim's
// own read-name shape.
func parseWgsim(qname string) (wgsimTruth, bool) {
	name := qname
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[:i]
	}
	if strings.Count(name, ":") != 4 {
		return wgsimTruth{}, false
	}
	fields := strings.Split(name, "_")
	if len(fields) < 9 {
		return wgsimTruth{}, false
	}
	start, err := strconv.Atoi(fields[1])
	if err != nil {
		return wgsimTruth{}, false
	}
	end, err := strconv.Atoi(fields[2])
	if err != nil {
		return wgsimTruth{}, false
	}
	len1, err := strconv.Atoi(fields[len(fields)-4])
	if err != nil {
		return wgsimTruth{}, false
	}
	len2, err := strconv.Atoi(fields[len(fields)-3])
	if err != nil {
		return wgsimTruth{}, false
	}
	flip := fields[len(fields)-2] == "1"
	return wgsimTruth{refID: fields[0], start: start, end: end, len1: len1, len2: len2, flip: flip}, true
}
