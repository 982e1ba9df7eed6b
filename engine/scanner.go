package engine

import (
	"strconv"

	"github.com/lookbusy1344/ndiff/numlex"
	"github.com/lookbusy1344/ndiff/rule"
)

func byteAt(buf []byte, pos int) byte {
	if pos < 0 || pos >= len(buf) {
		return 0
	}
	return buf[pos]
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

// formatReg renders a register value the way a gotoNum tag is built from
// one: %g form with 17 significant digits, enough to round-trip any double
// (not the shortest such form).
func formatReg(v float64) string {
	return strconv.FormatFloat(v, 'g', 17, 64)
}

// parseLen reports how many bytes the number starting at pos occupies,
// without testing it against anything; used to step over a number sitting
// in a column the active rule doesn't admit.
func parseLen(buf []byte, pos int) int {
	n := numlex.Parse(buf, pos)
	if n.Length == 0 {
		return 1
	}
	return n.Length
}

// skipIdentifier advances lhsPos and/or rhsPos past a run of non-separator
// characters. In strict mode both cursors must keep agreeing byte-for-byte
// and both advance together; in loose mode each advances independently.
func (s *State) skipIdentifier(strict bool, advanceLhs, advanceRhs bool) {
	if strict {
		for {
			lc := byteAt(s.lhsBuf, s.lhsPos)
			rc := byteAt(s.rhsBuf, s.rhsPos)
			if lc != rc || numlex.IsSeparator(lc, "") {
				break
			}
			s.lhsPos++
			s.rhsPos++
		}
		return
	}
	if advanceLhs {
		for !numlex.IsSeparator(byteAt(s.lhsBuf, s.lhsPos), "") {
			s.lhsPos++
		}
	}
	if advanceRhs {
		for !numlex.IsSeparator(byteAt(s.rhsBuf, s.rhsPos), "") {
			s.rhsPos++
		}
	}
}

// isValidOmit reports whether the text immediately preceding lhsPos/rhsPos
// both end with tag, the condition an Omit rule uses to decide that the
// identifier just matched is the one it names rather than a coincidence.
func (s *State) isValidOmit(lhsPos, rhsPos int, tag string) bool {
	for i := len(tag) - 1; i >= 0; i-- {
		lhsPos--
		rhsPos--
		if lhsPos < 0 || rhsPos < 0 {
			return false
		}
		if tag[i] != s.lhsBuf[lhsPos] || tag[i] != s.rhsBuf[rhsPos] {
			return false
		}
	}
	return true
}

// NextNum advances both cursors to the next pair of numbers admitted for
// comparison (or to end of line), reporting the 1-based number column it
// landed on, or 0 once the line is exhausted. A genuine textual mismatch
// found along the way is reported through r.Cmd's NoFail/OnFail directives
// and also ends the scan with 0, just like end of line.
func (s *State) NextNum(r *rule.Rule) int {
	if s.Trace != nil {
		s.Trace.Printf("->nextNum  line %d, column %d, char-column %d|%d", s.row, s.col, s.lhsPos, s.rhsPos)
	}

	if s.IsEmpty() {
		return s.quitStr()
	}

retry:
	for {
		if r.Cmd.Has(rule.IStr) {
			for byteAt(s.lhsBuf, s.lhsPos) != 0 && !numlex.IsDigit(byteAt(s.lhsBuf, s.lhsPos)) {
				s.lhsPos++
			}
			for byteAt(s.rhsBuf, s.rhsPos) != 0 && !numlex.IsDigit(byteAt(s.rhsBuf, s.rhsPos)) {
				s.rhsPos++
			}
		} else {
			for byteAt(s.lhsBuf, s.lhsPos) != 0 &&
				byteAt(s.lhsBuf, s.lhsPos) == byteAt(s.rhsBuf, s.rhsPos) &&
				!numlex.IsDigit(byteAt(s.lhsBuf, s.lhsPos)) {
				s.lhsPos++
				s.rhsPos++
			}

			if s.opt.Blank && (isBlank(byteAt(s.lhsBuf, s.lhsPos)) || isBlank(byteAt(s.rhsBuf, s.rhsPos))) {
				for isBlank(byteAt(s.lhsBuf, s.lhsPos)) {
					s.lhsPos++
				}
				for isBlank(byteAt(s.rhsBuf, s.rhsPos)) {
					s.rhsPos++
				}
				continue retry
			}
		}

		lc := byteAt(s.lhsBuf, s.lhsPos)
		rc := byteAt(s.rhsBuf, s.rhsPos)

		if lc == 0 && rc == 0 {
			return s.quitStr()
		}

		if lc != rc && (!numlex.LooksLikeNumber(s.lhsBuf, s.lhsPos) || !numlex.LooksLikeNumber(s.rhsBuf, s.rhsPos)) {
			return s.quitDiff(r)
		}

		s.lhsPos = numlex.Backtrack(s.lhsBuf, s.lhsPos)
		s.rhsPos = numlex.Backtrack(s.rhsBuf, s.rhsPos)

		if s.Trace != nil {
			s.Trace.Printf("  backtracking numbers '%.25s'|'%.25s'", s.lhsBuf[s.lhsPos:], s.rhsBuf[s.rhsPos:])
		}

		lhsStart := numlex.IsNumberStart(s.lhsBuf, s.lhsPos, "")
		rhsStart := numlex.IsNumberStart(s.rhsBuf, s.rhsPos, "")

		if !lhsStart || !rhsStart {
			if r.Cmd.Has(rule.IStr) {
				s.skipIdentifier(false, !lhsStart, !rhsStart)
			} else {
				strict := true
				if r.Cmd.Has(rule.Omit) {
					strict = !s.isValidOmit(s.lhsPos, s.rhsPos, r.Tag)
				}
				s.skipIdentifier(strict, true, true)
			}
			continue retry
		}

		s.numI++
		s.col++
		if s.Trace != nil {
			s.Trace.Printf("  strnums: '%.25s'|'%.25s'", s.lhsBuf[s.lhsPos:], s.rhsBuf[s.rhsPos:])
			s.Trace.Printf("<-nextNum  line %d, column %d, char-column %d|%d", s.row, s.col, s.lhsPos, s.rhsPos)
		}
		return s.col
	}
}

func (s *State) quitDiff(r *rule.Rule) int {
	if !r.Cmd.Has(rule.NoFail) {
		s.cntI++
		if s.cntI <= s.opt.MaxKept && s.Warn != nil {
			s.Warn.Printf("(%d) files differ at line %d and char-columns %d|%d", s.cntI, s.row, s.lhsPos+1, s.rhsPos+1)
			s.Warn.Printf("(%d) strings: '%.25s'|'%.25s'", s.cntI, s.lhsBuf[s.lhsPos:], s.rhsBuf[s.rhsPos:])
		}
	}
	if r.Cmd.Has(rule.OnFail) {
		s.Cxt.OnFail(r)
	}
	return s.quitStr()
}

func (s *State) quitStr() int {
	s.lhsPos++
	s.rhsPos++
	if s.Trace != nil {
		s.Trace.Printf("<-nextNum  line %d, column %d, char-column %d|%d", s.row, 0, s.lhsPos, s.rhsPos)
	}
	s.col = 0
	return 0
}
