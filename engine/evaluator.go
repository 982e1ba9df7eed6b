package engine

import (
	"math"
	"strconv"

	"github.com/lookbusy1344/ndiff/numlex"
	"github.com/lookbusy1344/ndiff/register"
	"github.com/lookbusy1344/ndiff/rule"
)

func imax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func pow10(k int) float64 { return math.Pow(10, float64(k)) }

func resolveOverride(reg *register.File, regIdx int, useLiteral bool, literal, parsed float64) float64 {
	fallback := parsed
	if useLiteral {
		fallback = literal
	}
	return reg.Get(regIdx, fallback)
}

// TestNum parses and judges the number pair at the current cursor position
// against r, advancing both cursors past the literals it consumed. The
// returned Flags is 0 on a match (or on an Ign/Omit pass); otherwise it
// names every tolerance axis ("Equ", "Abs", "Rel", "Dig") that rejected the
// pair, plus "Ign" if one side was missing a number entirely.
func (s *State) TestNum(r *rule.Rule) rule.Flags {
	if s.Trace != nil {
		s.Trace.Printf("->testNum  line %d, column %d, char-column %d|%d", s.row, s.col, s.lhsPos, s.rhsPos)
	}

	lhsNum := numlex.Parse(s.lhsBuf, s.lhsPos)
	rhsNum := numlex.Parse(s.rhsBuf, s.rhsPos)

	var ret rule.Flags

	if lhsNum.Length == 0 || rhsNum.Length == 0 {
		if r.Cmd.Has(rule.Ign) && r.Cmd.Has(rule.IStr) {
			s.save(r, 0, 0, 0, 0, 0, 0, 0, 0, 0, lhsNum, rhsNum)
			return 0
		}
		ret |= rule.Ign
		s.reportDiff(r, ret, lhsNum, rhsNum, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
		if r.Cmd.Has(rule.OnFail) {
			s.Cxt.OnFail(r)
		}
		if ret == 0 || r.Cmd.Has(rule.Save) {
			s.save(r, 0, 0, 0, 0, 0, 0, 0, 0, 0, lhsNum, rhsNum)
		}
		s.lhsPos += lhsNum.Length
		s.rhsPos += rhsNum.Length
		return ret
	}

	lhsRaw, _ := strconv.ParseFloat(string(s.lhsBuf[s.lhsPos:s.lhsPos+lhsNum.Length]), 64)
	rhsRaw, _ := strconv.ParseFloat(string(s.rhsBuf[s.rhsPos:s.rhsPos+rhsNum.Length]), 64)

	lhsD := resolveOverride(s.Reg, r.Lhs.Reg, r.Cmd.Has(rule.Lhs), r.Lhs.Val, lhsRaw)
	rhsD := resolveOverride(s.Reg, r.Rhs.Reg, r.Cmd.Has(rule.Rhs), r.Rhs.Val, rhsRaw)
	sclD := r.Scl.Get(s.Reg)
	offD := r.Off.Get(s.Reg)

	minD := math.Min(math.Abs(lhsD), math.Abs(rhsD))
	powD := pow10(-imax(lhsNum.Digits, rhsNum.Digits))
	if !(minD > 0.0) {
		minD = 1.0
	}

	if r.Cmd.Has(rule.Swap) {
		lhsD, rhsD = rhsD, lhsD
	}

	difD := lhsD - rhsD
	errD := sclD * difD
	absD := errD + offD
	relD := absD / minD
	digD := absD / (minD * powD)

	if s.Trace != nil {
		s.Trace.Printf("  abs=%.2g, rel=%.2g, ndig=%d", absD, relD, imax(lhsNum.Digits, rhsNum.Digits))
	}

	defer func() {
		s.lhsPos += lhsNum.Length
		s.rhsPos += rhsNum.Length
		if s.Trace != nil {
			s.Trace.Printf("<-testNum  line %d, column %d, char-column %d|%d", s.row, s.col, s.lhsPos, s.rhsPos)
		}
	}()

	if r.Cmd.Has(rule.Ign) {
		if s.Trace != nil {
			s.Trace.Printf("  ignoring numbers '%.25s'|'%.25s'", s.lhsBuf[s.lhsPos:], s.rhsBuf[s.rhsPos:])
		}
		s.save(r, lhsD, rhsD, difD, errD, absD, relD, digD, minD, powD, lhsNum, rhsNum)
		return 0
	}

	if r.Cmd.Has(rule.Omit) && s.isValidOmit(s.lhsPos, s.rhsPos, r.Tag) {
		if s.Trace != nil {
			s.Trace.Printf("  omitting numbers '%.25s'|'%.25s'", s.lhsBuf[s.lhsPos:], s.rhsBuf[s.rhsPos:])
		}
		s.save(r, lhsD, rhsD, difD, errD, absD, relD, digD, minD, powD, lhsNum, rhsNum)
		return 0
	}

	if r.Cmd.Has(rule.Equ) {
		lhsText := string(s.lhsBuf[s.lhsPos : s.lhsPos+lhsNum.Length])
		rhsText := string(s.rhsBuf[s.rhsPos : s.rhsPos+rhsNum.Length])
		if lhsNum.Length != rhsNum.Length || lhsText != rhsText {
			ret |= rule.Equ
		}
		if ret != 0 {
			s.reportDiff(r, ret, lhsNum, rhsNum, absD, relD, digD, powD, 0, 0, 0, 0, 0, 0)
			if r.Cmd.Has(rule.OnFail) {
				s.Cxt.OnFail(r)
			}
			if r.Cmd.Has(rule.Save) {
				s.save(r, lhsD, rhsD, difD, errD, absD, relD, digD, minD, powD, lhsNum, rhsNum)
			}
			return ret
		}
		s.save(r, lhsD, rhsD, difD, errD, absD, relD, digD, minD, powD, lhsNum, rhsNum)
		return 0
	}

	var absLo, absHi, relLo, relHi, digLo, digHi float64

	if r.Cmd.Has(rule.Abs) {
		absLo, absHi = r.AbsBounds(s.Reg)
		if absD > absHi || absD < absLo {
			ret |= rule.Abs
		}
	}
	if r.Cmd.Has(rule.Rel) {
		relLo, relHi = r.RelBounds(s.Reg)
		if relD > relHi || relD < relLo {
			ret |= rule.Rel
		}
	}
	if r.Cmd.Has(rule.Dig) && (lhsNum.IsReal || rhsNum.IsReal) {
		digLo, digHi = r.DigBounds(s.Reg)
		if digD > digHi || digD < digLo {
			ret |= rule.Dig
		}
	}

	if r.Cmd.Has(rule.Any) && (ret&rule.Dra) != (r.Cmd&rule.Dra) {
		ret = 0
	}

	if ret != 0 {
		s.reportDiff(r, ret, lhsNum, rhsNum, absD, relD, digD, powD, absLo, absHi, relLo, relHi, digLo, digHi)
		if r.Cmd.Has(rule.OnFail) {
			s.Cxt.OnFail(r)
		}
	}

	if ret == 0 || r.Cmd.Has(rule.Save) {
		s.save(r, lhsD, rhsD, difD, errD, absD, relD, digD, minD, powD, lhsNum, rhsNum)
	}

	return ret
}

func (s *State) save(r *rule.Rule, lhsD, rhsD, difD, errD, absD, relD, digD, minD, powD float64, lhsNum, rhsNum numlex.Number) {
	saveLhs := lhsD
	saveRhs := rhsD
	if r.Lhs.Reg != 0 || r.Cmd.Has(rule.Lhs) {
		text := s.lhsBuf
		pos := s.lhsPos
		if r.Cmd.Has(rule.Swap) {
			text, pos = s.rhsBuf, s.rhsPos
		}
		v, _ := strconv.ParseFloat(string(text[pos:pos+lhsNum.Length]), 64)
		saveLhs = v
	}
	if r.Rhs.Reg != 0 || r.Cmd.Has(rule.Rhs) {
		text := s.rhsBuf
		pos := s.rhsPos
		if r.Cmd.Has(rule.Swap) {
			text, pos = s.lhsBuf, s.lhsPos
		}
		v, _ := strconv.ParseFloat(string(text[pos:pos+rhsNum.Length]), 64)
		saveRhs = v
	}

	s.Reg.Set(1, saveLhs)
	s.Reg.Set(2, saveRhs)
	s.Reg.Set(3, difD)
	s.Reg.Set(4, errD)
	s.Reg.Set(5, absD)
	s.Reg.Set(6, relD)
	s.Reg.Set(7, digD)
	s.Reg.Set(8, minD)
	s.Reg.Set(9, powD)

	if r.Cmd.Has(rule.TraceR) && s.Trace != nil {
		s.Trace.Printf("  R1=%.17g, R2=%.17g, R3=%.17g, R4=%.17g, R5=%.17g, R6=%.17g, R7=%.17g, R8=%.17g, R9=%.17g",
			s.Reg.Get(1, 0), s.Reg.Get(2, 0), s.Reg.Get(3, 0), s.Reg.Get(4, 0), s.Reg.Get(5, 0),
			s.Reg.Get(6, 0), s.Reg.Get(7, 0), s.Reg.Get(8, 0), s.Reg.Get(9, 0))
	}

	for _, op := range r.Ops {
		s.Reg.Eval(op.Dst, op.Src, op.Src2, op.Op)
	}
}

// reportDiff logs a failed number test the way the driver's warning log
// records every other kind of difference: a one-line summary of where the
// mismatch sits, the raw text of both numbers, and one further line per
// tolerance axis that rejected the pair.
func (s *State) reportDiff(r *rule.Rule, ret rule.Flags, lhsNum, rhsNum numlex.Number, absD, relD, digD, powD, absLo, absHi, relLo, relHi, digLo, digHi float64) {
	if r.Cmd.Has(rule.NoFail) {
		return
	}
	s.cntI++
	if s.cntI > s.opt.MaxKept || s.Warn == nil {
		return
	}
	idx := s.Cxt.FindIdx(r)
	line := s.Cxt.FindLine(r.Tag)
	ndig := imax(lhsNum.Digits, rhsNum.Digits)

	s.Warn.Printf("(%d) files differ at line %d column %d between char-columns %d|%d and %d|%d",
		s.cntI, s.row, s.col, s.lhsPos+1, s.rhsPos+1, s.lhsPos+1+lhsNum.Length, s.rhsPos+1+rhsNum.Length)
	s.Warn.Printf("(%d) numbers: '%.*s'|'%.*s'", s.cntI, lhsNum.Length, s.lhsBuf[s.lhsPos:], rhsNum.Length, s.rhsBuf[s.rhsPos:])

	if ret.Has(rule.Ign) {
		s.Warn.Printf("(%d) one number is missing (column count can be wrong)", s.cntI)
	}
	if ret.Has(rule.Equ) {
		s.Warn.Printf("(%d) numbers strict representation differ", s.cntI)
	}
	if ret.Has(rule.Abs) {
		s.Warn.Printf("(%d) absolute error (rule #%d, line %d: %.2g<=abs<=%.2g) abs=%.2g, rel=%.2g, ndig=%d",
			s.cntI, idx, line, absLo, absHi, absD, relD, ndig)
	}
	if ret.Has(rule.Rel) {
		s.Warn.Printf("(%d) relative error (rule #%d, line %d: %.2g<=rel<=%.2g) abs=%.2g, rel=%.2g, ndig=%d",
			s.cntI, idx, line, relLo, relHi, absD, relD, ndig)
	}
	if ret.Has(rule.Dig) {
		s.Warn.Printf("(%d) numdigit error (rule #%d, line %d: %.2g<=dig<=%.2g) abs=%.2g, rel=%.2g, ndig=%d",
			s.cntI, idx, line, digLo*powD, digHi*powD, absD, relD, ndig)
	}
}
