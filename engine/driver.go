package engine

import (
	"io"

	"github.com/lookbusy1344/ndiff/rule"
)

// Loop runs the comparison to completion, calling StepRow once per row
// until either side reaches EOF.
func (s *State) Loop(lhsOut, rhsOut io.Writer) error {
	for !s.Feof(false) {
		done, err := s.StepRow(lhsOut, rhsOut)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return nil
}

// StepRow advances the comparison by exactly one row: it consults the
// rule.Context for the action the first column demands (skip, goto, gonum,
// or a plain read), then walks every number column the active rules admit,
// writing the line to lhsOut/rhsOut if it came out equal (or every
// difference was under tolerance). Either writer may be nil.
//
// done reports that both sides ended exactly on the previous newline,
// meaning this row never had any content to compare or echo and the
// caller should stop; it is also true whenever Feof(false) is already
// true on entry, so a caller may call StepRow in a loop without its own
// EOF check.
func (s *State) StepRow(lhsOut, rhsOut io.Writer) (done bool, err error) {
	if s.Feof(false) {
		return true, nil
	}

	s.row++
	col := 0
	var ret rule.Flags

	c := s.Cxt.GetInc(s.row, col)
	if c == nil {
		return false, errInvalidContext(s.row, col)
	}
	if s.opt.Check {
		if c2 := s.Cxt.GetAt(s.row, col); c2 != c {
			return false, errDualContext(s.Cxt, c, c2, s.row, col)
		}
	}

	if c.Cmd.Has(rule.Trace) && c.Cmd.Has(rule.Sgg) && s.Trace != nil {
		s.Trace.Printf("~>active:  rule #%d, line %d, cmd = %d", s.Cxt.FindIdx(c), s.Cxt.FindLine(c.Tag), c.Cmd)
	}

	if c.Cmd.Has(rule.Skip) {
		s.SkipLine()
		return false, nil
	}

	switch {
	case c.Cmd.Has(rule.Goto):
		s.GotoLine(c)
	case c.Cmd.Has(rule.Gonum):
		s.GotoNum(c)
	default:
		s.ReadLine()
		if s.IsEmpty() {
			if s.Feof(true) {
				return true, nil
			}
			if err := s.OutLine(lhsOut, rhsOut); err != nil {
				return false, err
			}
			return false, nil
		}
	}

	for {
		col = s.NextNum(c)
		if col == 0 {
			break
		}

		c = s.Cxt.GetInc(s.row, col)
		if c == nil {
			return false, errInvalidContext(s.row, col)
		}
		if s.opt.Check {
			if c2 := s.Cxt.GetAt(s.row, col); c2 != c {
				return false, errDualContext(s.Cxt, c, c2, s.row, col)
			}
		}

		if c.Cmd.Has(rule.Sgg) {
			break
		}

		if c.Cmd.Has(rule.Trace) && s.Trace != nil {
			s.Trace.Printf("~>active:  rule #%d, line %d, cmd = %d", s.Cxt.FindIdx(c), s.Cxt.FindLine(c.Tag), c.Cmd)
		}

		ret |= s.TestNum(c)
	}

	if ret == 0 {
		if err := s.OutLine(lhsOut, rhsOut); err != nil {
			return false, err
		}
	}

	return false, nil
}
