package engine

import (
	"bufio"
	"io"
	"strings"

	"github.com/lookbusy1344/ndiff/rule"
)

// readLine reads one line from r, stripping a trailing newline (and a
// preceding carriage return, so CRLF inputs compare the same as LF ones).
// eof is true when this read reached end of input before a newline: the
// line returned is unterminated, or empty because nothing was left.
func readLine(r *bufio.Reader) (line []byte, eof bool) {
	b, err := r.ReadBytes('\n')
	if len(b) > 0 && b[len(b)-1] == '\n' {
		b = b[:len(b)-1]
		if len(b) > 0 && b[len(b)-1] == '\r' {
			b = b[:len(b)-1]
		}
	}
	return b, err == io.EOF
}

// SkipLine discards one line from each side without comparing it. It
// reports whether either side hit end-of-file.
func (s *State) SkipLine() bool {
	s.resetBuf()

	_, e1 := readLine(s.lhsR)
	_, e2 := readLine(s.rhsR)
	s.lhsEOF, s.rhsEOF = e1, e2

	s.col = 0
	s.row++

	return e1 || e2
}

// FillLine injects lhsText/rhsText as the current line on each side,
// bypassing the readers entirely. It never reports end-of-file.
func (s *State) FillLine(lhsText, rhsText string) {
	s.resetBuf()

	s.lhsBuf = append(s.lhsBuf, lhsText...)
	s.rhsBuf = append(s.rhsBuf, rhsText...)

	s.col = 0
	s.row++
}

// ReadLine reads the next line from each side into the working buffers. It
// reports whether either side hit end-of-file.
func (s *State) ReadLine() bool {
	if s.Trace != nil {
		s.Trace.Printf("->readLine line %d", s.row)
	}

	s.resetBuf()

	lb, e1 := readLine(s.lhsR)
	rb, e2 := readLine(s.rhsR)
	s.lhsBuf = append(s.lhsBuf, lb...)
	s.rhsBuf = append(s.rhsBuf, rb...)
	s.lhsEOF, s.rhsEOF = e1, e2

	s.col = 0
	s.row++

	if s.Trace != nil {
		s.Trace.Printf("  buffers: '%.25s'|'%.25s'", s.lhsBuf, s.rhsBuf)
		s.Trace.Printf("<-readLine line %d", s.row)
	}

	return e1 || e2
}

// OutLine writes the current lines, each followed by a newline, to lhsW and
// rhsW. Either writer may be nil to skip that side.
func (s *State) OutLine(lhsW, rhsW io.Writer) error {
	if lhsW != nil {
		if _, err := io.WriteString(lhsW, string(s.lhsBuf)+"\n"); err != nil {
			return err
		}
	}
	if rhsW != nil {
		if _, err := io.WriteString(rhsW, string(s.rhsBuf)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// readUntilTag reads lines one at a time from r until one contains tag or
// EOF is reached. It returns the number of lines consumed and whether the
// search ended on EOF.
func readUntilTag(r *bufio.Reader, tag string, into *[]byte) (n int, eof bool) {
	for {
		*into = (*into)[:0]
		b, e := readLine(r)
		*into = append(*into, b...)
		if e {
			return n, true
		}
		n++
		if strings.Contains(string(*into), tag) {
			return n, false
		}
	}
}

// GotoLine searches forward on both sides for a line containing r.Tag,
// independently, and lands the row counter on the nearer of the two hits
// (mirroring the twin-cursor resynchronization the scanner relies on).
func (s *State) GotoLine(r *rule.Rule) bool {
	if s.Trace != nil {
		s.Trace.Printf("->gotoLine line %d", s.row)
	}

	i1, e1 := readUntilTag(s.lhsR, r.Tag, &s.lhsBuf)
	i2, e2 := readUntilTag(s.rhsR, r.Tag, &s.rhsBuf)
	s.lhsEOF, s.rhsEOF = e1, e2

	s.col = 0
	if i1 < i2 {
		s.row += i1
	} else {
		s.row += i2
	}

	if s.Trace != nil {
		s.Trace.Printf("  buffers: '%.25s'|'%.25s'", s.lhsBuf, s.rhsBuf)
		s.Trace.Printf("<-gotoLine line %d (+%d|+%d)", s.row, i1, i2)
	}

	return e1 || e2
}

// GotoNum searches forward for a line whose sequence of numbers contains, at
// some column admitted by r.Col, a value matching r.Tag (formatted from
// r.GtoReg when that register is set). If r is an exact, column-unrestricted
// rule it degrades to GotoLine, matching the text-search fast path.
func (s *State) GotoNum(r *rule.Rule) bool {
	if s.Trace != nil {
		s.Trace.Printf("->gotoNum line %d", s.row)
	}

	tag := r.Tag
	if r.GtoReg != 0 {
		tag = formatReg(s.Reg.Get(r.GtoReg, 0))
	}

	if r.Cmd.Has(rule.Equ) && r.Col.IsFull() {
		rr := *r
		rr.Tag = tag
		return s.GotoLine(&rr)
	}

	search := *r
	search.Tag = tag

	i1 := 0
	for {
		s.lhsBuf = s.lhsBuf[:0]
		b, e := readLine(s.lhsR)
		s.lhsBuf = append(s.lhsBuf, b...)
		s.lhsEOF = e
		if e {
			break
		}
		i1++
		if s.Trace != nil {
			s.Trace.Printf("  lhs[%d]: '%s'", s.row+i1, s.lhsBuf)
		}

		s.rhsPos = 0
		saved := append([]byte(nil), s.rhsBuf...)
		s.rhsBuf = []byte(tag)
		found := false
		for {
			s.lhsPos = 0
			col := s.NextNum(&search)
			if col == 0 {
				break
			}
			if search.Col.IsElem(col) {
				if s.TestNum(&search) == 0 {
					found = true
					break
				}
			} else {
				s.lhsPos += parseLen(s.lhsBuf, s.lhsPos)
			}
		}
		s.rhsBuf = saved
		if found {
			break
		}
	}

	i2 := 0
	savedLhs := append([]byte(nil), s.lhsBuf...)
	s.lhsBuf = []byte(tag)
	searchSwap := search
	searchSwap.Cmd |= rule.Swap
	for {
		s.rhsBuf = s.rhsBuf[:0]
		b, e := readLine(s.rhsR)
		s.rhsBuf = append(s.rhsBuf, b...)
		s.rhsEOF = e
		if e {
			break
		}
		i2++
		if s.Trace != nil {
			s.Trace.Printf("  rhs[%d]: '%s'", s.row+i2, s.rhsBuf)
		}

		s.lhsPos = 0
		found := false
		for {
			s.rhsPos = 0
			col := s.NextNum(&searchSwap)
			if col == 0 {
				break
			}
			if searchSwap.Col.IsElem(col) {
				if s.TestNum(&searchSwap) == 0 {
					found = true
					break
				}
			} else {
				s.rhsPos += parseLen(s.rhsBuf, s.rhsPos)
			}
		}
		if found {
			break
		}
	}
	s.lhsBuf = savedLhs

	s.lhsPos, s.rhsPos, s.col = 0, 0, 0
	if i1 < i2 {
		s.row += i1
	} else {
		s.row += i2
	}

	if s.Trace != nil {
		s.Trace.Printf("  buffers: '%.25s'|'%.25s'", s.lhsBuf, s.rhsBuf)
		s.Trace.Printf("<-gotoNum line %d (+%d|+%d)", s.row, i1, i2)
	}

	return s.lhsEOF || s.rhsEOF
}
