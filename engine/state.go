// Package engine implements the numeric-aware line-by-line comparison of a
// pair of text inputs: it walks both sides in lockstep, locates the numbers
// embedded in otherwise-identical text, and judges each pair under whatever
// tolerance a rule.Context supplies for that position. Everything about how
// rules are authored or looked up is outside this package; engine only
// consumes the rule.Context interface.
package engine

import (
	"bufio"
	"io"
	"log"

	"github.com/lookbusy1344/ndiff/register"
	"github.com/lookbusy1344/ndiff/rule"
)

// DefaultMaxKept is how many differences are reported before a run stops
// logging them (it keeps comparing, just stops warning).
const DefaultMaxKept = 20

// Options configures a State.
type Options struct {
	MaxKept   int  // stop warning after this many reported differences, must end up > 0
	Blank     bool // compress runs of whitespace differences instead of treating them as text diffs
	Check     bool // cross-check GetInc against GetAt on every lookup, for rule.Context implementations under test
	Registers int  // register file size, clamped to [register.MinSize, register.MaxSize]
}

// State is one comparison run: the pair of inputs, the current line on each
// side, the shared register file, and the bookkeeping the driver loop and
// its helpers need.
type State struct {
	lhsR, rhsR     *bufio.Reader
	lhsEOF, rhsEOF bool

	lhsBuf, rhsBuf []byte
	lhsPos, rhsPos int

	row, col int
	cntI     int
	numI     int64

	Reg *register.File
	Cxt rule.Context

	opt Options

	Warn  *log.Logger // differences and header lines; nil discards
	Trace *log.Logger // step-by-step trace; nil discards
}

// New allocates a comparison run over lhs and rhs, both read line-at-a-time.
func New(lhs, rhs io.Reader, cxt rule.Context, opt Options) *State {
	if opt.MaxKept <= 0 {
		opt.MaxKept = DefaultMaxKept
	}
	return &State{
		lhsR: bufio.NewReader(lhs),
		rhsR: bufio.NewReader(rhs),
		Reg:  register.New(opt.Registers),
		Cxt:  cxt,
		opt:  opt,
	}
}

// Option updates the run's tunables in place; MaxKept <= 0 is ignored.
func (s *State) Option(opt Options) {
	if opt.MaxKept > 0 {
		s.opt.MaxKept = opt.MaxKept
	}
	s.opt.Blank = opt.Blank
	s.opt.Check = opt.Check
}

// Info reports the driver loop's current position and tallies.
func (s *State) Info() (row, col, cnt int, num int64) {
	return s.row, s.col, s.cntI, s.numI
}

// Lines returns the current row's buffered text on each side, for display
// in an interactive debugger.
func (s *State) Lines() (lhs, rhs string) {
	return string(s.lhsBuf), string(s.rhsBuf)
}

// Feof reports end-of-file on both sides (both=true) or either side.
func (s *State) Feof(both bool) bool {
	if both {
		return s.lhsEOF && s.rhsEOF
	}
	return s.lhsEOF || s.rhsEOF
}

// IsEmpty reports whether both cursors have reached the end of their
// current line buffer.
func (s *State) IsEmpty() bool {
	return s.lhsPos >= len(s.lhsBuf) && s.rhsPos >= len(s.rhsBuf)
}

// Clear resets the register file and line buffers while keeping the
// readers, the rule.Context, and the configured options in place.
func (s *State) Clear() {
	s.Reg.Reset()
	s.resetBuf()
	s.row, s.col, s.cntI, s.numI = 0, 0, 0, 0
}

func (s *State) resetBuf() {
	s.lhsPos, s.rhsPos = 0, 0
	s.lhsBuf = s.lhsBuf[:0]
	s.rhsBuf = s.rhsBuf[:0]
}
