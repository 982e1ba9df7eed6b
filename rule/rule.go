// Package rule defines the constraint-rule record that governs how a single
// row/column position in a comparison is handled: whether it is skipped,
// tested for numeric equality under tolerance, or used to jump elsewhere in
// one or both inputs. The grammar that produces these records, and the
// concrete lookup table that serves them, live outside this package; rule
// only fixes the shape both sides agree on.
package rule

import (
	"io"

	"github.com/lookbusy1344/ndiff/register"
)

// Flags is a bitmask of the directives a rule may carry. Several are
// mutually exclusive in practice (Skip/Goto/Gonum select the row action;
// the rest modify how a numeric test behaves). Nothing rejects a rule that
// combines them; the driver checks Skip first, then Goto, then Gonum.
type Flags uint32

const (
	Skip Flags = 1 << iota // skip this row entirely
	Goto                   // jump to the row tagged Rule.Tag
	Gonum                  // jump to the row containing the formatted Rule.Tag as a number
	Equ                    // require byte-exact match, no tolerance
	Ign                    // ignore this column: consume it, never compare
	Abs                    // apply an absolute tolerance
	Rel                    // apply a relative tolerance
	Dig                    // apply a significant-digit tolerance
	Any                    // pass if any enabled tolerance axis passes, not all
	Omit                   // treat the matched identifier as blank for text comparison
	IStr                   // numbers-in-strings: each side skips its own non-digit text independently
	Lhs                    // Rule.Lhs.Val replaces the scanned lhs value
	Rhs                    // Rule.Rhs.Val replaces the scanned rhs value
	Swap                   // exchange the lhs and rhs values before the difference is taken (set by GotoNum)
	Save                   // save registers and run the register-op program even when the test fails
	NoFail                 // a difference under this rule is neither counted nor reported
	OnFail                 // call Context.OnFail when a test under this rule fails
	Trace                  // log an "active rule" trace line for this rule; the rest of the trace does not depend on it
	TraceR                 // log registers R1..R9 to the trace whenever they are saved
	Sgg                    // state-transition marker: the driver stops walking the row's columns here
)

// Dra combines the three tolerance axes, the common case of "test this
// column under every configured bound".
const Dra = Dig | Rel | Abs

// Has reports whether every bit in want is set in f.
func (f Flags) Has(want Flags) bool { return f&want == want }

// Any reports whether at least one bit in want is set in f.
func (f Flags) Any(want Flags) bool { return f&want != 0 }

// Slice is a half-open column restriction: a rule with a non-full Slice only
// applies to columns in [Lo, Hi). The zero Slice is full: it matches every
// column.
type Slice struct {
	Lo, Hi int
}

// IsFull reports whether s restricts no column at all.
func (s Slice) IsFull() bool { return s.Lo == 0 && s.Hi == 0 }

// IsElem reports whether col falls inside s, treating a zero bound as
// unbounded on that side.
func (s Slice) IsElem(col int) bool {
	if s.IsFull() {
		return true
	}
	if s.Lo != 0 && col < s.Lo {
		return false
	}
	if s.Hi != 0 && col >= s.Hi {
		return false
	}
	return true
}

// Bound is a value that may come from a register (indirect) or be given
// literally. Reg == 0 means "no register", in which case Val is used as-is.
type Bound struct {
	Reg int
	Val float64
}

// Get resolves b against f, falling back to b.Val when b.Reg is 0 or the
// register is out of range.
func (b Bound) Get(f *register.File) float64 {
	return f.Get(b.Reg, b.Val)
}

// OpStep is one instruction of a rule's register-op program, run whenever a
// test saves its registers (after a passing test, or any test when Rule.Cmd
// has the Save bit).
type OpStep struct {
	Dst, Src, Src2 int
	Op             register.Op
}

// Rule is a single compiled constraint record: one entry of the rule table a
// Context hands back for a given (row, column) position.
type Rule struct {
	Cmd Flags
	Col Slice
	Tag string // target tag for Goto, or the register-formatted pattern for Gonum

	// Lhs and Rhs override the parsed numeric value: a non-zero Reg reads
	// that register; otherwise Val is used when Cmd has the Lhs/Rhs bit set.
	// With neither, the value of the text actually scanned is used.
	Lhs, Rhs Bound

	// Scl and Off implement the scaled-error formula: err = Scl*(lhs-rhs) + Off.
	Scl, Off Bound

	// Abs/AbsNeg, Rel/RelNeg, Dig/DigNeg are the upper and lower bounds of
	// each tolerance axis. HasAbsNeg etc. distinguishes "no lower bound
	// given" (mirror the upper bound negated) from an explicit asymmetric
	// bound.
	Abs, AbsNeg Bound
	HasAbsNeg   bool
	Rel, RelNeg Bound
	HasRelNeg   bool
	Dig, DigNeg Bound
	HasDigNeg   bool

	// GtoReg, when non-zero, formats that register's value into Tag before
	// a Gonum search instead of using Tag literally.
	GtoReg int

	// Ops runs in order each time a test under this rule saves registers.
	Ops []OpStep
}

// AbsBounds resolves the absolute-tolerance window, applying the
// mirror-negate default when no explicit lower bound was supplied.
func (r *Rule) AbsBounds(f *register.File) (lo, hi float64) {
	hi = r.Abs.Get(f)
	if r.HasAbsNeg {
		lo = r.AbsNeg.Get(f)
	} else {
		lo = -hi
	}
	return lo, hi
}

// RelBounds resolves the relative-tolerance window.
func (r *Rule) RelBounds(f *register.File) (lo, hi float64) {
	hi = r.Rel.Get(f)
	if r.HasRelNeg {
		lo = r.RelNeg.Get(f)
	} else {
		lo = -hi
	}
	return lo, hi
}

// DigBounds resolves the significant-digit tolerance window.
func (r *Rule) DigBounds(f *register.File) (lo, hi float64) {
	hi = r.Dig.Get(f)
	if r.HasDigNeg {
		lo = r.DigNeg.Get(f)
	} else {
		lo = -hi
	}
	return lo, hi
}

// Context is everything the engine's driver needs from a rule table and its
// owner, but nothing about how that table was built. A rule-grammar parser
// and the line/tag index it maintains implement this; the engine package
// only ever calls through the interface.
type Context interface {
	// GetInc returns the rule, if any, governing (row, col) and advances any
	// internal per-row column cursor the implementation keeps.
	GetInc(row, col int) *Rule

	// GetAt returns the rule governing (row, col) without advancing state.
	GetAt(row, col int) *Rule

	// FindIdx returns r's index in the rule table (shown as "rule #N" in
	// difference reports), or 0 if r is not one of the table's rules.
	FindIdx(r *Rule) int

	// FindLine returns the rule-file source line that declared tag (shown
	// as "line N" in difference reports), or -1 if the tag is unknown.
	FindLine(tag string) int

	// OnFail is invoked after a failed test (or a textual mismatch) under
	// a rule whose Cmd has the OnFail bit.
	OnFail(r *Rule)

	// Print writes a human-readable trace of the rule table to w.
	Print(w io.Writer) error
}
