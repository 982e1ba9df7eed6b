// Package ruleset compiles a rule file — the constraint-rule grammar
// spec.md treats as an external collaborator — into a ruleset.Table, a
// concrete rule.Context the engine package can drive. Nothing in engine
// or rule depends on this package; it is consumed purely through the
// rule.Context interface.
//
// Rule file grammar, one entry per line (blank lines and '#' comments
// ignored):
//
//	rowspec [colspec] flag[=value] ...
//
//	rowspec := '*' | N | N '-' M            (1-based, inclusive)
//	colspec := '[' N? '-' N? ']' | '[' N ']'  (1-based, inclusive; omitted = every column)
//	flag    := bare keyword (SKIP, EQU, IGN, ANY, ISTR, SWAP, SAVE,
//	           NOFAIL, ONFAIL, TRACE, TRACER, SGG)
//	         | keyword '=' value (GOTO, GONUM, OMIT, TAG — string or $reg;
//	           ABS/REL/DIG — hi[':' lo], number or $reg; SCL/OFF/LHS/RHS —
//	           number or $reg; OPS — ';'-separated 'dst:src:src2:op' steps)
//
// A later entry does not override an earlier one for an overlapping
// position; the first matching entry (in file order) wins. A '*' row entry
// takes part in that order like any other, so it acts as a default only
// when it comes after the more specific entries.
package ruleset

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/lookbusy1344/ndiff/parser"
	"github.com/lookbusy1344/ndiff/register"
	"github.com/lookbusy1344/ndiff/rule"
)

// entry is one compiled rule-file line plus the bookkeeping Table needs to
// answer rule.Context's row/column and diagnostic queries.
type entry struct {
	rowLo, rowHi int
	rowAny       bool
	col          rule.Slice
	r            rule.Rule
	srcLine      int
	defTag       string // name given by this entry's own TAG= clause, if any
}

func (e *entry) matchesRow(row int) bool {
	if e.rowAny {
		return true
	}
	return row >= e.rowLo && row <= e.rowHi
}

// Table is a compiled rule file: an ordered list of entries plus the tag
// index FindLine needs. It implements rule.Context.
type Table struct {
	entries  []*entry
	byTag    map[string]*entry
	fallback rule.Rule

	failCount map[*rule.Rule]int
	onFail    func(*rule.Rule)
}

// Default returns a Table with nothing but the built-in fallback rule: an
// Equ test for every row and column, used when a caller has no rule file at
// all (every line must match byte-for-byte).
func Default() *Table {
	return &Table{fallback: rule.Rule{Cmd: rule.Equ}, failCount: map[*rule.Rule]int{}}
}

// Parse compiles the rule file text (named filename for diagnostics) into a
// Table. Lexical errors are reported through the returned *ErrorList in
// addition to any compile-level errors; callers should check HasErrors.
func Parse(filename, text string) (*Table, *ErrorList) {
	el := &ErrorList{}
	t := &Table{
		fallback:  rule.Rule{Cmd: rule.Equ},
		byTag:     map[string]*entry{},
		failCount: map[*rule.Rule]int{},
	}

	lex := parser.NewLexer(text, filename)
	lineNo := 1
	var line []parser.Token

	flush := func() {
		if len(line) == 0 {
			return
		}
		e, err := compileLine(line, lineNo)
		if err != nil {
			if re, ok := err.(*Error); ok {
				el.AddError(re)
			} else {
				el.AddError(NewError(Position{Filename: filename, Line: lineNo}, ErrorSyntax, err.Error()))
			}
		} else if e != nil {
			t.entries = append(t.entries, e)
			if e.defTag != "" {
				t.byTag[e.defTag] = e
			}
		}
		line = line[:0]
	}

	for {
		tok := lex.NextToken()
		switch tok.Type {
		case parser.TokenEOF:
			flush()
			goto done
		case parser.TokenComment:
			// absorbed into the current physical line; the newline that
			// follows it ends the line and advances lineNo.
		case parser.TokenNewline:
			flush()
			lineNo++
		default:
			line = append(line, tok)
		}
	}
done:

	if lex.Errors().HasErrors() {
		for _, e := range lex.Errors().Errors {
			el.AddError(&Error{
				Pos:     Position{Filename: e.Pos.Filename, Line: e.Pos.Line, Column: e.Pos.Column},
				Message: e.Message,
				Kind:    ErrorSyntax,
			})
		}
	}

	return t, el
}

// cursor walks a single rule-file line's tokens.
type cursor struct {
	toks []parser.Token
	pos  int
}

func (c *cursor) peek() (parser.Token, bool) {
	if c.pos >= len(c.toks) {
		return parser.Token{}, false
	}
	return c.toks[c.pos], true
}

func (c *cursor) next() (parser.Token, bool) {
	tok, ok := c.peek()
	if ok {
		c.pos++
	}
	return tok, ok
}

func compileLine(toks []parser.Token, lineNo int) (*entry, error) {
	c := &cursor{toks: toks}
	e := &entry{srcLine: lineNo}

	// rowspec
	tok, ok := c.next()
	if !ok {
		return nil, nil
	}
	switch tok.Type {
	case parser.TokenStar:
		e.rowAny = true
	case parser.TokenNumber:
		lo, err := strconv.Atoi(tok.Literal)
		if err != nil {
			return nil, lexErr(tok, "invalid row number %q", tok.Literal)
		}
		e.rowLo, e.rowHi = lo, lo
		if nt, ok := c.peek(); ok && nt.Type == parser.TokenDash {
			c.next()
			hi, herr := c.next()
			if !herr || hi.Type != parser.TokenNumber {
				return nil, lexErr(tok, "expected row number after '-'")
			}
			e.rowHi, err = strconv.Atoi(hi.Literal)
			if err != nil {
				return nil, lexErr(hi, "invalid row number %q", hi.Literal)
			}
		}
	default:
		return nil, lexErr(tok, "expected row number or '*', got %q", tok.Literal)
	}

	// colspec (optional)
	if nt, ok := c.peek(); ok && nt.Type == parser.TokenLBracket {
		c.next()
		col, err := parseColSpec(c)
		if err != nil {
			return nil, err
		}
		e.col = col
	}

	// flags
	for {
		tok, ok := c.next()
		if !ok {
			break
		}
		if tok.Type == parser.TokenComma {
			continue
		}
		if tok.Type != parser.TokenIdent {
			return nil, lexErr(tok, "expected a flag keyword, got %q", tok.Literal)
		}
		if err := applyFlag(c, e, tok); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func parseColSpec(c *cursor) (rule.Slice, error) {
	first, ok := c.next()
	if !ok {
		return rule.Slice{}, fmt.Errorf("unexpected end of line in column range")
	}
	if first.Type == parser.TokenRBracket {
		return rule.Slice{}, nil // "[]" — treat as full
	}
	if first.Type == parser.TokenStar {
		if closing, ok := c.next(); !ok || closing.Type != parser.TokenRBracket {
			return rule.Slice{}, fmt.Errorf("expected ']' after '*' in column range")
		}
		return rule.Slice{}, nil
	}

	var lo, hi int
	switch first.Type {
	case parser.TokenNumber:
		n, err := strconv.Atoi(first.Literal)
		if err != nil {
			return rule.Slice{}, err
		}
		if n < 0 {
			// the lexer folds a '-' not following a number into the
			// literal's sign, so "[-hi]" arrives as one negative token.
			hi = -n + 1
			break
		}
		lo = n
		if nt, ok := c.peek(); ok && nt.Type == parser.TokenDash {
			c.next()
			if nt2, ok := c.peek(); ok && nt2.Type == parser.TokenNumber {
				c.next()
				n2, err := strconv.Atoi(nt2.Literal)
				if err != nil {
					return rule.Slice{}, err
				}
				hi = n2 + 1 // "[lo-hi]" -> unbounded above left at 0 if hi omitted
			}
		} else {
			hi = lo + 1 // a bare "[N]" means exactly column N
		}
	case parser.TokenDash:
		// "[-hi]": no lower bound, an upper bound must follow.
		hiTok, ok := c.next()
		if !ok || hiTok.Type != parser.TokenNumber {
			return rule.Slice{}, fmt.Errorf("expected a column number after '-'")
		}
		n, err := strconv.Atoi(hiTok.Literal)
		if err != nil {
			return rule.Slice{}, err
		}
		hi = n + 1
	default:
		return rule.Slice{}, fmt.Errorf("expected column number, got %q", first.Literal)
	}

	if closing, ok := c.next(); !ok || closing.Type != parser.TokenRBracket {
		return rule.Slice{}, fmt.Errorf("expected ']' to close column range")
	}

	return rule.Slice{Lo: lo, Hi: hi}, nil
}

var opNames = map[string]register.Op{
	"add": register.OpAdd, "sub": register.OpSub, "mul": register.OpMul, "div": register.OpDiv,
	"min": register.OpMin, "max": register.OpMax, "abs": register.OpAbs, "set": register.OpAssign,
}

func applyFlag(c *cursor, e *entry, kw parser.Token) error {
	name := strings.ToUpper(kw.Literal)

	hasValue := false
	if nt, ok := c.peek(); ok && nt.Type == parser.TokenEqual {
		c.next()
		hasValue = true
	}

	readBound := func() (rule.Bound, error) {
		tok, ok := c.next()
		if !ok {
			return rule.Bound{}, fmt.Errorf("expected a value for %s", name)
		}
		switch tok.Type {
		case parser.TokenRegister:
			reg, err := strconv.Atoi(tok.Literal)
			return rule.Bound{Reg: reg}, err
		case parser.TokenNumber:
			v, err := strconv.ParseFloat(tok.Literal, 64)
			return rule.Bound{Val: v}, err
		default:
			return rule.Bound{}, fmt.Errorf("expected a number or $register for %s, got %q", name, tok.Literal)
		}
	}

	readBoundPair := func() (hi, lo rule.Bound, hasLo bool, err error) {
		hi, err = readBound()
		if err != nil {
			return
		}
		if nt, ok := c.peek(); ok && nt.Type == parser.TokenColon {
			c.next()
			lo, err = readBound()
			hasLo = true
		}
		return
	}

	switch name {
	case "SKIP":
		e.r.Cmd |= rule.Skip
	case "EQU":
		e.r.Cmd |= rule.Equ
	case "IGN":
		e.r.Cmd |= rule.Ign
	case "ANY":
		e.r.Cmd |= rule.Any
	case "ISTR":
		e.r.Cmd |= rule.IStr
	case "SWAP":
		e.r.Cmd |= rule.Swap
	case "SAVE":
		e.r.Cmd |= rule.Save
	case "NOFAIL":
		e.r.Cmd |= rule.NoFail
	case "ONFAIL":
		e.r.Cmd |= rule.OnFail
	case "TRACE":
		e.r.Cmd |= rule.Trace
	case "TRACER":
		e.r.Cmd |= rule.TraceR
	case "SGG":
		e.r.Cmd |= rule.Sgg

	case "GOTO":
		e.r.Cmd |= rule.Goto
		if !hasValue {
			return lexErr(kw, "GOTO requires =\"tag\"")
		}
		tok, ok := c.next()
		if !ok || tok.Type != parser.TokenString {
			return lexErr(kw, "GOTO requires a quoted tag string")
		}
		e.r.Tag = tok.Literal

	case "GONUM":
		e.r.Cmd |= rule.Gonum
		if !hasValue {
			return lexErr(kw, "GONUM requires =\"tag\" or =$register")
		}
		tok, ok := c.next()
		if !ok {
			return lexErr(kw, "GONUM requires a value")
		}
		switch tok.Type {
		case parser.TokenString:
			e.r.Tag = tok.Literal
		case parser.TokenRegister:
			reg, err := strconv.Atoi(tok.Literal)
			if err != nil {
				return lexErr(tok, "invalid register %q", tok.Literal)
			}
			e.r.GtoReg = reg
		default:
			return lexErr(tok, "GONUM requires a quoted tag or $register")
		}

	case "OMIT":
		e.r.Cmd |= rule.Omit
		if !hasValue {
			return lexErr(kw, "OMIT requires =\"tag\"")
		}
		tok, ok := c.next()
		if !ok || tok.Type != parser.TokenString {
			return lexErr(kw, "OMIT requires a quoted tag string")
		}
		e.r.Tag = tok.Literal

	case "TAG":
		if !hasValue {
			return lexErr(kw, "TAG requires =\"name\"")
		}
		tok, ok := c.next()
		if !ok || tok.Type != parser.TokenString {
			return lexErr(kw, "TAG requires a quoted name")
		}
		e.defTag = tok.Literal
		if e.r.Tag == "" {
			e.r.Tag = tok.Literal
		}

	case "ABS", "REL", "DIG":
		switch name {
		case "ABS":
			e.r.Cmd |= rule.Abs
		case "REL":
			e.r.Cmd |= rule.Rel
		case "DIG":
			e.r.Cmd |= rule.Dig
		}
		if !hasValue {
			break // bare ABS/REL/DIG means "test this axis with bound 0", useful combined with ANY
		}
		hi, lo, hasLo, err := readBoundPair()
		if err != nil {
			return lexErr(kw, "%v", err)
		}
		switch name {
		case "ABS":
			e.r.Abs, e.r.AbsNeg, e.r.HasAbsNeg = hi, lo, hasLo
		case "REL":
			e.r.Rel, e.r.RelNeg, e.r.HasRelNeg = hi, lo, hasLo
		case "DIG":
			e.r.Dig, e.r.DigNeg, e.r.HasDigNeg = hi, lo, hasLo
		}

	case "SCL":
		if !hasValue {
			return lexErr(kw, "SCL requires a value")
		}
		b, err := readBound()
		if err != nil {
			return lexErr(kw, "%v", err)
		}
		e.r.Scl = b

	case "OFF":
		if !hasValue {
			return lexErr(kw, "OFF requires a value")
		}
		b, err := readBound()
		if err != nil {
			return lexErr(kw, "%v", err)
		}
		e.r.Off = b

	case "LHS", "RHS":
		if name == "LHS" {
			e.r.Cmd |= rule.Lhs
		} else {
			e.r.Cmd |= rule.Rhs
		}
		if hasValue {
			b, err := readBound()
			if err != nil {
				return lexErr(kw, "%v", err)
			}
			if name == "LHS" {
				e.r.Lhs = b
			} else {
				e.r.Rhs = b
			}
		}

	case "OPS":
		if !hasValue {
			return lexErr(kw, "OPS requires 'dst:src:src2:op' steps")
		}
		for {
			step, err := readOpStep(c)
			if err != nil {
				return lexErr(kw, "%v", err)
			}
			e.r.Ops = append(e.r.Ops, step)
			if nt, ok := c.peek(); ok && nt.Type == parser.TokenSemi {
				c.next()
				continue
			}
			break
		}

	default:
		return lexErr(kw, "unknown flag %q", kw.Literal)
	}

	if e.r.Scl == (rule.Bound{}) && e.r.Cmd.Any(rule.Dra) {
		e.r.Scl = rule.Bound{Val: 1}
	}

	return nil
}

func readOpStep(c *cursor) (rule.OpStep, error) {
	readInt := func() (int, error) {
		tok, ok := c.next()
		if !ok || tok.Type != parser.TokenNumber {
			return 0, fmt.Errorf("expected a register index in OPS step")
		}
		return strconv.Atoi(tok.Literal)
	}
	dst, err := readInt()
	if err != nil {
		return rule.OpStep{}, err
	}
	if t, ok := c.next(); !ok || t.Type != parser.TokenColon {
		return rule.OpStep{}, fmt.Errorf("expected ':' in OPS step")
	}
	src, err := readInt()
	if err != nil {
		return rule.OpStep{}, err
	}
	if t, ok := c.next(); !ok || t.Type != parser.TokenColon {
		return rule.OpStep{}, fmt.Errorf("expected ':' in OPS step")
	}
	src2, err := readInt()
	if err != nil {
		return rule.OpStep{}, err
	}
	if t, ok := c.next(); !ok || t.Type != parser.TokenColon {
		return rule.OpStep{}, fmt.Errorf("expected ':' in OPS step")
	}
	opTok, ok := c.next()
	if !ok || opTok.Type != parser.TokenIdent {
		return rule.OpStep{}, fmt.Errorf("expected an operator name in OPS step")
	}
	op, ok := opNames[strings.ToLower(opTok.Literal)]
	if !ok {
		return rule.OpStep{}, fmt.Errorf("unknown OPS operator %q", opTok.Literal)
	}
	return rule.OpStep{Dst: dst, Src: src, Src2: src2, Op: op}, nil
}

func lexErr(tok parser.Token, format string, args ...any) *Error {
	return NewError(Position{Filename: tok.Pos.Filename, Line: tok.Pos.Line, Column: tok.Pos.Column}, ErrorSyntax, fmt.Sprintf(format, args...))
}

// GetInc returns the rule governing (row, col): the first entry, in file
// order, whose row range and column range both admit the position; the
// built-in Equ fallback if none does.
func (t *Table) GetInc(row, col int) *rule.Rule {
	return t.GetAt(row, col)
}

// GetAt is GetInc without any state advance; Table's lookup is already
// stateless so the two are identical.
func (t *Table) GetAt(row, col int) *rule.Rule {
	for _, e := range t.entries {
		if e.matchesRow(row) && e.col.IsElem(col) {
			return &e.r
		}
	}
	return &t.fallback
}

// FindIdx returns r's 1-based position in the rule file, or 0 if r is the
// built-in fallback or not one of this table's rules.
func (t *Table) FindIdx(r *rule.Rule) int {
	for i, e := range t.entries {
		if &e.r == r {
			return i + 1
		}
	}
	return 0
}

// FindLine returns the rule-file source line where tag was declared via a
// TAG= clause, or -1 if no entry declares it.
func (t *Table) FindLine(tag string) int {
	if e, ok := t.byTag[tag]; ok {
		return e.srcLine
	}
	return -1
}

// OnFail is invoked once per failed test. It tallies failures per rule and
// forwards to an optional callback installed with SetOnFail (no package in
// this repository installs one).
func (t *Table) OnFail(r *rule.Rule) {
	t.failCount[r]++
	if t.onFail != nil {
		t.onFail(r)
	}
}

// SetOnFail installs a callback invoked after every failed test, in addition
// to Table's own bookkeeping.
func (t *Table) SetOnFail(f func(*rule.Rule)) { t.onFail = f }

// FailCount reports how many times r has failed so far.
func (t *Table) FailCount(r *rule.Rule) int { return t.failCount[r] }

// Print writes a human-readable listing of every compiled rule, in file
// order, to w.
func (t *Table) Print(w io.Writer) error {
	idx := make([]int, len(t.entries))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return t.entries[idx[a]].srcLine < t.entries[idx[b]].srcLine })

	for _, i := range idx {
		e := t.entries[i]
		row := "*"
		if !e.rowAny {
			if e.rowLo == e.rowHi {
				row = strconv.Itoa(e.rowLo)
			} else {
				row = fmt.Sprintf("%d-%d", e.rowLo, e.rowHi)
			}
		}
		if _, err := fmt.Fprintf(w, "#%d (line %d) row=%s col=%v cmd=%#x tag=%q\n", i+1, e.srcLine, row, e.col, e.r.Cmd, e.r.Tag); err != nil {
			return err
		}
	}
	return nil
}
