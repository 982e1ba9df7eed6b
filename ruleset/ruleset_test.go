package ruleset

import (
	"testing"

	"github.com/lookbusy1344/ndiff/register"
	"github.com/lookbusy1344/ndiff/rule"
)

func TestParseSimpleAbsRule(t *testing.T) {
	tbl, el := Parse("t.rules", "1 ABS=0.5\n")
	if el.HasErrors() {
		t.Fatalf("unexpected errors: %v", el.Errors)
	}
	r := tbl.GetAt(1, 1)
	if !r.Cmd.Has(rule.Abs) {
		t.Fatalf("expected Abs bit set, got cmd=%#x", r.Cmd)
	}
	if hi := r.Abs.Val; hi != 0.5 {
		t.Fatalf("expected Abs bound 0.5, got %v", hi)
	}
	lo, hi := r.AbsBounds(register.New(16))
	if hi != 0.5 || lo != -0.5 {
		t.Fatalf("expected mirrored bounds [-0.5, 0.5], got [%v, %v]", lo, hi)
	}
}

func TestParseFallsBackToEquOutsideAnyEntry(t *testing.T) {
	tbl, el := Parse("t.rules", "5 ABS=0.1\n")
	if el.HasErrors() {
		t.Fatalf("unexpected errors: %v", el.Errors)
	}
	r := tbl.GetAt(1, 1)
	if !r.Cmd.Has(rule.Equ) {
		t.Fatalf("expected fallback Equ rule outside row 5, got cmd=%#x", r.Cmd)
	}
}

func TestParseRowRangeAndColumnRange(t *testing.T) {
	tbl, el := Parse("t.rules", "2-4 [2-3] REL=1e-6\n")
	if el.HasErrors() {
		t.Fatalf("unexpected errors: %v", el.Errors)
	}
	r := tbl.GetAt(3, 2)
	if !r.Cmd.Has(rule.Rel) {
		t.Fatalf("expected Rel at row 3 col 2, got cmd=%#x", r.Cmd)
	}
	if r2 := tbl.GetAt(3, 5); !r2.Cmd.Has(rule.Equ) {
		t.Fatalf("expected fallback outside column range, got cmd=%#x", r2.Cmd)
	}
}

func TestParseWildcardRow(t *testing.T) {
	tbl, el := Parse("t.rules", "* ANY, ABS=1, REL=1e-3\n")
	if el.HasErrors() {
		t.Fatalf("unexpected errors: %v", el.Errors)
	}
	r := tbl.GetAt(999, 1)
	if !r.Cmd.Has(rule.Any) {
		t.Fatalf("expected wildcard row to match any row, got cmd=%#x", r.Cmd)
	}
}

func TestParseTagAndGoto(t *testing.T) {
	tbl, el := Parse("t.rules", "1 TAG=\"start\"\n10 GOTO=\"start\"\n")
	if el.HasErrors() {
		t.Fatalf("unexpected errors: %v", el.Errors)
	}
	if line := tbl.FindLine("start"); line != 1 {
		t.Fatalf("expected tag 'start' declared on rule-file line 1, got %d", line)
	}
	r := tbl.GetAt(10, 1)
	if !r.Cmd.Has(rule.Goto) || r.Tag != "start" {
		t.Fatalf("expected GOTO rule with tag 'start', got cmd=%#x tag=%q", r.Cmd, r.Tag)
	}
}

func TestParseRegisterIndirection(t *testing.T) {
	tbl, el := Parse("t.rules", "1 ABS=$5:$6\n")
	if el.HasErrors() {
		t.Fatalf("unexpected errors: %v", el.Errors)
	}
	r := tbl.GetAt(1, 1)
	if r.Abs.Reg != 5 || r.AbsNeg.Reg != 6 {
		t.Fatalf("expected register indirection 5/6, got %+v", r.Abs)
	}
}

func TestParseOpsProgram(t *testing.T) {
	tbl, el := Parse("t.rules", "1 SAVE, OPS=10:1:2:add;11:10:0:abs\n")
	if el.HasErrors() {
		t.Fatalf("unexpected errors: %v", el.Errors)
	}
	r := tbl.GetAt(1, 1)
	if len(r.Ops) != 2 {
		t.Fatalf("expected 2 op steps, got %d", len(r.Ops))
	}
	if r.Ops[0].Dst != 10 || r.Ops[0].Src != 1 || r.Ops[0].Src2 != 2 {
		t.Fatalf("unexpected first op step: %+v", r.Ops[0])
	}
}

func TestParseUnknownFlagIsError(t *testing.T) {
	_, el := Parse("t.rules", "1 BOGUS\n")
	if !el.HasErrors() {
		t.Fatalf("expected an error for an unknown flag")
	}
}

func TestDefaultTableIsExactMatch(t *testing.T) {
	tbl := Default()
	r := tbl.GetAt(1, 1)
	if !r.Cmd.Has(rule.Equ) {
		t.Fatalf("expected Default() to fall back to Equ, got cmd=%#x", r.Cmd)
	}
}
