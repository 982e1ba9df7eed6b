package engine

import (
	"bytes"
	"fmt"

	"github.com/lookbusy1344/ndiff/rule"
)

func errInvalidContext(row, col int) error {
	return fmt.Errorf("engine: no rule for line %d, column %d", row, col)
}

// errDualContext reports a rule.Context whose GetInc and GetAt disagree at
// the same position, which only ever happens when an implementation's
// lookup has a bug (GetInc is meant to be a stateful cursor advance over the
// same table GetAt reads statelessly). Check mode in Options exists to
// surface exactly this during development of a new Context.
func errDualContext(cxt rule.Context, c, c2 *rule.Rule, row, col int) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "dual rule lookup differs at line %d, column %d\n", row, col)
	fmt.Fprintf(&buf, "getInc selected rule #%d, getAt selected rule #%d\n", cxt.FindIdx(c), cxt.FindIdx(c2))
	cxt.Print(&buf)
	return fmt.Errorf("engine: %s", buf.String())
}
