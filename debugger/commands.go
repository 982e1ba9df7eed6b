package debugger

import (
	"fmt"
	"strconv"
	"strings"
)

// Command handler implementations.

// cmdRun starts the comparison from its current position. ndiff's State
// wraps io.Reader streams it doesn't own, so "run" cannot rewind the
// inputs the way the ARM debugger's "run" reloads a program image; it
// only (re)arms the step loop.
func (d *Debugger) cmdRun(args []string) error {
	d.Running = true
	d.StepMode = StepNone

	d.Println("Starting comparison...")
	return nil
}

// cmdContinue continues the comparison from the current row.
func (d *Debugger) cmdContinue(args []string) error {
	if d.St.Feof(false) {
		return fmt.Errorf("comparison already reached end of input")
	}

	d.Running = true
	d.StepMode = StepNone

	d.Println("Continuing...")
	return nil
}

// cmdStep advances the comparison by one row.
func (d *Debugger) cmdStep(args []string) error {
	d.StepMode = StepSingle
	d.Running = true
	return nil
}

// cmdNext is an alias for step: ndiff has no call stack, so there is no
// "step over" distinct from single-row stepping.
func (d *Debugger) cmdNext(args []string) error {
	return d.cmdStep(args)
}

// cmdBreak sets a breakpoint at a row.
func (d *Debugger) cmdBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: break <row> [if <condition>]")
	}

	row, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid row: %s", args[0])
	}

	var condition string
	if len(args) > 1 && strings.ToLower(args[1]) == "if" {
		condition = strings.Join(args[2:], " ")
	}

	bp := d.Breakpoints.AddBreakpoint(row, false, condition)

	if condition != "" {
		d.Printf("Breakpoint %d at row %d (condition: %s)\n", bp.ID, row, condition)
	} else {
		d.Printf("Breakpoint %d at row %d\n", bp.ID, row)
	}

	return nil
}

// cmdTBreak sets a temporary breakpoint (auto-delete after hit).
func (d *Debugger) cmdTBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tbreak <row>")
	}

	row, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid row: %s", args[0])
	}

	bp := d.Breakpoints.AddBreakpoint(row, true, "")
	d.Printf("Temporary breakpoint %d at row %d\n", bp.ID, row)

	return nil
}

// cmdDelete deletes breakpoint(s).
func (d *Debugger) cmdDelete(args []string) error {
	if len(args) == 0 {
		d.Breakpoints.Clear()
		d.Println("All breakpoints deleted")
		return nil
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := d.Breakpoints.DeleteBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d deleted\n", id)
	return nil
}

// cmdEnable enables a breakpoint.
func (d *Debugger) cmdEnable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: enable <breakpoint-id>")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := d.Breakpoints.EnableBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d enabled\n", id)
	return nil
}

// cmdDisable disables a breakpoint.
func (d *Debugger) cmdDisable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: disable <breakpoint-id>")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := d.Breakpoints.DisableBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d disabled\n", id)
	return nil
}

// cmdWatch sets a watchpoint on a register.
func (d *Debugger) cmdWatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: watch <$register>")
	}

	expression := strings.Join(args, " ")

	reg, err := parseRegisterRef(expression)
	if err != nil {
		return err
	}

	wp := d.Watchpoints.AddWatchpoint(expression, reg)

	if err := d.Watchpoints.InitializeWatchpoint(wp.ID, d.St.Reg); err != nil {
		_ = d.Watchpoints.DeleteWatchpoint(wp.ID)
		return err
	}

	d.Printf("Watchpoint %d: %s\n", wp.ID, expression)
	return nil
}

// parseRegisterRef parses a "$N" register reference.
func parseRegisterRef(expr string) (int, error) {
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, "$") {
		return 0, fmt.Errorf("invalid register reference: %s (expected $N)", expr)
	}

	n, err := strconv.Atoi(expr[1:])
	if err != nil {
		return 0, fmt.Errorf("invalid register reference: %s", expr)
	}

	return n, nil
}

// cmdPrint evaluates and prints an expression.
func (d *Debugger) cmdPrint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <expression>")
	}

	expression := strings.Join(args, " ")
	result, err := d.Evaluator.EvaluateExpression(expression, d.St.Reg)
	if err != nil {
		return err
	}

	d.Printf("$%d = %v\n", d.Evaluator.GetValueNumber(), result)
	return nil
}

// cmdInfo displays information about comparison state.
func (d *Debugger) cmdInfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: info <registers|breakpoints|watchpoints|position>")
	}

	switch strings.ToLower(args[0]) {
	case "registers", "reg", "r":
		return d.showRegisters()
	case "breakpoints", "break", "b":
		return d.showBreakpoints()
	case "watchpoints", "watch", "w":
		return d.showWatchpoints()
	case "position", "pos":
		return d.showPosition()
	default:
		return fmt.Errorf("unknown info command: %s", args[0])
	}
}

// showRegisters displays all register values.
func (d *Debugger) showRegisters() error {
	d.Println("Registers:")
	for i := 1; i <= d.St.Reg.Len(); i++ {
		d.Printf("  $%-3d = %v\n", i, d.St.Reg.Get(i, 0))
	}
	return nil
}

// showBreakpoints displays all breakpoints.
func (d *Debugger) showBreakpoints() error {
	breakpoints := d.Breakpoints.GetAllBreakpoints()
	if len(breakpoints) == 0 {
		d.Println("No breakpoints")
		return nil
	}

	d.Println("Breakpoints:")
	for _, bp := range breakpoints {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}

		temp := ""
		if bp.Temporary {
			temp = " (temporary)"
		}

		condition := ""
		if bp.Condition != "" {
			condition = fmt.Sprintf(" if %s", bp.Condition)
		}

		d.Printf("  %d: row %d %s%s%s (hit %d times)\n",
			bp.ID, bp.Row, status, temp, condition, bp.HitCount)
	}

	return nil
}

// showWatchpoints displays all watchpoints.
func (d *Debugger) showWatchpoints() error {
	watchpoints := d.Watchpoints.GetAllWatchpoints()
	if len(watchpoints) == 0 {
		d.Println("No watchpoints")
		return nil
	}

	d.Println("Watchpoints:")
	for _, wp := range watchpoints {
		status := "enabled"
		if !wp.Enabled {
			status = "disabled"
		}

		d.Printf("  %d: %s %s (hit %d times, last value: %v)\n",
			wp.ID, wp.Expression, status, wp.HitCount, wp.LastValue)
	}

	return nil
}

// showPosition displays the current row/column/diff tally.
func (d *Debugger) showPosition() error {
	row, col, cnt, num := d.St.Info()
	d.Printf("row=%d col=%d differences=%d numbers-compared=%d\n", row, col, cnt, num)
	return nil
}

// cmdList shows the current position, echoing the ARM debugger's "list"
// naming even though there is no separate source file to page through.
func (d *Debugger) cmdList(args []string) error {
	return d.showPosition()
}

// cmdReset clears the register file and position counters. Unlike the
// ARM debugger's VM.Reset, this cannot rewind the input streams.
func (d *Debugger) cmdReset(args []string) error {
	d.St.Clear()
	d.Println("Registers and position counters reset")
	return nil
}

// cmdHelp displays help information.
func (d *Debugger) cmdHelp(args []string) error {
	if len(args) > 0 {
		return d.showCommandHelp(args[0])
	}

	d.Println("ndiff debugger commands:")
	d.Println()
	d.Println("Execution Control:")
	d.Println("  run (r)           - Arm the step loop from the current row")
	d.Println("  continue (c)      - Continue the comparison")
	d.Println("  step (s)          - Compare a single row")
	d.Println("  next (n)          - Alias for step")
	d.Println()
	d.Println("Breakpoints:")
	d.Println("  break (b) <row>   - Set breakpoint at a row")
	d.Println("  tbreak (tb) <row> - Set temporary breakpoint")
	d.Println("  delete (d) [id]   - Delete breakpoint(s)")
	d.Println("  enable <id>       - Enable breakpoint")
	d.Println("  disable <id>      - Disable breakpoint")
	d.Println()
	d.Println("Watchpoints:")
	d.Println("  watch (w) $N      - Watch register $N for a value change")
	d.Println()
	d.Println("Inspection:")
	d.Println("  print (p) <expr>  - Evaluate an expression")
	d.Println("  info (i) <what>   - Show registers/breakpoints/watchpoints/position")
	d.Println("  list (l)          - Show current row/column/diff count")
	d.Println()
	d.Println("Control:")
	d.Println("  reset             - Clear registers and position counters")
	d.Println("  help (h, ?)       - Show this help")
	d.Println()
	d.Println("Type 'help <command>' for detailed help on a specific command.")

	return nil
}

// showCommandHelp shows detailed help for a specific command.
func (d *Debugger) showCommandHelp(cmd string) error {
	helpText := map[string]string{
		"break": "break <row> [if <condition>]\n  Set a breakpoint at the given row.\n  Optional condition is evaluated against registers each time the row is reached.",
		"step":  "step\n  Compare a single row.",
		"watch": "watch $N\n  Break when register $N's value changes.",
		"print": "print <expression>\n  Evaluate and print an expression.\n  Expressions can include register references ($N) and arithmetic.",
		"info":  "info <registers|breakpoints|watchpoints|position>\n  Display information about comparison state.",
	}

	if help, exists := helpText[cmd]; exists {
		d.Println(help)
		return nil
	}

	return fmt.Errorf("no help available for command: %s", cmd)
}
