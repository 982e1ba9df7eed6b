package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lookbusy1344/ndiff/register"
)

// ExpressionEvaluator evaluates the small expression language used in
// breakpoint/watchpoint conditions and the print command: register
// references ($1..$N), float literals, +-*/ arithmetic, and a single
// top-level comparison for conditions (==, !=, <, <=, >, >=).
type ExpressionEvaluator struct {
	valueHistory []float64
	valueNumber  int
}

// NewExpressionEvaluator creates a new expression evaluator.
func NewExpressionEvaluator() *ExpressionEvaluator {
	return &ExpressionEvaluator{
		valueHistory: make([]float64, 0),
	}
}

// EvaluateExpression evaluates an arithmetic expression and records the
// result in the value history (for the print command's "$N = ..." echo).
func (e *ExpressionEvaluator) EvaluateExpression(expr string, reg *register.File) (float64, error) {
	result, err := e.evaluateArith(expr, reg)
	if err != nil {
		return 0, err
	}

	e.valueHistory = append(e.valueHistory, result)
	e.valueNumber = len(e.valueHistory)

	return result, nil
}

// Evaluate evaluates expr as a breakpoint/watchpoint condition and
// returns its truth value. An expression with no comparison operator is
// true when its arithmetic value is non-zero.
func (e *ExpressionEvaluator) Evaluate(expr string, reg *register.File) (bool, error) {
	expr = strings.TrimSpace(expr)

	for _, op := range []string{"==", "!=", "<=", ">=", "<", ">"} {
		if idx := strings.Index(expr, op); idx > 0 {
			left := strings.TrimSpace(expr[:idx])
			right := strings.TrimSpace(expr[idx+len(op):])
			if left == "" || right == "" {
				continue
			}

			lv, err := e.evaluateArith(left, reg)
			if err != nil {
				return false, err
			}
			rv, err := e.evaluateArith(right, reg)
			if err != nil {
				return false, err
			}

			return compare(lv, rv, op), nil
		}
	}

	result, err := e.evaluateArith(expr, reg)
	if err != nil {
		return false, err
	}

	return result != 0, nil
}

func compare(l, r float64, op string) bool {
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	default:
		return false
	}
}

// GetValueNumber returns the current value number.
func (e *ExpressionEvaluator) GetValueNumber() int {
	return e.valueNumber
}

// GetValue returns a value from history by number ($1, $2, ...).
func (e *ExpressionEvaluator) GetValue(number int) (float64, error) {
	if number < 1 || number > len(e.valueHistory) {
		return 0, fmt.Errorf("value $%d not in history", number)
	}

	return e.valueHistory[number-1], nil
}

// evaluateArith is the arithmetic evaluation core, shared by Evaluate
// and EvaluateExpression.
func (e *ExpressionEvaluator) evaluateArith(expr string, reg *register.File) (float64, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, fmt.Errorf("empty expression")
	}

	if val, err := e.trySimpleEval(expr, reg); err == nil {
		return val, nil
	}

	operators := []string{"+", "-", "*", "/"}
	for _, op := range operators {
		patterns := []string{" " + op + " ", " " + op, op + " "}

		for _, pattern := range patterns {
			idx := strings.Index(expr, pattern)
			if idx < 0 {
				continue
			}

			opPos := idx
			if pattern[0] == ' ' {
				opPos++
			}

			left := strings.TrimSpace(expr[:opPos])
			right := strings.TrimSpace(expr[opPos+len(op):])
			if left == "" || right == "" {
				continue
			}

			leftVal, err := e.evaluateArith(left, reg)
			if err != nil {
				continue
			}

			rightVal, err := e.evaluateArith(right, reg)
			if err != nil {
				continue
			}

			return applyOperator(leftVal, rightVal, op)
		}
	}

	return 0, fmt.Errorf("invalid expression: %s", expr)
}

// trySimpleEval evaluates a single atom: a register reference or a
// numeric literal.
func (e *ExpressionEvaluator) trySimpleEval(expr string, reg *register.File) (float64, error) {
	expr = strings.TrimSpace(expr)

	if strings.HasPrefix(expr, "$") {
		numStr := expr[1:]
		num, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid register reference: %s", expr)
		}
		return reg.Get(num, 0), nil
	}

	val, err := strconv.ParseFloat(expr, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown identifier: %s", expr)
	}

	return val, nil
}

func applyOperator(left, right float64, op string) (float64, error) {
	switch op {
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		return left * right, nil
	case "/":
		if right == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return left / right, nil
	default:
		return 0, fmt.Errorf("unknown operator: %s", op)
	}
}

// Reset clears the value history.
func (e *ExpressionEvaluator) Reset() {
	e.valueHistory = e.valueHistory[:0]
	e.valueNumber = 0
}
