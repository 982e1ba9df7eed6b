package debugger

import (
	"testing"

	"github.com/lookbusy1344/ndiff/register"
)

func TestExpressionEvaluator_Numbers(t *testing.T) {
	eval := NewExpressionEvaluator()
	reg := register.New(16)

	val, err := eval.EvaluateExpression("42", reg)
	if err != nil {
		t.Fatalf("EvaluateExpression failed: %v", err)
	}
	if val != 42 {
		t.Errorf("val = %v, want 42", val)
	}

	val, err = eval.EvaluateExpression("-0.5", reg)
	if err != nil {
		t.Fatalf("EvaluateExpression failed: %v", err)
	}
	if val != -0.5 {
		t.Errorf("val = %v, want -0.5", val)
	}
}

func TestExpressionEvaluator_Registers(t *testing.T) {
	eval := NewExpressionEvaluator()
	reg := register.New(16)
	reg.Set(6, 3.5)

	val, err := eval.EvaluateExpression("$6", reg)
	if err != nil {
		t.Fatalf("EvaluateExpression failed: %v", err)
	}
	if val != 3.5 {
		t.Errorf("val = %v, want 3.5", val)
	}
}

func TestExpressionEvaluator_Arithmetic(t *testing.T) {
	eval := NewExpressionEvaluator()
	reg := register.New(16)
	reg.Set(5, 2)
	reg.Set(6, 3)

	val, err := eval.EvaluateExpression("$5 + $6", reg)
	if err != nil {
		t.Fatalf("EvaluateExpression failed: %v", err)
	}
	if val != 5 {
		t.Errorf("val = %v, want 5", val)
	}

	val, err = eval.EvaluateExpression("$6 * 2", reg)
	if err != nil {
		t.Fatalf("EvaluateExpression failed: %v", err)
	}
	if val != 6 {
		t.Errorf("val = %v, want 6", val)
	}
}

func TestExpressionEvaluator_Comparisons(t *testing.T) {
	eval := NewExpressionEvaluator()
	reg := register.New(16)
	reg.Set(6, 0.02)

	ok, err := eval.Evaluate("$6 > 0.01", reg)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !ok {
		t.Error("expected $6 > 0.01 to be true")
	}

	ok, err = eval.Evaluate("$6 < 0.01", reg)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if ok {
		t.Error("expected $6 < 0.01 to be false")
	}
}

func TestExpressionEvaluator_BooleanEvaluation(t *testing.T) {
	eval := NewExpressionEvaluator()
	reg := register.New(16)
	reg.Set(6, 0)

	ok, err := eval.Evaluate("$6", reg)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if ok {
		t.Error("zero register should evaluate false")
	}

	reg.Set(6, 1)
	ok, err = eval.Evaluate("$6", reg)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !ok {
		t.Error("non-zero register should evaluate true")
	}
}

func TestExpressionEvaluator_ValueHistory(t *testing.T) {
	eval := NewExpressionEvaluator()
	reg := register.New(16)

	if _, err := eval.EvaluateExpression("10", reg); err != nil {
		t.Fatalf("EvaluateExpression failed: %v", err)
	}

	if eval.GetValueNumber() != 1 {
		t.Errorf("GetValueNumber() = %d, want 1", eval.GetValueNumber())
	}

	val, err := eval.GetValue(1)
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if val != 10 {
		t.Errorf("val = %v, want 10", val)
	}

	if _, err := eval.GetValue(99); err == nil {
		t.Error("expected error for out-of-range value reference")
	}
}

func TestExpressionEvaluator_Errors(t *testing.T) {
	eval := NewExpressionEvaluator()
	reg := register.New(16)

	if _, err := eval.EvaluateExpression("not-a-number", reg); err == nil {
		t.Error("expected error for invalid expression")
	}

	if _, err := eval.EvaluateExpression("1 / 0", reg); err == nil {
		t.Error("expected error for division by zero")
	}
}

func TestExpressionEvaluator_Reset(t *testing.T) {
	eval := NewExpressionEvaluator()
	reg := register.New(16)

	if _, err := eval.EvaluateExpression("1", reg); err != nil {
		t.Fatalf("EvaluateExpression failed: %v", err)
	}
	if _, err := eval.EvaluateExpression("2", reg); err != nil {
		t.Fatalf("EvaluateExpression failed: %v", err)
	}

	eval.Reset()

	if eval.GetValueNumber() != 0 {
		t.Errorf("GetValueNumber() after reset = %d, want 0", eval.GetValueNumber())
	}
}
