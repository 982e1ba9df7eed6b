package api

import (
	"strconv"
	"time"

	"github.com/lookbusy1344/ndiff/register"
)

// SessionCreateRequest starts a monitored comparison: the pair of input
// files, an optional rule file, and the same tunables ndiff's own flags
// expose.
type SessionCreateRequest struct {
	LhsPath   string `json:"lhsPath"`
	RhsPath   string `json:"rhsPath"`
	RulesPath string `json:"rulesPath,omitempty"`
	MaxDiffs  int    `json:"maxDiffs,omitempty"`
	Blank     bool   `json:"blank,omitempty"`
}

// SessionCreateResponse acknowledges a started session.
type SessionCreateResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStatusResponse reports a session's current driver-loop position.
type SessionStatusResponse struct {
	SessionID       string `json:"sessionId"`
	State           string `json:"state"`
	Row             int    `json:"row"`
	Col             int    `json:"col"`
	Differences     int    `json:"differences"`
	NumbersCompared int64  `json:"numbersCompared"`
	Error           string `json:"error,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// SuccessResponse represents a simple success response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RowProgressEvent is the diagnostic payload broadcast to subscribed
// WebSocket clients after every row the driver loop steps.
type RowProgressEvent struct {
	Row             int                `json:"row"`
	Col             int                `json:"col"`
	Differences     int                `json:"differences"`
	NumbersCompared int64              `json:"numbersCompared"`
	Registers       map[string]float64 `json:"registers"`
}

// toMap flattens a RowProgressEvent into the broadcaster's generic
// map[string]interface{} payload shape.
func (e RowProgressEvent) toMap() map[string]interface{} {
	return map[string]interface{}{
		"row":             e.Row,
		"col":             e.Col,
		"differences":     e.Differences,
		"numbersCompared": e.NumbersCompared,
		"registers":       e.Registers,
	}
}

// registerSnapshot collects the non-zero registers for a progress event;
// a long-running comparison's register file is mostly zero outside the
// evaluator's own conventional slots, so broadcasting every index would
// just be noise.
func registerSnapshot(reg *register.File) map[string]float64 {
	snap := make(map[string]float64)
	for i := 1; i <= reg.Len(); i++ {
		if v := reg.Get(i, 0); v != 0 {
			snap[registerName(i)] = v
		}
	}
	return snap
}

func registerName(i int) string {
	switch i {
	case register.LHS:
		return "lhs"
	case register.RHS:
		return "rhs"
	case register.Diff:
		return "diff"
	case register.Abs:
		return "abs"
	case register.Rel:
		return "rel"
	case register.Dig:
		return "dig"
	default:
		return "$" + strconv.Itoa(i)
	}
}
