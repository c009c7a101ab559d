package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/Knetic/govaluate"
)

// DefaultFormula awards 500 for a correct answer plus up to 500 for speed.
const DefaultFormula = "correct ? 500 + 500 * speed : 0"

// Formula computes points for an answer. Available parameters are correct,
// speed, latency_ms and time_limit_ms.
type Formula struct {
	source string
	expr   *govaluate.EvaluableExpression
}

// NewFormula parses expression, falling back to DefaultFormula when empty.
func NewFormula(expression string) (*Formula, error) {
	src := strings.TrimSpace(expression)
	if src == "" {
		src = DefaultFormula
	}
	expr, err := govaluate.NewEvaluableExpression(src)
	if err != nil {
		return nil, fmt.Errorf("parse scoring formula: %w", err)
	}
	return &Formula{source: src, expr: expr}, nil
}

func (f *Formula) String() string {
	return f.source
}

// Points evaluates the formula. Results are rounded and never negative; a
// non-numeric result scores zero.
func (f *Formula) Points(correct bool, latencyMs, timeLimitMs int64) (int64, error) {
	params := map[string]interface{}{
		"correct":       correct,
		"speed":         speed(latencyMs, timeLimitMs),
		"latency_ms":    float64(latencyMs),
		"time_limit_ms": float64(timeLimitMs),
	}
	result, err := f.expr.Evaluate(params)
	if err != nil {
		return 0, fmt.Errorf("evaluate scoring formula: %w", err)
	}
	switch v := result.(type) {
	case float64:
		if math.IsNaN(v) || v <= 0 {
			return 0, nil
		}
		return int64(math.Round(v)), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, nil
	}
}

// speed is 1 for an instant answer, 0 at or past the limit, and 0 when the
// activation has no limit.
func speed(latencyMs, timeLimitMs int64) float64 {
	if timeLimitMs <= 0 {
		return 0
	}
	if latencyMs < 0 {
		latencyMs = 0
	}
	s := 1 - float64(latencyMs)/float64(timeLimitMs)
	if s < 0 {
		return 0
	}
	return s
}
