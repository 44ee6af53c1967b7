package plan

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyPlan is returned when input parses but holds no plan.
var ErrEmptyPlan = errors.New("empty EXPLAIN output")

func ParseJSONPlan(data []byte) ([]ExplainOutput, error) {
	var plans []ExplainOutput
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, fmt.Errorf("invalid EXPLAIN JSON: %w", err)
	}
	if len(plans) == 0 {
		return nil, ErrEmptyPlan
	}
	if plans[0].Plan.NodeType == "" {
		return nil, fmt.Errorf("%w: first entry has no Plan", ErrEmptyPlan)
	}
	return plans, nil
}
