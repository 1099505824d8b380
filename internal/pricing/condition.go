// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package pricing

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/toniewert/toniewert/internal/platform/apperr"
)

// Condition describes the physical state of a figure. The sample itself
// is condition-agnostic; a multiplicative factor maps the mixed-market
// baseline onto a condition.
type Condition string

const (
	ConditionOVP       Condition = "ovp"
	ConditionNewOpen   Condition = "new_open"
	ConditionVeryGood  Condition = "very_good"
	ConditionGood      Condition = "good"
	ConditionPlayed    Condition = "played"
	ConditionDefective Condition = "defective"

	DefaultCondition = ConditionVeryGood
)

// conditionFactors are calibrated against observed spreads between
// sealed and played resale prices. very_good is the 1.0 baseline.
var conditionFactors = map[Condition]float64{
	ConditionOVP:       1.35,
	ConditionNewOpen:   1.20,
	ConditionVeryGood:  1.00,
	ConditionGood:      0.90,
	ConditionPlayed:    0.75,
	ConditionDefective: 0.35,
}

// ParseCondition validates a condition string, defaulting when empty.
func ParseCondition(raw string) (Condition, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultCondition, nil
	}

	condition := Condition(strings.ToLower(strings.TrimSpace(raw)))
	if _, known := conditionFactors[condition]; !known {
		return "", apperr.ValidationError(fmt.Sprintf("unknown condition %q", raw))
	}
	return condition, nil
}

// Factor returns the price multiplier for the condition.
func (condition Condition) Factor() float64 {
	if factor, known := conditionFactors[condition]; known {
		return factor
	}
	return 1.0
}

// Conditions lists all known conditions, most valuable first.
func Conditions() []Condition {
	out := make([]Condition, 0, len(conditionFactors))
	for condition := range conditionFactors {
		out = append(out, condition)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Factor() > out[j].Factor()
	})
	return out
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
