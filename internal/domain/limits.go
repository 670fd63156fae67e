package domain

import (
	"encoding/json"
	"fmt"
)

// Bounds for a day/week limit pair.
const (
	MinPerDay  = 1
	MaxPerDay  = 50
	MinPerWeek = 1
	MaxPerWeek = 200
)

// Field names and reasons reported by ValidationError.
const (
	FieldMaxPerDay  = "max_per_day"
	FieldMaxPerWeek = "max_per_week"

	ReasonOutOfRange    = "out_of_range"
	ReasonExceedsWeekly = "exceeds_weekly"
)

// ValidationError reports a rejected limit value.
type ValidationError struct {
	Field  string
	Reason string
	Value  int
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonOutOfRange:
		lo, hi := fieldBounds(e.Field)
		return fmt.Sprintf("%s must be between %d and %d, got %d", e.Field, lo, hi, e.Value)
	case ReasonExceedsWeekly:
		return fmt.Sprintf("%s (%d) must not exceed %s", e.Field, e.Value, FieldMaxPerWeek)
	default:
		return fmt.Sprintf("%s is invalid: %s", e.Field, e.Reason)
	}
}

// ValidationDetails exposes the error fields for API responses.
func (e *ValidationError) ValidationDetails() map[string]any {
	return map[string]any{
		"field":  e.Field,
		"reason": e.Reason,
		"value":  e.Value,
	}
}

func fieldBounds(field string) (int, int) {
	if field == FieldMaxPerWeek {
		return MinPerWeek, MaxPerWeek
	}
	return MinPerDay, MaxPerDay
}

// LimitPolicy is a validated day/week cap pair. The zero value is not valid;
// build one with NewLimitPolicy.
type LimitPolicy struct {
	maxPerDay  int
	maxPerWeek int
}

// NewLimitPolicy validates and builds a LimitPolicy.
func NewLimitPolicy(maxPerDay, maxPerWeek int) (LimitPolicy, error) {
	if err := validateDay(maxPerDay); err != nil {
		return LimitPolicy{}, err
	}
	if err := validateWeek(maxPerWeek); err != nil {
		return LimitPolicy{}, err
	}
	if maxPerDay > maxPerWeek {
		return LimitPolicy{}, &ValidationError{Field: FieldMaxPerDay, Reason: ReasonExceedsWeekly, Value: maxPerDay}
	}
	return LimitPolicy{maxPerDay: maxPerDay, maxPerWeek: maxPerWeek}, nil
}

// MustLimitPolicy is NewLimitPolicy for compile-time constants; it panics on invalid input.
func MustLimitPolicy(maxPerDay, maxPerWeek int) LimitPolicy {
	p, err := NewLimitPolicy(maxPerDay, maxPerWeek)
	if err != nil {
		panic(err)
	}
	return p
}

// MaxPerDay returns the daily cap.
func (p LimitPolicy) MaxPerDay() int { return p.maxPerDay }

// MaxPerWeek returns the weekly cap.
func (p LimitPolicy) MaxPerWeek() int { return p.maxPerWeek }

// IsZero reports whether the policy was never built.
func (p LimitPolicy) IsZero() bool { return p.maxPerDay == 0 && p.maxPerWeek == 0 }

type limitPolicyJSON struct {
	MaxPerDay  int `json:"max_per_day"`
	MaxPerWeek int `json:"max_per_week"`
}

// MarshalJSON encodes the policy as {"max_per_day":n,"max_per_week":n}.
func (p LimitPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(limitPolicyJSON{MaxPerDay: p.maxPerDay, MaxPerWeek: p.maxPerWeek})
}

// UnmarshalJSON decodes and validates the policy.
func (p *LimitPolicy) UnmarshalJSON(data []byte) error {
	var raw limitPolicyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	policy, err := NewLimitPolicy(raw.MaxPerDay, raw.MaxPerWeek)
	if err != nil {
		return err
	}
	*p = policy
	return nil
}

func validateDay(v int) error {
	if v < MinPerDay || v > MaxPerDay {
		return &ValidationError{Field: FieldMaxPerDay, Reason: ReasonOutOfRange, Value: v}
	}
	return nil
}

func validateWeek(v int) error {
	if v < MinPerWeek || v > MaxPerWeek {
		return &ValidationError{Field: FieldMaxPerWeek, Reason: ReasonOutOfRange, Value: v}
	}
	return nil
}
