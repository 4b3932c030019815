// ABOUTME: Search constraint encoding for Bubble list endpoints
// ABOUTME: Validates constraint types and serializes them into the constraints query parameter
package bubble

import (
	"encoding/json"
	"fmt"
)

// ConstraintType is one of the comparison operators the Data API accepts.
type ConstraintType string

const (
	Equals         ConstraintType = "equals"
	NotEqual       ConstraintType = "not equal"
	GreaterThan    ConstraintType = "greater than"
	LessThan       ConstraintType = "less than"
	TextContains   ConstraintType = "text contains"
	TextNotContain ConstraintType = "text not contain"
	IsEmpty        ConstraintType = "empty"
	IsNotEmpty     ConstraintType = "not empty"
	In             ConstraintType = "in"
	NotIn          ConstraintType = "not in"
)

var constraintTypes = map[ConstraintType]bool{
	Equals: true, NotEqual: true, GreaterThan: true, LessThan: true,
	TextContains: true, TextNotContain: true, IsEmpty: true, IsNotEmpty: true,
	In: true, NotIn: true,
}

// Valid reports whether t is a known constraint type.
func (t ConstraintType) Valid() bool {
	return constraintTypes[t]
}

// Constraint filters a list call. Key is the backend field name.
type Constraint struct {
	Key   string         `json:"key"`
	Type  ConstraintType `json:"constraint_type"`
	Value any            `json:"value,omitempty"`
}

func Where(key string, t ConstraintType, value any) Constraint {
	return Constraint{Key: key, Type: t, Value: value}
}

func validateConstraints(cs []Constraint) error {
	for i, c := range cs {
		if c.Key == "" {
			return fmt.Errorf("constraint %d: key is required", i)
		}
		if !c.Type.Valid() {
			return fmt.Errorf("constraint %d: unknown constraint type %q", i, c.Type)
		}
		needsValue := c.Type != IsEmpty && c.Type != IsNotEmpty
		if needsValue && c.Value == nil {
			return fmt.Errorf("constraint %d: %q requires a value", i, c.Type)
		}
	}
	return nil
}

// encodeConstraints returns the JSON array for the constraints parameter,
// or "" when there are none. url.Values handles the percent-encoding.
func encodeConstraints(cs []Constraint) (string, error) {
	if len(cs) == 0 {
		return "", nil
	}
	if err := validateConstraints(cs); err != nil {
		return "", err
	}
	data, err := json.Marshal(cs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
