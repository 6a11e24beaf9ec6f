package interview

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ConditionType identifies one of the vascular condition questionnaires.
type ConditionType string

const (
	ConditionPAD      ConditionType = "pad"
	ConditionVenous   ConditionType = "venous"
	ConditionCarotid  ConditionType = "carotid"
	ConditionWound    ConditionType = "wound"
	ConditionDialysis ConditionType = "dialysis"
	ConditionAAA      ConditionType = "aaa"
	ConditionDVT      ConditionType = "dvt"
)

// Condition pairs a condition type with its display label.
type Condition struct {
	Type  ConditionType `json:"id"`
	Label string        `json:"name"`
}

var conditions = [...]Condition{
	{ConditionPAD, "Peripheral Arterial Disease (PAD)"},
	{ConditionVenous, "Venous Disease"},
	{ConditionCarotid, "Carotid Disease"},
	{ConditionWound, "Wound Care / Diabetic Foot"},
	{ConditionDialysis, "Dialysis Access"},
	{ConditionAAA, "Abdominal Aortic Aneurysm (AAA)"},
	{ConditionDVT, "DVT/PE"},
}

// Conditions returns the closed set of condition types in landing-screen order.
func Conditions() []Condition {
	out := make([]Condition, len(conditions))
	copy(out, conditions[:])
	return out
}

// Label returns the human-readable name of the condition, or the raw
// identifier when it is not part of the closed set.
func (c ConditionType) Label() string {
	for _, cond := range conditions {
		if cond.Type == c {
			return cond.Label
		}
	}
	return string(c)
}

// Valid reports whether c is one of the known condition types.
func (c ConditionType) Valid() bool {
	for _, cond := range conditions {
		if cond.Type == c {
			return true
		}
	}
	return false
}

// ParseConditionType converts a caller-supplied identifier into a ConditionType.
func ParseConditionType(s string) (ConditionType, error) {
	ct := ConditionType(strings.ToLower(strings.TrimSpace(s)))
	if !ct.Valid() {
		return "", fmt.Errorf("unknown condition type %q", s)
	}
	return ct, nil
}

// ParseConditionTypes parses a list of identifiers, preserving order.
func ParseConditionTypes(ids []string) ([]ConditionType, error) {
	out := make([]ConditionType, 0, len(ids))
	for _, id := range ids {
		ct, err := ParseConditionType(id)
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, nil
}

// Answer is the recorded response to one question. Checkbox, free-text,
// single-select and multi-select questions populate different fields; a
// question can carry more than one of them over its lifetime, so readers
// pick the field that matches the question's shape.
type Answer struct {
	Checked bool     `json:"checked,omitempty"`
	Text    string   `json:"text,omitempty"`
	Value   string   `json:"value,omitempty"`
	Values  []string `json:"values,omitempty"`
}

// Answers maps stable question identifiers to their recorded answers.
// Missing entries read as unchecked / empty.
type Answers map[string]Answer

// Checked reports the checkbox state of a question.
func (a Answers) Checked(id string) bool {
	return a[id].Checked
}

// AnyChecked reports whether at least one of the questions is checked.
func (a Answers) AnyChecked(ids ...string) bool {
	for _, id := range ids {
		if a[id].Checked {
			return true
		}
	}
	return false
}

// Text returns the free-text answer of a question, trimmed.
func (a Answers) Text(id string) string {
	return strings.TrimSpace(a[id].Text)
}

// Value returns the single-select value of a question.
func (a Answers) Value(id string) string {
	return strings.TrimSpace(a[id].Value)
}

// Values returns the multi-select values of a question.
func (a Answers) Values(id string) []string {
	return a[id].Values
}

// TextOrValue returns the free-text answer, falling back to the selected value.
func (a Answers) TextOrValue(id string) string {
	if t := a.Text(id); t != "" {
		return t
	}
	return a.Value(id)
}

// Documented reports whether a question has any non-empty answer.
func (a Answers) Documented(id string) bool {
	ans, ok := a[id]
	if !ok {
		return false
	}
	return ans.Checked || strings.TrimSpace(ans.Text) != "" || strings.TrimSpace(ans.Value) != "" || len(ans.Values) > 0
}

// Number parses the leading numeric portion of a free-text answer
// ("5.8 cm" -> 5.8). It returns NaN when no number can be read, so
// comparisons against the result are false.
func (a Answers) Number(id string) float64 {
	return ParseLeadingFloat(a.TextOrValue(id))
}

// CheckedCount returns the number of answers with a checked flag.
func (a Answers) CheckedCount() int {
	n := 0
	for _, ans := range a {
		if ans.Checked {
			n++
		}
	}
	return n
}

// NarrativeCount returns the number of free-text answers longer than minLen runes.
func (a Answers) NarrativeCount(minLen int) int {
	n := 0
	for _, ans := range a {
		if utf8.RuneCountInString(strings.TrimSpace(ans.Text)) > minLen {
			n++
		}
	}
	return n
}

// ParseLeadingFloat reads the first decimal number in s. Leading text such
// as "~" or "approx" is skipped. A sign counts only when it directly
// precedes the number. Returns NaN when s has no digits.
func ParseLeadingFloat(s string) float64 {
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return math.NaN()
	}
	if start > 0 && s[start-1] == '.' {
		start--
	}
	end := start
	if start > 0 && (s[start-1] == '-' || s[start-1] == '+') {
		start--
	}
	seenDot := false
	for end < len(s) {
		ch := s[end]
		if ch >= '0' && ch <= '9' {
			end++
			continue
		}
		if ch == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[start:end], "."), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// VisitContext carries per-visit settings that select the E&M code family.
type VisitContext struct {
	NewPatient bool `json:"newPatient"`
}
