package coding

import (
	"fmt"

	"github.com/vascintake/vascintake/internal/domain/interview"
)

// emRung is one level of an E&M ladder with the minimum score that reaches it.
type emRung struct {
	code     string
	minScore int
}

// Ladders are ordered lowest level first.
var (
	newPatientLadder = []emRung{
		{"99202", 0},
		{"99203", 3},
		{"99204", 6},
		{"99205", 10},
	}
	establishedLadder = []emRung{
		{"99211", 0},
		{"99212", 1},
		{"99213", 3},
		{"99214", 6},
		{"99215", 10},
	}
)

// narrativeMinLen is the length a free-text answer must exceed to count
// toward encounter complexity.
const narrativeMinLen = 10

// fallbackCondition scores the visit when no condition is selected.
const fallbackCondition = interview.ConditionPAD

// severityBoosts adds up to two points for high-severity findings. The
// first matching row per condition wins.
var severityBoosts = map[interview.ConditionType][]struct {
	when   predicate
	points int
}{
	interview.ConditionPAD: {
		{anyOf(padWound, padGangrene), 2},
		{padRestPain, 1},
	},
	interview.ConditionCarotid: {
		{anyOf(carotidTIA, carotidStroke), 2},
		{carotidAmaurosis, 1},
	},
	interview.ConditionWound: {
		{woundExposed, 2},
		{woundCellulitis, 1},
	},
	interview.ConditionDVT: {
		{dvtPE, 2},
	},
	interview.ConditionAAA: {
		{aaaRepairSize, 2},
		{checked("abdominal_pain", "back_pain"), 1},
	},
	interview.ConditionVenous: {
		{venousUlcer, 1},
	},
	interview.ConditionDialysis: {
		{dialysisLowFlow, 1},
	},
}

func severityBoost(ct interview.ConditionType, f *facts) int {
	for _, row := range severityBoosts[ct] {
		if row.when(f) {
			return row.points
		}
	}
	return 0
}

// EMLadder returns the E&M codes for the visit type, lowest level first.
func EMLadder(newPatient bool) []string {
	ladder := ladderFor(newPatient)
	out := make([]string, len(ladder))
	for i, r := range ladder {
		out[i] = r.code
	}
	return out
}

func ladderFor(newPatient bool) []emRung {
	if newPatient {
		return newPatientLadder
	}
	return establishedLadder
}

// ComplexityScore is the encounter complexity used to pick the E&M level:
// checked answers plus narrative answers plus the condition's severity boost.
func ComplexityScore(ct interview.ConditionType, answers interview.Answers) int {
	return complexityScore(ct, newFacts(answers))
}

func complexityScore(ct interview.ConditionType, f *facts) int {
	return f.answers.CheckedCount() + f.answers.NarrativeCount(narrativeMinLen) + severityBoost(ct, f)
}

// SuggestEMLevel picks exactly one office-visit code for the condition.
// The top rung is reported at medium confidence since self-reported
// complexity at that level needs review.
func (e *Engine) SuggestEMLevel(ct interview.ConditionType, answers interview.Answers, visit interview.VisitContext) CodeSuggestion {
	return e.emLevel(ct, newFacts(answers), visit)
}

func (e *Engine) emLevel(ct interview.ConditionType, f *facts, visit interview.VisitContext) CodeSuggestion {
	score := complexityScore(ct, f)
	ladder := ladderFor(visit.NewPatient)

	idx := 0
	for i, r := range ladder {
		if score >= r.minScore {
			idx = i
		}
	}
	conf := ConfidenceHigh
	if idx == len(ladder)-1 {
		conf = ConfidenceMedium
	}
	visitType := "established"
	if visit.NewPatient {
		visitType = "new"
	}
	reason := fmt.Sprintf("Complexity score %d (%s patient, %s)", score, visitType, ct.Label())
	return e.procedure(ladder[idx].code, conf, reason)
}

// emIndex returns the position of code in the ladder, or -1.
func emIndex(ladder []emRung, code string) int {
	for i, r := range ladder {
		if r.code == code {
			return i
		}
	}
	return -1
}
