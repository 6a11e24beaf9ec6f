package coding

import (
	"fmt"

	"github.com/vascintake/vascintake/internal/domain/interview"
)

// maxMultiConditionBoost caps how many ladder rungs extra conditions add.
const maxMultiConditionBoost = 3

// SuggestMultiConditionCodes merges suggestions across every selected
// condition. Codes are deduplicated in condition order with the first
// occurrence kept, and every surviving suggestion is tagged with the
// condition that produced it. A single E&M code is computed from the first
// condition and raised one rung per additional condition, up to three rungs
// and never past the top of the ladder.
func (e *Engine) SuggestMultiConditionCodes(cts []interview.ConditionType, answers interview.Answers, visit interview.VisitContext) MultiConditionResult {
	f := newFacts(answers)

	icd10 := make([]CodeSuggestion, 0)
	cpt := make([]CodeSuggestion, 0)
	seenDx := make(map[string]bool)
	seenPx := make(map[string]bool)

	for _, ct := range cts {
		for _, s := range e.suggestICD10(ct, f) {
			if seenDx[s.Code] {
				continue
			}
			seenDx[s.Code] = true
			icd10 = append(icd10, s.withOrigin(ct))
		}
		for _, s := range e.suggestCPT(ct, f) {
			if s.IsEM() || seenPx[s.Code] {
				continue
			}
			seenPx[s.Code] = true
			cpt = append(cpt, s.withOrigin(ct))
		}
	}

	primary := fallbackCondition
	if len(cts) > 0 {
		primary = cts[0]
	}
	em := e.emLevel(primary, f, visit)

	if boost := min(len(cts)-1, maxMultiConditionBoost); boost > 0 {
		ladder := ladderFor(visit.NewPatient)
		base := em.Code
		idx := min(emIndex(ladder, base)+boost, len(ladder)-1)
		em = e.procedure(ladder[idx].code, ConfidenceHigh,
			fmt.Sprintf("Elevated complexity: %d conditions addressed in one visit (base %s, %s)", len(cts), base, em.Reason))
	}

	return MultiConditionResult{
		ICD10:          icd10,
		CPT:            append([]CodeSuggestion{em}, cpt...),
		EMLevel:        em,
		ConditionCount: len(cts),
	}
}
