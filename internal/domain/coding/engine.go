package coding

import (
	"sync"

	"github.com/vascintake/vascintake/internal/domain/interview"
)

// Engine turns interview answers into code suggestions against a catalog.
// All methods are pure: they read only the immutable catalog and rule
// tables and allocate fresh results, so an Engine may be shared freely.
type Engine struct {
	catalog *Catalog
}

// NewEngine creates an engine over the given catalog; nil selects the
// built-in catalog.
func NewEngine(catalog *Catalog) *Engine {
	if catalog == nil {
		catalog = BuiltinCatalog()
	}
	return &Engine{catalog: catalog}
}

var defaultEngine = sync.OnceValue(func() *Engine { return NewEngine(nil) })

// Catalog returns the catalog the engine resolves codes against.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// SuggestICD10 returns diagnosis suggestions for one condition: the
// condition rows first, then the comorbidity rows. Duplicate codes keep
// their first occurrence.
func (e *Engine) SuggestICD10(ct interview.ConditionType, answers interview.Answers) []CodeSuggestion {
	return e.suggestICD10(ct, newFacts(answers))
}

func (e *Engine) suggestICD10(ct interview.ConditionType, f *facts) []CodeSuggestion {
	raw := evaluate(icd10Rules[ct], f)
	raw = append(raw, evaluate(comorbidityRules, f)...)

	seen := make(map[string]bool, len(raw))
	out := make([]CodeSuggestion, 0, len(raw))
	for _, r := range raw {
		if seen[r.code] {
			continue
		}
		seen[r.code] = true
		out = append(out, e.diagnosis(r))
	}
	return out
}

// SuggestCPT returns procedure suggestions for one condition. The first
// entry is always the E&M visit code from SuggestEMLevel.
func (e *Engine) SuggestCPT(ct interview.ConditionType, answers interview.Answers, visit interview.VisitContext) []CodeSuggestion {
	f := newFacts(answers)
	return append([]CodeSuggestion{e.emLevel(ct, f, visit)}, e.suggestCPT(ct, f)...)
}

// suggestCPT returns the condition's procedure rows without the E&M code.
func (e *Engine) suggestCPT(ct interview.ConditionType, f *facts) []CodeSuggestion {
	var out []CodeSuggestion
	for _, r := range evaluate(cptRules[ct], f) {
		out = append(out, e.procedure(r.code, r.confidence, r.reason))
	}
	return out
}

// CalculateRVU sums the relative value units of the given procedure codes.
// Codes missing from the catalog contribute nothing.
func (e *Engine) CalculateRVU(codes []string) float64 {
	var total float64
	for _, code := range codes {
		total += e.catalog.RVU(code)
	}
	return total
}

func (e *Engine) diagnosis(r rawSuggestion) CodeSuggestion {
	return CodeSuggestion{
		Code:        r.code,
		Confidence:  r.confidence,
		Reason:      r.reason,
		Description: e.catalog.DiagnosisDescription(r.code),
	}
}

func (e *Engine) procedure(code string, conf Confidence, reason string) CodeSuggestion {
	rvu := e.catalog.RVU(code)
	return CodeSuggestion{
		Code:        code,
		Confidence:  conf,
		Reason:      reason,
		Description: e.catalog.ProcedureDescription(code),
		RVU:         &rvu,
	}
}

// SuggestICD10 runs the default engine. See (*Engine).SuggestICD10.
func SuggestICD10(ct interview.ConditionType, answers interview.Answers) []CodeSuggestion {
	return defaultEngine().SuggestICD10(ct, answers)
}

// SuggestCPT runs the default engine. See (*Engine).SuggestCPT.
func SuggestCPT(ct interview.ConditionType, answers interview.Answers, visit interview.VisitContext) []CodeSuggestion {
	return defaultEngine().SuggestCPT(ct, answers, visit)
}

// SuggestEMLevel runs the default engine. See (*Engine).SuggestEMLevel.
func SuggestEMLevel(ct interview.ConditionType, answers interview.Answers, visit interview.VisitContext) CodeSuggestion {
	return defaultEngine().SuggestEMLevel(ct, answers, visit)
}

// SuggestMultiConditionCodes runs the default engine. See
// (*Engine).SuggestMultiConditionCodes.
func SuggestMultiConditionCodes(cts []interview.ConditionType, answers interview.Answers, visit interview.VisitContext) MultiConditionResult {
	return defaultEngine().SuggestMultiConditionCodes(cts, answers, visit)
}

// CalculateRVU sums RVUs against the built-in catalog.
func CalculateRVU(codes []string) float64 {
	return defaultEngine().CalculateRVU(codes)
}
