package scoring

import (
	"errors"
	"fmt"

	"github.com/vascintake/vascintake/internal/domain/interview"
)

type calculator func(a interview.Answers) (Result, error)

var calculators = map[System]calculator{
	SystemRutherford:       rutherford,
	SystemWIfI:             wifi,
	SystemCEAP:             ceap,
	SystemWagner:           wagner,
	SystemCarotidGrading:   carotidGrading,
	SystemNIHSS:            nihss,
	SystemABI:              abi,
	SystemDiabeticFootRisk: diabeticFootRisk,
}

// ForCondition returns the scoring systems that apply to a condition.
func ForCondition(ct interview.ConditionType) []Definition {
	systems := systemsByCondition[ct]
	out := make([]Definition, 0, len(systems))
	for _, s := range systems {
		out = append(out, definitions[s])
	}
	return out
}

// Calculate runs one scoring system against the answers.
func Calculate(s System, a interview.Answers) (Result, error) {
	calc, ok := calculators[s]
	if !ok {
		return Result{}, fmt.Errorf("unknown scoring system %q", s)
	}
	if a == nil {
		a = interview.Answers{}
	}
	r, err := calc(a)
	if err != nil {
		return Result{}, err
	}
	r.System = s
	r.Name = definitions[s].Name
	return r, nil
}

// Evaluate runs every system applicable to the condition. Systems whose
// inputs are missing are skipped; any other failure is returned.
func Evaluate(ct interview.ConditionType, a interview.Answers) ([]Result, error) {
	systems := systemsByCondition[ct]
	out := make([]Result, 0, len(systems))
	for _, s := range systems {
		r, err := Calculate(s, a)
		if errors.Is(err, ErrInsufficientData) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s, err)
		}
		out = append(out, r)
	}
	return out, nil
}
