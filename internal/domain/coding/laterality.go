package coding

import (
	"strings"
	"unicode"

	"github.com/vascintake/vascintake/internal/domain/interview"
)

// lateralitySource reads the text that may carry a side-of-body hint.
type lateralitySource struct {
	question string
	read     func(a interview.Answers) string
}

// lateralityPriority is evaluated top to bottom; the first source that
// resolves to a side wins.
var lateralityPriority = []lateralitySource{
	{"pain_location", textOrValue("pain_location")},
	{"swelling_bilateral", textOrValue("swelling_bilateral")},
	{"affected_side", textOrValue("affected_side")},
	{"wound_location", textOrValue("wound_location")},
	{"access_location", textOrValue("access_location")},
	{"pain_location[]", joinedValues("pain_location")},
}

func textOrValue(id string) func(interview.Answers) string {
	return func(a interview.Answers) string { return a.TextOrValue(id) }
}

func joinedValues(id string) func(interview.Answers) string {
	return func(a interview.Answers) string { return strings.Join(a.Values(id), " ") }
}

// DetectLaterality inspects the location questions in priority order and
// returns the first side found. LateralityUnspecified means no hint.
func DetectLaterality(answers interview.Answers) Laterality {
	for _, src := range lateralityPriority {
		if side := matchSide(src.read(answers)); side != LateralityUnspecified {
			return side
		}
	}
	return LateralityUnspecified
}

// matchSide looks for side words. Words are split on anything that is not
// a letter, so "left_calf" and "left-sided" match but "bright" does not.
func matchSide(s string) Laterality {
	var hasRight, hasLeft, hasBoth bool
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		switch w {
		case "right":
			hasRight = true
		case "left":
			hasLeft = true
		case "bilateral", "both":
			hasBoth = true
		}
	}
	switch {
	case hasBoth:
		return LateralityBilateral
	case hasRight && !hasLeft:
		return LateralityRight
	case hasLeft && !hasRight:
		return LateralityLeft
	}
	return LateralityUnspecified
}
