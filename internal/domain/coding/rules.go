package coding

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/vascintake/vascintake/internal/domain/interview"
)

// facts is the per-call view of the interview that rule predicates read.
// It is computed once per suggestion call and never shared.
type facts struct {
	answers interview.Answers
	side    Laterality
	aaaSize float64 // cm, NaN when not documented
	a1c     float64 // percent, NaN when not documented
	site    ulcerSite
}

func newFacts(answers interview.Answers) *facts {
	if answers == nil {
		answers = interview.Answers{}
	}
	return &facts{
		answers: answers,
		side:    DetectLaterality(answers),
		aaaSize: aneurysmSizeCM(answers.TextOrValue("size")),
		a1c:     firstNumber(answers, "diabetes_a1c", "diabetes_control"),
		site:    detectUlcerSite(answers.TextOrValue("wound_location")),
	}
}

func firstNumber(a interview.Answers, ids ...string) float64 {
	for _, id := range ids {
		if v := a.Number(id); !math.IsNaN(v) {
			return v
		}
	}
	return math.NaN()
}

// aneurysmSizeCM reads an aneurysm diameter in cm. Millimeters are
// converted; a bare number is taken as cm. Non-positive sizes read as not
// documented.
func aneurysmSizeCM(s string) float64 {
	v := interview.ParseLeadingFloat(s)
	if !(v > 0) {
		return math.NaN()
	}
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		switch w {
		case "mm", "millimeter", "millimeters", "millimetre", "millimetres":
			return v / 10
		case "cm", "centimeter", "centimeters", "centimetre", "centimetres":
			return v
		}
	}
	return v
}

// expand fills a reason template. Supported placeholders: {side}, {size},
// {a1c}, {site}.
func (f *facts) expand(tmpl string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	side := string(f.side)
	if side == "" {
		side = "unspecified side"
	}
	size, a1c := "size not documented", "A1C not documented"
	if !math.IsNaN(f.aaaSize) {
		size = fmt.Sprintf("%.1f cm", f.aaaSize)
	}
	if !math.IsNaN(f.a1c) {
		a1c = fmt.Sprintf("A1C %.1f%%", f.a1c)
	}
	return strings.NewReplacer(
		"{side}", side,
		"{size}", size,
		"{a1c}", a1c,
		"{site}", f.site.name,
	).Replace(tmpl)
}

type predicate func(f *facts) bool

// codePicker resolves the code(s) a rule row contributes for the facts at
// hand. all lists every code the picker can ever return.
type codePicker interface {
	pick(f *facts) []string
	all() []string
}

type fixedCode string

func (c fixedCode) pick(*facts) []string { return []string{string(c)} }
func (c fixedCode) all() []string        { return []string{string(c)} }

// sidedCodes selects a code by laterality. An empty bilateral entry falls
// back to both single-side codes; an empty unspecified entry omits the row.
type sidedCodes struct {
	right, left, bilateral, unspecified string
}

func (s sidedCodes) pick(f *facts) []string {
	switch f.side {
	case LateralityRight:
		return nonEmpty(s.right)
	case LateralityLeft:
		return nonEmpty(s.left)
	case LateralityBilateral:
		if s.bilateral != "" {
			return []string{s.bilateral}
		}
		return nonEmpty(s.right, s.left)
	}
	return nonEmpty(s.unspecified)
}

func (s sidedCodes) all() []string {
	return nonEmpty(s.right, s.left, s.bilateral, s.unspecified)
}

func nonEmpty(codes ...string) []string {
	var out []string
	for _, c := range codes {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// rule is one row of a suggestion table: when the predicate holds, every
// picked code is suggested with the row's confidence and reason. The
// confidence drops to medium when downgrade holds.
type rule struct {
	id         string
	when       predicate
	codes      codePicker
	confidence Confidence
	downgrade  predicate
	reason     string
}

func (r rule) apply(f *facts) []rawSuggestion {
	if r.when != nil && !r.when(f) {
		return nil
	}
	conf := r.confidence
	if r.downgrade != nil && r.downgrade(f) && conf == ConfidenceHigh {
		conf = ConfidenceMedium
	}
	reason := f.expand(r.reason)
	var out []rawSuggestion
	for _, code := range r.codes.pick(f) {
		out = append(out, rawSuggestion{code: code, confidence: conf, reason: reason, rule: r.id})
	}
	return out
}

type rawSuggestion struct {
	code       string
	confidence Confidence
	reason     string
	rule       string
}

func evaluate(rules []rule, f *facts) []rawSuggestion {
	var out []rawSuggestion
	for _, r := range rules {
		out = append(out, r.apply(f)...)
	}
	return out
}

// ulcerSite is the anatomical site of a lower extremity ulcer with its
// ICD-10 I70.23x/I70.24x site digit.
type ulcerSite struct {
	name  string
	digit string
}

var ulcerSites = []struct {
	keywords []string
	site     ulcerSite
}{
	{[]string{"thigh"}, ulcerSite{"thigh", "1"}},
	{[]string{"calf"}, ulcerSite{"calf", "2"}},
	{[]string{"ankle", "malleol"}, ulcerSite{"ankle", "3"}},
	{[]string{"heel", "midfoot"}, ulcerSite{"heel and midfoot", "4"}},
	{[]string{"toe", "foot", "forefoot", "metatarsal", "plantar"}, ulcerSite{"other part of foot", "5"}},
	{[]string{"shin", "leg", "tibia"}, ulcerSite{"other part of lower leg", "8"}},
}

var unspecifiedUlcerSite = ulcerSite{"unspecified site", "9"}

func detectUlcerSite(location string) ulcerSite {
	loc := strings.ToLower(location)
	for _, s := range ulcerSites {
		for _, kw := range s.keywords {
			if strings.Contains(loc, kw) {
				return s.site
			}
		}
	}
	return unspecifiedUlcerSite
}

// padUlcerCodes builds I70.23x (right) / I70.24x (left) from the ulcer site.
// There is no unspecified-leg variant, so unknown laterality yields nothing.
type padUlcerCodes struct{}

func (padUlcerCodes) pick(f *facts) []string {
	right := "I70.23" + f.site.digit
	left := "I70.24" + f.site.digit
	switch f.side {
	case LateralityRight:
		return []string{right}
	case LateralityLeft:
		return []string{left}
	case LateralityBilateral:
		return []string{right, left}
	}
	return nil
}

func (padUlcerCodes) all() []string {
	sites := []ulcerSite{unspecifiedUlcerSite}
	for _, s := range ulcerSites {
		sites = append(sites, s.site)
	}
	var out []string
	for _, s := range sites {
		out = append(out, "I70.23"+s.digit, "I70.24"+s.digit)
	}
	return out
}

// -- shared predicates --

func checked(ids ...string) predicate {
	return func(f *facts) bool { return f.answers.AnyChecked(ids...) }
}

func documented(ids ...string) predicate {
	return func(f *facts) bool {
		for _, id := range ids {
			if f.answers.Documented(id) {
				return true
			}
		}
		return false
	}
}

func anyOf(ps ...predicate) predicate {
	return func(f *facts) bool {
		for _, p := range ps {
			if p(f) {
				return true
			}
		}
		return false
	}
}

func allOf(ps ...predicate) predicate {
	return func(f *facts) bool {
		for _, p := range ps {
			if !p(f) {
				return false
			}
		}
		return true
	}
}

func not(p predicate) predicate {
	return func(f *facts) bool { return !p(f) }
}

func valueContains(id string, words ...string) predicate {
	return func(f *facts) bool {
		v := strings.ToLower(f.answers.TextOrValue(id))
		for _, w := range words {
			if strings.Contains(v, w) {
				return true
			}
		}
		return false
	}
}

func unilateral(f *facts) bool {
	return f.side == LateralityLeft || f.side == LateralityRight
}

func aaaAtLeast(cm float64) predicate {
	return func(f *facts) bool { return f.aaaSize >= cm }
}

func aaaBelow(cm float64) predicate {
	return func(f *facts) bool { return f.aaaSize < cm }
}

func a1cAtLeast(pct float64) predicate {
	return func(f *facts) bool { return f.a1c >= pct }
}

var (
	padClaudication = checked("leg_pain_walking")
	padRestPain     = checked("rest_pain", "night_pain", "hang_leg", "pain_wakes")
	padWound        = anyOf(checked("open_wounds", "nonhealing_ulcer"), documented("wounds_present"))
	padGangrene     = checked("gangrene")

	carotidTIA       = checked("tia_history", "stroke_tia")
	carotidStroke    = checked("stroke_history")
	carotidAmaurosis = anyOf(checked("vision_loss"), documented("amaurosis_fugax"))
	carotidSymptoms  = anyOf(carotidTIA, carotidStroke, carotidAmaurosis)

	venousVaricose   = checked("varicose_veins", "visible_veins")
	venousSwelling   = checked("leg_swelling", "legs_heavy")
	venousSkin       = checked("discoloration", "lipodermatosclerosis", "skin_changes_pigment", "skin_changes_lipoderm")
	venousUlcer      = anyOf(checked("active_ulcer"), documented("ulcers"))
	woundExposed     = checked("exposed_structures")
	woundCellulitis  = anyOf(checked("cellulitis"), valueContains("wound_drainage", "cellulitis", "erythema", "redness"))
	dialysisLowFlow  = checked("low_flows")
	dialysisCatheter = valueContains("access_type", "catheter", "permacath")
	dvtPE            = checked("pe_history")
	aaaRepairSize    = aaaAtLeast(5.5)
)
