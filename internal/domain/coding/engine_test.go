package coding

import (
	"reflect"
	"strings"
	"testing"

	"github.com/vascintake/vascintake/internal/domain/interview"
)

func checkedAnswers(ids ...string) interview.Answers {
	a := interview.Answers{}
	for _, id := range ids {
		a[id] = interview.Answer{Checked: true}
	}
	return a
}

func findCode(list []CodeSuggestion, code string) (CodeSuggestion, bool) {
	for _, s := range list {
		if s.Code == code {
			return s, true
		}
	}
	return CodeSuggestion{}, false
}

func codesOf(list []CodeSuggestion) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Code
	}
	return out
}

// =========== SuggestICD10 ===========

func TestSuggestICD10_ClaudicationUnspecifiedSide(t *testing.T) {
	answers := interview.Answers{
		"leg_pain_walking": {Checked: true},
		"walking_distance": {Text: "2 blocks"},
	}

	got := SuggestICD10(interview.ConditionPAD, answers)
	s, ok := findCode(got, "I70.219")
	if !ok {
		t.Fatalf("expected I70.219 in %v", codesOf(got))
	}
	if s.Confidence != ConfidenceHigh {
		t.Errorf("expected high confidence, got %s", s.Confidence)
	}
	if s.Description == UnknownDescription {
		t.Error("expected catalog description")
	}
}

func TestSuggestICD10_RestPainWithClaudicationDowngrades(t *testing.T) {
	answers := interview.Answers{
		"pain_location":    {Text: "right calf"},
		"leg_pain_walking": {Checked: true},
		"night_pain":       {Checked: true},
	}

	if side := DetectLaterality(answers); side != LateralityRight {
		t.Fatalf("expected right, got %q", side)
	}

	got := SuggestICD10(interview.ConditionPAD, answers)
	if want := []string{"I70.221", "I70.211"}; !reflect.DeepEqual(codesOf(got), want) {
		t.Fatalf("expected %v, got %v", want, codesOf(got))
	}
	for _, s := range got {
		if s.Confidence != ConfidenceMedium {
			t.Errorf("%s: expected medium, got %s", s.Code, s.Confidence)
		}
		if !strings.Contains(s.Reason, "right") {
			t.Errorf("%s: expected side in reason %q", s.Code, s.Reason)
		}
	}
}

func TestSuggestICD10_PADRules(t *testing.T) {
	tests := []struct {
		name    string
		answers interview.Answers
		want    []string
	}{
		{
			"gangrene left",
			interview.Answers{"gangrene": {Checked: true}, "pain_location": {Text: "left toes"}},
			[]string{"I70.262"},
		},
		{
			"ulcer with site",
			interview.Answers{"open_wounds": {Checked: true}, "wound_location": {Text: "right heel"}},
			[]string{"I70.234"},
		},
		{
			"ulcer bilateral toe",
			interview.Answers{"nonhealing_ulcer": {Checked: true}, "pain_location": {Text: "both feet"}, "wound_location": {Text: "toe"}},
			[]string{"I70.235", "I70.245"},
		},
		{
			"ulcer without side is omitted",
			interview.Answers{"open_wounds": {Checked: true}},
			[]string{},
		},
		{
			"rest pain alone stays high",
			interview.Answers{"rest_pain": {Checked: true}},
			[]string{"I70.229"},
		},
		{
			"nothing documented",
			interview.Answers{},
			[]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := codesOf(SuggestICD10(interview.ConditionPAD, tt.answers))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	rest := SuggestICD10(interview.ConditionPAD, interview.Answers{"rest_pain": {Checked: true}})
	if rest[0].Confidence != ConfidenceHigh {
		t.Errorf("rest pain alone: expected high, got %s", rest[0].Confidence)
	}
}

func TestSuggestICD10_OtherConditions(t *testing.T) {
	tests := []struct {
		name    string
		ct      interview.ConditionType
		answers interview.Answers
		want    []string
	}{
		{"carotid baseline", interview.ConditionCarotid, nil, []string{"I65.29"}},
		{
			"carotid tia and stroke with deficits",
			interview.ConditionCarotid,
			interview.Answers{
				"tia_history":       {Checked: true},
				"stroke_history":    {Checked: true},
				"residual_deficits": {Text: "left hand weakness"},
			},
			[]string{"I65.29", "G45.9", "I69.30"},
		},
		{
			"carotid stroke without deficits",
			interview.ConditionCarotid,
			interview.Answers{"stroke_history": {Checked: true}, "vision_loss": {Checked: true}},
			[]string{"I65.29", "G45.3", "Z86.73"},
		},
		{
			"venous bilateral ulcer",
			interview.ConditionVenous,
			interview.Answers{"active_ulcer": {Checked: true}, "swelling_bilateral": {Value: "both"}},
			[]string{"I83.019", "I83.029"},
		},
		{
			"venous varicose right",
			interview.ConditionVenous,
			interview.Answers{"varicose_veins": {Checked: true}, "affected_side": {Value: "right"}},
			[]string{"I83.91"},
		},
		{
			"aaa with iliac",
			interview.ConditionAAA,
			interview.Answers{"size": {Text: "4.2 cm"}, "iliac_involvement": {Checked: true}},
			[]string{"I71.4", "I72.3"},
		},
		{
			"wound diabetic exposed left",
			interview.ConditionWound,
			interview.Answers{"diabetes": {Checked: true}, "exposed_structures": {Checked: true}, "wound_location": {Text: "left foot"}},
			[]string{"E11.621", "L97.524", "E11.9"},
		},
		{
			"wound cellulitis unspecified",
			interview.ConditionWound,
			interview.Answers{"wound_drainage": {Text: "purulent with redness"}},
			[]string{"L97.501", "L03.119"},
		},
		{
			"dialysis catheter low flow",
			interview.ConditionDialysis,
			interview.Answers{"low_flows": {Checked: true}, "access_type": {Value: "tunneled_catheter"}},
			[]string{"N18.6", "Z99.2", "T82.41XA"},
		},
		{
			"dialysis fistula low flow",
			interview.ConditionDialysis,
			interview.Answers{"low_flows": {Checked: true}, "access_type": {Value: "av_fistula"}},
			[]string{"N18.6", "Z99.2", "T82.858A"},
		},
		{
			"dvt with pe and anticoagulation",
			interview.ConditionDVT,
			interview.Answers{"pe_history": {Checked: true}, "current_anticoagulation": {Checked: true}, "affected_side": {Value: "left"}},
			[]string{"I82.402", "Z86.711", "Z79.01"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := codesOf(SuggestICD10(tt.ct, tt.answers))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSuggestICD10_AAASize(t *testing.T) {
	tests := []struct {
		size       string
		confidence Confidence
		reason     string
	}{
		{"5.8 cm", ConfidenceHigh, "AAA 5.8 cm, at or above 5.5 cm repair threshold"},
		{"about 4.1cm", ConfidenceHigh, "AAA 4.1 cm, surveillance range"},
		{"52 mm", ConfidenceHigh, "AAA 5.2 cm, surveillance range"},
		{"60mm", ConfidenceHigh, "AAA 6.0 cm, at or above 5.5 cm repair threshold"},
		{"5.6 centimeters", ConfidenceHigh, "AAA 5.6 cm, at or above 5.5 cm repair threshold"},
		{"-5 cm", ConfidenceMedium, "AAA evaluation, size not documented"},
		{"0", ConfidenceMedium, "AAA evaluation, size not documented"},
		{"large", ConfidenceMedium, "AAA evaluation, size not documented"},
		{"", ConfidenceMedium, "AAA evaluation, size not documented"},
	}
	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			got := SuggestICD10(interview.ConditionAAA, interview.Answers{"size": {Text: tt.size}})
			if len(got) != 1 || got[0].Code != "I71.4" {
				t.Fatalf("expected single I71.4, got %v", codesOf(got))
			}
			if got[0].Confidence != tt.confidence {
				t.Errorf("expected %s, got %s", tt.confidence, got[0].Confidence)
			}
			if got[0].Reason != tt.reason {
				t.Errorf("expected reason %q, got %q", tt.reason, got[0].Reason)
			}
		})
	}
}

func TestSuggestICD10_Comorbidities(t *testing.T) {
	tests := []struct {
		name    string
		answers interview.Answers
		want    []string
	}{
		{"hypertension and lipids", checkedAnswers("hypertension", "high_cholesterol"), []string{"I10", "E78.5"}},
		{"diabetes uncontrolled", interview.Answers{"diabetes": {Checked: true}, "diabetes_a1c": {Text: "9.4%"}}, []string{"E11.65"}},
		{"diabetes controlled", interview.Answers{"diabetes": {Checked: true}, "diabetes_a1c": {Text: "6.8"}}, []string{"E11.9"}},
		{"diabetes control fallback field", interview.Answers{"diabetes": {Checked: true}, "diabetes_control": {Value: "10.2"}}, []string{"E11.65"}},
		{"current smoker", checkedAnswers("smoking_current", "smoking_history"), []string{"F17.210"}},
		{"former smoker", checkedAnswers("smoking_history"), []string{"Z87.891"}},
		{"cad via stents", checkedAnswers("heart_stents"), []string{"I25.10"}},
		{"cad via text", interview.Answers{"cad": {Text: "CABG 2019"}}, []string{"I25.10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Venous with no findings contributes no condition codes.
			got := codesOf(SuggestICD10(interview.ConditionVenous, tt.answers))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSuggestICD10_ComorbiditiesForEveryCondition(t *testing.T) {
	answers := checkedAnswers("hypertension")
	for _, cond := range interview.Conditions() {
		if _, ok := findCode(SuggestICD10(cond.Type, answers), "I10"); !ok {
			t.Errorf("%s: expected comorbidity I10", cond.Type)
		}
	}
}

func TestSuggestICD10_DeduplicatesWithinCall(t *testing.T) {
	answers := checkedAnswers("discoloration", "leg_swelling")
	got := SuggestICD10(interview.ConditionVenous, answers)
	if want := []string{"I87.2"}; !reflect.DeepEqual(codesOf(got), want) {
		t.Fatalf("expected %v, got %v", want, codesOf(got))
	}
	if got[0].Confidence != ConfidenceHigh {
		t.Errorf("expected first occurrence (high), got %s", got[0].Confidence)
	}
}

func TestSuggestICD10_Deterministic(t *testing.T) {
	answers := interview.Answers{
		"pain_location":    {Text: "left leg"},
		"leg_pain_walking": {Checked: true},
		"rest_pain":        {Checked: true},
		"open_wounds":      {Checked: true},
		"wound_location":   {Text: "ankle"},
		"hypertension":     {Checked: true},
		"diabetes":         {Checked: true},
		"smoking_history":  {Checked: true},
	}
	for _, cond := range interview.Conditions() {
		first := SuggestICD10(cond.Type, answers)
		for i := 0; i < 20; i++ {
			if again := SuggestICD10(cond.Type, answers); !reflect.DeepEqual(first, again) {
				t.Fatalf("%s: run %d differs:\n%v\n%v", cond.Type, i, first, again)
			}
		}
	}
}

func TestSuggestICD10_UnknownCodeDescription(t *testing.T) {
	engine := NewEngine(NewCatalog(nil, nil))
	got := engine.SuggestICD10(interview.ConditionPAD, checkedAnswers("leg_pain_walking"))
	if len(got) != 1 {
		t.Fatalf("expected suggestion to be kept, got %v", got)
	}
	if got[0].Description != UnknownDescription {
		t.Errorf("expected %q, got %q", UnknownDescription, got[0].Description)
	}
}

// =========== SuggestCPT ===========

func TestSuggestCPT_EMFirst(t *testing.T) {
	for _, cond := range interview.Conditions() {
		got := SuggestCPT(cond.Type, checkedAnswers("rest_pain"), interview.VisitContext{})
		if len(got) == 0 || !got[0].IsEM() {
			t.Fatalf("%s: expected E&M first, got %v", cond.Type, codesOf(got))
		}
		for _, s := range got[1:] {
			if s.IsEM() {
				t.Errorf("%s: unexpected second E&M %s", cond.Type, s.Code)
			}
			if s.RVU == nil {
				t.Errorf("%s: %s missing RVU", cond.Type, s.Code)
			}
		}
	}
}

func TestSuggestCPT_Rules(t *testing.T) {
	tests := []struct {
		name    string
		ct      interview.ConditionType
		answers interview.Answers
		want    []string
	}{
		{"pad claudication", interview.ConditionPAD, checkedAnswers("leg_pain_walking"), []string{"93925", "93922"}},
		{"pad rest pain", interview.ConditionPAD, checkedAnswers("rest_pain"), []string{"93925", "93922", "37224"}},
		{"carotid asymptomatic", interview.ConditionCarotid, nil, []string{"93880"}},
		{"carotid symptomatic", interview.ConditionCarotid, checkedAnswers("tia_history"), []string{"93880", "35301"}},
		{"venous unilateral", interview.ConditionVenous, interview.Answers{"affected_side": {Value: "left"}}, []string{"93971"}},
		{"venous unknown side", interview.ConditionVenous, nil, []string{"93970"}},
		{"aaa large", interview.ConditionAAA, interview.Answers{"size": {Text: "6 cm"}}, []string{"93978", "34705"}},
		{"aaa small", interview.ConditionAAA, interview.Answers{"size": {Text: "4 cm"}}, []string{"93978"}},
		{"aaa millimeters below threshold", interview.ConditionAAA, interview.Answers{"size": {Text: "52 mm"}}, []string{"93978"}},
		{"aaa millimeters at threshold", interview.ConditionAAA, interview.Answers{"size": {Text: "55 mm"}}, []string{"93978", "34705"}},
		{"wound diabetic", interview.ConditionWound, checkedAnswers("diabetes"), []string{"93922", "93925"}},
		{"dialysis fistula", interview.ConditionDialysis, interview.Answers{"low_flows": {Checked: true}, "access_type": {Value: "fistula"}}, []string{"36902"}},
		{"dialysis catheter", interview.ConditionDialysis, interview.Answers{"low_flows": {Checked: true}, "access_type": {Value: "catheter"}}, []string{"36818"}},
		{"dvt bilateral", interview.ConditionDVT, interview.Answers{"pain_location": {Text: "both calves"}}, []string{"93970"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestCPT(tt.ct, tt.answers, interview.VisitContext{})
			if !reflect.DeepEqual(codesOf(got[1:]), tt.want) {
				t.Errorf("expected %v, got %v", tt.want, codesOf(got[1:]))
			}
		})
	}
}

func TestSuggestCPT_RVUAndDescription(t *testing.T) {
	got := SuggestCPT(interview.ConditionPAD, checkedAnswers("rest_pain"), interview.VisitContext{})
	s, ok := findCode(got, "37224")
	if !ok {
		t.Fatalf("expected 37224 in %v", codesOf(got))
	}
	if s.RVU == nil || *s.RVU != 13.87 {
		t.Errorf("expected RVU 13.87, got %v", s.RVU)
	}
	if s.Confidence != ConfidenceLow {
		t.Errorf("expected low confidence, got %s", s.Confidence)
	}

	unknown := NewEngine(NewCatalog(nil, nil)).SuggestCPT(interview.ConditionCarotid, nil, interview.VisitContext{})
	for _, s := range unknown {
		if s.Description != UnknownDescription || s.RVU == nil || *s.RVU != 0 {
			t.Errorf("%s: expected Unknown/0, got %q/%v", s.Code, s.Description, s.RVU)
		}
	}
}

func TestSuggestCPT_Deterministic(t *testing.T) {
	answers := checkedAnswers("rest_pain", "low_flows", "tia_history", "exposed_structures")
	for _, cond := range interview.Conditions() {
		first := SuggestCPT(cond.Type, answers, interview.VisitContext{NewPatient: true})
		again := SuggestCPT(cond.Type, answers, interview.VisitContext{NewPatient: true})
		if !reflect.DeepEqual(first, again) {
			t.Errorf("%s: results differ", cond.Type)
		}
	}
}

// =========== CalculateRVU ===========

func TestCalculateRVU(t *testing.T) {
	if got := CalculateRVU([]string{"93925", "37224"}); !approx(got, 16.94) {
		t.Errorf("expected 16.94, got %v", got)
	}
	if got := CalculateRVU([]string{"ZZZZZ"}); got != 0 {
		t.Errorf("expected 0 for unknown code, got %v", got)
	}
	if got := CalculateRVU(nil); got != 0 {
		t.Errorf("expected 0 for no codes, got %v", got)
	}
	if got := CalculateRVU([]string{"93880", "ZZZZZ"}); !approx(got, 3.14) {
		t.Errorf("expected unknown codes to add nothing, got %v", got)
	}
}

func TestCalculateRVU_Additive(t *testing.T) {
	a := []string{"93925", "37224", "99204"}
	b := []string{"36902", "93880", "ZZZZZ"}
	whole := CalculateRVU(append(append([]string{}, a...), b...))
	if !approx(whole, CalculateRVU(a)+CalculateRVU(b)) {
		t.Errorf("expected additivity: %v != %v + %v", whole, CalculateRVU(a), CalculateRVU(b))
	}
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
