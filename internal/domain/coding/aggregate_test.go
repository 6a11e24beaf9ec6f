package coding

import (
	"strings"
	"testing"

	"github.com/vascintake/vascintake/internal/domain/interview"
)

func TestSuggestMultiConditionCodes_TwoConditionsBoost(t *testing.T) {
	answers := checkedAnswers("leg_pain_walking", "hypertension", "diabetes", "high_cholesterol", "smoking_history")
	visit := interview.VisitContext{NewPatient: true}

	base := SuggestEMLevel(interview.ConditionPAD, answers, visit)
	if base.Code != "99203" {
		t.Fatalf("expected base 99203, got %s", base.Code)
	}

	got := SuggestMultiConditionCodes([]interview.ConditionType{interview.ConditionPAD, interview.ConditionCarotid}, answers, visit)
	if got.EMLevel.Code != "99204" {
		t.Errorf("expected 99204, got %s", got.EMLevel.Code)
	}
	if got.EMLevel.Confidence != ConfidenceHigh {
		t.Errorf("expected high, got %s", got.EMLevel.Confidence)
	}
	if !strings.Contains(got.EMLevel.Reason, "2 conditions") {
		t.Errorf("expected condition count in reason, got %q", got.EMLevel.Reason)
	}
	if got.ConditionCount != 2 {
		t.Errorf("expected conditionCount 2, got %d", got.ConditionCount)
	}
	if got.CPT[0].Code != got.EMLevel.Code {
		t.Errorf("expected E&M first in cpt, got %s", got.CPT[0].Code)
	}
}

func TestSuggestMultiConditionCodes_Empty(t *testing.T) {
	got := SuggestMultiConditionCodes(nil, nil, interview.VisitContext{})

	if got.ICD10 == nil || len(got.ICD10) != 0 {
		t.Errorf("expected empty non-nil icd10, got %#v", got.ICD10)
	}
	if len(got.CPT) != 1 || !got.CPT[0].IsEM() {
		t.Fatalf("expected only the fallback E&M, got %v", codesOf(got.CPT))
	}
	fallback := SuggestEMLevel(fallbackCondition, nil, interview.VisitContext{})
	if got.EMLevel.Code != fallback.Code || got.EMLevel.Reason != fallback.Reason {
		t.Errorf("expected fallback %s, got %s", fallback.Code, got.EMLevel.Code)
	}
	if got.ConditionCount != 0 {
		t.Errorf("expected conditionCount 0, got %d", got.ConditionCount)
	}
}

func TestSuggestMultiConditionCodes_SingleConditionKeepsBase(t *testing.T) {
	answers := checkedAnswers("rest_pain")
	visit := interview.VisitContext{NewPatient: true}

	base := SuggestEMLevel(interview.ConditionPAD, answers, visit)
	got := SuggestMultiConditionCodes([]interview.ConditionType{interview.ConditionPAD}, answers, visit)
	if got.EMLevel.Code != base.Code || got.EMLevel.Reason != base.Reason || got.EMLevel.Confidence != base.Confidence {
		t.Errorf("expected base E&M unchanged, got %+v want %+v", got.EMLevel, base)
	}
}

func TestSuggestMultiConditionCodes_GlobalDedup(t *testing.T) {
	answers := interview.Answers{
		"affected_side": {Value: "left"},
		"hypertension":  {Checked: true},
	}
	got := SuggestMultiConditionCodes(
		[]interview.ConditionType{interview.ConditionVenous, interview.ConditionDVT},
		answers, interview.VisitContext{},
	)

	seen := map[string]int{}
	for _, s := range got.ICD10 {
		seen[s.Code]++
	}
	for _, s := range got.CPT {
		seen[s.Code]++
	}
	for code, n := range seen {
		if n > 1 {
			t.Errorf("%s appears %d times", code, n)
		}
	}

	duplex, ok := findCode(got.CPT, "93971")
	if !ok {
		t.Fatalf("expected 93971 in %v", codesOf(got.CPT))
	}
	if duplex.ConditionType != interview.ConditionVenous || duplex.Confidence != ConfidenceMedium {
		t.Errorf("expected first occurrence from venous, got %s/%s", duplex.ConditionType, duplex.Confidence)
	}

	htn, ok := findCode(got.ICD10, "I10")
	if !ok {
		t.Fatalf("expected I10 in %v", codesOf(got.ICD10))
	}
	if htn.ConditionType != interview.ConditionVenous || htn.ConditionLabel != interview.ConditionVenous.Label() {
		t.Errorf("expected I10 tagged with venous, got %s/%q", htn.ConditionType, htn.ConditionLabel)
	}
	if _, ok := findCode(got.ICD10, "I82.402"); !ok {
		t.Errorf("expected DVT code in %v", codesOf(got.ICD10))
	}
}

func TestSuggestMultiConditionCodes_TagsEverySuggestion(t *testing.T) {
	got := SuggestMultiConditionCodes(
		[]interview.ConditionType{interview.ConditionAAA, interview.ConditionDialysis},
		interview.Answers{"size": {Text: "5.9 cm"}, "low_flows": {Checked: true}},
		interview.VisitContext{},
	)
	for _, s := range got.ICD10 {
		if s.ConditionType == "" || s.ConditionLabel == "" {
			t.Errorf("icd10 %s is untagged", s.Code)
		}
	}
	for _, s := range got.CPT[1:] {
		if s.ConditionType == "" || s.ConditionLabel == "" {
			t.Errorf("cpt %s is untagged", s.Code)
		}
	}
}

func TestSuggestMultiConditionCodes_SingleEM(t *testing.T) {
	all := make([]interview.ConditionType, 0)
	for _, c := range interview.Conditions() {
		all = append(all, c.Type)
	}
	got := SuggestMultiConditionCodes(all, checkedAnswers("rest_pain", "low_flows"), interview.VisitContext{})

	n := 0
	for i, s := range got.CPT {
		if s.IsEM() {
			n++
			if i != 0 {
				t.Errorf("E&M %s at position %d", s.Code, i)
			}
		}
	}
	if n != 1 {
		t.Errorf("expected exactly one E&M, got %d", n)
	}
	if got.ConditionCount != len(all) {
		t.Errorf("expected conditionCount %d, got %d", len(all), got.ConditionCount)
	}
}

func TestSuggestMultiConditionCodes_BoostMonotonicAndClamped(t *testing.T) {
	all := []interview.ConditionType{
		interview.ConditionPAD,
		interview.ConditionCarotid,
		interview.ConditionVenous,
		interview.ConditionAAA,
		interview.ConditionWound,
		interview.ConditionDVT,
	}
	for _, newPatient := range []bool{true, false} {
		visit := interview.VisitContext{NewPatient: newPatient}
		ladder := ladderFor(newPatient)
		for _, score := range []int{0, 2, 5, 8, 12} {
			answers := answersWithScore(score)
			base := emIndex(ladder, SuggestEMLevel(all[0], answers, visit).Code)
			prev := -1
			for n := 1; n <= len(all); n++ {
				got := SuggestMultiConditionCodes(all[:n], answers, visit)
				idx := emIndex(ladder, got.EMLevel.Code)
				if idx < 0 {
					t.Fatalf("%s not on ladder", got.EMLevel.Code)
				}
				if idx < prev {
					t.Errorf("new=%v score=%d: index dropped from %d to %d at %d conditions", newPatient, score, prev, idx, n)
				}
				if want := min(base+min(n-1, maxMultiConditionBoost), len(ladder)-1); idx != want {
					t.Errorf("new=%v score=%d n=%d: expected index %d, got %d", newPatient, score, n, want, idx)
				}
				if n > 1 && got.EMLevel.Confidence != ConfidenceHigh {
					t.Errorf("expected high confidence with %d conditions, got %s", n, got.EMLevel.Confidence)
				}
				prev = idx
			}
		}
	}
}

func TestMultiConditionResult_FHIR(t *testing.T) {
	got := SuggestMultiConditionCodes(
		[]interview.ConditionType{interview.ConditionCarotid},
		nil, interview.VisitContext{},
	)
	dx := got.FHIRDiagnoses()
	if len(dx) != len(got.ICD10) {
		t.Fatalf("expected %d diagnoses, got %d", len(got.ICD10), len(dx))
	}
	if dx[0].Coding[0].System != SystemICD10 || dx[0].Coding[0].Code != "I65.29" {
		t.Errorf("unexpected coding %+v", dx[0].Coding[0])
	}
	px := got.FHIRProcedures()
	if len(px) != len(got.CPT) || px[0].Coding[0].System != SystemCPT {
		t.Errorf("unexpected procedures %+v", px)
	}
}
