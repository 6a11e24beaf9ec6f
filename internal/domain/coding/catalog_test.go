package coding

import (
	"sort"
	"testing"
)

func TestBuiltinCatalog_CoversRuleCodes(t *testing.T) {
	dx, px := BuiltinCatalog().MissingCodes()
	if len(dx) != 0 || len(px) != 0 {
		t.Errorf("built-in catalog is missing icd10 %v and cpt %v", dx, px)
	}
}

func TestReferencedCodes(t *testing.T) {
	dx, px := ReferencedCodes()
	if !sort.StringsAreSorted(dx) || !sort.StringsAreSorted(px) {
		t.Error("expected sorted code lists")
	}
	for _, want := range []string{"I70.219", "I70.234", "I70.249", "E11.65"} {
		if !containsCode(dx, want) {
			t.Errorf("expected %s among referenced diagnoses", want)
		}
	}
	for _, want := range []string{"93925", "37224", "99202", "99215"} {
		if !containsCode(px, want) {
			t.Errorf("expected %s among referenced procedures", want)
		}
	}
}

func TestCatalog_MissingCodes(t *testing.T) {
	cat := NewCatalog(
		[]DiagnosisCodeEntry{{Code: "I10", Description: "Essential (primary) hypertension"}},
		[]ProcedureCodeEntry{{Code: "93925", Description: "Lower extremity arterial duplex", RVU: 3.07}},
	)
	dx, px := cat.MissingCodes()
	if containsCode(dx, "I10") || containsCode(px, "93925") {
		t.Error("present codes reported missing")
	}
	if !containsCode(dx, "I70.219") || !containsCode(px, "99213") {
		t.Error("absent codes not reported")
	}
}

func TestCatalog_LaterRowsReplaceEarlier(t *testing.T) {
	cat := NewCatalog(nil, []ProcedureCodeEntry{
		{Code: "93925", Description: "first", RVU: 1},
		{Code: "93925", Description: "second", RVU: 2},
	})
	if got := cat.ProcedureDescription("93925"); got != "second" {
		t.Errorf("expected second, got %s", got)
	}
	if got := cat.RVU("93925"); got != 2 {
		t.Errorf("expected 2, got %v", got)
	}
	if _, n := cat.Len(); n != 1 {
		t.Errorf("expected 1 procedure, got %d", n)
	}
}

func TestCatalog_Lookups(t *testing.T) {
	cat := BuiltinCatalog()
	if d, ok := cat.Diagnosis("I70.211"); !ok || d.Laterality != LateralityRight || d.Category != "pad" {
		t.Errorf("unexpected I70.211 entry %+v", d)
	}
	if _, ok := cat.Diagnosis("XYZ"); ok {
		t.Error("expected miss for unknown diagnosis")
	}
	if got := cat.DiagnosisDescription("XYZ"); got != UnknownDescription {
		t.Errorf("expected %q, got %q", UnknownDescription, got)
	}
	if p, ok := cat.Procedure("99204"); !ok || p.Category != CategoryEM {
		t.Errorf("unexpected 99204 entry %+v", p)
	}
	if got := cat.RVU("ZZZZZ"); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestCatalog_ListsAreSortedCopies(t *testing.T) {
	cat := BuiltinCatalog()
	dx := cat.Diagnoses()
	if !sort.SliceIsSorted(dx, func(i, j int) bool { return dx[i].Code < dx[j].Code }) {
		t.Error("diagnoses not sorted")
	}
	px := cat.Procedures()
	if !sort.SliceIsSorted(px, func(i, j int) bool { return px[i].Code < px[j].Code }) {
		t.Error("procedures not sorted")
	}

	first := dx[0].Code
	dx[0].Description = "changed"
	if cat.DiagnosisDescription(first) == "changed" {
		t.Error("Diagnoses exposed catalog storage")
	}
	nDx, nPx := cat.Len()
	if nDx != len(dx) || nPx != len(px) {
		t.Errorf("Len() = %d/%d, lists have %d/%d", nDx, nPx, len(dx), len(px))
	}
}

func TestCodeSuggestion_IsEM(t *testing.T) {
	tests := map[string]bool{
		"99213": true,
		"99202": true,
		"93925": false,
		"992":   true,
		"99":    false,
		"":      false,
	}
	for code, want := range tests {
		if got := (CodeSuggestion{Code: code}).IsEM(); got != want {
			t.Errorf("IsEM(%q) = %v, want %v", code, got, want)
		}
	}
}
