package coding

import (
	"errors"

	"github.com/vascintake/vascintake/internal/domain/interview"
	"github.com/vascintake/vascintake/internal/platform/fhir"
)

// Confidence is a coarse review hint attached to every suggestion.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Laterality is the side of the body a finding applies to. The zero value
// means the side could not be determined.
type Laterality string

const (
	LateralityUnspecified Laterality = ""
	LateralityLeft        Laterality = "left"
	LateralityRight       Laterality = "right"
	LateralityBilateral   Laterality = "bilateral"
)

// CategoryComorbidity tags diagnosis codes that are not tied to a condition.
const CategoryComorbidity = "comorbidity"

// CategoryEM tags evaluation-and-management procedure codes.
const CategoryEM = "E&M"

// emPrefix is shared by every evaluation-and-management office visit code.
const emPrefix = "992"

// UnknownDescription is reported for codes missing from the catalog.
const UnknownDescription = "Unknown"

// CodeSystemURI constants used when rendering suggestions as FHIR codings.
const (
	SystemICD10 = "http://hl7.org/fhir/sid/icd-10-cm"
	SystemCPT   = "http://www.ama-assn.org/go/cpt"
)

var (
	// ErrCodeNotFound is returned by catalog lookups for unknown codes.
	ErrCodeNotFound = errors.New("code not found")
	// ErrUnknownCondition is returned when a caller names a condition outside the closed set.
	ErrUnknownCondition = errors.New("unknown condition type")
)

// DiagnosisCodeEntry is one row of the ICD-10-CM reference table.
type DiagnosisCodeEntry struct {
	Code        string     `db:"code" json:"code"`
	Description string     `db:"description" json:"description"`
	Category    string     `db:"category" json:"category"`
	Laterality  Laterality `db:"laterality" json:"laterality,omitempty"`
}

// ProcedureCodeEntry is one row of the CPT reference table.
type ProcedureCodeEntry struct {
	Code        string  `db:"code" json:"code"`
	Description string  `db:"description" json:"description"`
	Category    string  `db:"category" json:"category"`
	RVU         float64 `db:"rvu" json:"rvu"`
}

// CodeSuggestion is a candidate code with the rationale that produced it.
type CodeSuggestion struct {
	Code           string                  `json:"code"`
	Confidence     Confidence              `json:"confidence"`
	Reason         string                  `json:"reason"`
	Description    string                  `json:"description"`
	ConditionType  interview.ConditionType `json:"conditionType,omitempty"`
	ConditionLabel string                  `json:"conditionLabel,omitempty"`
	RVU            *float64                `json:"rvu,omitempty"`
}

// IsEM reports whether the suggestion is an evaluation-and-management code.
func (s CodeSuggestion) IsEM() bool {
	return len(s.Code) >= len(emPrefix) && s.Code[:len(emPrefix)] == emPrefix
}

// CodeableConcept renders the suggestion as a FHIR CodeableConcept in the
// given code system.
func (s CodeSuggestion) CodeableConcept(system string) fhir.CodeableConcept {
	return fhir.CodeableConcept{
		Coding: []fhir.Coding{{System: system, Code: s.Code, Display: s.Description}},
		Text:   s.Reason,
	}
}

func (s CodeSuggestion) withOrigin(ct interview.ConditionType) CodeSuggestion {
	s.ConditionType = ct
	s.ConditionLabel = ct.Label()
	return s
}

// MultiConditionResult is the merged output for every selected condition.
type MultiConditionResult struct {
	ICD10          []CodeSuggestion `json:"icd10"`
	CPT            []CodeSuggestion `json:"cpt"`
	EMLevel        CodeSuggestion   `json:"emLevel"`
	ConditionCount int              `json:"conditionCount"`
}

// ByCondition groups the diagnosis and procedure suggestions by the
// condition that produced them. The E&M suggestion carries no origin and
// is left out.
func (r *MultiConditionResult) ByCondition() map[interview.ConditionType][]CodeSuggestion {
	out := make(map[interview.ConditionType][]CodeSuggestion)
	for _, s := range r.ICD10 {
		out[s.ConditionType] = append(out[s.ConditionType], s)
	}
	for _, s := range r.CPT {
		if s.ConditionType == "" {
			continue
		}
		out[s.ConditionType] = append(out[s.ConditionType], s)
	}
	return out
}

// FHIRDiagnoses renders the diagnosis suggestions as FHIR CodeableConcepts.
func (r *MultiConditionResult) FHIRDiagnoses() []fhir.CodeableConcept {
	out := make([]fhir.CodeableConcept, 0, len(r.ICD10))
	for _, s := range r.ICD10 {
		out = append(out, s.CodeableConcept(SystemICD10))
	}
	return out
}

// FHIRProcedures renders the procedure suggestions as FHIR CodeableConcepts.
func (r *MultiConditionResult) FHIRProcedures() []fhir.CodeableConcept {
	out := make([]fhir.CodeableConcept, 0, len(r.CPT))
	for _, s := range r.CPT {
		out = append(out, s.CodeableConcept(SystemCPT))
	}
	return out
}
