package scoring

import (
	"errors"

	"github.com/vascintake/vascintake/internal/domain/interview"
)

// System identifies a standardized severity scoring system.
type System string

const (
	SystemRutherford       System = "rutherford"
	SystemWIfI             System = "wifi"
	SystemCEAP             System = "ceap"
	SystemWagner           System = "wagner"
	SystemCarotidGrading   System = "carotid_grading"
	SystemNIHSS            System = "nihss"
	SystemABI              System = "abi"
	SystemDiabeticFootRisk System = "diabetic_foot_risk"
)

// ErrInsufficientData is returned when the answers do not carry the inputs
// a system needs.
var ErrInsufficientData = errors.New("insufficient data for scoring")

// Definition describes a scoring system.
type Definition struct {
	System System `json:"system"`
	Name   string `json:"name"`
}

// Result is one computed score.
type Result struct {
	System         System         `json:"system"`
	Name           string         `json:"name"`
	Value          string         `json:"value"`
	Score          *int           `json:"score,omitempty"`
	Label          string         `json:"label"`
	Description    string         `json:"description,omitempty"`
	Recommendation string         `json:"recommendation,omitempty"`
	Components     map[string]int `json:"components,omitempty"`
	ICD10Hint      string         `json:"icd10Hint,omitempty"`
}

var definitions = map[System]Definition{
	SystemRutherford:       {SystemRutherford, "Rutherford Classification"},
	SystemWIfI:             {SystemWIfI, "WIfI Classification"},
	SystemCEAP:             {SystemCEAP, "CEAP Classification"},
	SystemWagner:           {SystemWagner, "Wagner Classification"},
	SystemCarotidGrading:   {SystemCarotidGrading, "Carotid Stenosis Grading (NASCET)"},
	SystemNIHSS:            {SystemNIHSS, "NIH Stroke Scale (NIHSS)"},
	SystemABI:              {SystemABI, "Ankle-Brachial Index"},
	SystemDiabeticFootRisk: {SystemDiabeticFootRisk, "Diabetic Foot Risk Assessment"},
}

// systemsByCondition lists the applicable systems per condition, in
// display order.
var systemsByCondition = map[interview.ConditionType][]System{
	interview.ConditionPAD:      {SystemRutherford, SystemABI},
	interview.ConditionVenous:   {SystemCEAP},
	interview.ConditionCarotid:  {SystemCarotidGrading, SystemNIHSS},
	interview.ConditionWound:    {SystemWIfI, SystemWagner, SystemDiabeticFootRisk, SystemABI},
	interview.ConditionDialysis: {},
	interview.ConditionAAA:      {},
	interview.ConditionDVT:      {SystemCEAP},
}

func intPtr(v int) *int { return &v }
