package fhir

// Coding is a code drawn from a code system.
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// CodeableConcept is one or more codings plus free text.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Parameters is the FHIR resource used as input and output of operations
// such as CodeSystem/$lookup.
type Parameters struct {
	ResourceType string      `json:"resourceType"`
	Parameter    []Parameter `json:"parameter"`
}

type Parameter struct {
	Name         string   `json:"name"`
	ValueString  string   `json:"valueString,omitempty"`
	ValueCode    string   `json:"valueCode,omitempty"`
	ValueBoolean *bool    `json:"valueBoolean,omitempty"`
	ValueDecimal *float64 `json:"valueDecimal,omitempty"`
}

func NewParameters(params ...Parameter) *Parameters {
	if params == nil {
		params = []Parameter{}
	}
	return &Parameters{ResourceType: "Parameters", Parameter: params}
}

// Get returns the first parameter with the given name.
func (p *Parameters) Get(name string) (Parameter, bool) {
	for _, param := range p.Parameter {
		if param.Name == name {
			return param, true
		}
	}
	return Parameter{}, false
}

func StringParam(name, value string) Parameter {
	return Parameter{Name: name, ValueString: value}
}

func BoolParam(name string, value bool) Parameter {
	return Parameter{Name: name, ValueBoolean: &value}
}

func DecimalParam(name string, value float64) Parameter {
	return Parameter{Name: name, ValueDecimal: &value}
}

// OperationOutcome represents a FHIR OperationOutcome for errors.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

type OperationOutcomeIssue struct {
	Severity    string           `json:"severity"`
	Code        string           `json:"code"`
	Details     *CodeableConcept `json:"details,omitempty"`
	Diagnostics string           `json:"diagnostics,omitempty"`
	Expression  []string         `json:"expression,omitempty"`
}

func NewOperationOutcome(severity, code, diagnostics string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []OperationOutcomeIssue{
			{
				Severity:    severity,
				Code:        code,
				Diagnostics: diagnostics,
			},
		},
	}
}

func ErrorOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeProcessing, diagnostics)
}

func NotFoundOutcome(system, code string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeNotFound, "code '"+code+"' not found in system '"+system+"'")
}
