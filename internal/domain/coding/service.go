package coding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vascintake/vascintake/internal/domain/interview"
	"github.com/vascintake/vascintake/internal/platform/fhir"
)

// Recorder receives suggestion metrics. *telemetry.Provider implements it.
type Recorder interface {
	ObserveSuggestion(kind string, conditions []string, emCode string, totalRVU float64)
	SetCatalogSize(system string, n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSuggestion(string, []string, string, float64) {}
func (nopRecorder) SetCatalogSize(string, int)                          {}

// ErrNoRepository is returned by operations that need a database when the
// service runs on the built-in catalog only.
var ErrNoRepository = errors.New("catalog repository not configured")

// Service exposes the coding engine and its catalog to transports.
type Service struct {
	engine  *Engine
	repo    CatalogRepository
	metrics Recorder
	logger  zerolog.Logger
}

// NewService creates a coding service. repo and metrics may be nil.
func NewService(engine *Engine, repo CatalogRepository, metrics Recorder, logger zerolog.Logger) *Service {
	if engine == nil {
		engine = NewEngine(nil)
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	dx, px := engine.Catalog().Len()
	metrics.SetCatalogSize("icd10", dx)
	metrics.SetCatalogSize("cpt", px)
	return &Service{engine: engine, repo: repo, metrics: metrics, logger: logger}
}

// Engine returns the engine the service runs.
func (s *Service) Engine() *Engine {
	return s.engine
}

// LoadCatalog reads the reference tables from repo into a new immutable
// catalog. Rule codes missing from the tables are logged.
func LoadCatalog(ctx context.Context, repo CatalogRepository, logger zerolog.Logger) (*Catalog, error) {
	dx, err := repo.ListDiagnoses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	px, err := repo.ListProcedures(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(dx) == 0 && len(px) == 0 {
		return nil, fmt.Errorf("load catalog: tables are empty, run `catalog seed`")
	}

	cat := NewCatalog(dx, px)
	missingDx, missingPx := cat.MissingCodes()
	if len(missingDx)+len(missingPx) > 0 {
		logger.Warn().
			Strs("icd10", missingDx).
			Strs("cpt", missingPx).
			Msg("catalog is missing codes referenced by suggestion rules")
	}
	logger.Info().Int("icd10", len(dx)).Int("cpt", len(px)).Msg("catalog loaded")
	return cat, nil
}

// Seed writes the built-in catalog to the repository.
func (s *Service) Seed(ctx context.Context) (diagnoses, procedures int, err error) {
	if s.repo == nil {
		return 0, 0, ErrNoRepository
	}
	builtin := BuiltinCatalog()
	if diagnoses, err = s.repo.UpsertDiagnoses(ctx, builtin.Diagnoses()); err != nil {
		return 0, 0, fmt.Errorf("seed diagnoses: %w", err)
	}
	if procedures, err = s.repo.UpsertProcedures(ctx, builtin.Procedures()); err != nil {
		return diagnoses, 0, fmt.Errorf("seed procedures: %w", err)
	}
	s.logger.Info().Int("icd10", diagnoses).Int("cpt", procedures).Msg("catalog seeded")
	return diagnoses, procedures, nil
}

// =========== Suggestions ===========

// SuggestionRequest is the input of a multi-condition suggestion run.
type SuggestionRequest struct {
	Conditions []string               `json:"conditions"`
	Answers    interview.Answers      `json:"answers"`
	Visit      interview.VisitContext `json:"visit"`
}

// SuggestionResponse is the output of a multi-condition suggestion run.
type SuggestionResponse struct {
	ID         string               `json:"id"`
	Result     MultiConditionResult `json:"result"`
	TotalRVU   float64              `json:"total_rvu"`
	Laterality Laterality           `json:"laterality,omitempty"`
	FHIR       *FHIRCodes           `json:"fhir,omitempty"`
}

// FHIRCodes is the result rendered as FHIR CodeableConcepts.
type FHIRCodes struct {
	Diagnoses  []fhir.CodeableConcept `json:"diagnoses"`
	Procedures []fhir.CodeableConcept `json:"procedures"`
}

// Suggest runs the multi-condition aggregator. Unknown condition
// identifiers are rejected with ErrUnknownCondition.
func (s *Service) Suggest(ctx context.Context, req *SuggestionRequest, withFHIR bool) (*SuggestionResponse, error) {
	cts, err := parseConditions(req.Conditions)
	if err != nil {
		return nil, err
	}

	result := s.engine.SuggestMultiConditionCodes(cts, req.Answers, req.Visit)
	codes := make([]string, 0, len(result.CPT))
	for _, c := range result.CPT {
		codes = append(codes, c.Code)
	}
	resp := &SuggestionResponse{
		ID:         uuid.NewString(),
		Result:     result,
		TotalRVU:   s.engine.CalculateRVU(codes),
		Laterality: DetectLaterality(req.Answers),
	}
	if withFHIR {
		resp.FHIR = &FHIRCodes{Diagnoses: result.FHIRDiagnoses(), Procedures: result.FHIRProcedures()}
	}

	s.metrics.ObserveSuggestion("multi", conditionStrings(cts), result.EMLevel.Code, resp.TotalRVU)
	zerolog.Ctx(ctx).Debug().
		Str("run_id", resp.ID).
		Strs("conditions", conditionStrings(cts)).
		Int("icd10", len(result.ICD10)).
		Int("cpt", len(result.CPT)).
		Str("em_level", result.EMLevel.Code).
		Float64("total_rvu", resp.TotalRVU).
		Msg("suggestion run")
	return resp, nil
}

// SingleConditionRequest is the input of the per-condition operations.
type SingleConditionRequest struct {
	Condition string                 `json:"condition"`
	Answers   interview.Answers      `json:"answers"`
	Visit     interview.VisitContext `json:"visit"`
}

// SuggestICD10 returns the diagnosis suggestions for one condition.
func (s *Service) SuggestICD10(ctx context.Context, req *SingleConditionRequest) ([]CodeSuggestion, error) {
	ct, err := parseCondition(req.Condition)
	if err != nil {
		return nil, err
	}
	out := s.engine.SuggestICD10(ct, req.Answers)
	s.metrics.ObserveSuggestion("icd10", []string{string(ct)}, "", 0)
	return out, nil
}

// SuggestCPT returns the procedure suggestions for one condition, E&M first.
func (s *Service) SuggestCPT(ctx context.Context, req *SingleConditionRequest) ([]CodeSuggestion, error) {
	ct, err := parseCondition(req.Condition)
	if err != nil {
		return nil, err
	}
	out := s.engine.SuggestCPT(ct, req.Answers, req.Visit)
	s.metrics.ObserveSuggestion("cpt", []string{string(ct)}, out[0].Code, 0)
	return out, nil
}

// SuggestEMLevel returns the E&M suggestion for one condition.
func (s *Service) SuggestEMLevel(ctx context.Context, req *SingleConditionRequest) (CodeSuggestion, error) {
	ct, err := parseCondition(req.Condition)
	if err != nil {
		return CodeSuggestion{}, err
	}
	out := s.engine.SuggestEMLevel(ct, req.Answers, req.Visit)
	s.metrics.ObserveSuggestion("em", []string{string(ct)}, out.Code, 0)
	return out, nil
}

// CalculateRVU sums the RVUs of codes against the active catalog.
func (s *Service) CalculateRVU(codes []string) float64 {
	return s.engine.CalculateRVU(codes)
}

func parseCondition(id string) (interview.ConditionType, error) {
	ct, err := interview.ParseConditionType(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCondition, id)
	}
	return ct, nil
}

func parseConditions(ids []string) ([]interview.ConditionType, error) {
	out := make([]interview.ConditionType, 0, len(ids))
	for _, id := range ids {
		ct, err := parseCondition(id)
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, nil
}

func conditionStrings(cts []interview.ConditionType) []string {
	out := make([]string, len(cts))
	for i, ct := range cts {
		out[i] = string(ct)
	}
	return out
}

// =========== Catalog ===========

// ListDiagnoses returns the catalog's diagnosis entries, optionally
// restricted to one category.
func (s *Service) ListDiagnoses(category string) []DiagnosisCodeEntry {
	all := s.engine.Catalog().Diagnoses()
	if category == "" {
		return all
	}
	out := make([]DiagnosisCodeEntry, 0)
	for _, d := range all {
		if strings.EqualFold(d.Category, category) {
			out = append(out, d)
		}
	}
	return out
}

// ListProcedures returns the catalog's procedure entries, optionally
// restricted to one category.
func (s *Service) ListProcedures(category string) []ProcedureCodeEntry {
	all := s.engine.Catalog().Procedures()
	if category == "" {
		return all
	}
	out := make([]ProcedureCodeEntry, 0)
	for _, p := range all {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

// GetDiagnosis looks up one ICD-10-CM code.
func (s *Service) GetDiagnosis(code string) (DiagnosisCodeEntry, error) {
	d, ok := s.engine.Catalog().Diagnosis(strings.ToUpper(strings.TrimSpace(code)))
	if !ok {
		return DiagnosisCodeEntry{}, fmt.Errorf("icd10 %q: %w", code, ErrCodeNotFound)
	}
	return d, nil
}

// GetProcedure looks up one CPT code.
func (s *Service) GetProcedure(code string) (ProcedureCodeEntry, error) {
	p, ok := s.engine.Catalog().Procedure(strings.TrimSpace(code))
	if !ok {
		return ProcedureCodeEntry{}, fmt.Errorf("cpt %q: %w", code, ErrCodeNotFound)
	}
	return p, nil
}

// =========== FHIR Operations ===========

// CodeSystemRequest is the input of CodeSystem/$lookup and $validate-code.
type CodeSystemRequest struct {
	System  string `json:"system" query:"system"`
	Code    string `json:"code" query:"code"`
	Display string `json:"display,omitempty" query:"display"`
}

// ErrUnsupportedSystem is returned for code systems other than ICD-10-CM and CPT.
var ErrUnsupportedSystem = errors.New("unsupported code system")

// Lookup implements CodeSystem/$lookup against the active catalog.
func (s *Service) Lookup(req *CodeSystemRequest) (*fhir.Parameters, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	switch req.System {
	case SystemICD10:
		d, err := s.GetDiagnosis(req.Code)
		if err != nil {
			return nil, err
		}
		params := fhir.NewParameters(
			fhir.StringParam("name", "ICD-10-CM"),
			fhir.StringParam("display", d.Description),
			fhir.StringParam("category", d.Category),
		)
		if d.Laterality != LateralityUnspecified {
			params.Parameter = append(params.Parameter, fhir.StringParam("laterality", string(d.Laterality)))
		}
		return params, nil
	case SystemCPT:
		p, err := s.GetProcedure(req.Code)
		if err != nil {
			return nil, err
		}
		return fhir.NewParameters(
			fhir.StringParam("name", "CPT"),
			fhir.StringParam("display", p.Description),
			fhir.StringParam("category", p.Category),
			fhir.DecimalParam("rvu", p.RVU),
		), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedSystem, req.System)
}

// ValidateCode implements CodeSystem/$validate-code. An unknown code is a
// successful response with result=false. When a display is supplied it
// must match the catalog description, ignoring case.
func (s *Service) ValidateCode(req *CodeSystemRequest) (*fhir.Parameters, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var display string
	var found bool
	switch req.System {
	case SystemICD10:
		if d, err := s.GetDiagnosis(req.Code); err == nil {
			found, display = true, d.Description
		}
	case SystemCPT:
		if p, err := s.GetProcedure(req.Code); err == nil {
			found, display = true, p.Description
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSystem, req.System)
	}

	switch {
	case !found:
		return fhir.NewParameters(
			fhir.BoolParam("result", false),
			fhir.StringParam("message", fmt.Sprintf("code '%s' not found in system '%s'", req.Code, req.System)),
		), nil
	case req.Display != "" && !strings.EqualFold(strings.TrimSpace(req.Display), display):
		return fhir.NewParameters(
			fhir.BoolParam("result", false),
			fhir.StringParam("display", display),
			fhir.StringParam("message", fmt.Sprintf("display '%s' does not match '%s'", req.Display, display)),
		), nil
	}
	return fhir.NewParameters(
		fhir.BoolParam("result", true),
		fhir.StringParam("display", display),
	), nil
}

// missingParamError names a required $lookup / $validate-code parameter.
type missingParamError string

func (e missingParamError) Error() string { return string(e) + " is required" }

func (r *CodeSystemRequest) validate() error {
	if r.System == "" {
		return missingParamError("system")
	}
	if r.Code == "" {
		return missingParamError("code")
	}
	return nil
}
