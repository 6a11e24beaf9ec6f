package coding

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vascintake/vascintake/internal/domain/interview"
	"github.com/vascintake/vascintake/internal/platform/fhir"
	"github.com/vascintake/vascintake/pkg/pagination"
)

// Handler provides REST endpoints for code suggestion and the code catalog.
type Handler struct {
	svc *Service
}

// NewHandler creates a new coding handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers coding routes on the API and FHIR groups.
func (h *Handler) RegisterRoutes(api *echo.Group, fhirGroup *echo.Group) {
	api.GET("/conditions", h.ListConditions)

	coding := api.Group("/coding")
	coding.POST("/suggestions", h.Suggest)
	coding.POST("/icd10", h.SuggestICD10)
	coding.POST("/cpt", h.SuggestCPT)
	coding.POST("/em-level", h.SuggestEMLevel)
	coding.POST("/rvu", h.CalculateRVU)

	catalog := coding.Group("/catalog")
	catalog.GET("/icd10", h.ListDiagnoses)
	catalog.GET("/icd10/:code", h.GetDiagnosis)
	catalog.GET("/cpt", h.ListProcedures)
	catalog.GET("/cpt/:code", h.GetProcedure)

	fhirGroup.GET("/CodeSystem/$lookup", h.FHIRLookup)
	fhirGroup.POST("/CodeSystem/$lookup", h.FHIRLookup)
	fhirGroup.GET("/CodeSystem/$validate-code", h.FHIRValidateCode)
	fhirGroup.POST("/CodeSystem/$validate-code", h.FHIRValidateCode)
}

// ListConditions handles GET /api/v1/conditions
func (h *Handler) ListConditions(c echo.Context) error {
	return c.JSON(http.StatusOK, interview.Conditions())
}

// Suggest handles POST /api/v1/coding/suggestions[?fhir=true]
func (h *Handler) Suggest(c echo.Context) error {
	var req SuggestionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	withFHIR, _ := strconv.ParseBool(c.QueryParam("fhir"))
	resp, err := h.svc.Suggest(c.Request().Context(), &req, withFHIR)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// SuggestICD10 handles POST /api/v1/coding/icd10
func (h *Handler) SuggestICD10(c echo.Context) error {
	var req SingleConditionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	out, err := h.svc.SuggestICD10(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

// SuggestCPT handles POST /api/v1/coding/cpt
func (h *Handler) SuggestCPT(c echo.Context) error {
	var req SingleConditionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	out, err := h.svc.SuggestCPT(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

// SuggestEMLevel handles POST /api/v1/coding/em-level
func (h *Handler) SuggestEMLevel(c echo.Context) error {
	var req SingleConditionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	out, err := h.svc.SuggestEMLevel(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

type rvuRequest struct {
	Codes []string `json:"codes"`
}

// CalculateRVU handles POST /api/v1/coding/rvu
func (h *Handler) CalculateRVU(c echo.Context) error {
	var req rvuRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"codes":     req.Codes,
		"total_rvu": h.svc.CalculateRVU(req.Codes),
	})
}

// ListDiagnoses handles GET /api/v1/coding/catalog/icd10?category=...
func (h *Handler) ListDiagnoses(c echo.Context) error {
	p := pagination.FromContext(c)
	all := h.svc.ListDiagnoses(c.QueryParam("category"))
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Page(all, p), len(all), p).
		WithNext(c.Request().URL.Path, c.QueryParams(), p))
}

// GetDiagnosis handles GET /api/v1/coding/catalog/icd10/:code
func (h *Handler) GetDiagnosis(c echo.Context) error {
	d, err := h.svc.GetDiagnosis(c.Param("code"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

// ListProcedures handles GET /api/v1/coding/catalog/cpt?category=...
func (h *Handler) ListProcedures(c echo.Context) error {
	p := pagination.FromContext(c)
	all := h.svc.ListProcedures(c.QueryParam("category"))
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Page(all, p), len(all), p).
		WithNext(c.Request().URL.Path, c.QueryParams(), p))
}

// GetProcedure handles GET /api/v1/coding/catalog/cpt/:code
func (h *Handler) GetProcedure(c echo.Context) error {
	p, err := h.svc.GetProcedure(c.Param("code"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// FHIRLookup handles GET/POST /fhir/CodeSystem/$lookup
func (h *Handler) FHIRLookup(c echo.Context) error {
	var req CodeSystemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	resp, err := h.svc.Lookup(&req)
	if err != nil {
		return fhirError(c, &req, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// FHIRValidateCode handles GET/POST /fhir/CodeSystem/$validate-code
func (h *Handler) FHIRValidateCode(c echo.Context) error {
	var req CodeSystemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	resp, err := h.svc.ValidateCode(&req)
	if err != nil {
		return fhirError(c, &req, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrCodeNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnknownCondition):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func fhirError(c echo.Context, req *CodeSystemRequest, err error) error {
	var missing missingParamError
	switch {
	case errors.As(err, &missing):
		return c.JSON(http.StatusBadRequest, fhir.RequiredFieldOutcome(string(missing)))
	case errors.Is(err, ErrCodeNotFound):
		return c.JSON(http.StatusNotFound, fhir.NotFoundOutcome(req.System, req.Code))
	case errors.Is(err, ErrUnsupportedSystem):
		return c.JSON(http.StatusBadRequest, fhir.NotSupportedOutcome(err.Error()))
	}
	return c.JSON(http.StatusInternalServerError, fhir.InternalErrorOutcome(err.Error()))
}
