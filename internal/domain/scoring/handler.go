package scoring

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vascintake/vascintake/internal/domain/interview"
)

// Handler exposes the scoring systems over REST.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/scoring/:condition", h.ListSystems)
	api.POST("/scoring/:condition", h.Evaluate)
}

type evaluateRequest struct {
	Answers interview.Answers `json:"answers"`
}

type evaluateResponse struct {
	Condition interview.ConditionType `json:"condition"`
	Results   []Result                `json:"results"`
}

// ListSystems handles GET /api/v1/scoring/:condition
func (h *Handler) ListSystems(c echo.Context) error {
	ct, err := interview.ParseConditionType(c.Param("condition"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, ForCondition(ct))
}

// Evaluate handles POST /api/v1/scoring/:condition
func (h *Handler) Evaluate(c echo.Context) error {
	ct, err := interview.ParseConditionType(c.Param("condition"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var req evaluateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	results, err := Evaluate(ct, req.Answers)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, evaluateResponse{Condition: ct, Results: results})
}
