package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"fieldcheck/internal/check"
	"fieldcheck/internal/contract"
	"fieldcheck/internal/core"
	"fieldcheck/internal/history"
)

// Checker runs the validation scenarios; *check.Checker implements it.
type Checker interface {
	Account(ctx context.Context, name string) (*check.Result, error)
	Submission(ctx context.Context, id string) (*check.Result, error)
	FirstComment(ctx context.Context, submissionID string) (*check.Result, error)
	FrontPageMedia(ctx context.Context) (*check.Result, error)
}

// Handler holds the HTTP handlers
type Handler struct {
	checker  Checker
	registry *contract.Registry
	reader   history.Reader
}

// NewHandler creates a new handler
func NewHandler(checker Checker, registry *contract.Registry, reader history.Reader) *Handler {
	return &Handler{
		checker:  checker,
		registry: registry,
		reader:   reader,
	}
}

// checkResponse is the body of every /v1/check response.
type checkResponse struct {
	OK      bool              `json:"ok"`
	Subject string            `json:"subject"`
	Reports []contract.Report `json:"reports"`
	Failure *contract.Failure `json:"failure,omitempty"`
}

type contractInfo struct {
	Owner     contract.TypeID `json:"owner"`
	Operation string          `json:"operation"`
	Nullable  bool            `json:"nullable"`
}

type typeInfo struct {
	Type      contract.TypeID `json:"type"`
	Contracts []contractInfo  `json:"contracts"`
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ListTypes handles GET /v1/types
func (h *Handler) ListTypes(c echo.Context) error {
	types := h.registry.Types()
	resp := make([]typeInfo, 0, len(types))
	for _, id := range types {
		discovered := h.registry.Discover(id)
		info := typeInfo{Type: id, Contracts: make([]contractInfo, 0, len(discovered))}
		for _, ct := range discovered {
			info.Contracts = append(info.Contracts, contractInfo{
				Owner:     ct.Owner,
				Operation: ct.Operation,
				Nullable:  ct.Nullable,
			})
		}
		resp = append(resp, info)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"policy": h.registry.Policy(),
		"types":  resp,
	})
}

// CheckAccount handles GET /v1/check/accounts/:name
func (h *Handler) CheckAccount(c echo.Context) error {
	result, err := h.checker.Account(c.Request().Context(), c.Param("name"))
	return writeResult(c, result, err)
}

// CheckSubmission handles GET /v1/check/submissions/:id
func (h *Handler) CheckSubmission(c echo.Context) error {
	result, err := h.checker.Submission(c.Request().Context(), c.Param("id"))
	return writeResult(c, result, err)
}

// CheckFirstComment handles GET /v1/check/submissions/:id/comment
func (h *Handler) CheckFirstComment(c echo.Context) error {
	result, err := h.checker.FirstComment(c.Request().Context(), c.Param("id"))
	if errors.Is(err, check.ErrNoComments) {
		return handleError(c, core.NewNotFoundError(err.Error()))
	}
	return writeResult(c, result, err)
}

// CheckFrontPageMedia handles GET /v1/check/frontpage/media
func (h *Handler) CheckFrontPageMedia(c echo.Context) error {
	result, err := h.checker.FrontPageMedia(c.Request().Context())
	return writeResult(c, result, err)
}

// ListHistory handles GET /v1/history
//
// Query parameters: model_type, failures_only, since (RFC 3339), limit, offset.
func (h *Handler) ListHistory(c echo.Context) error {
	if h.reader == nil {
		return handleError(c, core.NewNotFoundError("history is disabled"))
	}

	q := history.Query{
		ModelType:    c.QueryParam("model_type"),
		FailuresOnly: c.QueryParam("failures_only") == "true",
	}
	var err error
	if q.Limit, err = intParam(c, "limit"); err != nil {
		return handleError(c, err)
	}
	if q.Offset, err = intParam(c, "offset"); err != nil {
		return handleError(c, err)
	}
	if q.Since, err = timeParam(c, "since"); err != nil {
		return handleError(c, err)
	}

	entries, err := h.reader.Recent(c.Request().Context(), q)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"entries": entries})
}

// HistorySummary handles GET /v1/history/summary
func (h *Handler) HistorySummary(c echo.Context) error {
	if h.reader == nil {
		return handleError(c, core.NewNotFoundError("history is disabled"))
	}

	since, err := timeParam(c, "since")
	if err != nil {
		return handleError(c, err)
	}

	rows, err := h.reader.Summary(c.Request().Context(), since)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"summary": rows})
}

// writeResult answers 200 when every report passed and 422 otherwise.
func writeResult(c echo.Context, result *check.Result, err error) error {
	if err != nil {
		return handleError(c, err)
	}

	resp := checkResponse{
		OK:      result.OK(),
		Subject: result.Subject,
		Reports: result.Reports,
		Failure: result.Failure(),
	}
	if resp.Reports == nil {
		resp.Reports = []contract.Report{}
	}

	status := http.StatusOK
	if !resp.OK {
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, resp)
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewInvalidRequestError("invalid "+name+" parameter: "+raw, err)
	}
	return n, nil
}

func timeParam(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, core.NewInvalidRequestError("invalid "+name+" parameter, expected RFC 3339: "+raw, err)
	}
	return t, nil
}

// handleError converts errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		return c.JSON(apiErr.HTTPStatusCode(), apiErr.ToJSON())
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
