package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	bserrors "github.com/lepinkainen/bookscan/internal/errors"
	"github.com/lepinkainen/bookscan/internal/identify"
	"github.com/lepinkainen/bookscan/internal/library"
	"github.com/lepinkainen/bookscan/internal/metrics"
)

// ScanKeyHeader carries the library key of a saved scan.
const ScanKeyHeader = "X-Scan-Key"

const maxSearchLimit = 50

type identifyRequest struct {
	OCRText string `json:"ocrText"`
	Save    bool   `json:"save"`
}

type searchResponse struct {
	Results []identify.Record `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// outcomeStatus maps an outcome to its HTTP status.
func outcomeStatus(outcome identify.Outcome) int {
	if outcome.Success {
		return http.StatusOK
	}
	switch outcome.Kind {
	case identify.FailureInvalidInput:
		return http.StatusBadRequest
	case identify.FailureNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func outcomeResult(outcome identify.Outcome) string {
	if outcome.Success {
		return "success"
	}
	return string(outcome.Kind)
}

func (s *Server) handleIdentify(c echo.Context) error {
	var req identifyRequest
	if err := c.Bind(&req); err != nil {
		outcome := identify.Failed("", identify.FailureInvalidInput, "Invalid request body")
		metrics.RecordIdentify("none", outcomeResult(outcome))
		return c.JSON(http.StatusBadRequest, outcome)
	}

	outcome := s.identifier.Identify(c.Request().Context(), req.OCRText)

	intent := string(outcome.Intent)
	if intent == "" {
		intent = "none"
	}
	metrics.RecordIdentify(intent, outcomeResult(outcome))

	if outcome.Success && s.library != nil && (req.Save || c.QueryParam("save") == "true") {
		key, err := s.library.SaveScan(outcome)
		if err != nil {
			slog.Warn("Failed to save scan", "title", outcome.Data.Title, "error", err)
		} else {
			c.Response().Header().Set(ScanKeyHeader, key)
		}
	}

	return c.JSON(outcomeStatus(outcome), outcome)
}

func (s *Server) handleSearch(c echo.Context) error {
	query := c.QueryParam("q")

	limit := identify.DefaultSearchLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
		}
		limit = min(n, maxSearchLimit)
	}

	records, err := s.identifier.Search(c.Request().Context(), query, limit)
	switch {
	case err == nil:
	case bserrors.IsInvalidInput(err):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case bserrors.IsNotFound(err):
		records = []identify.Record{}
	default:
		return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, searchResponse{Results: records})
}

func (s *Server) handleListShelf(c echo.Context) error {
	items, err := s.library.List(c.Param("shelf"))
	if err != nil {
		return shelfError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAddToShelf(c echo.Context) error {
	var item library.ShelfItem
	if err := c.Bind(&item); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}

	added, err := s.library.Add(c.Param("shelf"), item)
	if err != nil {
		return shelfError(c, err)
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	return c.JSON(status, map[string]bool{"added": added})
}

func (s *Server) handleRemoveFromShelf(c echo.Context) error {
	filePath := c.QueryParam("filePath")
	if filePath == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: library.ErrMissingFilePath.Error()})
	}

	removed, err := s.library.Remove(c.Param("shelf"), filePath)
	if err != nil {
		return shelfError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"removed": removed})
}

func shelfError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, library.ErrUnknownShelf):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, library.ErrMissingFilePath):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	return err
}
