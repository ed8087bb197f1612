// Package history persists analysis results and serves them back for the
// history panel. A failed save never blocks the analysis flow; the client
// gets the persistence error and keeps the result it already has.
package history

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chartvoice/backend/internal/locale"
	"github.com/chartvoice/backend/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/history", h.List)
	g.POST("/history", h.Create)
	g.GET("/history/:id", h.Get)
	g.DELETE("/history/:id", h.Delete)
}

type createRequest struct {
	ImageData   string `json:"image_data"`
	SignalType  string `json:"signal_type"`
	Confidence  int    `json:"confidence"`
	Timeframe   string `json:"timeframe"`
	Explanation string `json:"explanation"`
	Language    string `json:"language"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	lang := locale.Normalize(req.Language)
	signal := shared.SignalType(strings.ToUpper(req.SignalType))
	if !signal.Valid() {
		return shared.BadRequest("invalid_signal", "signal_type must be BUY, SELL or HOLD")
	}
	if req.Confidence < 0 || req.Confidence > 100 {
		return shared.BadRequest("invalid_confidence", "confidence must be between 0 and 100")
	}

	record := &Record{
		ImageData:   req.ImageData,
		SignalType:  signal,
		Confidence:  req.Confidence,
		Timeframe:   req.Timeframe,
		Explanation: req.Explanation,
		Language:    string(lang),
	}
	if err := h.store.Create(c.Request().Context(), record); err != nil {
		h.logger.Error("failed to save history record", "error", err)
		return shared.InternalError("persistence_error", locale.Message(lang, "persistence_error"))
	}

	return c.JSON(http.StatusCreated, map[string]string{"id": record.ID})
}

func (h *Handler) List(c echo.Context) error {
	records, err := h.store.List(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list history", "error", err)
		lang := locale.Normalize(c.QueryParam("language"))
		return shared.InternalError("persistence_error", locale.Message(lang, "persistence_error"))
	}
	if records == nil {
		records = []*Record{}
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) Get(c echo.Context) error {
	record, err := h.store.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("record_not_found", "history record not found")
		}
		h.logger.Error("failed to get history record", "error", err)
		lang := locale.Normalize(c.QueryParam("language"))
		return shared.InternalError("persistence_error", locale.Message(lang, "persistence_error"))
	}
	return c.JSON(http.StatusOK, record)
}

func (h *Handler) Delete(c echo.Context) error {
	err := h.store.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("record_not_found", "history record not found")
		}
		h.logger.Error("failed to delete history record", "error", err)
		lang := locale.Normalize(c.QueryParam("language"))
		return shared.InternalError("persistence_error", locale.Message(lang, "persistence_error"))
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
