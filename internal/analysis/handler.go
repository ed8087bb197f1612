package analysis

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chartvoice/backend/internal/locale"
	"github.com/chartvoice/backend/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	client *Client
	logger *slog.Logger
}

func NewHandler(client *Client, logger *slog.Logger) *Handler {
	return &Handler{client: client, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/analyze", h.Analyze)
}

type analyzeRequest struct {
	ImageData string `json:"image_data"`
	Language  string `json:"language"`
}

func (h *Handler) Analyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.ImageData == "" {
		return shared.BadRequest("missing_image", "image_data is required")
	}

	lang := locale.Normalize(req.Language)
	image, mimeType, err := decodeImageData(req.ImageData)
	if err != nil {
		return shared.BadRequest("invalid_image", "image_data is not valid base64")
	}

	result, err := h.client.Analyze(c.Request().Context(), image, mimeType, string(lang))
	if err != nil {
		if errors.Is(err, shared.ErrQuotaExceeded) {
			return shared.TooManyRequests("quota_exceeded", locale.Message(lang, "quota_exceeded"))
		}
		h.logger.Error("chart analysis failed", "error", err)
		return shared.InternalError("analysis_failed", locale.Message(lang, "transport_error"))
	}

	return c.JSON(http.StatusOK, result)
}

// decodeImageData accepts either a bare base64 payload or a data URL
// ("data:image/png;base64,....").
func decodeImageData(data string) ([]byte, string, error) {
	mimeType := "image/png"
	if strings.HasPrefix(data, "data:") {
		rest := strings.TrimPrefix(data, "data:")
		meta, payload, ok := strings.Cut(rest, ",")
		if !ok {
			return nil, "", fmt.Errorf("malformed data url")
		}
		if mt, _, found := strings.Cut(meta, ";"); found && mt != "" {
			mimeType = mt
		} else if meta != "" && !strings.Contains(meta, ";") {
			mimeType = meta
		}
		data = payload
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", err
	}
	return decoded, mimeType, nil
}
