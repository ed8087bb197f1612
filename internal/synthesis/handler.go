package synthesis

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/chartvoice/backend/internal/audio"
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
	g.POST("/speech", h.Speak)
}

type speakRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Speak synthesizes the given text and returns a playable WAV file.
func (h *Handler) Speak(c echo.Context) error {
	var req speakRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.Text == "" {
		return shared.BadRequest("missing_text", "text is required")
	}

	lang := locale.Normalize(req.Language)
	pcm, err := h.client.Synthesize(c.Request().Context(), req.Text, string(lang))
	if err != nil {
		if errors.Is(err, shared.ErrQuotaExceeded) {
			return shared.TooManyRequests("quota_exceeded", locale.Message(lang, "quota_exceeded"))
		}
		h.logger.Error("speech synthesis failed", "error", err)
		return shared.InternalError("synthesis_failed", locale.Message(lang, "transport_error"))
	}

	wav := audio.WrapWAV(pcm, OutputSampleRate)
	return c.Blob(http.StatusOK, "audio/wav", wav)
}
