// Package voice exposes the realtime voice assistant over a browser-facing
// websocket. The browser acts as the capture and output device pair; the
// bridge in between resamples mic frames for the streaming AI session and
// plays returned audio back in order.
package voice

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/chartvoice/backend/internal/bridge"
	"github.com/chartvoice/backend/internal/live"
	"github.com/chartvoice/backend/internal/locale"
	"github.com/chartvoice/backend/internal/shared"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const defaultCaptureRate = 48000

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	liveCfg live.Config
	store   *Store
	logger  *slog.Logger
}

func NewHandler(liveCfg live.Config, store *Store, logger *slog.Logger) *Handler {
	return &Handler{liveCfg: liveCfg, store: store, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/voice", h.ServeSession)
	g.GET("/voice/sessions", h.ListSessions)
}

func (h *Handler) ListSessions(c echo.Context) error {
	sessions, err := h.store.ListActive(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list voice sessions", "error", err)
		return shared.InternalError("list_failed", "failed to list voice sessions")
	}
	if sessions == nil {
		sessions = []*SessionInfo{}
	}
	return c.JSON(http.StatusOK, sessions)
}

// ServeSession upgrades the connection and runs one voice session until the
// client stops, the upstream session dies, or the socket goes away.
func (h *Handler) ServeSession(c echo.Context) error {
	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	conn := newConn(ws, h.logger)
	go conn.writePump()
	defer conn.close()

	ws.SetReadLimit(maxMessageSize)

	start, ok := conn.readMessage()
	if !ok || start.Type != msgStart {
		h.logger.Warn("voice session opened without start message")
		return nil
	}

	lang := locale.Normalize(start.Language)
	rate := start.SampleRate
	if rate <= 0 {
		rate = defaultCaptureRate
	}

	capture := newWSCapture(rate)
	if start.Code != "" {
		// Client already knows its mic is unusable; let the bridge surface
		// the localized error through the normal path.
		capture.fail(start.Code)
	}
	output := newWSOutput(conn)

	b := bridge.New(bridge.Config{
		Capture:  capture,
		Output:   output,
		Dial:     h.dialer(),
		Language: lang,
		Notify: func(ev bridge.Event) {
			conn.sendMsg(serverMessage{
				Type:    string(ev.Type),
				Code:    ev.Code,
				Message: ev.Message,
				Text:    ev.Text,
			})
		},
		Logger: h.logger,
	})
	defer b.Close()

	info := &SessionInfo{Language: string(lang)}
	ctx := c.Request().Context()
	if err := h.store.Create(ctx, info); err != nil {
		h.logger.Error("failed to register voice session", "error", err)
	}
	status := StatusEnded
	defer func() {
		stats := b.Stats()
		if err := h.store.End(context.Background(), info.ID, status, stats.FramesSent, stats.ChunksPlayed); err != nil {
			h.logger.Error("failed to end voice session", "error", err, "session_id", info.ID)
		}
	}()

	if err := b.Connect(ctx); err != nil {
		status = StatusError
		return nil
	}
	h.logger.Info("voice session started", "session_id", info.ID, "language", lang, "capture_rate", rate)

	for {
		msg, ok := conn.readMessage()
		if !ok {
			return nil
		}
		switch msg.Type {
		case msgAudio:
			capture.deliver(msg.Data)
		case msgPlayed:
			output.completePlayed()
		case msgDeviceError:
			capture.fail(msg.Code)
			code := shared.ErrorCode(deviceError(msg.Code))
			conn.sendMsg(serverMessage{
				Type:    string(bridge.EventError),
				Code:    code,
				Message: locale.Message(lang, code),
			})
			status = StatusError
			return nil
		case msgStop:
			return nil
		default:
			h.logger.Debug("ignoring unknown client message", "type", msg.Type)
		}
	}
}

func (h *Handler) dialer() bridge.Dialer {
	return func(ctx context.Context, ev bridge.SessionEvents) (bridge.SessionHandle, error) {
		sess, err := live.Dial(ctx, h.liveCfg, live.Callbacks{
			OnOpen:        ev.OnOpen,
			OnAudio:       ev.OnAudio,
			OnInterrupted: ev.OnInterrupted,
			OnTranscript:  ev.OnTranscript,
			OnError:       ev.OnError,
			OnClose:       ev.OnClose,
		}, h.logger)
		if err != nil {
			return nil, err
		}
		return sess, nil
	}
}
