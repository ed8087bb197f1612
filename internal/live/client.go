// Package live implements the client side of the bidirectional streaming
// voice session: one WebSocket connection carrying base64 PCM both ways,
// exposed behind a minimal send-plus-callbacks surface.
package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chartvoice/backend/internal/shared"
	"github.com/gorilla/websocket"
)

const (
	writeWait          = 10 * time.Second
	defaultSendBufSize = 64
)

type Session struct {
	ws  *websocket.Conn
	cb  Callbacks
	log *slog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Dial opens the streaming session and sends the setup message. The returned
// Session is live once the endpoint acknowledges setup; OnOpen fires then.
func Dial(ctx context.Context, cfg Config, cb Callbacks, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}

	url := cfg.URL
	if cfg.APIKey != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "key=" + cfg.APIKey
	}

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("dial live session: %w", shared.ErrQuotaExceeded)
		}
		return nil, fmt.Errorf("dial live session: %w", err)
	}

	bufSize := cfg.SendBufferSize
	if bufSize <= 0 {
		bufSize = defaultSendBufSize
	}

	s := &Session{
		ws:   ws,
		cb:   cb,
		log:  log.With("component", "live"),
		send: make(chan []byte, bufSize),
		done: make(chan struct{}),
	}

	setup, err := json.Marshal(buildSetup(cfg))
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("marshal setup: %w", err)
	}
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, setup); err != nil {
		ws.Close()
		return nil, fmt.Errorf("send setup: %w", err)
	}

	go s.writePump()
	go s.readPump()

	return s, nil
}

func buildSetup(cfg Config) setupMessage {
	p := setupPayload{
		Model: cfg.Model,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	if cfg.Voice != "" {
		p.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoice{VoiceName: cfg.Voice},
			},
		}
	}
	if cfg.SystemInstruction != "" {
		p.SystemInstruction = &content{Parts: []part{{Text: cfg.SystemInstruction}}}
	}
	if cfg.InputTranscription {
		p.InputTranscription = &transcriptionOpts{}
	}
	if cfg.OutputTranscription {
		p.OutputTranscription = &transcriptionOpts{}
	}
	return setupMessage{Setup: p}
}

// SendRealtimeInput frames raw PCM bytes as one base64 media chunk and hands
// it to the writer. Fire-and-forget: no ack is awaited and a full buffer
// drops the unit rather than blocking the capture path.
func (s *Session) SendRealtimeInput(mimeType string, data []byte) {
	msg := realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []inlineData{{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(data),
			}},
		},
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("marshal realtime input", "error", err)
		return
	}

	select {
	case s.send <- payload:
	case <-s.done:
	default:
		s.log.Warn("send buffer full, dropping audio unit")
	}
}

func (s *Session) writePump() {
	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.log.Error("websocket write error", "error", err)
				s.Close()
				return
			}
		}
	}
}

func (s *Session) readPump() {
	defer func() {
		s.Close()
		if s.cb.OnClose != nil {
			s.cb.OnClose()
		}
	}()

	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			if s.cb.OnError != nil {
				s.cb.OnError(classifyError(err))
			}
			return
		}
		s.handleMessage(data)
	}
}

func (s *Session) handleMessage(data []byte) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Debug("unparseable server message", "error", err)
		return
	}

	switch {
	case msg.SetupComplete != nil:
		if s.cb.OnOpen != nil {
			s.cb.OnOpen()
		}

	case msg.Error != nil:
		if s.cb.OnError != nil {
			s.cb.OnError(classifyServerError(msg.Error))
		}

	case msg.ServerContent != nil:
		s.handleServerContent(msg.ServerContent)
	}
}

func (s *Session) handleServerContent(sc *serverContent) {
	// Interruption clears downstream playback before any new audio in this
	// message is considered.
	if sc.Interrupted {
		if s.cb.OnInterrupted != nil {
			s.cb.OnInterrupted()
		}
		return
	}

	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" && s.cb.OnTranscript != nil {
		s.cb.OnTranscript(sc.OutputTranscription.Text)
	}

	if sc.ModelTurn == nil {
		return
	}
	for _, p := range sc.ModelTurn.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			pcm, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				s.log.Error("decode audio payload", "error", err)
				continue
			}
			if s.cb.OnAudio != nil {
				s.cb.OnAudio(pcm)
			}
		}
		if p.Text != "" && s.cb.OnTranscript != nil {
			s.cb.OnTranscript(p.Text)
		}
	}
}

func classifyError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "quota") || strings.Contains(msg, "429") {
		return fmt.Errorf("live session: %w", shared.ErrQuotaExceeded)
	}
	return fmt.Errorf("live session: %w: %s", shared.ErrTransport, msg)
}

func classifyServerError(e *serverError) error {
	if e.Code == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED" {
		return fmt.Errorf("live session: %s: %w", e.Message, shared.ErrQuotaExceeded)
	}
	return fmt.Errorf("live session: %s: %w", e.Message, shared.ErrTransport)
}

// Close tears the connection down. Safe to call more than once and from
// inside any callback.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = s.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = s.ws.Close()
	})
	return err
}
