package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chartvoice/backend/internal/audio"
	"github.com/chartvoice/backend/internal/live"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// fakeLiveServer impersonates the streaming AI endpoint: it acks setup and
// answers every audio unit with one synthesized chunk.
func fakeLiveServer(t *testing.T, reply []int16) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		// setup
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
		if err := ws.WriteJSON(map[string]any{"setupComplete": map[string]any{}}); err != nil {
			return
		}

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if !strings.Contains(string(data), "realtimeInput") {
				continue
			}
			pcm := audio.Int16ToPCMBytes(reply)
			resp := map[string]any{
				"serverContent": map[string]any{
					"modelTurn": map[string]any{
						"parts": []map[string]any{{
							"inlineData": map[string]any{
								"mimeType": "audio/pcm;rate=24000",
								"data":     base64.StdEncoding.EncodeToString(pcm),
							},
						}},
					},
				},
			}
			if err := ws.WriteJSON(resp); err != nil {
				return
			}
		}
	}))
}

func dialVoice(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()
	e := echo.New()
	e.GET("/api/voice", h.ServeSession)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/voice"
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial voice socket: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func readUntil(t *testing.T, client *websocket.Conn, msgType string) serverMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		client.SetReadDeadline(deadline)
		_, data, err := client.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q message: %v", msgType, err)
		}
		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("no %q message before deadline", msgType)
	return serverMessage{}
}

func TestServeSession_EndToEnd(t *testing.T) {
	upstream := fakeLiveServer(t, []int16{100, 200, 300})
	defer upstream.Close()

	store := setupTestStore(t)
	h := NewHandler(live.Config{
		URL:   "ws" + strings.TrimPrefix(upstream.URL, "http"),
		Model: "test-live",
	}, store, discardLogger())

	client := dialVoice(t, h)
	if err := client.WriteJSON(clientMessage{Type: msgStart, SampleRate: 16000, Language: "en"}); err != nil {
		t.Fatalf("send start: %v", err)
	}

	readUntil(t, client, "connected")
	readUntil(t, client, "listening")

	frame := audio.Int16ToPCMBytes([]int16{1000, 2000, 3000, 4000})
	if err := client.WriteJSON(clientMessage{Type: msgAudio, Data: base64.StdEncoding.EncodeToString(frame)}); err != nil {
		t.Fatalf("send audio: %v", err)
	}

	chunk := readUntil(t, client, msgChunk)
	pcm, err := base64.StdEncoding.DecodeString(chunk.Data)
	if err != nil {
		t.Fatalf("decode chunk: %v", err)
	}
	got := audio.PCMBytesToInt16(pcm)
	if len(got) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got))
	}
	// one quantization round trip sits within a single step of the original
	if got[0] < 99 || got[0] > 101 {
		t.Errorf("unexpected chunk payload: %v", got)
	}

	if err := client.WriteJSON(clientMessage{Type: msgPlayed}); err != nil {
		t.Fatalf("send played: %v", err)
	}
	if err := client.WriteJSON(clientMessage{Type: msgStop}); err != nil {
		t.Fatalf("send stop: %v", err)
	}
}

func TestServeSession_MicFailureSurfacesLocalizedError(t *testing.T) {
	upstream := fakeLiveServer(t, nil)
	defer upstream.Close()

	store := setupTestStore(t)
	h := NewHandler(live.Config{
		URL:   "ws" + strings.TrimPrefix(upstream.URL, "http"),
		Model: "test-live",
	}, store, discardLogger())

	client := dialVoice(t, h)
	if err := client.WriteJSON(clientMessage{Type: msgStart, SampleRate: 48000, Language: "id", Code: "permission_denied"}); err != nil {
		t.Fatalf("send start: %v", err)
	}

	errMsg := readUntil(t, client, "error")
	if errMsg.Code != "permission_denied" {
		t.Errorf("expected permission_denied code, got %s", errMsg.Code)
	}
	if !strings.Contains(errMsg.Message, "mikrofon") {
		t.Errorf("expected Indonesian message, got %q", errMsg.Message)
	}
}

func TestListSessions(t *testing.T) {
	store := setupTestStore(t)
	h := NewHandler(live.Config{}, store, discardLogger())

	info := &SessionInfo{Language: "en"}
	if err := store.Create(context.Background(), info); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/voice/sessions", nil), rec)
	if err := h.ListSessions(c); err != nil {
		t.Fatalf("ListSessions: %v", err)
	}

	var sessions []SessionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != info.ID {
		t.Errorf("expected seeded session, got %+v", sessions)
	}
}
