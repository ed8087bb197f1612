package voice

import (
	"encoding/base64"
	"sync"

	"github.com/chartvoice/backend/internal/audio"
	"github.com/chartvoice/backend/internal/live"
	"github.com/chartvoice/backend/internal/shared"
)

// deviceError maps the browser's capture failure codes onto the shared
// error taxonomy.
func deviceError(code string) error {
	switch code {
	case "device_unavailable":
		return shared.ErrDeviceUnavailable
	case "permission_denied":
		return shared.ErrPermissionDenied
	case "unsupported_environment":
		return shared.ErrUnsupportedEnvironment
	default:
		return shared.ErrTransport
	}
}

// wsCapture presents the browser microphone as a capture device. Frames
// arrive as websocket messages and are forwarded to the registered callback;
// a failure code the client reported before start is surfaced from Start.
type wsCapture struct {
	rate int

	mu       sync.Mutex
	onFrame  func([]float32)
	startErr error
}

func newWSCapture(sampleRate int) *wsCapture {
	return &wsCapture{rate: sampleRate}
}

func (c *wsCapture) Start(onFrame func([]float32)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	c.onFrame = onFrame
	return nil
}

func (c *wsCapture) SampleRate() int {
	return c.rate
}

func (c *wsCapture) Stop() {
	c.mu.Lock()
	c.onFrame = nil
	c.mu.Unlock()
}

func (c *wsCapture) fail(code string) {
	c.mu.Lock()
	c.startErr = deviceError(code)
	c.onFrame = nil
	c.mu.Unlock()
}

// deliver decodes one base64 PCM frame from the client and hands it to the
// bridge. Frames arriving while capture is stopped are dropped.
func (c *wsCapture) deliver(data string) {
	c.mu.Lock()
	onFrame := c.onFrame
	c.mu.Unlock()
	if onFrame == nil {
		return
	}

	pcm, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return
	}
	onFrame(audio.Int16ToFloat32(audio.PCMBytesToInt16(pcm)))
}

// wsOutput renders playback chunks by shipping them to the browser and
// treating the client's "played" ack as the completion signal. One chunk is
// in flight at a time; the bridge's queue provides the ordering.
type wsOutput struct {
	conn *conn

	mu      sync.Mutex
	pending func()
}

func newWSOutput(c *conn) *wsOutput {
	return &wsOutput{conn: c}
}

func (o *wsOutput) Play(samples []float32, onComplete func()) {
	pcm := audio.Int16ToPCMBytes(audio.Float32ToInt16(samples))

	o.mu.Lock()
	o.pending = onComplete
	o.mu.Unlock()

	o.conn.sendMsg(serverMessage{
		Type:       msgChunk,
		Data:       base64.StdEncoding.EncodeToString(pcm),
		SampleRate: live.OutputSampleRate,
	})
}

// completePlayed fires the pending completion, if any. A stray ack after
// Stop is a no-op.
func (o *wsOutput) completePlayed() {
	o.mu.Lock()
	done := o.pending
	o.pending = nil
	o.mu.Unlock()
	if done != nil {
		done()
	}
}

func (o *wsOutput) Stop() {
	o.mu.Lock()
	o.pending = nil
	o.mu.Unlock()
	o.conn.sendMsg(serverMessage{Type: msgFlush})
}
