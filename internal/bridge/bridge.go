// Package bridge connects a capture/output device pair to one bidirectional
// streaming voice session: microphone frames are resampled to the session's
// input rate and framed for transmission; returned audio chunks are queued
// and played back strictly in order, with barge-in interruption clearing the
// queue.
package bridge

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/chartvoice/backend/internal/audio"
	"github.com/chartvoice/backend/internal/live"
	"github.com/chartvoice/backend/internal/locale"
	"github.com/chartvoice/backend/internal/shared"
)

type Config struct {
	Capture  CaptureDevice
	Output   OutputDevice
	Dial     Dialer
	Language locale.Language
	Notify   func(Event)
	Logger   *slog.Logger
}

type Stats struct {
	FramesSent   int64 `json:"frames_sent"`
	ChunksPlayed int64 `json:"chunks_played"`
}

type Bridge struct {
	capture CaptureDevice
	output  OutputDevice
	dial    Dialer
	lang    locale.Language
	notify  func(Event)
	log     *slog.Logger

	framesSent   atomic.Int64
	chunksPlayed atomic.Int64

	mu         sync.Mutex
	session    SessionHandle
	queue      [][]int16
	playing    bool
	connecting bool
	connected  bool
	listening  bool
	closed     bool
	gen        int
}

func New(cfg Config) *Bridge {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	notify := cfg.Notify
	if notify == nil {
		notify = func(Event) {}
	}
	return &Bridge{
		capture: cfg.Capture,
		output:  cfg.Output,
		dial:    cfg.Dial,
		lang:    cfg.Language,
		notify:  notify,
		log:     log.With("component", "bridge"),
	}
}

// Connect opens the streaming session and starts capture. Re-entrant calls
// while a connect is in flight or a session is live are ignored.
func (b *Bridge) Connect(ctx context.Context) error {
	b.mu.Lock()
	if b.connecting || b.connected || b.closed {
		b.mu.Unlock()
		return nil
	}
	b.connecting = true
	b.mu.Unlock()

	sess, err := b.dial(ctx, SessionEvents{
		OnOpen:        b.onSessionOpen,
		OnAudio:       b.onAudio,
		OnInterrupted: b.onInterrupted,
		OnTranscript:  b.onTranscript,
		OnError:       b.onSessionError,
		OnClose:       b.onSessionClose,
	})
	if err != nil {
		b.mu.Lock()
		b.connecting = false
		b.mu.Unlock()
		b.emitError(err)
		b.Teardown()
		return err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sess.Close()
		return nil
	}
	b.session = sess
	b.connecting = false
	b.connected = true
	b.mu.Unlock()

	b.notify(Event{Type: EventConnected})

	if err := b.capture.Start(b.onFrame); err != nil {
		b.log.Error("capture start failed", "error", err)
		b.emitError(err)
		b.Teardown()
		return err
	}

	b.mu.Lock()
	// A teardown may have raced with the capture start; don't leave the
	// device running on a bridge that is already closed or torn down.
	if b.closed || !b.connected {
		b.mu.Unlock()
		b.capture.Stop()
		return nil
	}
	b.listening = true
	b.mu.Unlock()
	b.notify(Event{Type: EventListening})
	return nil
}

// onFrame runs on the capture path for every device block. Frames produced
// while no session is active are dropped, not buffered; audio from before
// the session opened is lost by contract.
func (b *Bridge) onFrame(frame []float32) {
	b.mu.Lock()
	sess := b.session
	b.mu.Unlock()
	if sess == nil {
		return
	}

	resampled := audio.Resample(frame, b.capture.SampleRate(), live.InputSampleRate)
	pcm := audio.Int16ToPCMBytes(audio.Float32ToInt16(resampled))
	sess.SendRealtimeInput(live.InputMimeType, pcm)
	b.framesSent.Add(1)
}

func (b *Bridge) onSessionOpen() {
	b.log.Debug("session open acknowledged")
}

func (b *Bridge) onAudio(pcm []byte) {
	chunk := audio.PCMBytesToInt16(pcm)
	if len(chunk) == 0 {
		return
	}

	b.mu.Lock()
	if b.closed || !b.connected {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, chunk)
	start := !b.playing
	if start {
		b.playing = true
	}
	gen := b.gen
	b.mu.Unlock()

	if start {
		b.playNext(gen)
	}
}

// playNext dequeues the head chunk and renders it; advancement is driven by
// the output device's completion callback. The generation counter keeps a
// stale completion (from before an interruption or teardown) from starting a
// second playback cycle.
func (b *Bridge) playNext(gen int) {
	b.mu.Lock()
	if gen != b.gen || len(b.queue) == 0 {
		if gen == b.gen {
			b.playing = false
		}
		b.mu.Unlock()
		return
	}
	chunk := b.queue[0]
	b.queue = b.queue[1:]
	out := b.output
	b.mu.Unlock()

	samples := audio.Int16ToFloat32(chunk)
	out.Play(samples, func() {
		b.chunksPlayed.Add(1)
		b.playNext(gen)
	})
}

// onInterrupted models barge-in: the user started speaking while assistant
// audio was still queued. The whole queue is discarded unconditionally.
func (b *Bridge) onInterrupted() {
	b.mu.Lock()
	b.queue = nil
	b.playing = false
	b.gen++
	out := b.output
	b.mu.Unlock()

	out.Stop()
	b.log.Debug("playback interrupted, queue cleared")
}

func (b *Bridge) onTranscript(text string) {
	b.notify(Event{Type: EventTranscript, Text: text})
}

func (b *Bridge) onSessionError(err error) {
	b.log.Error("session error", "error", err)
	b.emitError(err)
	b.Teardown()
}

func (b *Bridge) onSessionClose() {
	b.Teardown()
	b.notify(Event{Type: EventClosed})
}

func (b *Bridge) emitError(err error) {
	code := shared.ErrorCode(err)
	b.notify(Event{
		Type:    EventError,
		Code:    code,
		Message: locale.Message(b.lang, code),
	})
}

// Teardown releases the capture device, the output pipeline, the playback
// queue, and the session, in that order. Idempotent and safe to invoke from
// inside any callback, including the session close notification it itself
// triggers.
func (b *Bridge) Teardown() {
	b.mu.Lock()
	sess := b.session
	b.session = nil
	b.queue = nil
	b.playing = false
	b.connecting = false
	b.connected = false
	b.listening = false
	b.gen++
	b.mu.Unlock()

	if b.capture != nil {
		b.capture.Stop()
	}
	if b.output != nil {
		b.output.Stop()
	}
	if sess != nil {
		_ = sess.Close()
	}
}

// Close forces teardown and marks the bridge unusable for further connects.
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.Teardown()
}

func (b *Bridge) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *Bridge) IsListening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listening
}

func (b *Bridge) IsPlaying() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing
}

func (b *Bridge) QueueLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

func (b *Bridge) Stats() Stats {
	return Stats{
		FramesSent:   b.framesSent.Load(),
		ChunksPlayed: b.chunksPlayed.Load(),
	}
}
