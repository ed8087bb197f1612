package bridge

import "context"

// CaptureDevice delivers fixed-size blocks of mono float samples, range
// [-1, 1], at its native rate. Start errors are mapped to the shared error
// taxonomy (device unavailable, permission denied, unsupported environment)
// by the implementation. Stop must be idempotent.
type CaptureDevice interface {
	Start(onFrame func(frame []float32)) error
	SampleRate() int
	Stop()
}

// OutputDevice renders one chunk of mono float samples at the session's
// output rate and invokes onComplete when the chunk has finished playing.
// Stop cancels the in-flight chunk; its onComplete may or may not fire.
// Stop must be idempotent and the device must remain usable for subsequent
// Play calls.
type OutputDevice interface {
	Play(samples []float32, onComplete func())
	Stop()
}

// SessionHandle is the minimal surface the bridge needs from the streaming
// session. Send is fire-and-forget; Close must be idempotent.
type SessionHandle interface {
	SendRealtimeInput(mimeType string, data []byte)
	Close() error
}

// SessionEvents are the inbound callbacks a dialed session delivers.
type SessionEvents struct {
	OnOpen        func()
	OnAudio       func(pcm []byte)
	OnInterrupted func()
	OnTranscript  func(text string)
	OnError       func(err error)
	OnClose       func()
}

// Dialer opens a streaming session wired to the given event callbacks.
type Dialer func(ctx context.Context, ev SessionEvents) (SessionHandle, error)

type EventType string

const (
	EventConnected  EventType = "connected"
	EventListening  EventType = "listening"
	EventTranscript EventType = "transcript"
	EventError      EventType = "error"
	EventClosed     EventType = "closed"
)

// Event is what the bridge surfaces to its owner (status changes,
// transcripts, localized errors).
type Event struct {
	Type    EventType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
	Text    string    `json:"text,omitempty"`
}
