package voice

// clientMessage is what the browser sends over the voice socket.
//
//	start        begin a session; carries the mic sample rate and UI language
//	audio        one capture frame, base64 s16le PCM at the start sample rate
//	played       the last delivered chunk finished playing
//	device_error the mic failed client-side; code names the taxonomy error
//	stop         end the session
type clientMessage struct {
	Type       string `json:"type"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Language   string `json:"language,omitempty"`
	Data       string `json:"data,omitempty"`
	Code       string `json:"code,omitempty"`
}

// serverMessage is what the server sends back: bridge status events
// (connected, listening, transcript, error, closed), playback chunks and
// flush commands.
type serverMessage struct {
	Type       string `json:"type"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	Text       string `json:"text,omitempty"`
	Data       string `json:"data,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

const (
	msgStart       = "start"
	msgAudio       = "audio"
	msgPlayed      = "played"
	msgDeviceError = "device_error"
	msgStop        = "stop"

	msgChunk = "chunk"
	msgFlush = "flush"
)
