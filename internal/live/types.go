package live

const (
	// InputSampleRate is the fixed rate the endpoint accepts for microphone
	// audio; InputMimeType declares it on every realtime input unit.
	InputSampleRate = 16000
	InputMimeType   = "audio/pcm;rate=16000"

	// OutputSampleRate is the fixed rate of synthesized audio coming back.
	OutputSampleRate = 24000
)

type Config struct {
	URL               string
	APIKey            string
	Model             string
	Voice             string
	SystemInstruction string

	InputTranscription  bool
	OutputTranscription bool

	SendBufferSize int
}

type Callbacks struct {
	OnOpen        func()
	OnAudio       func(pcm []byte)
	OnInterrupted func()
	OnTranscript  func(text string)
	OnError       func(error)
	OnClose       func()
}

type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model               string             `json:"model"`
	GenerationConfig    generationConfig   `json:"generationConfig"`
	SystemInstruction   *content           `json:"systemInstruction,omitempty"`
	InputTranscription  *transcriptionOpts `json:"inputAudioTranscription,omitempty"`
	OutputTranscription *transcriptionOpts `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoice `json:"prebuiltVoiceConfig"`
}

type prebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type transcriptionOpts struct{}

type realtimeInputMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	MediaChunks []inlineData `json:"mediaChunks"`
}

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
	Error         *serverError   `json:"error,omitempty"`
}

type serverContent struct {
	ModelTurn           *content        `json:"modelTurn,omitempty"`
	Interrupted         bool            `json:"interrupted,omitempty"`
	TurnComplete        bool            `json:"turnComplete,omitempty"`
	OutputTranscription *transcription  `json:"outputTranscription,omitempty"`
	InputTranscription  *transcription  `json:"inputTranscription,omitempty"`
}

type transcription struct {
	Text string `json:"text"`
}

type serverError struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
