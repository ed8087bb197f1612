// Package locale holds the user-facing strings for both supported
// languages. Messages are resolved by the locale active when the error
// occurs, not when it is rendered.
package locale

type Language string

const (
	English    Language = "en"
	Indonesian Language = "id"
)

const DefaultLanguage = English

func Normalize(lang string) Language {
	switch Language(lang) {
	case English, Indonesian:
		return Language(lang)
	}
	return DefaultLanguage
}

var messages = map[Language]map[string]string{
	English: {
		"device_unavailable":      "No microphone was found. Connect an audio input device and try again.",
		"permission_denied":       "Microphone access was denied. Allow microphone access to use the voice assistant.",
		"unsupported_environment": "Audio capture is not supported in this environment.",
		"transport_error":         "Connection to the voice assistant failed. Please try again.",
		"quota_exceeded":          "The AI service is rate-limited right now. Please wait a moment and try again.",
		"persistence_error":       "Could not save to history. Your analysis result is unaffected.",
	},
	Indonesian: {
		"device_unavailable":      "Mikrofon tidak ditemukan. Hubungkan perangkat input audio lalu coba lagi.",
		"permission_denied":       "Akses mikrofon ditolak. Izinkan akses mikrofon untuk menggunakan asisten suara.",
		"unsupported_environment": "Perekaman audio tidak didukung di lingkungan ini.",
		"transport_error":         "Koneksi ke asisten suara gagal. Silakan coba lagi.",
		"quota_exceeded":          "Layanan AI sedang dibatasi. Tunggu sebentar lalu coba lagi.",
		"persistence_error":       "Gagal menyimpan ke riwayat. Hasil analisis Anda tidak terpengaruh.",
	},
}

// Message returns the localized text for a taxonomy error code. Unknown
// codes fall back to the generic transport message.
func Message(lang Language, code string) string {
	table, ok := messages[lang]
	if !ok {
		table = messages[DefaultLanguage]
	}
	if msg, ok := table[code]; ok {
		return msg
	}
	return table["transport_error"]
}
