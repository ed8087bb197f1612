package bootstrap

import (
	"os"
	"strconv"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	DatabaseDSN string
	SQLitePath  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GenAIAPIKey  string
	GenAIBaseURL string
	GenAILiveURL string

	AnalysisModel string
	TTSModel      string
	LiveModel     string
	Voice         string

	SystemInstruction string

	StaticDir string
	IndexHTML string
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "chartvoice.db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GenAIAPIKey:  getEnv("GENAI_API_KEY", ""),
		GenAIBaseURL: getEnv("GENAI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GenAILiveURL: getEnv("GENAI_LIVE_URL",
			"wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"),

		AnalysisModel: getEnv("ANALYSIS_MODEL", "gemini-2.0-flash"),
		TTSModel:      getEnv("TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		LiveModel:     getEnv("LIVE_MODEL", "models/gemini-2.0-flash-live-001"),
		Voice:         getEnv("VOICE_NAME", "Kore"),

		SystemInstruction: getEnv("SYSTEM_INSTRUCTION",
			"You are a trading assistant. Discuss chart patterns, indicators and market structure concisely."),

		StaticDir: getEnv("STATIC_DIR", "./static"),
		IndexHTML: getEnv("INDEX_HTML", "./static/index.html"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
