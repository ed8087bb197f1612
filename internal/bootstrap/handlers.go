package bootstrap

import (
	"log/slog"
	"os"

	"github.com/chartvoice/backend/internal/analysis"
	"github.com/chartvoice/backend/internal/history"
	"github.com/chartvoice/backend/internal/live"
	"github.com/chartvoice/backend/internal/synthesis"
	"github.com/chartvoice/backend/internal/voice"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideAnalysisClient(cfg *Config) *analysis.Client {
	return analysis.NewClient(analysis.Config{
		BaseURL: cfg.GenAIBaseURL,
		APIKey:  cfg.GenAIAPIKey,
		Model:   cfg.AnalysisModel,
	})
}

func ProvideSynthesisClient(cfg *Config) *synthesis.Client {
	return synthesis.NewClient(synthesis.Config{
		BaseURL: cfg.GenAIBaseURL,
		APIKey:  cfg.GenAIAPIKey,
		Model:   cfg.TTSModel,
		Voice:   cfg.Voice,
	})
}

func ProvideAnalysisHandler(client *analysis.Client, logger *slog.Logger) *analysis.Handler {
	return analysis.NewHandler(client, logger.With("handler", "analysis"))
}

func ProvideSynthesisHandler(client *synthesis.Client, logger *slog.Logger) *synthesis.Handler {
	return synthesis.NewHandler(client, logger.With("handler", "synthesis"))
}

func ProvideHistoryHandler(store *history.Store, logger *slog.Logger) *history.Handler {
	return history.NewHandler(store, logger.With("handler", "history"))
}

func ProvideVoiceHandler(cfg *Config, store *voice.Store, logger *slog.Logger) *voice.Handler {
	return voice.NewHandler(live.Config{
		URL:                 cfg.GenAILiveURL,
		APIKey:              cfg.GenAIAPIKey,
		Model:               cfg.LiveModel,
		Voice:               cfg.Voice,
		SystemInstruction:   cfg.SystemInstruction,
		OutputTranscription: true,
	}, store, logger.With("handler", "voice"))
}

type HandlerParams struct {
	fx.In

	AnalysisHandler  *analysis.Handler
	SynthesisHandler *synthesis.Handler
	HistoryHandler   *history.Handler
	VoiceHandler     *voice.Handler
	Config           *Config
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/api")

	params.AnalysisHandler.RegisterRoutes(api)
	params.SynthesisHandler.RegisterRoutes(api)
	params.HistoryHandler.RegisterRoutes(api)
	params.VoiceHandler.RegisterRoutes(api)

	e.Static("/assets", params.Config.StaticDir)
	e.GET("/", func(c echo.Context) error {
		return c.File(params.Config.IndexHTML)
	})
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideAnalysisClient,
		ProvideSynthesisClient,
		ProvideAnalysisHandler,
		ProvideSynthesisHandler,
		ProvideHistoryHandler,
		ProvideVoiceHandler,
	),
	fx.Invoke(RegisterRoutes),
)
