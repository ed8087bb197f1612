package bootstrap

import (
	"github.com/chartvoice/backend/internal/history"
	"github.com/chartvoice/backend/internal/voice"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideHistoryStore(db *gorm.DB) *history.Store {
	return history.NewStore(db)
}

func ProvideVoiceStore(redisClient *redis.Client) *voice.Store {
	return voice.NewStore(redisClient)
}

func RunMigrations(historyStore *history.Store) error {
	return historyStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideHistoryStore,
		ProvideVoiceStore,
	),
	fx.Invoke(RunMigrations),
)
