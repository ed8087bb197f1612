package history

import (
	"time"

	"github.com/chartvoice/backend/internal/shared"
)

// Record is one saved chart analysis. ImageData carries the chart snapshot
// as a data URL so the client can re-render it without a separate fetch.
type Record struct {
	ID          string            `gorm:"primaryKey" json:"id"`
	ImageData   string            `gorm:"type:text" json:"image_data"`
	SignalType  shared.SignalType `gorm:"not null;index" json:"signal_type"`
	Confidence  int               `gorm:"not null" json:"confidence"`
	Timeframe   string            `json:"timeframe"`
	Explanation string            `gorm:"type:text" json:"explanation"`
	Language    string            `json:"language"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
}
