// internal/storage/models/trade.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"

	TradeStatusPending   = "pending"
	TradeStatusConfirmed = "confirmed"
	TradeStatusFailed    = "failed"
)

// Trade mirrors a single curve trade. PaymentAmount and TokenAmount carry the
// settled amounts read back from the chain, not the client-side quote.
type Trade struct {
	BaseModel
	Signature     string          `gorm:"unique;not null;type:varchar(88)"`
	Mint          string          `gorm:"index;not null;type:varchar(44)"`
	WalletAddress string          `gorm:"index;not null;type:varchar(44)"`
	Side          string          `gorm:"not null;type:varchar(4)"`
	PaymentAmount decimal.Decimal `gorm:"type:decimal(30,9);not null"`
	TokenAmount   decimal.Decimal `gorm:"type:decimal(30,9);not null"`
	Fee           decimal.Decimal `gorm:"type:decimal(30,9)"`
	Price         decimal.Decimal `gorm:"type:decimal(30,18)"`
	Status        string          `gorm:"not null;type:varchar(20)"`
	ErrorMessage  string          `gorm:"type:text"`
	BlockTime     *time.Time      `gorm:"index"`
}
