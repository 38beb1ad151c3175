// internal/storage/models/token.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Token is the mirrored record behind token cards and detail pages. The chain
// is authoritative; these columns are a read cache rewritten after each
// confirmed trade and by the periodic refresher (last write wins).
type Token struct {
	BaseModel
	Mint          string `gorm:"unique;not null;type:varchar(44)"`
	CreatorWallet string `gorm:"index;not null;type:varchar(44)"`
	Name          string `gorm:"not null;type:varchar(100)"`
	Symbol        string `gorm:"not null;type:varchar(20)"`
	MetadataURI   string `gorm:"type:text"`
	ImageURL      string `gorm:"type:text"`
	Description   string `gorm:"type:text"`

	// Curve parameter snapshot taken at launch.
	InitialPrice         decimal.Decimal `gorm:"type:decimal(30,18);not null"`
	MaxSupply            decimal.Decimal `gorm:"type:decimal(30,9);not null"`
	BondingCurvePercent  float64         `gorm:"not null"`
	PriceStepSize        decimal.Decimal `gorm:"type:decimal(30,9);not null"`
	CreatorMaxBuyPercent float64         `gorm:"not null"`
	FeePercent           float64         `gorm:"not null"`

	// Cached market data.
	SupplySold    decimal.Decimal `gorm:"type:decimal(30,9)"`
	LastPrice     decimal.Decimal `gorm:"type:decimal(30,18)"`
	MarketCap     decimal.Decimal `gorm:"type:decimal(30,9)"`
	CurveProgress float64
	CurveComplete bool       `gorm:"index"`
	LastSyncedAt  *time.Time `gorm:"index"`
}
