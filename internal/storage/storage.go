// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/moonforge/launchpad/internal/storage/models"
)

// MarketData is the cached valuation snapshot rewritten after each confirmed
// trade and by the periodic refresher.
type MarketData struct {
	SupplySold    decimal.Decimal
	LastPrice     decimal.Decimal
	MarketCap     decimal.Decimal
	CurveProgress float64
	CurveComplete bool
}

// Storage is the persistence mirror. It is a read cache over chain state:
// writers overwrite unconditionally, last write wins.
type Storage interface {
	// Tokens
	SaveToken(ctx context.Context, token *models.Token) error
	GetToken(ctx context.Context, mint string) (*models.Token, error)
	ListTokens(ctx context.Context, limit, offset int) ([]*models.Token, error)
	UpdateTokenMarketData(ctx context.Context, mint string, data MarketData) error

	// Trades
	SaveTrade(ctx context.Context, trade *models.Trade) error
	GetTrade(ctx context.Context, signature string) (*models.Trade, error)
	ListTradesByWallet(ctx context.Context, walletAddress string, limit, offset int) ([]*models.Trade, error)
	UpdateTradeStatus(ctx context.Context, signature string, status string, errorMsg string) error
	SumCreatorBuys(ctx context.Context, mint, creatorWallet string) (decimal.Decimal, error)

	// Migrations
	RunMigrations() error
}
