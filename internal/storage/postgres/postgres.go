// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/moonforge/launchpad/internal/storage"
	"github.com/moonforge/launchpad/internal/storage/models"
)

// gormLogger adapts zap to GORM's logger.Interface.
type gormLogger struct {
	zapLogger *zap.Logger
	logLevel  logger.LogLevel
}

func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger: zapLogger,
		logLevel:  logger.Warn,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	if err != nil {
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
		return
	}

	if l.logLevel >= logger.Info {
		l.zapLogger.Info("trace", fields...)
	}
}

// postgresStorage implements storage.Storage over GORM.
type postgresStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStorage(dsn string, zapLogger *zap.Logger) (storage.Storage, error) {
	gormLogger := newGormLogger(zapLogger.Named("gorm"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &postgresStorage{
		db:     db,
		logger: zapLogger,
	}, nil
}

// RunMigrations applies GORM AutoMigrate under an advisory lock so that
// concurrently starting replicas don't race on DDL.
func (p *postgresStorage) RunMigrations() error {
	var lockObtained bool
	err := p.db.Raw("SELECT pg_try_advisory_lock(101)").Scan(&lockObtained).Error
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !lockObtained {
		return fmt.Errorf("another migration is in progress")
	}
	defer p.db.Exec("SELECT pg_advisory_unlock(101)")

	err = p.db.AutoMigrate(
		&models.Token{},
		&models.Trade{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (p *postgresStorage) SaveToken(ctx context.Context, token *models.Token) error {
	return p.db.WithContext(ctx).Create(token).Error
}

func (p *postgresStorage) GetToken(ctx context.Context, mint string) (*models.Token, error) {
	var token models.Token
	err := p.db.WithContext(ctx).Where("mint = ?", mint).First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (p *postgresStorage) ListTokens(ctx context.Context, limit, offset int) ([]*models.Token, error) {
	var tokens []*models.Token
	err := p.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&tokens).Error
	return tokens, err
}

func (p *postgresStorage) UpdateTokenMarketData(ctx context.Context, mint string, data storage.MarketData) error {
	now := time.Now().UTC()
	return p.db.WithContext(ctx).Model(&models.Token{}).
		Where("mint = ?", mint).
		Updates(map[string]interface{}{
			"supply_sold":    data.SupplySold,
			"last_price":     data.LastPrice,
			"market_cap":     data.MarketCap,
			"curve_progress": data.CurveProgress,
			"curve_complete": data.CurveComplete,
			"last_synced_at": &now,
		}).Error
}

func (p *postgresStorage) SaveTrade(ctx context.Context, trade *models.Trade) error {
	return p.db.WithContext(ctx).Create(trade).Error
}

func (p *postgresStorage) GetTrade(ctx context.Context, signature string) (*models.Trade, error) {
	var trade models.Trade
	err := p.db.WithContext(ctx).Where("signature = ?", signature).First(&trade).Error
	if err != nil {
		return nil, err
	}
	return &trade, nil
}

func (p *postgresStorage) ListTradesByWallet(ctx context.Context, walletAddress string, limit, offset int) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := p.db.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&trades).Error
	return trades, err
}

func (p *postgresStorage) UpdateTradeStatus(ctx context.Context, signature string, status string, errorMsg string) error {
	return p.db.WithContext(ctx).Model(&models.Trade{}).
		Where("signature = ?", signature).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errorMsg,
		}).Error
}

func (p *postgresStorage) SumCreatorBuys(ctx context.Context, mint, creatorWallet string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := p.db.WithContext(ctx).Model(&models.Trade{}).
		Select("SUM(token_amount)").
		Where("mint = ? AND wallet_address = ? AND side = ? AND status = ?",
			mint, creatorWallet, models.TradeSideBuy, models.TradeStatusConfirmed).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
