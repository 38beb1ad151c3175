// internal/token/service.go
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/moonforge/launchpad/internal/chain"
	"github.com/moonforge/launchpad/internal/curve"
	"github.com/moonforge/launchpad/internal/events"
	"github.com/moonforge/launchpad/internal/storage"
	"github.com/moonforge/launchpad/internal/storage/models"
)

const defaultListLimit = 50

var (
	ErrInvalidMint    = errors.New("invalid mint address")
	ErrMissingName    = errors.New("token name is required")
	ErrMissingSymbol  = errors.New("token symbol is required")
	ErrInvalidCreator = errors.New("invalid creator wallet address")
)

// ChainReader is the chain access the registry needs.
type ChainReader interface {
	ReadCurveState(ctx context.Context, curveAddr solana.PublicKey) (*chain.CurveState, error)
}

// LaunchRequest registers a freshly created token with the platform.
type LaunchRequest struct {
	Mint          string
	CreatorWallet string
	Name          string
	Symbol        string
	MetadataURI   string
}

// Service is the token registry behind cards and detail pages.
type Service struct {
	storage   storage.Storage
	chain     ChainReader
	bus       *events.Bus
	fetcher   *MetadataFetcher
	curveCfg  curve.Config
	programID solana.PublicKey
	logger    *zap.Logger
}

func NewService(st storage.Storage, ch ChainReader, bus *events.Bus, fetcher *MetadataFetcher, curveCfg curve.Config, programID solana.PublicKey, logger *zap.Logger) *Service {
	return &Service{
		storage:   st,
		chain:     ch,
		bus:       bus,
		fetcher:   fetcher,
		curveCfg:  curveCfg,
		programID: programID,
		logger:    logger.Named("token"),
	}
}

// Launch registers a token, snapshotting the platform's current curve
// parameters so later parameter changes don't reprice existing curves.
func (s *Service) Launch(ctx context.Context, req LaunchRequest) (*models.Token, error) {
	if req.Name == "" {
		return nil, ErrMissingName
	}
	if req.Symbol == "" {
		return nil, ErrMissingSymbol
	}
	if _, err := solana.PublicKeyFromBase58(req.Mint); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMint, req.Mint)
	}
	if _, err := solana.PublicKeyFromBase58(req.CreatorWallet); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCreator, req.CreatorWallet)
	}

	token := &models.Token{
		Mint:                 req.Mint,
		CreatorWallet:        req.CreatorWallet,
		Name:                 req.Name,
		Symbol:               req.Symbol,
		MetadataURI:          req.MetadataURI,
		InitialPrice:         decimal.NewFromFloat(s.curveCfg.InitialPrice),
		MaxSupply:            decimal.NewFromFloat(s.curveCfg.MaxSupply),
		BondingCurvePercent:  s.curveCfg.BondingCurvePercent,
		PriceStepSize:        decimal.NewFromFloat(s.curveCfg.PriceStepSize),
		CreatorMaxBuyPercent: s.curveCfg.CreatorMaxBuyPercent,
		FeePercent:           s.curveCfg.FeePercent,
		LastPrice:            decimal.NewFromFloat(s.curveCfg.InitialPrice),
		MarketCap:            decimal.NewFromFloat(curve.New(s.curveCfg).MarketCap(0)),
	}

	if req.MetadataURI != "" && s.fetcher != nil {
		// Best effort: a broken metadata host must not block a launch.
		if meta, err := s.fetcher.Fetch(ctx, req.MetadataURI); err != nil {
			s.logger.Warn("Failed to fetch token metadata",
				zap.String("mint", req.Mint),
				zap.String("uri", req.MetadataURI),
				zap.Error(err))
		} else {
			token.ImageURL = meta.Image
			token.Description = meta.Description
		}
	}

	if err := s.storage.SaveToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	s.logger.Info("Token launched",
		zap.String("mint", token.Mint),
		zap.String("symbol", token.Symbol),
		zap.String("creator", token.CreatorWallet))

	s.publish(events.TokenLaunchedEvent{
		BaseEvent:     events.BaseEvent{EventType: events.TokenLaunched, EventTime: time.Now()},
		Mint:          token.Mint,
		CreatorWallet: token.CreatorWallet,
		Name:          token.Name,
		Symbol:        token.Symbol,
	})

	return token, nil
}

// Get returns one token by mint.
func (s *Service) Get(ctx context.Context, mint string) (*models.Token, error) {
	return s.storage.GetToken(ctx, mint)
}

// List returns tokens newest first for the card grid.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Token, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.storage.ListTokens(ctx, limit, offset)
}

// RefreshMarketData re-reads curve state for every mirrored token and
// rewrites the cached valuation columns. Individual failures are logged and
// skipped; the next cycle retries.
func (s *Service) RefreshMarketData(ctx context.Context) {
	tokens, err := s.storage.ListTokens(ctx, 200, 0)
	if err != nil {
		s.logger.Warn("Failed to list tokens for refresh", zap.Error(err))
		return
	}

	for _, t := range tokens {
		if err := s.refreshOne(ctx, t); err != nil {
			s.logger.Debug("Market data refresh skipped",
				zap.String("mint", t.Mint),
				zap.Error(err))
		}
	}
}

func (s *Service) refreshOne(ctx context.Context, t *models.Token) error {
	mint, err := solana.PublicKeyFromBase58(t.Mint)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMint, t.Mint)
	}
	curveAddr, err := chain.DeriveCurveAddress(mint, s.programID)
	if err != nil {
		return err
	}

	state, err := s.chain.ReadCurveState(ctx, curveAddr)
	if err != nil {
		return err
	}

	c := curve.New(curve.Config{
		InitialPrice:        t.InitialPrice.InexactFloat64(),
		MaxSupply:           t.MaxSupply.InexactFloat64(),
		BondingCurvePercent: t.BondingCurvePercent,
		PriceStepSize:       t.PriceStepSize.InexactFloat64(),
		FeePercent:          t.FeePercent,
	})

	price := c.Price(state.SupplySold)
	marketCap := c.MarketCap(state.SupplySold)
	progress := c.Progress(state.SupplySold)

	data := storage.MarketData{
		SupplySold:    decimal.NewFromFloat(state.SupplySold),
		LastPrice:     decimal.NewFromFloat(price),
		MarketCap:     decimal.NewFromFloat(marketCap),
		CurveProgress: progress,
		CurveComplete: state.Complete,
	}
	if err := s.storage.UpdateTokenMarketData(ctx, t.Mint, data); err != nil {
		return fmt.Errorf("failed to update market data: %w", err)
	}

	s.publish(events.MarketDataUpdatedEvent{
		BaseEvent:     events.BaseEvent{EventType: events.MarketDataUpdated, EventTime: time.Now()},
		Mint:          t.Mint,
		Price:         price,
		SupplySold:    state.SupplySold,
		MarketCap:     marketCap,
		CurveProgress: progress,
	})

	if state.Complete && !t.CurveComplete {
		s.logger.Info("Bonding curve completed",
			zap.String("mint", t.Mint),
			zap.Float64("supply_sold", state.SupplySold))
		s.publish(events.CurveCompletedEvent{
			BaseEvent:  events.BaseEvent{EventType: events.CurveCompleted, EventTime: time.Now()},
			Mint:       t.Mint,
			SupplySold: state.SupplySold,
			MarketCap:  marketCap,
		})
	}

	return nil
}

func (s *Service) publish(event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event); err != nil {
		s.logger.Debug("Event not published",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}
