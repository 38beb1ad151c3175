// internal/launchpad/runner.go
package launchpad

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/moonforge/launchpad/internal/api"
	"github.com/moonforge/launchpad/internal/chain"
	"github.com/moonforge/launchpad/internal/config"
	"github.com/moonforge/launchpad/internal/curve"
	"github.com/moonforge/launchpad/internal/events"
	"github.com/moonforge/launchpad/internal/storage"
	"github.com/moonforge/launchpad/internal/storage/postgres"
	"github.com/moonforge/launchpad/internal/token"
	"github.com/moonforge/launchpad/internal/trade"
	"github.com/moonforge/launchpad/internal/wallet"
)

const eventBufferSize = 256

// Runner owns the platform's long-lived components and their lifecycle.
type Runner struct {
	logger *zap.Logger
	cfg    *config.Config

	storage  storage.Storage
	chainCli *chain.Client
	wallet   *wallet.Wallet
	bus      *events.Bus

	tokens *token.Service
	trades *trade.Service
	server *api.Server
}

func NewRunner(cfg *config.Config, logger *zap.Logger) *Runner {
	return &Runner{logger: logger, cfg: cfg}
}

// Initialize wires storage, chain access, and the services in dependency
// order. Nothing is serving yet when it returns.
func (r *Runner) Initialize(ctx context.Context) error {
	programID, err := solana.PublicKeyFromBase58(r.cfg.ProgramID)
	if err != nil {
		return fmt.Errorf("invalid program_id: %w", err)
	}

	st, err := postgres.NewStorage(r.cfg.PostgresURL, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	if err := st.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.storage = st

	r.chainCli, err = chain.NewClient(r.cfg.RPCList, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create chain client: %w", err)
	}

	r.wallet, err = wallet.NewWallet(r.cfg.WalletKey)
	if err != nil {
		return fmt.Errorf("failed to load platform wallet: %w", err)
	}

	// Fees default to the platform wallet when no dedicated recipient is set.
	feeRecipient := r.wallet.PublicKey
	if r.cfg.FeeRecipient != "" {
		feeRecipient, err = solana.PublicKeyFromBase58(r.cfg.FeeRecipient)
		if err != nil {
			return fmt.Errorf("invalid fee_recipient: %w", err)
		}
	}

	r.bus = events.NewBus(r.logger, eventBufferSize)

	curveCfg := curve.Config{
		InitialPrice:         r.cfg.Curve.InitialPrice,
		MaxSupply:            r.cfg.Curve.MaxSupply,
		BondingCurvePercent:  r.cfg.Curve.BondingCurvePercent,
		PriceStepSize:        r.cfg.Curve.PriceStepSize,
		CreatorMaxBuyPercent: r.cfg.Curve.CreatorMaxBuyPercent,
		FeePercent:           r.cfg.Curve.FeePercent,
	}

	fetcher := token.NewMetadataFetcher(
		time.Duration(r.cfg.MetadataTimeout)*time.Millisecond, r.logger)

	r.tokens = token.NewService(r.storage, r.chainCli, r.bus, fetcher, curveCfg, programID, r.logger)
	r.trades = trade.NewService(r.storage, r.chainCli, r.wallet, r.bus, trade.Config{
		ProgramID:    programID,
		FeeRecipient: feeRecipient,
		ConfirmDelay: time.Duration(r.cfg.ConfirmDelay) * time.Millisecond,
	}, r.logger)

	r.server = api.NewServer(r.cfg.ListenAddr, r.tokens, r.trades, r.logger)

	r.logger.Info("Launchpad initialized",
		zap.String("program_id", programID.String()),
		zap.String("wallet", r.wallet.PublicKey.String()),
		zap.String("listen_addr", r.cfg.ListenAddr))
	return nil
}

// Run serves HTTP and keeps mirrored market data fresh until ctx is
// cancelled, then drains everything.
func (r *Runner) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.server.Run()
	})

	g.Go(func() error {
		r.refreshLoop(gctx)
		return nil
	})

	g.Go(func() error {
		r.healthCheckLoop(gctx)
		return nil
	})

	// Shut the HTTP server down when the context ends so server.Run returns.
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return r.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	busCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if busErr := r.bus.Shutdown(busCtx); busErr != nil {
		r.logger.Warn("Event bus did not drain cleanly", zap.Error(busErr))
	}

	r.logger.Info("Launchpad stopped")
	return err
}

// refreshLoop periodically re-reads every tracked curve and rewrites the
// cached market data.
func (r *Runner) refreshLoop(ctx context.Context) {
	delay := time.Duration(r.cfg.RefreshDelay) * time.Millisecond
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	r.logger.Info("Market data refresh loop started", zap.Duration("interval", delay))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tokens.RefreshMarketData(ctx)
		}
	}
}

// healthCheckLoop prunes dead RPC endpoints from the pool.
func (r *Runner) healthCheckLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.chainCli.PerformHealthChecks()
		}
	}
}
