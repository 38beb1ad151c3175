// internal/trade/service.go
package trade

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/moonforge/launchpad/internal/chain"
	"github.com/moonforge/launchpad/internal/events"
	"github.com/moonforge/launchpad/internal/storage"
	"github.com/moonforge/launchpad/internal/storage/models"
	"github.com/moonforge/launchpad/internal/wallet"
)

const (
	lamportsPerSOL = 1e9
	tokenBaseUnits = 1e6

	defaultSlippagePct = 5.0
)

var (
	ErrCurveComplete = errors.New("bonding curve is complete, token has migrated")
	ErrCreatorBuyCap = errors.New("creator self-buy cap exceeded")
	ErrTokenNotFound = errors.New("token not found")
)

// Chain is the subset of chain operations the trade flow needs.
type Chain interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	AwaitConfirmation(ctx context.Context, sig solana.Signature, pollDelay, maxWait time.Duration) error
	ReadCurveState(ctx context.Context, curveAddr solana.PublicKey) (*chain.CurveState, error)
}

// Config carries the deployment constants of the trade service.
type Config struct {
	ProgramID      solana.PublicKey
	FeeRecipient   solana.PublicKey
	ConfirmDelay   time.Duration
	ConfirmTimeout time.Duration
}

// BuyRequest is a buy order: exact payment in SOL, tokens out.
type BuyRequest struct {
	Mint          string
	WalletAddress string
	PaymentAmount float64
}

// SellRequest is a sell order: exact tokens in, SOL out.
type SellRequest struct {
	Mint          string
	WalletAddress string
	TokenAmount   float64
}

// Result reports a confirmed trade. Settled amounts come from the post-trade
// chain re-read when available and fall back to the quote otherwise.
type Result struct {
	Signature     string
	Side          string
	PaymentAmount float64
	TokenAmount   float64
	Price         float64
	Settled       bool
}

// Service orchestrates curve trades: quote, submit, confirm, mirror.
type Service struct {
	storage storage.Storage
	chain   Chain
	wallet  *wallet.Wallet
	bus     *events.Bus
	cfg     Config
	logger  *zap.Logger
}

func NewService(st storage.Storage, ch Chain, w *wallet.Wallet, bus *events.Bus, cfg Config, logger *zap.Logger) *Service {
	if cfg.ConfirmDelay <= 0 {
		cfg.ConfirmDelay = 500 * time.Millisecond
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 30 * time.Second
	}
	return &Service{
		storage: st,
		chain:   ch,
		wallet:  w,
		bus:     bus,
		cfg:     cfg,
		logger:  logger.Named("trade"),
	}
}

// ExecuteBuy runs the full buy flow and mirrors the result into storage.
func (s *Service) ExecuteBuy(ctx context.Context, req BuyRequest) (*Result, error) {
	if req.PaymentAmount <= 0 {
		return nil, ErrNonPositiveAmount
	}

	token, quoter, curveAddr, before, err := s.prepare(ctx, req.Mint)
	if err != nil {
		return nil, err
	}

	quote, err := quoter.QuoteBuy(req.PaymentAmount, before.SupplySold)
	if err != nil {
		return nil, err
	}

	if err := s.checkCreatorCap(ctx, token, req.WalletAddress, quote.TokenAmount); err != nil {
		return nil, err
	}

	paymentLamports := uint64(req.PaymentAmount * lamportsPerSOL)
	minTokensOut := uint64(quote.TokenAmount * tokenBaseUnits * (1 - defaultSlippagePct/100))

	mint := solana.MustPublicKeyFromBase58(token.Mint)
	ix, err := BuildBuyInstruction(InstructionAccounts{
		Program:      s.cfg.ProgramID,
		FeeRecipient: s.cfg.FeeRecipient,
		Mint:         mint,
		Curve:        curveAddr,
		CurveVault:   s.curveVault(mint, curveAddr),
	}, s.wallet, paymentLamports, minTokensOut)
	if err != nil {
		return nil, err
	}

	return s.submitAndMirror(ctx, token, quoter, curveAddr, before, tradeIntent{
		side:          models.TradeSideBuy,
		walletAddress: req.WalletAddress,
		payment:       req.PaymentAmount,
		tokens:        quote.TokenAmount,
		price:         quote.SpotPrice,
		instruction:   ix,
	})
}

// ExecuteSell runs the full sell flow and mirrors the result into storage.
func (s *Service) ExecuteSell(ctx context.Context, req SellRequest) (*Result, error) {
	if req.TokenAmount <= 0 {
		return nil, ErrNonPositiveAmount
	}

	token, quoter, curveAddr, before, err := s.prepare(ctx, req.Mint)
	if err != nil {
		return nil, err
	}

	quote, err := quoter.QuoteSell(req.TokenAmount, before.SupplySold)
	if err != nil {
		return nil, err
	}

	tokenUnits := uint64(req.TokenAmount * tokenBaseUnits)
	minPaymentOut := uint64(quote.NetProceeds * lamportsPerSOL * (1 - defaultSlippagePct/100))

	mint := solana.MustPublicKeyFromBase58(token.Mint)
	ix, err := BuildSellInstruction(InstructionAccounts{
		Program:      s.cfg.ProgramID,
		FeeRecipient: s.cfg.FeeRecipient,
		Mint:         mint,
		Curve:        curveAddr,
		CurveVault:   s.curveVault(mint, curveAddr),
	}, s.wallet, tokenUnits, minPaymentOut)
	if err != nil {
		return nil, err
	}

	return s.submitAndMirror(ctx, token, quoter, curveAddr, before, tradeIntent{
		side:          models.TradeSideSell,
		walletAddress: req.WalletAddress,
		payment:       quote.NetProceeds,
		tokens:        req.TokenAmount,
		price:         quote.SpotPrice,
		instruction:   ix,
	})
}

// prepare loads the token, rebuilds its quoter, and reads the pre-trade curve
// state. A failed chain read degrades to the mirrored supply rather than
// aborting: the program re-validates everything at execution time anyway.
func (s *Service) prepare(ctx context.Context, mintStr string) (*models.Token, *Quoter, solana.PublicKey, *chain.CurveState, error) {
	token, err := s.storage.GetToken(ctx, mintStr)
	if err != nil {
		return nil, nil, solana.PublicKey{}, nil, fmt.Errorf("%w: %s", ErrTokenNotFound, mintStr)
	}
	if token.CurveComplete {
		return nil, nil, solana.PublicKey{}, nil, ErrCurveComplete
	}

	quoter := QuoterForToken(token)

	mint := solana.MustPublicKeyFromBase58(token.Mint)
	curveAddr, err := chain.DeriveCurveAddress(mint, s.cfg.ProgramID)
	if err != nil {
		return nil, nil, solana.PublicKey{}, nil, err
	}

	state, err := s.chain.ReadCurveState(ctx, curveAddr)
	if err != nil {
		s.logger.Warn("Curve state read failed, falling back to mirrored supply",
			zap.String("mint", token.Mint),
			zap.Error(err))
		state = &chain.CurveState{
			SupplySold:  token.SupplySold.InexactFloat64(),
			LastUpdated: time.Now(),
		}
	}
	if state.Complete {
		return nil, nil, solana.PublicKey{}, nil, ErrCurveComplete
	}

	return token, quoter, curveAddr, state, nil
}

func (s *Service) checkCreatorCap(ctx context.Context, token *models.Token, walletAddress string, tokensOut float64) error {
	if walletAddress != token.CreatorWallet {
		return nil
	}

	bought, err := s.storage.SumCreatorBuys(ctx, token.Mint, token.CreatorWallet)
	if err != nil {
		return fmt.Errorf("failed to sum creator buys: %w", err)
	}

	maxBuy := QuoterForToken(token).Curve().CreatorMaxBuy()
	if bought.InexactFloat64()+tokensOut > maxBuy {
		s.logger.Warn("Creator buy rejected by self-buy cap",
			zap.String("mint", token.Mint),
			zap.Float64("already_bought", bought.InexactFloat64()),
			zap.Float64("requested", tokensOut),
			zap.Float64("cap", maxBuy))
		return ErrCreatorBuyCap
	}
	return nil
}

type tradeIntent struct {
	side          string
	walletAddress string
	payment       float64
	tokens        float64
	price         float64
	instruction   solana.Instruction
}

func (s *Service) submitAndMirror(ctx context.Context, token *models.Token, quoter *Quoter, curveAddr solana.PublicKey, before *chain.CurveState, intent tradeIntent) (*Result, error) {
	blockhash, err := s.chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{intent.instruction},
		blockhash,
		solana.TransactionPayer(s.wallet.PublicKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if err := s.wallet.SignTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := s.chain.SendTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	log := s.logger.With(
		zap.String("signature", sig.String()),
		zap.String("mint", token.Mint),
		zap.String("side", intent.side))
	log.Info("Trade submitted",
		zap.Float64("payment", intent.payment),
		zap.Float64("tokens", intent.tokens))

	pending := &models.Trade{
		Signature:     sig.String(),
		Mint:          token.Mint,
		WalletAddress: intent.walletAddress,
		Side:          intent.side,
		PaymentAmount: decimal.NewFromFloat(intent.payment),
		TokenAmount:   decimal.NewFromFloat(intent.tokens),
		Price:         decimal.NewFromFloat(intent.price),
		Status:        models.TradeStatusPending,
	}
	if err := s.storage.SaveTrade(ctx, pending); err != nil {
		// The mirror is a read cache; losing the pending row is not fatal.
		log.Warn("Failed to save pending trade", zap.Error(err))
	}

	if err := s.chain.AwaitConfirmation(ctx, sig, s.cfg.ConfirmDelay, s.cfg.ConfirmTimeout); err != nil {
		if updateErr := s.storage.UpdateTradeStatus(ctx, sig.String(), models.TradeStatusFailed, err.Error()); updateErr != nil {
			log.Warn("Failed to mark trade failed", zap.Error(updateErr))
		}
		s.publish(events.TradeFailedEvent{
			BaseEvent:     events.BaseEvent{EventType: events.TradeFailed, EventTime: time.Now()},
			Signature:     sig.String(),
			Mint:          token.Mint,
			WalletAddress: intent.walletAddress,
			Side:          intent.side,
			Error:         err,
		})
		return nil, err
	}

	// One best-effort re-read of post-trade chain state; the quote stands in
	// when it fails.
	result := &Result{
		Signature:     sig.String(),
		Side:          intent.side,
		PaymentAmount: intent.payment,
		TokenAmount:   intent.tokens,
		Price:         intent.price,
	}
	after, err := s.chain.ReadCurveState(ctx, curveAddr)
	if err != nil {
		log.Warn("Post-trade curve read failed, mirroring quoted amounts", zap.Error(err))
		after = s.projectState(before, intent)
	} else {
		result.Settled = true
		if delta := math.Abs(after.SupplySold - before.SupplySold); delta > 0 {
			result.TokenAmount = delta
		}
	}

	s.mirror(ctx, token, quoter, sig.String(), result, after, log)

	s.publish(events.TradeExecutedEvent{
		BaseEvent:     events.BaseEvent{EventType: events.TradeExecuted, EventTime: time.Now()},
		Signature:     sig.String(),
		Mint:          token.Mint,
		WalletAddress: intent.walletAddress,
		Side:          intent.side,
		PaymentAmount: result.PaymentAmount,
		TokenAmount:   result.TokenAmount,
		Price:         result.Price,
	})
	if after.Complete {
		s.publish(events.CurveCompletedEvent{
			BaseEvent:  events.BaseEvent{EventType: events.CurveCompleted, EventTime: time.Now()},
			Mint:       token.Mint,
			SupplySold: after.SupplySold,
			MarketCap:  quoter.Curve().MarketCap(after.SupplySold),
		})
	}

	return result, nil
}

// projectState extrapolates the post-trade supply from the quote when the
// re-read is unavailable.
func (s *Service) projectState(before *chain.CurveState, intent tradeIntent) *chain.CurveState {
	supply := before.SupplySold
	if intent.side == models.TradeSideBuy {
		supply += intent.tokens
	} else {
		supply -= intent.tokens
		if supply < 0 {
			supply = 0
		}
	}
	return &chain.CurveState{
		SupplySold:       supply,
		PaymentCollected: before.PaymentCollected,
		Complete:         before.Complete,
		LastUpdated:      time.Now(),
	}
}

// mirror rewrites the trade row and the token's cached market data. Failures
// are logged and swallowed: the store is a read cache over chain state and
// the next refresh overwrites it anyway (last write wins).
func (s *Service) mirror(ctx context.Context, token *models.Token, quoter *Quoter, signature string, result *Result, state *chain.CurveState, log *zap.Logger) {
	if err := s.storage.UpdateTradeStatus(ctx, signature, models.TradeStatusConfirmed, ""); err != nil {
		log.Warn("Failed to mark trade confirmed", zap.Error(err))
	}

	c := quoter.Curve()
	data := storage.MarketData{
		SupplySold:    decimal.NewFromFloat(state.SupplySold),
		LastPrice:     decimal.NewFromFloat(c.Price(state.SupplySold)),
		MarketCap:     decimal.NewFromFloat(c.MarketCap(state.SupplySold)),
		CurveProgress: c.Progress(state.SupplySold),
		CurveComplete: state.Complete,
	}
	if err := s.storage.UpdateTokenMarketData(ctx, token.Mint, data); err != nil {
		log.Warn("Failed to update token market data", zap.Error(err))
		return
	}

	log.Debug("Mirrored trade into storage",
		zap.Float64("supply_sold", state.SupplySold),
		zap.Float64("market_cap", c.MarketCap(state.SupplySold)))
}

func (s *Service) publish(event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event); err != nil {
		s.logger.Debug("Event not published", zap.String("event_type", string(event.Type())), zap.Error(err))
	}
}

// curveVault derives the curve's token vault ATA.
func (s *Service) curveVault(mint, curveAddr solana.PublicKey) solana.PublicKey {
	vault, _, err := solana.FindAssociatedTokenAddress(curveAddr, mint)
	if err != nil {
		// FindAssociatedTokenAddress only fails on an off-curve input, which a
		// PDA never is.
		s.logger.Error("Failed to derive curve vault", zap.Error(err))
		return solana.PublicKey{}
	}
	return vault
}
