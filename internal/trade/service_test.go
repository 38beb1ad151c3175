package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moonforge/launchpad/internal/chain"
	"github.com/moonforge/launchpad/internal/storage"
	"github.com/moonforge/launchpad/internal/storage/models"
	"github.com/moonforge/launchpad/internal/wallet"
)

// fakeChain scripts chain behavior for the orchestration flow.
type fakeChain struct {
	stateBefore   *chain.CurveState
	stateAfter    *chain.CurveState
	readErr       error
	rereadErr     error
	confirmErr    error
	sendErr       error
	reads         int
	sentTx        *solana.Transaction
	awaitedSig    solana.Signature
	confirmCalled bool
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	f.sentTx = tx
	return solana.Signature{1, 2, 3}, nil
}

func (f *fakeChain) LatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

func (f *fakeChain) AwaitConfirmation(_ context.Context, sig solana.Signature, _, _ time.Duration) error {
	f.confirmCalled = true
	f.awaitedSig = sig
	return f.confirmErr
}

func (f *fakeChain) ReadCurveState(context.Context, solana.PublicKey) (*chain.CurveState, error) {
	f.reads++
	if f.reads == 1 {
		if f.readErr != nil {
			return nil, f.readErr
		}
		return f.stateBefore, nil
	}
	if f.rereadErr != nil {
		return nil, f.rereadErr
	}
	return f.stateAfter, nil
}

// fakeStorage records mirror writes in memory.
type fakeStorage struct {
	token         *models.Token
	trades        map[string]*models.Trade
	statuses      map[string]string
	marketData    *storage.MarketData
	creatorBought decimal.Decimal
}

func newFakeStorage(token *models.Token) *fakeStorage {
	return &fakeStorage{
		token:    token,
		trades:   make(map[string]*models.Trade),
		statuses: make(map[string]string),
	}
}

func (f *fakeStorage) SaveToken(context.Context, *models.Token) error { return nil }

func (f *fakeStorage) GetToken(_ context.Context, mint string) (*models.Token, error) {
	if f.token == nil || f.token.Mint != mint {
		return nil, errors.New("record not found")
	}
	return f.token, nil
}

func (f *fakeStorage) ListTokens(context.Context, int, int) ([]*models.Token, error) {
	return []*models.Token{f.token}, nil
}

func (f *fakeStorage) UpdateTokenMarketData(_ context.Context, _ string, data storage.MarketData) error {
	f.marketData = &data
	return nil
}

func (f *fakeStorage) SaveTrade(_ context.Context, trade *models.Trade) error {
	f.trades[trade.Signature] = trade
	return nil
}

func (f *fakeStorage) GetTrade(_ context.Context, signature string) (*models.Trade, error) {
	trade, ok := f.trades[signature]
	if !ok {
		return nil, errors.New("record not found")
	}
	return trade, nil
}

func (f *fakeStorage) ListTradesByWallet(context.Context, string, int, int) ([]*models.Trade, error) {
	return nil, nil
}

func (f *fakeStorage) UpdateTradeStatus(_ context.Context, signature, status, errorMsg string) error {
	f.statuses[signature] = status
	if trade, ok := f.trades[signature]; ok {
		trade.Status = status
		trade.ErrorMessage = errorMsg
	}
	return nil
}

func (f *fakeStorage) SumCreatorBuys(context.Context, string, string) (decimal.Decimal, error) {
	return f.creatorBought, nil
}

func (f *fakeStorage) RunMigrations() error { return nil }

func testWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	pk, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := wallet.NewWallet(base58.Encode(pk))
	require.NoError(t, err)
	return w
}

func testToken(t *testing.T) *models.Token {
	t.Helper()
	mint, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	creator, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return &models.Token{
		Mint:                 mint.PublicKey().String(),
		CreatorWallet:        creator.PublicKey().String(),
		Name:                 "Test Meme",
		Symbol:               "MEME",
		InitialPrice:         decimal.NewFromFloat(0.0001533),
		MaxSupply:            decimal.NewFromInt(1_000_000_000),
		BondingCurvePercent:  70,
		PriceStepSize:        decimal.NewFromInt(100_000_000),
		CreatorMaxBuyPercent: 5,
		FeePercent:           1,
	}
}

func newTestService(st storage.Storage, ch Chain, w *wallet.Wallet) *Service {
	program := solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	return NewService(st, ch, w, nil, Config{
		ProgramID:      program,
		FeeRecipient:   program,
		ConfirmDelay:   time.Millisecond,
		ConfirmTimeout: time.Second,
	}, zap.NewNop())
}

func TestExecuteBuy_MirrorsSettledState(t *testing.T) {
	token := testToken(t)
	st := newFakeStorage(token)
	ch := &fakeChain{
		stateBefore: &chain.CurveState{SupplySold: 100_000_000},
		stateAfter:  &chain.CurveState{SupplySold: 100_003_261},
	}
	svc := newTestService(st, ch, testWallet(t))

	result, err := svc.ExecuteBuy(context.Background(), BuyRequest{
		Mint:          token.Mint,
		WalletAddress: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		PaymentAmount: 1.0,
	})
	require.NoError(t, err)

	assert.True(t, ch.confirmCalled)
	assert.True(t, result.Settled)
	// Settled token amount comes from the chain re-read, not the quote.
	assert.InDelta(t, 3261, result.TokenAmount, 1e-9)

	// Trade row went pending then confirmed.
	trade, err := st.GetTrade(context.Background(), result.Signature)
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusConfirmed, trade.Status)

	// Cached market data was recomputed from post-trade supply.
	require.NotNil(t, st.marketData)
	assert.InDelta(t, 100_003_261, st.marketData.SupplySold.InexactFloat64(), 1e-3)
	ratio := 100_003_261.0 / 100_000_000.0
	expectedPrice := 0.0001533 * (1 + ratio*ratio)
	assert.InDelta(t, expectedPrice, st.marketData.LastPrice.InexactFloat64(), 1e-9)
	assert.InDelta(t, expectedPrice*700_000_000, st.marketData.MarketCap.InexactFloat64(), 1e-2)
}

func TestExecuteBuy_RereadFailureFallsBackToQuote(t *testing.T) {
	token := testToken(t)
	st := newFakeStorage(token)
	ch := &fakeChain{
		stateBefore: &chain.CurveState{SupplySold: 0},
		rereadErr:   errors.New("rpc timeout"),
	}
	svc := newTestService(st, ch, testWallet(t))

	result, err := svc.ExecuteBuy(context.Background(), BuyRequest{
		Mint:          token.Mint,
		WalletAddress: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		PaymentAmount: 0.5,
	})
	require.NoError(t, err)

	assert.False(t, result.Settled)
	// Quoted amount at the initial price stands in for the settled amount.
	assert.InDelta(t, 0.5/0.0001533, result.TokenAmount, 1e-6)

	// Market data mirrors the projected post-trade supply.
	require.NotNil(t, st.marketData)
	assert.InDelta(t, 0.5/0.0001533, st.marketData.SupplySold.InexactFloat64(), 1e-6)
}

func TestExecuteBuy_ConfirmFailureMarksTradeFailed(t *testing.T) {
	token := testToken(t)
	st := newFakeStorage(token)
	ch := &fakeChain{
		stateBefore: &chain.CurveState{SupplySold: 0},
		confirmErr:  errors.New("confirmation timeout"),
	}
	svc := newTestService(st, ch, testWallet(t))

	_, err := svc.ExecuteBuy(context.Background(), BuyRequest{
		Mint:          token.Mint,
		WalletAddress: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		PaymentAmount: 1.0,
	})
	require.Error(t, err)

	sig := solana.Signature{1, 2, 3}.String()
	assert.Equal(t, models.TradeStatusFailed, st.statuses[sig])
	assert.Nil(t, st.marketData, "failed trades must not rewrite market data")
}

func TestExecuteBuy_CreatorCapEnforced(t *testing.T) {
	token := testToken(t)
	st := newFakeStorage(token)
	// Creator already holds nearly the whole 35M-token cap.
	st.creatorBought = decimal.NewFromInt(34_999_000)
	ch := &fakeChain{stateBefore: &chain.CurveState{SupplySold: 0}}
	svc := newTestService(st, ch, testWallet(t))

	_, err := svc.ExecuteBuy(context.Background(), BuyRequest{
		Mint:          token.Mint,
		WalletAddress: token.CreatorWallet,
		PaymentAmount: 1.0, // ~6.5k tokens at the initial price, over the cap
	})
	assert.ErrorIs(t, err, ErrCreatorBuyCap)
	assert.Nil(t, ch.sentTx, "capped buy must not reach the chain")
}

func TestExecuteBuy_CurveCompleteRejected(t *testing.T) {
	token := testToken(t)
	token.CurveComplete = true
	st := newFakeStorage(token)
	svc := newTestService(st, &fakeChain{}, testWallet(t))

	_, err := svc.ExecuteBuy(context.Background(), BuyRequest{
		Mint:          token.Mint,
		WalletAddress: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		PaymentAmount: 1.0,
	})
	assert.ErrorIs(t, err, ErrCurveComplete)
}

func TestExecuteSell_MirrorsNetProceeds(t *testing.T) {
	token := testToken(t)
	st := newFakeStorage(token)
	ch := &fakeChain{
		stateBefore: &chain.CurveState{SupplySold: 100_000_000},
		stateAfter:  &chain.CurveState{SupplySold: 99_999_000},
	}
	svc := newTestService(st, ch, testWallet(t))

	result, err := svc.ExecuteSell(context.Background(), SellRequest{
		Mint:          token.Mint,
		WalletAddress: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		TokenAmount:   1000,
	})
	require.NoError(t, err)

	// Net proceeds: 1000 * 0.0003066 * 0.99.
	assert.InDelta(t, 0.303534, result.PaymentAmount, 1e-12)
	assert.InDelta(t, 1000, result.TokenAmount, 1e-9)

	require.NotNil(t, st.marketData)
	assert.InDelta(t, 99_999_000, st.marketData.SupplySold.InexactFloat64(), 1e-3)
}

func TestExecuteTrade_RejectsNonPositiveAmounts(t *testing.T) {
	token := testToken(t)
	svc := newTestService(newFakeStorage(token), &fakeChain{}, testWallet(t))

	_, err := svc.ExecuteBuy(context.Background(), BuyRequest{Mint: token.Mint, PaymentAmount: 0})
	assert.ErrorIs(t, err, ErrNonPositiveAmount)

	_, err = svc.ExecuteSell(context.Background(), SellRequest{Mint: token.Mint, TokenAmount: -1})
	assert.ErrorIs(t, err, ErrNonPositiveAmount)
}

func TestExecuteBuy_UnknownToken(t *testing.T) {
	svc := newTestService(newFakeStorage(nil), &fakeChain{}, testWallet(t))

	_, err := svc.ExecuteBuy(context.Background(), BuyRequest{
		Mint:          "BadMint11111111111111111111111111111111111",
		PaymentAmount: 1.0,
	})
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
