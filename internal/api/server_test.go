package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/moonforge/launchpad/internal/storage/models"
	"github.com/moonforge/launchpad/internal/token"
	"github.com/moonforge/launchpad/internal/trade"
)

type fakeTokens struct {
	tokens    map[string]*models.Token
	launchErr error
}

func (f *fakeTokens) Launch(_ context.Context, req token.LaunchRequest) (*models.Token, error) {
	if f.launchErr != nil {
		return nil, f.launchErr
	}
	t := &models.Token{
		Mint:          req.Mint,
		CreatorWallet: req.CreatorWallet,
		Name:          req.Name,
		Symbol:        req.Symbol,
		LastPrice:     decimal.NewFromFloat(0.0001533),
		MarketCap:     decimal.NewFromFloat(107310),
	}
	f.tokens[req.Mint] = t
	return t, nil
}

func (f *fakeTokens) Get(_ context.Context, mint string) (*models.Token, error) {
	t, ok := f.tokens[mint]
	if !ok {
		return nil, trade.ErrTokenNotFound
	}
	return t, nil
}

func (f *fakeTokens) List(context.Context, int, int) ([]*models.Token, error) {
	var out []*models.Token
	for _, t := range f.tokens {
		out = append(out, t)
	}
	return out, nil
}

type fakeTrades struct {
	result  *trade.Result
	err     error
	lastBuy trade.BuyRequest
}

func (f *fakeTrades) ExecuteBuy(_ context.Context, req trade.BuyRequest) (*trade.Result, error) {
	f.lastBuy = req
	return f.result, f.err
}

func (f *fakeTrades) ExecuteSell(context.Context, trade.SellRequest) (*trade.Result, error) {
	return f.result, f.err
}

func testToken(mint string) *models.Token {
	return &models.Token{
		Mint:                 mint,
		CreatorWallet:        "creator",
		Name:                 "Doge Premium",
		Symbol:               "DOGEP",
		InitialPrice:         decimal.NewFromFloat(0.0001533),
		MaxSupply:            decimal.NewFromInt(1_000_000_000),
		BondingCurvePercent:  70,
		PriceStepSize:        decimal.NewFromInt(100_000_000),
		CreatorMaxBuyPercent: 5,
		FeePercent:           1,
		SupplySold:           decimal.NewFromInt(100_000_000),
		LastPrice:            decimal.NewFromFloat(0.0003066),
		MarketCap:            decimal.NewFromFloat(214620),
		CurveProgress:        100.0 / 7.0,
	}
}

func newTestServer(tokens *fakeTokens, trades *fakeTrades) *Server {
	return NewServer("127.0.0.1:0", tokens, trades, zap.NewNop())
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeTokens{tokens: map[string]*models.Token{}}, &fakeTrades{})
	rec := doRequest(t, s, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())
}

func TestListTokens(t *testing.T) {
	tokens := &fakeTokens{tokens: map[string]*models.Token{"mint1": testToken("mint1")}}
	s := newTestServer(tokens, &fakeTrades{})

	rec := doRequest(t, s, http.MethodGet, "/api/tokens", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "count").Int())
	assert.Equal(t, "DOGEP", gjson.Get(rec.Body.String(), "tokens.0.symbol").String())
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age")
}

func TestGetToken_NotFound(t *testing.T) {
	s := newTestServer(&fakeTokens{tokens: map[string]*models.Token{}}, &fakeTrades{})
	rec := doRequest(t, s, http.MethodGet, "/api/tokens/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuoteBuy(t *testing.T) {
	tokens := &fakeTokens{tokens: map[string]*models.Token{"mint1": testToken("mint1")}}
	s := newTestServer(tokens, &fakeTrades{})

	rec := doRequest(t, s, http.MethodGet, "/api/tokens/mint1/quote/buy?amount=1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.InDelta(t, 0.0003066, gjson.Get(body, "spot_price").Float(), 1e-12)
	assert.InDelta(t, 1.0/0.0003066, gjson.Get(body, "token_amount").Float(), 1e-6)
	assert.True(t, gjson.Get(body, "estimate").Bool())
}

func TestQuoteSell_FeeDeducted(t *testing.T) {
	tokens := &fakeTokens{tokens: map[string]*models.Token{"mint1": testToken("mint1")}}
	s := newTestServer(tokens, &fakeTrades{})

	rec := doRequest(t, s, http.MethodGet, "/api/tokens/mint1/quote/sell?amount=1000", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.InDelta(t, 0.3066, gjson.Get(body, "gross_proceeds").Float(), 1e-12)
	assert.InDelta(t, 0.303534, gjson.Get(body, "net_proceeds").Float(), 1e-12)
}

func TestQuote_RejectsBadAmount(t *testing.T) {
	tokens := &fakeTokens{tokens: map[string]*models.Token{"mint1": testToken("mint1")}}
	s := newTestServer(tokens, &fakeTrades{})

	for _, path := range []string{
		"/api/tokens/mint1/quote/buy",
		"/api/tokens/mint1/quote/buy?amount=0",
		"/api/tokens/mint1/quote/buy?amount=abc",
		"/api/tokens/mint1/quote/sell?amount=-1",
	} {
		rec := doRequest(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestLaunchToken(t *testing.T) {
	tokens := &fakeTokens{tokens: map[string]*models.Token{}}
	s := newTestServer(tokens, &fakeTrades{})

	rec := doRequest(t, s, http.MethodPost, "/api/tokens",
		`{"mint":"mint1","creator_wallet":"creator","name":"Doge Premium","symbol":"DOGEP"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "mint1", gjson.Get(rec.Body.String(), "mint").String())
	assert.Contains(t, tokens.tokens, "mint1")
}

func TestLaunchToken_ValidationMapsTo400(t *testing.T) {
	tokens := &fakeTokens{tokens: map[string]*models.Token{}, launchErr: token.ErrMissingSymbol}
	s := newTestServer(tokens, &fakeTrades{})

	rec := doRequest(t, s, http.MethodPost, "/api/tokens",
		`{"mint":"mint1","creator_wallet":"creator","name":"X"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTrade_Buy(t *testing.T) {
	trades := &fakeTrades{result: &trade.Result{
		Signature:     "sig1",
		Side:          models.TradeSideBuy,
		PaymentAmount: 1,
		TokenAmount:   3261.5,
		Price:         0.0003066,
		Settled:       true,
	}}
	s := newTestServer(&fakeTokens{tokens: map[string]*models.Token{}}, trades)

	rec := doRequest(t, s, http.MethodPost, "/api/trades",
		`{"mint":"mint1","wallet_address":"w1","side":"buy","payment_amount":1}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sig1", gjson.Get(rec.Body.String(), "signature").String())
	assert.True(t, gjson.Get(rec.Body.String(), "settled").Bool())
	assert.Equal(t, 1.0, trades.lastBuy.PaymentAmount)
}

func TestCreateTrade_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"curve complete", trade.ErrCurveComplete, http.StatusConflict},
		{"creator cap", trade.ErrCreatorBuyCap, http.StatusForbidden},
		{"unknown token", trade.ErrTokenNotFound, http.StatusNotFound},
		{"bad amount", trade.ErrNonPositiveAmount, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeTokens{tokens: map[string]*models.Token{}}, &fakeTrades{err: tt.err})
			rec := doRequest(t, s, http.MethodPost, "/api/trades",
				`{"mint":"mint1","wallet_address":"w1","side":"buy","payment_amount":1}`)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCreateTrade_RejectsUnknownSide(t *testing.T) {
	s := newTestServer(&fakeTokens{tokens: map[string]*models.Token{}}, &fakeTrades{})
	rec := doRequest(t, s, http.MethodPost, "/api/trades",
		`{"mint":"mint1","wallet_address":"w1","side":"short","payment_amount":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
