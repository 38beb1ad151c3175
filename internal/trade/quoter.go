// internal/trade/quoter.go
package trade

import (
	"errors"
	"math"

	"github.com/moonforge/launchpad/internal/curve"
	"github.com/moonforge/launchpad/internal/storage/models"
)

var ErrNonPositiveAmount = errors.New("amount must be positive")

// BuyQuote is a client-side estimate of a buy. The program settles the
// authoritative amounts on chain; these numbers are for display and input
// linking only.
type BuyQuote struct {
	PaymentAmount float64
	TokenAmount   float64
	SpotPrice     float64
	Progress      float64
	MarketCap     float64
}

// SellQuote is a client-side estimate of a sell, net of the protocol fee.
type SellQuote struct {
	TokenAmount   float64
	GrossProceeds float64
	Fee           float64
	NetProceeds   float64
	SpotPrice     float64
}

// Quoter produces trade quotes against a token's bonding curve.
type Quoter struct {
	curve curve.Curve
}

// NewQuoter builds a quoter over the given curve parameters.
func NewQuoter(cfg curve.Config) *Quoter {
	return &Quoter{curve: curve.New(cfg)}
}

// QuoterForToken rebuilds a quoter from the curve snapshot stored with a
// token at launch, so quotes stay correct even if platform defaults change
// for later launches.
func QuoterForToken(token *models.Token) *Quoter {
	return NewQuoter(curve.Config{
		InitialPrice:         token.InitialPrice.InexactFloat64(),
		MaxSupply:            token.MaxSupply.InexactFloat64(),
		BondingCurvePercent:  token.BondingCurvePercent,
		PriceStepSize:        token.PriceStepSize.InexactFloat64(),
		CreatorMaxBuyPercent: token.CreatorMaxBuyPercent,
		FeePercent:           token.FeePercent,
	})
}

// Curve exposes the underlying curve for market-data computations.
func (q *Quoter) Curve() curve.Curve {
	return q.curve
}

// usableSupply guards against garbage chain reads: without a usable supply
// the quote falls back to the curve's starting point (the initial price).
func usableSupply(supply float64) float64 {
	if supply < 0 || math.IsNaN(supply) || math.IsInf(supply, 0) {
		return 0
	}
	return supply
}

// QuoteBuy estimates the tokens received for paymentAmount at the current
// supply.
func (q *Quoter) QuoteBuy(paymentAmount, supply float64) (*BuyQuote, error) {
	if paymentAmount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	supply = usableSupply(supply)

	return &BuyQuote{
		PaymentAmount: paymentAmount,
		TokenAmount:   q.curve.TokensForPayment(paymentAmount, supply),
		SpotPrice:     q.curve.Price(supply),
		Progress:      q.curve.Progress(supply),
		MarketCap:     q.curve.MarketCap(supply),
	}, nil
}

// QuoteSell estimates the net proceeds of selling tokenAmount at the current
// supply.
func (q *Quoter) QuoteSell(tokenAmount, supply float64) (*SellQuote, error) {
	if tokenAmount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	supply = usableSupply(supply)

	spot := q.curve.Price(supply)
	gross := tokenAmount * spot
	net := q.curve.ProceedsForSale(tokenAmount, supply)

	return &SellQuote{
		TokenAmount:   tokenAmount,
		GrossProceeds: gross,
		Fee:           gross - net,
		NetProceeds:   net,
		SpotPrice:     spot,
	}, nil
}
