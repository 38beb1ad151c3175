// internal/curve/curve.go
package curve

// Config holds the parameters of a quadratic bonding curve. Values are fixed
// at token launch and never mutated afterwards; pass the struct by value.
type Config struct {
	// InitialPrice is the price per token at zero circulating supply, in SOL.
	InitialPrice float64
	// MaxSupply is the absolute token supply ceiling.
	MaxSupply float64
	// BondingCurvePercent is the fraction of MaxSupply sellable through the
	// curve, in percent. The remainder is reserved for the liquidity migration.
	BondingCurvePercent float64
	// PriceStepSize is the normalization divisor controlling curve steepness.
	PriceStepSize float64
	// CreatorMaxBuyPercent caps self-purchase by the token creator, as a
	// percent of the bonding-curve allocation.
	CreatorMaxBuyPercent float64
	// FeePercent is the protocol fee deducted from sell proceeds.
	FeePercent float64
}

// DefaultConfig returns the curve parameters of the deployed launch program.
func DefaultConfig() Config {
	return Config{
		InitialPrice:         0.0001533,
		MaxSupply:            1_000_000_000,
		BondingCurvePercent:  70,
		PriceStepSize:        100_000_000,
		CreatorMaxBuyPercent: 5,
		FeePercent:           1,
	}
}

// Curve evaluates prices on a quadratic bonding curve. All methods are pure;
// results are display/quoting estimates only. The on-chain program computes
// the authoritative settlement amounts in fixed point.
type Curve struct {
	cfg Config
}

// New creates a curve over the given parameter set.
func New(cfg Config) Curve {
	return Curve{cfg: cfg}
}

// Config returns the parameter set the curve was built with.
func (c Curve) Config() Config {
	return c.cfg
}

// Allocation returns the number of tokens sellable through the curve.
func (c Curve) Allocation() float64 {
	return c.cfg.MaxSupply * c.cfg.BondingCurvePercent / 100
}

// CreatorMaxBuy returns the maximum number of tokens the creator may buy
// from their own curve.
func (c Curve) CreatorMaxBuy() float64 {
	return c.Allocation() * c.cfg.CreatorMaxBuyPercent / 100
}

// Price returns the spot price per token at the given circulating supply.
// Supply past the curve allocation is clamped, so the price is bounded by its
// value at full allocation. Price(0) is exactly InitialPrice.
func (c Curve) Price(supply float64) float64 {
	allocation := c.Allocation()
	if supply > allocation {
		supply = allocation
	}
	if supply == 0 {
		return c.cfg.InitialPrice
	}
	ratio := supply / c.cfg.PriceStepSize
	return c.cfg.InitialPrice * (1 + ratio*ratio)
}

// Progress returns how much of the curve allocation has been filled, as a
// percentage clamped to [0, 100]. Supply should never overshoot the
// allocation on a well-behaved curve, but a stale chain read must not render
// as >100%.
func (c Curve) Progress(supply float64) float64 {
	progress := supply / c.Allocation() * 100
	if progress > 100 {
		return 100
	}
	return progress
}

// TokensForPayment estimates how many tokens the given payment buys at the
// current spot price. Large buys move the price as they execute, so this is
// exact only in the limit of small trades.
func (c Curve) TokensForPayment(payment, supply float64) float64 {
	return payment / c.Price(supply)
}

// PaymentForTokens estimates the payment required to buy tokenAmount at the
// current spot price. Same approximation caveat as TokensForPayment.
func (c Curve) PaymentForTokens(tokenAmount, supply float64) float64 {
	return tokenAmount * c.Price(supply)
}

// ProceedsForSale estimates the net payment returned for selling tokenAmount,
// after the protocol fee.
func (c Curve) ProceedsForSale(tokenAmount, supply float64) float64 {
	gross := tokenAmount * c.Price(supply)
	fee := gross * c.cfg.FeePercent / 100
	return gross - fee
}

// MarketCap returns the valuation at the given supply: spot price times the
// full curve allocation (not circulating supply), i.e. the value of the whole
// curve at today's price.
func (c Curve) MarketCap(supply float64) float64 {
	return c.Price(supply) * c.Allocation()
}
