// internal/chain/curve_state.go
package chain

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const (
	// Base-unit decimals of the payment currency (SOL) and of launched tokens.
	solDecimals   = 9
	tokenDecimals = 6

	curveAccountMinLen = 24
)

// CurveState is the decoded on-chain state of a token's bonding curve
// account. Amounts are converted out of base units into whole SOL/tokens.
type CurveState struct {
	SupplySold       float64
	PaymentCollected float64
	Complete         bool
	LastUpdated      time.Time
}

// ReadCurveState fetches and decodes the curve account for a token. Layout:
// three little-endian u64 fields: tokens sold (base units), payment
// collected (lamports), completion flag.
func (c *Client) ReadCurveState(ctx context.Context, curveAddr solana.PublicKey) (*CurveState, error) {
	accountInfo, err := c.GetAccountInfo(ctx, curveAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to get curve account info: %w", err)
	}

	if accountInfo == nil || accountInfo.Value == nil {
		return nil, fmt.Errorf("curve account not found at %s", curveAddr.String())
	}

	data := accountInfo.Value.Data.GetBinary()

	if len(data) < curveAccountMinLen {
		return nil, fmt.Errorf("insufficient curve account data length: %d", len(data))
	}

	supplySoldRaw := binary.LittleEndian.Uint64(data[0:8])
	paymentRaw := binary.LittleEndian.Uint64(data[8:16])
	completeRaw := binary.LittleEndian.Uint64(data[16:24])

	state := &CurveState{
		SupplySold:       float64(supplySoldRaw) / math.Pow10(tokenDecimals),
		PaymentCollected: float64(paymentRaw) / math.Pow10(solDecimals),
		Complete:         completeRaw != 0,
		LastUpdated:      time.Now(),
	}

	c.logger.Debug("Read curve state",
		zap.String("curve", curveAddr.String()),
		zap.Float64("supply_sold", state.SupplySold),
		zap.Float64("payment_collected", state.PaymentCollected),
		zap.Bool("complete", state.Complete))

	return state, nil
}

// DeriveCurveAddress returns the PDA of a token's bonding curve account.
func DeriveCurveAddress(mint, programID solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("bonding-curve"), mint.Bytes()},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive curve address for %s: %w", mint.String(), err)
	}
	return addr, nil
}
