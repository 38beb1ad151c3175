// internal/trade/instructions.go
package trade

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/moonforge/launchpad/internal/wallet"
)

// Anchor-style discriminators of the launch program's trade instructions.
var (
	buyDiscriminator  = []byte{0x66, 0x06, 0x3d, 0x12, 0x01, 0xda, 0xeb, 0xea}
	sellDiscriminator = []byte{0x33, 0xe6, 0x85, 0xa4, 0x01, 0x7f, 0x83, 0xad}
)

// InstructionAccounts collects the fixed accounts of a curve trade.
type InstructionAccounts struct {
	Program      solana.PublicKey
	FeeRecipient solana.PublicKey
	Mint         solana.PublicKey
	Curve        solana.PublicKey
	CurveVault   solana.PublicKey
}

// BuildBuyInstruction builds a buy against the curve: exact payment in,
// minTokensOut as the slippage floor.
func BuildBuyInstruction(
	accounts InstructionAccounts,
	platformWallet *wallet.Wallet,
	paymentLamports, minTokensOut uint64,
) (solana.Instruction, error) {
	data := make([]byte, len(buyDiscriminator), len(buyDiscriminator)+16)
	copy(data, buyDiscriminator)

	amountBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(amountBytes, paymentLamports)
	data = append(data, amountBytes...)

	minOutBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(minOutBytes, minTokensOut)
	data = append(data, minOutBytes...)

	userATA, err := platformWallet.GetATA(accounts.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to get associated token account: %w", err)
	}

	// Account order is fixed by the program.
	insAccounts := []*solana.AccountMeta{
		{PublicKey: accounts.FeeRecipient, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.Mint, IsSigner: false, IsWritable: false},
		{PublicKey: accounts.Curve, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.CurveVault, IsSigner: false, IsWritable: true},
		{PublicKey: userATA, IsSigner: false, IsWritable: true},
		{PublicKey: platformWallet.PublicKey, IsSigner: true, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(accounts.Program, insAccounts, data), nil
}

// BuildSellInstruction builds a sell against the curve: exact tokens in,
// minPaymentOut as the slippage floor.
func BuildSellInstruction(
	accounts InstructionAccounts,
	platformWallet *wallet.Wallet,
	tokenAmount, minPaymentOut uint64,
) (solana.Instruction, error) {
	data := make([]byte, len(sellDiscriminator), len(sellDiscriminator)+16)
	copy(data, sellDiscriminator)

	amountBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(amountBytes, tokenAmount)
	data = append(data, amountBytes...)

	minOutBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(minOutBytes, minPaymentOut)
	data = append(data, minOutBytes...)

	userATA, err := platformWallet.GetATA(accounts.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to get associated token account: %w", err)
	}

	insAccounts := []*solana.AccountMeta{
		{PublicKey: accounts.FeeRecipient, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.Mint, IsSigner: false, IsWritable: false},
		{PublicKey: accounts.Curve, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.CurveVault, IsSigner: false, IsWritable: true},
		{PublicKey: userATA, IsSigner: false, IsWritable: true},
		{PublicKey: platformWallet.PublicKey, IsSigner: true, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(accounts.Program, insAccounts, data), nil
}
