// internal/chain/client.go
package chain

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// Client wraps the RPC pool with the handful of chain operations the
// launchpad needs: submit, confirm, and account reads.
type Client struct {
	rpcPool *RPCPool
	logger  *zap.Logger
}

func NewClient(rpcList []string, logger *zap.Logger) (*Client, error) {
	if len(rpcList) == 0 {
		return nil, errors.New("empty RPC list")
	}

	for _, rpcURL := range rpcList {
		if _, err := url.Parse(rpcURL); err != nil {
			return nil, errors.New("invalid RPC URL: " + rpcURL)
		}
	}

	rpcPool := NewRPCPool(rpcList, logger.Named("rpc_pool"))

	if err := testConnection(rpcPool.GetClient()); err != nil {
		return nil, err
	}

	return &Client{
		rpcPool: rpcPool,
		logger:  logger,
	}, nil
}

func testConnection(client *rpc.Client) error {
	_, err := client.GetLatestBlockhash(context.Background(), rpc.CommitmentFinalized)
	return err
}

func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	rpcClient := c.rpcPool.GetClient()
	txHash, err := rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		c.logger.Error("Failed to send transaction", zap.Error(err))
		return solana.Signature{}, err
	}
	return txHash, nil
}

func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	rpcClient := c.rpcPool.GetClient()
	result, err := rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		c.logger.Error("Failed to get latest blockhash", zap.Error(err))
		return solana.Hash{}, err
	}
	return result.Value.Blockhash, nil
}

func (c *Client) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	rpcClient := c.rpcPool.GetClient()
	return rpcClient.GetAccountInfo(ctx, account)
}

// PerformHealthChecks drops unresponsive endpoints from the RPC pool.
func (c *Client) PerformHealthChecks() {
	c.rpcPool.PerformHealthChecks()
}

// AwaitConfirmation polls the signature status until the transaction reaches
// confirmed or finalized commitment. RPC hiccups are retried under
// exponential backoff; an on-chain execution error is permanent.
func (c *Client) AwaitConfirmation(ctx context.Context, signature solana.Signature, pollDelay time.Duration, maxWait time.Duration) error {
	operation := func() (struct{}, error) {
		rpcClient := c.rpcPool.GetClient()
		statuses, err := rpcClient.GetSignatureStatuses(ctx, false, signature)
		if err != nil {
			c.logger.Warn("Error getting signature statuses", zap.Error(err))
			return struct{}{}, err
		}

		if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
			return struct{}{}, fmt.Errorf("transaction %s not yet observed", signature)
		}

		status := statuses.Value[0]
		if status.Err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("transaction failed on chain: %v", status.Err))
		}
		if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
			status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
			return struct{}{}, nil
		}
		return struct{}{}, fmt.Errorf("transaction %s still %s", signature, status.ConfirmationStatus)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = pollDelay
	policy.MaxInterval = pollDelay * 10

	_, err := backoff.Retry(
		ctx,
		operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(maxWait),
	)
	if err != nil {
		return fmt.Errorf("confirmation of %s: %w", signature, err)
	}

	c.logger.Debug("Transaction confirmed", zap.String("signature", signature.String()))
	return nil
}
