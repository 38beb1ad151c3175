// internal/chain/pool.go
package chain

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// RPCPool rotates requests across the configured RPC endpoints.
type RPCPool struct {
	clients []*rpc.Client
	mutex   sync.Mutex
	index   int
	logger  *zap.Logger
}

func NewRPCPool(rpcList []string, logger *zap.Logger) *RPCPool {
	var clients []*rpc.Client
	for _, url := range rpcList {
		clients = append(clients, rpc.New(url))
	}

	return &RPCPool{
		clients: clients,
		index:   0,
		logger:  logger,
	}
}

// GetClient returns the next client in round-robin order.
func (p *RPCPool) GetClient() *rpc.Client {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	client := p.clients[p.index]
	p.index = (p.index + 1) % len(p.clients)
	return client
}

func (p *RPCPool) CheckClientHealth(client *rpc.Client) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	return err == nil
}

// PerformHealthChecks drops unreachable endpoints from the rotation. Keeps at
// least one client so the pool never goes empty.
func (p *RPCPool) PerformHealthChecks() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for i := len(p.clients) - 1; i >= 0; i-- {
		if len(p.clients) == 1 {
			return
		}
		if !p.CheckClientHealth(p.clients[i]) {
			p.logger.Warn("RPC client unhealthy, removing from pool", zap.Int("index", i))
			p.clients = append(p.clients[:i], p.clients[i+1:]...)
			if p.index >= len(p.clients) {
				p.index = 0
			}
		}
	}
}
