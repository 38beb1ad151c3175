package events

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTradeEvent(mint string) TradeExecutedEvent {
	return TradeExecutedEvent{
		BaseEvent: BaseEvent{EventType: TradeExecuted, EventTime: time.Now()},
		Mint:      mint,
		Side:      "buy",
	}
}

func TestBus_PublishSync(t *testing.T) {
	bus := NewBus(zap.NewNop(), 10)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = bus.Shutdown(ctx)
	}()

	var seen atomic.Int32
	bus.SubscribeFunc(TradeExecuted, func(_ context.Context, event Event) error {
		trade, ok := event.(TradeExecutedEvent)
		require.True(t, ok)
		assert.Equal(t, "MintA", trade.Mint)
		seen.Add(1)
		return nil
	})

	require.NoError(t, bus.PublishSync(context.Background(), newTradeEvent("MintA")))
	assert.Equal(t, int32(1), seen.Load())
}

func TestBus_AsyncDelivery(t *testing.T) {
	bus := NewBus(zap.NewNop(), 10)

	delivered := make(chan Event, 1)
	bus.SubscribeFunc(TokenLaunched, func(_ context.Context, event Event) error {
		delivered <- event
		return nil
	})

	err := bus.Publish(TokenLaunchedEvent{
		BaseEvent: BaseEvent{EventType: TokenLaunched, EventTime: time.Now()},
		Mint:      "MintB",
		Symbol:    "MEME",
	})
	require.NoError(t, err)

	select {
	case event := <-delivered:
		launched, ok := event.(TokenLaunchedEvent)
		require.True(t, ok)
		assert.Equal(t, "MEME", launched.Symbol)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Shutdown(ctx))
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zap.NewNop(), 10)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = bus.Shutdown(ctx)
	}()

	var seen atomic.Int32
	sub := bus.SubscribeFunc(TradeExecuted, func(context.Context, Event) error {
		seen.Add(1)
		return nil
	})
	sub.Unsubscribe()

	require.NoError(t, bus.PublishSync(context.Background(), newTradeEvent("MintC")))
	assert.Zero(t, seen.Load())
}

func TestBus_PublishAfterShutdown(t *testing.T) {
	bus := NewBus(zap.NewNop(), 16)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Shutdown(ctx))

	// Buffer space is still free after shutdown; every publish must be
	// rejected rather than enqueued for a dispatcher that already exited.
	for i := 0; i < 50; i++ {
		err := bus.Publish(newTradeEvent("MintD"))
		assert.EqualError(t, err, "event bus is shutting down")
	}
}

func TestBus_ShutdownHonorsContext(t *testing.T) {
	bus := NewBus(zap.NewNop(), 10)

	blocked := make(chan struct{})
	release := make(chan struct{})
	bus.SubscribeFunc(TradeExecuted, func(context.Context, Event) error {
		close(blocked)
		<-release
		return nil
	})

	require.NoError(t, bus.Publish(newTradeEvent("MintE")))
	<-blocked

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := bus.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}
