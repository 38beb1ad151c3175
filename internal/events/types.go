// internal/events/types.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Token lifecycle events
	TokenLaunched  EventType = "token.launched"
	CurveCompleted EventType = "curve.completed"

	// Trade events
	TradeExecuted EventType = "trade.executed"
	TradeFailed   EventType = "trade.failed"

	// Market data events
	MarketDataUpdated EventType = "market.updated"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// TokenLaunchedEvent is emitted when a new token is registered on the curve.
type TokenLaunchedEvent struct {
	BaseEvent
	Mint          string
	CreatorWallet string
	Name          string
	Symbol        string
}

// TradeExecutedEvent is emitted after a trade confirms on chain.
type TradeExecutedEvent struct {
	BaseEvent
	Signature     string
	Mint          string
	WalletAddress string
	Side          string
	PaymentAmount float64
	TokenAmount   float64
	Price         float64
}

// TradeFailedEvent is emitted when a submitted trade fails or times out.
type TradeFailedEvent struct {
	BaseEvent
	Signature     string
	Mint          string
	WalletAddress string
	Side          string
	Error         error
}

// CurveCompletedEvent is emitted the first time a curve is observed complete.
type CurveCompletedEvent struct {
	BaseEvent
	Mint       string
	SupplySold float64
	MarketCap  float64
}

// MarketDataUpdatedEvent is emitted when the refresher rewrites cached
// market data for a token.
type MarketDataUpdatedEvent struct {
	BaseEvent
	Mint          string
	Price         float64
	SupplySold    float64
	MarketCap     float64
	CurveProgress float64
}
