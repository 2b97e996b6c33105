package actions

import (
	"time"

	"github.com/google/uuid"
)

// TradeSide is the direction of a proposed trade.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// TradeIntent describes the trade a request proposes, when kind warrants one.
type TradeIntent struct {
	Symbol   string    `json:"symbol,omitempty"`
	Side     TradeSide `json:"side,omitempty"`
	Amount   float64   `json:"amount,omitempty"`
	Leverage bool      `json:"leverage,omitempty"`
}

// NotifyChannel names a notification delivery channel.
type NotifyChannel string

const (
	NotifyEmail NotifyChannel = "email"
	NotifySMS   NotifyChannel = "sms"
	NotifyPush  NotifyChannel = "push"
)

// NotifyIntent describes the notification a request proposes.
type NotifyIntent struct {
	Channel NotifyChannel `json:"channel,omitempty"`
	Message string        `json:"message,omitempty"`
}

// Request is a proposal to perform a financial or notification action. It is
// constructed once, passed through the dispatcher, and never mutated
// afterward; only its audit projection is persisted.
type Request struct {
	ID       string        `json:"id"`
	TS       time.Time     `json:"ts"`
	ModuleID string        `json:"moduleId"`
	Kind     string        `json:"kind"`
	Summary  string        `json:"summary"`
	Trade    *TradeIntent  `json:"trade,omitempty"`
	Notify   *NotifyIntent `json:"notify,omitempty"`
}

// NewRequest builds a request with a fresh id and creation timestamp.
func NewRequest(moduleID, kind, summary string) Request {
	return Request{
		ID:       uuid.NewString(),
		TS:       time.Now().UTC(),
		ModuleID: moduleID,
		Kind:     kind,
		Summary:  summary,
	}
}

// WithTrade returns a copy of the request carrying the given trade intent.
func (r Request) WithTrade(trade TradeIntent) Request {
	r.Trade = &trade
	return r
}

// WithNotify returns a copy of the request carrying the given notify intent.
func (r Request) WithNotify(notify NotifyIntent) Request {
	r.Notify = &notify
	return r
}
