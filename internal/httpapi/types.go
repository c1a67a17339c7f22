// Package httpapi provides the HTTP REST API for trading calendar queries.
package httpapi

import "time"

// ExchangesJSON lists the served exchanges.
type ExchangesJSON struct {
	Exchanges []string `json:"exchanges"`
}

// TradingTimeJSON answers an is-trading-time query.
type TradingTimeJSON struct {
	Exchange string    `json:"exchange"`
	At       time.Time `json:"at"`
	Trading  bool      `json:"trading"`
}

// NextJSON answers a next-trading-time query.
type NextJSON struct {
	Exchange string    `json:"exchange"`
	After    time.Time `json:"after"`
	Next     time.Time `json:"next"`
}

// TradingTimesJSON holds sampled instants of a range. Truncated is set when
// the limit cut the sequence short.
type TradingTimesJSON struct {
	Exchange  string      `json:"exchange"`
	Start     time.Time   `json:"start"`
	End       time.Time   `json:"end"`
	Count     int         `json:"count"`
	Truncated bool        `json:"truncated,omitempty"`
	Times     []time.Time `json:"times"`
}

// HoursJSON classifies one date. Open and Close are set on trading days.
type HoursJSON struct {
	Exchange   string     `json:"exchange"`
	Date       string     `json:"date"`
	TradingDay bool       `json:"trading_day"`
	Holiday    bool       `json:"holiday"`
	Special    bool       `json:"special"`
	OpenTime   string     `json:"open_time"`
	CloseTime  string     `json:"close_time"`
	Open       *time.Time `json:"open,omitempty"`
	Close      *time.Time `json:"close,omitempty"`
}

// ErrorJSON is the body of every non-2xx response.
type ErrorJSON struct {
	Error string `json:"error"`
}
