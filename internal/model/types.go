package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultKey is the document key the snapshot is stored under.
const DefaultKey = "broker_xau_usd"

// TimestampLayout is the ISO 8601 layout used for Snapshot.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// SpreadPlaces is the number of decimal places Spread is rounded to.
const SpreadPlaces = 2

// Snapshot is one quote observation for the configured instrument.
type Snapshot struct {
	Symbol       string  `json:"symbol"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	Spread       float64 `json:"spread"`        // ask - bid, 2 decimal places
	SpreadPoints int64   `json:"spread_points"` // broker spread in points
	Timestamp    string  `json:"timestamp"`     // capture time (ISO 8601, local)
	Time         int64   `json:"time"`          // broker tick time (s since epoch)

	CapturedAt time.Time `json:"-"`
}

// Quote is the raw input a Snapshot is built from.
type Quote struct {
	Symbol       string
	Bid          float64
	Ask          float64
	SpreadPoints int64
	TickTime     int64
}

// NewSnapshot builds a Snapshot from a quote captured at the given time.
func NewSnapshot(q Quote, capturedAt time.Time) Snapshot {
	return Snapshot{
		Symbol:       q.Symbol,
		Bid:          q.Bid,
		Ask:          q.Ask,
		Spread:       Spread(q.Bid, q.Ask),
		SpreadPoints: q.SpreadPoints,
		Timestamp:    capturedAt.Format(TimestampLayout),
		Time:         q.TickTime,
		CapturedAt:   capturedAt,
	}
}

// Spread returns ask - bid rounded to SpreadPlaces.
//
// Decimal arithmetic avoids binary float artifacts: 1900.35 - 1900.00 is
// 0.3499999999999 as float64 but 0.35 here.
func Spread(bid, ask float64) float64 {
	d := decimal.NewFromFloat(ask).Sub(decimal.NewFromFloat(bid)).Round(SpreadPlaces)
	f, _ := d.Float64()
	return f
}

// Document wraps a snapshot under key, the shape written to the output file.
func Document(key string, s Snapshot) map[string]Snapshot {
	return map[string]Snapshot{key: s}
}
