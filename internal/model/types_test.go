package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestSpread(t *testing.T) {
	tests := []struct {
		name string
		bid  float64
		ask  float64
		want float64
	}{
		{"gold quote", 1900.00, 1900.35, 0.35},
		{"zero spread", 2350.10, 2350.10, 0},
		{"rounds half away from zero", 1.000, 1.005, 0.01},
		{"rounds down", 2000.123, 2000.456, 0.33},
		{"wide spread", 1999.5, 2012.25, 12.75},
		{"sub-cent", 1.23456, 1.23789, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Spread(tt.bid, tt.ask); got != tt.want {
				t.Errorf("Spread(%v, %v) = %v, want %v", tt.bid, tt.ask, got, tt.want)
			}
		})
	}
}

func TestSpread_NonNegative(t *testing.T) {
	bids := []float64{0, 0.01, 1.1, 99.99, 1900.00, 2345.67, 100000.5}
	deltas := []float64{0, 0.001, 0.004, 0.005, 0.3, 1.25, 17.999}

	for _, bid := range bids {
		for _, delta := range deltas {
			ask := bid + delta
			got := Spread(bid, ask)
			if got < 0 {
				t.Errorf("Spread(%v, %v) = %v, want >= 0", bid, ask, got)
			}
			// Result always has at most two decimal places.
			if scaled := got * 100; math.Abs(scaled-math.Round(scaled)) > 1e-9 {
				t.Errorf("Spread(%v, %v) = %v has more than 2 decimals", bid, ask, got)
			}
		}
	}
}

func TestNewSnapshot(t *testing.T) {
	captured := time.Date(2024, 1, 15, 10, 0, 0, 123456000, time.FixedZone("EET", 2*3600))

	s := NewSnapshot(Quote{
		Symbol:       "XAUUSD",
		Bid:          1900.00,
		Ask:          1900.35,
		SpreadPoints: 35,
		TickTime:     1705305600,
	}, captured)

	if s.Symbol != "XAUUSD" {
		t.Errorf("Symbol = %q, want %q", s.Symbol, "XAUUSD")
	}
	if s.Bid != 1900.00 || s.Ask != 1900.35 {
		t.Errorf("Bid/Ask = %v/%v, want 1900/1900.35", s.Bid, s.Ask)
	}
	if s.Spread != 0.35 {
		t.Errorf("Spread = %v, want 0.35", s.Spread)
	}
	if s.SpreadPoints != 35 {
		t.Errorf("SpreadPoints = %d, want 35", s.SpreadPoints)
	}
	if s.Timestamp != "2024-01-15T10:00:00.123456+02:00" {
		t.Errorf("Timestamp = %q, want %q", s.Timestamp, "2024-01-15T10:00:00.123456+02:00")
	}
	if s.Time != 1705305600 {
		t.Errorf("Time = %d, want %d", s.Time, 1705305600)
	}
	if !s.CapturedAt.Equal(captured) {
		t.Errorf("CapturedAt = %v, want %v", s.CapturedAt, captured)
	}
}

func TestDocument_JSON(t *testing.T) {
	s := NewSnapshot(Quote{Symbol: "XAUUSD", Bid: 1900.00, Ask: 1900.35, SpreadPoints: 35, TickTime: 1705305600},
		time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))

	data, err := json.Marshal(Document(DefaultKey, s))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var got map[string]map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("document has %d keys, want 1", len(got))
	}
	entry, ok := got[DefaultKey]
	if !ok {
		t.Fatalf("document missing key %q", DefaultKey)
	}

	wantFields := []string{"symbol", "bid", "ask", "spread", "spread_points", "timestamp", "time"}
	if len(entry) != len(wantFields) {
		t.Errorf("entry has %d fields, want %d: %v", len(entry), len(wantFields), entry)
	}
	for _, f := range wantFields {
		if _, ok := entry[f]; !ok {
			t.Errorf("entry missing field %q", f)
		}
	}
	if entry["bid"] != 1900.0 {
		t.Errorf("bid = %v, want 1900", entry["bid"])
	}
	if entry["ask"] != 1900.35 {
		t.Errorf("ask = %v, want 1900.35", entry["ask"])
	}
	if entry["time"] != float64(1705305600) {
		t.Errorf("time = %v, want 1705305600", entry["time"])
	}
}
