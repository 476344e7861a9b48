// Package model defines the quote snapshot persisted by the bridge.
//
// Conventions:
//   - Prices: float64 as reported by the terminal, never rescaled
//   - Spread: ask - bid rounded to 2 decimal places using decimal arithmetic
//   - Timestamp: local capture time, ISO 8601 with microseconds and UTC offset
//   - Time: broker tick time in seconds since Unix epoch
package model
