// Package database manages the optional PostgreSQL connection used to mirror
// the latest quote snapshot.
//
// The schema holds a single table, latest_quotes, with one row per document key.
// It is a lookup table for SQL consumers, not a history store.
package database
