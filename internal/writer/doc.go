// Package writer persists quote snapshots.
//
// Writers:
//   - File writer: the JSON document other processes read (always on)
//   - Redis writer: latest document under a key with TTL, plus a PUBLISH notification
//   - Postgres writer: one upserted row per document key
//
// Every writer keeps only the latest snapshot; nothing here appends history.
package writer
