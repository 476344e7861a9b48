// Package terminal provides the client for the trading terminal's HTTP gateway.
//
// The gateway runs next to the terminal and exposes its session over JSON:
//
//	POST /initialize                 open (or attach to) the terminal session
//	GET  /symbols/{symbol}           symbol metadata (visibility, spread in points)
//	POST /symbols/{symbol}/select    show/hide the symbol in Market Watch
//	GET  /symbols/{symbol}/tick      last tick (bid, ask, time)
//	POST /shutdown                   close the session
//
// Reads are retried on 5xx/429 with jittered exponential backoff. Writes are not.
package terminal
