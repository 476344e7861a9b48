package terminal

import "time"

// InitializeRequest is the body of POST /initialize. Zero fields attach to the
// account the terminal is already logged into.
type InitializeRequest struct {
	Login    int64  `json:"login,omitempty"`
	Password string `json:"password,omitempty"`
	Server   string `json:"server,omitempty"`
}

// InitializeResponse from POST /initialize.
type InitializeResponse struct {
	Connected bool         `json:"connected"`
	Terminal  TerminalInfo `json:"terminal"`
	Error     string       `json:"error,omitempty"`
}

// TerminalInfo describes the attached terminal.
type TerminalInfo struct {
	Company string `json:"company"`
	Name    string `json:"name"`
	Build   int    `json:"build"`
	Server  string `json:"server"`
}

// SymbolInfo is the symbol metadata subset the bridge needs.
type SymbolInfo struct {
	Name    string  `json:"name"`
	Visible bool    `json:"visible"`
	Spread  int64   `json:"spread"` // current spread in points
	Digits  int     `json:"digits"`
	Point   float64 `json:"point"`
}

// symbolResponse from GET /symbols/{symbol}
type symbolResponse struct {
	Symbol *SymbolInfo `json:"symbol"`
}

// selectRequest is the body of POST /symbols/{symbol}/select.
type selectRequest struct {
	Enable bool `json:"enable"`
}

// selectResponse from POST /symbols/{symbol}/select
type selectResponse struct {
	Selected bool `json:"selected"`
}

// Tick is the last quote for a symbol.
type Tick struct {
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	Last    float64 `json:"last"`
	Time    int64   `json:"time"`     // seconds since epoch, broker clock
	TimeMsc int64   `json:"time_msc"` // milliseconds since epoch, broker clock
}

// Timestamp returns the tick time, preferring millisecond precision.
func (t Tick) Timestamp() time.Time {
	if t.TimeMsc > 0 {
		return time.UnixMilli(t.TimeMsc)
	}
	return time.Unix(t.Time, 0)
}

// tickResponse from GET /symbols/{symbol}/tick
type tickResponse struct {
	Tick *Tick `json:"tick"`
}
