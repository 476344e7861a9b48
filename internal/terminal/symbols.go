package terminal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrSymbolNotFound is returned when the terminal does not know the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrSelectFailed is returned when the terminal refuses to change symbol visibility.
	ErrSelectFailed = errors.New("symbol select failed")

	// ErrTickUnavailable is returned when the terminal has no tick for the symbol.
	ErrTickUnavailable = errors.New("tick unavailable")
)

func symbolPath(symbol string) string {
	return "/symbols/" + url.PathEscape(symbol)
}

// SymbolInfo fetches metadata for a symbol.
func (c *Client) SymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error) {
	var resp symbolResponse
	if err := c.get(ctx, symbolPath(symbol), &resp); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("symbol info %s: %w", symbol, ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("symbol info %s: %w", symbol, err)
	}
	if resp.Symbol == nil {
		return nil, fmt.Errorf("symbol info %s: %w", symbol, ErrSymbolNotFound)
	}
	return resp.Symbol, nil
}

// SelectSymbol shows (enable=true) or hides a symbol in Market Watch.
func (c *Client) SelectSymbol(ctx context.Context, symbol string, enable bool) error {
	var resp selectResponse
	if err := c.post(ctx, symbolPath(symbol)+"/select", selectRequest{Enable: enable}, &resp); err != nil {
		return fmt.Errorf("select %s: %w", symbol, err)
	}
	if !resp.Selected {
		return fmt.Errorf("select %s: %w", symbol, ErrSelectFailed)
	}
	return nil
}

// SymbolTick fetches the last tick for a symbol.
func (c *Client) SymbolTick(ctx context.Context, symbol string) (*Tick, error) {
	var resp tickResponse
	if err := c.get(ctx, symbolPath(symbol)+"/tick", &resp); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("tick %s: %w", symbol, ErrTickUnavailable)
		}
		return nil, fmt.Errorf("tick %s: %w", symbol, err)
	}
	if resp.Tick == nil || (resp.Tick.Time == 0 && resp.Tick.TimeMsc == 0) {
		return nil, fmt.Errorf("tick %s: %w", symbol, ErrTickUnavailable)
	}
	return resp.Tick, nil
}
