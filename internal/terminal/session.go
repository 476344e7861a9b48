package terminal

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConnected is returned when the gateway answers but the terminal has no session.
var ErrNotConnected = errors.New("terminal not connected")

// Initialize opens the terminal session with the account set by WithAccount.
func (c *Client) Initialize(ctx context.Context) error {
	var resp InitializeResponse
	if err := c.post(ctx, "/initialize", c.account, &resp); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if !resp.Connected {
		if resp.Error != "" {
			return fmt.Errorf("initialize: %w: %s", ErrNotConnected, resp.Error)
		}
		return fmt.Errorf("initialize: %w", ErrNotConnected)
	}

	c.info = resp.Terminal
	c.logger.Debug("terminal session opened",
		"terminal", resp.Terminal.Name,
		"company", resp.Terminal.Company,
		"build", resp.Terminal.Build,
		"server", resp.Terminal.Server,
	)
	return nil
}

// Info returns the terminal reported by the last successful Initialize.
func (c *Client) Info() TerminalInfo {
	return c.info
}

// Shutdown closes the terminal session.
func (c *Client) Shutdown(ctx context.Context) error {
	if err := c.post(ctx, "/shutdown", nil, nil); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
