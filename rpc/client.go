package rpc

import (
	"context"
	"fmt"
	"io"

	"github.com/sfsam/nvgrid/wire"
)

// Client speaks the editor's API over an Endpoint. UI events arrive
// through the notify handler passed at construction; Client only
// covers the calls this process initiates.
type Client struct {
	*Endpoint
}

// NewClient wraps rw in an endpoint routing notifications to notify.
func NewClient(rw io.ReadWriteCloser, notify NotifyFunc) *Client {
	return &Client{Endpoint: NewEndpoint(rw, notify)}
}

// AttachUI requests redraw notifications for a width x height grid.
// The line-grid protocol extension is mandatory; without it the editor
// falls back to a character-stream UI this client does not implement.
func (c *Client) AttachUI(ctx context.Context, width, height int) error {
	opts := map[string]any{
		"rgb":          true,
		"ext_linegrid": true,
	}
	if _, err := c.Call(ctx, "nvim_ui_attach", width, height, opts); err != nil {
		return fmt.Errorf("rpc: ui attach: %w", err)
	}
	return nil
}

// DetachUI stops redraw notifications.
func (c *Client) DetachUI(ctx context.Context) error {
	_, err := c.Call(ctx, "nvim_ui_detach")
	return err
}

// Input queues keys in the editor's raw input syntax. Sent as a
// notification; the editor applies input asynchronously either way and
// a response would only add latency to every keystroke.
func (c *Client) Input(keys string) error {
	return c.Notify("nvim_input", keys)
}

// TryResize asks the editor to adopt a new grid size. The editor
// answers with a grid_resize event when it complies.
func (c *Client) TryResize(width, height int) error {
	return c.Notify("nvim_ui_try_resize", width, height)
}

// Command executes an ex command and waits for completion.
func (c *Client) Command(ctx context.Context, cmd string) error {
	_, err := c.Call(ctx, "nvim_command", cmd)
	return err
}

// Eval evaluates an expression in the editor.
func (c *Client) Eval(ctx context.Context, expr string) (wire.Value, error) {
	return c.Call(ctx, "nvim_eval", expr)
}

// Quit asks the editor to exit, discarding unsaved changes. Sent as a
// notification: the editor tears the connection down while exiting, so
// a response may never arrive.
func (c *Client) Quit() error {
	return c.Notify("nvim_command", "qa!")
}
