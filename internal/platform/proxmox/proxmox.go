// Package proxmox drives LXC containers on a Proxmox VE node.
//
// All operations go through pct/pvesh on the node itself over SSH; the
// node's REST API is deliberately not used so the tool needs nothing but
// the same SSH key the operator already has.
package proxmox

import (
	"context"
	"fmt"
	"strings"
)

// Runner executes a command on the hypervisor node.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// Error wraps a failed hypervisor operation with the container it
// concerned, for per-entry failure reporting.
type Error struct {
	Op  string
	ID  int
	Err error
}

func (e *Error) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("proxmox %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("proxmox %s (ct %d): %v", e.Op, e.ID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client provisions containers on one Proxmox node.
type Client struct {
	run Runner
}

// NewClient returns a client that issues pct commands through run.
func NewClient(run Runner) *Client {
	return &Client{run: run}
}

// EnsurePool makes sure the resource pool exists, creating it when the
// lookup fails. Pool membership is what lets a whole class be found and
// torn down later.
func (c *Client) EnsurePool(ctx context.Context, pool string) error {
	if _, err := c.run.Run(ctx, fmt.Sprintf("pvesh get /pools/%s --output-format json", pool)); err == nil {
		return nil
	}
	if _, err := c.run.Run(ctx, fmt.Sprintf("pvesh create /pools --poolid %s", pool)); err != nil {
		return &Error{Op: "ensure pool", Err: err}
	}
	return nil
}

// Clone creates container newID as a full clone of the template.
func (c *Client) Clone(ctx context.Context, templateID, newID int, hostname, pool string) error {
	cmd := fmt.Sprintf("pct clone %d %d --hostname %s --pool %s --full 1",
		templateID, newID, hostname, pool)
	if _, err := c.run.Run(ctx, cmd); err != nil {
		return &Error{Op: "clone", ID: newID, Err: err}
	}
	return nil
}

// Start boots the container.
func (c *Client) Start(ctx context.Context, id int) error {
	if _, err := c.run.Run(ctx, fmt.Sprintf("pct start %d", id)); err != nil {
		return &Error{Op: "start", ID: id, Err: err}
	}
	return nil
}

// ExecInGuest runs a shell command inside the container and returns its
// output.
func (c *Client) ExecInGuest(ctx context.Context, id int, command string) (string, error) {
	quoted := strings.ReplaceAll(command, `'`, `'\''`)
	out, err := c.run.Run(ctx, fmt.Sprintf("pct exec %d -- sh -c '%s'", id, quoted))
	if err != nil {
		return out, &Error{Op: "exec", ID: id, Err: err}
	}
	return out, nil
}

// Destroy stops the container if it is running and removes it.
// The stop error is ignored: a container that is already stopped (or was
// never started) should still be destroyable.
func (c *Client) Destroy(ctx context.Context, id int) error {
	_, _ = c.run.Run(ctx, fmt.Sprintf("pct stop %d", id))
	if _, err := c.run.Run(ctx, fmt.Sprintf("pct destroy %d", id)); err != nil {
		return &Error{Op: "destroy", ID: id, Err: err}
	}
	return nil
}
