// Package router publishes address and port bindings on the school's
// MikroTik router.
//
// Both operations are idempotent intents: an existing binding for the
// same key is left alone rather than duplicated, so re-running a deploy
// after a partial failure is safe. There is no rollback; a lease that
// was added before a later stage failed stays on the router for manual
// cleanup.
package router

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
)

// ExternalPortBase is the base for deterministic per-host external SSH
// ports. The final port is base + last address octet, which assumes a
// /24 (or smaller) student network behind a single router. That is a
// scaling constraint of the addressing scheme, not a defect: one class
// network never exceeds 254 hosts.
const ExternalPortBase = 62000

// Runner executes a command on the router.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// Error wraps a failed router operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("router %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// ExternalSSHPort returns the deterministic external port for address.
func ExternalSSHPort(address string) (int, error) {
	addr, err := netip.ParseAddr(address)
	if err != nil || !addr.Is4() {
		return 0, fmt.Errorf("expected an IPv4 address, got %q", address)
	}
	octets := addr.As4()
	return ExternalPortBase + int(octets[3]), nil
}

// Client publishes bindings on one RouterOS device.
type Client struct {
	run        Runner
	dhcpServer string
}

// NewClient returns a client for the router reached through run.
// dhcpServer names the DHCP server instance leases are attached to.
func NewClient(run Runner, dhcpServer string) *Client {
	return &Client{run: run, dhcpServer: dhcpServer}
}

// AddStaticLease pins hardwareID to address on the DHCP server. A lease
// already present for the hardware identifier is treated as done.
func (c *Client) AddStaticLease(ctx context.Context, address, hardwareID, comment string) error {
	mac := strings.ToUpper(hardwareID)

	exists, err := c.exists(ctx, fmt.Sprintf(`/ip dhcp-server lease find mac-address="%s"`, mac))
	if err != nil {
		return &Error{Op: "static lease lookup", Err: err}
	}
	if exists {
		return nil
	}

	cmd := fmt.Sprintf(`/ip dhcp-server lease add address=%s mac-address="%s" server=%s comment="%s"`,
		address, mac, c.dhcpServer, comment)
	if _, err := c.run.Run(ctx, cmd); err != nil {
		return &Error{Op: "static lease add", Err: err}
	}
	return nil
}

// AddPortForward maps TCP externalPort on the router to
// targetAddress:internalPort. An existing dst-nat rule for the external
// port is treated as done.
func (c *Client) AddPortForward(ctx context.Context, externalPort, internalPort int, targetAddress, comment string) error {
	exists, err := c.exists(ctx, fmt.Sprintf(`/ip firewall nat find chain=dstnat dst-port=%d protocol=tcp`, externalPort))
	if err != nil {
		return &Error{Op: "port forward lookup", Err: err}
	}
	if exists {
		return nil
	}

	cmd := fmt.Sprintf(`/ip firewall nat add chain=dstnat action=dst-nat protocol=tcp dst-port=%d to-addresses=%s to-ports=%d comment="%s"`,
		externalPort, targetAddress, internalPort, comment)
	if _, err := c.run.Run(ctx, cmd); err != nil {
		return &Error{Op: "port forward add", Err: err}
	}
	return nil
}

// exists runs a RouterOS find and reports whether it matched anything.
func (c *Client) exists(ctx context.Context, find string) (bool, error) {
	out, err := c.run.Run(ctx, fmt.Sprintf(`:put [:len [%s]]`, find))
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "0", nil
}
