package provisioning

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"studenthost/internal/util/retry"
)

// Guest probes. The guest has no push mechanism for "I have an
// address", so the pipeline actively polls the primary interface.
const (
	probeCommand    = "ip -4 -o addr show dev eth0"
	addressCommand  = "hostname -I"
	hardwareCommand = "cat /sys/class/net/eth0/address"
)

// waitForNetwork polls the guest until it reports an IPv4 address on
// its primary interface, then extracts the address and hardware
// identifier with one query each. The poll is bounded: an unreachable
// guest costs at most attempts*interval before the entry is marked
// network-failed and the batch moves on.
func (d *Deployer) waitForNetwork(ctx context.Context, h *Host) error {
	err := retry.Poll(ctx, d.timeouts.NetworkAttempts, d.timeouts.NetworkInterval, func() error {
		out, execErr := d.collab.Instances.ExecInGuest(ctx, h.InstanceID, probeCommand)
		if execErr != nil {
			return execErr
		}
		if _, ok := firstIPv4(out); !ok {
			return fmt.Errorf("no IPv4 address on eth0 yet")
		}
		return nil
	})
	if err != nil {
		return err
	}

	out, err := d.collab.Instances.ExecInGuest(ctx, h.InstanceID, addressCommand)
	if err != nil {
		return fmt.Errorf("address query failed: %w", err)
	}
	address, ok := firstIPv4(out)
	if !ok {
		return fmt.Errorf("address query returned no IPv4 address: %q", strings.TrimSpace(out))
	}

	out, err = d.collab.Instances.ExecInGuest(ctx, h.InstanceID, hardwareCommand)
	if err != nil {
		return fmt.Errorf("hardware identifier query failed: %w", err)
	}
	hardwareID := strings.ToLower(strings.TrimSpace(out))
	if _, err := net.ParseMAC(hardwareID); err != nil {
		return fmt.Errorf("invalid hardware identifier %q: %w", hardwareID, err)
	}

	h.Address = address
	h.HardwareID = hardwareID
	return nil
}

// firstIPv4 extracts the first IPv4 address from command output,
// accepting both bare addresses and CIDR-suffixed ones.
func firstIPv4(out string) (string, bool) {
	for _, field := range strings.Fields(out) {
		candidate, _, _ := strings.Cut(field, "/")
		addr, err := netip.ParseAddr(candidate)
		if err == nil && addr.Is4() {
			return addr.String(), true
		}
	}
	return "", false
}
