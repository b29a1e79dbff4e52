// Package certbot issues TLS certificates for student subdomains.
//
// Issuance runs certbot on the reverse-proxy host, where the nginx rules
// already answer for each subdomain. Because the registrar propagates
// records with unpredictable latency, WaitForDNS polls resolvability
// first; issuance is attempted exactly once per name and any retrying
// beyond that is left to certbot's own client.
package certbot

import (
	"context"
	"fmt"
	"net"
	"time"

	"studenthost/internal/util/retry"
)

// Runner executes a command on the proxy host.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// Resolver reports whether a name currently resolves.
type Resolver interface {
	Resolve(ctx context.Context, host string) bool
}

// NetResolver resolves through the local stub resolver.
type NetResolver struct{}

// Resolve implements Resolver.
func (NetResolver) Resolve(ctx context.Context, host string) bool {
	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	return err == nil && len(addrs) > 0
}

// Error wraps a failed certificate operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("certbot %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

const defaultInterval = 2 * time.Second

// Issuer waits for propagation and requests certificates.
type Issuer struct {
	run      Runner
	resolver Resolver
	interval time.Duration
	timeout  time.Duration
}

// NewIssuer returns an issuer that checks resolvability every interval
// up to a total timeout before giving the go-ahead. A non-positive
// interval falls back to the default so the attempt budget stays
// well defined.
func NewIssuer(run Runner, resolver Resolver, interval, timeout time.Duration) *Issuer {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Issuer{run: run, resolver: resolver, interval: interval, timeout: timeout}
}

// WaitForDNS polls until name resolves or the timeout budget is spent.
// It reports whether the name resolved; callers proceed to issuance
// either way, since a stale false negative here is cheaper than a
// skipped certificate.
func (i *Issuer) WaitForDNS(ctx context.Context, name string) bool {
	attempts := int(i.timeout / i.interval)
	if attempts < 1 {
		attempts = 1
	}

	err := retry.Poll(ctx, attempts, i.interval, func() error {
		if i.resolver.Resolve(ctx, name) {
			return nil
		}
		return fmt.Errorf("%s does not resolve yet", name)
	})
	return err == nil
}

// Issue requests and installs a certificate for name on the proxy host.
func (i *Issuer) Issue(ctx context.Context, name, adminEmail string) error {
	cmd := fmt.Sprintf("certbot --nginx -n --agree-tos --redirect -m %s -d %s", adminEmail, name)
	if _, err := i.run.Run(ctx, cmd); err != nil {
		return &Error{Op: fmt.Sprintf("issue %s", name), Err: err}
	}
	return nil
}
