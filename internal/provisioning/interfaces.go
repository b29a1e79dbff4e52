// Package provisioning drives roster entries through the deployment
// pipeline: container creation, network readiness, router, DNS and
// reverse-proxy publishing, then certificate issuance in a second pass.
//
// The five external systems are abstracted behind the interfaces below
// so the pipeline can be exercised in tests (and simulated in dry-run
// mode) without touching any of them.
package provisioning

import "context"

// InstanceProvisioner is the hypervisor contract.
type InstanceProvisioner interface {
	EnsurePool(ctx context.Context, pool string) error
	Clone(ctx context.Context, templateID, newID int, hostname, pool string) error
	Start(ctx context.Context, id int) error
	ExecInGuest(ctx context.Context, id int, command string) (string, error)
	Destroy(ctx context.Context, id int) error
}

// RouterPublisher is the network router contract.
type RouterPublisher interface {
	AddStaticLease(ctx context.Context, address, hardwareID, comment string) error
	AddPortForward(ctx context.Context, externalPort, internalPort int, targetAddress, comment string) error
}

// DNSPublisher is the registrar contract.
type DNSPublisher interface {
	RegisterSubdomain(ctx context.Context, label string) error
}

// ProxyPublisher is the reverse-proxy host contract.
type ProxyPublisher interface {
	WriteRoutingRule(ctx context.Context, serverName, upstreamAddr string, upstreamPort int) (string, error)
	Enable(ctx context.Context, ruleID string) error
	Reload(ctx context.Context) error
}

// CertIssuer is the certificate authority contract.
type CertIssuer interface {
	WaitForDNS(ctx context.Context, name string) bool
	Issue(ctx context.Context, name, adminEmail string) error
}

// Logger is the minimal logging surface the pipeline needs. The deploy
// handler wires it to a logger that duplicates every line into the
// audit file.
type Logger interface {
	Printf(format string, v ...any)
}

// Collaborators bundles the external system contracts for one run.
type Collaborators struct {
	Instances InstanceProvisioner
	Router    RouterPublisher
	DNS       DNSPublisher
	Proxy     ProxyPublisher
	Certs     CertIssuer
}
