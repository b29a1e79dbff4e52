package provisioning

import (
	"context"
	"fmt"

	"studenthost/internal/config"
	"studenthost/internal/naming"
	"studenthost/internal/platform/router"
	"studenthost/internal/roster"
)

// guestSSHPort is the sshd port inside every student container; the
// router maps the deterministic external port onto it.
const guestSSHPort = 22

// Options are the per-run parameters from the command line.
type Options struct {
	Pool    string
	StartID int
	DryRun  bool
}

// Deployer runs the two-pass provisioning pipeline over a roster.
// Entries are processed strictly sequentially; the only shared state
// across entries is the instance id sequence, fixed up front.
type Deployer struct {
	cfg      *config.Config
	timeouts *config.Timeouts
	collab   Collaborators
	opts     Options
	log      Logger
	results  *ResultLog
}

// NewDeployer wires a pipeline. results may be nil, in which case no
// result lines are written (dry runs do this).
func NewDeployer(cfg *config.Config, timeouts *config.Timeouts, collab Collaborators, opts Options, logger Logger, results *ResultLog) *Deployer {
	return &Deployer{
		cfg:      cfg,
		timeouts: timeouts,
		collab:   collab,
		opts:     opts,
		log:      logger,
		results:  results,
	}
}

// Run drives every roster entry through the pipeline and returns the
// per-entry records. The returned error is batch-fatal only: bad roster
// identities or pool creation failure, detected before any entry is
// touched. Per-entry failures are recorded on the entry and logged, and
// never stop the batch.
func (d *Deployer) Run(ctx context.Context, entries []roster.Entry) ([]*Host, error) {
	hosts, err := d.buildHosts(entries)
	if err != nil {
		return nil, err
	}

	err = d.step(fmt.Sprintf("ensure resource pool %s", d.opts.Pool), func() error {
		return d.collab.Instances.EnsurePool(ctx, d.opts.Pool)
	})
	if err != nil {
		return nil, fmt.Errorf("resource pool %s: %w", d.opts.Pool, err)
	}

	d.log.Printf("[deploy] processing %d entries (pool=%s ids=%d-%d dry-run=%v)",
		len(hosts), d.opts.Pool, d.opts.StartID, d.opts.StartID+len(hosts)-1, d.opts.DryRun)

	for _, h := range hosts {
		d.provisionEntry(ctx, h)
	}

	d.log.Printf("[cert] starting certificate pass")
	for _, h := range hosts {
		d.issueCertificate(ctx, h)
	}

	d.logSummary(hosts)
	return hosts, nil
}

// buildHosts derives every entry's identity up front. Deriving slugs
// before the loop makes duplicate detection possible while nothing has
// been mutated yet, and fixes the id sequence in roster order.
func (d *Deployer) buildHosts(entries []roster.Entry) ([]*Host, error) {
	hosts := make([]*Host, 0, len(entries))
	owners := make(map[string]string, len(entries))

	for i, entry := range entries {
		slug, err := naming.Slug(entry.Class, entry.FirstName, entry.LastName, entry.Alias)
		if err != nil {
			return nil, fmt.Errorf("roster row %d: %w", i+1, err)
		}
		if owner, dup := owners[slug]; dup {
			return nil, fmt.Errorf("duplicate slug %q for %s and %s; set a distinguishing alias",
				slug, owner, entry.DisplayName())
		}
		owners[slug] = entry.DisplayName()

		hosts = append(hosts, newHost(entry, slug, naming.PublicName(slug, d.cfg.DomainSuffix), d.opts.StartID+i))
	}
	return hosts, nil
}

// step executes fn, or in dry-run mode logs the intent instead. Every
// mutating call in the pipeline goes through here, which is what makes
// a dry run touch nothing while still exercising each stage's logic.
func (d *Deployer) step(intent string, fn func() error) error {
	if d.opts.DryRun {
		d.log.Printf("[dry-run] would %s", intent)
		return nil
	}
	return fn()
}

// provisionEntry is the first pass for one entry. A stage failure marks
// the entry and halts its remaining stages; the caller moves on to the
// next entry either way.
func (d *Deployer) provisionEntry(ctx context.Context, h *Host) {
	tag := fmt.Sprintf("%s ct=%d", h.Slug, h.InstanceID)

	err := d.step(fmt.Sprintf("clone template %d to ct %d (hostname=%s pool=%s)",
		d.cfg.TemplateID, h.InstanceID, h.Slug, d.opts.Pool), func() error {
		return d.collab.Instances.Clone(ctx, d.cfg.TemplateID, h.InstanceID, h.Slug, d.opts.Pool)
	})
	if err == nil {
		err = d.step(fmt.Sprintf("start ct %d", h.InstanceID), func() error {
			return d.collab.Instances.Start(ctx, h.InstanceID)
		})
	}
	if err != nil {
		h.failed(StageProvisioned)
		d.log.Printf("[provision] %s failed: %v", tag, err)
		return
	}
	h.done(StageProvisioned)

	if d.opts.DryRun {
		d.log.Printf("[dry-run] would poll ct %d for an IPv4 address (%d attempts, %v apart)",
			h.InstanceID, d.timeouts.NetworkAttempts, d.timeouts.NetworkInterval)
		h.done(StageNetworkReady)
	} else {
		if err := d.waitForNetwork(ctx, h); err != nil {
			h.failed(StageNetworkReady)
			d.log.Printf("[network] %s stage=%s address=%s hw=%s: %v; skipping router/dns/proxy",
				tag, StageNetworkReady, h.AddressOrPending(), h.HardwareIDOrPending(), err)
			return
		}
		port, err := router.ExternalSSHPort(h.Address)
		if err != nil {
			h.failed(StageNetworkReady)
			d.log.Printf("[network] %s unusable address %s: %v", tag, h.Address, err)
			return
		}
		h.SSHPort = port
		h.done(StageNetworkReady)
		d.log.Printf("[network] %s address=%s hw=%s ssh_port=%d", tag, h.Address, h.HardwareID, h.SSHPort)

		if d.results != nil {
			if err := d.results.Record(h, d.cfg.ServicePort); err != nil {
				d.log.Printf("[deploy] %s result line not written: %v", tag, err)
			}
		}
	}

	comment := fmt.Sprintf("studenthost %s", h.Slug)
	leaseErr := d.step(fmt.Sprintf("reserve %s for %s on dhcp server %s",
		h.AddressOrPending(), h.HardwareIDOrPending(), d.cfg.DHCPServer), func() error {
		return d.collab.Router.AddStaticLease(ctx, h.Address, h.HardwareID, comment)
	})
	// The port forward is attempted even when the lease failed; the two
	// bindings are independent and neither is rolled back.
	forwardErr := d.step(fmt.Sprintf("forward tcp %s to %s:%d",
		h.SSHPortOrPending(), h.AddressOrPending(), guestSSHPort), func() error {
		return d.collab.Router.AddPortForward(ctx, h.SSHPort, guestSSHPort, h.Address, comment+" ssh")
	})
	if leaseErr != nil || forwardErr != nil {
		h.failed(StageRouterPublished)
		d.log.Printf("[router] %s stage=%s address=%s lease_err=%v forward_err=%v",
			tag, StageRouterPublished, h.AddressOrPending(), leaseErr, forwardErr)
		return
	}
	h.done(StageRouterPublished)

	err = d.step(fmt.Sprintf("register subdomain %s under %s", h.Slug, d.cfg.DomainSuffix), func() error {
		return d.collab.DNS.RegisterSubdomain(ctx, h.Slug)
	})
	if err != nil {
		h.failed(StageDNSPublished)
		d.log.Printf("[dns] %s stage=%s address=%s: %v", tag, StageDNSPublished, h.AddressOrPending(), err)
		return
	}
	h.done(StageDNSPublished)

	err = d.step(fmt.Sprintf("publish proxy rule %s -> %s:%d and reload",
		h.PublicName, h.AddressOrPending(), d.cfg.ServicePort), func() error {
		ruleID, err := d.collab.Proxy.WriteRoutingRule(ctx, h.PublicName, h.Address, d.cfg.ServicePort)
		if err != nil {
			return err
		}
		h.ProxyRuleID = ruleID
		if err := d.collab.Proxy.Enable(ctx, ruleID); err != nil {
			return err
		}
		return d.collab.Proxy.Reload(ctx)
	})
	if err != nil {
		h.failed(StageProxyPublished)
		d.log.Printf("[proxy] %s stage=%s address=%s: %v", tag, StageProxyPublished, h.AddressOrPending(), err)
		return
	}
	h.done(StageProxyPublished)
	d.log.Printf("[deploy] %s published at http://%s", tag, h.PublicName)
}

// issueCertificate is the second pass for one entry. It runs only after
// every entry's first pass completed, so registrar propagation for the
// whole batch overlaps instead of serializing per entry.
func (d *Deployer) issueCertificate(ctx context.Context, h *Host) {
	if !h.Done(StageProxyPublished) {
		d.log.Printf("[cert] %s skipped: proxy stage not completed", h.Slug)
		return
	}

	err := d.step(fmt.Sprintf("wait for %s to resolve and issue its certificate", h.PublicName), func() error {
		if !d.collab.Certs.WaitForDNS(ctx, h.PublicName) {
			d.log.Printf("[cert] %s did not resolve within %v; requesting certificate anyway",
				h.PublicName, d.timeouts.DNSTimeout)
		}
		return d.collab.Certs.Issue(ctx, h.PublicName, d.cfg.AdminEmail)
	})
	if err != nil {
		h.failed(StageCertIssued)
		d.log.Printf("[cert] %s ct=%d stage=%s: %v", h.Slug, h.InstanceID, StageCertIssued, err)
		return
	}
	h.done(StageCertIssued)
}

func (d *Deployer) logSummary(hosts []*Host) {
	var published, certified, networkFailed int
	for _, h := range hosts {
		if h.Done(StageProxyPublished) {
			published++
		}
		if h.Done(StageCertIssued) {
			certified++
		}
		if h.Stages[StageNetworkReady] == StatusFailed {
			networkFailed++
		}
	}
	d.log.Printf("[deploy] finished: %d entries, %d published, %d certificates, %d without network",
		len(hosts), published, certified, networkFailed)
}
