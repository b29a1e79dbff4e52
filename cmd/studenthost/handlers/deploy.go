// Package handlers implements the business logic for CLI commands.
//
// Handlers are framework-agnostic and can be tested independently of
// the CLI framework. External construction goes through factory
// variables that tests replace.
package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"studenthost/internal/config"
	"studenthost/internal/platform/certbot"
	"studenthost/internal/platform/dns"
	"studenthost/internal/platform/proxmox"
	"studenthost/internal/platform/proxy"
	"studenthost/internal/platform/router"
	"studenthost/internal/platform/ssh"
	"studenthost/internal/provisioning"
	"studenthost/internal/roster"
)

const (
	deployLogFile = "deploy.log"
	resultLogFile = "results.log"
)

// DeployOptions carries the deploy command's flags.
type DeployOptions struct {
	Pool       string
	StartID    int
	DryRun     bool
	RosterPath string
	EnvFile    string
}

// pipelineRunner interface for testing - matches provisioning.Deployer.
type pipelineRunner interface {
	Run(ctx context.Context, entries []roster.Entry) ([]*provisioning.Host, error)
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	loadConfig   = config.Load
	loadTimeouts = config.LoadTimeouts
	loadRoster   = roster.Load

	newPipeline = func(cfg *config.Config, timeouts *config.Timeouts, collab provisioning.Collaborators,
		opts provisioning.Options, logger provisioning.Logger, results *provisioning.ResultLog) pipelineRunner {
		return provisioning.NewDeployer(cfg, timeouts, collab, opts, logger, results)
	}
)

// Deploy provisions one host per roster entry.
//
// The sequence is:
//  1. Load and validate configuration and roster; any problem here is
//     fatal before anything is provisioned.
//  2. Open the audit logs: every console line is duplicated into the
//     deploy log, and network-ready entries get a result line.
//  3. Build the collaborator clients (skipped entirely in dry-run mode,
//     which never contacts any external system).
//  4. Run the two-pass pipeline.
func Deploy(ctx context.Context, opts DeployOptions) error {
	if opts.StartID < 100 {
		return fmt.Errorf("--start-id must be at least 100 to stay clear of reserved hypervisor ids, got %d", opts.StartID)
	}

	cfg, err := loadConfig(opts.EnvFile)
	if err != nil {
		return err
	}
	timeouts := loadTimeouts()

	entries, err := loadRoster(opts.RosterPath)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("roster %s has no entries", opts.RosterPath)
	}

	logFile, err := os.OpenFile(deployLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open deploy log: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logger := log.New(io.MultiWriter(os.Stdout, logFile), "", log.LstdFlags)

	var results *provisioning.ResultLog
	var collab provisioning.Collaborators
	if !opts.DryRun {
		resultFile, err := os.OpenFile(resultLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open result log: %w", err)
		}
		defer func() { _ = resultFile.Close() }()
		results = provisioning.NewResultLog(resultFile)

		collab, err = buildCollaborators(cfg, timeouts)
		if err != nil {
			return err
		}
	}

	pipeline := newPipeline(cfg, timeouts, collab, provisioning.Options{
		Pool:    opts.Pool,
		StartID: opts.StartID,
		DryRun:  opts.DryRun,
	}, logger, results)

	if _, err := pipeline.Run(ctx, entries); err != nil {
		return fmt.Errorf("deploy failed: %w", err)
	}
	return nil
}

// buildCollaborators wires the real external systems from configuration.
func buildCollaborators(cfg *config.Config, timeouts *config.Timeouts) (provisioning.Collaborators, error) {
	hypervisorSSH, err := ssh.NewClient(sshConfig(cfg.Hypervisor))
	if err != nil {
		return provisioning.Collaborators{}, fmt.Errorf("hypervisor: %w", err)
	}
	routerSSH, err := ssh.NewClient(sshConfig(cfg.Router))
	if err != nil {
		return provisioning.Collaborators{}, fmt.Errorf("router: %w", err)
	}
	proxySSH, err := ssh.NewClient(sshConfig(cfg.Proxy))
	if err != nil {
		return provisioning.Collaborators{}, fmt.Errorf("proxy: %w", err)
	}
	registrar, err := dns.NewClient(cfg.DNS.URI, cfg.DNS.User, cfg.DNS.Password, cfg.DomainSuffix, cfg.SchoolIP)
	if err != nil {
		return provisioning.Collaborators{}, fmt.Errorf("registrar: %w", err)
	}

	return provisioning.Collaborators{
		Instances: proxmox.NewClient(hypervisorSSH),
		Router:    router.NewClient(routerSSH, cfg.DHCPServer),
		DNS:       registrar,
		Proxy:     proxy.NewClient(proxySSH),
		Certs:     certbot.NewIssuer(proxySSH, certbot.NetResolver{}, timeouts.DNSInterval, timeouts.DNSTimeout),
	}, nil
}

func sshConfig(h config.RemoteHost) ssh.Config {
	return ssh.Config{Host: h.Host, User: h.User, KeyFile: h.KeyFile}
}
