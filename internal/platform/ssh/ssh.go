// Package ssh provides the remote command channel shared by the
// hypervisor, router, and reverse-proxy collaborators.
//
// Each Run call dials a fresh connection and tears it down afterwards.
// At batch scale (tens of entries, strictly sequential) connection reuse
// buys nothing and per-call connections keep the collaborators free of
// session state.
//
// Security: host key verification is disabled by default because the
// target hosts live on the school LAN. Set HostKeyCallback for anything
// reachable from outside it.
package ssh

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
)

// Config holds SSH client configuration.
type Config struct {
	Host    string
	Port    int
	User    string
	KeyFile string

	// DialTimeout is the timeout for establishing the TCP connection.
	// If zero, defaultDialTimeout is used.
	DialTimeout time.Duration

	// HostKeyCallback handles host key verification.
	// If nil, ssh.InsecureIgnoreHostKey() is used.
	HostKeyCallback ssh.HostKeyCallback
}

// Client executes commands on a remote host. The private key is read
// and parsed once during construction; connections are per-call.
type Client struct {
	config Config
	signer ssh.Signer
}

// NewClient validates cfg, loads the private key, and returns a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("ssh config host cannot be empty")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("ssh config user cannot be empty")
	}
	if cfg.KeyFile == "" {
		return nil, fmt.Errorf("ssh config key file cannot be empty")
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.HostKeyCallback == nil {
		cfg.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // LAN-only collaborator hosts
	}

	key, err := os.ReadFile(cfg.KeyFile) // #nosec G304 -- operator-supplied key path
	if err != nil {
		return nil, fmt.Errorf("failed to read private key %s: %w", cfg.KeyFile, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key %s: %w", cfg.KeyFile, err)
	}

	return &Client{config: cfg, signer: signer}, nil
}

// Run executes a command on the remote host over a fresh connection.
// Returns combined stdout+stderr and any execution error.
func (c *Client) Run(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clientConfig := &ssh.ClientConfig{
		User: c.config.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(c.signer),
		},
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}

	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create SSH session on %s: %w", c.config.Host, err)
	}
	defer func() { _ = session.Close() }()

	output, err := session.CombinedOutput(command)
	if err != nil {
		return string(output), fmt.Errorf("command failed on %s: %w\nCommand: %s\nOutput: %s",
			c.config.Host, err, command, string(output))
	}

	return string(output), nil
}
