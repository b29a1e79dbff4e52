// Package proxy publishes per-host routing rules on the nginx host that
// fronts all student containers.
//
// Each rule is written as its own server block under sites-available
// with a timestamp-qualified name, so a re-deploy of the same slug never
// collides with the artifact of a previous run. Enabling a rule is a
// symlink into sites-enabled; a reload applies the whole configuration
// set at once, so either every enabled rule takes effect or none does.
package proxy

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Runner executes a command on the proxy host.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// Error wraps a failed proxy operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("proxy %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

const (
	sitesAvailable = "/etc/nginx/sites-available"
	sitesEnabled   = "/etc/nginx/sites-enabled"
)

var serverBlock = template.Must(template.New("server").Parse(`server {
    listen 80;
    server_name {{.ServerName}};

    location / {
        proxy_pass http://{{.UpstreamAddr}}:{{.UpstreamPort}};
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
    }
}
`))

// Client manages routing rules on one nginx host.
type Client struct {
	run Runner
	now func() time.Time
}

// NewClient returns a client for the proxy host reached through run.
func NewClient(run Runner) *Client {
	return &Client{run: run, now: time.Now}
}

// WriteRoutingRule renders a server block forwarding serverName to
// upstreamAddr:upstreamPort and writes it under sites-available.
// It returns the rule identifier used by Enable.
func (c *Client) WriteRoutingRule(ctx context.Context, serverName, upstreamAddr string, upstreamPort int) (string, error) {
	var rendered strings.Builder
	err := serverBlock.Execute(&rendered, struct {
		ServerName   string
		UpstreamAddr string
		UpstreamPort int
	}{serverName, upstreamAddr, upstreamPort})
	if err != nil {
		return "", &Error{Op: "render rule", Err: err}
	}

	ruleID := fmt.Sprintf("%s-%s.conf", serverName, c.now().UTC().Format("20060102T150405"))
	cmd := fmt.Sprintf("cat > %s/%s <<'NGINXEOF'\n%sNGINXEOF", sitesAvailable, ruleID, rendered.String())
	if _, err := c.run.Run(ctx, cmd); err != nil {
		return "", &Error{Op: fmt.Sprintf("write rule %s", ruleID), Err: err}
	}
	return ruleID, nil
}

// Enable activates a previously written rule.
func (c *Client) Enable(ctx context.Context, ruleID string) error {
	cmd := fmt.Sprintf("ln -sf %s/%s %s/%s", sitesAvailable, ruleID, sitesEnabled, ruleID)
	if _, err := c.run.Run(ctx, cmd); err != nil {
		return &Error{Op: fmt.Sprintf("enable rule %s", ruleID), Err: err}
	}
	return nil
}

// Reload validates the configuration set and reloads nginx. The reload
// is all-or-nothing from nginx's perspective: a broken rule fails the
// test and the running configuration stays untouched.
func (c *Client) Reload(ctx context.Context) error {
	if _, err := c.run.Run(ctx, "nginx -t && systemctl reload nginx"); err != nil {
		return &Error{Op: "reload", Err: err}
	}
	return nil
}
