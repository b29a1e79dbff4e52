// Package config loads and validates the deployment configuration.
//
// All credentials and tunables come from a key-value environment file
// loaded once before the batch starts. The resulting Config is immutable
// for the run and threaded explicitly into every collaborator
// constructor; nothing reads the environment mid-pipeline.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// RemoteHost describes one SSH-reachable collaborator host.
type RemoteHost struct {
	Host    string
	User    string
	KeyFile string
}

// Registrar holds the XML-RPC DNS registrar endpoint and credentials.
type Registrar struct {
	URI      string
	User     string
	Password string
}

// Config is the immutable per-run configuration.
type Config struct {
	Hypervisor RemoteHost
	Router     RemoteHost
	Proxy      RemoteHost
	DNS        Registrar

	// SchoolIP is the public IPv4 all student subdomains resolve to;
	// the router and reverse proxy fan traffic out from there.
	SchoolIP string

	DomainSuffix string
	ServicePort  int
	TemplateID   int
	AdminEmail   string
	DHCPServer   string
}

// Validate reports every missing required key at once so the operator
// can fix the environment file in a single pass.
func (c *Config) Validate() error {
	var missing []string

	check := func(key, value string) {
		if value == "" {
			missing = append(missing, key)
		}
	}

	check("PVE_HOST", c.Hypervisor.Host)
	check("PVE_USER", c.Hypervisor.User)
	check("PVE_KEY_FILE", c.Hypervisor.KeyFile)
	check("ROUTER_HOST", c.Router.Host)
	check("ROUTER_USER", c.Router.User)
	check("ROUTER_KEY_FILE", c.Router.KeyFile)
	check("PROXY_HOST", c.Proxy.Host)
	check("PROXY_USER", c.Proxy.User)
	check("PROXY_KEY_FILE", c.Proxy.KeyFile)
	check("DNS_API_URI", c.DNS.URI)
	check("DNS_API_USER", c.DNS.User)
	check("DNS_API_PASS", c.DNS.Password)
	check("SCHOOL_IP_ADDRESS", c.SchoolIP)
	check("DOMAIN_SUFFIX", c.DomainSuffix)
	check("ADMIN_EMAIL", c.AdminEmail)
	check("DHCP_SERVER", c.DHCPServer)

	if c.ServicePort <= 0 {
		missing = append(missing, "STUDENT_SERVICE_PORT")
	}
	if c.TemplateID <= 0 {
		missing = append(missing, "PVE_TEMPLATE_ID")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing or invalid configuration keys: %s", strings.Join(missing, ", "))
	}
	return nil
}

func parsePort(key, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("%s must be a port number, got %q", key, value)
	}
	return port, nil
}
