package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the environment file at path, overlays it with the process
// environment (process environment wins), and returns the validated
// configuration. A missing required key is fatal here, before any
// provisioning begins.
func Load(path string) (*Config, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file %s: %w", path, err)
	}

	get := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return env[key]
	}

	cfg := &Config{
		Hypervisor: RemoteHost{
			Host:    get("PVE_HOST"),
			User:    get("PVE_USER"),
			KeyFile: get("PVE_KEY_FILE"),
		},
		Router: RemoteHost{
			Host:    get("ROUTER_HOST"),
			User:    get("ROUTER_USER"),
			KeyFile: get("ROUTER_KEY_FILE"),
		},
		Proxy: RemoteHost{
			Host:    get("PROXY_HOST"),
			User:    get("PROXY_USER"),
			KeyFile: get("PROXY_KEY_FILE"),
		},
		DNS: Registrar{
			URI:      get("DNS_API_URI"),
			User:     get("DNS_API_USER"),
			Password: get("DNS_API_PASS"),
		},
		SchoolIP:     get("SCHOOL_IP_ADDRESS"),
		DomainSuffix: get("DOMAIN_SUFFIX"),
		AdminEmail:   get("ADMIN_EMAIL"),
		DHCPServer:   get("DHCP_SERVER"),
	}

	if cfg.ServicePort, err = parsePort("STUDENT_SERVICE_PORT", get("STUDENT_SERVICE_PORT")); err != nil {
		return nil, err
	}

	if raw := get("PVE_TEMPLATE_ID"); raw != "" {
		cfg.TemplateID, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("PVE_TEMPLATE_ID must be an integer, got %q", raw)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
