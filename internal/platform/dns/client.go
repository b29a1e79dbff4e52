// Package dns registers student subdomains with the domain registrar.
//
// The registrar exposes an XML-RPC API. Registration is two calls: the
// subdomain itself, then an A record pointing it at the school's public
// address (traffic reaches the individual container through the reverse
// proxy, never directly). The registrar applies changes asynchronously
// server-side, so callers must not assume the name resolves when
// RegisterSubdomain returns; the certificate pass polls for that.
package dns

import (
	"context"
	"fmt"
	"time"

	"github.com/kolo/xmlrpc"
)

const (
	recordTTL      = 3600
	recordPriority = 1
	recordID       = 10

	// settleDelay gives the registrar time to materialize the subdomain
	// before the zone record referencing it is added.
	settleDelay = 1 * time.Second
)

// Error wraps a failed registrar call.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("dns %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// zoneRecord mirrors the registrar's record struct.
type zoneRecord struct {
	Type     string `xmlrpc:"type"`
	TTL      int    `xmlrpc:"ttl"`
	Priority int    `xmlrpc:"priority"`
	Rdata    string `xmlrpc:"rdata"`
	RecordID int    `xmlrpc:"record_id"`
}

// Client talks to the registrar's XML-RPC endpoint.
type Client struct {
	rpc      *xmlrpc.Client
	user     string
	password string
	domain   string
	schoolIP string
	settle   time.Duration
}

// NewClient returns a registrar client for the zone named by domain.
// Every subdomain's A record will point at schoolIP.
func NewClient(uri, user, password, domain, schoolIP string) (*Client, error) {
	rpc, err := xmlrpc.NewClient(uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create XML-RPC client for %s: %w", uri, err)
	}
	return &Client{
		rpc:      rpc,
		user:     user,
		password: password,
		domain:   domain,
		schoolIP: schoolIP,
		settle:   settleDelay,
	}, nil
}

// RegisterSubdomain creates label under the zone and adds its A record.
// The underlying transport does not take a context, so cancellation is
// only observed between the two calls.
func (c *Client) RegisterSubdomain(ctx context.Context, label string) error {
	var status string
	if err := c.rpc.Call("addSubdomain", []interface{}{c.user, c.password, c.domain, label}, &status); err != nil {
		return &Error{Op: fmt.Sprintf("addSubdomain %s", label), Err: err}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.settle):
	}

	record := zoneRecord{
		Type:     "A",
		TTL:      recordTTL,
		Priority: recordPriority,
		Rdata:    c.schoolIP,
		RecordID: recordID,
	}
	if err := c.rpc.Call("addZoneRecord", []interface{}{c.user, c.password, c.domain, label, record}, &status); err != nil {
		return &Error{Op: fmt.Sprintf("addZoneRecord %s", label), Err: err}
	}
	return nil
}
