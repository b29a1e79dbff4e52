package provisioning

import (
	"strconv"

	"studenthost/internal/roster"
)

// Stage identifies one step of the per-entry state machine. Stages are
// strictly forward-only: no stage ever revisits an earlier one within a
// run.
type Stage int

const (
	StageCreated Stage = iota
	StageProvisioned
	StageNetworkReady
	StageRouterPublished
	StageDNSPublished
	StageProxyPublished
	StageCertIssued
)

func (s Stage) String() string {
	switch s {
	case StageCreated:
		return "created"
	case StageProvisioned:
		return "provisioned"
	case StageNetworkReady:
		return "network-ready"
	case StageRouterPublished:
		return "router-published"
	case StageDNSPublished:
		return "dns-published"
	case StageProxyPublished:
		return "proxy-published"
	case StageCertIssued:
		return "cert-issued"
	default:
		return "unknown"
	}
}

// StageStatus is the outcome of one stage for one entry.
type StageStatus int

const (
	StatusPending StageStatus = iota
	StatusDone
	StatusFailed
)

// Pending is the placeholder recorded for values a dry run fabricates
// and a network-failed entry never acquires.
const Pending = "<pending>"

// Host is the working record for one roster entry, built up stage by
// stage. It lives only for the duration of the run; the external
// systems are the durable state.
type Host struct {
	Entry      roster.Entry
	Slug       string
	PublicName string
	InstanceID int

	// Set by the network readiness stage; empty until then.
	Address    string
	HardwareID string
	SSHPort    int

	ProxyRuleID string

	Stages map[Stage]StageStatus
}

func newHost(entry roster.Entry, slug, publicName string, instanceID int) *Host {
	return &Host{
		Entry:      entry,
		Slug:       slug,
		PublicName: publicName,
		InstanceID: instanceID,
		Stages:     make(map[Stage]StageStatus),
	}
}

func (h *Host) done(stage Stage)   { h.Stages[stage] = StatusDone }
func (h *Host) failed(stage Stage) { h.Stages[stage] = StatusFailed }

// Done reports whether stage completed successfully for this entry.
func (h *Host) Done(stage Stage) bool { return h.Stages[stage] == StatusDone }

// AddressOrPending renders the address for logs.
func (h *Host) AddressOrPending() string {
	if h.Address == "" {
		return Pending
	}
	return h.Address
}

// HardwareIDOrPending renders the hardware identifier for logs.
func (h *Host) HardwareIDOrPending() string {
	if h.HardwareID == "" {
		return Pending
	}
	return h.HardwareID
}

// SSHPortOrPending renders the external SSH port for logs.
func (h *Host) SSHPortOrPending() string {
	if h.SSHPort == 0 {
		return Pending
	}
	return strconv.Itoa(h.SSHPort)
}
