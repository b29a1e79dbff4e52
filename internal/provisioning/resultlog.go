package provisioning

import (
	"fmt"
	"io"
	"time"
)

// guestSSHUser is the login students use on their containers; the
// template container is built with this account.
const guestSSHUser = "student"

// ResultLog appends one structured line per network-ready entry to an
// audit writer. The line carries everything a student (or the operator
// doing manual remediation) needs to reach the host.
type ResultLog struct {
	w   io.Writer
	now func() time.Time
}

// NewResultLog returns a result log writing to w.
func NewResultLog(w io.Writer) *ResultLog {
	return &ResultLog{w: w, now: time.Now}
}

// Record appends the result line for h.
func (r *ResultLog) Record(h *Host, servicePort int) error {
	line := fmt.Sprintf("%s class=%s student=%q slug=%s domain=%s id=%d address=%s service_port=%d ssh_port=%s ssh=%q\n",
		r.now().UTC().Format(time.RFC3339),
		h.Entry.Class,
		h.Entry.DisplayName(),
		h.Slug,
		h.PublicName,
		h.InstanceID,
		h.AddressOrPending(),
		servicePort,
		h.SSHPortOrPending(),
		fmt.Sprintf("ssh -p %s %s@%s", h.SSHPortOrPending(), guestSSHUser, h.PublicName),
	)
	if _, err := io.WriteString(r.w, line); err != nil {
		return fmt.Errorf("failed to append result line for %s: %w", h.Slug, err)
	}
	return nil
}
