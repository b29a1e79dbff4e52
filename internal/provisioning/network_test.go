package provisioning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstIPv4(t *testing.T) {
	tests := []struct {
		name     string
		out      string
		expected string
		ok       bool
	}{
		{
			name:     "ip addr output with cidr",
			out:      "2: eth0    inet 10.80.0.37/24 brd 10.80.0.255 scope global eth0",
			expected: "10.80.0.37",
			ok:       true,
		},
		{
			name:     "bare address",
			out:      "10.80.0.37 \n",
			expected: "10.80.0.37",
			ok:       true,
		},
		{
			name: "no address yet",
			out:  "2: eth0    inet6 fe80::1/64 scope link",
			ok:   false,
		},
		{
			name: "empty output",
			out:  "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := firstIPv4(tt.out)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestWaitForNetwork_InvalidHardwareID(t *testing.T) {
	f := newFixture()
	f.instances.ExecFunc = func(id int, command string) (string, error) {
		if command == hardwareCommand {
			return "garbage\n", nil
		}
		return guestOutput(id, command)
	}
	d := f.deployer(Options{Pool: "cs101", StartID: 200})

	h := newHost(testEntries[0], "cs101-jane-doe", "cs101-jane-doe.students.example.org", 200)
	err := d.waitForNetwork(context.Background(), h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hardware identifier")
}
