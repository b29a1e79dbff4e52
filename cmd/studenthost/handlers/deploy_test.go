package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studenthost/internal/config"
	"studenthost/internal/provisioning"
	"studenthost/internal/roster"
)

const testEnv = `PVE_HOST=pve.school.lan
PVE_USER=root
PVE_KEY_FILE=/nonexistent/pve_ed25519
ROUTER_HOST=gw.school.lan
ROUTER_USER=admin
ROUTER_KEY_FILE=/nonexistent/router_ed25519
PROXY_HOST=proxy.school.lan
PROXY_USER=deploy
PROXY_KEY_FILE=/nonexistent/proxy_ed25519
DNS_API_URI=https://api.registrar.example/RPCSERV
DNS_API_USER=school@example.org
DNS_API_PASS=hunter2
SCHOOL_IP_ADDRESS=203.0.113.10
DOMAIN_SUFFIX=students.example.org
STUDENT_SERVICE_PORT=8080
PVE_TEMPLATE_ID=9000
ADMIN_EMAIL=admin@example.org
DHCP_SERVER=dhcp-lan
`

const testRoster = "CLASS,LASTNAME,FIRSTNAME,ALIAS\nCS101,Doe,Jane,\nCS101,Smith,Bob,bsmith\n"

type fakePipeline struct {
	entries []roster.Entry
	runs    int
	err     error
}

func (f *fakePipeline) Run(_ context.Context, entries []roster.Entry) ([]*provisioning.Host, error) {
	f.runs++
	f.entries = entries
	return nil, f.err
}

// chdir mirrors testing.T.Chdir (Go 1.24+), which is unavailable on the
// toolchain this module builds with.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeDeployFixtures(t *testing.T) DeployOptions {
	t.Helper()
	chdir(t, t.TempDir())

	require.NoError(t, os.WriteFile("deploy.env", []byte(testEnv), 0o600))
	require.NoError(t, os.WriteFile("roster.csv", []byte(testRoster), 0o600))

	return DeployOptions{
		Pool:       "cs101",
		StartID:    200,
		RosterPath: "roster.csv",
		EnvFile:    "deploy.env",
	}
}

func injectPipeline(t *testing.T, fake *fakePipeline) *provisioning.Options {
	t.Helper()
	var captured provisioning.Options
	orig := newPipeline
	newPipeline = func(_ *config.Config, _ *config.Timeouts, _ provisioning.Collaborators,
		opts provisioning.Options, _ provisioning.Logger, _ *provisioning.ResultLog) pipelineRunner {
		captured = opts
		return fake
	}
	t.Cleanup(func() { newPipeline = orig })
	return &captured
}

func TestDeploy_DryRun(t *testing.T) {
	opts := writeDeployFixtures(t)
	opts.DryRun = true

	fake := &fakePipeline{}
	captured := injectPipeline(t, fake)

	err := Deploy(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, fake.runs)
	require.Len(t, fake.entries, 2)
	assert.Equal(t, "Jane", fake.entries[0].FirstName)

	assert.Equal(t, "cs101", captured.Pool)
	assert.Equal(t, 200, captured.StartID)
	assert.True(t, captured.DryRun)

	// The audit log is opened even for a dry run.
	_, err = os.Stat(deployLogFile)
	assert.NoError(t, err)
	// But no result file is created.
	_, err = os.Stat(resultLogFile)
	assert.True(t, os.IsNotExist(err))
}

func TestDeploy_MissingEnvFile(t *testing.T) {
	chdir(t, t.TempDir())
	err := Deploy(context.Background(), DeployOptions{Pool: "cs101", StartID: 200, EnvFile: "absent.env", RosterPath: "roster.csv"})
	require.Error(t, err)
}

func TestDeploy_EmptyRoster(t *testing.T) {
	opts := writeDeployFixtures(t)
	require.NoError(t, os.WriteFile("roster.csv", []byte("CLASS,LASTNAME,FIRSTNAME,ALIAS\n"), 0o600))
	opts.DryRun = true

	err := Deploy(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entries")
}

func TestDeploy_StartIDTooLow(t *testing.T) {
	err := Deploy(context.Background(), DeployOptions{Pool: "cs101", StartID: 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start-id")
}

func TestDeploy_UnreadableKeyIsFatalBeforeProvisioning(t *testing.T) {
	opts := writeDeployFixtures(t)

	fake := &fakePipeline{}
	injectPipeline(t, fake)

	// Real mode builds SSH clients; the env file points at missing keys.
	err := Deploy(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hypervisor")
	assert.Zero(t, fake.runs, "the pipeline must not start without collaborators")
}

func TestDeploy_RosterFromSubdirectory(t *testing.T) {
	opts := writeDeployFixtures(t)
	require.NoError(t, os.MkdirAll("rosters", 0o755))
	rosterPath := filepath.Join("rosters", "cs101.csv")
	require.NoError(t, os.WriteFile(rosterPath, []byte(testRoster), 0o600))
	opts.RosterPath = rosterPath
	opts.DryRun = true

	fake := &fakePipeline{}
	injectPipeline(t, fake)

	require.NoError(t, Deploy(context.Background(), opts))
	assert.Len(t, fake.entries, 2)
}
