package handlers

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studenthost/internal/config"
)

type fakeDestroyer struct {
	ids  []int
	fail map[int]error
}

func (f *fakeDestroyer) Destroy(_ context.Context, id int) error {
	f.ids = append(f.ids, id)
	if err, ok := f.fail[id]; ok {
		return err
	}
	return nil
}

func injectDestroyer(t *testing.T, fake *fakeDestroyer, input string) {
	t.Helper()

	origStdin := stdin
	origNew := newDestroyer
	stdin = strings.NewReader(input)
	newDestroyer = func(*config.Config) (containerDestroyer, error) { return fake, nil }
	t.Cleanup(func() {
		stdin = origStdin
		newDestroyer = origNew
	})
}

func writeDestroyEnv(t *testing.T) string {
	t.Helper()
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("deploy.env", []byte(testEnv), 0o600))
	return "deploy.env"
}

func TestDestroy_Confirmed(t *testing.T) {
	envFile := writeDestroyEnv(t)
	fake := &fakeDestroyer{}
	injectDestroyer(t, fake, "yes\n")

	err := Destroy(context.Background(), DestroyOptions{StartID: 200, Count: 3, EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, []int{200, 201, 202}, fake.ids)
}

func TestDestroy_Aborted(t *testing.T) {
	envFile := writeDestroyEnv(t)
	fake := &fakeDestroyer{}
	injectDestroyer(t, fake, "no\n")

	err := Destroy(context.Background(), DestroyOptions{StartID: 200, Count: 3, EnvFile: envFile})
	require.NoError(t, err)
	assert.Empty(t, fake.ids, "nothing may be destroyed without confirmation")
}

func TestDestroy_SkipPromptWithYesFlag(t *testing.T) {
	envFile := writeDestroyEnv(t)
	fake := &fakeDestroyer{}
	injectDestroyer(t, fake, "") // no input available; --yes must not read it

	err := Destroy(context.Background(), DestroyOptions{StartID: 200, Count: 2, Yes: true, EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, []int{200, 201}, fake.ids)
}

func TestDestroy_FailuresDoNotStopLoop(t *testing.T) {
	envFile := writeDestroyEnv(t)
	fake := &fakeDestroyer{fail: map[int]error{201: errors.New("ct locked")}}
	injectDestroyer(t, fake, "yes\n")

	err := Destroy(context.Background(), DestroyOptions{StartID: 200, Count: 3, EnvFile: envFile})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3")
	assert.Equal(t, []int{200, 201, 202}, fake.ids, "remaining containers are still destroyed")
}

func TestDestroy_InvalidCount(t *testing.T) {
	err := Destroy(context.Background(), DestroyOptions{StartID: 200, Count: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count")
}
