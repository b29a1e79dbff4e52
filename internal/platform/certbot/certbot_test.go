package certbot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	commands []string
	err      error
}

func (f *fakeRunner) Run(_ context.Context, command string) (string, error) {
	f.commands = append(f.commands, command)
	return "", f.err
}

// fakeResolver resolves successfully from the nth call onward.
type fakeResolver struct {
	calls     int
	readyFrom int
}

func (f *fakeResolver) Resolve(context.Context, string) bool {
	f.calls++
	return f.readyFrom > 0 && f.calls >= f.readyFrom
}

func TestWaitForDNS_ResolvesAfterRetries(t *testing.T) {
	resolver := &fakeResolver{readyFrom: 3}
	issuer := NewIssuer(&fakeRunner{}, resolver, time.Millisecond, 100*time.Millisecond)

	resolved := issuer.WaitForDNS(context.Background(), "cs101-jane-doe.students.example.org")

	assert.True(t, resolved)
	assert.Equal(t, 3, resolver.calls)
}

func TestWaitForDNS_TimeoutReturnsFalse(t *testing.T) {
	resolver := &fakeResolver{} // never resolves
	issuer := NewIssuer(&fakeRunner{}, resolver, time.Millisecond, 5*time.Millisecond)

	resolved := issuer.WaitForDNS(context.Background(), "cs101-jane-doe.students.example.org")

	assert.False(t, resolved)
	assert.Equal(t, 5, resolver.calls, "attempts bounded by timeout/interval")
}

func TestWaitForDNS_ZeroIntervalUsesDefault(t *testing.T) {
	// A zero interval can arrive from an operator-supplied override; the
	// attempt budget must stay computable rather than dividing by zero.
	resolver := &fakeResolver{readyFrom: 1}
	issuer := NewIssuer(&fakeRunner{}, resolver, 0, 0)

	resolved := issuer.WaitForDNS(context.Background(), "cs101-jane-doe.students.example.org")

	assert.True(t, resolved)
	assert.Equal(t, 1, resolver.calls)
}

func TestIssue(t *testing.T) {
	runner := &fakeRunner{}
	issuer := NewIssuer(runner, &fakeResolver{readyFrom: 1}, time.Millisecond, time.Millisecond)

	err := issuer.Issue(context.Background(), "cs101-jane-doe.students.example.org", "admin@example.org")
	require.NoError(t, err)

	require.Len(t, runner.commands, 1)
	assert.Equal(t,
		"certbot --nginx -n --agree-tos --redirect -m admin@example.org -d cs101-jane-doe.students.example.org",
		runner.commands[0])
}

func TestIssue_Error(t *testing.T) {
	runner := &fakeRunner{err: errors.New("rate limited")}
	issuer := NewIssuer(runner, &fakeResolver{}, time.Millisecond, time.Millisecond)

	err := issuer.Issue(context.Background(), "cs101-jane-doe.students.example.org", "admin@example.org")
	require.Error(t, err)

	var cErr *Error
	require.ErrorAs(t, err, &cErr)
}
