package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestStatic(t *testing.T) {
	t.Parallel()

	key, err := Static("test-key-123").APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-key-123", key)
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "fallback-key")

	key, err := Env{}.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fallback-key", key)
}

func TestEnvPrefersFirstMatch(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "primary-key")
	t.Setenv("GOOGLE_API_KEY", "fallback-key")

	key, err := Env{}.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "primary-key", key)
}

func TestEnvCustomVars(t *testing.T) {
	t.Setenv("MY_APP_KEY", "custom-key")

	key, err := Env{Vars: []string{"MY_APP_KEY"}}.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "custom-key", key)
}

func TestEnvMissing(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	_, err := Env{}.APIKey(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestEnvTrimsWhitespace(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "  \t ")
	t.Setenv("GOOGLE_API_KEY", "real-key")

	key, err := Env{}.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "real-key", key)
}

func TestTokenSource(t *testing.T) {
	t.Parallel()

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "ya29.token"})
	key, err := TokenSource{Source: src}.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.token", key)
}

func TestTokenSourceNil(t *testing.T) {
	t.Parallel()

	_, err := TokenSource{}.APIKey(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

type failingProvider struct{ err error }

func (f failingProvider) APIKey(context.Context) (string, error) { return "", f.err }

func TestChainFirstSuccessWins(t *testing.T) {
	t.Parallel()

	chain := Chain{
		failingProvider{err: errors.New("vault unavailable")},
		Static("chained-key"),
		Static("never-reached"),
	}
	key, err := chain.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "chained-key", key)
}

func TestChainAllFail(t *testing.T) {
	t.Parallel()

	first := errors.New("first failure")
	second := errors.New("second failure")
	chain := Chain{failingProvider{err: first}, failingProvider{err: second}}

	_, err := chain.APIKey(context.Background())
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}

func TestChainEmpty(t *testing.T) {
	t.Parallel()

	_, err := Chain{}.APIKey(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestChainSkipsNilProviders(t *testing.T) {
	t.Parallel()

	key, err := Chain{nil, Static("after-nil")}.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "after-nil", key)
}
