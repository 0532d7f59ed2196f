// Package credentials supplies API credentials to the live session client.
//
// Credentials are always injected explicitly; nothing in this module reads
// ambient configuration unless the caller opts in via Env or Default.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

// ErrNoCredential indicates that no provider in scope could produce a key.
var ErrNoCredential = errors.New("credentials: no API key available")

// Provider yields an API key for authenticating a connection attempt.
// Implementations must be safe for concurrent use.
type Provider interface {
	// APIKey returns the credential value to attach to the connection URL.
	// An empty key with a nil error is treated as a missing credential.
	APIKey(ctx context.Context) (string, error)
}

// Static is a fixed API key.
type Static string

func (s Static) APIKey(ctx context.Context) (string, error) {
	return string(s), nil
}

// Env resolves the API key from environment variables, first match wins.
type Env struct {
	// Vars lists the environment variables to consult. When empty,
	// GEMINI_API_KEY and GOOGLE_API_KEY are tried in that order.
	Vars []string
}

func (e Env) APIKey(ctx context.Context) (string, error) {
	vars := e.Vars
	if len(vars) == 0 {
		vars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	}
	for _, name := range vars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: none of %s set", ErrNoCredential, strings.Join(vars, ", "))
}

// TokenSource adapts an oauth2.TokenSource to a Provider. The access token
// is used directly as the credential value.
type TokenSource struct {
	Source oauth2.TokenSource
}

func (t TokenSource) APIKey(ctx context.Context) (string, error) {
	if t.Source == nil {
		return "", fmt.Errorf("%w: nil token source", ErrNoCredential)
	}
	tok, err := t.Source.Token()
	if err != nil {
		return "", fmt.Errorf("credentials: fetch token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrNoCredential)
	}
	return tok.AccessToken, nil
}

// Chain tries each provider in order and returns the first non-empty key.
// Provider errors are collected; if every provider fails the joined error
// is returned.
type Chain []Provider

func (c Chain) APIKey(ctx context.Context) (string, error) {
	var errs []error
	for _, p := range c {
		if p == nil {
			continue
		}
		key, err := p.APIKey(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if key != "" {
			return key, nil
		}
	}
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return "", ErrNoCredential
}

// Default is the provider used when a session is configured without one:
// the process environment via Env.
func Default() Provider {
	return Env{}
}
