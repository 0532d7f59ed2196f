package live

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAuthClose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		code   int
		reason string
		want   bool
	}{
		{"policy violation code", 1008, "", true},
		{"custom auth code 4001", 4001, "", true},
		{"custom auth code 4003", 4003, "", true},
		{"normal closure", 1000, "", false},
		{"going away", 1001, "", false},
		{"internal error", 1011, "server restarting", false},
		{"reason mentions token", 1000, "token expired", true},
		{"reason mentions api key", 1011, "Invalid API key provided", true},
		{"reason mentions API-Key variant", 1011, "bad api-key", true},
		{"reason mentions unauthorized", 1011, "request Unauthorized", true},
		{"reason mentions credential", 1011, "credential rejected", true},
		{"reason mentions permission", 1011, "PERMISSION_DENIED", true},
		{"reason mentions auth", 1011, "authentication required", true},
		{"unrelated reason", 1000, "session quota exhausted", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsAuthClose(tt.code, tt.reason))
		})
	}
}

func TestCloseErrorAuthFailure(t *testing.T) {
	t.Parallel()

	auth := &CloseError{Code: 4001, Reason: "key rejected"}
	assert.True(t, auth.AuthFailure())

	plain := &CloseError{Code: 1000, Reason: "bye"}
	assert.False(t, plain.AuthFailure())
}

func TestCloseErrorMessage(t *testing.T) {
	t.Parallel()

	handshake := &CloseError{Code: 4001, Reason: "bad key", DuringHandshake: true}
	assert.Contains(t, handshake.Error(), "during setup")

	later := &CloseError{Code: 1000, Reason: "bye"}
	assert.NotContains(t, later.Error(), "during setup")
}

func TestErrorWrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	te := &TransportError{Op: "dial", Err: cause}
	assert.ErrorIs(t, te, cause)

	ae := &AddressError{Address: "::bad::", Err: cause}
	assert.ErrorIs(t, ae, cause)

	var target *TransportError
	wrapped := error(te)
	assert.ErrorAs(t, wrapped, &target)
	assert.Equal(t, "dial", target.Op)
}
