package live

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/jayreddin/gemini-2-live-JR/credentials"
)

// Sentinel errors for session operations.
var (
	// ErrNoCredential indicates the credential provider produced no API key.
	// Connect fails fast with it before any transport attempt.
	ErrNoCredential = credentials.ErrNoCredential

	// ErrInvalidToolResponse indicates a tool result with neither output
	// nor error set.
	ErrInvalidToolResponse = errors.New("tool response must carry an output or an error")

	// ErrTransportAbsent indicates a send on a session that never had a
	// transport.
	ErrTransportAbsent = errors.New("transport not created")

	// ErrTransportNotOpen indicates a send on a transport that exists but
	// is closing or closed.
	ErrTransportNotOpen = errors.New("transport not open")

	// ErrSessionClosed indicates an operation interrupted by Disconnect.
	ErrSessionClosed = errors.New("session closed")
)

// AddressError indicates the endpoint URL could not be used to connect.
type AddressError struct {
	Address string
	Err     error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid endpoint address %q: %v", e.Address, e.Err)
}

func (e *AddressError) Unwrap() error { return e.Err }

// TransportError wraps a transport-level failure with the operation that hit it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CloseError carries the WebSocket close code and reason from the server.
// DuringHandshake marks closes that arrived before setup completed; a
// pending Connect call resolves with such an error.
type CloseError struct {
	Code            int
	Reason          string
	DuringHandshake bool
}

func (e *CloseError) Error() string {
	if e.DuringHandshake {
		return fmt.Sprintf("connection closed during setup (code %d): %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("connection closed (code %d): %s", e.Code, e.Reason)
}

// AuthFailure reports whether the close should be treated as an
// authentication rejection rather than a plain disconnect.
func (e *CloseError) AuthFailure() bool {
	return IsAuthClose(e.Code, e.Reason)
}

// authCloseCodes are the close codes reserved for credential rejection:
// 1008 (policy violation) plus the application-level 4001/4003 codes the
// backend uses for bad or expired keys.
var authCloseCodes = map[int]bool{
	1008: true,
	4001: true,
	4003: true,
}

var authReasonPattern = regexp.MustCompile(`(?i)auth|token|api.?key|credential|unauthorized|permission`)

// IsAuthClose classifies a close event as an authentication failure by
// code or by the human-readable reason text.
func IsAuthClose(code int, reason string) bool {
	if authCloseCodes[code] {
		return true
	}
	return authReasonPattern.MatchString(reason)
}
