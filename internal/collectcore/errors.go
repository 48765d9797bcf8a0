package collectcore

import (
	"errors"
	"strings"
)

// Precondition failures. These halt the run before anything is submitted.
var (
	ErrNoReachableEndpoint = errors.New("no reachable rpc endpoint")
	ErrNoCredentials       = errors.New("no usable private keys")
	ErrNoDestination       = errors.New("destination address is not configured")
)

// IsTransientRPCError reports whether err looks like provider throttling or
// temporary overload, i.e. worth retrying with backoff.
func IsTransientRPCError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	for _, m := range []string{
		"Too Many Requests",
		"too many requests",
		"-32005",
		"429",
		"limit exceeded",
		"request timed out",
		"try again",
		"service unavailable",
	} {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// classifyCallError returns a concise reason for common eth_call failures.
func classifyCallError(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	if IsTransientRPCError(err) {
		return "[RATE_LIMIT] provider throttled the request"
	}
	if strings.Contains(s, "execution reverted") {
		if idx := strings.Index(s, ":"); idx >= 0 && idx+1 < len(s) {
			if r := strings.TrimSpace(s[idx+1:]); r != "" {
				return "[REVERT] " + r
			}
		}
		return "[REVERT] execution reverted"
	}
	if strings.Contains(s, "unsupported") || strings.Contains(s, "abi") {
		return "[UNSUPPORTED] ABI/return type mismatch"
	}
	return "[RPC] " + s
}
