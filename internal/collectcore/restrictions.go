package collectcore

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Pause checks (various signatures in the wild).
var pausedSigs = [][]byte{
	common.FromHex("0x5c975abb"), // paused()
	common.FromHex("0x3f4ba83a"), // isPaused()
	common.FromHex("0x51dff989"), // transfersPaused()
}

// Enabled-style views invert: enabled=false means paused.
var enabledSigs = [][]byte{
	common.FromHex("0x9c6a3b7c"), // transferEnabled()
	common.FromHex("0x75f12b21"), // isTransferEnabled()
}

var blacklistAddrViewSigs = []string{
	"isBlacklisted(address)", "isBlackListed(address)", "blacklisted(address)", "isInBlacklist(address)",
}

func sel(sig string) []byte {
	h := crypto.Keccak256([]byte(sig))
	return h[:4]
}

// TokenRestrictions summarizes contract-level rules that would doom a
// transfer before any gas is spent.
type TokenRestrictions struct {
	Paused          bool
	BlacklistedFrom bool
	BlacklistedTo   bool
}

func (tr TokenRestrictions) Blocked() bool {
	return tr.Paused || tr.BlacklistedFrom || tr.BlacklistedTo
}

func (tr TokenRestrictions) Summary() string {
	parts := []string{}
	if tr.Paused {
		parts = append(parts, "paused")
	}
	if tr.BlacklistedFrom {
		parts = append(parts, "from:blacklisted")
	}
	if tr.BlacklistedTo {
		parts = append(parts, "to:blacklisted")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// CheckRestrictions probes common pause/blacklist views. Every probe is
// best-effort; an unanswered probe means no restriction observed.
func CheckRestrictions(ctx context.Context, cc ChainClient, token, from, to common.Address) TokenRestrictions {
	var out TokenRestrictions

	call := func(data []byte) ([]byte, bool) {
		res, err := callWithRetry(ctx, cc, ethereum.CallMsg{To: &token, Data: data})
		if err != nil || len(res) == 0 {
			return nil, false
		}
		return res, true
	}
	boolOf := func(b []byte) bool {
		return len(b) > 0 && b[len(b)-1] == 1
	}

	for _, sig := range pausedSigs {
		if res, ok := call(sig); ok {
			out.Paused = boolOf(res)
			break
		}
	}
	if !out.Paused {
		for _, sig := range enabledSigs {
			if res, ok := call(sig); ok {
				out.Paused = !boolOf(res)
				break
			}
		}
	}

	isBlacklisted := func(addr common.Address) bool {
		for _, s := range blacklistAddrViewSigs {
			data := append(sel(s), common.LeftPadBytes(addr.Bytes(), 32)...)
			if res, ok := call(data); ok && boolOf(res) {
				return true
			}
		}
		return false
	}
	out.BlacklistedFrom = isBlacklisted(from)
	out.BlacklistedTo = isBlacklisted(to)

	return out
}
