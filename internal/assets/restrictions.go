package assets

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/ligun0805/asset-rescue/internal/ethutil"
)

// Getter names seen in the wild on tokens that can freeze transfers.
var (
	pausedSigs = []string{
		"paused()", "isPaused()", "transfersPaused()", "tradingPaused()",
	}
	transferDisabledSigs = []string{
		"transferDisabled()", "isTransferDisabled()",
	}
	blacklistSigs = []string{
		"isBlacklisted(address)", "isBlackListed(address)", "blacklisted(address)", "isInBlacklist(address)",
	}
	onlyWhitelistSigs = []string{
		"onlyWhitelisted()", "whitelistEnabled()",
	}
	whitelistSigs = []string{
		"isWhitelisted(address)", "whitelisted(address)",
	}
)

func sel(sig string) []byte {
	return gethcrypto.Keccak256([]byte(sig))[:4]
}

// Restrictions is what a best-effort probe of a token contract found.
type Restrictions struct {
	Paused           bool
	TransferDisabled bool
	BlacklistedFrom  bool
	BlacklistedTo    bool
	OnlyWhitelisted  bool
	FromWhitelisted  *bool
	ToWhitelisted    *bool
}

// Blocked reports whether a transfer from -> to is expected to revert.
func (r Restrictions) Blocked() bool {
	if r.Paused || r.TransferDisabled || r.BlacklistedFrom || r.BlacklistedTo {
		return true
	}
	if r.OnlyWhitelisted {
		if r.FromWhitelisted != nil && !*r.FromWhitelisted {
			return true
		}
		if r.ToWhitelisted != nil && !*r.ToWhitelisted {
			return true
		}
	}
	return false
}

func (r Restrictions) Summary() string {
	var parts []string
	if r.Paused {
		parts = append(parts, "paused")
	}
	if r.TransferDisabled {
		parts = append(parts, "transferDisabled")
	}
	if r.BlacklistedFrom {
		parts = append(parts, "from:blacklisted")
	}
	if r.BlacklistedTo {
		parts = append(parts, "to:blacklisted")
	}
	if r.OnlyWhitelisted {
		parts = append(parts, fmt.Sprintf("whitelist:on (from=%s,to=%s)", triState(r.FromWhitelisted), triState(r.ToWhitelisted)))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func triState(b *bool) string {
	switch {
	case b == nil:
		return "unknown"
	case *b:
		return "yes"
	}
	return "no"
}

// CheckRestrictions probes the usual pause/blacklist/whitelist getters.
// Getters the contract does not implement are ignored; the probe never fails.
func CheckRestrictions(ctx context.Context, caller ContractCaller, token, from, to common.Address) Restrictions {
	var out Restrictions

	call := func(data []byte) ([]byte, bool) {
		res, err := callWithRetry(ctx, caller, ethereum.CallMsg{To: &token, Data: data})
		if err != nil || len(res) == 0 {
			return nil, false
		}
		return res, true
	}
	truthy := func(b []byte) bool { return len(b) > 0 && b[len(b)-1] == 1 }
	withAddr := func(sig string, a common.Address) []byte {
		return append(sel(sig), common.LeftPadBytes(a.Bytes(), 32)...)
	}

	for _, s := range pausedSigs {
		if ret, ok := call(sel(s)); ok && truthy(ret) {
			out.Paused = true
			return out
		}
	}
	for _, s := range transferDisabledSigs {
		if ret, ok := call(sel(s)); ok && truthy(ret) {
			out.TransferDisabled = true
			return out
		}
	}
	for _, s := range onlyWhitelistSigs {
		if ret, ok := call(sel(s)); ok && truthy(ret) {
			out.OnlyWhitelisted = true
			break
		}
	}
	if out.OnlyWhitelisted {
		whitelisted := func(a common.Address) *bool {
			for _, s := range whitelistSigs {
				if ret, ok := call(withAddr(s, a)); ok {
					v := truthy(ret)
					return &v
				}
			}
			return nil
		}
		out.FromWhitelisted = whitelisted(from)
		out.ToWhitelisted = whitelisted(to)
	}
	blacklisted := func(a common.Address) bool {
		for _, s := range blacklistSigs {
			if ret, ok := call(withAddr(s, a)); ok && truthy(ret) {
				return true
			}
		}
		return false
	}
	out.BlacklistedFrom = blacklisted(from)
	out.BlacklistedTo = blacklisted(to)
	return out
}

// callWithRetry performs eth_call, retrying throttled requests.
func callWithRetry(ctx context.Context, caller ContractCaller, msg ethereum.CallMsg) ([]byte, error) {
	return ethutil.RetryRateLimited(ctx, func(ctx context.Context) ([]byte, error) {
		return caller.CallContract(ctx, msg, nil)
	})
}
