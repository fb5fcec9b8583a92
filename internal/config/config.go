package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Network is a preset RPC + relay pair.
type Network struct {
	Name     string
	RPCURL   string
	RelayURL string
}

var (
	Mainnet = Network{Name: "mainnet", RPCURL: "https://ethereum.publicnode.com", RelayURL: "https://rpc.titanbuilder.xyz"}
	Sepolia = Network{Name: "sepolia", RPCURL: "https://1rpc.io/sepolia", RelayURL: "https://relay-sepolia.flashbots.net"}
)

// LookupNetwork accepts a preset name or its menu number ("1" mainnet, "2" sepolia).
func LookupNetwork(s string) (Network, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "mainnet", "ethereum", "eth":
		return Mainnet, true
	case "2", "sepolia":
		return Sepolia, true
	}
	return Network{}, false
}

// Settings keeps all configuration options.
type Settings struct {
	Network  string
	RPCURL   string
	RelayURL string

	SponsorPKHex       string
	HackedPKHex        string
	FlashbotsAuthPKHex string // empty means the sponsor key signs relay requests
	SafeAddress        string

	AssetType       string
	ContractAddress string
	TokenIDs        string

	MaxAttempts  int
	BoostGwei    int64
	PollInterval time.Duration

	MetricsAddr string
	LogLevel    string
	NoColor     bool
}

// Load reads settings from environment supporting both UPPER_CASE and lower_case keys.
func Load() Settings {
	get := func(keys []string, def string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				return v
			}
		}
		return def
	}
	getInt := func(keys []string, def int) int {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		return def
	}
	getInt64 := func(keys []string, def int64) int64 {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		return def
	}
	getBool := func(keys []string, def bool) bool {
		s := strings.ToLower(get(keys, ""))
		if s == "" {
			return def
		}
		return s == "1" || s == "true" || s == "yes" || s == "on"
	}

	st := Settings{}
	st.Network = get([]string{"network", "NETWORK"}, "")
	st.RPCURL = get([]string{"rpc_url", "RPC_URL"}, "")
	st.RelayURL = get([]string{"relay_url", "RELAY_URL"}, "")

	st.SponsorPKHex = get([]string{"private_key_sponsor", "PRIVATE_KEY_SPONSOR"}, "")
	st.HackedPKHex = get([]string{"private_key_hacked", "PRIVATE_KEY_HACKED"}, "")
	st.FlashbotsAuthPKHex = get([]string{"flashbots_auth_pk", "FLASHBOTS_AUTH_PK"}, "")
	st.SafeAddress = get([]string{"safe_wallet_address", "SAFE_WALLET_ADDRESS"}, "")

	st.AssetType = get([]string{"asset_type", "ASSET_TYPE"}, "")
	st.ContractAddress = get([]string{"contract_address", "CONTRACT_ADDRESS"}, "")
	st.TokenIDs = get([]string{"token_ids", "TOKEN_IDS"}, "")

	st.MaxAttempts = getInt([]string{"max_attempts", "MAX_ATTEMPTS"}, 30)
	st.BoostGwei = getInt64([]string{"boost_gwei", "BOOST_GWEI"}, 1)
	st.PollInterval = time.Duration(getInt64([]string{"block_poll_ms", "BLOCK_POLL_MS"}, 4000)) * time.Millisecond

	st.MetricsAddr = get([]string{"metrics_addr", "METRICS_ADDR"}, "")
	st.LogLevel = get([]string{"log_level", "LOG_LEVEL"}, "info")
	st.NoColor = getBool([]string{"no_color", "NO_COLOR"}, false)

	return st
}

// ApplyNetwork fills RPC and relay URLs left empty from the named preset.
// Explicit URLs always win.
func (s *Settings) ApplyNetwork() error {
	if s.Network == "" {
		return nil
	}
	n, ok := LookupNetwork(s.Network)
	if !ok {
		return fmt.Errorf("unknown network %q (want mainnet or sepolia)", s.Network)
	}
	s.Network = n.Name
	if s.RPCURL == "" {
		s.RPCURL = n.RPCURL
	}
	if s.RelayURL == "" {
		s.RelayURL = n.RelayURL
	}
	return nil
}

// Validate reports the first missing or malformed setting.
func (s Settings) Validate() error {
	switch {
	case s.RPCURL == "":
		return errors.New("RPC_URL is empty (set NETWORK or RPC_URL)")
	case s.RelayURL == "":
		return errors.New("RELAY_URL is empty (set NETWORK or RELAY_URL)")
	case s.SponsorPKHex == "":
		return errors.New("PRIVATE_KEY_SPONSOR is empty")
	case s.HackedPKHex == "":
		return errors.New("PRIVATE_KEY_HACKED is empty")
	case !common.IsHexAddress(s.SafeAddress):
		return fmt.Errorf("SAFE_WALLET_ADDRESS %q is not an address", s.SafeAddress)
	case s.AssetType == "":
		return errors.New("ASSET_TYPE is empty")
	case !common.IsHexAddress(s.ContractAddress):
		return fmt.Errorf("CONTRACT_ADDRESS %q is not an address", s.ContractAddress)
	case s.MaxAttempts <= 0:
		return fmt.Errorf("MAX_ATTEMPTS must be > 0, got %d", s.MaxAttempts)
	case s.BoostGwei < 0:
		return fmt.Errorf("BOOST_GWEI must be >= 0, got %d", s.BoostGwei)
	}
	return nil
}
