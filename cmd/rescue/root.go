package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ligun0805/asset-rescue/internal/config"
)

var (
	flagNetwork     string
	flagRPC         string
	flagRelay       string
	flagAsset       string
	flagContract    string
	flagTokenIDs    string
	flagSafe        string
	flagMaxAttempts int
	flagBoostGwei   int64
	flagPoll        time.Duration
	flagMetrics     string
	flagLogLevel    string
	flagNoColor     bool
	flagNoPrompt    bool
)

// rootCmd runs the rescue; env (.env, .env.local) is read first and flags override it.
var rootCmd = &cobra.Command{
	Use:   "rescue",
	Short: "Move ERC-20 or ERC-721 assets out of a compromised wallet through a private bundle relay",
	Long: `rescue watches every new block and submits a bundle to a private relay:
a sponsor transaction that funds the compromised wallet's gas, followed by the
transfers of the asset to the safe wallet. Each failed block raises the fee.

Keys are read from PRIVATE_KEY_SPONSOR and PRIVATE_KEY_HACKED, or prompted.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRescue,
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flagNetwork, "network", "n", "", "Network preset: mainnet or sepolia")
	f.StringVar(&flagRPC, "rpc", "", "Public RPC endpoint (http, ws or ipc)")
	f.StringVar(&flagRelay, "relay", "", "Private bundle relay endpoint")
	f.StringVarP(&flagAsset, "asset", "a", "", "Asset kind: erc20 or erc721")
	f.StringVarP(&flagContract, "contract", "c", "", "Token or NFT contract address")
	f.StringVarP(&flagTokenIDs, "token-ids", "t", "", "Comma-separated NFT token IDs")
	f.StringVar(&flagSafe, "safe", "", "Safe wallet address receiving the assets")
	f.IntVar(&flagMaxAttempts, "max-attempts", 30, "Attempt ceiling before giving up")
	f.Int64Var(&flagBoostGwei, "boost-gwei", 1, "Fee boost per escalation step, in gwei")
	f.DurationVar(&flagPoll, "poll", 4*time.Second, "Block polling interval when the RPC has no subscriptions")
	f.StringVar(&flagMetrics, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100")
	f.StringVarP(&flagLogLevel, "log-level", "l", "info", "Logging level")
	f.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	f.BoolVar(&flagNoPrompt, "no-prompt", false, "Never prompt; fail on missing settings")
}

// applyFlags overrides env settings with the flags given on the command line.
func applyFlags(cmd *cobra.Command, st *config.Settings) {
	f := cmd.Flags()
	str := func(name string, dst *string, v string) {
		if f.Changed(name) {
			*dst = v
		}
	}
	str("network", &st.Network, flagNetwork)
	str("rpc", &st.RPCURL, flagRPC)
	str("relay", &st.RelayURL, flagRelay)
	str("asset", &st.AssetType, flagAsset)
	str("contract", &st.ContractAddress, flagContract)
	str("token-ids", &st.TokenIDs, flagTokenIDs)
	str("safe", &st.SafeAddress, flagSafe)
	str("metrics-addr", &st.MetricsAddr, flagMetrics)
	str("log-level", &st.LogLevel, flagLogLevel)
	if f.Changed("max-attempts") {
		st.MaxAttempts = flagMaxAttempts
	}
	if f.Changed("boost-gwei") {
		st.BoostGwei = flagBoostGwei
	}
	if f.Changed("poll") {
		st.PollInterval = flagPoll
	}
	if f.Changed("no-color") {
		st.NoColor = flagNoColor
	}
}
