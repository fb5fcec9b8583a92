package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ligun0805/asset-rescue/internal/assets"
	"github.com/ligun0805/asset-rescue/internal/bundlecore"
	"github.com/ligun0805/asset-rescue/internal/config"
	"github.com/ligun0805/asset-rescue/internal/ethutil"
	"github.com/ligun0805/asset-rescue/internal/flashbots"
	"github.com/ligun0805/asset-rescue/internal/logger"
	"github.com/ligun0805/asset-rescue/internal/metrics"
)

func runRescue(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	st := config.Load()
	applyFlags(cmd, &st)

	level, err := logger.ParseLevel(st.LogLevel)
	if err != nil {
		return err
	}
	log := logger.NewStdLogger(!st.NoColor, level)

	if !flagNoPrompt && term.IsTerminal(int(os.Stdin.Fd())) {
		if err := promptMissing(bufio.NewReader(os.Stdin), &st); err != nil {
			return fmt.Errorf("input: %w", err)
		}
	}
	if err := st.ApplyNetwork(); err != nil {
		return err
	}
	if err := st.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := setup(ctx, st, log)
	if err != nil {
		log.Error("[init] %v", err)
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer r.close()

	if st.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, st.MetricsAddr); err != nil {
				log.Warn("[metrics] %v", err)
			}
		}()
		log.Info("[metrics] serving on %s/metrics", st.MetricsAddr)
	}

	log.Info("[monitor] watching blocks, press CTRL+C to abort")
	blocks := bundlecore.WatchBlocks(ctx, r.ec, st.PollInterval, log)
	res, err := bundlecore.NewMonitor(r.rescue).Run(ctx, blocks)
	switch {
	case err == nil && res.Included:
		log.Notice("[done] rescued in block %d after %d attempt(s), fee boost %d", res.Block, res.Attempts, res.BoostUnits)
		return nil
	case errors.Is(err, context.Canceled):
		return errors.New("interrupted")
	case err != nil:
		return err
	}
	return errors.New("monitor stopped without inclusion")
}

type session struct {
	ec     *ethclient.Client
	relay  *flashbots.Client
	rescue bundlecore.RescueContext
}

func (r *session) close() {
	if r.relay != nil {
		_ = r.relay.Close()
	}
	r.ec.Close()
}

// setup dials the RPC and relay and wires the rescue components.
func setup(ctx context.Context, st config.Settings, log logger.Logger) (*session, error) {
	sponsor, err := bundlecore.AccountFromHex(st.SponsorPKHex)
	if err != nil {
		return nil, fmt.Errorf("sponsor %w", err)
	}
	hacked, err := bundlecore.AccountFromHex(st.HackedPKHex)
	if err != nil {
		return nil, fmt.Errorf("compromised %w", err)
	}
	authKey := sponsor.Key()
	if st.FlashbotsAuthPKHex != "" {
		auth, err := bundlecore.AccountFromHex(st.FlashbotsAuthPKHex)
		if err != nil {
			return nil, fmt.Errorf("relay auth %w", err)
		}
		authKey = auth.Key()
	}
	kind, err := assets.ParseKind(st.AssetType)
	if err != nil {
		return nil, err
	}
	tokenIDs, err := assets.ParseTokenIDs(st.TokenIDs)
	if err != nil {
		return nil, err
	}
	safe := common.HexToAddress(st.SafeAddress)
	contract := common.HexToAddress(st.ContractAddress)

	ec, err := ethclient.DialContext(ctx, st.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}
	r := &session{ec: ec}
	chainID, err := ec.ChainID(ctx)
	if err != nil {
		r.close()
		return nil, fmt.Errorf("chain id: %w", err)
	}

	planner, err := assets.NewPlanner(ec, kind, contract, hacked.Address, safe, tokenIDs)
	if err != nil {
		r.close()
		return nil, err
	}
	relay, err := flashbots.NewClient(st.RelayURL, authKey, ec)
	if err != nil {
		r.close()
		return nil, err
	}
	r.relay = relay

	sponsorBal, _ := ec.BalanceAt(ctx, sponsor.Address, nil)
	printConfig(st, chainID, sponsor.Address, sponsorBal, hacked.Address, kind, tokenIDs)

	if kind == assets.Fungible {
		restr := assets.CheckRestrictions(ctx, ec, contract, hacked.Address, safe)
		log.Info("[pre-check] restrictions: %s", restr.Summary())
		if restr.Blocked() {
			log.Warn("[pre-check] token rules block this transfer; bundles will keep failing simulation")
		}
	}

	fee := bundlecore.NewFeeEscalation(uint64(st.MaxAttempts))
	r.rescue = bundlecore.RescueContext{
		Planner:   planner,
		Assembler: bundlecore.NewAssembler(ec, chainID, sponsor, hacked, ethutil.Gwei(st.BoostGwei), log),
		Pipeline:  bundlecore.NewPipeline(relay, log),
		Fee:       fee,
		Log:       log,
	}
	return r, nil
}

func printConfig(st config.Settings, chainID *big.Int, sponsor common.Address, sponsorBal *big.Int, hacked common.Address, kind assets.Kind, ids []*big.Int) {
	fmt.Println("=== CONFIG ===")
	fmt.Println("NETWORK             :", st.Network)
	fmt.Println("RPC_URL             :", st.RPCURL)
	fmt.Println("RELAY_URL           :", st.RelayURL)
	fmt.Println("CHAIN_ID            :", chainID.String())
	fmt.Println("PRIVATE_KEY_SPONSOR :", maskHex(st.SponsorPKHex))
	fmt.Println("  -> Sponsor        :", sponsor.Hex())
	fmt.Println("  -> Balance        :", ethutil.FormatEther(sponsorBal), "ETH")
	fmt.Println("PRIVATE_KEY_HACKED  :", maskHex(st.HackedPKHex))
	fmt.Println("  -> Compromised    :", hacked.Hex())
	if st.FlashbotsAuthPKHex != "" {
		fmt.Println("FLASHBOTS_AUTH_PK   :", maskHex(st.FlashbotsAuthPKHex))
	}
	fmt.Println("SAFE_WALLET_ADDRESS :", common.HexToAddress(st.SafeAddress).Hex())
	fmt.Println("Asset               :", kind, common.HexToAddress(st.ContractAddress).Hex())
	if kind == assets.NonFungible {
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = id.String()
		}
		fmt.Println("Token IDs           :", strings.Join(parts, ", "))
	}
	fmt.Println("Max attempts        :", st.MaxAttempts)
	fmt.Println("Boost (gwei)        :", st.BoostGwei)
	fmt.Println("==============")
}
