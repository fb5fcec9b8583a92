package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/ligun0805/asset-rescue/internal/assets"
	"github.com/ligun0805/asset-rescue/internal/config"
)

var (
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

func readLine(r *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	t, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && t != "") {
		return "", err
	}
	return strings.TrimSpace(t), nil
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func maskHex(h string) string {
	h = strings.TrimSpace(h)
	if len(h) <= 10 {
		return "***"
	}
	return h[:6] + "…" + h[len(h)-4:]
}

// askNetwork repeats the menu until a preset is picked.
func askNetwork(r *bufio.Reader) (string, error) {
	for {
		ans, err := readLine(r, cyan("Select network:\n")+yellow("1. Ethereum Mainnet\n")+green("2. Sepolia Testnet\n")+cyan("> "))
		if err != nil {
			return "", err
		}
		if n, ok := config.LookupNetwork(ans); ok {
			return n.Name, nil
		}
		fmt.Println(red("Invalid network selection"))
	}
}

func askAssetKind(r *bufio.Reader) (assets.Kind, error) {
	for {
		ans, err := readLine(r, cyan("Choose asset type:\n")+yellow("1. ERC20 Tokens\n")+green("2. ERC721 NFTs\n")+cyan("> "))
		if err != nil {
			return 0, err
		}
		if k, err := assets.ParseKind(ans); err == nil {
			return k, nil
		}
		fmt.Println(red("Invalid selection"))
	}
}

// promptMissing asks for every setting the env and flags left empty.
func promptMissing(r *bufio.Reader, st *config.Settings) error {
	var err error
	if st.Network == "" && (st.RPCURL == "" || st.RelayURL == "") {
		if st.Network, err = askNetwork(r); err != nil {
			return err
		}
	}
	if st.SponsorPKHex == "" {
		if st.SponsorPKHex, err = readPassword("Sponsor private key: "); err != nil {
			return err
		}
	}
	if st.HackedPKHex == "" {
		if st.HackedPKHex, err = readPassword("Compromised private key: "); err != nil {
			return err
		}
	}
	if st.SafeAddress == "" {
		if st.SafeAddress, err = readLine(r, cyan("Safe wallet address: ")); err != nil {
			return err
		}
	}
	kind, kindErr := assets.ParseKind(st.AssetType)
	if st.AssetType == "" || kindErr != nil {
		if kind, err = askAssetKind(r); err != nil {
			return err
		}
		st.AssetType = kind.String()
	}
	if st.ContractAddress == "" {
		if st.ContractAddress, err = readLine(r, cyan(fmt.Sprintf("Enter %s contract: ", kind))); err != nil {
			return err
		}
	}
	if kind == assets.NonFungible && st.TokenIDs == "" {
		if st.TokenIDs, err = readLine(r, cyan("Enter token IDs (comma-separated): ")); err != nil {
			return err
		}
	}
	return nil
}
