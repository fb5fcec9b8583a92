package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.Version=...".
var (
	Version     = "dev"
	GitRevision string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("rescue:")
		fmt.Printf("  - Version: %s\n", Version)
		fmt.Printf("  - Git Revision: %s\n", GitRevision)
		fmt.Printf("  - Go Version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
