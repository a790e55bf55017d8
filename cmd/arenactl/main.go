package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host  string
	token string
)

var rootCmd = &cobra.Command{
	Use:   "arenactl",
	Short: "A CLI to operate the bgmi-arena server",
	Long: `A command-line interface for the admin side of bgmi-arena: logging in,
deciding pending deposits, withdrawals and join requests, and inspecting
wallets and tournaments.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", envOr("ARENA_HOST", "http://localhost:5000"), "The host address of the server")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("ARENA_TOKEN"), "Admin bearer token (or ARENA_TOKEN)")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "arenactl: %s\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
