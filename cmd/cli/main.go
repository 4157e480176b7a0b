package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chirp",
	Short: "Chirp CLI - Operational tooling for the Chirp backend",
	Long: `Chirp CLI provides command-line access to backend operations.
Generate VAPID key pairs for web push and send notifications to users.`,
}

func init() {
	rootCmd.AddCommand(vapidCmd)
	rootCmd.AddCommand(notifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
