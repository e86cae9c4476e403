// Package main is the entry point for the combat service
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "combat-api",
	Short: "Combat resolution service",
	Long:  `combat-api resolves turn-based combat for game servers: sessions, turn scheduling, action resolution, and rewards, backed by Redis.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}
