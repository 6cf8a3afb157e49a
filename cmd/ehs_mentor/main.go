// Package main provides the entry point for the EHS Mentor compliance service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ehs_mentor",
	Short: "EHS training compliance service",
	Long:  "EHS Mentor maps regulatory safety documents to training courses, promotes compliance rules, and keeps workforce training assignments in sync.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
