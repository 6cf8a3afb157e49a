package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkravets/ehs-mentor/internal/observability"
	"github.com/mkravets/ehs-mentor/internal/pipeline"
)

var syncAssignmentsCmd = &cobra.Command{
	Use:   "sync-assignments",
	Short: "Create missing assignments from active compliance rules",
	Long:  "Compute the set difference between what active rules require and what users already hold, and create the missing assignments. Safe to run repeatedly.",
	RunE:  runSyncAssignments,
}

var (
	syncRole    string
	syncRegion  string
	syncConfig  string
	syncVerbose bool
)

func init() {
	syncAssignmentsCmd.Flags().StringVar(&syncRole, "role", "", "Limit sync to one role name (empty = all roles)")
	syncAssignmentsCmd.Flags().StringVar(&syncRegion, "region", "", "Region filter (defaults to DEFAULT_REGION)")
	syncAssignmentsCmd.Flags().StringVar(&syncConfig, "config", "", "Path to JSON config file")
	syncAssignmentsCmd.Flags().BoolVar(&syncVerbose, "verbose", false, "Print a formatted summary to stderr")

	rootCmd.AddCommand(syncAssignmentsCmd)
}

func runSyncAssignments(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(syncConfig)
	if err != nil {
		return err
	}

	region := syncRegion
	if region == "" {
		region = cfg.Region
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Sync is pure SQL; no model client needed.
	p := pipeline.New(store, nil)

	result, err := p.SyncAssignments(ctx, syncRole, region)
	if err != nil {
		return err
	}
	if syncVerbose {
		observability.NewPrinter(os.Stderr).PrintSyncResult(result)
	}
	return printJSON(result)
}
