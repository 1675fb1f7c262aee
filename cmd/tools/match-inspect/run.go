package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"company-matching/internal/activity"
	"company-matching/internal/common/config"
	"company-matching/internal/common/database"
	"company-matching/internal/common/logger"
	"company-matching/internal/matching"
	"company-matching/internal/repository"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run matching for one requester company and print the response",
	RunE:  runMatch,
}

var (
	runCompanyID       string
	runLimit           int
	runExcludeExisting bool
	runLayout          string
	runRecord          bool
	runTimeout         time.Duration
)

func init() {
	runCmd.Flags().StringVarP(&runCompanyID, "company", "i", "", "Requester company ID (required)")
	runCmd.Flags().IntVarP(&runLimit, "limit", "n", 0, "Maximum number of matches (0 uses the configured default)")
	runCmd.Flags().BoolVar(&runExcludeExisting, "exclude-existing", false, "Drop companies already connected to the requester")
	runCmd.Flags().StringVar(&runLayout, "layout", string(matching.LayoutDetailed), "Result layout: detailed or compact")
	runCmd.Flags().BoolVar(&runRecord, "record", false, "Append the run to the activity log")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Second, "Overall run timeout")

	if err := runCmd.MarkFlagRequired("company"); err != nil {
		panic(fmt.Sprintf("failed to mark company flag as required: %v", err))
	}

	rootCmd.AddCommand(runCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.NewZapAdapter(logger.New("warn", "console", "stderr"))

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return fmt.Errorf("failed to open postgres: %w", err)
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach postgres: %w", err)
	}
	store := repository.NewPostgresStore(pg.DB)

	var sinks []activity.Sink
	if runRecord {
		sinks = append(sinks, activity.NewPostgresSink(store))
	}
	dispatcher := activity.NewDispatcher(activity.DefaultConfig(), log, sinks...)
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		_ = dispatcher.Close(closeCtx)
	}()

	engine := matching.NewEngine(engineConfig(cfg), store, store, dispatcher, log)

	resp, err := engine.FindMatches(ctx, matching.MatchRequest{
		RequesterCompanyID: runCompanyID,
		Limit:              runLimit,
		ExcludeExisting:    runExcludeExisting,
		Layout:             matching.Layout(runLayout),
	})
	if err != nil {
		return fmt.Errorf("matching failed: %w", err)
	}

	return writeJSON(cmd.OutOrStdout(), resp)
}

func engineConfig(cfg *config.Config) matching.Config {
	return matching.Config{
		DefaultLimit:     cfg.Matching.DefaultLimit,
		MaxLimit:         cfg.Matching.MaxLimit,
		PoolCap:          cfg.Matching.PoolCap,
		ScoringWorkers:   cfg.Matching.ScoringWorkers,
		SlowRunThreshold: config.GetDuration(cfg.Matching.SlowRunThreshold),
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}
