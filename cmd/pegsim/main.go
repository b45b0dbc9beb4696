package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/pegsync/internal/season"
	"github.com/okian/pegsync/pkg/logger"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:     "pegsim",
		Short:   "Simulate a season of peg draws against a pegsync service",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(logLevel)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(runCmd())
	root.AddCommand(rosterCmd())
	return root
}

func runCmd() *cobra.Command {
	cfg := &season.Config{}
	var start string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulated season and print the fairness score per day",
		Long: `Generates a roster, then for each shoot day picks who attends,
requests an allocation, saves it as history and reads back the
roster's fairness score.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if start != "" {
				t, err := time.Parse(time.DateOnly, start)
				if err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
				cfg.Start = t
			}
			rep, err := season.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return season.WriteTable(cmd.OutOrStdout(), rep)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.BaseURL, "url", "u", "http://localhost:9080", "Base URL of the service")
	f.IntVarP(&cfg.Members, "members", "m", season.DefaultMembers, "Roster size")
	f.IntVarP(&cfg.Days, "days", "d", season.DefaultDays, "Shoot days to simulate")
	f.IntVarP(&cfg.Slots, "slots", "s", season.DefaultSlots, "Pegs per day")
	f.Float64Var(&cfg.Attendance, "attendance", season.DefaultAttendance, "Probability a member attends a day")
	f.StringVar(&cfg.Mode, "mode", "fair", "Allocation mode (fair, random)")
	f.Uint64Var(&cfg.Seed, "seed", 0, "Roster and attendance seed (0 picks one)")
	f.StringVar(&start, "start", "", "Date of the first shoot day, YYYY-MM-DD (default today)")
	f.DurationVar(&cfg.Interval, "interval", season.DefaultInterval, "Gap between shoot days")
	f.DurationVar(&cfg.Timeout, "timeout", season.DefaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.SettleWait, "settle", season.DefaultSettleWait, "How long to wait for a save to persist")
	f.StringVarP(&cfg.Output, "output", "o", "", "Write the JSON report to this file")

	return cmd
}

func rosterCmd() *cobra.Command {
	var (
		n    int
		seed uint64
	)
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Print a generated roster as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if n < 1 {
				return fmt.Errorf("--members must be positive")
			}
			if seed == 0 {
				seed = rand.Uint64()
			}
			rng := rand.New(rand.NewPCG(seed, seed>>1|1)) //nolint:gosec // simulation only
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(season.NewRoster(rng, n))
		},
	}
	cmd.Flags().IntVarP(&n, "members", "m", season.DefaultMembers, "Roster size")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Name seed (0 picks one)")
	return cmd
}
