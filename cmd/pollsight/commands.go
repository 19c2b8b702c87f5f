package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/pollsight/internal/insight"
	"github.com/rewired-gh/pollsight/internal/models"
	"github.com/rewired-gh/pollsight/internal/seed"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Build one insight digest and send it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := signalContext()
		defer cancel()

		d, err := newDigest(a)
		if err != nil {
			return err
		}
		entries, err := d.RunOnce(ctx)
		if err != nil {
			return err
		}
		return printJSON(map[string]interface{}{"sent": entries})
	},
}

var statsFilters models.Filters

var statsCmd = &cobra.Command{
	Use:   "stats <poll-id>",
	Short: "Print a poll's statistics and insights as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		poll, st, err := a.svc.PollStats(cmd.Context(), args[0], statsFilters)
		if err != nil {
			return err
		}
		return printJSON(statsReport(a.gen, poll, st, statsFilters))
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load polls, profiles and responses from a YAML fixture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		fx, err := seed.LoadFile(args[0])
		if err != nil {
			return err
		}
		res, err := seed.Apply(cmd.Context(), a.svc, fx)
		if err != nil {
			return fmt.Errorf("seeding failed after %d polls: %w", res.Polls, err)
		}
		return printJSON(res)
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsFilters.AgeRange, "age-range", "", "Only count responders in this age range")
	statsCmd.Flags().StringVar(&statsFilters.Gender, "gender", "", "Only count responders of this gender")
	statsCmd.Flags().StringVar(&statsFilters.Region, "region", "", "Only count responders from this region")
	statsCmd.Flags().StringVar(&statsFilters.Occupation, "occupation", "", "Only count responders with this occupation")
}

// statsReport pairs stats with insights generated from the same, possibly
// filtered, population.
func statsReport(gen *insight.Generator, poll *models.Poll, st models.Stats, filters models.Filters) map[string]interface{} {
	report := map[string]interface{}{
		"poll":     poll,
		"stats":    st,
		"insights": gen.Global(poll, st),
	}
	if !filters.IsEmpty() {
		report["filters"] = filters
	}
	return report
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
