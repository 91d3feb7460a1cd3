package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errInconsistentStats = errors.New("daily statistics are inconsistent")

// panelctl check-daily
func newCheckDailyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-daily",
		Short: "Check that daily statistics add up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := root.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			issues, err := svc.CheckDailyStats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintln(out, "daily statistics are consistent")
				return nil
			}
			for _, issue := range issues {
				fmt.Fprintf(out, "%s: %v\n", issue.Date, issue.Err)
			}
			return fmt.Errorf("%w: %d day(s)", errInconsistentStats, len(issues))
		},
	}
}

// panelctl summary
func newSummaryCmd(root *rootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print totals of daily statistics for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := root.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			sum, err := svc.Summary(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start of period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end of period (YYYY-MM-DD)")

	return cmd
}
