package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/pawswipe/internal/app"
	"github.com/five82/pawswipe/internal/onboarding"
	"github.com/five82/pawswipe/internal/queue"
)

type statusReport struct {
	APIURL     string        `json:"api_url"`
	StatePath  string        `json:"state_path"`
	Filters    string        `json:"filters"`
	Query      string        `json:"query"`
	Onboarded  bool          `json:"onboarded"`
	Decisions  int           `json:"decisions"`
	Cursor     *queue.Cursor `json:"cursor,omitempty"`
	Matches    *int          `json:"matches,omitempty"`
	MatchError string        `json:"match_error,omitempty"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show filters, decisions and onboarding state",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().Bool("json", false, "Print JSON")
	cmd.Flags().Bool("remote", false, "Also ask the API how many dogs match the filters")

	rootCmd.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	remote, _ := cmd.Flags().GetBool("remote")

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	report := buildStatus(cmd.Context(), svc, remote)

	out := cmd.OutOrStdout()
	if asJSON {
		b, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode status: %w", err)
		}
		fmt.Fprintln(out, string(b))
		return nil
	}

	fmt.Fprintf(out, "API:         %s\n", report.APIURL)
	fmt.Fprintf(out, "State:       %s\n", report.StatePath)
	fmt.Fprintf(out, "Filters:     %s\n", report.Filters)
	fmt.Fprintf(out, "Onboarded:   %t\n", report.Onboarded)
	fmt.Fprintf(out, "Decisions:   %d\n", report.Decisions)
	if report.Cursor != nil {
		fmt.Fprintf(out, "Cursor:      offset %d, index %d (%s)\n", report.Cursor.Offset, report.Cursor.Index, report.Cursor.Query)
	}
	switch {
	case report.Matches != nil:
		fmt.Fprintf(out, "Matches:     %d\n", *report.Matches)
	case report.MatchError != "":
		fmt.Fprintf(out, "Matches:     unavailable (%s)\n", report.MatchError)
	}
	return nil
}

func buildStatus(ctx context.Context, svc *app.Services, remote bool) statusReport {
	fs := svc.Filters.Load()
	rec, _ := onboarding.LoadRecord(svc.KV)

	report := statusReport{
		APIURL:    svc.Config.APIURL,
		StatePath: svc.Config.StatePath(),
		Filters:   fs.String(),
		Query:     fs.QueryString(),
		Onboarded: rec.Completed,
		Decisions: svc.Decisions.Len(),
	}
	if cursor, ok := queue.LoadCursor(svc.KV); ok {
		report.Cursor = &cursor
	}

	if remote && fs.IsValid() {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		count, err := svc.Client.CountDogs(ctx, fs.Query(0, 0, false))
		if err != nil {
			report.MatchError = err.Error()
		} else {
			report.Matches = &count
		}
	}
	return report
}
