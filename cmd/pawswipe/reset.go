package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/pawswipe/internal/onboarding"
	"github.com/five82/pawswipe/internal/storage"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget decisions, onboarding or saved filters",
		Args:  cobra.NoArgs,
		RunE:  runReset,
	}
	cmd.Flags().Bool("decisions", false, "Forget every liked and passed dog")
	cmd.Flags().Bool("onboarding", false, "Show the onboarding wizard again")
	cmd.Flags().Bool("filters", false, "Clear saved filters")
	cmd.Flags().Bool("all", false, "Reset everything")

	rootCmd.AddCommand(cmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	all, _ := cmd.Flags().GetBool("all")
	decisions, _ := cmd.Flags().GetBool("decisions")
	onboard, _ := cmd.Flags().GetBool("onboarding")
	clearFilters, _ := cmd.Flags().GetBool("filters")
	if all {
		decisions, onboard, clearFilters = true, true, true
	}
	if !decisions && !onboard && !clearFilters {
		return errors.New("nothing to reset: pass --decisions, --onboarding, --filters or --all")
	}

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	out := cmd.OutOrStdout()
	if decisions {
		n := svc.Decisions.Len()
		svc.Decisions.Reset()
		fmt.Fprintf(out, "forgot %d decisions\n", n)
	}
	if onboard {
		onboarding.Reset(svc.KV)
		fmt.Fprintln(out, "onboarding will run on next start")
	}
	if clearFilters {
		svc.Filters.Clear()
		fmt.Fprintln(out, "cleared filters")
	}
	// The saved position no longer matches what the queue will load.
	svc.KV.Remove(storage.KeyCursor)
	return nil
}
