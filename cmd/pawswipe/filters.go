package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/pawswipe/internal/filters"
)

func init() {
	filtersCmd := &cobra.Command{
		Use:   "filters",
		Short: "Show or change the saved search filters",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved filters",
		Args:  cobra.NoArgs,
		RunE:  runFiltersShow,
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the saved filters",
		Args:  cobra.NoArgs,
		RunE:  runFiltersSet,
	}
	set.Flags().String("country", "", "Country code or name (required)")
	set.Flags().StringSlice("size", nil, "Size: "+strings.Join(filters.Sizes, ", ")+" (repeatable)")
	set.Flags().StringSlice("age", nil, "Age: "+strings.Join(filters.Ages, ", ")+" (repeatable)")
	_ = set.MarkFlagRequired("country")

	catalog := &cobra.Command{
		Use:   "catalog",
		Short: "List the supported countries, sizes and ages",
		Args:  cobra.NoArgs,
		Run:   runFiltersCatalog,
	}

	filtersCmd.AddCommand(show, set, catalog)
	rootCmd.AddCommand(filtersCmd)
}

func runFiltersShow(cmd *cobra.Command, _ []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	fs := svc.Filters.Load()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, fs.String())
	if fs.IsValid() {
		fmt.Fprintln(out, fs.QueryString())
	}
	return nil
}

func runFiltersSet(cmd *cobra.Command, _ []string) error {
	country, _ := cmd.Flags().GetString("country")
	sizes, _ := cmd.Flags().GetStringSlice("size")
	ages, _ := cmd.Flags().GetStringSlice("age")

	fs, err := parseFilters(country, sizes, ages)
	if err != nil {
		return err
	}

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	svc.Filters.Set(fs)
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", fs)
	return nil
}

func runFiltersCatalog(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Countries:")
	for _, c := range filters.Countries {
		fmt.Fprintf(out, "  %s  %s\n", c.Code, c.Name)
	}
	fmt.Fprintf(out, "Sizes: %s\n", strings.Join(filters.Sizes, ", "))
	fmt.Fprintf(out, "Ages:  %s\n", strings.Join(filters.Ages, ", "))
}

// parseFilters validates flag values against the catalog.
func parseFilters(country string, sizes, ages []string) (filters.FilterSet, error) {
	code, ok := filters.CountryCode(country)
	if !ok {
		return filters.FilterSet{}, fmt.Errorf("unknown country %q (see `pawswipe filters catalog`)", country)
	}
	fs := filters.New(code, sizes, ages)
	for _, s := range fs.Sizes {
		if !slices.Contains(filters.Sizes, s) {
			return filters.FilterSet{}, fmt.Errorf("unknown size %q", s)
		}
	}
	for _, a := range fs.Ages {
		if !slices.Contains(filters.Ages, a) {
			return filters.FilterSet{}, fmt.Errorf("unknown age %q", a)
		}
	}
	return fs, nil
}
