package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <prefix>",
		Short: "Search classification codes by prefix",
		Long: `List classification codes starting with a digit prefix, sorted ascending.

Example:
  dutycalc search 8541 --limit 20`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntP("limit", "n", 50, "maximum number of results")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")

	svc, store, err := buildRefdata()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	results, err := svc.SearchByPrefix(ctx, args[0], limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No classification codes match %q\n", args[0])
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\n", r.Code, r.Description)
	}
	return w.Flush()
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the loaded data set revision and cache state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			svc, store, err := buildRefdata()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := svc.Initialize(ctx); err != nil {
				return err
			}

			cached, err := store.Filenames(ctx)
			if err != nil {
				return err
			}

			index := svc.Index()
			fmt.Printf("HTS revision:       %s\n", svc.HTSRevision())
			fmt.Printf("Last updated:       %s\n", svc.LastUpdated())
			fmt.Printf("Segmentation date:  %s\n", index.Metadata.SegmentationDate)
			fmt.Printf("Total entries:      %d\n", index.Metadata.TotalEntries)
			fmt.Printf("Shards published:   %d\n", len(index.AllFiles()))
			fmt.Printf("Shards cached:      %d\n", len(cached))
			return nil
		},
	}
}
