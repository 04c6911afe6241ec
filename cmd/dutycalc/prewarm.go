package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tariffdesk/dutycalc/internal/refdata"
	"github.com/tariffdesk/dutycalc/internal/rules"
)

func prewarmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prewarm",
		Short: "Download high-traffic chapters into the local cache",
		Long: `Download the shards for the highest import-volume chapters so lookups
work offline. Chapters are fetched in priority order; already-cached shards
are skipped.`,
		RunE: runPrewarm,
	}

	cmd.Flags().StringSlice("chapters", nil, "chapters to warm (default: the built-in priority list)")

	return cmd
}

func runPrewarm(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	chapters, _ := cmd.Flags().GetStringSlice("chapters")
	if len(chapters) == 0 {
		chapters = rules.Default().PriorityChapters()
	}

	svc, store, err := buildRefdata()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	total, err := svc.PrewarmShardCount(ctx, chapters)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Println("No shards cover the requested chapters")
		return nil
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Warming shard cache"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	err = svc.Prewarm(ctx, chapters, func(_ refdata.PrewarmProgress) {
		_ = bar.Add(1)
	})
	if err != nil {
		return err
	}

	cached, err := store.Filenames(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Cache warm: %d shards on disk\n", len(cached))
	return nil
}
