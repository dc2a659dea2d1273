package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"playtime/internal/resultcache"
)

type cacheEntryJSON struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	SteamAppID int64     `json:"steam_app_id,omitempty"`
	Found      bool      `json:"found"`
	Freshness  string    `json:"freshness"`
	StoredAt   string    `json:"stored_at"`
	Game       *gameJSON `json:"game,omitempty"`
}

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the result cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached lookups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				items := make([]cacheEntryJSON, 0, len(entries))
				for _, entry := range entries {
					items = append(items, toCacheEntryJSON(store, entry))
				}
				return writeJSON(cmd, items)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				match := "(no match)"
				if entry.Found {
					match = fmt.Sprintf("%s [%d]", entry.Game.Name, entry.Game.ID)
				}
				steam := ""
				if entry.SteamAppID > 0 {
					steam = strconv.FormatInt(entry.SteamAppID, 10)
				}
				rows = append(rows, []string{
					strconv.FormatInt(entry.ID, 10),
					entry.Title,
					steam,
					match,
					formatDuration(entry.Game.MainSeconds),
					store.Classify(entry).String(),
					humanize.Time(entry.StoredAt),
				})
			}
			writeRows(cmd,
				[]string{"ID", "Title", "Steam", "Match", "Main", "Freshness", "Stored"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func toCacheEntryJSON(store *resultcache.Store, entry resultcache.Entry) cacheEntryJSON {
	item := cacheEntryJSON{
		ID:         entry.ID,
		Title:      entry.Title,
		SteamAppID: entry.SteamAppID,
		Found:      entry.Found,
		Freshness:  store.Classify(entry).String(),
		StoredAt:   entry.StoredAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if entry.Found {
		game := toGameJSON(entry.Game)
		item.Game = &game
	}
	return item
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove one cached lookup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry id %q", args[0])
			}
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Remove(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("cache entry %d not found", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed cache entry %d\n", id)
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached lookup",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cache entries\n", removed)
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Drop expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			pruned, err := store.Prune(cmd.Context())
			if err != nil {
				return err
			}
			if pruned == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cache entries pruned")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired cache entries\n", pruned)
			return nil
		},
	}
}
