package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/dvpick/internal/history"
	"github.com/runger/dvpick/internal/lookup"
)

var recentFlags struct {
	entity string
	limit  int
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently picked records",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := history.DefaultPath()
		if err != nil {
			return err
		}
		store, err := history.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		entries, err := store.Recent(ctx, recentFlags.entity, recentFlags.limit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(os.Stdout, "%s\t%s\t%s\t%s\n",
				e.PickedAt.Format(time.RFC3339), e.RecordID, e.LogicalName, e.DisplayName)
		}
		return nil
	},
}

func init() {
	f := recentCmd.Flags()
	f.StringVar(&recentFlags.entity, "entity", "", "only show picks of this entity")
	f.IntVar(&recentFlags.limit, "limit", 20, "maximum number of picks to show")
}

// recordPick appends the pick to the history database. History is a
// convenience, so failures never affect the pick result.
func recordPick(r lookup.SearchResult) {
	path, err := history.DefaultPath()
	if err != nil {
		return
	}
	store, err := history.Open(path)
	if err != nil {
		return
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = store.Record(ctx, history.Entry{
		RecordID:    r.RecordID,
		DisplayName: r.DisplayName,
		LogicalName: r.LogicalName,
	})
}
