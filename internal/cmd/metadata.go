package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var metadataFlags struct {
	api apiFlags
}

var metadataCmd = &cobra.Command{
	Use:   "metadata <logical-name>",
	Short: "Show resolved entity metadata",
	Long: `Metadata resolves and prints the entity set name and the primary id
and name attributes for an entity, going through the same cache the
picker uses.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(metadataFlags.api)
		if err != nil {
			return err
		}
		defer sess.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		desc, err := sess.cached.Resolve(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", args[0], err)
		}

		fmt.Fprintf(os.Stdout, "logical name:   %s\n", desc.LogicalName)
		fmt.Fprintf(os.Stdout, "entity set:     %s\n", desc.EntitySetName)
		fmt.Fprintf(os.Stdout, "primary id:     %s\n", desc.PrimaryIDAttribute)
		fmt.Fprintf(os.Stdout, "primary name:   %s\n", desc.PrimaryNameAttribute)
		return nil
	},
}

func init() {
	f := metadataCmd.Flags()
	f.StringVar(&metadataFlags.api.baseURL, "url", "", "Web API base URL (overrides config)")
	f.StringVar(&metadataFlags.api.cookie, "cookie", "", "raw Cookie header for session auth")
	f.StringVar(&metadataFlags.api.bearer, "bearer", "", "bearer token for Authorization header")
	f.BoolVar(&metadataFlags.api.noCache, "no-cache", false, "skip the persistent metadata cache")
}
