package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var targetsFlags struct {
	api apiFlags
}

var targetsCmd = &cobra.Command{
	Use:   "targets <entity> <attribute>",
	Short: "List a lookup attribute's target entities",
	Long: `Targets prints the candidate target entities of a lookup attribute,
one logical name per line. Polymorphic lookups list several.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(targetsFlags.api)
		if err != nil {
			return err
		}
		defer sess.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		targets, err := sess.resolver.LookupTargets(ctx, args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to load targets for %s.%s: %w", args[0], args[1], err)
		}
		if len(targets) == 0 {
			fmt.Fprintln(os.Stderr, "no targets declared")
			return nil
		}
		for _, t := range targets {
			fmt.Fprintln(os.Stdout, t)
		}
		return nil
	},
}

func init() {
	f := targetsCmd.Flags()
	f.StringVar(&targetsFlags.api.baseURL, "url", "", "Web API base URL (overrides config)")
	f.StringVar(&targetsFlags.api.cookie, "cookie", "", "raw Cookie header for session auth")
	f.StringVar(&targetsFlags.api.bearer, "bearer", "", "bearer token for Authorization header")
	f.BoolVar(&targetsFlags.api.noCache, "no-cache", false, "skip the persistent metadata cache")
}
