package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/dvpick/internal/lookup"
)

// Exit codes, matching what wrapper scripts expect:
//
//	0 = selection made or cleared (use the output)
//	1 = cancelled by user (keep whatever was there)
//	2 = fallback (no TTY, bad flags, transport setup failure)
const (
	exitSuccess   = 0
	exitCancelled = 1
	exitFallback  = 2
)

var pickFlags struct {
	api           apiFlags
	entity        string
	attribute     string
	targets       string
	query         string
	currentID     string
	currentName   string
	currentEntity string
	output        string
	execTemplate  string
}

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Interactively pick a record for a lookup attribute",
	Long: `Pick opens a TUI that searches records of the lookup's target entity.
Targets come from --targets, or are resolved from the attribute's metadata
when --entity and --attribute are given. The picked record reference is
written to stdout.`,
	Run: func(cmd *cobra.Command, args []string) {
		code := runPick()
		if code != exitSuccess {
			os.Exit(code)
		}
	},
}

func init() {
	f := pickCmd.Flags()
	f.StringVar(&pickFlags.api.baseURL, "url", "", "Web API base URL (overrides config)")
	f.StringVar(&pickFlags.api.cookie, "cookie", "", "raw Cookie header for session auth")
	f.StringVar(&pickFlags.api.bearer, "bearer", "", "bearer token for Authorization header")
	f.BoolVar(&pickFlags.api.noCache, "no-cache", false, "skip the persistent metadata cache")
	f.StringVar(&pickFlags.entity, "entity", "", "logical name of the entity holding the lookup attribute")
	f.StringVar(&pickFlags.attribute, "attribute", "", "logical name of the lookup attribute")
	f.StringVar(&pickFlags.targets, "targets", "", "comma-separated target logical names (skips metadata resolution)")
	f.StringVar(&pickFlags.query, "query", "", "initial search query")
	f.StringVar(&pickFlags.currentID, "current-id", "", "id of the lookup's current value")
	f.StringVar(&pickFlags.currentName, "current-name", "", "display name of the lookup's current value")
	f.StringVar(&pickFlags.currentEntity, "current-entity", "", "logical name of the current value's entity")
	f.StringVar(&pickFlags.output, "output", "plain", "output format: plain or json")
	f.StringVar(&pickFlags.execTemplate, "exec", "", "command to run with the pick; {id} {name} {entity} substituted")
}

func runPick() int {
	if pickFlags.output != "plain" && pickFlags.output != "json" {
		fmt.Fprintf(os.Stderr, "dvpick: --output must be \"plain\" or \"json\" (got %q)\n", pickFlags.output)
		return exitFallback
	}
	if pickFlags.targets == "" && (pickFlags.entity == "" || pickFlags.attribute == "") {
		fmt.Fprintln(os.Stderr, "dvpick: need either --targets or both --entity and --attribute")
		return exitFallback
	}

	query, err := sanitizeQuery(pickFlags.query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dvpick: --query: %v\n", err)
		return exitFallback
	}

	if err := checkTTY(); err != nil {
		fmt.Fprintf(os.Stderr, "dvpick: %v\n", err)
		return exitFallback
	}
	if err := checkTERM(); err != nil {
		fmt.Fprintf(os.Stderr, "dvpick: %v\n", err)
		return exitFallback
	}
	if err := checkTermWidth(); err != nil {
		fmt.Fprintf(os.Stderr, "dvpick: %v\n", err)
		return exitFallback
	}

	// One interactive picker per user at a time; a second instance would
	// fight over /dev/tty.
	if dir, err := os.UserCacheDir(); err == nil {
		lockDir := filepath.Join(dir, "dvpick")
		if err := os.MkdirAll(lockDir, 0o755); err == nil {
			fd, err := acquireLock(filepath.Join(lockDir, "picker.lock"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "dvpick: %v\n", err)
				return exitFallback
			}
			defer releaseLock(fd)
		}
	}

	sess, err := newSession(pickFlags.api)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dvpick: %v\n", err)
		return exitFallback
	}
	defer sess.Close()

	opts := lookup.Options{
		Searcher:       lookup.NewWebAPISearcher(sess.client, sess.cached, sess.base),
		ExistingTarget: pickFlags.currentEntity,
		InitialQuery:   query,
		Debounce:       time.Duration(sess.cfg.Picker.DebounceMs) * time.Millisecond,
		CloseDelay:     time.Duration(sess.cfg.Picker.CloseDelayMs) * time.Millisecond,
		PageSize:       sess.cfg.Picker.PageSize,
	}
	if pickFlags.currentID != "" {
		opts.Current = lookup.Selection{
			ID:          pickFlags.currentID,
			DisplayName: pickFlags.currentName,
			LogicalName: pickFlags.currentEntity,
		}
	}
	if pickFlags.targets != "" {
		opts.Targets = splitTargets(pickFlags.targets)
	} else {
		entity, attribute := pickFlags.entity, pickFlags.attribute
		resolver := sess.resolver
		opts.Loader = func(ctx context.Context) ([]string, error) {
			return resolver.LookupTargets(ctx, entity, attribute)
		}
	}

	// The TUI talks to /dev/tty; stdout carries the result.
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dvpick: cannot open /dev/tty: %v\n", err)
		return exitFallback
	}
	defer tty.Close()

	// When invoked via $(dvpick ...), stdout is a pipe and lipgloss would
	// default to no color. Detect the profile from the real tty instead.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	p := tea.NewProgram(lookup.NewModel(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithInput(tty),
		tea.WithOutput(tty),
	)

	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dvpick: TUI error: %v\n", err)
		return exitFallback
	}

	m, ok := finalModel.(lookup.Model)
	if !ok {
		fmt.Fprintln(os.Stderr, "dvpick: unexpected model type")
		return exitFallback
	}

	// An explicit clear counts as a result even when the session then
	// ended with escape, so check DidPick before IsCancelled.
	if !m.DidPick() {
		return exitCancelled
	}

	picked, havePick := m.Picked()
	if out := formatPick(pickFlags.output, picked, havePick); out != "" {
		fmt.Fprintln(os.Stdout, out)
	}
	if havePick {
		recordPick(picked)
	}

	if havePick && pickFlags.execTemplate != "" {
		if err := runExec(pickFlags.execTemplate, picked); err != nil {
			fmt.Fprintf(os.Stderr, "dvpick: exec: %v\n", err)
			return exitFallback
		}
	}
	return exitSuccess
}

// formatPick renders the result for stdout. A cleared selection emits
// "null" in json mode and nothing in plain mode.
func formatPick(format string, r lookup.SearchResult, havePick bool) string {
	if format == "json" {
		if !havePick {
			return "null"
		}
		out, _ := json.Marshal(map[string]string{
			"id":        r.RecordID,
			"name":      r.DisplayName,
			"entity":    r.LogicalName,
			"entitySet": r.EntitySetName,
		})
		return string(out)
	}
	if !havePick {
		return ""
	}
	return r.RecordID + "\t" + r.LogicalName + "\t" + r.DisplayName
}

func splitTargets(csv string) []string {
	var out []string
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
