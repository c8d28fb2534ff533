package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"

	"github.com/runger/dvpick/internal/lookup"
)

// expandExecArgs splits the template shell-style and substitutes the
// {id}, {name} and {entity} placeholders per argument. Substitution
// happens after splitting, so record values never reach a shell parser.
func expandExecArgs(template string, r lookup.SearchResult) ([]string, error) {
	args, err := shlex.Split(template)
	if err != nil {
		return nil, fmt.Errorf("invalid command template: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command template")
	}

	repl := strings.NewReplacer(
		"{id}", r.RecordID,
		"{name}", r.DisplayName,
		"{entity}", r.LogicalName,
	)
	for i, a := range args {
		args[i] = repl.Replace(a)
	}
	return args, nil
}

// runExec runs the --exec command with the picked record substituted in.
// The command runs directly, without a shell.
func runExec(template string, r lookup.SearchResult) error {
	args, err := expandExecArgs(template, r)
	if err != nil {
		return err
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = os.Stderr // stdout is reserved for the pick result
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
