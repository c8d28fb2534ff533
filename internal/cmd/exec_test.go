package cmd

import (
	"testing"

	"github.com/runger/dvpick/internal/lookup"
)

var execResult = lookup.SearchResult{
	RecordID:    "a1b2c3d4-0000-0000-0000-000000000000",
	DisplayName: "Contoso Ltd",
	LogicalName: "account",
}

func TestExpandExecArgs_Substitution(t *testing.T) {
	args, err := expandExecArgs("notify-send {entity} '{name} ({id})'", execResult)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"notify-send",
		"account",
		"Contoso Ltd (a1b2c3d4-0000-0000-0000-000000000000)",
	}
	if len(args) != len(want) {
		t.Fatalf("expected %d args, got %d: %v", len(want), len(args), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: expected %q, got %q", i, want[i], args[i])
		}
	}
}

func TestExpandExecArgs_NoShellInterpretation(t *testing.T) {
	// A hostile display name must stay a single argv element.
	r := execResult
	r.DisplayName = "x; rm -rf /"
	args, err := expandExecArgs("handler {name}", r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d: %v", len(args), args)
	}
	if args[1] != "x; rm -rf /" {
		t.Fatalf("expected literal value, got %q", args[1])
	}
}

func TestExpandExecArgs_Empty(t *testing.T) {
	if _, err := expandExecArgs("", execResult); err == nil {
		t.Fatal("expected error for empty template")
	}
}

func TestExpandExecArgs_UnbalancedQuote(t *testing.T) {
	if _, err := expandExecArgs("handler 'oops", execResult); err == nil {
		t.Fatal("expected error for unbalanced quote")
	}
}
