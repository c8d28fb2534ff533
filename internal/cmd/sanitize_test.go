package cmd

import (
	"strings"
	"testing"
)

func TestSanitizeQuery_Empty(t *testing.T) {
	result, err := sanitizeQuery("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "" {
		t.Fatalf("expected empty string, got %q", result)
	}
}

func TestSanitizeQuery_PlainText(t *testing.T) {
	result, err := sanitizeQuery("contoso ltd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "contoso ltd" {
		t.Fatalf("expected %q, got %q", "contoso ltd", result)
	}
}

func TestSanitizeQuery_StripControlChars(t *testing.T) {
	// 0x01 (SOH), 0x02 (STX), 0x07 (BEL) should be stripped
	result, err := sanitizeQuery("con\x01\x02\x07toso")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "contoso" {
		t.Fatalf("expected %q, got %q", "contoso", result)
	}
}

func TestSanitizeQuery_PreserveTab(t *testing.T) {
	result, err := sanitizeQuery("con\ttoso")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "con\ttoso" {
		t.Fatalf("expected tab to be preserved, got %q", result)
	}
}

func TestSanitizeQuery_RejectNewline(t *testing.T) {
	_, err := sanitizeQuery("con\ntoso")
	if err == nil {
		t.Fatal("expected error for newline in query")
	}
	if !strings.Contains(err.Error(), "newline") {
		t.Fatalf("expected error about newlines, got: %v", err)
	}
}

func TestSanitizeQuery_RejectCarriageReturn(t *testing.T) {
	_, err := sanitizeQuery("con\rtoso")
	if err == nil {
		t.Fatal("expected error for carriage return in query")
	}
}

func TestSanitizeQuery_TruncateLong(t *testing.T) {
	input := strings.Repeat("a", 5000)
	result, err := sanitizeQuery(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != maxQueryLen {
		t.Fatalf("expected %d bytes after truncation, got %d", maxQueryLen, len(result))
	}
}

func TestSanitizeQuery_GUIDPassesThrough(t *testing.T) {
	in := "{A1B2C3D4-0000-0000-0000-000000000000}"
	result, err := sanitizeQuery(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != in {
		t.Fatalf("expected GUID unchanged, got %q", result)
	}
}
