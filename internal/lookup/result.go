// Package lookup implements the interactive lookup-record picker: a
// debounced, cancellation-aware search over one target entity of a lookup
// attribute, with keyboard-driven result navigation and a single selection
// slot that is reported to the caller on every change.
package lookup

import (
	"strings"

	"github.com/runger/dvpick/internal/guid"
	"github.com/runger/dvpick/internal/metadata"
)

// SearchResult is one row of a search, reduced to the uniform shape the
// picker works with. RecordID is always normalized (no brackets,
// lowercase) so equality is plain string comparison.
type SearchResult struct {
	RecordID      string
	DisplayName   string
	LogicalName   string
	EntitySetName string
}

// Selection is the picker's current value. The zero value means "no
// record selected".
type Selection struct {
	ID          string
	DisplayName string
	LogicalName string
}

// IsSet reports whether a record is currently selected.
func (s Selection) IsSet() bool {
	return s.ID != ""
}

// mapRow converts one raw Web API row into a SearchResult using the
// entity descriptor. DisplayName never ends up empty: entities without a
// name attribute (or with a blank name value) fall back to the uppercase
// record id so every row stays visible and pickable.
func mapRow(row map[string]any, d *metadata.Descriptor) SearchResult {
	id := guid.Normalize(stringValue(row[d.PrimaryIDAttribute]))

	name := ""
	if d.PrimaryNameAttribute != "" {
		name = strings.TrimSpace(stringValue(row[d.PrimaryNameAttribute]))
	}
	if name == "" {
		name = strings.ToUpper(id)
	}

	return SearchResult{
		RecordID:      id,
		DisplayName:   name,
		LogicalName:   d.LogicalName,
		EntitySetName: d.EntitySetName,
	}
}

// mapRows converts a batch of rows, preserving server order.
func mapRows(rows []map[string]any, d *metadata.Descriptor) []SearchResult {
	out := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapRow(row, d))
	}
	return out
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
