// Package guid normalizes and classifies record identifier strings.
//
// Dataverse-style endpoints render GUIDs inconsistently: lowercase or
// uppercase, bare or wrapped in braces or parentheses. All comparisons in
// this module are plain string equality, so every id is funneled through
// Normalize before it is stored or compared.
package guid

import (
	"regexp"
	"strings"
)

// idPattern matches an 8-4-4-4-12 hex GUID with optional enclosing braces
// or parentheses. The open and close bracket are matched independently, so
// mixed forms like "{...)"  are accepted. That looseness is intentional:
// inputs pasted from trace logs and URLs show up in every combination, and
// tightening the pattern would start rejecting ids that used to work.
var idPattern = regexp.MustCompile(`^[{(]?[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}[)}]?$`)

// bracketStripper removes every brace and parenthesis, not just a single
// enclosing pair, matching how the Web API tolerates wrapped keys.
var bracketStripper = strings.NewReplacer("{", "", "}", "", "(", "", ")", "")

// Normalize strips braces and parentheses and lowercases the input.
// It is idempotent and never fails; garbage in, lowercased garbage out.
func Normalize(raw string) string {
	return strings.ToLower(bracketStripper.Replace(raw))
}

// LooksLikeID reports whether raw is shaped like a GUID literal.
// A true result switches the caller from contains-search to exact
// fetch-by-id; it does not guarantee the record exists.
func LooksLikeID(raw string) bool {
	return idPattern.MatchString(strings.TrimSpace(raw))
}
