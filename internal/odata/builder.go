// Package odata assembles OData v4 query URLs for the Web API.
//
// Construction is pure string work: nothing here performs I/O or validates
// that the entity set exists. Callers own the contract that entitySet is
// non-empty and that ids have been normalized first.
package odata

import (
	"strconv"
	"strings"
)

// ListQuery describes a collection query against one entity set.
type ListQuery struct {
	EntitySet  string
	Select     []string // projected attributes, order preserved
	FilterAttr string   // attribute for the contains() filter; empty = no filter
	Term       string   // user search term; blank after trimming = no filter
	OrderBy    string   // attribute for ascending $orderby; empty = none
	Top        int      // fixed page size, no continuation support
	WithCount  bool     // request @odata.count (only honored with a filter)
}

// ListURL is the assembled query plus the consistency requirement the
// caller must translate into a ConsistencyLevel header. Indexed contains()
// queries are only served under eventual consistency, so the flag is set
// exactly when a text filter made it into the URL.
type ListURL struct {
	URL      string
	Eventual bool
}

// BuildListURL assembles {base}{entitySet}?$select=...&$filter=...&$orderby=...
// The contains() filter is emitted only when both a filter attribute and a
// non-blank trimmed term are present; $count rides along only with a filter.
func BuildListURL(base string, q ListQuery) ListURL {
	var parts []string

	if sel := joinSelect(q.Select); sel != "" {
		parts = append(parts, "$select="+sel)
	}

	term := strings.TrimSpace(q.Term)
	filtered := q.FilterAttr != "" && term != ""
	if filtered {
		parts = append(parts, "$filter=contains("+q.FilterAttr+",'"+escapeTerm(term)+"')")
	}
	// The space before "asc" must be percent-encoded: the URL goes onto
	// the request line verbatim, and a raw space splits it.
	if q.OrderBy != "" {
		parts = append(parts, "$orderby="+q.OrderBy+"%20asc")
	}
	parts = append(parts, "$top="+strconv.Itoa(q.Top))
	if filtered && q.WithCount {
		parts = append(parts, "$count=true")
	}

	return ListURL{
		URL:      base + q.EntitySet + "?" + strings.Join(parts, "&"),
		Eventual: filtered,
	}
}

// BuildByIDURL assembles a single-record fetch: {base}{entitySet}({id})?$select=...
// The id must already be normalized (no braces, lowercase).
func BuildByIDURL(base, entitySet, id string, sel []string) string {
	u := base + entitySet + "(" + id + ")"
	if s := joinSelect(sel); s != "" {
		u += "?$select=" + s
	}
	return u
}

// EscapeLiteral doubles single quotes per the OData string-literal rule,
// so a term like O'Brien becomes O''Brien inside the filter expression.
func EscapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// termEscaper percent-encodes the few characters that would corrupt the
// raw query string if passed through literally. Everything else stays
// readable; the Web API accepts unencoded commas, parens and quotes.
var termEscaper = strings.NewReplacer(
	"%", "%25",
	" ", "%20",
	"#", "%23",
	"&", "%26",
	"+", "%2B",
	";", "%3B",
)

func escapeTerm(term string) string {
	return termEscaper.Replace(EscapeLiteral(term))
}

// joinSelect joins the projection list, dropping blanks and duplicates
// while preserving first-seen order.
func joinSelect(fields []string) string {
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return strings.Join(out, ",")
}
