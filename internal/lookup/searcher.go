package lookup

import (
	"context"
	"errors"
	"fmt"

	"github.com/runger/dvpick/internal/guid"
	"github.com/runger/dvpick/internal/metadata"
	"github.com/runger/dvpick/internal/odata"
	"github.com/runger/dvpick/internal/webapi"
)

// ErrMetadataUnavailable wraps resolver failures so the model can show the
// degraded-mode message instead of the generic transport one.
var ErrMetadataUnavailable = errors.New("entity metadata unavailable")

// Request describes one search session's query against a single target.
type Request struct {
	RequestID uint64 // generation id, echoed for stale detection
	Term      string // trimmed user input; empty = browse mode
	ByID      bool   // Term is GUID-shaped; fetch exactly one record
	Target    string // target entity logical name
	Top       int    // fixed page size
	WithCount bool   // ask for @odata.count on filtered queries
}

// Response carries mapped results back to the model. Count is -1 when no
// count was requested or returned.
type Response struct {
	RequestID uint64
	Results   []SearchResult
	Count     int64
}

// Searcher executes one search request. Implementations must honor ctx
// cancellation; stale completions are discarded by generation id on the
// model side, not here.
type Searcher interface {
	Search(ctx context.Context, req Request) (Response, error)
}

// WebAPISearcher implements Searcher against the OData Web API, resolving
// entity metadata through the (cached) resolver on every call.
type WebAPISearcher struct {
	client   *webapi.Client
	resolver metadata.Resolver
	base     string
}

// Compile-time check that WebAPISearcher implements Searcher.
var _ Searcher = (*WebAPISearcher)(nil)

// NewWebAPISearcher creates a searcher for the given API base URL.
func NewWebAPISearcher(client *webapi.Client, resolver metadata.Resolver, base string) *WebAPISearcher {
	return &WebAPISearcher{client: client, resolver: resolver, base: base}
}

// Search resolves the target's descriptor, builds the query and executes
// it. A by-id request returns at most one result; webapi.ErrNotFound
// passes through untouched so the model can map it to the specific
// "no record with that id" message.
func (s *WebAPISearcher) Search(ctx context.Context, req Request) (Response, error) {
	d, err := s.resolver.Resolve(ctx, req.Target)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrMetadataUnavailable, err)
	}
	if d == nil {
		return Response{}, ErrMetadataUnavailable
	}

	sel := []string{d.PrimaryIDAttribute}
	if d.PrimaryNameAttribute != "" {
		sel = append(sel, d.PrimaryNameAttribute)
	}

	if req.ByID {
		url := odata.BuildByIDURL(s.base, d.EntitySetName, guid.Normalize(req.Term), sel)
		rec, err := s.client.FetchRecord(ctx, url)
		if err != nil {
			return Response{}, err
		}
		return Response{
			RequestID: req.RequestID,
			Results:   []SearchResult{mapRow(rec, d)},
			Count:     -1,
		}, nil
	}

	lq := odata.BuildListURL(s.base, odata.ListQuery{
		EntitySet:  d.EntitySetName,
		Select:     sel,
		FilterAttr: d.PrimaryNameAttribute,
		Term:       req.Term,
		OrderBy:    d.PrimaryNameAttribute,
		Top:        req.Top,
		WithCount:  req.WithCount,
	})
	list, err := s.client.FetchList(ctx, lq.URL, lq.Eventual)
	if err != nil {
		return Response{}, err
	}
	return Response{
		RequestID: req.RequestID,
		Results:   mapRows(list.Rows, d),
		Count:     list.Count,
	}, nil
}
