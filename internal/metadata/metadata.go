// Package metadata resolves entity schema descriptors from the Web API.
//
// A Descriptor tells the search pipeline which collection to query and
// which attributes hold a record's id and display name. Descriptors are
// immutable for the life of a deployment session, so they are memoized
// in-process and optionally persisted to a local SQLite cache.
package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/runger/dvpick/internal/webapi"
)

// Descriptor is the schema info needed to query one entity type.
// PrimaryNameAttribute is empty for entities without a name attribute;
// search then degrades to browse-only (no contains filter, no orderby).
type Descriptor struct {
	LogicalName          string
	EntitySetName        string
	PrimaryIDAttribute   string
	PrimaryNameAttribute string
}

// Resolver resolves schema descriptors by entity logical name.
// A nil descriptor or an error both mean "metadata unavailable" and are
// surfaced to the user as a recoverable condition.
type Resolver interface {
	Resolve(ctx context.Context, logicalName string) (*Descriptor, error)
}

// WebAPIResolver fetches descriptors from the EntityDefinitions endpoint.
type WebAPIResolver struct {
	client *webapi.Client
	base   string
}

// NewWebAPIResolver creates a resolver against the given API base URL
// (trailing slash included, e.g. https://org.crm.dynamics.com/api/data/v9.2/).
func NewWebAPIResolver(client *webapi.Client, base string) *WebAPIResolver {
	return &WebAPIResolver{client: client, base: base}
}

// Resolve fetches LogicalName, EntitySetName and the primary attributes
// for one entity type.
func (r *WebAPIResolver) Resolve(ctx context.Context, logicalName string) (*Descriptor, error) {
	url := r.base + "EntityDefinitions(LogicalName='" + logicalName +
		"')?$select=LogicalName,EntitySetName,PrimaryIdAttribute,PrimaryNameAttribute"

	rec, err := r.client.FetchRecord(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("metadata: resolve %s: %w", logicalName, err)
	}

	d := &Descriptor{
		LogicalName:          stringField(rec, "LogicalName"),
		EntitySetName:        stringField(rec, "EntitySetName"),
		PrimaryIDAttribute:   stringField(rec, "PrimaryIdAttribute"),
		PrimaryNameAttribute: stringField(rec, "PrimaryNameAttribute"),
	}
	if d.LogicalName == "" {
		d.LogicalName = logicalName
	}
	if d.EntitySetName == "" || d.PrimaryIDAttribute == "" {
		return nil, fmt.Errorf("metadata: incomplete descriptor for %s", logicalName)
	}
	return d, nil
}

// LookupTargets fetches the candidate target entity logical names of a
// polymorphic lookup attribute. Single-target lookups return one name.
func (r *WebAPIResolver) LookupTargets(ctx context.Context, entity, attribute string) ([]string, error) {
	url := r.base + "EntityDefinitions(LogicalName='" + entity +
		"')/Attributes(LogicalName='" + attribute +
		"')/Microsoft.Dynamics.CRM.LookupAttributeMetadata?$select=Targets"

	rec, err := r.client.FetchRecord(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("metadata: targets of %s.%s: %w", entity, attribute, err)
	}

	raw, _ := rec["Targets"].([]any)
	targets := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			targets = append(targets, s)
		}
	}
	return targets, nil
}

func stringField(rec map[string]any, key string) string {
	s, _ := rec[key].(string)
	return s
}
