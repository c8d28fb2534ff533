package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/dvpick/internal/webapi"
)

func TestWebAPIResolver_Resolve(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.RequestURI()
		w.Write([]byte(`{
			"LogicalName": "account",
			"EntitySetName": "accounts",
			"PrimaryIdAttribute": "accountid",
			"PrimaryNameAttribute": "name"
		}`))
	}))
	defer srv.Close()

	r := NewWebAPIResolver(webapi.NewClient(), srv.URL+"/")
	d, err := r.Resolve(context.Background(), "account")
	require.NoError(t, err)

	assert.Equal(t, "accounts", d.EntitySetName)
	assert.Equal(t, "accountid", d.PrimaryIDAttribute)
	assert.Equal(t, "name", d.PrimaryNameAttribute)
	assert.Contains(t, path, "EntityDefinitions(LogicalName='account')")
	assert.Contains(t, path, "$select=LogicalName,EntitySetName,PrimaryIdAttribute,PrimaryNameAttribute")
}

func TestWebAPIResolver_MissingNameAttribute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"LogicalName": "activitymimeattachment",
			"EntitySetName": "activitymimeattachments",
			"PrimaryIdAttribute": "attachmentid",
			"PrimaryNameAttribute": null
		}`))
	}))
	defer srv.Close()

	r := NewWebAPIResolver(webapi.NewClient(), srv.URL+"/")
	d, err := r.Resolve(context.Background(), "activitymimeattachment")
	require.NoError(t, err)
	assert.Empty(t, d.PrimaryNameAttribute)
}

func TestWebAPIResolver_IncompleteDescriptor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"LogicalName": "broken"}`))
	}))
	defer srv.Close()

	r := NewWebAPIResolver(webapi.NewClient(), srv.URL+"/")
	_, err := r.Resolve(context.Background(), "broken")
	assert.Error(t, err)
}

func TestWebAPIResolver_LookupTargets(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.RequestURI()
		w.Write([]byte(`{"Targets": ["contact", "account", ""]}`))
	}))
	defer srv.Close()

	r := NewWebAPIResolver(webapi.NewClient(), srv.URL+"/")
	targets, err := r.LookupTargets(context.Background(), "account", "primarycontactid")
	require.NoError(t, err)

	assert.Equal(t, []string{"contact", "account"}, targets)
	assert.Contains(t, path, "EntityDefinitions(LogicalName='account')")
	assert.Contains(t, path, "Attributes(LogicalName='primarycontactid')")
	assert.Contains(t, path, "Microsoft.Dynamics.CRM.LookupAttributeMetadata")
}

// countingResolver counts how many times Resolve hits the inner resolver.
type countingResolver struct {
	calls int
	d     *Descriptor
	err   error
}

func (c *countingResolver) Resolve(ctx context.Context, logicalName string) (*Descriptor, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.d, nil
}

func TestCachedResolver_Memoizes(t *testing.T) {
	inner := &countingResolver{d: &Descriptor{
		LogicalName:        "account",
		EntitySetName:      "accounts",
		PrimaryIDAttribute: "accountid",
	}}
	c := NewCachedResolver(inner, nil)

	for i := 0; i < 3; i++ {
		d, err := c.Resolve(context.Background(), "account")
		require.NoError(t, err)
		assert.Equal(t, "accounts", d.EntitySetName)
	}
	assert.Equal(t, 1, inner.calls, "descriptor must be fetched once per session")
}

func TestCachedResolver_DoesNotCacheFailures(t *testing.T) {
	inner := &countingResolver{err: assert.AnError}
	c := NewCachedResolver(inner, nil)

	_, err1 := c.Resolve(context.Background(), "account")
	_, err2 := c.Resolve(context.Background(), "account")
	assert.Error(t, err1)
	assert.Error(t, err2)
	assert.Equal(t, 2, inner.calls, "failures must retry on the next call")
}
