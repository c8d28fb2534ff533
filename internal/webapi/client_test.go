package webapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchList_DecodesValueAndCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"@odata.count":2,"value":[{"name":"Alpha"},{"name":"Beta"}]}`))
	}))
	defer srv.Close()

	c := NewClient()
	res, err := c.FetchList(context.Background(), srv.URL, false)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
	assert.Equal(t, int64(2), res.Count)
	assert.Equal(t, "Alpha", res.Rows[0]["name"])
}

func TestFetchList_CountAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	}))
	defer srv.Close()

	res, err := NewClient().FetchList(context.Background(), srv.URL, false)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Equal(t, int64(-1), res.Count)
}

func TestFetchList_Headers(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"value":[]}`))
	}))
	defer srv.Close()

	c := NewClient(WithCookie("CrmOwinAuth=abc"))
	_, err := c.FetchList(context.Background(), srv.URL, true)
	require.NoError(t, err)

	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "4.0", got.Get("OData-MaxVersion"))
	assert.Equal(t, "4.0", got.Get("OData-Version"))
	assert.Equal(t, "eventual", got.Get("ConsistencyLevel"))
	assert.Equal(t, "CrmOwinAuth=abc", got.Get("Cookie"))
	assert.NotEmpty(t, got.Get("x-ms-client-request-id"))
}

func TestFetchList_NoConsistencyHeaderWithoutFilter(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"value":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient().FetchList(context.Background(), srv.URL, false)
	require.NoError(t, err)
	assert.Empty(t, got.Get("ConsistencyLevel"))
}

func TestFetchList_BearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"value":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBearerToken("tok123")).FetchList(context.Background(), srv.URL, false)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", auth)
}

func TestFetchList_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient().FetchList(context.Background(), srv.URL, false)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
}

func TestFetchRecord_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"accountid":"1a2b","name":"Acme"}`))
	}))
	defer srv.Close()

	rec, err := NewClient().FetchRecord(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Acme", rec["name"])
}

func TestFetchRecord_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient().FetchRecord(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchRecord_OtherErrorIsNotNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient().FetchRecord(context.Background(), srv.URL)
	assert.False(t, errors.Is(err, ErrNotFound))
	var se *StatusError
	assert.ErrorAs(t, err, &se)
}

func TestFetch_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient().FetchList(ctx, srv.URL, false)
	assert.ErrorIs(t, err, context.Canceled)
}
