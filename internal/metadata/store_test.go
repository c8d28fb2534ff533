package metadata

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "metadata.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := openTestStore(t, time.Hour)
	ctx := context.Background()

	want := &Descriptor{
		LogicalName:          "account",
		EntitySetName:        "accounts",
		PrimaryIDAttribute:   "accountid",
		PrimaryNameAttribute: "name",
	}
	require.NoError(t, s.Put(ctx, want))

	got, err := s.Get(ctx, "account")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_MissReturnsNil(t *testing.T) {
	s := openTestStore(t, time.Hour)

	got, err := s.Get(context.Background(), "nosuchentity")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_ExpiredEntryIsMiss(t *testing.T) {
	// Zero TTL: everything written is already expired.
	s := openTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &Descriptor{
		LogicalName:        "contact",
		EntitySetName:      "contacts",
		PrimaryIDAttribute: "contactid",
	}))

	got, err := s.Get(ctx, "contact")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_PutUpserts(t *testing.T) {
	s := openTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &Descriptor{
		LogicalName:        "account",
		EntitySetName:      "accounts",
		PrimaryIDAttribute: "accountid",
	}))
	require.NoError(t, s.Put(ctx, &Descriptor{
		LogicalName:          "account",
		EntitySetName:        "accounts",
		PrimaryIDAttribute:   "accountid",
		PrimaryNameAttribute: "name",
	}))

	got, err := s.Get(ctx, "account")
	require.NoError(t, err)
	assert.Equal(t, "name", got.PrimaryNameAttribute)
}

func TestStore_NilDescriptor(t *testing.T) {
	s := openTestStore(t, time.Hour)
	assert.Error(t, s.Put(context.Background(), nil))
}
