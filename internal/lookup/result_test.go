package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/runger/dvpick/internal/metadata"
)

func TestMapRow(t *testing.T) {
	r := mapRow(map[string]any{
		"accountid": "{1A2B3C4D-0000-1111-2222-333344445555}",
		"name":      "Acme",
	}, accountDescriptor)

	assert.Equal(t, SearchResult{
		RecordID:      "1a2b3c4d-0000-1111-2222-333344445555",
		DisplayName:   "Acme",
		LogicalName:   "account",
		EntitySetName: "accounts",
	}, r)
}

func TestMapRow_BlankNameFallsBackToUppercaseID(t *testing.T) {
	r := mapRow(map[string]any{
		"accountid": "1a2b3c4d-0000-1111-2222-333344445555",
		"name":      "   ",
	}, accountDescriptor)

	assert.Equal(t, "1A2B3C4D-0000-1111-2222-333344445555", r.DisplayName)
}

func TestMapRow_NoNameAttribute(t *testing.T) {
	d := &metadata.Descriptor{
		LogicalName:        "activitymimeattachment",
		EntitySetName:      "activitymimeattachments",
		PrimaryIDAttribute: "attachmentid",
	}
	r := mapRow(map[string]any{"attachmentid": "1a2b3c4d-0000-1111-2222-333344445555"}, d)
	assert.Equal(t, "1A2B3C4D-0000-1111-2222-333344445555", r.DisplayName)
	assert.NotEmpty(t, r.DisplayName, "display name must never be empty")
}

func TestMapRows_PreservesServerOrder(t *testing.T) {
	rows := []map[string]any{
		{"accountid": "aaaaaaaa-0000-1111-2222-333344445555", "name": "Alpha"},
		{"accountid": "bbbbbbbb-0000-1111-2222-333344445555", "name": "Beta"},
	}
	rs := mapRows(rows, accountDescriptor)
	assert.Equal(t, "Alpha", rs[0].DisplayName)
	assert.Equal(t, "Beta", rs[1].DisplayName)
}
