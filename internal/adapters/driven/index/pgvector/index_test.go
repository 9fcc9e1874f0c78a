package pgvector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantTable_DeterministicAndDistinct(t *testing.T) {
	a := tenantTable("tenant-a")
	b := tenantTable("tenant-b")

	assert.Equal(t, a, tenantTable("tenant-a"))
	assert.NotEqual(t, a, b)
}

func TestTenantTable_OpaqueIdentifiersAreSafe(t *testing.T) {
	// Tenant IDs are caller-supplied; the table name must never embed
	// them raw.
	name := tenantTable(`bob"; DROP TABLE users; --`)
	assert.Regexp(t, `^askbase_entries_[0-9a-f]{16}$`, name)

	assert.Regexp(t, `^askbase_entries_[0-9a-f]{16}$`, tenantTable("user@example.com"))
}
