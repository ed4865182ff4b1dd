package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_BookingsOutliveEvents(t *testing.T) {
	body, err := migrationFS.ReadFile("migrations/0002_retain_bookings.sql")
	require.NoError(t, err)
	schema := string(body)

	for _, table := range []string{"bookings", "payment_orders"} {
		assert.Contains(t, schema,
			"ADD CONSTRAINT "+table+"_event_id_fkey FOREIGN KEY (event_id) REFERENCES events (id) ON DELETE RESTRICT")
	}
	assert.Contains(t, schema, "ADD COLUMN IF NOT EXISTS deleted_at")
	assert.Contains(t, schema, "WHERE deleted_at IS NULL", "title uniqueness ignores deleted events")
	assert.NotContains(t, strings.ToUpper(schema), "CASCADE")
}
