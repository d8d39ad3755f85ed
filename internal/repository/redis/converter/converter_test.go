package converter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheTime_NormalizesToUTC(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)
	local := time.Date(2026, 3, 1, 12, 0, 0, 0, moscow)

	got := CacheTime(local)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, local.Equal(got))

	assert.Nil(t, CachePointerTime(nil))
	ptr := CachePointerTime(&local)
	require.NotNil(t, ptr)
	assert.Equal(t, 9, ptr.Hour())
}
