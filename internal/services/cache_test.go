package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheKeyFormat(t *testing.T) {
	require.Equal(t, "admin:dashboard", CacheKey("admin", "dashboard"))
}

func TestAchievementCatalogCacheKeyMatchesNamespace(t *testing.T) {
	// Readers and invalidators share this constant; it must stay inside the
	// resource:identifier namespace the rest of the cache uses.
	require.Equal(t, CacheKey("achievements", "catalog"), AchievementCatalogCacheKey)
}
