package cache

import (
	"fmt"
	"time"
)

const (
	StatsKeyPrefix  = "stats:user:%d"
	BadgeCatalogKey = "badges:catalog"
	CategoriesKey   = "categories:all"
)

const (
	BadgeCatalogTTL = 10 * time.Minute
	CategoriesTTL   = 30 * time.Minute
)

// StatsKey is the cache key of a user's activity snapshot.
func StatsKey(userID uint) string {
	return fmt.Sprintf(StatsKeyPrefix, userID)
}
