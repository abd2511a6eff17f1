package cache

// KeyActiveRules is the cache key of a merchant's active pricing rule rows.
func KeyActiveRules(merchantID string) string {
	return "pricing:rules:" + merchantID
}
