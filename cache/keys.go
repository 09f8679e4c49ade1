package cache

import "fmt"

// Fingerprint keys identify one logical query. They must be deterministic
// in the query parameters so repeated requests hit the same slot.

// PersonalizedKey is the slot for one page of a user's personalized feed.
func PersonalizedKey(userID string, page, limit int) string {
	return fmt.Sprintf("news_personalized_%s_p%d_l%d", userID, page, limit)
}

// FeedKey is the slot for one page of the general feed.
func FeedKey(page, limit int) string {
	return fmt.Sprintf("news_feed_p%d_l%d", page, limit)
}

// SearchKey is the slot for one search query's ranked results.
func SearchKey(userID, query string, limit int) string {
	return fmt.Sprintf("news_search_%s_%s_l%d", userID, query, limit)
}
