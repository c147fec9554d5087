package search

import (
	"slices"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
)

// NormalizeLocaleForHash picks the locale a results view should anchor to.
// It returns locale itself when it has results; otherwise the nearest broader
// locale (walking federal < state < county < locality backwards) that has
// results. ok is false when no such locale exists.
func NormalizeLocaleForHash(locale pdap.Locale, results *pdap.SearchResponse) (pdap.Locale, bool) {
	if results.Bucket(locale).Count > 0 {
		return locale, true
	}

	idx := slices.Index(pdap.Locales, locale)
	for i := idx - 1; i >= 0; i-- {
		candidate := pdap.Locales[i]
		if results.Bucket(candidate).Count > 0 {
			return candidate, true
		}
	}
	return "", false
}

// GetAllIDsSearched flattens every record id across locale buckets, broadest
// locale first, keeping the API's order within a bucket.
func GetAllIDsSearched(results *pdap.SearchResponse) []int {
	var ids []int
	for _, locale := range pdap.Locales {
		for _, record := range results.Bucket(locale).Results {
			ids = append(ids, record.ID)
		}
	}
	return ids
}
