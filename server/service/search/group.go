// Package search reshapes flat search responses for presentation and
// navigation. Every function here is pure: inputs are never modified.
package search

import (
	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
)

// GroupedLocale is one locale bucket with its records grouped by agency.
type GroupedLocale struct {
	Count           int                          `json:"count"`
	SourcesByAgency map[string][]pdap.DataSource `json:"sourcesByAgency"`
	// Agencies lists SourcesByAgency keys in the order they were first seen.
	Agencies []string `json:"agencies"`
}

// GroupedResults is a search response regrouped by locale and agency.
type GroupedResults struct {
	Count   int                           `json:"count"`
	Locales map[pdap.Locale]GroupedLocale `json:"locales"`
}

// Locale returns the grouped bucket for locale, empty when absent.
func (g GroupedResults) Locale(locale pdap.Locale) GroupedLocale {
	return g.Locales[locale]
}

// GroupResultsByAgency builds, for each locale bucket, a mapping from agency
// name to that agency's records in encounter order.
//
// Records without an agency name are not placed in any agency bucket. They
// still count toward the locale and overall counts, which are copied from the
// response unchanged.
func GroupResultsByAgency(results *pdap.SearchResponse) GroupedResults {
	grouped := GroupedResults{Locales: make(map[pdap.Locale]GroupedLocale)}
	if results == nil {
		return grouped
	}
	grouped.Count = results.Count

	for locale, bucket := range results.Data {
		byAgency := make(map[string][]pdap.DataSource)
		var agencies []string
		for _, record := range bucket.Results {
			if !record.HasAgency() {
				continue
			}
			name := *record.AgencyName
			if _, seen := byAgency[name]; !seen {
				agencies = append(agencies, name)
			}
			byAgency[name] = append(byAgency[name], record)
		}
		grouped.Locales[locale] = GroupedLocale{
			Count:           bucket.Count,
			SourcesByAgency: byAgency,
			Agencies:        agencies,
		}
	}
	return grouped
}
