package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
)

func strPtr(s string) *string { return &s }

func record(id int, agency *string) pdap.DataSource {
	return pdap.DataSource{ID: id, Name: "source", AgencyName: agency}
}

func sampleResults() *pdap.SearchResponse {
	return &pdap.SearchResponse{
		Count: 5,
		Data: map[pdap.Locale]pdap.LocaleBucket{
			pdap.LocaleFederal: {Count: 1, Results: []pdap.DataSource{record(10, strPtr("FBI"))}},
			pdap.LocaleState:   {Count: 0, Results: nil},
			pdap.LocaleCounty:  {Count: 1, Results: []pdap.DataSource{record(20, nil)}},
			pdap.LocaleLocality: {Count: 3, Results: []pdap.DataSource{
				record(30, strPtr("PD B")),
				record(31, strPtr("PD A")),
				record(32, strPtr("PD B")),
			}},
		},
	}
}

func TestGroupResultsByAgency_Example(t *testing.T) {
	input := &pdap.SearchResponse{
		Count: 2,
		Data: map[pdap.Locale]pdap.LocaleBucket{
			pdap.LocaleLocality: {Count: 2, Results: []pdap.DataSource{
				record(1, strPtr("PD A")),
				record(2, strPtr("PD A")),
			}},
		},
	}

	got := GroupResultsByAgency(input)

	assert.Equal(t, 2, got.Count)
	locality := got.Locale(pdap.LocaleLocality)
	assert.Equal(t, 2, locality.Count)
	require.Len(t, locality.SourcesByAgency, 1)
	require.Len(t, locality.SourcesByAgency["PD A"], 2)
	assert.Equal(t, 1, locality.SourcesByAgency["PD A"][0].ID)
	assert.Equal(t, 2, locality.SourcesByAgency["PD A"][1].ID)
	assert.Equal(t, []string{"PD A"}, locality.Agencies)
}

func TestGroupResultsByAgency_PreservesEncounterOrder(t *testing.T) {
	got := GroupResultsByAgency(sampleResults())

	locality := got.Locale(pdap.LocaleLocality)
	assert.Equal(t, []string{"PD B", "PD A"}, locality.Agencies)
	ids := []int{}
	for _, r := range locality.SourcesByAgency["PD B"] {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int{30, 32}, ids)
}

func TestGroupResultsByAgency_DropsRecordsWithoutAgency(t *testing.T) {
	input := sampleResults()
	input.Data[pdap.LocaleCounty] = pdap.LocaleBucket{Count: 2, Results: []pdap.DataSource{
		record(20, nil),
		record(21, strPtr("")),
	}}

	got := GroupResultsByAgency(input)

	county := got.Locale(pdap.LocaleCounty)
	assert.Equal(t, 2, county.Count, "records without an agency stay counted")
	assert.Empty(t, county.SourcesByAgency)
	assert.Empty(t, county.Agencies)
	assert.Equal(t, 5, got.Count)

	for _, locale := range got.Locales {
		for _, records := range locale.SourcesByAgency {
			for _, r := range records {
				assert.NotEqual(t, 20, r.ID)
				assert.NotEqual(t, 21, r.ID)
			}
		}
	}
}

func TestGroupResultsByAgency_Deterministic(t *testing.T) {
	first := GroupResultsByAgency(sampleResults())
	second := GroupResultsByAgency(sampleResults())
	assert.Equal(t, first, second)
}

func TestGroupResultsByAgency_DoesNotMutateInput(t *testing.T) {
	input := sampleResults()
	before := len(input.Data[pdap.LocaleLocality].Results)
	_ = GroupResultsByAgency(input)
	assert.Len(t, input.Data[pdap.LocaleLocality].Results, before)
	assert.Equal(t, sampleResults(), input)
}

func TestGroupResultsByAgency_Nil(t *testing.T) {
	got := GroupResultsByAgency(nil)
	assert.Equal(t, 0, got.Count)
	assert.Empty(t, got.Locales)
}

func TestNormalizeLocaleForHash(t *testing.T) {
	onlyState := &pdap.SearchResponse{
		Count: 1,
		Data: map[pdap.Locale]pdap.LocaleBucket{
			pdap.LocaleFederal:  {Count: 0},
			pdap.LocaleState:    {Count: 1},
			pdap.LocaleCounty:   {Count: 0},
			pdap.LocaleLocality: {Count: 0},
		},
	}

	tests := []struct {
		name    string
		locale  pdap.Locale
		results *pdap.SearchResponse
		want    pdap.Locale
		wantOK  bool
	}{
		{"locality falls back to state", pdap.LocaleLocality, onlyState, pdap.LocaleState, true},
		{"county falls back to state", pdap.LocaleCounty, onlyState, pdap.LocaleState, true},
		{"state with results is kept", pdap.LocaleState, onlyState, pdap.LocaleState, true},
		{"federal has no broader locale", pdap.LocaleFederal, onlyState, "", false},
		{"locality with results is kept", pdap.LocaleLocality, sampleResults(), pdap.LocaleLocality, true},
		{"state falls back to federal", pdap.LocaleState, sampleResults(), pdap.LocaleFederal, true},
		{"empty results", pdap.LocaleLocality, &pdap.SearchResponse{}, "", false},
		{"nil results", pdap.LocaleCounty, nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeLocaleForHash(tt.locale, tt.results)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetAllIDsSearched(t *testing.T) {
	assert.Equal(t, []int{10, 20, 30, 31, 32}, GetAllIDsSearched(sampleResults()))
	assert.Empty(t, GetAllIDsSearched(&pdap.SearchResponse{}))
}

func TestNavigator(t *testing.T) {
	nav := NewNavigator()
	_, ok := nav.Next(1)
	assert.False(t, ok)

	ids := GetAllIDsSearched(sampleResults())
	nav.SetMostRecentSearchIDs(ids)
	ids[0] = 999 // the navigator keeps its own copy

	next, ok := nav.Next(10)
	require.True(t, ok)
	assert.Equal(t, 20, next)

	prev, ok := nav.Previous(30)
	require.True(t, ok)
	assert.Equal(t, 20, prev)

	_, ok = nav.Previous(10)
	assert.False(t, ok)
	_, ok = nav.Next(32)
	assert.False(t, ok)
	_, ok = nav.Next(404)
	assert.False(t, ok)

	assert.Equal(t, []int{10, 20, 30, 31, 32}, nav.MostRecentSearchIDs())
}
