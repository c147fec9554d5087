package pdap

import (
	"encoding/json"
)

// Locale is the granularity at which search results are bucketed.
type Locale string

const (
	LocaleFederal  Locale = "federal"
	LocaleState    Locale = "state"
	LocaleCounty   Locale = "county"
	LocaleLocality Locale = "locality"
)

// Locales lists every locale from broadest to narrowest.
var Locales = []Locale{LocaleFederal, LocaleState, LocaleCounty, LocaleLocality}

// DataSource is a single police-data-source metadata record.
type DataSource struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	AgencyName       *string  `json:"agency_name"`
	Description      *string  `json:"description,omitempty"`
	RecordType       *string  `json:"record_type,omitempty"`
	SourceURL        *string  `json:"source_url,omitempty"`
	RecordFormats    []string `json:"record_formats,omitempty"`
	CoverageStart    *string  `json:"coverage_start,omitempty"`
	CoverageEnd      *string  `json:"coverage_end,omitempty"`
	AgencySupplied   *bool    `json:"agency_supplied,omitempty"`
	AccessTypes      []string `json:"access_types,omitempty"`
	StateISO         *string  `json:"state_iso,omitempty"`
	CountyName       *string  `json:"county_name,omitempty"`
	Municipality     *string  `json:"municipality,omitempty"`
	ApprovalStatus   *string  `json:"approval_status,omitempty"`
	URLStatus        *string  `json:"url_status,omitempty"`
	LastApprovalEdit *string  `json:"last_approval_editor,omitempty"`
}

// HasAgency reports whether the record names an agency.
func (d DataSource) HasAgency() bool {
	return d.AgencyName != nil && *d.AgencyName != ""
}

// LocaleBucket holds the results for one locale.
type LocaleBucket struct {
	Count   int          `json:"count"`
	Results []DataSource `json:"results"`
}

// SearchResponse is the body of /search/search-location-and-record-type.
type SearchResponse struct {
	Count int                     `json:"count"`
	Data  map[Locale]LocaleBucket `json:"data"`
}

// Bucket returns the bucket for locale; absent locales are empty.
func (s *SearchResponse) Bucket(locale Locale) LocaleBucket {
	if s == nil || s.Data == nil {
		return LocaleBucket{}
	}
	return s.Data[locale]
}

// SearchParams identifies one search request.
type SearchParams struct {
	LocationID       int
	RecordCategories []string
}

// FollowedSearch is a location the signed-in user follows.
type FollowedSearch struct {
	LocationID   int     `json:"location_id"`
	StateName    *string `json:"state_name,omitempty"`
	CountyName   *string `json:"county_name,omitempty"`
	LocalityName *string `json:"locality_name,omitempty"`
}

// DataRequest is a user-submitted request for data.
type DataRequest struct {
	ID                   int        `json:"id"`
	Title                string     `json:"title"`
	SubmissionNotes      *string    `json:"submission_notes,omitempty"`
	RequestStatus        string     `json:"request_status"`
	DataRequirements     *string    `json:"data_requirements,omitempty"`
	ResearchRequirements *string    `json:"research_requirements,omitempty"`
	RequestUrgency       *string    `json:"request_urgency,omitempty"`
	CoverageRange        *string    `json:"coverage_range,omitempty"`
	Locations            []Location `json:"locations,omitempty"`
	DateCreated          *string    `json:"date_created,omitempty"`
	CreatorUserID        *int       `json:"creator_user_id,omitempty"`
}

// Location is a geographic location as reported by the API.
type Location struct {
	LocationID   int     `json:"location_id"`
	Type         string  `json:"type,omitempty"`
	StateName    *string `json:"state_name,omitempty"`
	CountyName   *string `json:"county_name,omitempty"`
	LocalityName *string `json:"locality_name,omitempty"`
	DisplayName  string  `json:"display_name,omitempty"`
}

// ListDataRequestsParams filters GET /data-requests.
type ListDataRequestsParams struct {
	Page            int
	SortBy          string
	SortOrder       string
	RequestStatuses []string
	LocationID      int
}

// Metadata accompanies list responses.
type Metadata struct {
	Count int `json:"count"`
}

// DataRequestList is the body of GET /data-requests.
type DataRequestList struct {
	Message  string        `json:"message,omitempty"`
	Metadata Metadata      `json:"metadata"`
	Data     []DataRequest `json:"data"`
}

// CreateDataRequest is the body of POST /data-requests.
type CreateDataRequest struct {
	RequestInfo DataRequestInfo `json:"request_info"`
	LocationIDs []int           `json:"location_ids,omitempty"`
}

// DataRequestInfo holds the editable fields of a data request.
type DataRequestInfo struct {
	Title                string `json:"title"`
	SubmissionNotes      string `json:"submission_notes,omitempty"`
	DataRequirements     string `json:"data_requirements,omitempty"`
	ResearchRequirements string `json:"research_requirements,omitempty"`
	RequestUrgency       string `json:"request_urgency,omitempty"`
	CoverageRange        string `json:"coverage_range,omitempty"`
}

// CreateDataSource is the body of POST /data-sources.
type CreateDataSource struct {
	EntryData       DataSourceEntry `json:"entry_data"`
	LinkedAgencyIDs []int           `json:"linked_agency_ids,omitempty"`
}

// DataSourceEntry holds the submitted fields of a new data source.
type DataSourceEntry struct {
	Name          string   `json:"name"`
	SourceURL     string   `json:"source_url"`
	Description   string   `json:"description,omitempty"`
	RecordType    string   `json:"record_type_name,omitempty"`
	RecordFormats []string `json:"record_formats,omitempty"`
	AccessTypes   []string `json:"access_types,omitempty"`
	CoverageStart string   `json:"coverage_start,omitempty"`
	CoverageEnd   string   `json:"coverage_end,omitempty"`
}

// CreateResponse is returned by POST endpoints that create an entity.
type CreateResponse struct {
	ID      int    `json:"id"`
	Message string `json:"message,omitempty"`
}

// UniqueURLResponse is the body of GET /check/unique-url.
type UniqueURLResponse struct {
	Message    string            `json:"message,omitempty"`
	Duplicates []json.RawMessage `json:"duplicates"`
}

// IsUnique reports whether no existing data source uses the URL.
func (u *UniqueURLResponse) IsUnique() bool {
	return len(u.Duplicates) == 0
}

// LocationSuggestion is a typeahead suggestion for a location.
type LocationSuggestion struct {
	DisplayName  string  `json:"display_name"`
	LocationID   int     `json:"location_id"`
	Type         string  `json:"type"`
	StateName    *string `json:"state_name,omitempty"`
	CountyName   *string `json:"county_name,omitempty"`
	LocalityName *string `json:"locality_name,omitempty"`
}

// AgencySuggestion is a typeahead suggestion for an agency.
type AgencySuggestion struct {
	DisplayName      string  `json:"display_name"`
	ID               int     `json:"id"`
	JurisdictionType *string `json:"jurisdiction_type,omitempty"`
	StateISO         *string `json:"state_iso,omitempty"`
	Municipality     *string `json:"municipality,omitempty"`
	CountyName       *string `json:"county_name,omitempty"`
}

// Credentials are the email/password pair for login and signup.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the raw JWT pair issued by the API.
type LoginResponse struct {
	Message      string `json:"message,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Message is the body of endpoints that only acknowledge.
type Message struct {
	Message string `json:"message"`
}
