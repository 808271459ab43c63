package domain

// PastPosition is one entry of a prospect's work history, ordered most recent
// first in EnrichedProfile.Positions. A zero year means unknown.
type PastPosition struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartYear   int    `json:"start_year"`
	EndYear     int    `json:"end_year"`
}

// EnrichedProfile is the flattened, scoring-ready view of one prospect:
// stored prospect fields joined with the latest enrichment payload. It is
// built fresh for each scoring run, never mutated, and never persisted.
//
// An empty string or nil pointer means the attribute is unknown; the scoring
// engine treats unknown fields as contributing nothing. In particular a nil
// YearsOfExperience must never be read as "0 years".
type EnrichedProfile struct {
	ProspectID int64 `json:"prospect_id"`

	// Individual attributes
	Title             string         `json:"title"`
	Industry          string         `json:"industry"`
	Bio               string         `json:"bio"`
	Location          string         `json:"location"`
	Skills            []string       `json:"skills"`
	Positions         []PastPosition `json:"positions"`
	YearsOfExperience *int           `json:"years_of_experience"`
	Education         []string       `json:"education"` // at most two entries

	// Company attributes. CompanyIndustry intentionally does not exist: the
	// company-industry dimension reads the individual's Industry field, which
	// is what the upstream data actually carries.
	CompanyName          string `json:"company_name"`
	CompanyLocation      string `json:"company_location"`
	CompanyEmployeeCount *int   `json:"company_employee_count"`
	CompanyDescription   string `json:"company_description"`

	// Dump fields for generalized keyword matching
	IndividualDump string `json:"individual_dump"` // latest position title + description + bio
	CompanyDump    string `json:"company_dump"`    // company description
}
