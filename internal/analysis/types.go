// Package analysis runs model-assisted extraction over regulatory document
// text: training requirements per chunk, course matching against the catalog,
// and role matching against the org's role list.
package analysis

// Requirement is a training requirement extracted from document text.
type Requirement struct {
	ID       string   `json:"req_id"`
	Title    string   `json:"title"`
	Page     int      `json:"page"`
	Severity string   `json:"severity"` // low, medium, high
	Tags     []string `json:"tags"`
}

// CourseMatch is a model-proposed document-to-course mapping.
type CourseMatch struct {
	CourseID   string  `json:"course_id"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence"`
}

// RoleMatch is a model-proposed role applicability judgment.
type RoleMatch struct {
	RoleName   string  `json:"role_name"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// CatalogEntry is the minimal course info sent to the model.
type CatalogEntry struct {
	ID    string
	Title string
}
