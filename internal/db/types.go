package db

import "time"

// Assignment status constants. "Live" statuses block re-assignment by sync.
const (
	StatusAssigned   = "assigned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusOverdue    = "overdue"
	StatusWaived     = "waived"
)

// Training frequency constants for compliance rules.
const (
	FrequencyAnnual      = "annual"
	FrequencyEvery3Years = "every_3_years"
	FrequencyNone        = "none"
)

// LiveStatuses are the assignment statuses that count as an existing
// obligation when synchronizing.
var LiveStatuses = []string{StatusAssigned, StatusInProgress, StatusCompleted, StatusOverdue}

// Document is a registered regulatory PDF.
type Document struct {
	DocID      int       `json:"doc_id"`
	Source     string    `json:"source"`
	Title      string    `json:"title"`
	Path       string    `json:"path"`
	FileHash   *string   `json:"file_hash,omitempty"`
	PageCount  *int      `json:"page_count,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Course is a catalog entry.
type Course struct {
	CourseID        string  `json:"course_id"`
	Title           string  `json:"title"`
	Description     *string `json:"description,omitempty"`
	Category        *string `json:"category,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Provider        *string `json:"provider,omitempty"`
}

// Role is a job role that compliance rules attach to.
type Role struct {
	RoleID      int     `json:"role_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	RiskLevel   *string `json:"risk_level,omitempty"`
}

// CourseMapping links a document to a catalog course with supporting evidence.
type CourseMapping struct {
	ID         int     `json:"id"`
	DocID      int     `json:"doc_id"`
	CourseID   string  `json:"course_id"`
	Confidence float64 `json:"confidence"`
	RuleText   string  `json:"rule_text"`
}

// RuleRequirement is a promoted compliance rule: a role must take a course.
type RuleRequirement struct {
	ID        int     `json:"id"`
	RoleID    int     `json:"role_id"`
	CourseID  string  `json:"course_id"`
	Frequency string  `json:"frequency"`
	Region    *string `json:"region,omitempty"`
	Active    bool    `json:"active"`
}

// Assignment is a training obligation for one user and course.
type Assignment struct {
	AssignmentID int        `json:"assignment_id"`
	UserID       string     `json:"user_id"`
	CourseID     string     `json:"course_id"`
	CourseTitle  *string    `json:"course_title,omitempty"` // joined
	Status       string     `json:"status"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	UrgencyLevel *string    `json:"urgency_level,omitempty"`
	AssignedBy   string     `json:"assigned_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// User is a member of the workforce assignments are created for.
type User struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	Email      *string `json:"email,omitempty"`
	Role       *string `json:"role,omitempty"`
	Department *string `json:"department,omitempty"`
}

// Recommendation is a course a user still needs for their role.
type Recommendation struct {
	CourseID  string  `json:"course_id"`
	Title     string  `json:"title"`
	Frequency string  `json:"frequency"`
	Region    *string `json:"region,omitempty"`
}

// MappingCounts reports the outcome of a course-mapping write.
type MappingCounts struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Dropped  int `json:"dropped"` // candidates referencing unknown course IDs
	Raised   int `json:"raised"`  // existing rows whose confidence was raised
}

// PromotionCounts reports the outcome of a rule promotion.
type PromotionCounts struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}
