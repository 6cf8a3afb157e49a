package pipeline

import (
	"github.com/mkravets/ehs-mentor/internal/analysis"
	"github.com/mkravets/ehs-mentor/internal/db"
	"github.com/mkravets/ehs-mentor/internal/matcher"
)

// MapResult reports a deterministic remap of one document.
type MapResult struct {
	DocID      int                 `json:"doc_id"`
	Pages      int                 `json:"pages"`
	Candidates []matcher.Candidate `json:"candidates"`
	Inserted   int                 `json:"inserted"`
}

// ExtractResult reports a model-assisted mapping pass over one document.
type ExtractResult struct {
	DocID    int                    `json:"doc_id"`
	Pages    int                    `json:"pages"`
	Matches  []analysis.CourseMatch `json:"matches"`
	Counts   db.MappingCounts       `json:"counts"`
	Degraded bool                   `json:"degraded"`
	Reason   string                 `json:"reason,omitempty"`
}

// ProcessResult reports the full document processing chain.
type ProcessResult struct {
	DocID        int                    `json:"doc_id"`
	Pages        int                    `json:"pages"`
	Chunks       int                    `json:"chunks"`
	Requirements []analysis.Requirement `json:"requirements"`
	Matches      []analysis.CourseMatch `json:"matches"`
	Roles        []analysis.RoleMatch   `json:"roles"`
	Mapping      db.MappingCounts       `json:"mapping"`
	Promotion    db.PromotionCounts     `json:"promotion"`
	RolesApplied []string               `json:"roles_applied"`
	RolesUnknown []string               `json:"roles_unknown,omitempty"`
	Assigned     int                    `json:"assigned"`
	Degraded     bool                   `json:"degraded"`
	Reason       string                 `json:"reason,omitempty"`
}

// SyncResult reports an assignment synchronization.
type SyncResult struct {
	Role    string `json:"role,omitempty"`
	Region  string `json:"region,omitempty"`
	Created int    `json:"created"`
}

// UrgencyResult reports an urgency reconciliation sweep.
type UrgencyResult struct {
	Scanned int            `json:"scanned"`
	Updated int            `json:"updated"`
	Buckets map[string]int `json:"buckets"`
}
