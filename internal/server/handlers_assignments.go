package server

import (
	"net/http"
)

// SyncAssignmentsRequest is the body for POST /assignments/sync.
type SyncAssignmentsRequest struct {
	Role   string `json:"role"`
	Region string `json:"region"`
}

// ReassignRequest is the body for POST /assignments/reassign.
type ReassignRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	CourseID string `json:"course_id" validate:"required"`
	Status   string `json:"status" validate:"required,oneof=assigned in_progress completed overdue waived"`
}

// handleListAssignments lists one user's assignments with course titles.
func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.failWith(w, &ErrValidation{Field: "user_id", Message: "user_id query parameter is required"})
		return
	}

	assignments, err := s.db.ListAssignments(r.Context(), userID)
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"user_id": userID, "assignments": assignments})
}

// handleSyncAssignments creates missing assignments from active rules.
func (s *Server) handleSyncAssignments(w http.ResponseWriter, r *http.Request) {
	var req SyncAssignmentsRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.failWith(w, err)
		return
	}
	if req.Region == "" {
		req.Region = s.region
	}

	result, err := s.pipe.SyncAssignments(r.Context(), req.Role, req.Region)
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleReassign updates an assignment's status, extending the due date when
// a completed course is assigned again.
func (s *Server) handleReassign(w http.ResponseWriter, r *http.Request) {
	var req ReassignRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.failWith(w, err)
		return
	}

	assignment, err := s.db.Reassign(r.Context(), req.UserID, req.CourseID, req.Status)
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, assignment)
}

// handleRecommendations lists courses a user still needs for their role.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.failWith(w, &ErrValidation{Field: "user_id", Message: "user_id query parameter is required"})
		return
	}

	recs, err := s.db.Recommend(r.Context(), userID)
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"user_id": userID, "recommendations": recs})
}

// handleRecomputeUrgency reclassifies urgency for all open assignments.
func (s *Server) handleRecomputeUrgency(w http.ResponseWriter, r *http.Request) {
	result, err := s.pipe.RecomputeUrgency(r.Context())
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}
