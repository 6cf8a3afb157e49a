package server

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// RegisterDocumentRequest is the body for POST /documents/register.
type RegisterDocumentRequest struct {
	Source string `json:"source" validate:"required"`
	Title  string `json:"title" validate:"required"`
	Path   string `json:"path" validate:"required"`
}

// ProcessDocumentRequest is the body for POST /documents/{id}/process.
// All fields are optional; server defaults apply.
type ProcessDocumentRequest struct {
	Region     string `json:"region"`
	Frequency  string `json:"frequency" validate:"omitempty,oneof=annual every_3_years none"`
	PagesLimit int    `json:"pages_limit" validate:"gte=0"`
}

// decodeAndValidate parses a JSON body into dst and runs struct validation.
// An empty body is allowed when dst has no required fields.
func (s *Server) decodeAndValidate(r *http.Request, dst any) error {
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
		}
	}
	if err := s.validate.Struct(dst); err != nil {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

// docIDFromPath parses the {id} path segment.
func docIDFromPath(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, &ErrValidation{Field: "id", Message: "document id must be a positive integer"}
	}
	return id, nil
}

// handleRegisterDocument registers a PDF on disk, hashing it for dedup.
func (s *Server) handleRegisterDocument(w http.ResponseWriter, r *http.Request) {
	var req RegisterDocumentRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.failWith(w, err)
		return
	}

	doc, err := s.pipe.RegisterDocument(r.Context(), req.Source, req.Title, req.Path)
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, doc)
}

// handleListDocuments lists registered documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	docs, err := s.db.ListDocuments(r.Context(), limit)
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleListMappings lists the stored course mappings for a document.
func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	docID, err := docIDFromPath(r)
	if err != nil {
		s.failWith(w, err)
		return
	}

	if _, err := s.db.GetDocument(r.Context(), docID); err != nil {
		s.failWith(w, err)
		return
	}

	mappings, err := s.db.ListCourseMappings(r.Context(), docID)
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"doc_id": docID, "mappings": mappings})
}

// handleMapDocument runs the deterministic keyword matcher (replace semantics).
func (s *Server) handleMapDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := docIDFromPath(r)
	if err != nil {
		s.failWith(w, err)
		return
	}

	pagesLimit, _ := strconv.Atoi(r.URL.Query().Get("pages_limit"))
	result, err := s.pipe.MapDocument(r.Context(), docID, pagesLimit)
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleExtractDocument runs model-assisted course matching (append semantics).
func (s *Server) handleExtractDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := docIDFromPath(r)
	if err != nil {
		s.failWith(w, err)
		return
	}

	pagesLimit, _ := strconv.Atoi(r.URL.Query().Get("pages_limit"))
	result, err := s.pipe.ExtractDocument(r.Context(), docID, pagesLimit)
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleProcessDocument runs the full processing chain.
func (s *Server) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := docIDFromPath(r)
	if err != nil {
		s.failWith(w, err)
		return
	}

	var req ProcessDocumentRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.failWith(w, err)
		return
	}
	if req.Region == "" {
		req.Region = s.region
	}
	if req.Frequency == "" {
		req.Frequency = s.frequency
	}

	result, err := s.pipe.ProcessDocument(r.Context(), docID, req.Region, req.Frequency, req.PagesLimit)
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleCleanupDuplicates removes documents registered more than once.
func (s *Server) handleCleanupDuplicates(w http.ResponseWriter, r *http.Request) {
	removed, err := s.db.CleanupDuplicateDocuments(r.Context())
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]int{"removed": removed})
}

// handleBackfillHashes hashes documents registered before hash tracking.
func (s *Server) handleBackfillHashes(w http.ResponseWriter, r *http.Request) {
	updated, err := s.db.BackfillFileHashes(r.Context())
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]int{"updated": updated})
}
