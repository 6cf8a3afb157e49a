package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer builds a server for validation-path tests. Handlers that reach
// the database are covered in integration tests.
func newTestServer() *Server {
	return &Server{
		validate:  validator.New(),
		region:    "CA",
		frequency: "annual",
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp["error"]
}

func TestHandleRegisterDocument_MissingFields(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/documents/register", strings.NewReader(`{"source":"osha"}`))
	w := httptest.NewRecorder()

	s.handleRegisterDocument(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w), "required")
}

func TestHandleRegisterDocument_InvalidJSON(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/documents/register", strings.NewReader(`{not json`))
	w := httptest.NewRecorder()

	s.handleRegisterDocument(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w), "invalid JSON")
}

func TestHandleMapDocument_InvalidID(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/documents/abc/map", nil)
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()

	s.handleMapDocument(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w), "positive integer")
}

func TestHandleProcessDocument_BadFrequency(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/documents/1/process", strings.NewReader(`{"frequency":"weekly"}`))
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()

	s.handleProcessDocument(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w), "Frequency")
}

func TestHandleProcessDocument_NegativePagesLimit(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/documents/1/process", strings.NewReader(`{"pages_limit":-3}`))
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()

	s.handleProcessDocument(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleListAssignments_MissingUserID(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/assignments", nil)
	w := httptest.NewRecorder()

	s.handleListAssignments(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w), "user_id")
}

func TestHandleReassign_InvalidStatus(t *testing.T) {
	s := newTestServer()

	body := `{"user_id":"u1","course_id":"PPE-201","status":"paused"}`
	req := httptest.NewRequest(http.MethodPost, "/assignments/reassign", strings.NewReader(body))
	w := httptest.NewRecorder()

	s.handleReassign(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w), "Status")
}

func TestHandleRecommendations_MissingUserID(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/recommendations", nil)
	w := httptest.NewRecorder()

	s.handleRecommendations(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocIDFromPath(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    int
		wantErr bool
	}{
		{"valid", "42", 42, false},
		{"not a number", "abc", 0, true},
		{"zero", "0", 0, true},
		{"negative", "-1", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/documents/x", nil)
			req.SetPathValue("id", tt.id)

			got, err := docIDFromPath(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
