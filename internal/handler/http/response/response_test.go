package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPaginated(t *testing.T) {
	rec := httptest.NewRecorder()

	Paginated(rec, []string{"a", "b"}, 2, 2, 5, 3)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.True(t, body.Success)
	assert.Nil(t, body.Error)
	require.NotNil(t, body.Meta)
	assert.Equal(t, Meta{Page: 2, Limit: 2, TotalItems: 5, TotalPages: 3}, *body.Meta)
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		code   string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "invalid limit parameter", nil) }, 400, "BAD_REQUEST"},
		{"validation", func(w http.ResponseWriter) { ValidationError(w, map[string]string{"reason": "required"}) }, 422, "VALIDATION_ERROR"},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "token revoked") }, 401, "UNAUTHORIZED"},
		{"forbidden", func(w http.ResponseWriter) { Forbidden(w, "admin only") }, 403, "FORBIDDEN"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "leave request not found") }, 404, "NOT_FOUND"},
		{"conflict", func(w http.ResponseWriter) { Conflict(w, "overlapping leave") }, 409, "CONFLICT"},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "boom") }, 500, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			tt.write(rec)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.False(t, body.Success)
			assert.Nil(t, body.Data)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestFile(t *testing.T) {
	rec := httptest.NewRecorder()

	File(rec, "attendance-2026-10.pdf", "application/pdf", []byte("%PDF-1.3"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="attendance-2026-10.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
}
