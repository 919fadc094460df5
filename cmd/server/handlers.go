package main

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/MaansiBisht/dynamic-form-app/internal"
	"go.uber.org/zap"
)

// handleFormSchema handles GET /api/form-schema
func (s *Server) handleFormSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Schema())
}

// handleJSONSchema handles GET /api/form-schema/jsonschema
func (s *Server) handleJSONSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dynform.ToJSONSchema(s.manager.Schema()))
}

// handleValidate handles POST /api/validate. Nothing is stored.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	values, err := readValueSet(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}
	if result := s.manager.Validate(r.Context(), values); !result.Valid() {
		writeValidationErrors(w, result)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// handleCreate handles POST /api/submissions
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	values, err := readValueSet(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}
	sub, err := s.manager.Create(r.Context(), values)
	if err != nil {
		s.writeManagerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"id":        sub.ID,
		"createdAt": sub.CreatedAt,
	})
}

// handleList handles GET /api/submissions?page&limit&sortBy&sortOrder&search
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	result, err := s.manager.Query(r.Context(), parseQueryRequest(r.URL.Query()))
	if err != nil {
		s.writeManagerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       result.Data,
		"pagination": result.Pagination,
	})
}

// handleExport handles GET /api/submissions/export
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.manager.Export(r.Context(), &buf, parseQueryRequest(r.URL.Query())); err != nil {
		s.writeManagerError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", internal.ExportFileName(s.now())))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleGet handles GET /api/submissions/{id}
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Submission not found")
		return
	}
	sub, err := s.manager.Get(r.Context(), id)
	if err != nil {
		s.writeManagerError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, sub)
}

// handleUpdate handles PUT /api/submissions/{id}
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Submission not found")
		return
	}
	values, err := readValueSet(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}
	sub, err := s.manager.Update(r.Context(), id, values)
	if err != nil {
		s.writeManagerError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, sub)
}

// handleDelete handles DELETE /api/submissions/{id}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Submission not found")
		return
	}
	if err := s.manager.Delete(r.Context(), id); err != nil {
		s.writeManagerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Submission deleted successfully"})
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339Nano),
	}
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			zap.S().Warnw("storage health check failed", "error", err)
			body["status"] = "unavailable"
			body["error"] = "storage unavailable"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// handleNotFound answers every unmatched route
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
}

// writeManagerError maps manager errors onto status codes. Storage and other
// unexpected failures are logged and hidden behind a generic message.
func (s *Server) writeManagerError(w http.ResponseWriter, r *http.Request, err error) {
	if result, ok := dynform.AsValidationFailed(err); ok {
		writeValidationErrors(w, result)
		return
	}
	if dynform.IsNotFoundError(err) {
		writeError(w, http.StatusNotFound, "Submission not found")
		return
	}
	if dynform.IsValidationError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	zap.S().Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
