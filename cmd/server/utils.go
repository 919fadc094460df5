package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/google/uuid"
)

// APIResponse is the standard response format
type APIResponse struct {
	Success bool                     `json:"success"`
	Data    any                      `json:"data,omitempty"`
	Error   string                   `json:"error,omitempty"`
	Errors  dynform.ValidationResult `json:"errors,omitempty"`
	Message string                   `json:"message,omitempty"`
}

// writeJSON writes JSON response to http.ResponseWriter
func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// writeValidationErrors writes the per-field messages of a rejected value set
func writeValidationErrors(w http.ResponseWriter, result dynform.ValidationResult) error {
	return writeJSON(w, http.StatusBadRequest, APIResponse{
		Success: false,
		Errors:  result,
	})
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, statusCode int, data any) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: true,
		Data:    data,
	})
}

// readJSONBody reads and decodes JSON from request body
func readJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return err
	}
	return nil
}

// readValueSet decodes a JSON object body into a ValueSet
func readValueSet(r *http.Request) (dynform.ValueSet, error) {
	var values dynform.ValueSet
	if err := readJSONBody(r, &values); err != nil {
		return nil, err
	}
	if values == nil {
		return nil, fmt.Errorf("request body must be a JSON object")
	}
	return values, nil
}

// parseUUID parses a UUID string
func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// parseQueryRequest extracts page, limit, sortBy, sortOrder and search.
// Unparseable numbers are left zero so the manager applies its defaults.
func parseQueryRequest(queryParams url.Values) *dynform.QueryRequest {
	req := &dynform.QueryRequest{
		SortBy:    queryParams.Get("sortBy"),
		SortOrder: dynform.SortOrder(queryParams.Get("sortOrder")),
		Search:    queryParams.Get("search"),
	}
	if p := queryParams.Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			req.Page = parsed
		}
	}
	if l := queryParams.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			req.Limit = parsed
		}
	}
	return req
}
