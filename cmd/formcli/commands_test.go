package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/MaansiBisht/dynamic-form-app/client"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id := uuid.New()
	got, err := parseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	for _, raw := range []string{"", "nope"} {
		_, err := parseID(raw)
		require.Error(t, err)
		assert.True(t, dynform.IsValidationError(err), raw)
	}
}

func TestPrintSubmissions(t *testing.T) {
	updated := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)
	result := &dynform.QueryResult{
		Data: []*dynform.Submission{
			{
				ID:        uuid.MustParse("00000000-0000-7000-8000-000000000001"),
				Data:      dynform.ValueSet{"name": dynform.StringValue("Ann"), "skills": dynform.StringsValue("go", "sql"), "note": dynform.Null()},
				CreatedAt: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
				UpdatedAt: &updated,
			},
			{
				ID:        uuid.MustParse("00000000-0000-7000-8000-000000000002"),
				Data:      dynform.ValueSet{"age": dynform.NumberValue(30)},
				CreatedAt: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
			},
		},
		Pagination: dynform.NewPagination(1, 10, 2),
	}

	var buf bytes.Buffer
	require.NoError(t, printSubmissions(&buf, result))
	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "name=Ann skills=go,sql")
	assert.NotContains(t, out, "note=")
	assert.Contains(t, out, "2025-03-15T08:00:00Z")
	assert.Contains(t, out, "age=30")
	assert.Contains(t, out, "page 1 of 1 (2 total)")
}

func TestDescribeAPIError(t *testing.T) {
	var buf bytes.Buffer
	err := &client.APIError{Status: 400, Errors: dynform.ValidationResult{"email": "Email Address is required", "age": "Age must be at least 18"}}

	returned := describeAPIError(&buf, err)
	assert.Same(t, err, returned)
	assert.Equal(t, "The server rejected the submission:\n  age: Age must be at least 18\n  email: Email Address is required\n", buf.String())

	buf.Reset()
	plain := errors.New("boom")
	assert.Equal(t, plain, describeAPIError(&buf, plain))
	assert.Empty(t, buf.String())
}

func TestRunListAndDelete(t *testing.T) {
	id := uuid.MustParse("00000000-0000-7000-8000-000000000001")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/submissions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "name", r.URL.Query().Get("sortBy"))
		assert.Equal(t, "asc", r.URL.Query().Get("sortOrder"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"data":[{"id":"`+id.String()+`","data":{"name":"Ann"},"createdAt":"2025-03-14T09:30:00Z"}],"pagination":{"page":1,"limit":10,"total":1,"totalPages":1,"hasNext":false,"hasPrev":false}}`)
	})
	mux.HandleFunc("DELETE /api/submissions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != id.String() {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"success":false,"error":"Submission not found"}`)
			return
		}
		io.WriteString(w, `{"success":true,"message":"Submission deleted successfully"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, runList(ctx, []string{"-server", srv.URL, "-sort-by", "name", "-order", "asc"}, &buf))
	assert.Contains(t, buf.String(), "name=Ann")

	buf.Reset()
	require.NoError(t, runDelete(ctx, []string{"-server", srv.URL, id.String()}, &buf))
	assert.Equal(t, "Deleted "+id.String()+"\n", buf.String())

	err := runDelete(ctx, []string{"-server", srv.URL, uuid.NewString()}, &buf)
	assert.True(t, client.IsNotFound(err))
}

func TestFormValidatorMatchesServerZone(t *testing.T) {
	t.Setenv("FORM_TIME_ZONE", "Asia/Tokyo")
	// 23:30 UTC on March 14 is already March 15 in Tokyo.
	now := time.Date(2025, 3, 14, 23, 30, 0, 0, time.UTC)
	clock := dynform.WithClock(func() time.Time { return now })

	cfg := dynform.DefaultConfig()
	cfg.ApplyEnv()
	loc, err := cfg.Form.Location()
	require.NoError(t, err)
	server := dynform.NewValidator(clock, dynform.WithLocation(loc))

	var timeZone string
	flags := newFlagSet("fill", "fill [options]", new(string))
	addTimeZoneFlag(flags, &timeZone)
	require.NoError(t, flags.Parse(nil))
	assert.Equal(t, "Asia/Tokyo", timeZone)

	cli, err := formValidator(timeZone, clock)
	require.NoError(t, err)

	start := &dynform.DateField{
		FieldInfo:   dynform.FieldInfo{ID: "start", Label: "Start Date"},
		Constraints: dynform.DateConstraints{MinDate: dynform.MinDateToday},
	}
	for _, day := range []string{"2025-03-14", "2025-03-15", "2025-03-16"} {
		value := dynform.StringValue(day)
		assert.Equal(t, server.ValidateField(start, value), cli.ValidateField(start, value), day)
	}
	assert.Equal(t, "Start Date must be today or later", cli.ValidateField(start, dynform.StringValue("2025-03-14")))
	assert.Empty(t, cli.ValidateField(start, dynform.StringValue("2025-03-15")))
}

func TestFormValidatorRejectsUnknownZone(t *testing.T) {
	_, err := formValidator("Mars/Olympus_Mons")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mars/Olympus_Mons")

	var buf bytes.Buffer
	err = runFill(context.Background(), []string{"-server", "http://127.0.0.1:1", "-time-zone", "Mars/Olympus_Mons"}, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid time zone")
}
