package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
)

const tasksJSON = `[
	{"id": "1", "description": "Pay rent", "isComplete": false, "dueDate": "2025-06-10T00:00:00Z"},
	{"id": "2", "description": "Read", "isComplete": true, "dueDate": null}
]`

func TestFetchTasks(t *testing.T) {
	var gotKey, gotType, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(APIKeyHeader)
		gotType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		io.WriteString(w, tasksJSON)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/", "secret", WithHTTPClient(srv.Client()))
	tasks, err := client.FetchTasks(context.Background())
	if err != nil {
		t.Fatalf("FetchTasks failed: %v", err)
	}

	if gotPath != "/api/get" {
		t.Errorf("Expected path /api/get, got %s", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("Expected api key header, got %q", gotKey)
	}
	if gotType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", gotType)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != "1" || !tasks[0].Due().Equal(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected first task: %+v", tasks[0])
	}
	if !tasks[1].IsComplete || tasks[1].HasDueDate() {
		t.Errorf("Unexpected second task: %+v", tasks[1])
	}
}

func TestFetchTasksStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"server error", http.StatusInternalServerError},
		{"unauthorized", http.StatusUnauthorized},
		{"non-200 success", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "", WithHTTPClient(srv.Client()))
			tasks, err := client.FetchTasks(context.Background())
			if err == nil {
				t.Fatalf("Expected error, got tasks %v", tasks)
			}
			var apiErr *googleapi.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *googleapi.Error, got %T: %v", err, err)
			}
			if apiErr.Code != tt.status {
				t.Errorf("Expected code %d, got %d", tt.status, apiErr.Code)
			}
		})
	}
}

func TestFetchTasksTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, "")
	if _, err := client.FetchTasks(context.Background()); err == nil {
		t.Fatal("Expected connection error")
	}
}

func TestFetchTasksNullPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "null")
	}))
	defer srv.Close()

	tasks, err := NewClient(srv.URL, "").FetchTasks(context.Background())
	if err != nil {
		t.Fatalf("FetchTasks failed: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("Expected empty non-nil list, got %#v", tasks)
	}
}

func TestSetComplete(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.EscapedPath()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		io.WriteString(w, `{"id":"a b","isComplete":true}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", WithHTTPClient(srv.Client()))
	if err := client.SetComplete(context.Background(), "a b", true); err != nil {
		t.Fatalf("SetComplete failed: %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("Expected PATCH, got %s", gotMethod)
	}
	if gotPath != "/patch/a%20b" {
		t.Errorf("Expected escaped path, got %s", gotPath)
	}
	if len(gotBody) != 1 || gotBody["isComplete"] != true {
		t.Errorf("Expected body {isComplete:true}, got %v", gotBody)
	}
}

func TestSetCompleteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").SetComplete(context.Background(), "missing", true)
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 googleapi error, got %v", err)
	}
}

func TestFetchTasksWithSchema(t *testing.T) {
	schema, err := LoadSchema("")
	if err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}

	t.Run("valid payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, tasksJSON)
		}))
		defer srv.Close()

		tasks, err := NewClient(srv.URL, "", WithSchema(schema)).FetchTasks(context.Background())
		if err != nil {
			t.Fatalf("FetchTasks failed: %v", err)
		}
		if len(tasks) != 2 {
			t.Errorf("Expected 2 tasks, got %d", len(tasks))
		}
	})

	t.Run("invalid payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `[{"id": "1", "description": "x", "isComplete": "yes"}]`)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "", WithSchema(schema)).FetchTasks(context.Background())
		var payloadErr *PayloadError
		if !errors.As(err, &payloadErr) {
			t.Fatalf("Expected *PayloadError, got %T: %v", err, err)
		}
		if payloadErr.Path != "[0].isComplete" {
			t.Errorf("Expected path [0].isComplete, got %q", payloadErr.Path)
		}
	})

	t.Run("without schema the payload is trusted", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `[{"id": "1", "extra": 5}]`)
		}))
		defer srv.Close()

		if _, err := NewClient(srv.URL, "").FetchTasks(context.Background()); err != nil {
			t.Fatalf("FetchTasks failed: %v", err)
		}
	})
}

func TestLoadSchemaFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strict.json")
	schema := `{"$schema": "http://json-schema.org/draft-07/schema#", "type": "array", "maxItems": 1}`
	if err := os.WriteFile(path, []byte(schema), 0600); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	compiled, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}
	err = validatePayload(compiled, []byte(`[{}, {}]`))
	if err == nil || !strings.Contains(err.Error(), "invalid task payload") {
		t.Errorf("Expected payload error, got %v", err)
	}
}

func TestPointerToPath(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"/":             "",
		"/0":            "[0]",
		"/2/isComplete": "[2].isComplete",
		"/a~1b/0":       "a/b[0]",
	}
	for in, want := range tests {
		if got := pointerToPath(in); got != want {
			t.Errorf("pointerToPath(%q) = %q, want %q", in, got, want)
		}
	}
}
