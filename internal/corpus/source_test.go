package corpus_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/chriscorrea/spamsift/internal/corpus"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupFunc   func(t *testing.T) string
		expectError bool
		expectRows  int
	}{
		{
			name: "local file",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "sms.tsv")
				data := "ham\tsee you at lunch\nspam\tURGENT call now\n"
				if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
					t.Fatalf("failed to write corpus: %v", err)
				}
				return path
			},
			expectRows: 2,
		},
		{
			name: "missing file",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.tsv")
			},
			expectError: true,
		},
		{
			name: "directory",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			expectError: true,
		},
		{
			name: "http URL success",
			setupFunc: func(t *testing.T) string {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					_, _ = io.WriteString(w, "spam\tclaim your prize\nham\tok\nham\thome soon\n")
				}))
				t.Cleanup(server.Close)
				return server.URL
			},
			expectRows: 3,
		},
		{
			name: "http URL with error status",
			setupFunc: func(t *testing.T) string {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusNotFound)
				}))
				t.Cleanup(server.Close)
				return server.URL
			},
			expectError: true,
		},
		{
			name: "empty source",
			setupFunc: func(t *testing.T) string {
				return ""
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := tt.setupFunc(t)
			c, _, err := corpus.Load(context.Background(), source)

			if tt.expectError {
				if err == nil {
					t.Fatalf("Load(%q) expected error, got nil", source)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load(%q) unexpected error: %v", source, err)
			}
			if len(c) != tt.expectRows {
				t.Errorf("Load(%q) returned %d rows, want %d", source, len(c), tt.expectRows)
			}
		})
	}
}
