package google

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
	"sync"
	"testing"

	"moodqueue/internal/core"
	applog "moodqueue/internal/log"
	ports "moodqueue/internal/sheets"
)

// fakeSheets emulates the handful of Sheets REST endpoints the client uses.
type fakeSheets struct {
	mu       sync.Mutex
	title    string
	rows     [][]any
	status   int // non-zero forces every call to fail with this code
	appended []map[string]any
	queries  []string
	gets     int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": f.status, "message": "forced failure"},
		})
		return
	}
	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var body struct {
			Values [][]any `json:"values"`
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		f.queries = append(f.queries, r.URL.RawQuery)
		f.rows = append(f.rows, body.Values...)
		f.appended = append(f.appended, map[string]any{"path": path})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId": "sheet-id",
			"updates":       map[string]any{"updatedRange": "'" + f.title + "'!A2:C2"},
		})
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var body struct {
			Values [][]any `json:"values"`
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		f.rows = append(body.Values, f.rows...)
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRows": 1})
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		values := f.rows
		if strings.HasSuffix(path, "A1:C1") {
			values = nil
			if len(f.rows) > 0 {
				values = f.rows[:1]
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"values": values})
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v4/spreadsheets/"):
		f.gets++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sheets": []any{map[string]any{"properties": map[string]any{"title": f.title}}},
		})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets, worksheet string) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), Config{
		SpreadsheetID: "sheet-id",
		Worksheet:     worksheet,
		Endpoint:      srv.URL + "/",
		HTTPClient:    srv.Client(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("expected missing spreadsheet id, got %v", err)
	}
	if _, err := New(context.Background(), Config{SpreadsheetID: "x"}); err == nil {
		t.Fatal("expected missing credentials error")
	}
	_, err := New(context.Background(), Config{SpreadsheetID: "x", CredentialsJSON: []byte("not-json")})
	if err == nil || !strings.Contains(err.Error(), "not valid JSON") {
		t.Fatalf("expected invalid JSON error, got %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	if _, err := LoadCredentials("", ""); err == nil {
		t.Fatal("expected error with no credentials")
	}
	if b, err := LoadCredentials(` {"type":"service_account"} `, ""); err != nil || !json.Valid(b) {
		t.Fatalf("inline: %s %v", b, err)
	}
	if _, err := LoadCredentials("{broken", ""); err == nil {
		t.Fatal("expected invalid JSON error")
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadCredentials("", path); err != nil {
		t.Fatalf("file: %v", err)
	}
	if _, err := LoadCredentials("", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected read error for missing file")
	}
}

func TestAppendAndReadAll_FirstWorksheet(t *testing.T) {
	fake := &fakeSheets{title: "Sheet1", rows: [][]any{{"timestamp", "mood", "note"}}}
	c := newTestClient(t, fake, "")
	ctx := context.Background()

	ref, err := c.Append(ctx, core.MoodRecord{Timestamp: "2024-01-01 10:00:00", Mood: 5, Note: "great day"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "'Sheet1'!A2:C2" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if len(fake.queries) != 1 || !strings.Contains(fake.queries[0], "valueInputOption=RAW") ||
		!strings.Contains(fake.queries[0], "insertDataOption=INSERT_ROWS") {
		t.Fatalf("unexpected append query: %v", fake.queries)
	}

	recs, err := c.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := core.RawRecord{Timestamp: "2024-01-01 10:00:00", Mood: "5", Note: "great day"}
	if len(recs) != 1 || recs[0] != want {
		t.Fatalf("ReadAll = %+v, want [%+v]", recs, want)
	}
	if fake.gets != 1 {
		t.Fatalf("worksheet lookup should run once, ran %d times", fake.gets)
	}
}

func TestAppend_RejectsInvalidRecord(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	_, err := c.Append(context.Background(), core.MoodRecord{Timestamp: "2024-01-01 00:00:00", Mood: 0})
	if !errors.Is(err, core.ErrInvalidMood) {
		t.Fatalf("expected ErrInvalidMood, got %v", err)
	}
}

func TestNilServiceIsNotConfigured(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.ReadAll(context.Background()); !errors.Is(err, ports.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestReadAll_APIErrorIsClassified(t *testing.T) {
	fake := &fakeSheets{title: "Moods", status: http.StatusForbidden}
	c := newTestClient(t, fake, "Moods")
	_, err := c.ReadAll(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := ports.Classify(err); got != applog.ErrorTypeAuth {
		t.Fatalf("Classify = %q, want %q (err=%v)", got, applog.ErrorTypeAuth, err)
	}
}

func TestEnsureHeader(t *testing.T) {
	fake := &fakeSheets{title: "Moods"}
	c := newTestClient(t, fake, "Moods")
	ctx := context.Background()

	created, err := c.EnsureHeader(ctx)
	if err != nil || !created {
		t.Fatalf("first EnsureHeader: created=%v err=%v", created, err)
	}
	created, err = c.EnsureHeader(ctx)
	if err != nil || created {
		t.Fatalf("second EnsureHeader: created=%v err=%v", created, err)
	}

	bad := &fakeSheets{title: "Moods", rows: [][]any{{"when", "what"}}}
	c = newTestClient(t, bad, "Moods")
	if _, err := c.EnsureHeader(ctx); err == nil || !strings.Contains(err.Error(), "unexpected header") {
		t.Fatalf("expected header mismatch error, got %v", err)
	}
}

func TestA1Range(t *testing.T) {
	tests := map[string]string{
		"Sheet1":      "'Sheet1'!A:C",
		"Team Mood":   "'Team Mood'!A:C",
		"Bob's moods": "'Bob''s moods'!A:C",
	}
	for in, want := range tests {
		if got := a1Range(in, "A:C"); got != want {
			t.Errorf("a1Range(%q) = %q, want %q", in, got, want)
		}
	}
}
