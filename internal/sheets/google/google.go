package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"moodqueue/internal/core"
	ports "moodqueue/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DriveFileScope lets a service account touch files shared with it.
const DriveFileScope = "https://www.googleapis.com/auth/drive.file"

// Config describes how to reach the mood spreadsheet.
type Config struct {
	SpreadsheetID string
	// Worksheet is the tab holding the mood table. Empty means the first
	// tab of the spreadsheet.
	Worksheet string
	// CredentialsJSON is a service-account key.
	CredentialsJSON []byte

	// Endpoint and HTTPClient override the API transport. When HTTPClient
	// is set, CredentialsJSON is ignored.
	Endpoint   string
	HTTPClient *http.Client
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu        sync.Mutex
	worksheet string
}

// Ensure interface conformance
var _ ports.Store = (*Client)(nil)

// New creates a Sheets client. It does not contact the API; the first
// call resolves the worksheet name when none is configured.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	opts := []goption.ClientOption{
		goption.WithScopes(gsheet.SpreadsheetsScope, DriveFileScope),
	}
	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, goption.WithHTTPClient(cfg.HTTPClient))
	case len(cfg.CredentialsJSON) > 0:
		if !json.Valid(cfg.CredentialsJSON) {
			return nil, errors.New("service account credentials are not valid JSON")
		}
		opts = append(opts, goption.WithCredentialsJSON(cfg.CredentialsJSON))
	default:
		return nil, errors.New("missing service account credentials")
	}
	if cfg.Endpoint != "" {
		opts = append(opts, goption.WithEndpoint(cfg.Endpoint))
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", spreadsheetID,
		"worksheet", cfg.Worksheet)

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		worksheet:     strings.TrimSpace(cfg.Worksheet),
	}, nil
}

// LoadCredentials returns the service-account key from inline JSON or,
// failing that, from a file path.
func LoadCredentials(inlineJSON, file string) ([]byte, error) {
	inlineJSON = strings.TrimSpace(inlineJSON)
	file = strings.TrimSpace(file)

	var raw []byte
	switch {
	case inlineJSON != "":
		raw = []byte(inlineJSON)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("missing service account credentials (set SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	if !json.Valid(raw) {
		return nil, errors.New("service account credentials are not valid JSON")
	}
	return raw, nil
}

// Append adds one row after the last row of the table.
func (c *Client) Append(ctx context.Context, r core.MoodRecord) (string, error) {
	if err := r.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", ports.ErrNotConfigured
	}
	sheet, err := c.sheetName(ctx)
	if err != nil {
		return "", err
	}

	rng := a1Range(sheet, "A:C")
	vr := &gsheet.ValueRange{Values: [][]any{{r.Timestamp, int(r.Mood), r.Note}}}
	// RAW keeps the timestamp as fixed-width text instead of letting the
	// sheet reinterpret it as a date serial.
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", rng, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// ReadAll returns every data row, keyed by the header row.
func (c *Client) ReadAll(ctx context.Context) ([]core.RawRecord, error) {
	if c.svc == nil {
		return nil, ports.ErrNotConfigured
	}
	sheet, err := c.sheetName(ctx)
	if err != nil {
		return nil, err
	}
	rng := a1Range(sheet, "A:C")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return ports.Records(resp.Values), nil
}

// EnsureHeader writes the header row into an empty table. It returns true
// when the header was written and fails if a different header is there.
func (c *Client) EnsureHeader(ctx context.Context) (bool, error) {
	if c.svc == nil {
		return false, ports.ErrNotConfigured
	}
	sheet, err := c.sheetName(ctx)
	if err != nil {
		return false, err
	}
	rng := a1Range(sheet, "A1:C1")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		got := ports.ToStrings(resp.Values[0])
		if !ports.NewColumns(got).Complete() {
			return false, fmt.Errorf("unexpected header in %s: got %v, want %v", rng, got, ports.Header())
		}
		return false, nil
	}

	header := make([]any, 0, 3)
	for _, h := range ports.Header() {
		header = append(header, h)
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("write header %s: %w", rng, err)
	}
	return true, nil
}

// sheetName returns the configured worksheet or looks up the first tab.
// A failed lookup is retried on the next call.
func (c *Client) sheetName(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.worksheet != "" {
		return c.worksheet, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get spreadsheet %s: %w", c.spreadsheetID, err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil || ss.Sheets[0].Properties.Title == "" {
		return "", fmt.Errorf("spreadsheet %s has no worksheets", c.spreadsheetID)
	}
	c.worksheet = ss.Sheets[0].Properties.Title
	slog.DebugContext(ctx, "Resolved first worksheet", "worksheet", c.worksheet)
	return c.worksheet, nil
}

// a1Range quotes a sheet title for A1 notation.
func a1Range(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}
