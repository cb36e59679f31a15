package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "groupdash/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Default tab names, matching the exported file names.
const (
	DefaultEventsSheet = "events"
	DefaultGroupsSheet = "enriched_groups"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	eventsSheet   string
	groupsSheet   string
}

// Config selects the spreadsheet and the two tabs to read. Empty
// credential fields fall back to the environment.
type Config struct {
	SpreadsheetID   string
	EventsSheet     string
	GroupsSheet     string
	CredentialsFile string
	CredentialsJSON string
}

// Ensure interface conformance
var _ ports.Source = (*Client)(nil)

// New creates a Sheets client with service account credentials taken from
// the environment.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, cfg), nil
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional tab names: GOOGLE_EVENTS_SHEET_NAME (default "events"),
// GOOGLE_GROUPS_SHEET_NAME (default "enriched_groups").
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, Config{
		SpreadsheetID: strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
		EventsSheet:   strings.TrimSpace(os.Getenv("GOOGLE_EVENTS_SHEET_NAME")),
		GroupsSheet:   strings.TrimSpace(os.Getenv("GOOGLE_GROUPS_SHEET_NAME")),
	})
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	events := cfg.EventsSheet
	if events == "" {
		events = DefaultEventsSheet
	}
	groups := cfg.GroupsSheet
	if groups == "" {
		groups = DefaultGroupsSheet
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		eventsSheet:   events,
		groupsSheet:   groups,
	}
}

// newSheetsService initializes a read-only Sheets Service using Service Account credentials.
// Without explicit credentials it uses GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountJSON = strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	}
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "scope", gsheet.SpreadsheetsReadonlyScope)
	return service, nil
}

// ReadEvents returns the events tab as a CSV document.
func (c *Client) ReadEvents(ctx context.Context) ([]byte, error) {
	return c.readSheet(ctx, c.eventsSheet)
}

// ReadGroups returns the groups tab as a CSV document.
func (c *Client) ReadGroups(ctx context.Context) ([]byte, error) {
	return c.readSheet(ctx, c.groupsSheet)
}

func (c *Client) readSheet(ctx context.Context, sheetName string) ([]byte, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheetName).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, ports.ErrSourceNotFound)
	}
	doc, err := valuesToCSV(resp.Values)
	if err != nil {
		return nil, fmt.Errorf("render sheet %q: %w", sheetName, err)
	}
	slog.DebugContext(ctx, "Read sheet", "sheet", sheetName, "rows", len(resp.Values)-1)
	return doc, nil
}
