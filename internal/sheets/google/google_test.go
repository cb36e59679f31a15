package google

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", filepath.Join(t.TempDir(), "missing.json"))

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestNewClient_DefaultSheetNames(t *testing.T) {
	c := newClient(nil, Config{SpreadsheetID: " id "})
	if c.spreadsheetID != "id" {
		t.Errorf("expected trimmed id, got %q", c.spreadsheetID)
	}
	if c.eventsSheet != DefaultEventsSheet || c.groupsSheet != DefaultGroupsSheet {
		t.Errorf("unexpected sheet names: %q %q", c.eventsSheet, c.groupsSheet)
	}

	c = newClient(nil, Config{SpreadsheetID: "id", EventsSheet: "Ev", GroupsSheet: "Gr"})
	if c.eventsSheet != "Ev" || c.groupsSheet != "Gr" {
		t.Errorf("unexpected sheet names: %q %q", c.eventsSheet, c.groupsSheet)
	}
}

func TestClient_NilService(t *testing.T) {
	c := newClient(nil, Config{SpreadsheetID: "id"})
	if _, err := c.ReadEvents(context.Background()); err == nil {
		t.Fatal("expected error with nil service")
	}
	if _, err := c.ReadGroups(context.Background()); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestNew_ExplicitCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Config{
		SpreadsheetID:   "test-id",
		CredentialsFile: filepath.Join(t.TempDir(), "missing.json"),
	})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error for explicit file, got %v", err)
	}
}
