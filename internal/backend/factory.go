package backend

import (
	"context"
	"fmt"

	"groupdash/internal/log"
	"groupdash/internal/sheets/file"
	gsheet "groupdash/internal/sheets/google"
	"groupdash/internal/sheets/remote"
	"groupdash/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileBackend:
		return f.createFileBackend(config)
	case HTTPBackend:
		return f.createHTTPBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	src := file.New(config.DataDirectory, config.EventsFile, config.GroupsFile)

	f.logger.Info("Initialized file backend",
		"data_directory", config.DataDirectory,
		"events_file", config.EventsFile,
		"groups_file", config.GroupsFile)

	return &BackendResult{Source: src}, nil
}

func (f *DefaultFactory) createHTTPBackend(config Config) (*BackendResult, error) {
	client := remote.NewHTTPClientWithPooling(config.Timeout)
	src, err := remote.New(config.BaseURL, client, config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize http source: %w", err)
	}

	f.logger.Info("Initialized http backend", "base_url", config.BaseURL, "timeout", config.Timeout)

	return &BackendResult{
		Source: src,
		Cleanup: func() error {
			client.CloseIdleConnections()
			return nil
		},
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Source:  repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		EventsSheet:     config.GoogleEventsSheetName,
		GroupsSheet:     config.GoogleGroupsSheetName,
		CredentialsFile: config.GoogleServiceAccountFile,
		CredentialsJSON: config.GoogleServiceAccountJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)

	return &BackendResult{Source: cli}, nil
}
