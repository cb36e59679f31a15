package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backends lists the accepted DATA_BACKEND values.
var Backends = []string{"file", "http", "sheets", "sqlite"}

type Config struct {
	// HTTP Server
	Port           string
	QueryCacheSize int
	// TrustedProxies are extra CIDRs allowed to set forwarding headers,
	// on top of loopback and private networks.
	TrustedProxies []string

	// Backend selection
	DataBackend   string
	SourceTimeout time.Duration

	// File backend
	DataDir    string
	EventsFile string
	GroupsFile string

	// HTTP backend
	SourceBaseURL string

	// Database
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleEventsSheetName    string
	GoogleGroupsSheetName    string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// AMQP, optional
	AMQPURL         string
	AMQPExchange    string
	AMQPQueue       string
	AMQPNotifyQueue string

	// Reconciliation
	ReconcileRulesFile string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		QueryCacheSize: getEnvInt("QUERY_CACHE_SIZE", 256),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		DataBackend:   getEnv("DATA_BACKEND", "file"),
		SourceTimeout: getEnvDuration("SOURCE_TIMEOUT", 30*time.Second),

		DataDir:    getEnv("DATA_DIR", "./data"),
		EventsFile: getEnv("EVENTS_FILE", "events.csv"),
		GroupsFile: getEnv("GROUPS_FILE", "enriched_groups.csv"),

		SourceBaseURL: getEnv("SOURCE_BASE_URL", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/groupdash.db"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleEventsSheetName:    getEnv("GOOGLE_EVENTS_SHEET_NAME", "events"),
		GoogleGroupsSheetName:    getEnv("GOOGLE_GROUPS_SHEET_NAME", "enriched_groups"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "groupdash"),
		AMQPQueue:       getEnv("AMQP_QUEUE", "reload_requests"),
		AMQPNotifyQueue: getEnv("AMQP_NOTIFY_QUEUE", ""),

		ReconcileRulesFile: getEnv("RECONCILE_RULES_FILE", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// AMQPEnabled reports whether a broker is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.QueryCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid query cache size %d: must be at least 1", c.QueryCacheSize))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR such as 203.0.113.0/24", cidr))
		}
	}

	if c.SourceTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid source timeout %v: must be at least 1 second", c.SourceTimeout))
	} else if c.SourceTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid source timeout %v: must be at most 10 minutes", c.SourceTimeout))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	switch c.DataBackend {
	case "file":
		if c.EventsFile == "" || c.GroupsFile == "" {
			errors = append(errors, "EVENTS_FILE and GROUPS_FILE cannot be empty when using file backend")
		}

	case "http":
		if c.SourceBaseURL == "" {
			errors = append(errors, "SOURCE_BASE_URL is required when using http backend")
		} else if u, err := url.Parse(c.SourceBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid source base URL '%s': %v", c.SourceBaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid source base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}

	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}

	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		hasJSON := c.GoogleServiceAccountJSON != ""
		if !hasFile && !hasJSON {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend")
		}
		if hasFile && !hasJSON {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.ReconcileRulesFile != "" {
		if _, err := os.Stat(c.ReconcileRulesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("reconcile rules file does not exist: %s", c.ReconcileRulesFile))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
