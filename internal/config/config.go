package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/fueldepot/internal/domain/models"
)

// Ledger backends.
const (
	BackendCSV    = "csv"
	BackendSheets = "sheets"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Ledger    LedgerConfig
	Depot     models.Parameters
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig holds logger options.
type LogConfig struct {
	Level string
}

// LedgerConfig selects the flat record store.
type LedgerConfig struct {
	Backend string
	CSVDir  string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
// Notifications are disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken    string
	PhoneNumberID  string
	VerifyToken    string
	BaseURL        string
	APIVersion     string
	ManagerID      string
	AllowedSenders []string
}

// Enabled reports whether outbound WhatsApp messages can be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// Location resolves the reporting timezone.
func (c ReportingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// MongoDBConfig holds settings for MongoDB. Snapshots are disabled when URI is empty.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	depot, err := loadDepot()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Ledger: LedgerConfig{
			Backend: strings.ToLower(getenvWithDefault("LEDGER_BACKEND", BackendCSV)),
			CSVDir:  getenvWithDefault("LEDGER_CSV_DIR", "data"),
		},
		Depot: depot,
		WhatsApp: WhatsAppConfig{
			AccessToken:    os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:  os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:    os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:        getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:     getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			ManagerID:      os.Getenv("WHATSAPP_MANAGER_ID"),
			AllowedSenders: splitList(os.Getenv("WHATSAPP_ALLOWED_SENDERS")),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Africa/Bamako"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "fueldepot"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Ledger.Backend {
	case BackendCSV:
		if c.Ledger.CSVDir == "" {
			return errors.New("LEDGER_CSV_DIR must not be empty")
		}
	case BackendSheets:
		if c.Sheets.CredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
		}
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided")
		}
	default:
		return fmt.Errorf("LEDGER_BACKEND %q is not supported", c.Ledger.Backend)
	}

	if err := c.Depot.Validate(); err != nil {
		return err
	}

	if c.WhatsApp.Enabled() {
		if c.WhatsApp.BaseURL == "" {
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		}
		if c.WhatsApp.APIVersion == "" {
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
		if c.WhatsApp.VerifyToken == "" {
			return errors.New("META_VERIFY_TOKEN must be provided")
		}
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if _, err := c.Reporting.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	return nil
}

func loadDepot() (models.Parameters, error) {
	params := models.DefaultParameters()

	var err error
	if params.InitialStock, err = getenvDecimal("INITIAL_STOCK", params.InitialStock); err != nil {
		return params, err
	}
	if params.UnitPrice, err = getenvDecimal("UNIT_PRICE", params.UnitPrice); err != nil {
		return params, err
	}
	if params.SafetyThreshold, err = getenvDecimal("SAFETY_THRESHOLD", params.SafetyThreshold); err != nil {
		return params, err
	}

	if raw := os.Getenv("TANK_CAPACITY"); raw != "" {
		capacity, err := decimal.NewFromString(raw)
		if err != nil {
			return params, fmt.Errorf("TANK_CAPACITY is not a number: %w", err)
		}
		params.TankCapacity = &capacity
	}
	if raw := os.Getenv("SAFETY_PERCENT"); raw != "" {
		percent, err := decimal.NewFromString(raw)
		if err != nil {
			return params, fmt.Errorf("SAFETY_PERCENT is not a number: %w", err)
		}
		params.SafetyPercent = &percent
	}

	return params, nil
}

func getenvDecimal(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return fallback, fmt.Errorf("%s is not a number: %w", key, err)
	}
	return value, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
