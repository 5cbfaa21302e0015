package backend

import (
	"errors"
	"fmt"
	"os"

	"viagem/internal/config"
)

// FromAppConfig picks the backend settings out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	bt := BackendType(appConfig.DataBackend)
	if !bt.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	cfg := Config{Type: bt}
	switch bt {
	case SheetsBackend:
		cfg.GoogleSpreadsheetID = appConfig.GoogleSpreadsheetID
		cfg.GoogleCredentialsFile = appConfig.GoogleCredentialsFile
		cfg.GoogleCredentialsJSON = appConfig.GoogleCredentialsJSON
		cfg.GoogleSheetCacheTTL = appConfig.GoogleSheetCacheTTL
	case MemoryBackend:
		cfg.MemorySeedFile = appConfig.MemorySeedFile
	}
	return cfg, nil
}

// Validate checks the settings the selected backend needs.
func (c Config) Validate() error {
	switch c.Type {
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleCredentialsJSON == "" && c.GoogleCredentialsFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			return errors.New("sheets backend needs GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE or GOOGLE_APPLICATION_CREDENTIALS")
		}
		return nil
	case MemoryBackend:
		return nil
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
}
