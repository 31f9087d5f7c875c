package backend

import (
	"fmt"

	"catat/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		NotionToken:      appConfig.NotionToken,
		NotionDatabaseID: appConfig.NotionDatabaseID,
		NotionProperties: NotionProperties{
			Title:    appConfig.NotionTitleProperty,
			Date:     appConfig.NotionDateProperty,
			Category: appConfig.NotionCategoryProperty,
			Amount:   appConfig.NotionAmountProperty,
		},

		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		DataDirectory: appConfig.MemorySeedDir,

		CategoryCacheTTL: appConfig.CategoryCacheTTL,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case NotionBackend:
		if c.NotionToken == "" {
			return fmt.Errorf("Notion token is required for notion backend")
		}
		if c.NotionDatabaseID == "" {
			return fmt.Errorf("Notion database ID is required for notion backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case MemoryBackend:
		// DataDirectory defaults to "data" when empty
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{NotionBackend, SheetsBackend, SQLiteBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
