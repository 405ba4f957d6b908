package backend

import (
	"errors"
	"fmt"

	"moodqueue/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GoogleSheetID:      appConfig.GoogleSheetID,
		GoogleWorksheet:    appConfig.GoogleWorksheet,
		ServiceAccountJSON: appConfig.ServiceAccountJSON,
		ServiceAccountFile: appConfig.ServiceAccountFile(),

		DataDirectory: appConfig.DataDir,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
		// AMQP is optional; without it the worker's sweep drains the rows.

	case SheetsBackend:
		if c.GoogleSheetID == "" {
			return errors.New("spreadsheet ID is required for sheets backend")
		}
		if c.ServiceAccountJSON == "" && c.ServiceAccountFile == "" {
			return errors.New("service account credentials are required for sheets backend")
		}

	case MemoryBackend:
		// DataDirectory defaults to "data".
	}

	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := []BackendType{MemoryBackend, SheetsBackend, SQLiteBackend}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
