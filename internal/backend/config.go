package backend

import (
	"fmt"

	"fintrack/internal/config"
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
	cacheType := CacheType(appConfig.CacheBackend)
	if cacheType == "" {
		cacheType = NoCache
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		PostgresURL:  appConfig.PostgresURL,

		FirestoreProjectID:       appConfig.FirestoreProjectID,
		FirestoreCredentialsFile: appConfig.FirestoreCredentialsFile,
		FirestoreCredentialsJSON: appConfig.FirestoreCredentialsJSON,

		Cache:     cacheType,
		CacheSize: appConfig.CacheSize,
		CacheTTL:  appConfig.CacheTTL,
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
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return fmt.Errorf("database URL is required for postgres backend")
		}
	case FirestoreBackend:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("project id is required for firestore backend")
		}
	}

	if !c.Cache.IsValid() {
		return fmt.Errorf("invalid cache type: %s", c.Cache)
	}
	if c.Cache != NoCache && (c.CacheSize < 1 || c.CacheTTL <= 0) {
		return fmt.Errorf("cache size and ttl must be positive when caching is enabled")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend, FirestoreBackend}
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
