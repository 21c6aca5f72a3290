package backend

import (
	"errors"
	"fmt"
	"strings"

	"portalunk/internal/config"
)

// ErrInvalidBackend is returned for a DATA_BACKEND value no factory handles.
var ErrInvalidBackend = errors.New("invalid backend type")

// ParseBackendType reads a DATA_BACKEND value. Case and surrounding spaces
// are ignored; an empty value selects the memory backend.
func ParseBackendType(s string) (BackendType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MemoryBackend, nil
	}
	bt := BackendType(s)
	if !bt.IsValid() {
		return "", fmt.Errorf("%w %q: must be one of %v", ErrInvalidBackend, s, BackendTypeNames())
	}
	return bt, nil
}

// FromAppConfig picks the storage settings out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	bt, err := ParseBackendType(appConfig.DataBackend)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Type:          bt,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		PostgresDSN:   appConfig.PostgresDSN,
		DataDirectory: appConfig.DataDir,
	}, nil
}

// Validate reports every setting missing for the selected backend.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("%w %q", ErrInvalidBackend, c.Type)
	}

	var errs []error
	switch c.Type {
	case SQLiteBackend:
		if strings.TrimSpace(c.SQLiteDBPath) == "" {
			errs = append(errs, errors.New("sqlite backend needs SQLITE_DB_PATH"))
		}
	case PostgresBackend:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("postgres backend needs POSTGRES_DSN"))
		}
	}
	return errors.Join(errs...)
}

// BackendTypeNames lists the accepted DATA_BACKEND values.
func BackendTypeNames() []string {
	return []string{MemoryBackend.String(), SQLiteBackend.String(), PostgresBackend.String()}
}
