package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"multibagger/observability"
)

const fileName = "preferences.enc"

// Preferences are the user's messaging and alert settings
type Preferences struct {
	TeamID             string  `json:"team_id"`
	ChannelID          string  `json:"channel_id"`
	AlertRiskThreshold string  `json:"alert_risk_threshold"`
	AlertMinScore      float64 `json:"alert_min_score"`
}

// DefaultPreferences alert on every risk level from a score of 5
func DefaultPreferences() Preferences {
	return Preferences{
		AlertRiskThreshold: RiskThresholdAll,
		AlertMinScore:      5,
	}
}

// Store keeps preferences in an encrypted file
type Store struct {
	mu       sync.RWMutex
	filePath string
	prefs    Preferences
	crypto   *Crypto
}

// NewStore opens the preferences file in dataDir, which defaults to
// ~/.multibagger. A missing or unreadable file leaves the defaults in place.
func NewStore(dataDir string, passphrase string) (*Store, error) {
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".multibagger")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	store := &Store{
		filePath: filepath.Join(dataDir, fileName),
		crypto:   NewCrypto(passphrase),
		prefs:    DefaultPreferences(),
	}

	if err := store.load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		observability.WithError(err).Warn("failed to load preferences, using defaults", "path", store.filePath)
	}

	return store, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	plain, err := s.crypto.Decrypt(data)
	if err != nil {
		return err
	}

	prefs := DefaultPreferences()
	if err := json.Unmarshal(plain, &prefs); err != nil {
		return fmt.Errorf("failed to unmarshal preferences: %w", err)
	}

	s.mu.Lock()
	s.prefs = prefs
	s.mu.Unlock()
	return nil
}

func (s *Store) save(prefs Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	sealed, err := s.crypto.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt preferences: %w", err)
	}

	if err := os.WriteFile(s.filePath, sealed, 0600); err != nil {
		return fmt.Errorf("failed to write preferences file: %w", err)
	}
	return nil
}

// Get returns the current preferences
func (s *Store) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Update validates and persists prefs. Nothing changes when validation or
// the write fails.
func (s *Store) Update(prefs Preferences) error {
	if err := Validate(prefs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(prefs); err != nil {
		return err
	}
	s.prefs = prefs
	return nil
}

// Reset restores and persists the defaults
func (s *Store) Reset() error {
	return s.Update(DefaultPreferences())
}

// Path returns the preferences file location
func (s *Store) Path() string {
	return s.filePath
}
