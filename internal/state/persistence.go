package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/hedge"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/ledger"
)

const stateVersion = "1.0"

// BotState is the complete recoverable state of the bot: every trade, every
// hedge pair and the tracked balance.
type BotState struct {
	Version      string    `json:"version"`
	LastUpdated  time.Time `json:"last_updated"`
	SessionStart time.Time `json:"session_start"`

	Balance float64         `json:"balance"`
	Trades  []*ledger.Trade `json:"trades"`
	Pairs   []*hedge.Pair   `json:"pairs"`
}

// Store persists bot state as JSON. Writes go to a temp file first and are
// renamed into place, so a crash mid-save never corrupts the previous state.
type Store struct {
	mu       sync.Mutex
	filePath string
}

// NewStore creates a store writing to the given file path
func NewStore(filePath string) *Store {
	return &Store{filePath: filePath}
}

// Save writes the state atomically
func (s *Store) Save(botState *BotState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	botState.Version = stateVersion
	botState.LastUpdated = time.Now()

	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(botState, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Load reads the persisted state. A missing file returns (nil, nil): a fresh
// start, not an error.
func (s *Store) Load() (*BotState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var botState BotState
	if err := json.Unmarshal(data, &botState); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", s.filePath, err)
	}
	return &botState, nil
}

// Path returns the state file location
func (s *Store) Path() string {
	return s.filePath
}
