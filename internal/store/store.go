// Package store is the keeper's durable state: supervisor configuration,
// journal log and debate archive under a flock-guarded directory.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/robertpelloni/jules-app/internal/keeper"

	"github.com/natefinch/atomic"
)

const (
	configFile  = "supervisor.json"
	logFile     = "keeper.log.jsonl"
	debatesFile = "debates.json"
)

// DefaultBasePath returns ~/.jules-app/keeper.
func DefaultBasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".jules-app", "keeper"), nil
}

// Store persists keeper state as JSON files. Writes go through atomic
// replace so a crash never leaves a half-written config behind.
type Store struct {
	basePath string
	lock     *FileLock
	mu       sync.Mutex
}

// Open creates the state directory, takes the instance lock and returns the
// store. Close releases the lock.
func Open(basePath string, lockCfg *FileLockConfig) (*Store, error) {
	if basePath == "" {
		p, err := DefaultBasePath()
		if err != nil {
			return nil, err
		}
		basePath = p
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	lock, err := NewFileLock(basePath, lockCfg)
	if err != nil {
		return nil, err
	}

	return &Store{basePath: basePath, lock: lock}, nil
}

func (s *Store) Close() {
	if s.lock != nil {
		s.lock.Unlock()
	}
}

func (s *Store) BasePath() string {
	return s.basePath
}

// HasSupervisorConfig reports whether a persisted configuration exists.
func (s *Store) HasSupervisorConfig() bool {
	_, err := os.Stat(filepath.Join(s.basePath, configFile))
	return err == nil
}

// LoadSupervisorConfig reads the persisted configuration and merges defaults
// field by field, so blobs written by older versions stay loadable. A missing
// file yields pure defaults.
func (s *Store) LoadSupervisorConfig() (keeper.SupervisorConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := keeper.DefaultSupervisorConfig()

	content, err := os.ReadFile(filepath.Join(s.basePath, configFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read supervisor config: %w", err)
	}

	var loaded keeper.SupervisorConfig
	if err := json.Unmarshal(content, &loaded); err != nil {
		return cfg, fmt.Errorf("parse supervisor config: %w", err)
	}

	loaded.ApplyDefaults()
	return loaded, nil
}

func (s *Store) SaveSupervisorConfig(cfg keeper.SupervisorConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal supervisor config: %w", err)
	}
	return atomic.WriteFile(filepath.Join(s.basePath, configFile), bytes.NewReader(b))
}

// AppendLog appends one journal entry to the JSONL log. Implements
// keeper.Sink.
func (s *Store) AppendLog(entry keeper.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(s.basePath, logFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("append log entry: %w", err)
	}
	return nil
}

// RecentLogs returns the last n persisted entries, newest first. Lines that
// fail to parse are skipped.
func (s *Store) RecentLogs(n int) ([]keeper.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(filepath.Join(s.basePath, logFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var entries []keeper.Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry keeper.Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan log file: %w", err)
	}

	// Reverse to newest first, then cap.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (s *Store) SaveDebates(debates []keeper.DebateResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(debates, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal debates: %w", err)
	}
	return atomic.WriteFile(filepath.Join(s.basePath, debatesFile), bytes.NewReader(b))
}

func (s *Store) LoadDebates() ([]keeper.DebateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := os.ReadFile(filepath.Join(s.basePath, debatesFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read debates: %w", err)
	}

	var debates []keeper.DebateResult
	if err := json.Unmarshal(content, &debates); err != nil {
		return nil, fmt.Errorf("parse debates: %w", err)
	}
	return debates, nil
}
