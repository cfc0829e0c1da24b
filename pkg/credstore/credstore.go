// Package credstore persists Pollbase session tokens on disk.
//
// Credentials live in a single JSON file keyed by profile name, written
// atomically (write-tmp-then-rename) with an flock for cross-process safety
// and 0600 permissions. A FileTokenStore binds one profile to the
// pollbase.TokenStore interface so the client reads and writes tokens
// transparently across CLI invocations.
package credstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"

	pollbase "github.com/pollbase/pollbase-go"
)

// DefaultProfile is used when no --profile flag or config entry names one.
const DefaultProfile = "default"

// credential is one stored session, keyed by profile in the file.
type credential struct {
	AccessToken string    `json:"access_token,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// credentialsFile is the on-disk layout of the credentials file.
type credentialsFile struct {
	Version string `json:"version"`
	// PassphraseHash, when set, gates Reveal. Stored as an argon2id hash;
	// the passphrase itself never touches disk.
	PassphraseHash string                `json:"passphrase_hash,omitempty"`
	Profiles       map[string]credential `json:"profiles"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// FileStore manages reading and writing the credentials file.
// It provides atomic writes, file locking (flock for cross-process, mutex
// for in-process), and warns when the file permissions are wider than 0600.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileStore creates a FileStore for the given file path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// DefaultPath returns the conventional credentials location,
// ~/.pollbase/credentials.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".pollbase", "credentials.json"), nil
}

// load reads and parses the credentials file. A missing file yields an
// empty document rather than an error.
func (s *FileStore) load() (*credentialsFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &credentialsFile{Version: "1", Profiles: map[string]credential{}}, nil
		}
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	// Unix permission bits do not apply on Windows.
	if runtime.GOOS != "windows" {
		if info, statErr := os.Stat(s.path); statErr == nil {
			mode := info.Mode().Perm()
			if mode&0077 != 0 {
				s.logger.Warn("credentials file has too-open permissions, should be 0600",
					"path", s.path, "current_mode", fmt.Sprintf("%04o", mode))
			}
		}
	}

	var doc credentialsFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}
	if doc.Profiles == nil {
		doc.Profiles = map[string]credential{}
	}
	return &doc, nil
}

// save writes the credentials document to disk atomically.
//
// The write sequence is:
//  1. Acquire in-process mutex (held by the caller via update)
//  2. Acquire flock on path+".lock"
//  3. Copy current file to path+".bak"
//  4. Write to path+".tmp" with 0600 permissions, fsync, rename over path
func (s *FileStore) save(doc *credentialsFile) error {
	doc.Version = "1"
	doc.UpdatedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	lockPath := s.path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() { _ = lockFile.Close() }()

	if err := flockLock(lockFile.Fd()); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer flockUnlock(lockFile.Fd()) //nolint:errcheck

	if currentData, readErr := os.ReadFile(s.path); readErr == nil {
		if writeErr := os.WriteFile(s.path+".bak", currentData, 0600); writeErr != nil {
			s.logger.Warn("failed to create credentials backup", "error", writeErr)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	data = append(data, '\n')

	if err := s.writeAtomic(data); err != nil {
		return err
	}

	if err := os.Chmod(s.path, 0600); err != nil {
		s.logger.Warn("failed to set permissions on credentials file", "error", err)
	}

	s.logger.Debug("credentials saved", "path", s.path)
	return nil
}

// writeAtomic writes data to a temp file, fsyncs it, and renames it over
// the target path. On any error the temp file is cleaned up.
func (s *FileStore) writeAtomic(data []byte) error {
	tmpPath := s.path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp to credentials: %w", err)
	}
	return nil
}

// update applies fn to the current document under the store lock and saves
// the result.
func (s *FileStore) update(fn func(*credentialsFile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(doc)
}

// Token returns the stored access token for a profile. A missing profile
// yields an empty string, not an error.
func (s *FileStore) Token(profile string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}
	return doc.Profiles[profile].AccessToken, nil
}

// SetToken stores an access token for a profile.
func (s *FileStore) SetToken(profile, token string) error {
	return s.update(func(doc *credentialsFile) error {
		doc.Profiles[profile] = credential{AccessToken: token, UpdatedAt: time.Now().UTC()}
		return nil
	})
}

// ClearToken removes the stored token for a profile.
func (s *FileStore) ClearToken(profile string) error {
	return s.update(func(doc *credentialsFile) error {
		delete(doc.Profiles, profile)
		return nil
	})
}

// Profiles returns the profile names that currently hold a token.
func (s *FileStore) Profiles() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc.Profiles))
	for name := range doc.Profiles {
		names = append(names, name)
	}
	return names, nil
}

// SetPassphrase protects secret reveal with a passphrase. Only an argon2id
// hash is stored; the passphrase cannot be recovered from the file.
func (s *FileStore) SetPassphrase(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}
	hash, err := argon2id.CreateHash(passphrase, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("hash passphrase: %w", err)
	}
	return s.update(func(doc *credentialsFile) error {
		doc.PassphraseHash = hash
		return nil
	})
}

// Reveal returns the stored token for a profile after checking the
// passphrase. When no passphrase is set, any input is accepted.
func (s *FileStore) Reveal(profile, passphrase string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}
	if doc.PassphraseHash != "" {
		ok, err := comparePassphrase(passphrase, doc.PassphraseHash)
		if err != nil {
			return "", fmt.Errorf("verify passphrase: %w", err)
		}
		if !ok {
			return "", fmt.Errorf("passphrase mismatch")
		}
	}
	return doc.Profiles[profile].AccessToken, nil
}

// comparePassphrase wraps the argon2id comparison with a panic recovery so
// a corrupted stored hash degrades to a mismatch instead of crashing.
func comparePassphrase(passphrase, hash string) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("malformed passphrase hash: %v", r)
		}
	}()
	return argon2id.ComparePasswordAndHash(passphrase, hash)
}

// Exists reports whether the credentials file exists on disk.
func (s *FileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Path returns the configured file path.
func (s *FileStore) Path() string { return s.path }

// FileTokenStore binds one profile of a FileStore to the client's
// TokenStore interface.
type FileTokenStore struct {
	store   *FileStore
	profile string
}

var _ pollbase.TokenStore = (*FileTokenStore)(nil)

// NewFileTokenStore returns a TokenStore persisting the given profile's
// token in store. An empty profile selects DefaultProfile.
func NewFileTokenStore(store *FileStore, profile string) *FileTokenStore {
	if profile == "" {
		profile = DefaultProfile
	}
	return &FileTokenStore{store: store, profile: profile}
}

// Load returns the persisted token, empty when none is stored.
func (s *FileTokenStore) Load() (string, error) {
	return s.store.Token(s.profile)
}

// Save persists the token.
func (s *FileTokenStore) Save(token string) error {
	return s.store.SetToken(s.profile, token)
}

// Clear removes the persisted token.
func (s *FileTokenStore) Clear() error {
	return s.store.ClearToken(s.profile)
}
