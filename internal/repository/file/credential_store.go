package file

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"blink-pin/internal/hashing"
	"blink-pin/internal/model"
	"blink-pin/internal/util"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type storeDocument struct {
	Users map[string]storeRecord `json:"users"`
}

// rawDocument lets one malformed record be skipped without losing the rest.
type rawDocument struct {
	Users map[string]jsoniter.RawMessage `json:"users"`
}

type storeRecord struct {
	PINHash   string  `json:"pin_hash"`
	PINLength int     `json:"pin_length"`
	UpdatedAt float64 `json:"updated_at"` // unix seconds
}

// CredentialStore persists credentials as one JSON document. Every call
// re-reads the file and every mutation rewrites it whole.
type CredentialStore struct {
	path   string
	hasher *hashing.Hasher
	now    func() time.Time
	mu     sync.Mutex
}

func NewCredentialStore(path string, hasher *hashing.Hasher) *CredentialStore {
	return &CredentialStore{
		path:   path,
		hasher: hasher,
		now:    time.Now,
	}
}

func (s *CredentialStore) Path() string {
	return s.path
}

// SetUserPIN creates or overwrites the record for username.
func (s *CredentialStore) SetUserPIN(username, pin string) error {
	username = util.NormalizeUsername(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", model.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	doc.Users[username] = storeRecord{
		PINHash:   s.hasher.HashPIN(pin),
		PINLength: len(pin),
		UpdatedAt: toUnixSeconds(s.now()),
	}

	if err := s.save(doc); err != nil {
		util.Error("Failed to persist credential store",
			zap.String("path", s.path),
			zap.Error(err))
		return err
	}

	util.Debug("Credential stored",
		zap.String("username", username),
		zap.Int("pin_length", len(pin)))
	return nil
}

// Get returns the full record for username.
func (s *CredentialStore) Get(username string) (*model.UserCredential, error) {
	username = util.NormalizeUsername(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.load().Users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownUser, username)
	}
	return toCredential(username, rec), nil
}

// GetPINHash returns the stored digest, or false if username is unknown.
func (s *CredentialStore) GetPINHash(username string) (string, bool) {
	cred, err := s.Get(username)
	if err != nil {
		return "", false
	}
	return cred.PINHash, true
}

// GetPINLength returns the stored PIN length, or def if username is unknown
// or the record carries no length.
func (s *CredentialStore) GetPINLength(username string, def int) int {
	cred, err := s.Get(username)
	if err != nil || cred.PINLength <= 0 {
		return def
	}
	return cred.PINLength
}

// Verify compares pin against the stored digest for username.
func (s *CredentialStore) Verify(username, pin string) (bool, error) {
	cred, err := s.Get(username)
	if err != nil {
		return false, err
	}
	return s.hasher.VerifyPIN(pin, cred.PINHash), nil
}

// ListUsers returns all usernames in lexical order.
func (s *CredentialStore) ListUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	names := make([]string, 0, len(doc.Users))
	for name := range doc.Users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every stored record keyed by username.
func (s *CredentialStore) All() map[string]model.UserCredential {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	out := make(map[string]model.UserCredential, len(doc.Users))
	for name, rec := range doc.Users {
		out[name] = *toCredential(name, rec)
	}
	return out
}

// DeleteUser removes the record for username.
func (s *CredentialStore) DeleteUser(username string) error {
	username = util.NormalizeUsername(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	if _, ok := doc.Users[username]; !ok {
		return fmt.Errorf("%w: %s", model.ErrUnknownUser, username)
	}
	delete(doc.Users, username)

	if err := s.save(doc); err != nil {
		util.Error("Failed to persist credential store",
			zap.String("path", s.path),
			zap.Error(err))
		return err
	}
	return nil
}

// load never fails: a missing or unreadable file is an empty store.
func (s *CredentialStore) load() storeDocument {
	empty := storeDocument{Users: map[string]storeRecord{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			util.Warn("Credential store unreadable, using empty store",
				zap.String("path", s.path),
				zap.Error(fmt.Errorf("%w: %v", model.ErrCorruptStore, err)))
		}
		return empty
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		util.Warn("Credential store corrupt, using empty store",
			zap.String("path", s.path),
			zap.Error(fmt.Errorf("%w: %v", model.ErrCorruptStore, err)))
		return empty
	}

	doc := empty
	for name, msg := range raw.Users {
		if string(msg) == "null" {
			continue
		}
		var rec storeRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			util.Warn("Skipping corrupt credential record",
				zap.String("path", s.path),
				zap.Error(fmt.Errorf("%w: %v", model.ErrCorruptStore, err)))
			util.Debug("Corrupt credential record", zap.String("username", name))
			continue
		}
		doc.Users[name] = rec
	}
	return doc
}

// save writes to a temporary file in the same directory and renames it
// over the store so readers never observe a partial document.
func (s *CredentialStore) save(doc storeDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp store file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("failed to set store permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace credential store: %w", err)
	}
	return nil
}

func toCredential(username string, rec storeRecord) *model.UserCredential {
	return &model.UserCredential{
		Username:  username,
		PINHash:   rec.PINHash,
		PINLength: rec.PINLength,
		UpdatedAt: fromUnixSeconds(rec.UpdatedAt),
	}
}

func toUnixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

func fromUnixSeconds(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9)))
}
