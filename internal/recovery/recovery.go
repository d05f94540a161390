// Package recovery keeps the device-local recovery code that gates
// destructive maintenance such as clearing the settings cache.
package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	"github.com/smallbiznis/shipdesk/internal/auth/password"
	"github.com/smallbiznis/shipdesk/internal/cache"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	fileName          = "recovery.json"
	minPasscodeLength = 6
)

var (
	ErrNotConfigured   = errors.New("recovery_not_configured")
	ErrInvalidUsername = errors.New("invalid_username")
	ErrWeakPasscode    = errors.New("weak_passcode")
	ErrInvalidPasscode = errors.New("invalid_recovery_code")
)

type record struct {
	Username     string    `json:"username"`
	PasscodeHash string    `json:"passcodeHash"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Status struct {
	Configured bool       `json:"configured"`
	Username   string     `json:"username,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
	Path       string     `json:"path"`
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	Clock  clock.Clock
	Audit  auditdomain.Service
	Cache  *cache.SettingsCache `optional:"true"`
}

type Store struct {
	mu    sync.Mutex
	path  string
	log   *zap.Logger
	clock clock.Clock
	audit auditdomain.Service
	cache *cache.SettingsCache
}

func NewStore(p Params) *Store {
	return &Store{
		path:  filepath.Join(p.Config.DataDir, fileName),
		log:   p.Log.Named("recovery"),
		clock: p.Clock,
		audit: p.Audit,
		cache: p.Cache,
	}
}

func (s *Store) Path() string { return s.path }

// Set stores username and the hashed passcode, replacing any previous pair.
func (s *Store) Set(ctx context.Context, username, passcode string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrInvalidUsername
	}
	if len(passcode) < minPasscodeLength {
		return ErrWeakPasscode
	}
	hashed, err := password.Hash(passcode)
	if err != nil {
		return err
	}

	s.mu.Lock()
	err = s.write(record{Username: username, PasscodeHash: hashed, UpdatedAt: s.clock.Now()})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.record(ctx, "recovery.set", map[string]any{"username": username})
	return nil
}

func (s *Store) Verify(username, passcode string) error {
	s.mu.Lock()
	rec, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(username), rec.Username) || !password.Verify(passcode, rec.PasscodeHash) {
		return ErrInvalidPasscode
	}
	return nil
}

func (s *Store) Status() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read()
	if errors.Is(err, ErrNotConfigured) {
		return Status{Path: s.path}, nil
	}
	if err != nil {
		return Status{}, err
	}
	updated := rec.UpdatedAt
	return Status{Configured: true, Username: rec.Username, UpdatedAt: &updated, Path: s.path}, nil
}

// Reset removes the stored pair.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	err := os.Remove(s.path)
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotConfigured
	}
	if err != nil {
		return err
	}

	s.record(ctx, "recovery.reset", nil)
	return nil
}

// ClearCache flushes the settings cache once username and passcode verify.
func (s *Store) ClearCache(ctx context.Context, username, passcode string) (cache.FlushResult, error) {
	if err := s.Verify(username, passcode); err != nil {
		return cache.FlushResult{}, err
	}
	result, err := s.cache.Flush(ctx)
	if err != nil {
		return result, err
	}

	s.record(ctx, "cache.cleared", map[string]any{"local": result.Local, "remote": result.Remote})
	return result, nil
}

func (s *Store) read() (record, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return record{}, ErrNotConfigured
	}
	if err != nil {
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return record{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if rec.Username == "" || rec.PasscodeHash == "" {
		return record{}, ErrNotConfigured
	}
	return rec, nil
}

// write replaces the file atomically with owner-only permissions.
func (s *Store) write(rec record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".recovery-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *Store) record(ctx context.Context, action string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, "recovery", "", metadata); err != nil {
		s.log.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}
