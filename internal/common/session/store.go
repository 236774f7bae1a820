// Package session persists the opaque auth token and the signed-in user's
// profile between CLI invocations.
package session

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

	"bayi-rut/internal/common/config"
	"bayi-rut/internal/common/database"
	apperrors "bayi-rut/internal/common/errors"
	"bayi-rut/internal/models"
)

// ErrNotFound is returned when a value has never been saved or was cleared.
var ErrNotFound = errors.New("session value not found")

// Store is a small key-value persistence for session data.
type Store interface {
	SaveToken(ctx context.Context, token string) error
	Token(ctx context.Context) (string, error)
	SaveUser(ctx context.Context, user models.UserProfile) error
	User(ctx context.Context) (*models.UserProfile, error)
	Clear(ctx context.Context) error
}

// Load assembles a Session from store. A missing token or profile is a
// session error; the caller should ask the user to log in again.
func Load(ctx context.Context, store Store) (*models.Session, error) {
	token, err := store.Token(ctx)
	if errors.Is(err, ErrNotFound) || (err == nil && token == "") {
		return nil, apperrors.NewSessionError("no token stored", ErrNotFound)
	}
	if err != nil {
		return nil, apperrors.NewSessionError("failed to read token", err)
	}

	user, err := store.User(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.NewSessionError("no user profile stored", err)
	}
	if err != nil {
		return nil, apperrors.NewSessionError("failed to read user profile", err)
	}

	return &models.Session{Token: token, User: *user, CreatedAt: time.Now().UTC()}, nil
}

// Login stores token and user in one step.
func Login(ctx context.Context, store Store, token string, user models.UserProfile) (*models.Session, error) {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(user.ID) == "" {
		return nil, apperrors.NewValidationError("Token ve kullanıcı kimliği zorunludur", "token and user id are required")
	}
	if err := store.SaveToken(ctx, token); err != nil {
		return nil, apperrors.NewSessionError("failed to save token", err)
	}
	if err := store.SaveUser(ctx, user); err != nil {
		return nil, apperrors.NewSessionError("failed to save user profile", err)
	}
	return &models.Session{Token: token, User: user, CreatedAt: time.Now().UTC()}, nil
}

// New builds the store selected by cfg.
func New(cfg config.SessionConfig) (Store, error) {
	switch cfg.Store {
	case config.SessionStoreMemory:
		return NewMemoryStore(), nil
	case config.SessionStoreFile, "":
		return NewFileStore(cfg.FilePath), nil
	case config.SessionStoreRedis:
		return NewRedisStore(database.NewRedis(cfg.Redis), cfg.Redis.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

// ==========================
// Memory
// ==========================

type MemoryStore struct {
	mu    sync.RWMutex
	token string
	user  *models.UserProfile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNotFound
	}
	return s.token, nil
}

func (s *MemoryStore) SaveUser(_ context.Context, user models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	return nil
}

func (s *MemoryStore) User(_ context.Context) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, ErrNotFound
	}
	u := *s.user
	return &u, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	return nil
}

// ==========================
// File
// ==========================

type fileContents struct {
	Token string              `json:"token,omitempty"`
	User  *models.UserProfile `json:"user,omitempty"`
}

// FileStore keeps the session in a single JSON file readable only by the
// owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) read() (*fileContents, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &fileContents{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var fc fileContents
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to decode session file: %w", err)
	}
	return &fc, nil
}

func (s *FileStore) write(fc *fileContents) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) update(fn func(*fileContents)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fc, err := s.read()
	if err != nil {
		return err
	}
	fn(fc)
	return s.write(fc)
}

func (s *FileStore) SaveToken(_ context.Context, token string) error {
	return s.update(func(fc *fileContents) { fc.Token = token })
}

func (s *FileStore) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fc, err := s.read()
	if err != nil {
		return "", err
	}
	if fc.Token == "" {
		return "", ErrNotFound
	}
	return fc.Token, nil
}

func (s *FileStore) SaveUser(_ context.Context, user models.UserProfile) error {
	return s.update(func(fc *fileContents) { fc.User = &user })
}

func (s *FileStore) User(_ context.Context) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fc, err := s.read()
	if err != nil {
		return nil, err
	}
	if fc.User == nil {
		return nil, ErrNotFound
	}
	return fc.User, nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ==========================
// Redis
// ==========================

// RedisStore shares one session across machines through Redis.
type RedisStore struct {
	client *database.RedisClient
	prefix string
}

func NewRedisStore(client *database.RedisClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) tokenKey() string { return s.prefix + "token" }
func (s *RedisStore) userKey() string  { return s.prefix + "user" }

func (s *RedisStore) SaveToken(ctx context.Context, token string) error {
	return s.client.Set(ctx, s.tokenKey(), token, 0)
}

func (s *RedisStore) Token(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.tokenKey())
	if errors.Is(err, database.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	return val, err
}

func (s *RedisStore) SaveUser(ctx context.Context, user models.UserProfile) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user profile: %w", err)
	}
	return s.client.Set(ctx, s.userKey(), data, 0)
}

func (s *RedisStore) User(ctx context.Context) (*models.UserProfile, error) {
	val, err := s.client.Get(ctx, s.userKey())
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var user models.UserProfile
	if err := json.Unmarshal([]byte(val), &user); err != nil {
		return nil, fmt.Errorf("failed to decode user profile: %w", err)
	}
	return &user, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.tokenKey(), s.userKey())
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
