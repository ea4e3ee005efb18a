package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/mcoot/tictactoe-go/internal/client"
	"github.com/mcoot/tictactoe-go/internal/model"
	"github.com/mcoot/tictactoe-go/internal/storage"
)

// Authenticator is the slice of the API the store needs
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Register(ctx context.Context, username, email, password string) (*client.AuthResponse, error)
}

// Listener is notified with the new identity (nil after logout)
type Listener func(identity *model.Identity)

// Store is the single source of truth for who is logged in. It is created
// once, initialized once from durable storage and then changed only through
// Login, Register and Logout.
type Store struct {
	storage storage.Storage
	auth    Authenticator
	logger  *slog.Logger

	// opMu serializes the mutating operations end to end
	opMu sync.Mutex

	mu          sync.RWMutex
	session     model.Session
	initialized bool
	listeners   map[int]Listener
	nextID      int
}

// New creates a Store. Call Initialize before use.
func New(store storage.Storage, auth Authenticator, logger *slog.Logger) *Store {
	return &Store{
		storage:   store,
		auth:      auth,
		logger:    logger.With(slog.String("component", "session")),
		listeners: make(map[int]Listener),
	}
}

// Initialize reads the persisted credentials. It returns the identity only
// when both token and username are present and non-empty. A half-present
// pair is cleared so storage is back to both-or-neither.
func (s *Store) Initialize(ctx context.Context) (*model.Identity, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil, model.ErrAlreadyInitialized
	}
	s.initialized = true
	s.mu.Unlock()

	token, err := s.read(ctx, storage.KeyAccessToken)
	if err != nil {
		return nil, err
	}
	username, err := s.read(ctx, storage.KeyUsername)
	if err != nil {
		return nil, err
	}

	if token == "" || username == "" {
		if token != "" || username != "" {
			s.logger.Warn("clearing incomplete persisted session",
				slog.Bool("has_token", token != ""),
				slog.Bool("has_username", username != ""))
			if err := s.storage.DeleteAll(ctx, storage.KeyAccessToken, storage.KeyUsername); err != nil {
				return nil, fmt.Errorf("clear incomplete session: %w", err)
			}
		}
		return nil, nil
	}

	sess := model.Session{
		Identity:   model.Identity{Username: username},
		Credential: model.Credential{Token: token},
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	s.logger.Debug("session restored", slog.String("username", username))
	identity := sess.Identity
	return &identity, nil
}

// Login authenticates against the server. The username stored is the one
// the server returns, or email when the server omits it.
func (s *Store) Login(ctx context.Context, email, password string) (model.Identity, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return model.Identity{}, authError("login", model.MsgLoginFailed, err)
	}
	if resp.AccessToken == "" {
		return model.Identity{}, authError("login", model.MsgLoginFailed, model.ErrMissingAccessToken)
	}

	username := resp.Username
	if username == "" {
		username = email
	}
	return s.establish(ctx, resp.AccessToken, username)
}

// Register creates an account. The client-supplied username is stored
// verbatim whatever the server echoes back.
func (s *Store) Register(ctx context.Context, username, email, password string) (model.Identity, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	resp, err := s.auth.Register(ctx, username, email, password)
	if err != nil {
		return model.Identity{}, authError("register", model.MsgRegistrationFailed, err)
	}
	if resp.AccessToken == "" {
		return model.Identity{}, authError("register", model.MsgRegistrationFailed, model.ErrMissingAccessToken)
	}
	return s.establish(ctx, resp.AccessToken, username)
}

// Logout forgets the session locally. There is no server call and it never
// fails: a storage error is logged and the in-memory identity is cleared
// regardless.
func (s *Store) Logout(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.storage.DeleteAll(ctx, storage.KeyAccessToken, storage.KeyUsername); err != nil {
		s.logger.Error("failed to clear persisted session", slog.String("error", err.Error()))
	}

	s.mu.Lock()
	s.session = model.Session{}
	s.mu.Unlock()

	s.logger.Debug("logged out")
	s.notify(nil)
}

// Identity returns the current identity, or nil when logged out
func (s *Store) Identity() *model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.session.Valid() {
		return nil
	}
	identity := s.session.Identity
	return &identity
}

// Username returns the current username, or "" when logged out
func (s *Store) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Identity.Username
}

// Token implements client.TokenSource
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Credential.Token
}

// Subscribe registers fn to run after every successful login, register and
// logout. Listeners run synchronously on the caller's goroutine in the order
// they subscribed. The returned func unsubscribes.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) establish(ctx context.Context, token, username string) (model.Identity, error) {
	err := s.storage.SetAll(ctx, map[string]string{
		storage.KeyAccessToken: token,
		storage.KeyUsername:    username,
	})
	if err != nil {
		return model.Identity{}, fmt.Errorf("persist session: %w", err)
	}

	identity := model.Identity{Username: username}

	s.mu.Lock()
	s.session = model.Session{Identity: identity, Credential: model.Credential{Token: token}}
	s.mu.Unlock()

	s.logger.Debug("session established", slog.String("username", username))
	s.notify(&identity)
	return identity, nil
}

func (s *Store) notify(identity *model.Identity) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	listeners := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		if identity == nil {
			fn(nil)
			continue
		}
		copied := *identity
		fn(&copied)
	}
}

func (s *Store) read(ctx context.Context, key string) (string, error) {
	v, err := s.storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

// authError maps a remote failure to the display message for the form:
// the server's structured detail when there is one, fallback otherwise
func authError(op, fallback string, err error) *model.AuthError {
	msg := fallback
	if apiErr, ok := client.AsAPIError(err); ok {
		if detail := apiErr.Detail(); detail != "" {
			msg = detail
		}
	}
	return &model.AuthError{Op: op, Message: msg, Err: err}
}
