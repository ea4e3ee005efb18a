package session

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe-go/internal/apitest"
	"github.com/mcoot/tictactoe-go/internal/client"
	"github.com/mcoot/tictactoe-go/internal/model"
	"github.com/mcoot/tictactoe-go/internal/storage"
	"github.com/mcoot/tictactoe-go/internal/storage/memory"
	"github.com/mcoot/tictactoe-go/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	server  *apitest.Server
	client  *client.Client
	storage *memory.Storage
	store   *Store
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.server = apitest.New(s.T())
	s.storage = memory.New()
	s.client = client.New(client.Config{BaseURL: s.server.URL}, nil, testutil.NopLogger())
	s.store = New(s.storage, s.client, testutil.NopLogger())
	s.client.SetTokenSource(s.store)
	s.ctx = context.Background()
}

func (s *ServiceSuite) persisted(key string) string {
	v, err := s.storage.Get(s.ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return ""
	}
	s.Require().NoError(err)
	return v
}

func (s *ServiceSuite) assertPairInvariant() {
	token := s.persisted(storage.KeyAccessToken)
	username := s.persisted(storage.KeyUsername)
	s.Equal(token == "", username == "", "token=%q username=%q", token, username)
}

// Initialize tests

func (s *ServiceSuite) TestInitializeEmpty() {
	identity, err := s.store.Initialize(s.ctx)
	s.Require().NoError(err)
	s.Nil(identity)
	s.Nil(s.store.Identity())
}

func (s *ServiceSuite) TestInitializeRestoresPersistedSession() {
	s.Require().NoError(s.storage.SetAll(s.ctx, map[string]string{
		storage.KeyAccessToken: "t1",
		storage.KeyUsername:    "alice",
	}))

	identity, err := s.store.Initialize(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(identity)
	s.Equal("alice", identity.Username)
	s.Equal("t1", s.store.Token())
}

func (s *ServiceSuite) TestInitializeTokenWithoutUsername() {
	s.Require().NoError(s.storage.SetAll(s.ctx, map[string]string{storage.KeyAccessToken: "t1"}))

	identity, err := s.store.Initialize(s.ctx)
	s.Require().NoError(err)
	s.Nil(identity)
	s.Empty(s.store.Token())
	s.Equal(0, s.storage.Len(), "orphan token is cleared")
}

func (s *ServiceSuite) TestInitializeEmptyValuesCountAsAbsent() {
	s.Require().NoError(s.storage.SetAll(s.ctx, map[string]string{
		storage.KeyAccessToken: "t1",
		storage.KeyUsername:    "",
	}))

	identity, err := s.store.Initialize(s.ctx)
	s.Require().NoError(err)
	s.Nil(identity)
	s.assertPairInvariant()
}

func (s *ServiceSuite) TestInitializeOnlyOnce() {
	_, err := s.store.Initialize(s.ctx)
	s.Require().NoError(err)

	_, err = s.store.Initialize(s.ctx)
	s.ErrorIs(err, model.ErrAlreadyInitialized)
}

func (s *ServiceSuite) TestInitializeStorageError() {
	store := New(&failingStorage{getErr: errors.New("disk on fire")}, s.client, testutil.NopLogger())
	_, err := store.Initialize(s.ctx)
	s.ErrorContains(err, "disk on fire")
}

// Login tests

func (s *ServiceSuite) TestLoginFallsBackToEmailAsUsername() {
	s.server.On(apitest.RouteLogin, http.StatusOK, map[string]string{"access_token": "t1"})

	identity, err := s.store.Login(s.ctx, "a@b.com", "secret1")
	s.Require().NoError(err)

	s.Equal("a@b.com", identity.Username)
	s.Equal("a@b.com", s.persisted(storage.KeyUsername))
	s.Equal("t1", s.persisted(storage.KeyAccessToken))
	s.Equal("a@b.com", s.store.Identity().Username)
}

func (s *ServiceSuite) TestLoginUsesServerUsername() {
	s.server.On(apitest.RouteLogin, http.StatusOK, map[string]string{"access_token": "t1", "username": "alice"})

	identity, err := s.store.Login(s.ctx, "a@b.com", "secret1")
	s.Require().NoError(err)
	s.Equal("alice", identity.Username)
	s.Equal("alice", s.persisted(storage.KeyUsername))
}

func (s *ServiceSuite) TestLoginRejectedWithDetail() {
	s.server.On(apitest.RouteLogin, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})

	_, err := s.store.Login(s.ctx, "a@b.com", "wrong")

	var authErr *model.AuthError
	s.Require().ErrorAs(err, &authErr)
	s.Equal("login", authErr.Op)
	s.Equal("Incorrect email or password", authErr.Message)

	apiErr, ok := client.AsAPIError(err)
	s.Require().True(ok, "the server body stays reachable")
	s.Equal(http.StatusUnauthorized, apiErr.StatusCode)

	s.Nil(s.store.Identity())
	s.Equal(0, s.storage.Len())
}

func (s *ServiceSuite) TestLoginRejectedWithoutDetailUsesFallback() {
	s.server.On(apitest.RouteLogin, http.StatusInternalServerError, map[string]string{"error": "boom"})

	_, err := s.store.Login(s.ctx, "a@b.com", "secret1")

	var authErr *model.AuthError
	s.Require().ErrorAs(err, &authErr)
	s.Equal(model.MsgLoginFailed, authErr.Message)
}

func (s *ServiceSuite) TestLoginMissingToken() {
	s.server.On(apitest.RouteLogin, http.StatusOK, map[string]string{"username": "alice"})

	_, err := s.store.Login(s.ctx, "a@b.com", "secret1")
	s.ErrorIs(err, model.ErrMissingAccessToken)
	s.Nil(s.store.Identity())
}

func (s *ServiceSuite) TestLoginNetworkFailure() {
	s.server.Close()

	_, err := s.store.Login(s.ctx, "a@b.com", "secret1")
	var authErr *model.AuthError
	s.Require().ErrorAs(err, &authErr)
	s.Equal(model.MsgLoginFailed, authErr.Message)
}

func (s *ServiceSuite) TestLoginPersistFailureKeepsPreviousIdentity() {
	s.server.On(apitest.RouteLogin, http.StatusOK, map[string]string{"access_token": "t1"})
	store := New(&failingStorage{setErr: errors.New("read-only")}, s.client, testutil.NopLogger())

	_, err := store.Login(s.ctx, "a@b.com", "secret1")
	s.ErrorContains(err, "read-only")
	s.Nil(store.Identity())
}

func (s *ServiceSuite) TestTokenUsedByLaterRequests() {
	s.server.On(apitest.RouteLogin, http.StatusOK, map[string]string{"access_token": "t1"})
	s.server.On(apitest.RouteGameHistory, http.StatusOK, map[string]any{"history": []any{}})

	_, err := s.store.Login(s.ctx, "a@b.com", "secret1")
	s.Require().NoError(err)

	_, err = s.client.GameHistory(s.ctx)
	s.Require().NoError(err)

	req, _ := s.server.LastRequest(apitest.RouteGameHistory)
	s.Equal("Bearer t1", req.Authorization)
}

// Register tests

func (s *ServiceSuite) TestRegisterPersistsClientUsername() {
	s.server.On(apitest.RouteRegister, http.StatusOK, map[string]string{"access_token": "t2", "username": "server-name"})

	identity, err := s.store.Register(s.ctx, "alice", "a@b.com", "secret1")
	s.Require().NoError(err)

	s.Equal("alice", identity.Username)
	s.Equal("alice", s.persisted(storage.KeyUsername))
	s.Equal("t2", s.persisted(storage.KeyAccessToken))
}

func (s *ServiceSuite) TestRegisterValidationMessage() {
	s.server.On(apitest.RouteRegister, http.StatusUnprocessableEntity, apitest.ValidationError("Username already taken"))

	_, err := s.store.Register(s.ctx, "alice", "a@b.com", "secret1")

	var authErr *model.AuthError
	s.Require().ErrorAs(err, &authErr)
	s.Equal("register", authErr.Op)
	s.Equal("Username already taken", authErr.Message)
}

func (s *ServiceSuite) TestRegisterUnparsableDetailUsesFallback() {
	s.server.On(apitest.RouteRegister, http.StatusBadRequest, map[string]any{"detail": []any{}})

	_, err := s.store.Register(s.ctx, "alice", "a@b.com", "secret1")

	var authErr *model.AuthError
	s.Require().ErrorAs(err, &authErr)
	s.Equal(model.MsgRegistrationFailed, authErr.Message)
}

// Logout tests

func (s *ServiceSuite) TestLogoutClearsEverything() {
	s.server.On(apitest.RouteLogin, http.StatusOK, map[string]string{"access_token": "t1"})
	_, err := s.store.Login(s.ctx, "a@b.com", "secret1")
	s.Require().NoError(err)

	s.store.Logout(s.ctx)

	s.Nil(s.store.Identity())
	s.Empty(s.store.Token())
	s.Equal(0, s.storage.Len())
	s.Equal(1, s.server.Calls(apitest.RouteLogin), "logout makes no remote call")
}

func (s *ServiceSuite) TestLogoutStorageErrorStillClearsMemory() {
	fs := &failingStorage{values: map[string]string{
		storage.KeyAccessToken: "t1",
		storage.KeyUsername:    "alice",
	}}
	logger, logs := testutil.CaptureLogger()
	store := New(fs, s.client, logger)
	_, err := store.Initialize(s.ctx)
	s.Require().NoError(err)

	fs.deleteErr = errors.New("locked")
	store.Logout(s.ctx)

	s.Nil(store.Identity())
	s.Contains(logs.String(), "failed to clear persisted session")
}

// Subscription tests

func (s *ServiceSuite) TestSubscribersNotifiedInOrder() {
	s.server.On(apitest.RouteLogin, http.StatusOK, map[string]string{"access_token": "t1", "username": "alice"})

	var events []string
	s.store.Subscribe(func(id *model.Identity) {
		if id == nil {
			events = append(events, "first:nil")
			return
		}
		events = append(events, "first:"+id.Username)
	})
	s.store.Subscribe(func(id *model.Identity) {
		if id == nil {
			events = append(events, "second:nil")
			return
		}
		events = append(events, "second:"+id.Username)
	})

	_, err := s.store.Login(s.ctx, "a@b.com", "secret1")
	s.Require().NoError(err)
	s.store.Logout(s.ctx)

	s.Equal([]string{"first:alice", "second:alice", "first:nil", "second:nil"}, events)
}

func (s *ServiceSuite) TestSubscribersSeeCommittedState() {
	s.server.On(apitest.RouteLogin, http.StatusOK, map[string]string{"access_token": "t1"})

	var seen *model.Identity
	s.store.Subscribe(func(*model.Identity) {
		seen = s.store.Identity()
	})

	_, err := s.store.Login(s.ctx, "a@b.com", "secret1")
	s.Require().NoError(err)
	s.Require().NotNil(seen)
	s.Equal("a@b.com", seen.Username)
}

func (s *ServiceSuite) TestFailedLoginDoesNotNotify() {
	s.server.On(apitest.RouteLogin, http.StatusUnauthorized, map[string]string{"detail": "no"})

	called := false
	s.store.Subscribe(func(*model.Identity) { called = true })

	_, _ = s.store.Login(s.ctx, "a@b.com", "x")
	s.False(called)
}

func (s *ServiceSuite) TestUnsubscribe() {
	called := 0
	unsubscribe := s.store.Subscribe(func(*model.Identity) { called++ })

	s.store.Logout(s.ctx)
	unsubscribe()
	s.store.Logout(s.ctx)

	s.Equal(1, called)
}

// Invariant: after any sequence of operations the persisted pair is
// either complete or empty

func (s *ServiceSuite) TestPairInvariantOverRandomSequences() {
	rng := rand.New(rand.NewSource(7))
	var loginOK, registerOK atomic.Bool
	s.server.OnFunc(apitest.RouteLogin, func(w http.ResponseWriter, r *http.Request) {
		if loginOK.Load() {
			apitest.WriteJSON(w, http.StatusOK, map[string]string{"access_token": "tl"})
			return
		}
		apitest.WriteJSON(w, http.StatusUnauthorized, map[string]string{"detail": "no"})
	})
	s.server.OnFunc(apitest.RouteRegister, func(w http.ResponseWriter, r *http.Request) {
		if registerOK.Load() {
			apitest.WriteJSON(w, http.StatusOK, map[string]string{"access_token": "tr"})
			return
		}
		apitest.WriteJSON(w, http.StatusBadRequest, apitest.ValidationError("bad"))
	})

	for i := 0; i < 60; i++ {
		loginOK.Store(rng.Intn(2) == 0)
		registerOK.Store(rng.Intn(2) == 0)
		switch rng.Intn(3) {
		case 0:
			_, _ = s.store.Login(s.ctx, "a@b.com", "secret1")
		case 1:
			_, _ = s.store.Register(s.ctx, "alice", "a@b.com", "secret1")
		case 2:
			s.store.Logout(s.ctx)
		}
		s.assertPairInvariant()
		s.Equal(s.store.Identity() == nil, s.persisted(storage.KeyAccessToken) == "")
	}
}

// failingStorage is a storage whose operations fail on demand
type failingStorage struct {
	values    map[string]string
	getErr    error
	setErr    error
	deleteErr error
}

func (f *failingStorage) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (f *failingStorage) SetAll(ctx context.Context, entries map[string]string) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.values == nil {
		f.values = make(map[string]string)
	}
	for k, v := range entries {
		f.values[k] = v
	}
	return nil
}

func (f *failingStorage) DeleteAll(ctx context.Context, keys ...string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}
