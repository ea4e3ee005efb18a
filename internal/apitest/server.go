// Package apitest provides a scriptable fake of the remote tic-tac-toe API
// for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// Route names, one per remote endpoint
const (
	RouteLogin       = "login"
	RouteRegister    = "register"
	RouteNewGame     = "new_game"
	RouteGameState   = "game_state"
	RouteMakeMove    = "make_move"
	RouteGameHistory = "game_history"
	RouteLeaderboard = "leaderboard"
)

// Request is what the fake server saw for one call
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Vars          map[string]string
	Body          []byte
}

// DecodeBody unmarshals the recorded JSON body into v
func (r Request) DecodeBody(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Server is an httptest server routing the API paths with gorilla/mux.
// Unconfigured routes answer 404.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests map[string][]Request
}

// New starts a fake API server that is closed when the test ends
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		handlers: make(map[string]http.HandlerFunc),
		requests: make(map[string][]Request),
	}

	r := mux.NewRouter()
	r.HandleFunc("/login", s.dispatch(RouteLogin)).Methods(http.MethodPost)
	r.HandleFunc("/register", s.dispatch(RouteRegister)).Methods(http.MethodPost)
	r.HandleFunc("/new_game", s.dispatch(RouteNewGame)).Methods(http.MethodPost)
	r.HandleFunc("/game_state/{id:[0-9]+}", s.dispatch(RouteGameState)).Methods(http.MethodGet)
	r.HandleFunc("/make_move", s.dispatch(RouteMakeMove)).Methods(http.MethodPost)
	r.HandleFunc("/game_history", s.dispatch(RouteGameHistory)).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard", s.dispatch(RouteLeaderboard)).Methods(http.MethodGet)
	r.Use(recovery)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// On makes route answer with status and body encoded as JSON
func (s *Server) On(route string, status int, body any) {
	s.OnFunc(route, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, body)
	})
}

// OnFunc installs a custom handler for route
func (s *Server) OnFunc(route string, fn http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[route] = fn
}

// Calls returns how many requests route has received
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests[route])
}

// Requests returns a copy of the requests route has received
func (s *Server) Requests(route string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests[route]))
	copy(out, s.requests[route])
	return out
}

// LastRequest returns the most recent request for route
func (s *Server) LastRequest(route string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reqs := s.requests[route]
	if len(reqs) == 0 {
		return Request{}, false
	}
	return reqs[len(reqs)-1], true
}

func (s *Server) dispatch(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec := Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			Vars:          mux.Vars(r),
			Body:          body,
		}

		s.mu.Lock()
		s.requests[route] = append(s.requests[route], rec)
		handler := s.handlers[route]
		s.mu.Unlock()

		if handler == nil {
			WriteJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
			return
		}
		handler(w, r)
	}
}

// WriteJSON writes v as a JSON response
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
