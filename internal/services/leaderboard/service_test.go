package leaderboard

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe-go/internal/apitest"
	"github.com/mcoot/tictactoe-go/internal/client"
	"github.com/mcoot/tictactoe-go/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	server  *apitest.Server
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.server = apitest.New(s.T())
	api := client.New(client.Config{BaseURL: s.server.URL}, nil, testutil.NopLogger())
	s.service = New(api, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) respondWith(names ...string) {
	rows := make([]map[string]any, len(names))
	for i, n := range names {
		rows[i] = map[string]any{"username": n, "wins": 10 - i, "losses": i, "draws": 0, "games_played": 10}
	}
	s.server.On(apitest.RouteLeaderboard, http.StatusOK, map[string]any{"leaderboard": rows})
}

func (s *ServiceSuite) TestListKeepsServerOrder() {
	s.respondWith("carol", "alice", "bob")

	entries, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal("carol", entries[0].Username)
	s.Equal("alice", entries[1].Username)
	s.Equal("bob", entries[2].Username)
}

func (s *ServiceSuite) TestListSurfacesErrors() {
	s.server.On(apitest.RouteLeaderboard, http.StatusInternalServerError, map[string]string{})

	_, err := s.service.List(s.ctx)
	s.Error(err)
}

func (s *ServiceSuite) TestSummaryTruncates() {
	s.respondWith("a", "b", "c", "d")

	entries := s.service.Summary(s.ctx, 2)
	s.Len(entries, 2)
	s.Equal("a", entries[0].Username)
}

func (s *ServiceSuite) TestSummaryAllWhenNonPositive() {
	s.respondWith("a", "b", "c")
	s.Len(s.service.Summary(s.ctx, 0), 3)
}

func (s *ServiceSuite) TestSummaryNetworkErrorIsEmptyList() {
	s.server.Close()

	entries := s.service.Summary(s.ctx, 5)
	s.NotNil(entries)
	s.Empty(entries)
}

func (s *ServiceSuite) TestSummaryHTTPErrorIsEmptyList() {
	s.server.On(apitest.RouteLeaderboard, http.StatusServiceUnavailable, map[string]string{"detail": "down"})

	s.Empty(s.service.Summary(s.ctx, 5))
	s.Equal(1, s.server.Calls(apitest.RouteLeaderboard), "no retry")
}
