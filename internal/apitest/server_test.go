package apitest

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestUnconfiguredRouteIsNotFound(t *testing.T) {
	s := New(t)

	resp, err := http.Get(s.URL + "/leaderboard")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found", decode(t, resp)["detail"])
	assert.Equal(t, 1, s.Calls(RouteLeaderboard))
}

func TestRecordsRequests(t *testing.T) {
	s := New(t)
	s.On(RouteMakeMove, http.StatusOK, EmptySnapshot("alice"))

	req, err := http.NewRequest(http.MethodPost, s.URL+"/make_move", strings.NewReader(`{"game_id":4,"row":1,"col":2}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer t1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "in_progress", decode(t, resp)["status"])

	rec, ok := s.LastRequest(RouteMakeMove)
	require.True(t, ok)
	assert.Equal(t, "Bearer t1", rec.Authorization)

	var body struct {
		GameID int `json:"game_id"`
		Row    int `json:"row"`
		Col    int `json:"col"`
	}
	require.NoError(t, rec.DecodeBody(&body))
	assert.Equal(t, 4, body.GameID)
	assert.Equal(t, 2, body.Col)
}

func TestGameStateVars(t *testing.T) {
	s := New(t)
	s.On(RouteGameState, http.StatusOK, EmptySnapshot("alice"))

	resp, err := http.Get(s.URL + "/game_state/17")
	require.NoError(t, err)
	_ = resp.Body.Close()

	rec, _ := s.LastRequest(RouteGameState)
	assert.Equal(t, "17", rec.Vars["id"])
}

func TestPanickingHandlerIsServerError(t *testing.T) {
	s := New(t)
	s.OnFunc(RouteLeaderboard, func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	resp, err := http.Get(s.URL + "/leaderboard")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, decode(t, resp)["detail"], "boom")
}
