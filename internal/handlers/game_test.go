package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evanofslack/stockpoker/internal/game"
	"github.com/evanofslack/stockpoker/internal/services"
	gamesync "github.com/evanofslack/stockpoker/internal/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	adapter := gamesync.NewAdapter(gamesync.NewMemoryStore())
	svc := services.NewGameService(adapter, nil, nil, 1000, 3)
	handler := NewGameHandler(svc)

	ts := httptest.NewServer(handler.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeSession(t *testing.T, resp *http.Response) *game.Session {
	t.Helper()
	defer resp.Body.Close()

	var s game.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	return &s
}

func TestCreateJoinStartFlow(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/", map[string]interface{}{
		"uid": "a", "username": "alice", "total_rounds": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeSession(t, resp)
	assert.Equal(t, "a", created.CreatorID)

	base := fmt.Sprintf("%s/%s", ts.URL, created.ID)

	resp = postJSON(t, base+"/join", map[string]interface{}{"uid": "b", "username": "bob"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	joined := decodeSession(t, resp)
	assert.Len(t, joined.Players, 2)

	// Only the creator can start.
	resp = postJSON(t, base+"/start", map[string]interface{}{"uid": "b"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, base+"/start", map[string]interface{}{"uid": "a"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	started := decodeSession(t, resp)
	assert.True(t, started.Started)
	assert.Equal(t, game.PhaseStockSelection, started.Phase)
}

func TestBettingOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/", map[string]interface{}{
		"uid": "a", "username": "alice", "total_rounds": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeSession(t, resp)
	base := fmt.Sprintf("%s/%s", ts.URL, created.ID)

	steps := []struct {
		path string
		body map[string]interface{}
	}{
		{"/join", map[string]interface{}{"uid": "b", "username": "bob"}},
		{"/start", map[string]interface{}{"uid": "a"}},
		{"/stock", map[string]interface{}{"uid": "a", "stock_ref": "NASDAQ:AAPL"}},
		{"/predict", map[string]interface{}{"uid": "a", "price_cents": 15650}},
		{"/predict", map[string]interface{}{"uid": "b", "price_cents": 16025}},
		{"/bet", map[string]interface{}{"uid": "a", "amount": 50}},
	}
	for _, step := range steps {
		resp := postJSON(t, base+step.path, step.body)
		require.Equal(t, http.StatusOK, resp.StatusCode, "step %s", step.path)
		resp.Body.Close()
	}

	// Out of turn.
	resp = postJSON(t, base+"/bet", map[string]interface{}{"uid": "a", "amount": 10})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, base+"/bet-total", map[string]interface{}{"uid": "b", "total": 50})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decodeSession(t, resp)
	assert.Equal(t, game.PhaseInterlude1, s.Phase)
	assert.Equal(t, int64(100), s.Round(1).Pot)
}

func TestRequestValidation(t *testing.T) {
	ts := newTestServer(t)

	// Username with invalid characters.
	resp := postJSON(t, ts.URL+"/", map[string]interface{}{
		"uid": "a", "username": "not a name!",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/", map[string]interface{}{
		"uid": "a", "username": "alice",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeSession(t, resp)
	base := fmt.Sprintf("%s/%s", ts.URL, created.ID)

	// Malformed stock reference.
	resp = postJSON(t, base+"/stock", map[string]interface{}{"uid": "a", "stock_ref": "no-exchange"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Unknown game ID.
	resp = postJSON(t, ts.URL+"/not-a-uuid/start", map[string]interface{}{"uid": "a"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetAndListGames(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/", map[string]interface{}{"uid": "a", "username": "alice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeSession(t, resp)

	resp, err := http.Get(fmt.Sprintf("%s/%s", ts.URL, created.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeSession(t, resp)
	assert.Equal(t, created.ID, got.ID)

	resp, err = http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, 1, list.Count)
}
