package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evanofslack/stockpoker/internal/oracle"
	"github.com/evanofslack/stockpoker/internal/services"
	gamesync "github.com/evanofslack/stockpoker/internal/sync"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOracleTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	manual := oracle.NewManualOracle()
	adapter := gamesync.NewAdapter(gamesync.NewMemoryStore())
	svc := services.NewGameService(adapter, nil, manual, 1000, 1)

	r := chi.NewRouter()
	r.Mount("/games", NewGameHandler(svc).Routes())
	r.Mount("/oracle", NewOracleHandler(manual).Routes())

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

// An announced price must be enough for the resolve endpoint to finish a
// round; before the announcement resolving is a conflict.
func TestAnnounceFeedsResolve(t *testing.T) {
	ts := newOracleTestServer(t)

	resp := postJSON(t, ts.URL+"/games/", map[string]interface{}{
		"uid": "a", "username": "alice", "total_rounds": 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeSession(t, resp)
	base := fmt.Sprintf("%s/games/%s", ts.URL, created.ID)

	steps := []struct {
		path string
		body map[string]interface{}
	}{
		{"/join", map[string]interface{}{"uid": "b", "username": "bob"}},
		{"/start", map[string]interface{}{"uid": "a"}},
		{"/stock", map[string]interface{}{"uid": "a", "stock_ref": "NASDAQ:AAPL"}},
		{"/predict", map[string]interface{}{"uid": "a", "price_cents": 15650}},
		{"/predict", map[string]interface{}{"uid": "b", "price_cents": 16025}},
		{"/bet-total", map[string]interface{}{"uid": "a", "total": 50}},
		{"/bet-total", map[string]interface{}{"uid": "b", "total": 50}},
		{"/advance", map[string]interface{}{"uid": "a"}},
		{"/bet-total", map[string]interface{}{"uid": "a", "total": 50}},
		{"/advance", map[string]interface{}{"uid": "a"}},
		{"/bet-total", map[string]interface{}{"uid": "a", "total": 50}},
		{"/advance", map[string]interface{}{"uid": "a"}},
		{"/bet-total", map[string]interface{}{"uid": "a", "total": 50}},
	}
	for _, step := range steps {
		resp := postJSON(t, base+step.path, step.body)
		require.Equal(t, http.StatusOK, resp.StatusCode, "step %s", step.path)
		resp.Body.Close()
	}

	// No price announced yet.
	resp = postJSON(t, base+"/resolve", map[string]interface{}{"uid": "a"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/oracle/announce", map[string]interface{}{
		"stock_ref": "NASDAQ:AAPL", "price_cents": 15575,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, base+"/resolve", map[string]interface{}{"uid": "a"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resolved := decodeSession(t, resp)
	assert.True(t, resolved.Completed)
	assert.Equal(t, []string{"a"}, resolved.Round(1).Winners)
	assert.Equal(t, int64(1050), resolved.GetPlayer("a").Chips)
}

func TestAnnounceValidation(t *testing.T) {
	ts := newOracleTestServer(t)

	resp := postJSON(t, ts.URL+"/oracle/announce", map[string]interface{}{
		"stock_ref": "no-exchange", "price_cents": 15575,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/oracle/announce", map[string]interface{}{
		"stock_ref": "NASDAQ:AAPL", "price_cents": 0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetAnnouncedPrice(t *testing.T) {
	ts := newOracleTestServer(t)

	resp, err := http.Get(ts.URL + "/oracle/price/NYSE:GME")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/oracle/announce", map[string]interface{}{
		"stock_ref": "NYSE:GME", "price_cents": 2450,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/oracle/price/NYSE:GME")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		PriceCents int64 `json:"price_cents"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, int64(2450), got.PriceCents)
}
