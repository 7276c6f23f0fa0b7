package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rustyeddy/riskexec/api"
	"github.com/rustyeddy/riskexec/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, url string, body any) (int, []byte) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func TestServePaperMarketOrders(t *testing.T) {
	path, _ := writeConfig(t)
	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)

	e, err := newEngine(cfg, nil)
	require.NoError(t, err)
	defer e.Close()

	ts := httptest.NewServer(newAPIServer(e).Handler())
	defer ts.Close()

	planAndSubmit := func(t *testing.T, body map[string]any) api.SubmitResponse {
		t.Helper()
		status, data := postJSON(t, ts.URL+"/api/v1/plan", body)
		require.Equal(t, http.StatusOK, status, string(data))
		var plan api.PlanResponse
		require.NoError(t, json.Unmarshal(data, &plan))
		require.True(t, plan.Accepted, plan.Reasons)
		assert.Equal(t, "Market", plan.OrderType)

		status, data = postJSON(t, ts.URL+"/api/v1/orders", api.SubmitRequest{CandidateID: plan.CandidateID})
		require.Equal(t, http.StatusCreated, status, string(data))
		var out api.SubmitResponse
		require.NoError(t, json.Unmarshal(data, &out))
		return out
	}

	t.Run("signal levels", func(t *testing.T) {
		out := planAndSubmit(t, map[string]any{
			"signal": map[string]any{"symbol": "BTCUSDT", "direction": "long", "entry": 100, "stopLoss": 95, "takeProfit": 115},
		})
		assert.Equal(t, "submitted", out.State)
		assert.Contains(t, out.OrderID, "paper-")
	})

	t.Run("levels derived from request volatility", func(t *testing.T) {
		out := planAndSubmit(t, map[string]any{
			"signal":     map[string]any{"symbol": "ETHUSDT", "direction": "long", "entry": 100},
			"volatility": "2",
		})
		assert.Equal(t, "submitted", out.State)
	})

	t.Run("missing volatility", func(t *testing.T) {
		status, _ := postJSON(t, ts.URL+"/api/v1/plan", map[string]any{
			"signal": map[string]any{"symbol": "SOLUSDT", "direction": "long", "entry": 100},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})

	t.Run("non-positive volatility", func(t *testing.T) {
		status, _ := postJSON(t, ts.URL+"/api/v1/plan", map[string]any{
			"signal":     map[string]any{"symbol": "SOLUSDT", "direction": "long", "entry": 100},
			"volatility": 0,
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	assert.Equal(t, 2, e.paper.SubmitCalls())
}
