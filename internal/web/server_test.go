package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"setuplab/internal/config"
	"setuplab/internal/store"
	"setuplab/pkg/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "bars.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var bars []model.Candle
	for i, c := range []float64{10, 9, 8, 7, 9, 11, 13} {
		bars = append(bars, model.Candle{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000})
	}
	if err := st.ReplaceBars(ctx, "test", "TEST3", bars); err != nil {
		t.Fatalf("ReplaceBars failed: %v", err)
	}

	return NewServer(config.DefaultConfig(), st, nil)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if got := decode[map[string]any](t, rec)["status"]; got != "healthy" {
		t.Errorf("Expected healthy, got %v", got)
	}
}

func TestListsAndTickers(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/lists", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	lists := decode[struct {
		Lists []store.ListSummary `json:"lists"`
	}](t, rec).Lists
	if len(lists) != 1 || lists[0].List != "test" || lists[0].Bars != 7 {
		t.Errorf("Unexpected lists %+v", lists)
	}

	rec = do(t, s, http.MethodGet, "/api/lists/test/tickers", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/lists/nope/tickers", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown list, got %d", rec.Code)
	}
}

func backtestBody() map[string]any {
	return map[string]any{
		"list":       "test",
		"ticker":     "test3",
		"setup":      "ifr",
		"options":    map[string]any{"trend_filter": nil, "timeout": nil},
		"thresholds": []float64{25, 30},
	}
}

func TestBacktest(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/backtest", backtestBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[BacktestResponse](t, rec)
	if resp.Ticker != "TEST3" {
		t.Errorf("Expected normalised ticker TEST3, got %q", resp.Ticker)
	}
	if len(resp.Runs) != 2 || resp.Best == nil {
		t.Fatalf("Expected 2 runs and a best run, got %d runs", len(resp.Runs))
	}
	if resp.Cached {
		t.Error("Expected the first request to compute")
	}

	rec = do(t, s, http.MethodPost, "/api/backtest", backtestBody())
	if !decode[BacktestResponse](t, rec).Cached {
		t.Error("Expected the second request to hit the cache")
	}
}

func TestBacktestErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		mutate func(map[string]any)
		want   int
	}{
		{"missing ticker", func(b map[string]any) { delete(b, "ticker") }, http.StatusBadRequest},
		{"unknown setup", func(b map[string]any) { b["setup"] = "macd" }, http.StatusBadRequest},
		{"invalid options", func(b map[string]any) { b["options"] = map[string]any{"period": 0} }, http.StatusBadRequest},
		{"bad date", func(b map[string]any) { b["start"] = "01/02/2024" }, http.StatusBadRequest},
		{"unknown metric", func(b map[string]any) { b["metric"] = "sharpe" }, http.StatusBadRequest},
		{"unknown ticker", func(b map[string]any) { b["ticker"] = "NOPE3" }, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := backtestBody()
			tt.mutate(body)
			if rec := do(t, s, http.MethodPost, "/api/backtest", body); rec.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRankingSaveAndLoad(t *testing.T) {
	s := newTestServer(t)

	body := backtestBody()
	delete(body, "ticker")
	body["save"] = true
	body["windows"] = []int{1}

	rec := do(t, s, http.MethodPost, "/api/ranking", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[RankingResponse](t, rec)
	if len(resp.Rankings) != 1 || resp.Rankings[0].Ticker != "TEST3" {
		t.Fatalf("Unexpected rankings %+v", resp.Rankings)
	}
	if resp.RunID == "" {
		t.Fatal("Expected a run id for a saved ranking")
	}

	rec = do(t, s, http.MethodGet, "/api/ranking/test/ifr", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	latest := decode[RankingResponse](t, rec)
	if latest.RunID != resp.RunID || len(latest.Rankings) != 1 {
		t.Errorf("Expected run %s with one ranking, got %+v", resp.RunID, latest)
	}

	rec = do(t, s, http.MethodGet, "/api/ranking/test/123", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for a setup never ranked, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodOptions, "/api/backtest", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}
