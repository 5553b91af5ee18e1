package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"setuplab/internal/backtest"
	"setuplab/internal/export"
	"setuplab/internal/store"
	"setuplab/internal/symbols"
)

const dateLayout = "2006-01-02"

// RunRequest holds what every simulation request shares
type RunRequest struct {
	List       string          `json:"list" binding:"required"`
	Setup      string          `json:"setup"`             // default ifr
	Options    json.RawMessage `json:"options,omitempty"` // overrides the configured setup
	Capital    float64         `json:"capital,omitempty"`
	Start      string          `json:"start,omitempty"` // YYYY-MM-DD
	End        string          `json:"end,omitempty"`
	Thresholds []float64       `json:"thresholds,omitempty"`
}

// BacktestRequest sweeps thresholds for one ticker
type BacktestRequest struct {
	RunRequest
	Ticker string `json:"ticker" binding:"required"`
	Metric string `json:"metric,omitempty"`
}

// BacktestResponse carries the best run and every run of the sweep
type BacktestResponse struct {
	Ticker string                `json:"ticker"`
	Best   *backtest.RunResult   `json:"best"`
	Runs   []*backtest.RunResult `json:"runs"`
	Cached bool                  `json:"cached"`
}

// RankingRequest ranks a list, or a subset of it, over several windows
type RankingRequest struct {
	RunRequest
	Tickers []string `json:"tickers,omitempty"` // default: every stored ticker
	Windows []int    `json:"windows,omitempty"`
	MinLD   *float64 `json:"min_ld,omitempty"`
	Save    bool     `json:"save,omitempty"`
}

// RankingResponse carries a ranking, excluded tickers last
type RankingResponse struct {
	List     string             `json:"list"`
	Setup    string             `json:"setup"`
	RunID    string             `json:"run_id,omitempty"`
	Cached   bool               `json:"cached"`
	Rankings []backtest.Ranking `json:"rankings"`
}

func errorJSON(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleSetups(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"setups": backtest.Setups()})
}

func (s *Server) handleLists(c *gin.Context) {
	lists, err := s.store.Summary(c.Request.Context())
	if err != nil {
		s.logger.Error("listing lists failed", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	if lists == nil {
		lists = []store.ListSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"lists": lists})
}

func (s *Server) handleTickers(c *gin.Context) {
	list := c.Param("list")
	tickers, err := s.store.Tickers(c.Request.Context(), list)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	if len(tickers) == 0 {
		errorJSON(c, http.StatusNotFound, fmt.Errorf("list %q has no stored bars", list))
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "tickers": tickers})
}

// params builds simulation parameters from the request on top of the
// configured defaults
func (s *Server) params(req RunRequest) (backtest.Params, []float64, error) {
	name := req.Setup
	if name == "" {
		name = "ifr"
	}
	setup, err := s.config.Setup(name)
	if err != nil {
		return backtest.Params{}, nil, err
	}
	if len(req.Options) > 0 {
		if err := json.Unmarshal(req.Options, setup); err != nil {
			return backtest.Params{}, nil, fmt.Errorf("options: %w", err)
		}
	}
	if err := setup.Validate(); err != nil {
		return backtest.Params{}, nil, err
	}

	p := backtest.Params{Setup: setup, Capital: req.Capital}
	if p.Capital <= 0 {
		p.Capital = s.config.Backtest.Capital
	}
	if p.Start, err = parseDate(req.Start); err != nil {
		return backtest.Params{}, nil, fmt.Errorf("start: %w", err)
	}
	if p.End, err = parseDate(req.End); err != nil {
		return backtest.Params{}, nil, fmt.Errorf("end: %w", err)
	}

	values := req.Thresholds
	if len(values) == 0 {
		values = s.config.Backtest.Sweep.Values()
	}
	return p, values, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

func (s *Server) handleBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	p, values, err := s.params(req.RunRequest)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	metricName := req.Metric
	if metricName == "" {
		metricName = s.config.Backtest.Metric
	}
	metric, err := backtest.ParseMetric(metricName)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	ticker := symbols.Ticker(req.Ticker)
	key, err := backtest.CacheKey("sweep", req.List, []string{ticker}, p, values)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}

	runs, cached := s.sweeps.Get(key)
	if !cached {
		ctx := c.Request.Context()
		var from time.Time
		if !p.Start.IsZero() {
			from = p.Start.AddDate(0, 0, -p.WarmupDays())
		}
		bars, err := s.store.Bars(ctx, req.List, ticker, from, p.End)
		if errors.Is(err, store.ErrNotFound) {
			errorJSON(c, http.StatusNotFound, fmt.Errorf("no bars for %s in %s", ticker, req.List))
			return
		}
		if err != nil {
			s.logger.Error("loading bars failed", zap.String("ticker", ticker), zap.Error(err))
			errorJSON(c, http.StatusInternalServerError, err)
			return
		}
		runs = backtest.SweepThresholds(ticker, bars, p, values, nil)
		s.sweeps.Put(key, runs)
	}

	c.JSON(http.StatusOK, BacktestResponse{
		Ticker: ticker,
		Best:   backtest.Best(runs, metric),
		Runs:   runs,
		Cached: cached,
	})
}

func (s *Server) handleRanking(c *gin.Context) {
	var req RankingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	p, values, err := s.params(req.RunRequest)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	ctx := c.Request.Context()

	tickers := make([]string, 0, len(req.Tickers))
	for _, t := range req.Tickers {
		tickers = append(tickers, symbols.Ticker(t))
	}
	if len(tickers) == 0 {
		if tickers, err = s.store.Tickers(ctx, req.List); err != nil {
			errorJSON(c, http.StatusInternalServerError, err)
			return
		}
	}
	if len(tickers) == 0 {
		errorJSON(c, http.StatusNotFound, fmt.Errorf("list %q has no stored bars", req.List))
		return
	}

	opts := s.config.RankOptions()
	if len(req.Windows) > 0 {
		opts.Windows = req.Windows
	}
	if req.MinLD != nil {
		opts.MinLD = req.MinLD
	}

	key, err := backtest.CacheKey(rankingKind(opts), req.List, tickers, p, values)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}

	rankings, cached := s.rankings.Get(key)
	if !cached {
		start := time.Now()
		rankings, err = backtest.RankMultiPeriod(ctx, s.store, req.List, tickers, p, values, opts, nil)
		if err != nil {
			s.logger.Warn("ranking interrupted", zap.String("list", req.List), zap.Error(err))
			errorJSON(c, http.StatusServiceUnavailable, err)
			return
		}
		s.rankings.Put(key, rankings)
		s.logger.Info("ranking computed",
			zap.String("list", req.List),
			zap.String("setup", p.Setup.Name()),
			zap.Int("tickers", len(tickers)),
			zap.Duration("elapsed", time.Since(start)))
	}

	resp := RankingResponse{List: req.List, Setup: p.Setup.Name(), Cached: cached, Rankings: rankings}
	if req.Save {
		entries, err := export.StoreEntries(rankings)
		if err == nil {
			resp.RunID, err = s.store.SaveRanking(ctx, req.List, p.Setup.Name(), entries)
		}
		if err != nil {
			s.logger.Error("saving ranking failed", zap.Error(err))
			errorJSON(c, http.StatusInternalServerError, err)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleLatestRanking(c *gin.Context) {
	list, setup := c.Param("list"), c.Param("setup")
	run, err := s.store.LatestRanking(c.Request.Context(), list, setup)
	if errors.Is(err, store.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, fmt.Errorf("no saved %s ranking for %s", setup, list))
		return
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}

	rankings, err := export.FromStore(run)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, RankingResponse{List: run.List, Setup: run.Setup, RunID: run.ID, Rankings: rankings})
}

// rankingKind folds the ranking options into the cache key
func rankingKind(opts backtest.RankOptions) string {
	minLD := "none"
	if opts.MinLD != nil {
		minLD = fmt.Sprint(*opts.MinLD)
	}
	return fmt.Sprintf("ranking windows=%v min_ld=%s", opts.Windows, minLD)
}
