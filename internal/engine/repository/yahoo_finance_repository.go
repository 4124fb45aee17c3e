package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"golang-stock-trend/internal/engine/config"
	"golang-stock-trend/internal/engine/dto"
	"golang-stock-trend/pkg/logger"
	"golang-stock-trend/pkg/utils"

	"golang.org/x/time/rate"
)

type YahooFinanceRepository interface {
	// GetHistory returns daily bars for one symbol, strictly ascending by
	// date with no duplicate dates. A symbol with no data yields an empty
	// slice, not an error.
	GetHistory(ctx context.Context, param dto.GetHistoryParam) ([]dto.Bar, error)
	// GetBatchLatest returns the last two closes for each requested symbol.
	// A symbol that fails to fetch or parse is marked unavailable; the rest
	// of the batch is unaffected. The result always carries every requested
	// symbol.
	GetBatchLatest(ctx context.Context, symbols []string) (map[string]dto.LatestQuote, error)
}

type yahooFinanceRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) (YahooFinanceRepository, error) {
	if cfg.YahooFinance.MaxRequestPerMinute <= 0 {
		return nil, fmt.Errorf("yahoo_finance.max_request_per_minute must be positive")
	}
	secondsPerRequest := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)
	return &yahooFinanceRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}, nil
}

// chartResponse is the envelope of the Yahoo Finance v8 chart API. Quote
// arrays carry nulls for non-trading slots, hence interface{}.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (r *yahooFinanceRepository) GetHistory(ctx context.Context, param dto.GetHistoryParam) ([]dto.Bar, error) {
	interval := param.Interval
	if interval == "" {
		interval = "1d"
	}
	rng := param.Range
	if rng == "" {
		rng = "1mo"
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		r.cfg.YahooFinance.BaseURL, url.PathEscape(param.Symbol), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", param.Symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	// Unknown symbols come back as 404; the contract is empty, not error.
	if resp.StatusCode == http.StatusNotFound {
		r.log.DebugContext(ctx, "Yahoo Finance returned no data", logger.StringField("symbol", param.Symbol))
		return []dto.Bar{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d for %s", resp.StatusCode, param.Symbol)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		r.log.DebugContext(ctx, "Yahoo Finance chart error",
			logger.StringField("symbol", param.Symbol),
			logger.StringField("code", chart.Chart.Error.Code))
		return []dto.Bar{}, nil
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return []dto.Bar{}, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]dto.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			break
		}
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // null bars (holidays etc.)
		}
		var v float64
		if i < len(quote.Volume) {
			v = toFloat(quote.Volume[i])
		}
		bars = append(bars, dto.Bar{
			Date:   utils.DateOf(time.Unix(ts, 0)),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	// Intraday slots can collapse onto the same calendar date; keep the last
	// observation per date so the series stays one bar per day.
	deduped := bars[:0]
	for _, b := range bars {
		if len(deduped) > 0 && deduped[len(deduped)-1].Date.Equal(b.Date) {
			deduped[len(deduped)-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped, nil
}

func (r *yahooFinanceRepository) GetBatchLatest(ctx context.Context, symbols []string) (map[string]dto.LatestQuote, error) {
	results := make(map[string]dto.LatestQuote, len(symbols))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			quote := dto.LatestQuote{}
			bars, err := r.GetHistory(ctx, dto.GetHistoryParam{Symbol: symbol, Range: "5d", Interval: "1d"})
			if err != nil {
				r.log.Error("Failed to fetch latest quote", logger.ErrorField(err), logger.StringField("symbol", symbol))
			} else if len(bars) >= 2 {
				quote = dto.LatestQuote{
					LastClose: bars[len(bars)-1].Close,
					PrevClose: bars[len(bars)-2].Close,
					Available: true,
				}
			}

			mu.Lock()
			results[symbol] = quote
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	return results, nil
}
