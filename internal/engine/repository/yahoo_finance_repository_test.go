package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang-stock-trend/internal/engine/config"
	"golang-stock-trend/internal/engine/dto"
	"golang-stock-trend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYahooForTest(t *testing.T, handler http.HandlerFunc) YahooFinanceRepository {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	repo, err := NewYahooFinanceRepository(&config.Config{
		YahooFinance: config.YahooFinance{
			BaseURL: server.URL,
			// Keep the limiter out of the way.
			MaxRequestPerMinute: 600000,
		},
	}, logger.NewNop())
	require.NoError(t, err)
	return repo
}

// chartBody renders a v8 chart payload. Closes may contain nil for
// non-trading slots.
func chartBody(timestamps []int64, closes []interface{}) []byte {
	quote := map[string]interface{}{
		"open":   closes,
		"high":   closes,
		"low":    closes,
		"close":  closes,
		"volume": closes,
	}
	body, _ := json.Marshal(map[string]interface{}{
		"chart": map[string]interface{}{
			"result": []interface{}{
				map[string]interface{}{
					"timestamp":  timestamps,
					"indicators": map[string]interface{}{"quote": []interface{}{quote}},
				},
			},
		},
	})
	return body
}

func unixAtNoon(s string) int64 {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d.Add(12 * time.Hour).Unix()
}

func TestGetHistoryDecodesAndSkipsNullBars(t *testing.T) {
	var gotUA, gotPath string
	repo := newYahooForTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		w.Write(chartBody(
			[]int64{unixAtNoon("2026-08-27"), unixAtNoon("2026-08-26"), unixAtNoon("2026-08-25")},
			[]interface{}{102.5, nil, 100.0},
		))
	})

	bars, err := repo.GetHistory(context.Background(), dto.GetHistoryParam{Symbol: "TCS.NS", Range: "3mo", Interval: "1d"})

	require.NoError(t, err)
	assert.Equal(t, "Mozilla/5.0", gotUA)
	assert.Equal(t, "/v8/finance/chart/TCS.NS", gotPath)
	require.Len(t, bars, 2, "the null slot is dropped")
	assert.True(t, bars[0].Date.Before(bars[1].Date), "bars are sorted ascending")
	assert.Equal(t, 100.0, bars[0].Close)
	assert.Equal(t, 102.5, bars[1].Close)
}

func TestGetHistoryCollapsesDuplicateDates(t *testing.T) {
	day := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	repo := newYahooForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chartBody(
			[]int64{day.Add(10 * time.Hour).Unix(), day.Add(15 * time.Hour).Unix()},
			[]interface{}{100.0, 101.0},
		))
	})

	bars, err := repo.GetHistory(context.Background(), dto.GetHistoryParam{Symbol: "TCS.NS"})

	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 101.0, bars[0].Close, "last observation of the day wins")
}

func TestGetHistoryUnknownSymbolIsEmptyNotError(t *testing.T) {
	repo := newYahooForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	bars, err := repo.GetHistory(context.Background(), dto.GetHistoryParam{Symbol: "NOPE.NS"})

	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestGetHistoryChartErrorIsEmptyNotError(t *testing.T) {
	repo := newYahooForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	})

	bars, err := repo.GetHistory(context.Background(), dto.GetHistoryParam{Symbol: "NOPE.NS"})

	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestGetHistoryServerErrorIsError(t *testing.T) {
	repo := newYahooForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := repo.GetHistory(context.Background(), dto.GetHistoryParam{Symbol: "TCS.NS"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestGetHistoryToleratesShortQuoteArrays(t *testing.T) {
	repo := newYahooForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chartBody(
			[]int64{unixAtNoon("2026-08-25"), unixAtNoon("2026-08-26"), unixAtNoon("2026-08-27")},
			[]interface{}{100.0, 101.0},
		))
	})

	bars, err := repo.GetHistory(context.Background(), dto.GetHistoryParam{Symbol: "TCS.NS"})

	require.NoError(t, err)
	assert.Len(t, bars, 2)
}

func TestGetBatchLatestIsolatesFailures(t *testing.T) {
	repo := newYahooForTest(t, func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		switch symbol {
		case "GOOD.NS":
			w.Write(chartBody(
				[]int64{unixAtNoon("2026-08-25"), unixAtNoon("2026-08-26"), unixAtNoon("2026-08-27")},
				[]interface{}{98.0, 99.0, 101.0},
			))
		case "THIN.NS":
			w.Write(chartBody([]int64{unixAtNoon("2026-08-27")}, []interface{}{50.0}))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	latest, err := repo.GetBatchLatest(context.Background(), []string{"GOOD.NS", "THIN.NS", "MISSING.NS"})

	require.NoError(t, err)
	require.Len(t, latest, 3, "every requested symbol gets an entry")

	good := latest["GOOD.NS"]
	assert.True(t, good.Available)
	assert.Equal(t, 101.0, good.LastClose)
	assert.Equal(t, 99.0, good.PrevClose)

	assert.False(t, latest["THIN.NS"].Available, "a single close is not enough for a change")
	assert.False(t, latest["MISSING.NS"].Available)
}
