package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang-stock-trend/internal/engine/dto"
	"golang-stock-trend/internal/engine/repository"
	"golang-stock-trend/internal/entity"
	"golang-stock-trend/pkg/utils"
)

// fakeYahooRepo is an in-memory stand-in for the market data provider.
type fakeYahooRepo struct {
	mu       sync.Mutex
	calls    []string
	history  map[string][]dto.Bar
	histErr  map[string]error
	latest   map[string]dto.LatestQuote
	batchErr error
}

func newFakeYahooRepo() *fakeYahooRepo {
	return &fakeYahooRepo{
		history: make(map[string][]dto.Bar),
		histErr: make(map[string]error),
		latest:  make(map[string]dto.LatestQuote),
	}
}

func (f *fakeYahooRepo) GetHistory(_ context.Context, param dto.GetHistoryParam) ([]dto.Bar, error) {
	f.mu.Lock()
	f.calls = append(f.calls, param.Symbol)
	f.mu.Unlock()

	if err := f.histErr[param.Symbol]; err != nil {
		return nil, err
	}
	return f.history[param.Symbol], nil
}

func (f *fakeYahooRepo) GetBatchLatest(_ context.Context, symbols []string) (map[string]dto.LatestQuote, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make(map[string]dto.LatestQuote, len(symbols))
	for _, s := range symbols {
		out[s] = f.latest[s]
	}
	return out, nil
}

func (f *fakeYahooRepo) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeStocksRepo keeps stocks in a map keyed by symbol.
type fakeStocksRepo struct {
	stocks     map[string]*entity.Stock
	nextID     uint
	lookupErr  error
	panicOnGet bool
}

func newFakeStocksRepo() *fakeStocksRepo {
	return &fakeStocksRepo{stocks: make(map[string]*entity.Stock), nextID: 1}
}

func (f *fakeStocksRepo) GetBySymbol(_ context.Context, symbol string) (*entity.Stock, error) {
	if f.panicOnGet {
		panic("stocks repository exploded")
	}
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.stocks[symbol], nil
}

func (f *fakeStocksRepo) FindOrCreate(_ context.Context, stock *entity.Stock) (*entity.Stock, error) {
	if existing, ok := f.stocks[stock.Symbol]; ok {
		return existing, nil
	}
	stock.ID = f.nextID
	f.nextID++
	f.stocks[stock.Symbol] = stock
	return stock, nil
}

func (f *fakeStocksRepo) GetStocks(_ context.Context) ([]entity.Stock, error) {
	out := make([]entity.Stock, 0, len(f.stocks))
	for _, s := range f.stocks {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStocksRepo) add(symbol string) *entity.Stock {
	stock := &entity.Stock{ID: f.nextID, Symbol: symbol, CompanyName: symbol}
	f.nextID++
	f.stocks[symbol] = stock
	return stock
}

// fakePricesRepo stores bars keyed by (stock, date) with the same
// insert-only semantics as the real repository.
type fakePricesRepo struct {
	rows map[uint]map[string]entity.StockPrice
	err  error
}

func newFakePricesRepo() *fakePricesRepo {
	return &fakePricesRepo{rows: make(map[uint]map[string]entity.StockPrice)}
}

func (f *fakePricesRepo) InsertMissing(_ context.Context, stockID uint, bars []dto.Bar) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.rows[stockID] == nil {
		f.rows[stockID] = make(map[string]entity.StockPrice)
	}
	existing := make([]time.Time, 0, len(f.rows[stockID]))
	for key := range f.rows[stockID] {
		d, _ := time.Parse("2006-01-02", key)
		existing = append(existing, d)
	}
	inserted := repository.FilterNewBars(stockID, existing, bars)
	for _, row := range inserted {
		f.rows[stockID][row.Date.Format("2006-01-02")] = row
	}
	return len(inserted), nil
}

func (f *fakePricesRepo) count(stockID uint) int {
	return len(f.rows[stockID])
}

// fakePredictionsRepo appends records.
type fakePredictionsRepo struct {
	records []entity.Prediction
	err     error
}

func (f *fakePredictionsRepo) Create(_ context.Context, prediction *entity.Prediction) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *prediction)
	return nil
}

// fakeNotifier captures sent messages.
type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) SendMessage(text string) error {
	f.messages = append(f.messages, text)
	return nil
}

// fakePredictor returns a canned prediction result.
type fakePredictor struct {
	result dto.PredictionResult
}

func (f *fakePredictor) Predict(context.Context, string) dto.PredictionResult {
	return f.result
}

func (f *fakePredictor) PredictAndStore(context.Context, string) dto.PredictionResult {
	return f.result
}

func (f *fakePredictor) History(context.Context, string, string) ([]dto.PricePoint, error) {
	return nil, fmt.Errorf("not implemented")
}

// barSeries builds n ascending daily bars ending today, with closes taken
// from the given function of the bar index.
func barSeries(n int, closeAt func(i int) float64) []dto.Bar {
	today := utils.DateOf(time.Now())
	bars := make([]dto.Bar, 0, n)
	for i := 0; i < n; i++ {
		c := closeAt(i)
		bars = append(bars, dto.Bar{
			Date:   today.AddDate(0, 0, i-n+1),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		})
	}
	return bars
}

func flatSeries(n int, close float64) []dto.Bar {
	return barSeries(n, func(int) float64 { return close })
}
