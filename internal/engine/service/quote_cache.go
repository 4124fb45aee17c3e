package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang-stock-trend/internal/engine/config"
	"golang-stock-trend/internal/engine/dto"
	"golang-stock-trend/internal/engine/repository"
	"golang-stock-trend/pkg/logger"
	"golang-stock-trend/pkg/utils"
)

// QuoteCache serves the sector-grouped catalog quotes, recomputing the whole
// result at most once per TTL. Staleness is only checked lazily on read;
// concurrent misses may each recompute, last writer wins.
type QuoteCache struct {
	log          *logger.Logger
	yahooFinance repository.YahooFinanceRepository
	catalog      []config.CatalogSector
	ttl          time.Duration
	now          func() time.Time

	mu        sync.Mutex
	cached    map[string][]dto.Quote
	fetchedAt time.Time
}

func NewQuoteCache(cfg *config.Config, log *logger.Logger, yahooFinance repository.YahooFinanceRepository) *QuoteCache {
	return &QuoteCache{
		log:          log,
		yahooFinance: yahooFinance,
		catalog:      cfg.Catalog,
		ttl:          cfg.Quotes.TTL,
		now:          time.Now,
	}
}

// PopularQuotes returns the catalog grouped by sector. Within the TTL the
// previously computed result is returned untouched.
func (c *QuoteCache) PopularQuotes(ctx context.Context) map[string][]dto.Quote {
	c.mu.Lock()
	if c.cached != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		cached := c.cached
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	rebuilt := c.rebuild(ctx)

	c.mu.Lock()
	c.cached = rebuilt
	c.fetchedAt = c.now()
	c.mu.Unlock()

	return rebuilt
}

func (c *QuoteCache) rebuild(ctx context.Context) map[string][]dto.Quote {
	symbols := make([]string, 0)
	for _, sector := range c.catalog {
		for _, entry := range sector.Stocks {
			symbols = append(symbols, entry.Symbol)
		}
	}

	latest, err := c.yahooFinance.GetBatchLatest(ctx, symbols)
	if err != nil {
		// Degrade every entry to the placeholder rather than failing the read.
		c.log.Error("Failed to fetch catalog quotes", logger.ErrorField(err))
		latest = map[string]dto.LatestQuote{}
	}

	grouped := make(map[string][]dto.Quote, len(c.catalog))
	for _, sector := range c.catalog {
		quotes := make([]dto.Quote, 0, len(sector.Stocks))
		for _, entry := range sector.Stocks {
			quotes = append(quotes, renderQuote(entry, latest[entry.Symbol]))
		}
		grouped[sector.Name] = quotes
	}
	return grouped
}

func renderQuote(entry config.CatalogEntry, latest dto.LatestQuote) dto.Quote {
	quote := dto.Quote{
		Symbol:      entry.Symbol,
		CompanyName: entry.Name,
		Price:       "N/A",
		Change:      "0.0%",
	}
	if !latest.Available || latest.PrevClose == 0 {
		return quote
	}

	changePct := (latest.LastClose - latest.PrevClose) / latest.PrevClose * 100
	quote.Price = fmt.Sprintf("%.2f", utils.Round2(latest.LastClose))
	quote.Change = fmt.Sprintf("%+.2f%%", changePct)
	return quote
}
