// README: Exchange-rate lookup with a TTL cache and a 1:1 degrade path.
package planctx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"atlas/internal/logger"
)

// RateSource resolves a conversion factor from base to quote currency.
// Implementations must degrade rather than fail; budget annotation is
// advisory and never blocks a job.
type RateSource interface {
	Rate(ctx context.Context, base, quote string) float64
}

type ratesEntry struct {
	rates   map[string]float64
	fetched time.Time
}

// CurrencyService caches per-base rate tables from exchangerate-api.com.
type CurrencyService struct {
	client  *http.Client
	baseURL string
	ttl     time.Duration

	mu    sync.Mutex
	cache map[string]ratesEntry
	now   func() time.Time
}

func NewCurrencyService(ttl time.Duration) *CurrencyService {
	return &CurrencyService{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://api.exchangerate-api.com",
		ttl:     ttl,
		cache:   make(map[string]ratesEntry),
		now:     time.Now,
	}
}

// SetBaseURL overrides the rates endpoint. Test hook.
func (s *CurrencyService) SetBaseURL(u string) { s.baseURL = u }

// SetClock overrides the cache clock. Test hook.
func (s *CurrencyService) SetClock(now func() time.Time) { s.now = now }

// Rate returns the base->quote conversion factor, falling back to 1.0 when
// the provider is unreachable or the pair is unknown.
func (s *CurrencyService) Rate(ctx context.Context, base, quote string) float64 {
	base = strings.ToUpper(base)
	quote = strings.ToUpper(quote)
	if base == quote {
		return 1.0
	}

	rates, err := s.table(ctx, base)
	if err != nil {
		logger.Warn("exchange rate lookup failed", map[string]interface{}{
			"base": base, "quote": quote, "error": err.Error(),
		})
		return 1.0
	}
	if r, ok := rates[quote]; ok && r > 0 {
		return r
	}
	logger.Warn("exchange rate pair unknown", map[string]interface{}{"base": base, "quote": quote})
	return 1.0
}

func (s *CurrencyService) table(ctx context.Context, base string) (map[string]float64, error) {
	s.mu.Lock()
	if e, ok := s.cache[base]; ok && s.now().Sub(e.fetched) < s.ttl {
		s.mu.Unlock()
		return e.rates, nil
	}
	s.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v4/latest/"+base, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates status %d", resp.StatusCode)
	}

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("rates decode: %w", err)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rates payload empty")
	}

	s.mu.Lock()
	s.cache[base] = ratesEntry{rates: body.Rates, fetched: s.now()}
	s.mu.Unlock()
	return body.Rates, nil
}
