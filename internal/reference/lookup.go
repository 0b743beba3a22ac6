package reference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"

	"nutriverify/internal/config"
	"nutriverify/internal/logging"
	"nutriverify/internal/reference/fdc"
	"nutriverify/internal/textutil"
)

// ErrNoMatch is returned when no strategy produced a usable hit.
var ErrNoMatch = errors.New("no reference match")

// Strategy names recorded on matches.
const (
	StrategyBranded  = "brand_qualified"
	StrategyStandard = "standard_reference"
	StrategyGeneric  = "generic"
)

// minNameSimilarity is the token overlap a hit needs to be considered at all.
const minNameSimilarity = 0.3

// Query identifies the food to look up.
type Query struct {
	Name  string
	Brand string
}

func (q Query) text() string {
	name := strings.TrimSpace(q.Name)
	if brand := strings.TrimSpace(q.Brand); brand != "" {
		return brand + " " + name
	}
	return name
}

// Match is the chosen reference hit.
type Match struct {
	FDCID       int64           `json:"fdc_id"`
	Description string          `json:"description"`
	DataType    string          `json:"data_type"`
	Brand       string          `json:"brand,omitempty"`
	Strategy    string          `json:"strategy"`
	Similarity  float64         `json:"similarity"`
	MassGrams   float64         `json:"mass_grams"`
	PerHundred  fdc.Composition `json:"per_100g"`
	Scaled      fdc.Composition `json:"scaled"`
}

type strategy struct {
	name      string
	dataTypes []string
	branded   bool
}

var strategies = []strategy{
	{name: StrategyBranded, dataTypes: []string{fdc.DataTypeBranded}, branded: true},
	{name: StrategyStandard, dataTypes: []string{fdc.DataTypeFoundation, fdc.DataTypeSRLegacy}},
	{name: StrategyGeneric},
}

// Lookup resolves queries against the reference provider.
type Lookup struct {
	search      *cachedSearch
	pageSize    int
	timeout     time.Duration
	retryConfig retry.Config
	logger      *slog.Logger
}

// Option configures a Lookup.
type Option func(*Lookup)

// WithPageSize sets the number of hits requested per search.
func WithPageSize(size int) Option {
	return func(l *Lookup) {
		if size > 0 {
			l.pageSize = size
		}
	}
}

// WithRetry overrides the retry attempts and initial backoff.
func WithRetry(attempts int, initialDelay time.Duration) Option {
	return func(l *Lookup) {
		if attempts > 0 {
			l.retryConfig.MaxAttempts = attempts
		}
		if initialDelay > 0 {
			l.retryConfig.InitialDelay = initialDelay
		}
	}
}

// WithTimeout bounds each search including its retries.
func WithTimeout(d time.Duration) Option {
	return func(l *Lookup) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithCache sets the cache TTL and the minimum spacing between provider calls.
func WithCache(ttl, minInterval time.Duration) Option {
	return func(l *Lookup) {
		if l.search == nil {
			return
		}
		l.search.cacheTTL = ttl
		l.search.rateLimit = minInterval
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lookup) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New builds a Lookup over the given searcher.
func New(client fdc.Searcher, opts ...Option) *Lookup {
	l := &Lookup{
		search:   newCachedSearch(client, defaultCacheTTL, defaultRateLimit),
		pageSize: 5,
		timeout:  15 * time.Second,
		retryConfig: retry.Config{
			MaxAttempts:   2,
			InitialDelay:  500 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewFromConfig builds the FoodData Central client and lookup from configuration.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Lookup, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	ref := cfg.Reference
	timeoutDur := time.Duration(ref.TimeoutSeconds) * time.Second
	client, err := fdc.New(ref.APIKey, ref.BaseURL, fdc.WithTimeout(timeoutDur))
	if err != nil {
		return nil, err
	}
	return New(client,
		WithPageSize(ref.PageSize),
		WithTimeout(timeoutDur),
		WithCache(time.Duration(ref.CacheTTLSeconds)*time.Second, time.Duration(ref.MinIntervalMS)*time.Millisecond),
		WithLogger(logging.NewComponentLogger(logger, "reference")),
	), nil
}

// Lookup tries each strategy in order and returns the first usable hit scaled
// to massGrams. A non-positive mass leaves Scaled equal to the per-100 g panel.
func (l *Lookup) Lookup(ctx context.Context, q Query, massGrams float64) (*Match, error) {
	if strings.TrimSpace(q.Name) == "" {
		return nil, errors.New("query name must not be empty")
	}
	var lastErr error
	for _, strat := range strategies {
		if strat.branded && strings.TrimSpace(q.Brand) == "" {
			continue
		}
		text := strings.TrimSpace(q.Name)
		if strat.branded {
			text = q.text()
		}
		resp, err := l.searchWithResilience(ctx, text, fdc.SearchOptions{DataTypes: strat.dataTypes, PageSize: l.pageSize})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.logger.Debug("reference strategy failed",
				logging.String("strategy", strat.name),
				logging.Error(err),
			)
			lastErr = err
			continue
		}
		food, similarity, ok := bestFood(text, resp)
		if !ok {
			l.logger.Debug("reference strategy had no usable hit", logging.String("strategy", strat.name))
			continue
		}
		match := newMatch(food, strat.name, similarity, massGrams)
		l.logger.Debug("reference match",
			logging.String("strategy", strat.name),
			logging.Int64("fdc_id", match.FDCID),
			logging.String("description", match.Description),
			logging.Float64("similarity", similarity),
		)
		return match, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoMatch, lastErr)
	}
	return nil, ErrNoMatch
}

func (l *Lookup) searchWithResilience(ctx context.Context, text string, opts fdc.SearchOptions) (*fdc.SearchResponse, error) {
	r := retry.New[*fdc.SearchResponse](l.retryConfig)
	t := timeout.New[*fdc.SearchResponse](timeout.Config{DefaultTimeout: l.timeout})
	return t.Execute(ctx, l.timeout, func(ctx context.Context) (*fdc.SearchResponse, error) {
		return r.Do(ctx, func(ctx context.Context) (*fdc.SearchResponse, error) {
			return l.search.search(ctx, text, opts)
		})
	})
}

// bestFood picks the hit whose description best overlaps the query text.
// Hits without any energy or macro value are ignored.
func bestFood(text string, resp *fdc.SearchResponse) (fdc.Food, float64, bool) {
	if resp == nil {
		return fdc.Food{}, 0, false
	}
	want := textutil.NewFingerprint(text)
	var (
		best      fdc.Food
		bestScore float64
		found     bool
	)
	for _, food := range resp.Foods {
		comp := food.Composition()
		if comp.Macros.Calories <= 0 && comp.Macros.TotalGrams() <= 0 {
			continue
		}
		candidate := food.Description
		if brand := food.Brand(); brand != "" {
			candidate = brand + " " + candidate
		}
		score := textutil.CosineSimilarity(want, textutil.NewFingerprint(candidate))
		if score < minNameSimilarity {
			continue
		}
		if !found || score > bestScore {
			best, bestScore, found = food, score, true
		}
	}
	return best, bestScore, found
}

func newMatch(food fdc.Food, strategyName string, similarity, massGrams float64) *Match {
	perHundred := food.Composition()
	scaled := perHundred
	if massGrams > 0 {
		scaled = perHundred.Scale(massGrams / 100)
	}
	return &Match{
		FDCID:       food.FDCID,
		Description: food.Description,
		DataType:    food.DataType,
		Brand:       food.Brand(),
		Strategy:    strategyName,
		Similarity:  similarity,
		MassGrams:   massGrams,
		PerHundred:  perHundred,
		Scaled:      scaled,
	}
}
