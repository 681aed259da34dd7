package cep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/construpro/construpro-backend/pkg/config"
	"github.com/construpro/construpro-backend/pkg/db/models"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
	"github.com/construpro/construpro-backend/pkg/logger"
	"github.com/construpro/construpro-backend/pkg/metrics"
)

type persistedStore interface {
	Get(ctx context.Context, code string) (*models.CepCacheEntry, error)
	Upsert(ctx context.Context, entry models.CepCacheEntry) error
}

// Service resolves Brazilian postal codes through a tiered pipeline:
// memory cache, persisted cache, upstream APIs, regional fallback.
type Service interface {
	Lookup(ctx context.Context, rawCep string) (*Result, error)
	RunDiagnostic(ctx context.Context, rawCep string) (*Diagnostic, error)
	WarmCache(ctx context.Context) error
	ClearCache()
}

type service struct {
	providers []Provider
	memory    *MemoryCache
	store     persistedStore
	fallback  *FallbackTable
	overrides map[string]Override
	cfg       config.CepConfig
	logg      *logger.Logger
	metrics   *metrics.CepLookupMetrics
	now       func() time.Time
}

// NewService builds the resolution service. Provider order matters: the
// lookup path tries them sequentially and stops at the first success.
func NewService(providers []Provider, memory *MemoryCache, store persistedStore, cfg config.CepConfig, logg *logger.Logger, lookupMetrics *metrics.CepLookupMetrics) (Service, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one provider required")
	}
	if memory == nil {
		return nil, fmt.Errorf("memory cache required")
	}
	if store == nil {
		return nil, fmt.Errorf("persisted store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		providers: providers,
		memory:    memory,
		store:     store,
		fallback:  NewFallbackTable(),
		overrides: defaultOverrides,
		cfg:       cfg,
		logg:      logg,
		metrics:   lookupMetrics,
		now:       time.Now,
	}, nil
}

func (s *service) Lookup(ctx context.Context, rawCep string) (*Result, error) {
	started := s.now()
	result, err := s.lookup(ctx, rawCep)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncLookup("none", string(pkgerrors.As(err).Code()))
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncLookup(string(result.Source), "ok")
		s.metrics.ObserveDuration(string(result.Source), s.now().Sub(started))
	}
	return result, nil
}

func (s *service) lookup(ctx context.Context, rawCep string) (*Result, error) {
	code, err := Normalize(rawCep)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.memory.Get(code); ok {
		out := *cached
		out.Source = SourceMemoryCache
		return &out, nil
	}

	if result, ok, err := s.readPersisted(ctx, code); err != nil {
		// A broken cache row must not take the whole lookup down.
		s.logg.Warn(s.logg.WithField(ctx, "cep", code), "persisted cep cache read failed")
	} else if ok {
		s.memory.Put(code, *result)
		return result, nil
	}

	result, lookupErr := s.queryProviders(ctx, code)
	if lookupErr != nil {
		return nil, lookupErr
	}

	applyOverride(s.overrides, result)
	s.persist(ctx, code, *result)
	return result, nil
}

func (s *service) readPersisted(ctx context.Context, code string) (*Result, bool, error) {
	entry, err := s.store.Get(ctx, code)
	if err != nil {
		return nil, false, err
	}
	if entry == nil {
		return nil, false, nil
	}
	if s.cfg.CacheTTL > 0 && s.now().Sub(entry.CachedAt) > s.cfg.CacheTTL {
		// Stale rows read as a miss; the warming job will refresh them.
		return nil, false, nil
	}
	return &Result{
		Cep:          entry.Cep,
		Street:       entry.Street,
		Neighborhood: entry.Neighborhood,
		City:         entry.City,
		State:        entry.State,
		DeliveryZone: entry.DeliveryZone,
		Source:       SourcePersistedCache,
		Confidence:   ConfidenceHigh,
	}, true, nil
}

// queryProviders walks the providers in order and short-circuits on the
// first success. A success after an earlier provider failed is reported with
// medium confidence; only a first-try hit is high confidence.
func (s *service) queryProviders(ctx context.Context, code string) (*Result, error) {
	var (
		transientErr error
		failures     int
	)

	for _, provider := range s.providers {
		addr, err := provider.Fetch(ctx, code)
		if err == nil {
			confidence := ConfidenceHigh
			if failures > 0 {
				confidence = ConfidenceMedium
			}
			return resultFromAddress(provider.Source(), *addr, confidence), nil
		}

		failures++
		if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound && transientErr == nil {
			transientErr = err
		}
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"cep":    code,
			"source": provider.Source(),
		})
		logCtx = s.logg.WithField(logCtx, "error", err.Error())
		s.logg.Warn(logCtx, "cep provider lookup failed")
	}

	if entry, ok := s.fallback.Resolve(code); ok {
		return &Result{
			Cep:          code,
			City:         entry.City,
			State:        entry.State,
			DeliveryZone: entry.DeliveryZone,
			Source:       SourceFallback,
			Confidence:   ConfidenceLow,
		}, nil
	}

	if transientErr != nil {
		return nil, transientErr
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "CEP not found in any source")
}

func (s *service) persist(ctx context.Context, code string, result Result) {
	s.memory.Put(code, result)
	entry := models.CepCacheEntry{
		Cep:          code,
		Street:       result.Street,
		Neighborhood: result.Neighborhood,
		City:         result.City,
		State:        result.State,
		DeliveryZone: result.DeliveryZone,
		Source:       string(result.Source),
		CachedAt:     s.now(),
	}
	if err := s.store.Upsert(ctx, entry); err != nil {
		logCtx := s.logg.WithField(ctx, "cep", code)
		s.logg.Error(logCtx, "persisting cep cache entry failed", err)
	}
}

// RunDiagnostic queries every provider concurrently and never short-circuits.
// It reports per-source status, reconciles agreeing answers, flags city
// disagreements, and proposes similar codes for manual retry.
func (s *service) RunDiagnostic(ctx context.Context, rawCep string) (*Diagnostic, error) {
	code, err := Normalize(rawCep)
	if err != nil {
		return nil, err
	}

	statuses := make([]SourceStatus, len(s.providers))
	var wg sync.WaitGroup
	for i, provider := range s.providers {
		wg.Add(1)
		go func(i int, provider Provider) {
			defer wg.Done()
			started := s.now()
			addr, fetchErr := provider.Fetch(ctx, code)
			status := SourceStatus{
				Source:   provider.Source(),
				Duration: s.now().Sub(started),
			}
			if fetchErr != nil {
				status.Error = fetchErr.Error()
			} else {
				status.OK = true
				status.Address = addr
			}
			statuses[i] = status
		}(i, provider)
	}
	wg.Wait()

	diag := &Diagnostic{
		Cep:         code,
		Statuses:    statuses,
		Suggestions: similarCodes(code, s.cfg.MaxSuggestions),
	}
	diag.Reconciled, diag.Discrepancy = reconcile(statuses)
	if diag.Reconciled != nil {
		applyOverride(s.overrides, diag.Reconciled)
	}
	return diag, nil
}

// reconcile merges successful provider answers. Two sources agreeing on the
// city is high confidence; disagreement keeps both payloads and flags the
// result rather than silently preferring one.
func reconcile(statuses []SourceStatus) (*Result, bool) {
	var successes []SourceStatus
	for _, status := range statuses {
		if status.OK && status.Address != nil {
			successes = append(successes, status)
		}
	}
	if len(successes) == 0 {
		return nil, false
	}

	first := successes[0]
	if len(successes) == 1 {
		return resultFromAddress(first.Source, *first.Address, ConfidenceMedium), false
	}

	agree := true
	for _, other := range successes[1:] {
		if other.Address.City != first.Address.City {
			agree = false
			break
		}
	}
	if agree {
		return resultFromAddress(first.Source, *first.Address, ConfidenceHigh), false
	}

	result := resultFromAddress(first.Source, *first.Address, ConfidenceMedium)
	result.Discrepancy = true
	for _, status := range successes {
		result.Candidates = append(result.Candidates, SourceAddress{
			Source:  status.Source,
			Address: *status.Address,
		})
	}
	return result, true
}

// WarmCache pre-populates the cache for the configured code list, pausing
// between upstream calls to stay under provider rate limits.
func (s *service) WarmCache(ctx context.Context) error {
	var errs error
	for i, raw := range s.cfg.WarmCodes {
		if i > 0 && s.cfg.WarmThrottle > 0 {
			if err := sleepCtx(ctx, s.cfg.WarmThrottle); err != nil {
				return multierr.Append(errs, err)
			}
		}
		if _, err := s.Lookup(ctx, raw); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("warm %s: %w", raw, err))
		}
	}
	return errs
}

func (s *service) ClearCache() {
	s.memory.Clear()
}

func resultFromAddress(source Source, addr Address, confidence Confidence) *Result {
	return &Result{
		Cep:          addr.Cep,
		Street:       addr.Street,
		Neighborhood: addr.Neighborhood,
		City:         addr.City,
		State:        addr.State,
		IBGE:         addr.IBGE,
		Source:       source,
		Confidence:   confidence,
	}
}

// similarCodes varies the final digit, skipping the original code.
func similarCodes(code string, max int) []string {
	if len(code) != 8 || max <= 0 {
		return nil
	}
	var out []string
	for d := byte('0'); d <= '9' && len(out) < max; d++ {
		if d == code[7] {
			continue
		}
		out = append(out, code[:7]+string(d))
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
