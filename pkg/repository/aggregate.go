package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/nupack/internal/logger"
	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/model"
)

// AggregateRepository queries several sources as one. Each source sits
// behind its own circuit breaker; a source whose breaker is open, or whose
// query fails, counts as unavailable for that query.
type AggregateRepository struct {
	sources       []SourceRepository
	maxConcurrent int
	tripThreshold int64

	mu       sync.RWMutex
	breakers map[string]*circuit.Breaker
}

// NewAggregateRepository returns an aggregate over sources, queried in the
// given order.
func NewAggregateRepository(sources []SourceRepository, opts ...Option) *AggregateRepository {
	o := newOptions(opts)
	return &AggregateRepository{
		sources:       sources,
		maxConcurrent: o.maxConcurrent,
		tripThreshold: o.tripThreshold,
		breakers:      make(map[string]*circuit.Breaker),
	}
}

// Name returns the joined names of the sources.
func (a *AggregateRepository) Name() string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, ",")
}

func (a *AggregateRepository) breaker(source string) *circuit.Breaker {
	a.mu.RLock()
	b, ok := a.breakers[source]
	a.mu.RUnlock()
	if ok {
		return b
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if b, ok := a.breakers[source]; ok {
		return b
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	b = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(a.tripThreshold),
	})
	a.breakers[source] = b
	return b
}

// call runs fn through the breaker of src. Errors wrapping
// errutils.ErrPackageNotFound are answers, not failures, and do not count
// against the breaker.
func (a *AggregateRepository) call(src SourceRepository, fn func() error) (notFound bool, err error) {
	b := a.breaker(src.Name())
	if !b.Ready() {
		return false, fmt.Errorf("circuit breaker open: %w", errutils.ErrSourceUnavailableWithName(src.Name()))
	}
	err = b.Call(func() error {
		callErr := fn()
		if errors.Is(callErr, errutils.ErrPackageNotFound) {
			notFound = true
			return nil
		}
		return callErr
	}, 0)
	if err != nil {
		return false, fmt.Errorf("%w: %w", errutils.ErrSourceUnavailableWithName(src.Name()), err)
	}
	return notFound, nil
}

type sourceResult struct {
	meta        *model.PackageMetadata
	unavailable error
}

// FindPackage returns the highest candidate over every reachable source. It
// fails with errutils.ErrSourceUnavailable only when no source had a
// candidate and at least one source could not be queried.
func (a *AggregateRepository) FindPackage(ctx context.Context, q Query) (*model.PackageMetadata, error) {
	results := make([]sourceResult, len(a.sources))

	g := new(errgroup.Group)
	g.SetLimit(a.maxConcurrent)
	for i, src := range a.sources {
		g.Go(func() error {
			var meta *model.PackageMetadata
			notFound, err := a.call(src, func() error {
				var findErr error
				meta, findErr = src.FindPackage(ctx, q)
				return findErr
			})
			switch {
			case err != nil:
				logger.Debug("Source unavailable", logger.Fields{"source": src.Name(), "package": q.ID, "error": err.Error()})
				results[i].unavailable = err
			case !notFound:
				results[i].meta = meta
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var candidates []*model.PackageMetadata
	var unavailable []error
	for _, r := range results {
		if r.meta != nil {
			candidates = append(candidates, r.meta)
		}
		if r.unavailable != nil {
			unavailable = append(unavailable, r.unavailable)
		}
	}
	if best := Highest(candidates); best != nil {
		return best, nil
	}
	if len(unavailable) > 0 {
		return nil, errors.Join(unavailable...)
	}
	return nil, errutils.ErrPackageNotFoundWithID(q.ID, q.Spec.String())
}

// EnumeratePackages lists the packages of every reachable source. It fails
// only when every source is unavailable.
func (a *AggregateRepository) EnumeratePackages(ctx context.Context) ([]*model.PackageMetadata, error) {
	perSource := make([][]*model.PackageMetadata, len(a.sources))
	failures := make([]error, len(a.sources))

	g := new(errgroup.Group)
	g.SetLimit(a.maxConcurrent)
	for i, src := range a.sources {
		g.Go(func() error {
			_, err := a.call(src, func() error {
				var listErr error
				perSource[i], listErr = src.EnumeratePackages(ctx)
				return listErr
			})
			if err != nil {
				logger.Debug("Source unavailable", logger.Fields{"source": src.Name(), "error": err.Error()})
				failures[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()

	var all []*model.PackageMetadata
	reachable := 0
	for i := range a.sources {
		if failures[i] == nil {
			reachable++
			all = append(all, perSource[i]...)
		}
	}
	if reachable == 0 && len(a.sources) > 0 {
		return nil, errors.Join(failures...)
	}
	sortByIdentity(all)
	return all, nil
}

// BreakerStates reports "open" or "closed" for every source queried so far.
func (a *AggregateRepository) BreakerStates() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	states := make(map[string]string, len(a.breakers))
	for name, b := range a.breakers {
		if b.Tripped() {
			states[name] = "open"
		} else {
			states[name] = "closed"
		}
	}
	return states
}
