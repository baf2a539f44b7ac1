// Package cache holds derived package data (size, hash, time stamps) that is
// expensive to compute because it requires reading the whole package file.
//
// Each package identity moves through three states: absent, pending (one
// caller is computing) and ready. The first caller to find a key absent claims
// it and computes outside the lock; later callers wait for a change signal.
// A caller that has waited longer than the configured bound takes the
// computation over, so a stuck owner cannot block a key forever. Generation
// numbers make sure a late owner never replaces a newer result.
package cache

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/glorpus-work/nupack/internal/logger"
	"github.com/glorpus-work/nupack/pkg/archive"
	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/model"
)

// DefaultMaxWait bounds how long a caller waits on another caller's
// computation before taking it over.
const DefaultMaxWait = 2 * time.Minute

type entryState int

const (
	statePending entryState = iota + 1
	stateReady
)

type entry struct {
	state      entryState
	generation uint64
	data       *model.DerivedPackageData
}

// DerivedDataCache computes and memoizes DerivedPackageData per package identity.
type DerivedDataCache struct {
	fs        FileSystem
	hasher    HashProvider
	manifests ManifestReader
	maxWait   time.Duration
	metrics   *metrics

	mu      sync.Mutex
	entries map[string]*entry
	changed chan struct{}
	nextGen uint64
}

// Option configures a DerivedDataCache.
type Option func(*DerivedDataCache)

// WithMaxWait sets the wait bound before a pending computation is taken over.
func WithMaxWait(d time.Duration) Option {
	return func(c *DerivedDataCache) { c.maxWait = d }
}

// WithHashProvider replaces the default SHA-512 hashing.
func WithHashProvider(h HashProvider) Option {
	return func(c *DerivedDataCache) { c.hasher = h }
}

// WithManifestReader replaces the archive based manifest lookup.
func WithManifestReader(r ManifestReader) Option {
	return func(c *DerivedDataCache) { c.manifests = r }
}

// WithRegisterer registers the cache counters with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *DerivedDataCache) { c.metrics = newMetrics(reg) }
}

// New returns a cache reading packages through fs.
func New(fs FileSystem, opts ...Option) *DerivedDataCache {
	c := &DerivedDataCache{
		fs:        fs,
		hasher:    SHA512Provider{},
		manifests: archive.NewManager(),
		maxWait:   DefaultMaxWait,
		entries:   make(map[string]*entry),
		changed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = newMetrics(nil)
	}
	return c
}

// Get returns the derived data of the package id stored at path, computing it
// at most once per identity across concurrent callers.
func (c *DerivedDataCache) Get(ctx context.Context, id model.PackageIdentity, path string) (*model.DerivedPackageData, error) {
	key := id.Key()
	start := time.Now()

	for {
		c.mu.Lock()
		e, ok := c.entries[key]
		switch {
		case !ok:
			gen := c.claimLocked(key)
			c.mu.Unlock()
			return c.compute(ctx, key, gen, id, path)

		case e.state == stateReady:
			data := e.data
			c.mu.Unlock()
			c.metrics.hits.Inc()
			return data, nil
		}

		waited := time.Since(start)
		if waited >= c.maxWait {
			gen := c.claimLocked(key)
			c.mu.Unlock()
			c.metrics.takeovers.Inc()
			logger.Debug("Taking over pending derived data computation", logger.Fields{
				"package": id.String(),
				"waited":  waited.String(),
			})
			return c.compute(ctx, key, gen, id, path)
		}

		wake := c.changed
		c.mu.Unlock()
		c.metrics.waits.Inc()

		timer := time.NewTimer(c.maxWait - waited)
		select {
		case <-wake:
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
		timer.Stop()
	}
}

// claimLocked marks key pending under a fresh generation. c.mu must be held.
func (c *DerivedDataCache) claimLocked(key string) uint64 {
	c.nextGen++
	c.entries[key] = &entry{state: statePending, generation: c.nextGen}
	return c.nextGen
}

// broadcastLocked wakes every waiter. c.mu must be held.
func (c *DerivedDataCache) broadcastLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// compute derives the data for key as the owner of generation gen. The
// deferred block is the single release point: it stores or drops the entry
// and wakes waiters on success, error and panic alike.
func (c *DerivedDataCache) compute(ctx context.Context, key string, gen uint64, id model.PackageIdentity, path string) (result *model.DerivedPackageData, err error) {
	completed := false
	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		defer c.broadcastLocked()

		e, ok := c.entries[key]
		owner := ok && e.generation == gen

		if !completed || err != nil {
			if owner {
				delete(c.entries, key)
			}
			c.metrics.failures.Inc()
			return
		}

		c.metrics.computations.Inc()
		switch {
		case owner:
			e.state = stateReady
			e.data = result
		case ok && e.state == stateReady:
			// Someone who took over already stored a result; keep theirs.
			result = e.data
		}
	}()

	data, derr := c.derive(ctx, id, path)
	completed = true
	if derr != nil {
		logger.Debug("Derived data computation failed", logger.Fields{
			"package": id.String(),
			"error":   derr.Error(),
		})
		return nil, &errutils.CacheComputationError{Key: key, Err: derr}
	}
	return data, nil
}

func (c *DerivedDataCache) derive(ctx context.Context, id model.PackageIdentity, path string) (*model.DerivedPackageData, error) {
	rc, err := c.fs.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	content, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	lastModified, err := c.fs.GetLastModified(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	created, found, err := c.manifests.ManifestCreated(ctx, content)
	if err != nil {
		return nil, err
	}
	if !found {
		created = time.Time{}
	}

	return &model.DerivedPackageData{
		Size:          int64(len(content)),
		Hash:          base64.StdEncoding.EncodeToString(c.hasher.CalculateHash(content)),
		HashAlgorithm: c.hasher.Algorithm(),
		LastUpdated:   lastModified,
		Published:     lastModified,
		Created:       created,
		IsPrerelease:  id.Version.IsPrerelease(),
		Path:          path,
		FullPath:      c.fs.GetFullPath(path),
	}, nil
}

// Evict drops the entry for id. A computation still running for it will not
// store its result.
func (c *DerivedDataCache) Evict(id model.PackageIdentity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id.Key()]; ok {
		delete(c.entries, id.Key())
		c.broadcastLocked()
	}
}

// Len returns the number of ready or pending entries.
func (c *DerivedDataCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Lookup returns the ready data for id without computing it.
func (c *DerivedDataCache) Lookup(id model.PackageIdentity) (*model.DerivedPackageData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id.Key()]; ok && e.state == stateReady {
		return e.data, true
	}
	return nil, false
}
