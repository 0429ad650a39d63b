// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package aggregator builds a single JSON Home catalog out of the
// directories published by many sources.
//
// Each aggregation cycle fetches every source's directory, skips the
// ones that fail, and merges the rest in source order.  When two
// sources publish the same relation type at different addresses, the
// later source wins and the collision is logged.  The finished
// catalog replaces the previous one all at once, so readers see
// either the old catalog or the new one, never a partial merge.
//
//     client := restclient.New(restclient.Options{})
//     agg := aggregator.New(client, aggregator.Options{})
//     go agg.Run(ctx, reg, time.Minute)
//     ...
//     home := agg.Home()
package aggregator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/diffeo/go-jsonhome/jsonhome"
	"github.com/diffeo/go-jsonhome/registry"
	"github.com/diffeo/go-jsonhome/restclient"
)

// Fetcher retrieves one source's directory.  *restclient.Client is
// the usual implementation.
type Fetcher interface {
	// Get fetches a directory, possibly from a cache.
	Get(ctx context.Context, href string) (*jsonhome.JSONHome, error)

	// InvalidateAndGet fetches a directory, bypassing any cache.
	InvalidateAndGet(ctx context.Context, href string) (*jsonhome.JSONHome, error)
}

// RetryPolicy says how often a failing source is retried within one
// cycle.  Only transient failures are retried; see
// restclient.IsTransient.
type RetryPolicy struct {
	// Attempts is the total number of fetches per source per
	// cycle.  Zero or one means no retries.
	Attempts int `mapstructure:"attempts"`

	// Backoff is the delay between attempts.
	Backoff time.Duration `mapstructure:"backoff"`
}

// Options configures an Aggregator.  The zero value is usable.
type Options struct {
	// Concurrency is the number of sources fetched at once.  If
	// unset, sources are fetched one at a time.
	Concurrency int

	// Retry is the retry policy for failing sources.
	Retry RetryPolicy

	// Logger receives records of skipped sources and collisions.
	// If nil, the logrus standard logger is used.
	Logger logrus.FieldLogger

	// Clock defines a time source.  Only test code should need to
	// set this.  If unset, uses real wall-clock time.
	Clock clock.Clock

	// Metrics, if non-nil, is updated after every cycle.
	Metrics *Metrics
}

// Outcome records what happened to one source during a cycle.
type Outcome struct {
	Source registry.Source

	// State is Merged or Skipped once the cycle is over.
	State State

	// Err is the reason a source was skipped.
	Err error

	// Attempts is the number of fetches made.
	Attempts int

	// Resources is the number of relation types the source
	// published.
	Resources int
}

// Result is the product of one aggregation cycle.
type Result struct {
	// Cycle uniquely identifies the cycle.
	Cycle uuid.UUID

	// Home is the merged catalog.
	Home *jsonhome.JSONHome

	// Outcomes has one entry per source, in source order.
	Outcomes []Outcome

	// Collisions lists the address conflicts that were resolved
	// in favor of a later source.
	Collisions []jsonhome.ErrMergeConflict

	Started  time.Time
	Finished time.Time
}

// Aggregator runs aggregation cycles and holds the most recent
// result.  It is safe for concurrent use.
type Aggregator struct {
	fetcher Fetcher
	options Options

	// refreshing serializes cycles, so results are published in
	// the order they were started
	refreshing sync.Mutex
	current    atomic.Value
}

// New creates a new aggregator that fetches directories with fetcher.
func New(fetcher Fetcher, options Options) *Aggregator {
	if options.Concurrency < 1 {
		options.Concurrency = 1
	}
	if options.Retry.Attempts < 1 {
		options.Retry.Attempts = 1
	}
	if options.Logger == nil {
		options.Logger = logrus.StandardLogger()
	}
	if options.Clock == nil {
		options.Clock = clock.New()
	}
	return &Aggregator{fetcher: fetcher, options: options}
}

// Current returns the most recently published result, or nil if no
// cycle has completed yet.
func (a *Aggregator) Current() *Result {
	result, _ := a.current.Load().(*Result)
	return result
}

// Home returns the most recently published catalog.  Before the
// first cycle completes this is an empty catalog.
func (a *Aggregator) Home() *jsonhome.JSONHome {
	if result := a.Current(); result != nil {
		return result.Home
	}
	return jsonhome.Empty()
}

// Refresh runs one aggregation cycle over sources and publishes the
// result.  Sources that cannot be fetched are skipped, so this
// returns an error only if the fetcher has been shut down or ctx is
// cancelled; in that case nothing is published.
func (a *Aggregator) Refresh(ctx context.Context, sources []registry.Source) (*Result, error) {
	a.refreshing.Lock()
	defer a.refreshing.Unlock()

	result := &Result{
		Cycle:    uuid.NewV4(),
		Outcomes: make([]Outcome, len(sources)),
		Started:  a.options.Clock.Now(),
	}
	logger := a.options.Logger.WithFields(logrus.Fields{"cycle": result.Cycle.String()})

	homes := make([]*jsonhome.JSONHome, len(sources))
	for i, source := range sources {
		result.Outcomes[i] = Outcome{Source: source, State: Pending}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.options.Concurrency)
	for i := range sources {
		i := i
		outcome := &result.Outcomes[i]
		g.Go(func() error {
			outcome.State = Fetching
			home, err := a.fetch(gctx, outcome)
			if errors.Is(err, restclient.ErrClientClosed) {
				return err
			}
			if err != nil {
				outcome.State = Skipped
				outcome.Err = err
				logger.WithFields(logrus.Fields{
					"source": outcome.Source.Href,
					"err":    err,
				}).Warn("skipping directory source")
				return nil
			}
			outcome.State = Merged
			outcome.Resources = home.Len()
			homes[i] = home
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	home := jsonhome.Empty()
	for i, h := range homes {
		if h == nil {
			continue
		}
		source := sources[i]
		home = home.Override(h, func(conflict jsonhome.ErrMergeConflict) {
			result.Collisions = append(result.Collisions, conflict)
			logger.WithFields(logrus.Fields{
				"source":        source.Href,
				"relation_type": string(conflict.RelationType),
				"err":           conflict,
			}).Warn("directory sources collide")
		})
	}
	result.Home = home
	result.Finished = a.options.Clock.Now()

	a.current.Store(result)
	a.options.Metrics.observe(result)
	logger.WithFields(logrus.Fields{
		"sources":   len(sources),
		"resources": home.Len(),
	}).Info("published catalog")
	return result, nil
}

// RefreshFrom runs one aggregation cycle over the sources currently
// in reg.
func (a *Aggregator) RefreshFrom(ctx context.Context, reg registry.Registry) (*Result, error) {
	sources, err := reg.List()
	if err != nil {
		return nil, err
	}
	return a.Refresh(ctx, sources)
}

// Run refreshes from reg immediately and then every interval, until
// ctx is cancelled (returning nil) or the fetcher is shut down
// (returning ErrClientClosed).  Other failures are logged and the
// previous catalog stays published.
func (a *Aggregator) Run(ctx context.Context, reg registry.Registry, interval time.Duration) error {
	ticker := a.options.Clock.Ticker(interval)
	defer ticker.Stop()
	for {
		_, err := a.RefreshFrom(ctx, reg)
		if errors.Is(err, restclient.ErrClientClosed) {
			return err
		}
		if err != nil && ctx.Err() == nil {
			a.options.Logger.WithFields(logrus.Fields{"err": err}).Error("refresh failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// fetch retrieves one source, retrying according to the retry policy.
// Retries bypass the cache.
func (a *Aggregator) fetch(ctx context.Context, outcome *Outcome) (*jsonhome.JSONHome, error) {
	policy := a.options.Retry
	href := outcome.Source.Href
	for {
		outcome.Attempts++
		var home *jsonhome.JSONHome
		var err error
		if outcome.Attempts == 1 {
			home, err = a.fetcher.Get(ctx, href)
		} else {
			home, err = a.fetcher.InvalidateAndGet(ctx, href)
		}
		if err == nil {
			return home, nil
		}
		if outcome.Attempts >= policy.Attempts || !restclient.IsTransient(err) || ctx.Err() != nil {
			return nil, err
		}
		a.options.Logger.WithFields(logrus.Fields{
			"source":  href,
			"attempt": outcome.Attempts,
			"err":     err,
		}).Debug("retrying directory source")
		if policy.Backoff > 0 {
			timer := a.options.Clock.Timer(policy.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, err
			case <-timer.C:
			}
		}
	}
}
