// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package aggregator_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffeo/go-jsonhome/aggregator"
	"github.com/diffeo/go-jsonhome/jsonhome"
	"github.com/diffeo/go-jsonhome/memory"
	"github.com/diffeo/go-jsonhome/registry"
	"github.com/diffeo/go-jsonhome/restclient"
	"github.com/diffeo/go-jsonhome/restdata"
)

var _ aggregator.Fetcher = (*restclient.Client)(nil)

const (
	relFoo jsonhome.RelationType = "http://example.com/rel/foo"
	relBar jsonhome.RelationType = "http://example.com/rel/bar"
	relBaz jsonhome.RelationType = "http://example.com/rel/baz"
)

func source(name string) registry.Source {
	return registry.Source{Title: name, Href: "http://" + name + ".example.com/"}
}

func catalog(t *testing.T, links ...jsonhome.ResourceLink) *jsonhome.JSONHome {
	home, err := jsonhome.New(links...)
	require.NoError(t, err)
	return home
}

func direct(t *testing.T, rel jsonhome.RelationType, href string, methods ...string) jsonhome.DirectLink {
	link, err := jsonhome.NewDirectLink(rel, href, jsonhome.NewHints().Allow(methods...).Build())
	require.NoError(t, err)
	return link
}

type response struct {
	home *jsonhome.JSONHome
	err  error
}

// fakeFetcher returns canned responses per href.  Successive fetches
// of the same href step through its responses, repeating the last.
type fakeFetcher struct {
	lock        sync.Mutex
	responses   map[string][]response
	gets        map[string]int
	invalidates map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses:   make(map[string][]response),
		gets:        make(map[string]int),
		invalidates: make(map[string]int),
	}
}

func (f *fakeFetcher) respond(src registry.Source, home *jsonhome.JSONHome, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.responses[src.Href] = append(f.responses[src.Href], response{home: home, err: err})
}

func (f *fakeFetcher) next(href string) (*jsonhome.JSONHome, error) {
	rs := f.responses[href]
	if len(rs) == 0 {
		return nil, restclient.ErrNotFound{Href: href}
	}
	r := rs[0]
	if len(rs) > 1 {
		f.responses[href] = rs[1:]
	}
	return r.home, r.err
}

func (f *fakeFetcher) Get(ctx context.Context, href string) (*jsonhome.JSONHome, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.gets[href]++
	return f.next(href)
}

func (f *fakeFetcher) InvalidateAndGet(ctx context.Context, href string) (*jsonhome.JSONHome, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.invalidates[href]++
	return f.next(href)
}

func (f *fakeFetcher) fetches() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	total := 0
	for _, n := range f.gets {
		total += n
	}
	for _, n := range f.invalidates {
		total += n
	}
	return total
}

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

// TestThreeSources runs a cycle over real HTTP with one good source,
// one missing source, and one that never answers.
func TestThreeSources(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", restdata.DirectoryMediaType)
		_, _ = w.Write([]byte(`{"resources": {
  "http://example.com/rel/foo": {"href": "/foo", "hints": {"allow": ["GET"]}},
  "http://example.com/rel/bar": {"href-template": "/bar/{id}"}
}}`))
	}))
	defer good.Close()
	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer slow.Close()

	client := restclient.New(restclient.Options{
		Timeout: 100 * time.Millisecond,
		Logger:  quietLogger(),
	})
	defer client.Shutdown()
	agg := aggregator.New(client, aggregator.Options{
		Concurrency: 3,
		Logger:      quietLogger(),
	})

	sources := []registry.Source{
		{Title: "good", Href: good.URL},
		{Title: "missing", Href: missing.URL},
		{Title: "slow", Href: slow.URL},
	}
	result, err := agg.Refresh(context.Background(), sources)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, aggregator.Merged, result.Outcomes[0].State)
	assert.Equal(t, 2, result.Outcomes[0].Resources)
	assert.Equal(t, aggregator.Skipped, result.Outcomes[1].State)
	assert.IsType(t, restclient.ErrNotFound{}, result.Outcomes[1].Err)
	assert.Equal(t, aggregator.Skipped, result.Outcomes[2].State)
	assert.IsType(t, restclient.ErrFetch{}, result.Outcomes[2].Err)

	// Exactly the good source's two entries, in sorted order
	assert.Equal(t, 2, result.Home.Len())
	assert.Equal(t, []jsonhome.RelationType{relBar, relFoo}, result.Home.RelationTypes())
	link, _ := result.Home.Resource(relFoo)
	if assert.IsType(t, jsonhome.DirectLink{}, link) {
		assert.Equal(t, good.URL+"/foo", link.(jsonhome.DirectLink).Href())
		assert.Equal(t, []string{"GET"}, link.Hints().Allow())
	}
	link, _ = result.Home.Resource(relBar)
	if assert.IsType(t, jsonhome.TemplatedLink{}, link) {
		assert.Equal(t, good.URL+"/bar/{id}", link.(jsonhome.TemplatedLink).HrefTemplate())
	}

	assert.Equal(t, result, agg.Current())
	assert.Equal(t, result.Home, agg.Home())
}

// TestCollisionOverride checks that the later source wins an address
// conflict, and that the relation type keeps its first position.
func TestCollisionOverride(t *testing.T) {
	one, two := source("one"), source("two")
	fetcher := newFakeFetcher()
	fetcher.respond(one, catalog(t,
		direct(t, relFoo, "http://one.example.com/foo", "GET"),
		direct(t, relBar, "http://one.example.com/bar", "GET"),
	), nil)
	fetcher.respond(two, catalog(t,
		direct(t, relBaz, "http://two.example.com/baz", "GET"),
		direct(t, relFoo, "http://two.example.com/foo", "PUT"),
	), nil)

	logger, hook := test.NewNullLogger()
	agg := aggregator.New(fetcher, aggregator.Options{Logger: logger})
	result, err := agg.Refresh(context.Background(), []registry.Source{one, two})
	require.NoError(t, err)

	assert.Equal(t, []jsonhome.RelationType{relFoo, relBar, relBaz}, result.Home.RelationTypes())
	link, _ := result.Home.Resource(relFoo)
	assert.Equal(t, "http://two.example.com/foo", link.(jsonhome.DirectLink).Href())
	assert.Equal(t, []string{"PUT"}, link.Hints().Allow())

	if assert.Len(t, result.Collisions, 1) {
		assert.Equal(t, relFoo, result.Collisions[0].RelationType)
	}
	found := false
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["relation_type"] == string(relFoo) {
			found = true
			assert.Equal(t, two.Href, entry.Data["source"])
		}
	}
	assert.True(t, found, "collision was not logged")
}

// TestCompatibleSourcesMerge checks that sources agreeing on an
// address have their hints combined.
func TestCompatibleSourcesMerge(t *testing.T) {
	one, two := source("one"), source("two")
	fetcher := newFakeFetcher()
	fetcher.respond(one, catalog(t, direct(t, relFoo, "http://shared.example.com/foo", "GET")), nil)
	fetcher.respond(two, catalog(t, direct(t, relFoo, "http://shared.example.com/foo", "PUT")), nil)

	agg := aggregator.New(fetcher, aggregator.Options{Logger: quietLogger()})
	result, err := agg.Refresh(context.Background(), []registry.Source{one, two})
	require.NoError(t, err)
	assert.Empty(t, result.Collisions)
	link, _ := result.Home.Resource(relFoo)
	assert.Equal(t, []string{"GET", "PUT"}, link.Hints().Allow())
}

func TestEmptyBeforeRefresh(t *testing.T) {
	agg := aggregator.New(newFakeFetcher(), aggregator.Options{Logger: quietLogger()})
	assert.Nil(t, agg.Current())
	assert.Equal(t, 0, agg.Home().Len())

	result, err := agg.Refresh(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Home.Len())
	assert.Empty(t, result.Outcomes)
}

func TestRetry(t *testing.T) {
	flaky, gone := source("flaky"), source("gone")
	fetcher := newFakeFetcher()
	fetcher.respond(flaky, nil, restclient.ErrFetch{Href: flaky.Href, Err: assert.AnError})
	fetcher.respond(flaky, nil, restclient.ErrHTTPStatus{Href: flaky.Href, Code: http.StatusBadGateway})
	fetcher.respond(flaky, catalog(t, direct(t, relFoo, "http://flaky.example.com/foo")), nil)
	fetcher.respond(gone, nil, restclient.ErrNotFound{Href: gone.Href})

	agg := aggregator.New(fetcher, aggregator.Options{
		Retry:  aggregator.RetryPolicy{Attempts: 3},
		Logger: quietLogger(),
	})
	result, err := agg.Refresh(context.Background(), []registry.Source{flaky, gone})
	require.NoError(t, err)

	assert.Equal(t, aggregator.Merged, result.Outcomes[0].State)
	assert.Equal(t, 3, result.Outcomes[0].Attempts)
	assert.Equal(t, 1, fetcher.gets[flaky.Href])
	assert.Equal(t, 2, fetcher.invalidates[flaky.Href])

	// Not found is permanent, so it is not retried
	assert.Equal(t, aggregator.Skipped, result.Outcomes[1].State)
	assert.Equal(t, 1, result.Outcomes[1].Attempts)
}

func TestNoRetryByDefault(t *testing.T) {
	flaky := source("flaky")
	fetcher := newFakeFetcher()
	fetcher.respond(flaky, nil, restclient.ErrFetch{Href: flaky.Href, Err: assert.AnError})
	fetcher.respond(flaky, catalog(t, direct(t, relFoo, "http://flaky.example.com/foo")), nil)

	agg := aggregator.New(fetcher, aggregator.Options{Logger: quietLogger()})
	result, err := agg.Refresh(context.Background(), []registry.Source{flaky})
	require.NoError(t, err)
	assert.Equal(t, aggregator.Skipped, result.Outcomes[0].State)
	assert.Equal(t, 1, result.Outcomes[0].Attempts)
}

func TestRetryBackoff(t *testing.T) {
	flaky := source("flaky")
	fetcher := newFakeFetcher()
	fetcher.respond(flaky, nil, restclient.ErrFetch{Href: flaky.Href, Err: assert.AnError})
	fetcher.respond(flaky, catalog(t, direct(t, relFoo, "http://flaky.example.com/foo")), nil)

	mock := clock.NewMock()
	agg := aggregator.New(fetcher, aggregator.Options{
		Retry:  aggregator.RetryPolicy{Attempts: 2, Backoff: time.Second},
		Logger: quietLogger(),
		Clock:  mock,
	})

	done := make(chan *aggregator.Result)
	go func() {
		result, err := agg.Refresh(context.Background(), []registry.Source{flaky})
		assert.NoError(t, err)
		done <- result
	}()

	// The retry waits for the clock; keep advancing it until the
	// backoff timer exists and fires
	require.Eventually(t, func() bool { return fetcher.fetches() == 1 }, time.Second, time.Millisecond)
	var result *aggregator.Result
	require.Eventually(t, func() bool {
		mock.Add(time.Second)
		select {
		case result = <-done:
			return true
		default:
			return false
		}
	}, 5*time.Second, time.Millisecond)
	assert.Equal(t, aggregator.Merged, result.Outcomes[0].State)
	assert.Equal(t, 2, result.Outcomes[0].Attempts)
}

// TestClientClosed checks that a shut-down client aborts the cycle
// and leaves the previous catalog in place.
func TestClientClosed(t *testing.T) {
	one := source("one")
	fetcher := newFakeFetcher()
	fetcher.respond(one, catalog(t, direct(t, relFoo, "http://one.example.com/foo")), nil)
	fetcher.respond(one, nil, restclient.ErrClientClosed)

	agg := aggregator.New(fetcher, aggregator.Options{Logger: quietLogger()})
	first, err := agg.Refresh(context.Background(), []registry.Source{one})
	require.NoError(t, err)

	_, err = agg.Refresh(context.Background(), []registry.Source{one})
	assert.Equal(t, restclient.ErrClientClosed, err)
	assert.Equal(t, first, agg.Current())
}

func TestCancelledCycle(t *testing.T) {
	one := source("one")
	fetcher := newFakeFetcher()
	fetcher.respond(one, catalog(t, direct(t, relFoo, "http://one.example.com/foo")), nil)

	agg := aggregator.New(fetcher, aggregator.Options{Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := agg.Refresh(ctx, []registry.Source{one})
	assert.Equal(t, context.Canceled, err)
	assert.Nil(t, agg.Current())
}

func TestRun(t *testing.T) {
	one := source("one")
	fetcher := newFakeFetcher()
	fetcher.respond(one, catalog(t, direct(t, relFoo, "http://one.example.com/foo")), nil)
	fetcher.respond(one, catalog(t,
		direct(t, relFoo, "http://one.example.com/foo"),
		direct(t, relBar, "http://one.example.com/bar"),
	), nil)
	reg := memory.New(one)

	mock := clock.NewMock()
	agg := aggregator.New(fetcher, aggregator.Options{Logger: quietLogger(), Clock: mock})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- agg.Run(ctx, reg, time.Minute)
	}()

	require.Eventually(t, func() bool {
		return agg.Current() != nil
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, agg.Home().Len())

	mock.Add(time.Minute)
	require.Eventually(t, func() bool {
		return agg.Home().Len() == 2
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		assert.Fail(t, "Run did not stop")
	}
}

func TestRunStopsWhenClosed(t *testing.T) {
	one := source("one")
	fetcher := newFakeFetcher()
	fetcher.respond(one, nil, restclient.ErrClientClosed)

	agg := aggregator.New(fetcher, aggregator.Options{Logger: quietLogger(), Clock: clock.NewMock()})
	err := agg.Run(context.Background(), memory.New(one), time.Minute)
	assert.Equal(t, restclient.ErrClientClosed, err)
}

func TestMetrics(t *testing.T) {
	one, two := source("one"), source("two")
	fetcher := newFakeFetcher()
	fetcher.respond(one, catalog(t,
		direct(t, relFoo, "http://one.example.com/foo"),
		direct(t, relBar, "http://one.example.com/bar"),
	), nil)

	metrics := aggregator.NewMetrics()
	metrics.MustRegister(prometheus.NewRegistry())
	agg := aggregator.New(fetcher, aggregator.Options{Logger: quietLogger(), Metrics: metrics})
	_, err := agg.Refresh(context.Background(), []registry.Source{one, two})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Outcomes.With(prometheus.Labels{
		"source": one.Href,
		"state":  "merged",
	})))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Outcomes.With(prometheus.Labels{
		"source": two.Href,
		"state":  "skipped",
	})))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Resources))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Collisions))
}

func TestStateText(t *testing.T) {
	for _, state := range []aggregator.State{
		aggregator.Pending,
		aggregator.Fetching,
		aggregator.Merged,
		aggregator.Skipped,
	} {
		text, err := state.MarshalText()
		require.NoError(t, err)
		var again aggregator.State
		require.NoError(t, again.UnmarshalText(text))
		assert.Equal(t, state, again)
	}
	var state aggregator.State
	assert.Error(t, state.UnmarshalText([]byte("done")))
	_, err := aggregator.State(17).MarshalText()
	assert.Error(t, err)
}
