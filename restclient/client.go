// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restclient fetches JSON Home directory documents over HTTP.
//
// A Client is created once and shared; it owns a pool of connections
// and an in-memory HTTP cache, and both live until Shutdown is called.
//
//     client := restclient.New(restclient.Options{})
//     defer client.Shutdown()
//     home, err := client.Get(ctx, "http://localhost:5980/")
//
// Responses are cached according to their HTTP caching headers, so a
// repeated Get of a fresh document does not touch the network.
// InvalidateAndGet drops any cached copy first.
//
// The context passed to Get only controls how long the caller waits.
// A request whose caller gives up keeps running until it finishes or
// the client timeout passes, and its response still goes into the
// cache.
package restclient

import (
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/sirupsen/logrus"

	"github.com/diffeo/go-jsonhome/cache"
	"github.com/diffeo/go-jsonhome/jsonhome"
	"github.com/diffeo/go-jsonhome/restdata"
)

// DefaultTimeout bounds each fetch if Options does not say otherwise.
const DefaultTimeout = 10 * time.Second

// DefaultCacheSize is the number of responses kept by default.
const DefaultCacheSize = 256

// Options configures a new Client.  The zero value is usable.
type Options struct {
	// Timeout bounds each fetch, including reading the response
	// body.
	Timeout time.Duration

	// CacheSize is the number of directory responses to keep.
	CacheSize int

	// Transport is the underlying HTTP transport.  If nil, a
	// private copy of http.DefaultTransport is used.
	Transport http.RoundTripper

	// Logger receives debug-level records of each fetch.  If nil,
	// the logrus standard logger is used.
	Logger logrus.FieldLogger
}

// Client retrieves and decodes directory documents.  It is safe for
// concurrent use.
type Client struct {
	client    *http.Client
	transport http.RoundTripper
	store     *cache.LRU
	timeout   time.Duration
	logger    logrus.FieldLogger

	// closing is cancelled by Shutdown, which in turn cancels
	// every in-flight request.
	closing  context.Context
	close    context.CancelFunc
	shutdown sync.Once
}

// New creates a new directory client.
func New(options Options) *Client {
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.CacheSize <= 0 {
		options.CacheSize = DefaultCacheSize
	}
	if options.Transport == nil {
		options.Transport = http.DefaultTransport.(*http.Transport).Clone()
	}
	if options.Logger == nil {
		options.Logger = logrus.StandardLogger()
	}

	store := cache.NewLRU(options.CacheSize)
	caching := httpcache.NewTransport(store)
	caching.Transport = options.Transport

	c := &Client{
		client:    &http.Client{Transport: caching},
		transport: options.Transport,
		store:     store,
		timeout:   options.Timeout,
		logger:    options.Logger,
	}
	c.closing, c.close = context.WithCancel(context.Background())
	return c
}

// Get retrieves the directory document at href and converts it to a
// catalog.  Relative addresses in the document are resolved against
// href.  A fresh cached response may be returned without a network
// round trip.
func (c *Client) Get(ctx context.Context, href string) (*jsonhome.JSONHome, error) {
	u, err := c.parse(href)
	if err != nil {
		return nil, err
	}
	return c.fetch(ctx, href, u)
}

// InvalidateAndGet discards any cached response for href and then
// fetches it from the network.
func (c *Client) InvalidateAndGet(ctx context.Context, href string) (*jsonhome.JSONHome, error) {
	u, err := c.parse(href)
	if err != nil {
		return nil, err
	}
	c.store.Delete(u.String())
	return c.fetch(ctx, href, u)
}

// Shutdown cancels any in-flight fetches, closes idle connections,
// and empties the cache.  Every later fetch returns ErrClientClosed.
// Calling Shutdown more than once is harmless.
func (c *Client) Shutdown() {
	c.shutdown.Do(func() {
		c.close()
		if closer, ok := c.transport.(interface{ CloseIdleConnections() }); ok {
			closer.CloseIdleConnections()
		}
		c.store.Clear()
	})
}

func (c *Client) closed() bool {
	return c.closing.Err() != nil
}

func (c *Client) parse(href string) (*url.URL, error) {
	if c.closed() {
		return nil, ErrClientClosed
	}
	u, err := url.Parse(href)
	if err != nil {
		return nil, ErrFetch{Href: href, Err: err}
	}
	if !u.IsAbs() {
		return nil, ErrFetch{Href: href, Err: jsonhome.ErrNotAbsolute{URI: href}}
	}
	return u, nil
}

// fetch waits for a request on behalf of ctx.  The request itself is
// bounded only by the client timeout and by Shutdown, so if ctx ends
// first the request carries on in the background and its response
// can still be cached.
func (c *Client) fetch(ctx context.Context, href string, u *url.URL) (*jsonhome.JSONHome, error) {
	type result struct {
		home *jsonhome.JSONHome
		err  error
	}
	done := make(chan result, 1)
	go func() {
		rctx, cancel := context.WithTimeout(c.closing, c.timeout)
		defer cancel()
		home, err := c.do(rctx, href, u)
		done <- result{home: home, err: err}
	}()
	select {
	case r := <-done:
		return r.home, r.err
	case <-ctx.Done():
		c.logger.WithFields(logrus.Fields{
			"href": href,
			"err":  ctx.Err(),
		}).Debug("stopped waiting for fetch")
		return nil, ErrFetch{Href: href, Err: ctx.Err()}
	}
}

func (c *Client) do(ctx context.Context, href string, u *url.URL) (home *jsonhome.JSONHome, err error) {
	logger := c.logger.WithFields(logrus.Fields{"href": href})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, ErrFetch{Href: href, Err: err}
	}
	req.Header.Set("Accept", restdata.AcceptDirectory)

	resp, err := c.client.Do(req)
	if err != nil {
		if c.closed() {
			return nil, ErrClientClosed
		}
		logger.WithFields(logrus.Fields{"err": err}).Debug("fetch failed")
		return nil, ErrFetch{Href: href, Err: err}
	}

	// Always consume and close the body, so the connection can be
	// reused and the caching transport sees the end of it
	defer func() {
		_, _ = io.Copy(ioutil.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	logger = logger.WithFields(logrus.Fields{
		"status": resp.StatusCode,
		"cached": resp.Header.Get(httpcache.XFromCache) != "",
	})
	logger.Debug("fetched directory")

	if err := checkHTTPStatus(href, resp); err != nil {
		return nil, err
	}

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		if c.closed() {
			return nil, ErrClientClosed
		}
		return nil, ErrFetch{Href: href, Err: err}
	}

	doc, err := restdata.ParseDocument(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, ErrParse{Href: href, Err: err}
	}
	home, err = doc.JSONHome(u)
	if err != nil {
		return nil, ErrParse{Href: href, Err: err}
	}
	return home, nil
}

// checkHTTPStatus examines an HTTP response and returns an error if
// it is not successful.
func checkHTTPStatus(href string, resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound{Href: href}
	default:
		return ErrHTTPStatus{Href: href, Code: resp.StatusCode}
	}
}
