// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffeo/go-jsonhome/jsonhome"
	"github.com/diffeo/go-jsonhome/restclient"
	"github.com/diffeo/go-jsonhome/restdata"
)

const homeDoc = `{"resources": {
  "http://example.com/rel/widgets": {"href": "/widgets", "hints": {"allow": ["GET"]}},
  "http://example.com/rel/widget": {"href-template": "/widgets/{id}"}
}}`

// directoryServer serves body with the given content type and counts
// the requests that reach it.
type directoryServer struct {
	*httptest.Server
	Hits   int32
	Accept atomic.Value
}

func newDirectoryServer(t *testing.T, contentType, cacheControl string, status int, body string) *directoryServer {
	s := &directoryServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.Hits, 1)
		s.Accept.Store(r.Header.Get("Accept"))
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		if cacheControl != "" {
			w.Header().Set("Cache-Control", cacheControl)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *directoryServer) hits() int {
	return int(atomic.LoadInt32(&s.Hits))
}

func newClient(t *testing.T, options restclient.Options) *restclient.Client {
	client := restclient.New(options)
	t.Cleanup(client.Shutdown)
	return client
}

func TestGetDirectory(t *testing.T) {
	server := newDirectoryServer(t, restdata.DirectoryMediaType, "", http.StatusOK, homeDoc)
	client := newClient(t, restclient.Options{})

	home, err := client.Get(context.Background(), server.URL+"/home")
	require.NoError(t, err)
	assert.Equal(t, restdata.AcceptDirectory, server.Accept.Load())
	assert.Equal(t, 2, home.Len())

	link, present := home.Resource("http://example.com/rel/widgets")
	if assert.True(t, present) && assert.IsType(t, jsonhome.DirectLink{}, link) {
		assert.Equal(t, server.URL+"/widgets", link.(jsonhome.DirectLink).Href())
		assert.Equal(t, []string{"GET"}, link.Hints().Allow())
	}
	link, present = home.Resource("http://example.com/rel/widget")
	if assert.True(t, present) && assert.IsType(t, jsonhome.TemplatedLink{}, link) {
		assert.Equal(t, server.URL+"/widgets/{id}", link.(jsonhome.TemplatedLink).HrefTemplate())
	}
}

func TestGetErrors(t *testing.T) {
	tests := []struct {
		Name        string
		ContentType string
		Status      int
		Body        string
		Check       func(assert.TestingT, error)
	}{
		{
			Name:        "not-found",
			ContentType: "text/plain",
			Status:      http.StatusNotFound,
			Body:        "nope",
			Check: func(t assert.TestingT, err error) {
				assert.IsType(t, restclient.ErrNotFound{}, err)
			},
		},
		{
			Name:        "server-error",
			ContentType: "text/plain",
			Status:      http.StatusServiceUnavailable,
			Body:        "later",
			Check: func(t assert.TestingT, err error) {
				if assert.IsType(t, restclient.ErrHTTPStatus{}, err) {
					assert.Equal(t, http.StatusServiceUnavailable, err.(restclient.ErrHTTPStatus).Code)
				}
				assert.True(t, restclient.IsTransient(err))
			},
		},
		{
			Name:        "forbidden",
			ContentType: "text/plain",
			Status:      http.StatusForbidden,
			Body:        "go away",
			Check: func(t assert.TestingT, err error) {
				assert.IsType(t, restclient.ErrHTTPStatus{}, err)
				assert.False(t, restclient.IsTransient(err))
			},
		},
		{
			Name:        "malformed",
			ContentType: restdata.JSONMediaType,
			Status:      http.StatusOK,
			Body:        "{not json",
			Check: func(t assert.TestingT, err error) {
				assert.IsType(t, restclient.ErrParse{}, err)
			},
		},
		{
			Name:        "missing-resources",
			ContentType: restdata.JSONMediaType,
			Status:      http.StatusOK,
			Body:        `{"links": {}}`,
			Check: func(t assert.TestingT, err error) {
				assert.True(t, errors.Is(err, restdata.ErrMissingResources))
			},
		},
		{
			Name:        "html",
			ContentType: "text/html",
			Status:      http.StatusOK,
			Body:        "<html></html>",
			Check: func(t assert.TestingT, err error) {
				assert.IsType(t, restclient.ErrParse{}, err)
				assert.False(t, restclient.IsTransient(err))
			},
		},
	}
	for _, test := range tests {
		t.Run(test.Name, func(tt *testing.T) {
			server := newDirectoryServer(tt, test.ContentType, "", test.Status, test.Body)
			client := newClient(tt, restclient.Options{})
			_, err := client.Get(context.Background(), server.URL)
			if assert.Error(tt, err) {
				test.Check(tt, err)
			}
		})
	}
}

func TestGetRelativeHref(t *testing.T) {
	client := newClient(t, restclient.Options{})
	_, err := client.Get(context.Background(), "/home")
	assert.IsType(t, restclient.ErrFetch{}, err)
}

func TestGetTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newClient(t, restclient.Options{Timeout: 50 * time.Millisecond})
	_, err := client.Get(context.Background(), server.URL)
	assert.IsType(t, restclient.ErrFetch{}, err)
	assert.True(t, restclient.IsTransient(err))
}

func TestCaching(t *testing.T) {
	server := newDirectoryServer(t, restdata.DirectoryMediaType, "max-age=3600", http.StatusOK, homeDoc)
	client := newClient(t, restclient.Options{})
	ctx := context.Background()

	_, err := client.Get(ctx, server.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, server.hits())

	// A fresh cached response does not go to the network
	home, err := client.Get(ctx, server.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, server.hits())
	assert.Equal(t, 2, home.Len())

	// Invalidating forces a round trip
	home, err = client.InvalidateAndGet(ctx, server.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, server.hits())
	assert.Equal(t, 2, home.Len())

	// ...and the result is cached again
	_, err = client.Get(ctx, server.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, server.hits())
}

func TestNoStore(t *testing.T) {
	server := newDirectoryServer(t, restdata.DirectoryMediaType, "no-store", http.StatusOK, homeDoc)
	client := newClient(t, restclient.Options{})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := client.Get(ctx, server.URL)
		require.NoError(t, err)
		assert.Equal(t, i, server.hits())
	}
}

func TestShutdown(t *testing.T) {
	server := newDirectoryServer(t, restdata.DirectoryMediaType, "max-age=3600", http.StatusOK, homeDoc)
	client := restclient.New(restclient.Options{})

	_, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)

	client.Shutdown()
	client.Shutdown()

	_, err = client.Get(context.Background(), server.URL)
	assert.Equal(t, restclient.ErrClientClosed, err)
	_, err = client.InvalidateAndGet(context.Background(), server.URL)
	assert.Equal(t, restclient.ErrClientClosed, err)
	assert.Equal(t, 1, server.hits())
}

func TestShutdownInFlight(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := restclient.New(restclient.Options{Timeout: time.Minute})
	result := make(chan error, 1)
	go func() {
		_, err := client.Get(context.Background(), server.URL)
		result <- err
	}()

	<-started
	client.Shutdown()
	select {
	case err := <-result:
		assert.Equal(t, restclient.ErrClientClosed, err)
	case <-time.After(5 * time.Second):
		assert.Fail(t, "in-flight fetch was not cancelled")
	}
}

// TestAbandonedGetFillsCache checks that a request keeps running
// after its caller stops waiting, and that its response is cached.
func TestAbandonedGetFillsCache(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Header().Set("Content-Type", restdata.DirectoryMediaType)
		w.Header().Set("Cache-Control", "max-age=3600")
		_, _ = w.Write([]byte(homeDoc))
	}))
	defer server.Close()
	client := newClient(t, restclient.Options{Timeout: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Get(ctx, server.URL)
	assert.IsType(t, restclient.ErrFetch{}, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	close(release)
	require.Eventually(t, func() bool { return client.CachedResponses() == 1 },
		5*time.Second, 10*time.Millisecond)

	home, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, home.Len())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
