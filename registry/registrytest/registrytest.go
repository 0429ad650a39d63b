// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package registrytest provides generic functional tests for the
// Registry interface.  A typical implementation's test module needs
// to wrap Suite to create its registry:
//
//     package myregistry
//
//     import (
//             "testing"
//             "github.com/diffeo/go-jsonhome/registry"
//             "github.com/diffeo/go-jsonhome/registry/registrytest"
//             "github.com/stretchr/testify/suite"
//     )
//
//     // TestRegistry runs the generic registry tests.
//     func TestRegistry(t *testing.T) {
//             suite.Run(t, &registrytest.Suite{
//                     New: func() (registry.Registry, error) {
//                             return New(), nil
//                     },
//             })
//     }
package registrytest

import (
	"sync"

	"github.com/stretchr/testify/suite"

	"github.com/diffeo/go-jsonhome/registry"
)

// Suite is the generic registry test suite.
type Suite struct {
	suite.Suite

	// New creates a new, empty, registry.  It is called once per
	// test.  It is set by importing packages.
	New func() (registry.Registry, error)

	// Registry is the registry under test, created by New before
	// each test.
	Registry registry.Registry
}

// SetupTest creates a fresh registry.
func (s *Suite) SetupTest() {
	var err error
	s.Registry, err = s.New()
	s.Require().NoError(err)
}

var (
	alpha = registry.Source{Title: "Alpha", Href: "http://alpha.example.com/"}
	beta  = registry.Source{Title: "Beta", Href: "https://beta.example.com/home"}
	gamma = registry.Source{Title: "", Href: "http://gamma.example.com:8080/api/home.json"}
)

// put adds sources to the registry, failing the test on any error.
func (s *Suite) put(sources ...registry.Source) {
	for _, source := range sources {
		s.Require().NoError(s.Registry.Put(source))
	}
}

// list fetches the source list, failing the test on any error.
func (s *Suite) list() []registry.Source {
	sources, err := s.Registry.List()
	s.Require().NoError(err)
	return sources
}

// TestEmpty checks that a new registry has no sources.
func (s *Suite) TestEmpty() {
	s.Empty(s.list())
	_, err := registry.Find(s.Registry, alpha.Href)
	s.Equal(registry.ErrNoSuchSource{Href: alpha.Href}, err)
}

// TestPutList checks that sources come back in insertion order.
func (s *Suite) TestPutList() {
	s.put(beta, alpha, gamma)
	s.Equal([]registry.Source{beta, alpha, gamma}, s.list())

	source, err := registry.Find(s.Registry, gamma.Href)
	if s.NoError(err) {
		s.Equal(gamma, source)
	}
}

// TestUpdate checks that putting an existing href changes its title
// without moving it.
func (s *Suite) TestUpdate() {
	s.put(alpha, beta)
	renamed := registry.Source{Title: "Alpha Prime", Href: alpha.Href}
	s.put(renamed)
	s.Equal([]registry.Source{renamed, beta}, s.list())
}

// TestRemove checks deleting sources.
func (s *Suite) TestRemove() {
	s.put(alpha, beta, gamma)
	s.NoError(s.Registry.Remove(beta.Href))
	s.Equal([]registry.Source{alpha, gamma}, s.list())

	err := s.Registry.Remove(beta.Href)
	s.Equal(registry.ErrNoSuchSource{Href: beta.Href}, err)

	// Re-adding a removed source puts it at the end
	s.put(beta)
	s.Equal([]registry.Source{alpha, gamma, beta}, s.list())
}

// TestInvalid checks that sources without a usable href are rejected.
func (s *Suite) TestInvalid() {
	s.Equal(registry.ErrNoHref, s.Registry.Put(registry.Source{Title: "nothing"}))
	for _, href := range []string{
		"/relative/home",
		"ftp://example.com/home",
		"example.com",
	} {
		s.Equal(registry.ErrBadHref{Href: href}, s.Registry.Put(registry.Source{Href: href}), href)
	}
	s.Empty(s.list())
}

// TestConcurrentPut checks that concurrent writers do not lose
// updates.
func (s *Suite) TestConcurrentPut() {
	hrefs := []string{
		"http://a.example.com/",
		"http://b.example.com/",
		"http://c.example.com/",
		"http://d.example.com/",
	}
	var wg sync.WaitGroup
	for _, href := range hrefs {
		wg.Add(1)
		go func(href string) {
			defer wg.Done()
			s.NoError(s.Registry.Put(registry.Source{Href: href}))
		}(href)
	}
	wg.Wait()

	var got []string
	for _, source := range s.list() {
		got = append(got, source.Href)
	}
	s.ElementsMatch(hrefs, got)
}
