// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package memory provides an in-process, in-memory source registry.
// There is no persistence and no sharing between processes.  The
// entire registry is behind a single lock.
//
// This is mostly intended as a simple reference implementation that
// can be used for testing, including in-process testing of
// higher-level components, and for daemons whose sources come
// entirely from their configuration file.
package memory

import (
	"sync"

	"github.com/diffeo/go-jsonhome/registry"
)

// Registry is an in-memory registry.Registry.
type Registry struct {
	sem     sync.Mutex
	sources []registry.Source
}

// New creates a new, empty, in-memory registry.
func New(sources ...registry.Source) *Registry {
	r := &Registry{}
	for _, source := range sources {
		// Validation errors are the caller's problem; the
		// constructor drops bad sources rather than failing
		_ = r.Put(source)
	}
	return r
}

// List returns a copy of every source.
func (r *Registry) List() ([]registry.Source, error) {
	r.sem.Lock()
	defer r.sem.Unlock()
	result := make([]registry.Source, len(r.sources))
	copy(result, r.sources)
	return result, nil
}

// Put adds or updates a source.
func (r *Registry) Put(source registry.Source) error {
	if err := source.Validate(); err != nil {
		return err
	}
	r.sem.Lock()
	defer r.sem.Unlock()
	if i := r.find(source.Href); i >= 0 {
		r.sources[i] = source
		return nil
	}
	r.sources = append(r.sources, source)
	return nil
}

// Remove deletes a source.
func (r *Registry) Remove(href string) error {
	r.sem.Lock()
	defer r.sem.Unlock()
	i := r.find(href)
	if i < 0 {
		return registry.ErrNoSuchSource{Href: href}
	}
	r.sources = append(r.sources[:i], r.sources[i+1:]...)
	return nil
}

// find returns the index of the source with href, or -1.  It must be
// called with the lock held.
func (r *Registry) find(href string) int {
	for i, source := range r.sources {
		if source.Href == href {
			return i
		}
	}
	return -1
}
