// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package registry defines the list of directory sources an
// aggregator reads from.
//
// A Registry is a plain key/value store of Source values keyed by
// their href.  Implementations live in their own packages: "memory"
// for in-process use and tests, "file" for a YAML file on disk, and
// "postgres" for a shared database.  The "backend" package picks one
// from a command-line flag.
package registry

import (
	"errors"
	"fmt"
	"net/url"
)

// Source is one remote directory document.
type Source struct {
	// Title is a human-readable name for the source.
	Title string `json:"title" yaml:"title" mapstructure:"title"`

	// Href is the absolute address of the directory document.
	// It identifies the source within a registry.
	Href string `json:"href" yaml:"href" mapstructure:"href"`
}

// Validate checks that the source has an absolute http or https
// href.
func (s Source) Validate() error {
	if s.Href == "" {
		return ErrNoHref
	}
	u, err := url.Parse(s.Href)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrBadHref{Href: s.Href}
	}
	return nil
}

// Registry stores the set of known sources.  Implementations must be
// safe to call from multiple goroutines.
type Registry interface {
	// List returns every source, in the order they were first
	// added.  This may be an empty slice.
	List() ([]Source, error)

	// Put adds a source, or changes the title of the existing
	// source with the same href.  An updated source keeps its
	// position in the list.
	Put(source Source) error

	// Remove deletes the source with some href.  If there is no
	// such source, returns ErrNoSuchSource.
	Remove(href string) error
}

// Find returns the source with some href from a registry, or
// ErrNoSuchSource.
func Find(r Registry, href string) (Source, error) {
	sources, err := r.List()
	if err != nil {
		return Source{}, err
	}
	for _, source := range sources {
		if source.Href == href {
			return source, nil
		}
	}
	return Source{}, ErrNoSuchSource{Href: href}
}

// ErrNoHref is returned from Registry.Put if the source has an empty
// href.
var ErrNoHref = errors.New("Source has no href")

// ErrBadHref is returned from Registry.Put if the source's href is
// not an absolute http or https URL.
type ErrBadHref struct {
	Href string
}

func (err ErrBadHref) Error() string {
	return fmt.Sprintf("Invalid source href %q", err.Href)
}

// ErrNoSuchSource is returned when a source is looked up or removed
// but is not in the registry.
type ErrNoSuchSource struct {
	Href string
}

func (err ErrNoSuchSource) Error() string {
	return fmt.Sprintf("No such source %v", err.Href)
}
