// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package jsonhome

import (
	"net/url"
	"strings"
)

// Route declares one resource a service publishes in its own
// directory.  A service lists its routes explicitly and passes them
// to FromRoutes; several routes may share a relation type, for
// instance one per HTTP method, and their hints are combined.
type Route struct {
	// RelationType names the resource.
	RelationType RelationType

	// Path is either a plain path or a URI template.  It is
	// resolved against the base URL passed to FromRoutes unless
	// it is already absolute.  Any "{" makes it a template.
	Path string

	// Vars optionally documents the template variables.
	Vars []HrefVar

	// Hints describe the resource.
	Hints Hints
}

// FromRoutes builds a catalog from route declarations.  Routes with
// the same relation type must agree on their path.
func FromRoutes(base string, routes ...Route) (*JSONHome, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, ErrNotAbsolute{URI: base}
	}
	links := make([]ResourceLink, 0, len(routes))
	for _, route := range routes {
		link, err := route.link(baseURL)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return New(links...)
}

func (r Route) link(base *url.URL) (ResourceLink, error) {
	if strings.ContainsRune(r.Path, '{') {
		return NewTemplatedLink(r.RelationType, ResolveTemplate(base, r.Path), r.Vars, r.Hints)
	}
	ref, err := url.Parse(r.Path)
	if err != nil {
		return nil, ErrNotAbsolute{URI: r.Path}
	}
	return NewDirectLink(r.RelationType, base.ResolveReference(ref).String(), r.Hints)
}

// ResolveTemplate makes a URI template absolute relative to base.
// Templates cannot go through url.ResolveReference, so only the two
// common forms are handled: an absolute template is returned as is,
// and a template starting with "/" gets base's scheme and host.
// Anything else is appended to base's directory.
func ResolveTemplate(base *url.URL, template string) string {
	if base == nil || strings.Contains(template, "://") {
		return template
	}
	root := base.Scheme + "://" + base.Host
	if strings.HasPrefix(template, "/") {
		return root + template
	}
	dir := base.Path
	if slash := strings.LastIndexByte(dir, '/'); slash >= 0 {
		dir = dir[:slash+1]
	} else {
		dir = "/"
	}
	return root + dir + template
}
