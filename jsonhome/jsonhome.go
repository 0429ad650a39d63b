// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package jsonhome defines the resource-link model of a JSON Home
// directory document and the rules for combining several of them.
//
// A directory lists, for one service, every link relation type it
// supports.  Each relation type maps to exactly one ResourceLink,
// which is either a DirectLink with a fixed href or a TemplatedLink
// with an RFC 6570 URI template.  Both carry Hints describing the
// HTTP contract of the target resource.
//
// All of the values in this package are immutable.  Constructors
// validate their inputs, and merging two values always produces a new
// value rather than changing either input, so a JSONHome can be
// shared between goroutines without locking.
//
// Merging
//
// MergeResources and MergeAll combine lists of links keyed by
// relation type.  Two links for the same relation type merge only if
// they have the same kind and the same address; their hints are then
// composed with ComposeHints.  Anything else is an ErrMergeConflict.
// JSONHome.Override offers a more forgiving policy where the later
// link replaces the earlier one instead.
package jsonhome

import (
	"net/url"

	"github.com/jtacoma/uritemplates"
)

// RelationType is an absolute URI identifying the semantic role of a
// link.  It is the key of a directory entry.
type RelationType string

// ResourceLink is a single directory entry.  The only implementations
// are DirectLink and TemplatedLink; use a type switch to tell them
// apart.
type ResourceLink interface {
	// RelationType returns the key of this entry.
	RelationType() RelationType

	// Hints returns the HTTP hints of the linked resource.
	Hints() Hints

	// IsTemplated is true for TemplatedLink values.
	IsTemplated() bool

	isResourceLink()
}

// DirectLink is a resource link with a fixed, absolute href.
type DirectLink struct {
	relationType RelationType
	href         string
	hints        Hints
}

// NewDirectLink creates a direct link, checking that both the
// relation type and href are absolute URIs.
func NewDirectLink(rel RelationType, href string, hints Hints) (DirectLink, error) {
	if err := checkAbsolute(string(rel)); err != nil {
		return DirectLink{}, err
	}
	if err := checkAbsolute(href); err != nil {
		return DirectLink{}, err
	}
	return DirectLink{relationType: rel, href: href, hints: hints}, nil
}

// RelationType returns the relation type of the link.
func (l DirectLink) RelationType() RelationType { return l.relationType }

// Href returns the absolute address of the linked resource.
func (l DirectLink) Href() string { return l.href }

// Hints returns the link's hints.
func (l DirectLink) Hints() Hints { return l.hints }

// IsTemplated always returns false.
func (l DirectLink) IsTemplated() bool { return false }

func (l DirectLink) isResourceLink() {}

// WithHints returns a copy of the link with different hints.
func (l DirectLink) WithHints(hints Hints) DirectLink {
	l.hints = hints
	return l
}

// HrefVar describes one placeholder of a URI template.
type HrefVar struct {
	// Name is the placeholder name within the template.
	Name string

	// VarType is an absolute URI naming the semantic type of
	// the variable, conventionally the relation type followed by
	// "#" and the variable name.
	VarType string

	// Docs optionally documents the variable.
	Docs Docs
}

// DefaultHrefVar builds an HrefVar whose type is derived from the
// relation type.
func DefaultHrefVar(rel RelationType, name string) HrefVar {
	return HrefVar{Name: name, VarType: string(rel) + "#" + name}
}

// TemplatedLink is a resource link whose address is a URI template.
type TemplatedLink struct {
	relationType RelationType
	hrefTemplate string
	hrefVars     []HrefVar
	hints        Hints
}

// NewTemplatedLink creates a templated link.  The template must be
// a well-formed URI template that expands to an absolute URI, and
// the href variables must have distinct names.  If vars is empty, one
// variable is created per template placeholder using
// DefaultHrefVar.
func NewTemplatedLink(rel RelationType, template string, vars []HrefVar, hints Hints) (TemplatedLink, error) {
	if err := checkAbsolute(string(rel)); err != nil {
		return TemplatedLink{}, err
	}
	names, err := TemplateVariables(template)
	if err != nil {
		return TemplatedLink{}, err
	}
	tmpl, err := uritemplates.Parse(template)
	if err != nil {
		return TemplatedLink{}, ErrTemplateFormat{Template: template, Reason: err.Error()}
	}
	expanded, err := tmpl.Expand(map[string]interface{}{})
	if err != nil {
		return TemplatedLink{}, ErrTemplateFormat{Template: template, Reason: err.Error()}
	}
	if err := checkAbsolute(expanded); err != nil {
		return TemplatedLink{}, ErrNotAbsolute{URI: template}
	}

	if len(vars) == 0 {
		for _, name := range names {
			vars = append(vars, DefaultHrefVar(rel, name))
		}
	}
	seen := make(map[string]bool, len(vars))
	copied := make([]HrefVar, len(vars))
	for i, v := range vars {
		if seen[v.Name] {
			return TemplatedLink{}, ErrDuplicateHrefVar{Name: v.Name}
		}
		seen[v.Name] = true
		copied[i] = HrefVar{Name: v.Name, VarType: v.VarType, Docs: v.Docs.clone()}
	}
	if len(copied) == 0 {
		copied = nil
	}

	return TemplatedLink{
		relationType: rel,
		hrefTemplate: template,
		hrefVars:     copied,
		hints:        hints,
	}, nil
}

// RelationType returns the relation type of the link.
func (l TemplatedLink) RelationType() RelationType { return l.relationType }

// HrefTemplate returns the URI template string.
func (l TemplatedLink) HrefTemplate() string { return l.hrefTemplate }

// HrefVars returns a copy of the template variables, in order.
func (l TemplatedLink) HrefVars() []HrefVar {
	if l.hrefVars == nil {
		return nil
	}
	vars := make([]HrefVar, len(l.hrefVars))
	for i, v := range l.hrefVars {
		vars[i] = HrefVar{Name: v.Name, VarType: v.VarType, Docs: v.Docs.clone()}
	}
	return vars
}

// Hints returns the link's hints.
func (l TemplatedLink) Hints() Hints { return l.hints }

// IsTemplated always returns true.
func (l TemplatedLink) IsTemplated() bool { return true }

func (l TemplatedLink) isResourceLink() {}

// WithHints returns a copy of the link with different hints.
func (l TemplatedLink) WithHints(hints Hints) TemplatedLink {
	l.hints = hints
	return l
}

// Expand fills in the template with values and returns the
// resulting URL.  Values may be strings, string slices or string
// maps, as RFC 6570 allows.
func (l TemplatedLink) Expand(values map[string]interface{}) (*url.URL, error) {
	tmpl, err := uritemplates.Parse(l.hrefTemplate)
	if err != nil {
		return nil, ErrTemplateFormat{Template: l.hrefTemplate, Reason: err.Error()}
	}
	expanded, err := tmpl.Expand(values)
	if err != nil {
		return nil, err
	}
	return url.Parse(expanded)
}

// Docs is human-readable documentation for a link or variable.
type Docs struct {
	// Description holds paragraphs of plain text.
	Description []string

	// DetailedDescription is optional long-form text.
	DetailedDescription string

	// Link is an optional absolute URI of external
	// documentation.
	Link string
}

// IsEmpty is true if no part of the documentation is set.
func (d Docs) IsEmpty() bool {
	return len(d.Description) == 0 && d.DetailedDescription == "" && d.Link == ""
}

func (d Docs) clone() Docs {
	if len(d.Description) == 0 {
		d.Description = nil
	} else {
		d.Description = append([]string(nil), d.Description...)
	}
	return d
}

func checkAbsolute(uri string) error {
	u, err := url.Parse(uri)
	if err != nil || !u.IsAbs() {
		return ErrNotAbsolute{URI: uri}
	}
	return nil
}
