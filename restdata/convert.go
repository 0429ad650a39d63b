// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/diffeo/go-jsonhome/jsonhome"
)

// FromJSONHome builds the wire form of a catalog.  If mediaType is
// JSONMediaType the descriptive hint fields are included; for any
// other type they are left out.
func FromJSONHome(home *jsonhome.JSONHome, mediaType string) Document {
	rich := CanonicalMediaType(mediaType) == JSONMediaType
	doc := Document{Resources: make(map[string]Resource, home.Len())}
	for _, link := range home.Resources() {
		var res Resource
		switch l := link.(type) {
		case jsonhome.DirectLink:
			res.Href = l.Href()
		case jsonhome.TemplatedLink:
			res.HrefTemplate = l.HrefTemplate()
			vars := l.HrefVars()
			if len(vars) > 0 {
				res.HrefVars = make(map[string]string, len(vars))
				for _, v := range vars {
					res.HrefVars[v.Name] = v.VarType
				}
			}
		}
		res.Hints = fromHints(link.Hints(), rich)
		doc.Resources[string(link.RelationType())] = res
	}
	return doc
}

func fromHints(hints jsonhome.Hints, rich bool) *Hints {
	h := &Hints{
		Allow:           hints.Allow(),
		Representations: hints.Representations(),
		AcceptPut:       hints.AcceptPut(),
		AcceptPost:      hints.AcceptPost(),
		AcceptPatch:     hints.AcceptPatch(),
		AcceptRanges:    hints.AcceptRanges(),
		Prefer:          hints.Preferences(),
	}
	for _, p := range hints.PreconditionReq() {
		h.PreconditionReq = append(h.PreconditionReq, p.String())
	}
	for _, a := range hints.AuthReq() {
		h.AuthReq = append(h.AuthReq, AuthReq{Scheme: a.Scheme, Realms: a.Realms})
	}
	if hints.Status() != jsonhome.StatusOK {
		h.Status = hints.Status().String()
	}
	docs := hints.Docs()
	h.Docs = docs.Link
	if rich {
		h.Description = docs.Description
		h.DetailedDescription = docs.DetailedDescription
	}
	return h
}

// JSONHome converts a decoded document into a catalog.  Relative
// addresses are resolved against base, which may be nil if the
// document only has absolute addresses.  Since JSON objects are
// unordered, relation types are added in sorted order, and the
// variables of a templated link follow the order of the template.
func (d Document) JSONHome(base *url.URL) (*jsonhome.JSONHome, error) {
	rels := make([]string, 0, len(d.Resources))
	for rel := range d.Resources {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	links := make([]jsonhome.ResourceLink, 0, len(rels))
	for _, rel := range rels {
		link, err := d.Resources[rel].link(jsonhome.RelationType(rel), base)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return jsonhome.New(links...)
}

func (r Resource) link(rel jsonhome.RelationType, base *url.URL) (jsonhome.ResourceLink, error) {
	hints, err := r.Hints.hints()
	if err != nil {
		return nil, fmt.Errorf("%v: %v", rel, err)
	}
	switch {
	case r.Href != "" && r.HrefTemplate != "":
		return nil, fmt.Errorf("%v: both href and href-template", rel)
	case r.Href != "":
		href := r.Href
		if base != nil {
			ref, err := url.Parse(href)
			if err != nil {
				return nil, fmt.Errorf("%v: %v", rel, err)
			}
			href = base.ResolveReference(ref).String()
		}
		return jsonhome.NewDirectLink(rel, href, hints)
	case r.HrefTemplate != "":
		template := jsonhome.ResolveTemplate(base, r.HrefTemplate)
		names, err := jsonhome.TemplateVariables(template)
		if err != nil {
			return nil, err
		}
		var vars []jsonhome.HrefVar
		used := make(map[string]bool, len(r.HrefVars))
		for _, name := range names {
			if varType, present := r.HrefVars[name]; present {
				vars = append(vars, jsonhome.HrefVar{Name: name, VarType: varType})
				used[name] = true
			}
		}
		var extra []string
		for name := range r.HrefVars {
			if !used[name] {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		for _, name := range extra {
			vars = append(vars, jsonhome.HrefVar{Name: name, VarType: r.HrefVars[name]})
		}
		return jsonhome.NewTemplatedLink(rel, template, vars, hints)
	default:
		return nil, fmt.Errorf("%v: neither href nor href-template", rel)
	}
}

func (h *Hints) hints() (jsonhome.Hints, error) {
	if h == nil {
		return jsonhome.Hints{}, nil
	}
	b := jsonhome.NewHints().
		Allow(h.Allow...).
		Representations(h.Representations...).
		AcceptPut(h.AcceptPut...).
		AcceptPost(h.AcceptPost...).
		AcceptPatch(h.AcceptPatch...).
		AcceptRanges(h.AcceptRanges...).
		Prefer(h.Prefer...)
	for _, text := range h.PreconditionReq {
		var p jsonhome.Precondition
		if err := p.UnmarshalText([]byte(text)); err != nil {
			return jsonhome.Hints{}, err
		}
		b.RequirePreconditions(p)
	}
	for _, a := range h.AuthReq {
		b.RequireAuth(a.Scheme, a.Realms...)
	}
	var status jsonhome.Status
	if err := status.UnmarshalText([]byte(h.Status)); err != nil {
		return jsonhome.Hints{}, err
	}
	b.Status(status)
	if h.Docs != "" {
		u, err := url.Parse(h.Docs)
		if err != nil || !u.IsAbs() {
			return jsonhome.Hints{}, jsonhome.ErrNotAbsolute{URI: h.Docs}
		}
	}
	b.Docs(jsonhome.Docs{
		Description:         h.Description,
		DetailedDescription: h.DetailedDescription,
		Link:                h.Docs,
	})
	return b.Build(), nil
}
