// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package file provides a source registry stored in a YAML file.
// The file looks like
//
//     sources:
//       - title: Widgets
//         href: http://widgets.example.com/
//       - title: Gadgets
//         href: http://gadgets.example.com/home
//
// The file is re-read on every call, so edits made by hand take
// effect on the next aggregation cycle.  Changes are written to a
// temporary file which then replaces the original.  Only one process
// should change the file at a time.
package file

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v2"

	"github.com/diffeo/go-jsonhome/registry"
)

// document is the top-level structure of the YAML file.
type document struct {
	Sources []registry.Source `yaml:"sources"`
}

// Registry is a registry.Registry backed by a YAML file.
type Registry struct {
	path string
	sem  sync.Mutex
}

// New creates a registry stored in path.  The file need not exist
// yet, but if it does, it must be readable and well-formed.
func New(path string) (*Registry, error) {
	r := &Registry{path: path}
	if _, err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the name of the backing file.
func (r *Registry) Path() string {
	return r.path
}

// load reads the file.  A missing file is an empty registry.
func (r *Registry) load() (document, error) {
	var doc document
	data, err := ioutil.ReadFile(r.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return doc, err
	}
	err = yaml.UnmarshalStrict(data, &doc)
	return doc, err
}

// save writes the file atomically.
func (r *Registry) save(doc document) (err error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	tmp, err := ioutil.TempFile(filepath.Dir(r.path), "."+filepath.Base(r.path)+".")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}

// List returns every source in the file.
func (r *Registry) List() ([]registry.Source, error) {
	r.sem.Lock()
	defer r.sem.Unlock()
	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	if doc.Sources == nil {
		return []registry.Source{}, nil
	}
	return doc.Sources, nil
}

// Put adds or updates a source and rewrites the file.
func (r *Registry) Put(source registry.Source) error {
	if err := source.Validate(); err != nil {
		return err
	}
	r.sem.Lock()
	defer r.sem.Unlock()
	doc, err := r.load()
	if err != nil {
		return err
	}
	if i := find(doc.Sources, source.Href); i >= 0 {
		doc.Sources[i] = source
	} else {
		doc.Sources = append(doc.Sources, source)
	}
	return r.save(doc)
}

// Remove deletes a source and rewrites the file.
func (r *Registry) Remove(href string) error {
	r.sem.Lock()
	defer r.sem.Unlock()
	doc, err := r.load()
	if err != nil {
		return err
	}
	i := find(doc.Sources, href)
	if i < 0 {
		return registry.ErrNoSuchSource{Href: href}
	}
	doc.Sources = append(doc.Sources[:i], doc.Sources[i+1:]...)
	return r.save(doc)
}

func find(sources []registry.Source, href string) int {
	for i, source := range sources {
		if source.Href == href {
			return i
		}
	}
	return -1
}
