// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package backend provides a standard way to construct a source
// registry based on command-line flags.
package backend

import (
	"errors"
	"strings"

	"github.com/diffeo/go-jsonhome/file"
	"github.com/diffeo/go-jsonhome/memory"
	"github.com/diffeo/go-jsonhome/postgres"
	"github.com/diffeo/go-jsonhome/registry"
)

// Backend describes user-visible parameters to store the source
// registry.  This implements the flag.Value interface, and so a
// typical use is
//
//     func main() {
//         backend := backend.Backend{Implementation: "memory"}
//         flag.Var(&backend, "registry", "impl:address of source storage")
//         flag.Parse()
//         reg, err := backend.Registry()
//     }
type Backend struct {
	// Implementation holds the name of the implementation; for
	// instance, "memory".
	Implementation string

	// Address holds some backend-specific address, such as a
	// database connect string or a file name.
	Address string
}

// Registry creates a new source registry.  This generally should be
// only called once.  If the backend has in-process state, such as a
// database connection pool or an in-memory store, calling this
// multiple times will create multiple copies of that state.  In
// particular, if b.Implementation is "memory", multiple calls to this
// will create multiple independent registries.
func (b *Backend) Registry() (registry.Registry, error) {
	switch b.Implementation {
	case "memory":
		return memory.New(), nil
	case "file":
		reg, err := file.New(b.Address)
		if err != nil {
			return nil, err
		}
		return reg, nil
	case "postgres":
		reg, err := postgres.New(b.Address)
		if err != nil {
			return nil, err
		}
		return reg, nil
	default:
		return nil, errors.New("unknown registry backend " + b.Implementation)
	}
}

// String renders a backend description as a string.
func (b *Backend) String() string {
	if b.Address == "" {
		return b.Implementation
	}
	return b.Implementation + ":" + b.Address
}

// Set parses a string into an existing backend description.  The
// string should be of the form "implementation:address", where
// address can be any string.  Set checks to see if the provided
// implementation is any of the known implementations, and returns an
// appropriate error if not.
//
// This is part of the flag.Value interface.  Note that this does not
// attempt to validate the b.Address part of the string beyond
// requiring one for "file", nor does it actually make a connection.
func (b *Backend) Set(param string) error {
	parts := strings.SplitN(param, ":", 2)
	implementation, address := parts[0], ""
	if len(parts) == 2 {
		address = parts[1]
	}
	switch implementation {
	case "":
		return errors.New("must specify a registry backend type")
	case "memory", "postgres":
	case "file":
		if address == "" {
			return errors.New("file registry needs a file name")
		}
	default:
		return errors.New("unknown registry backend " + implementation)
	}
	b.Implementation = implementation
	b.Address = address
	return nil
}
