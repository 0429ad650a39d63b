// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/diffeo/go-jsonhome/aggregator"
	"github.com/diffeo/go-jsonhome/registry"
	"github.com/diffeo/go-jsonhome/restdata"
)

// Options configures the REST API.
type Options struct {
	// MaxAge is how long clients may cache directory documents.
	// This is typically the aggregation interval.  If zero, no
	// Cache-Control: header is sent.
	MaxAge time.Duration

	// Logger receives records of failed requests.  If nil, the
	// logrus standard logger is used.
	Logger logrus.FieldLogger
}

// NewRouter creates a new HTTP handler that serves the aggregated
// catalog of agg and manages the sources in reg.  All resources are
// under the URL path root.  For more control over this setup, create
// a mux.Router and call PopulateRouter instead.
func NewRouter(agg *aggregator.Aggregator, reg registry.Registry, options Options) http.Handler {
	r := mux.NewRouter()
	PopulateRouter(r, agg, reg, options)
	return r
}

// PopulateRouter adds the REST API routes to an existing
// github.com/gorilla/mux router object.  This can be used, for
// instance, to place the interface under a subpath:
//
//     r := mux.NewRouter()
//     s := r.PathPrefix("/jsonhome").Subrouter()
//     PopulateRouter(s, agg, reg, restserver.Options{})
func PopulateRouter(r *mux.Router, agg *aggregator.Aggregator, reg registry.Registry, options Options) {
	if options.Logger == nil {
		options.Logger = logrus.StandardLogger()
	}
	api := &restAPI{
		Aggregator: agg,
		Registry:   reg,
		Router:     r,
		Options:    options,
	}
	api.PopulateRouter(r)
}

// restAPI holds the persistent state for the REST API.
type restAPI struct {
	Aggregator *aggregator.Aggregator
	Registry   registry.Registry
	Router     *mux.Router
	Options    Options
}

// PopulateRouter adds all URL paths to a router.
func (api *restAPI) PopulateRouter(r *mux.Router) {
	r.Path("/").Name("root").Handler(&resourceHandler{
		Directory: true,
		MaxAge:    api.Options.MaxAge,
		Logger:    api.Options.Logger,
		Context:   api.Context,
		Get:       api.CatalogGet,
	})
	r.Path("/home").Name("home").Handler(&resourceHandler{
		Directory: true,
		Logger:    api.Options.Logger,
		Context:   api.Context,
		Get:       api.HomeGet,
	})
	r.Path("/sources").Name("sources").Handler(&resourceHandler{
		Representation: restdata.Source{},
		Logger:         api.Options.Logger,
		Context:        api.Context,
		Get:            api.SourceList,
		Post:           api.SourcePost,
	})
	r.Path("/sources/{source}").Name("source").Handler(&resourceHandler{
		Logger:  api.Options.Logger,
		Context: api.Context,
		Get:     api.SourceGet,
		Delete:  api.SourceDelete,
	})
	r.Path("/refresh").Name("refresh").Handler(&resourceHandler{
		Logger:  api.Options.Logger,
		Context: api.Context,
		Get:     api.RefreshGet,
		Post:    api.RefreshPost,
	})
}
