// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"

	"github.com/diffeo/go-jsonhome/aggregator"
	"github.com/diffeo/go-jsonhome/registry"
	"github.com/diffeo/go-jsonhome/restserver"
)

// newHandler builds the daemon's complete HTTP handler: the REST API
// at the root, Prometheus metrics from gatherer at /metrics, and
// panic recovery around all of it.  If reqLogger is non-nil every
// request is logged to it.
func newHandler(
	agg *aggregator.Aggregator,
	reg registry.Registry,
	gatherer prometheus.Gatherer,
	options restserver.Options,
	reqLogger logrus.FieldLogger,
) http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	restserver.PopulateRouter(r, agg, reg, options)

	n := negroni.New()
	recovery := negroni.NewRecovery()
	recovery.Logger = options.Logger
	recovery.PrintStack = false
	n.Use(recovery)
	if reqLogger != nil {
		requests := negroni.NewLogger()
		requests.ALogger = reqLogger
		n.Use(requests)
	}
	n.UseHandler(r)
	return n
}
