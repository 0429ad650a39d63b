// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Jsonhomed runs a JSON Home aggregation server.  It periodically
// fetches the directory of every registered source, merges them into
// one catalog, and serves that catalog over HTTP along with a REST
// interface to manage the sources.
package main

import (
	"context"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/diffeo/go-jsonhome/aggregator"
	"github.com/diffeo/go-jsonhome/backend"
	"github.com/diffeo/go-jsonhome/restclient"
	"github.com/diffeo/go-jsonhome/restserver"
)

// shutdownTimeout bounds how long in-flight HTTP requests may take
// to finish after a signal.
const shutdownTimeout = 10 * time.Second

func main() {
	httpBind := flag.String("http", ":5980",
		"[ip]:port for HTTP REST interface")
	backend := backend.Backend{Implementation: "memory", Address: ""}
	flag.Var(&backend, "registry", "impl[:address] of the source registry")
	configFile := flag.String("config", "", "configuration YAML file")
	logRequests := flag.Bool("log-requests", false, "log all requests")
	flag.Parse()

	config, err := LoadConfig(*configFile)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err,
		}).Fatal("Could not load YAML configuration")
		return
	}

	reg, err := backend.Registry()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err,
		}).Fatal("Could not create source registry")
		return
	}
	if closer, isCloser := reg.(io.Closer); isCloser {
		defer closer.Close()
	}
	for _, source := range config.Sources {
		err = reg.Put(source)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"source": source.Href,
				"err":    err,
			}).Fatal("Could not register source")
			return
		}
	}

	var reqLogger logrus.FieldLogger
	if *logRequests {
		stdlog := logrus.StandardLogger()
		reqLogger = &logrus.Logger{
			Out:       stdlog.Out,
			Formatter: stdlog.Formatter,
			Hooks:     stdlog.Hooks,
			Level:     logrus.DebugLevel,
		}
	}

	client := restclient.New(restclient.Options{
		Timeout:   config.Timeout,
		CacheSize: config.CacheSize,
		Logger:    reqLogger,
	})
	metrics := aggregator.NewMetrics()
	metrics.MustRegister(prometheus.DefaultRegisterer)
	agg := aggregator.New(client, aggregator.Options{
		Concurrency: config.Concurrency,
		Retry:       config.Retry,
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr: *httpBind,
		Handler: newHandler(agg, reg, prometheus.DefaultGatherer, restserver.Options{
			MaxAge: config.MaxAge,
			Logger: logrus.StandardLogger(),
		}, reqLogger),
	}
	go func() {
		err := server.ListenAndServe()
		if err != http.ErrServerClosed {
			logrus.WithFields(logrus.Fields{
				"err": err,
			}).Fatal("HTTP server failed")
		}
	}()
	logrus.WithFields(logrus.Fields{
		"http":     *httpBind,
		"registry": backend.String(),
		"interval": config.Interval,
	}).Info("jsonhomed started")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = agg.Run(ctx, reg, config.Interval)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err,
		}).Error("Aggregation stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err,
		}).Warn("HTTP server did not shut down cleanly")
	}
	client.Shutdown()
	logrus.Info("jsonhomed stopped")
}
