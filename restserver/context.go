// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/diffeo/go-jsonhome/registry"
	"github.com/diffeo/go-jsonhome/restdata"
)

// errUnmarshal is returned if the post contract is violated and a
// handler function is passed the wrong type.
var errUnmarshal = restdata.ErrBadRequest{
	Err: errors.New("Invalid input format"),
}

// context holds all of the information and objects that can be extracted
// from the request and its URL parameters.
type context struct {
	// Request is the original HTTP request.
	Request *http.Request

	// Source is the source named in the URL, if any.
	Source *registry.Source

	// ResponseType is the negotiated media type of the response.
	ResponseType string
}

func (api *restAPI) Context(req *http.Request) (ctx *context, err error) {
	ctx = &context{Request: req}
	vars := mux.Vars(req)

	if name, present := vars["source"]; present {
		var href string
		href, err = restdata.SourceHref(name)
		if err != nil {
			return ctx, restdata.ErrNotFound{Err: registry.ErrNoSuchSource{Href: name}}
		}
		var source registry.Source
		source, err = registry.Find(api.Registry, href)
		if _, missing := err.(registry.ErrNoSuchSource); missing {
			err = restdata.ErrNotFound{Err: err}
		}
		if err == nil {
			ctx.Source = &source
		}
	}

	return
}

// BaseURL returns the scheme and host the client used to reach us,
// honoring a reverse proxy's X-Forwarded-Proto: header.
func (ctx *context) BaseURL() string {
	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	if proto := ctx.Request.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(proto)
	}
	return scheme + "://" + ctx.Request.Host
}
