// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restserver publishes an aggregated JSON Home catalog, and
// the registry of sources it is built from, as a REST service.  The
// restclient package can read the catalog back.
//
// The data structures are defined in the restdata package.  Clients
// should find resources through the /home directory rather than
// building URLs themselves.
//
// HTTP Considerations
//
// Clients should use the standard HTTP Accept: header to choose a
// format.  The catalog is served with a Cache-Control: max-age
// header matching the aggregation interval.  This interface does not
// support authentication.
//
// MIME Types
//
// This interface understands MIME types as follows:
//
//     application/json-home
//
// The lean JSON Home form of a directory document.  Only the catalog
// and /home resources have this form, and for them it is the default.
//
//     application/json
//     text/json
//
// Plain JSON.  Directory documents in this form also include the
// "description" and "detailedDescription" hints.
//
// URL Scheme
//
// Sources are addressed by their href, base64 encoded using the
// URL-safe alphabet (RFC 4648 section 5) with no padding.  The source
// http://a has a resource URL of /sources/aHR0cDovL2E.
//
// The following URLs are defined:
//
//     /
//     /home
//     /sources
//     /sources/{source}
//     /refresh
//
// The root URL is the aggregated catalog.  POST to /sources with a
// title and href to register a source; DELETE its URL to remove it.
// POST to /refresh to run an aggregation cycle immediately; GET it to
// see the outcome of the last one.  Registry changes show up in the
// catalog after the next cycle.
//
// Errors
//
// Failures return an ErrorResponse object with a matching HTTP
// status.  Some specific errors:
//
// 400 ErrNoHref, ErrBadHref: POST /sources was given an unusable
// source.
//
// 404 ErrNoSuchSource: the source named in the URL is not registered.
//
// 406: the Accept: header names no type this resource can produce.
//
// 415: the request body is not JSON.
//
// 503: the aggregator's fetch client has been shut down.
package restserver
