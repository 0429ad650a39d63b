// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restdata defines the data structures passed across the wire
// by the restclient and restserver packages: the JSON Home directory
// document itself, and the auxiliary representations the aggregation
// server uses for its source list.
//
// Directory Documents
//
// A directory document is a JSON object with a single "resources"
// key, mapping absolute relation type URIs to resource objects:
//
//     {
//         "resources": {
//             "http://example.com/rel/widgets": {
//                 "href": "http://example.com/widgets",
//                 "hints": {"allow": ["GET", "POST"]}
//             },
//             "http://example.com/rel/widget": {
//                 "href-template": "http://example.com/widgets/{id}",
//                 "href-vars": {"id": "http://example.com/rel/widget#id"},
//                 "hints": {"allow": ["GET", "PUT"], "status": "deprecated"}
//             }
//         }
//     }
//
// A resource object has either "href" or "href-template", never both.
// Relative hrefs and templates are resolved against the address the
// document was fetched from.
//
// Media Types
//
// Two media types carry the same document.  DirectoryMediaType,
// application/json-home, is the lean form.  JSONMediaType,
// application/json, additionally includes the "description" and
// "detailedDescription" hint fields.  Producers choose the form by
// the media type they send; consumers accept either.
//
// Errors
//
// Errors from the aggregation server are returned as encodings of the
// ErrorResponse type, with a failing HTTP status.  If Go server code
// panics, this should be captured and returned as an ErrorResponse
// with error code "panic".
package restdata

// DirectoryMediaType is the media type of a lean JSON Home document.
const DirectoryMediaType = "application/json-home"

// JSONMediaType is the media type of the plain-JSON rendering, which
// includes descriptive text.
const JSONMediaType = "application/json"

// AcceptDirectory is an Accept: header value for clients that can
// read either form, preferring the directory-specific one.
const AcceptDirectory = DirectoryMediaType + ", " + JSONMediaType + ";q=0.9"

// Document is the top-level directory document.
type Document struct {
	// Resources maps relation type URIs to resources.
	Resources map[string]Resource `json:"resources"`
}

// Resource is one entry in a directory document.
type Resource struct {
	// Href is the address of a direct link.
	Href string `json:"href,omitempty"`

	// HrefTemplate is the URI template of a templated link.
	HrefTemplate string `json:"href-template,omitempty"`

	// HrefVars maps template variable names to URIs describing
	// their types.
	HrefVars map[string]string `json:"href-vars,omitempty"`

	// Hints describe the linked resource.
	Hints *Hints `json:"hints,omitempty"`
}

// Hints is the wire form of jsonhome.Hints.
type Hints struct {
	Allow           []string  `json:"allow,omitempty"`
	Representations []string  `json:"representations,omitempty"`
	AcceptPut       []string  `json:"accept-put,omitempty"`
	AcceptPost      []string  `json:"accept-post,omitempty"`
	AcceptPatch     []string  `json:"accept-patch,omitempty"`
	AcceptRanges    []string  `json:"accept-ranges,omitempty"`
	Prefer          []string  `json:"prefer,omitempty"`
	PreconditionReq []string  `json:"precondition-req,omitempty"`
	AuthReq         []AuthReq `json:"auth-req,omitempty"`

	// Status is "deprecated" or "gone", or absent.
	Status string `json:"status,omitempty"`

	// Docs is the URI of external documentation.
	Docs string `json:"docs,omitempty"`

	// Description and DetailedDescription only appear in the
	// JSONMediaType rendering.
	Description         []string `json:"description,omitempty"`
	DetailedDescription string   `json:"detailedDescription,omitempty"`
}

// AuthReq is one entry of the "auth-req" hint.
type AuthReq struct {
	Scheme string   `json:"scheme"`
	Realms []string `json:"realms,omitempty"`
}

// Source is the representation of one registered directory source
// in the aggregation server.
type Source struct {
	// URL points at this source's own resource.  It is ignored
	// when posting a new source.
	URL string `json:"url,omitempty"`

	// Title is a human-readable name.
	Title string `json:"title"`

	// Href is the address of the source's directory document.
	Href string `json:"href"`
}

// SourceList is the list of registered sources.
type SourceList struct {
	Sources []Source `json:"sources"`
}

// Outcome reports what happened to one source during an
// aggregation cycle.
type Outcome struct {
	Title     string `json:"title"`
	Href      string `json:"href"`
	State     string `json:"state"`
	Error     string `json:"error,omitempty"`
	Attempts  int    `json:"attempts"`
	Resources int    `json:"resources"`
}

// RefreshResult is returned from an aggregation cycle.
type RefreshResult struct {
	// Cycle is a unique identifier for the cycle.
	Cycle string `json:"cycle"`

	// Resources is the number of relation types in the new
	// catalog.
	Resources int `json:"resources"`

	// Outcomes has one entry per source, in source order.
	Outcomes []Outcome `json:"outcomes"`

	// Collisions describes relation types that two sources
	// published with incompatible addresses.
	Collisions []string `json:"collisions,omitempty"`
}

// ErrorResponse can be a response to any method, generally accompanied
// by a failing HTTP status code.
type ErrorResponse struct {
	// Error is a short description of the failure.  This may be
	// the name of a well-known error, the string "panic", or the
	// string "error" for some other kind of error.
	Error string `json:"error"`

	// Message is a human-readable description of the failure.
	Message string `json:"message"`

	// Value is an extra parameter to the error if applicable.
	Value string `json:"value,omitempty"`

	// Stack holds a formatted backtrace, if the method failed
	// due to a panic.
	Stack string `json:"stack,omitempty"`
}

// Relation types of the aggregation server's own resources, as
// published in its /home directory.
const (
	// RelCatalog is the aggregated catalog.
	RelCatalog = "https://github.com/diffeo/go-jsonhome/rel/catalog"

	// RelSources is the list of registered sources.
	RelSources = "https://github.com/diffeo/go-jsonhome/rel/sources"

	// RelSource is a single registered source.
	RelSource = "https://github.com/diffeo/go-jsonhome/rel/source"

	// RelRefresh runs an aggregation cycle.
	RelRefresh = "https://github.com/diffeo/go-jsonhome/rel/refresh"
)
