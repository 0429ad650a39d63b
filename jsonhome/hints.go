// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package jsonhome

import (
	"strings"
)

// Status is the lifecycle status of a linked resource.  Statuses are
// ordered; a merge always keeps the greater one.
type Status int

const (
	// StatusOK is the normal status, and the zero value.
	StatusOK Status = iota

	// StatusDeprecated marks a resource that still works but
	// should no longer be used.
	StatusDeprecated

	// StatusGone marks a resource that has been removed.
	StatusGone
)

// Precondition names a validator a client must send with unsafe
// requests.
type Precondition int

const (
	// PreconditionETag requires an If-Match header.
	PreconditionETag Precondition = iota

	// PreconditionLastModified requires an If-Unmodified-Since
	// header.
	PreconditionLastModified
)

// AuthReq is one authentication scheme a resource accepts, with the
// realms it applies to.
type AuthReq struct {
	Scheme string
	Realms []string
}

func (a AuthReq) equal(b AuthReq) bool {
	if a.Scheme != b.Scheme || len(a.Realms) != len(b.Realms) {
		return false
	}
	for i := range a.Realms {
		if a.Realms[i] != b.Realms[i] {
			return false
		}
	}
	return true
}

// Hints describe the HTTP contract of a linked resource.  The zero
// value has no hints at all.  Build non-empty hints with NewHints.
type Hints struct {
	allow           []string
	representations []string
	acceptPut       []string
	acceptPost      []string
	acceptPatch     []string
	acceptRanges    []string
	preferences     []string
	preconditionReq []Precondition
	authReq         []AuthReq
	status          Status
	docs            Docs
}

// Allow returns the allowed HTTP methods in the order they were first
// declared.
func (h Hints) Allow() []string { return cloneStrings(h.allow) }

// Allows checks whether a method is in the allowed set.
func (h Hints) Allows(method string) bool {
	return containsString(h.allow, strings.ToUpper(method))
}

// Representations returns the media types the resource can produce.
func (h Hints) Representations() []string { return cloneStrings(h.representations) }

// AcceptPut returns the media types accepted by PUT.
func (h Hints) AcceptPut() []string { return cloneStrings(h.acceptPut) }

// AcceptPost returns the media types accepted by POST.
func (h Hints) AcceptPost() []string { return cloneStrings(h.acceptPost) }

// AcceptPatch returns the media types accepted by PATCH.
func (h Hints) AcceptPatch() []string { return cloneStrings(h.acceptPatch) }

// AcceptRanges returns the supported range units.
func (h Hints) AcceptRanges() []string { return cloneStrings(h.acceptRanges) }

// Preferences returns the supported Prefer tokens.
func (h Hints) Preferences() []string { return cloneStrings(h.preferences) }

// PreconditionReq returns the required preconditions.
func (h Hints) PreconditionReq() []Precondition {
	if h.preconditionReq == nil {
		return nil
	}
	return append([]Precondition(nil), h.preconditionReq...)
}

// AuthReq returns the accepted authentication schemes.
func (h Hints) AuthReq() []AuthReq {
	if h.authReq == nil {
		return nil
	}
	result := make([]AuthReq, len(h.authReq))
	for i, a := range h.authReq {
		result[i] = AuthReq{Scheme: a.Scheme, Realms: cloneStrings(a.Realms)}
	}
	return result
}

// Status returns the lifecycle status.
func (h Hints) Status() Status { return h.status }

// Docs returns the documentation.
func (h Hints) Docs() Docs { return h.docs.clone() }

// Equal compares two sets of hints.  Allowed methods and required
// preconditions compare as sets; everything else must match in order.
func (h Hints) Equal(other Hints) bool {
	if len(h.allow) != len(other.allow) {
		return false
	}
	for _, m := range h.allow {
		if !containsString(other.allow, m) {
			return false
		}
	}
	if len(h.preconditionReq) != len(other.preconditionReq) {
		return false
	}
	for _, p := range h.preconditionReq {
		if !containsPrecondition(other.preconditionReq, p) {
			return false
		}
	}
	if len(h.authReq) != len(other.authReq) {
		return false
	}
	for i := range h.authReq {
		if !h.authReq[i].equal(other.authReq[i]) {
			return false
		}
	}
	return stringsEqual(h.representations, other.representations) &&
		stringsEqual(h.acceptPut, other.acceptPut) &&
		stringsEqual(h.acceptPost, other.acceptPost) &&
		stringsEqual(h.acceptPatch, other.acceptPatch) &&
		stringsEqual(h.acceptRanges, other.acceptRanges) &&
		stringsEqual(h.preferences, other.preferences) &&
		h.status == other.status &&
		h.docs.Link == other.docs.Link &&
		h.docs.DetailedDescription == other.docs.DetailedDescription &&
		stringsEqual(h.docs.Description, other.docs.Description)
}

// ComposeHints combines the hints of two links for the same
// relation type.  List-valued hints are unioned, keeping the first
// occurrence of each value with existing's values ahead of
// incoming's.  The status is the greater of the two.  Documentation
// is not combined: existing's docs are kept unless they are empty.
func ComposeHints(existing, incoming Hints) Hints {
	result := Hints{
		allow:           unionStrings(existing.allow, incoming.allow),
		representations: unionStrings(existing.representations, incoming.representations),
		acceptPut:       unionStrings(existing.acceptPut, incoming.acceptPut),
		acceptPost:      unionStrings(existing.acceptPost, incoming.acceptPost),
		acceptPatch:     unionStrings(existing.acceptPatch, incoming.acceptPatch),
		acceptRanges:    unionStrings(existing.acceptRanges, incoming.acceptRanges),
		preferences:     unionStrings(existing.preferences, incoming.preferences),
		preconditionReq: unionPreconditions(existing.preconditionReq, incoming.preconditionReq),
		authReq:         unionAuthReqs(existing.authReq, incoming.authReq),
		status:          existing.status,
	}
	if incoming.status > result.status {
		result.status = incoming.status
	}
	if !existing.docs.IsEmpty() {
		result.docs = existing.docs.clone()
	} else {
		result.docs = incoming.docs.clone()
	}
	return result
}

// HintsBuilder accumulates hints.  Every method returns the builder
// so calls can be chained:
//
//     hints := jsonhome.NewHints().
//             Allow("GET", "PUT").
//             Representations("application/json").
//             AcceptPut("application/json").
//             Build()
//
// Accepted media types for PUT, POST or PATCH are dropped by Build
// unless that method is also allowed.
type HintsBuilder struct {
	hints Hints
}

// NewHints starts building a new set of hints.
func NewHints() *HintsBuilder {
	return &HintsBuilder{}
}

// Allow adds HTTP methods to the allowed set.
func (b *HintsBuilder) Allow(methods ...string) *HintsBuilder {
	upper := make([]string, len(methods))
	for i, m := range methods {
		upper[i] = strings.ToUpper(m)
	}
	b.hints.allow = unionStrings(b.hints.allow, upper)
	return b
}

// Representations adds producible media types.
func (b *HintsBuilder) Representations(types ...string) *HintsBuilder {
	b.hints.representations = unionStrings(b.hints.representations, types)
	return b
}

// AcceptPut adds media types accepted by PUT.
func (b *HintsBuilder) AcceptPut(types ...string) *HintsBuilder {
	b.hints.acceptPut = unionStrings(b.hints.acceptPut, types)
	return b
}

// AcceptPost adds media types accepted by POST.
func (b *HintsBuilder) AcceptPost(types ...string) *HintsBuilder {
	b.hints.acceptPost = unionStrings(b.hints.acceptPost, types)
	return b
}

// AcceptPatch adds media types accepted by PATCH.
func (b *HintsBuilder) AcceptPatch(types ...string) *HintsBuilder {
	b.hints.acceptPatch = unionStrings(b.hints.acceptPatch, types)
	return b
}

// AcceptRanges adds supported range units.
func (b *HintsBuilder) AcceptRanges(units ...string) *HintsBuilder {
	b.hints.acceptRanges = unionStrings(b.hints.acceptRanges, units)
	return b
}

// Prefer adds supported preference tokens.
func (b *HintsBuilder) Prefer(prefs ...string) *HintsBuilder {
	b.hints.preferences = unionStrings(b.hints.preferences, prefs)
	return b
}

// RequirePreconditions adds required preconditions.
func (b *HintsBuilder) RequirePreconditions(p ...Precondition) *HintsBuilder {
	b.hints.preconditionReq = unionPreconditions(b.hints.preconditionReq, p)
	return b
}

// RequireAuth adds an authentication scheme.
func (b *HintsBuilder) RequireAuth(scheme string, realms ...string) *HintsBuilder {
	auth := AuthReq{Scheme: scheme, Realms: cloneStrings(realms)}
	b.hints.authReq = unionAuthReqs(b.hints.authReq, []AuthReq{auth})
	return b
}

// Status sets the lifecycle status.
func (b *HintsBuilder) Status(status Status) *HintsBuilder {
	b.hints.status = status
	return b
}

// Docs sets the documentation.
func (b *HintsBuilder) Docs(docs Docs) *HintsBuilder {
	b.hints.docs = docs.clone()
	return b
}

// Build returns the accumulated hints.  The builder may continue to
// be used afterwards without affecting the result.
func (b *HintsBuilder) Build() Hints {
	hints := ComposeHints(b.hints, Hints{})
	if !hints.Allows("PUT") {
		hints.acceptPut = nil
	}
	if !hints.Allows("POST") {
		hints.acceptPost = nil
	}
	if !hints.Allows("PATCH") {
		hints.acceptPatch = nil
	}
	return hints
}

// unionStrings returns a new slice with every distinct value of a
// and then b, in first-seen order, or nil if there are none.
func unionStrings(a, b []string) []string {
	if len(a)+len(b) == 0 {
		return nil
	}
	result := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			result = append(result, s)
		}
	}
	return result
}

func unionPreconditions(a, b []Precondition) []Precondition {
	var result []Precondition
	for _, list := range [][]Precondition{a, b} {
		for _, p := range list {
			found := false
			for _, q := range result {
				if p == q {
					found = true
					break
				}
			}
			if !found {
				result = append(result, p)
			}
		}
	}
	return result
}

func unionAuthReqs(a, b []AuthReq) []AuthReq {
	var result []AuthReq
	for _, list := range [][]AuthReq{a, b} {
		for _, auth := range list {
			found := false
			for _, have := range result {
				if have.equal(auth) {
					found = true
					break
				}
			}
			if !found {
				result = append(result, AuthReq{Scheme: auth.Scheme, Realms: cloneStrings(auth.Realms)})
			}
		}
	}
	return result
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func containsPrecondition(list []Precondition, p Precondition) bool {
	for _, item := range list {
		if item == p {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
