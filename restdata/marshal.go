// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"bytes"
	"errors"
	"io"
	"mime"

	"github.com/ugorji/go/codec"
)

// ErrMissingResources is returned from ParseDocument if a document has
// no top-level "resources" object.
var ErrMissingResources = errors.New("Directory document has no 'resources'")

// CanonicalMediaType maps a media type this package understands to
// the one it is encoded as.  It returns an empty string for anything
// else.
func CanonicalMediaType(mediaType string) string {
	switch mediaType {
	case DirectoryMediaType:
		return DirectoryMediaType
	case JSONMediaType, "text/json":
		return JSONMediaType
	default:
		return ""
	}
}

// jsonHandle returns a codec handle for both reading and writing.
// Map keys are written in sorted order so that identical catalogs
// produce identical bytes.
func jsonHandle() *codec.JsonHandle {
	h := &codec.JsonHandle{}
	h.Canonical = true
	return h
}

// Decode tries to decode a restdata object from a reader, such as an
// HTTP request or response.  out must be a pointer type.
func Decode(contentType string, r io.Reader, out interface{}) error {
	if contentType == "" {
		// RFC 7231 section 3.1.1.5
		contentType = "application/octet-stream"
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return err
	}
	if CanonicalMediaType(mediaType) == "" {
		return ErrUnsupportedMediaType{Type: mediaType}
	}
	decoder := codec.NewDecoder(r, jsonHandle())
	return decoder.Decode(out)
}

// Encode writes a restdata object as JSON.  Both supported media
// types share the same encoding; the caller is responsible for
// building the right variant of a Document.
func Encode(w io.Writer, in interface{}) error {
	encoder := codec.NewEncoder(w, jsonHandle())
	return encoder.Encode(in)
}

// ParseDocument decodes a complete directory document.  Unlike a plain
// Decode, this fails if the "resources" key is missing or null.
func ParseDocument(contentType string, body []byte) (Document, error) {
	var probe struct {
		Resources interface{} `json:"resources"`
	}
	err := Decode(contentType, bytes.NewReader(body), &probe)
	if err != nil {
		return Document{}, err
	}
	if probe.Resources == nil {
		return Document{}, ErrMissingResources
	}

	var doc Document
	err = Decode(contentType, bytes.NewReader(body), &doc)
	if err != nil {
		return Document{}, err
	}
	if doc.Resources == nil {
		doc.Resources = map[string]Resource{}
	}
	return doc, nil
}
