// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"encoding/base64"
)

// SourceName turns a source href into a single URL path segment.
// Hrefs always contain characters that cannot appear in a path
// segment as-is, so the name is the href in the URL-safe base64
// alphabet with no padding.
func SourceName(href string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(href))
}

// SourceHref is the dual of SourceName.  It returns an error if name
// is not valid unpadded URL-safe base64.
func SourceHref(name string) (string, error) {
	bytes, err := base64.RawURLEncoding.DecodeString(name)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
