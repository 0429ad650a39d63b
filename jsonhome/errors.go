// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package jsonhome

import (
	"fmt"
)

// ErrMergeConflict is returned when two resource links for the same
// relation type cannot be combined: one is a direct link and the
// other is templated, or they point at different addresses.
type ErrMergeConflict struct {
	RelationType RelationType
	Reason       string
}

func (err ErrMergeConflict) Error() string {
	return fmt.Sprintf("Conflicting resource links for %v: %v", err.RelationType, err.Reason)
}

// ErrTemplateFormat is returned when a URI template cannot be parsed.
type ErrTemplateFormat struct {
	Template string
	Reason   string
}

func (err ErrTemplateFormat) Error() string {
	return fmt.Sprintf("Invalid URI template %q: %v", err.Template, err.Reason)
}

// ErrNotAbsolute is returned from the link constructors when a
// relation type or href is not an absolute URI.
type ErrNotAbsolute struct {
	URI string
}

func (err ErrNotAbsolute) Error() string {
	return fmt.Sprintf("Not an absolute URI: %q", err.URI)
}

// ErrDuplicateHrefVar is returned from NewTemplatedLink if two href
// variables share a name.
type ErrDuplicateHrefVar struct {
	Name string
}

func (err ErrDuplicateHrefVar) Error() string {
	return fmt.Sprintf("Duplicate href variable %q", err.Name)
}
