// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package jsonhome

import (
	"fmt"
)

// MarshalText returns a string representing a link status.
func (status Status) MarshalText() ([]byte, error) {
	switch status {
	case StatusOK:
		return []byte("ok"), nil
	case StatusDeprecated:
		return []byte("deprecated"), nil
	case StatusGone:
		return []byte("gone"), nil
	default:
		return nil, fmt.Errorf("invalid status (marshal, %+v)", int(status))
	}
}

// UnmarshalText populates a link status from a string.  The empty
// string is StatusOK, since the wire format omits that status.
func (status *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "ok":
		*status = StatusOK
	case "deprecated":
		*status = StatusDeprecated
	case "gone":
		*status = StatusGone
	default:
		return fmt.Errorf("invalid status (unmarshal, %+v)", string(text))
	}
	return nil
}

// String returns the textual form of the status.
func (status Status) String() string {
	text, err := status.MarshalText()
	if err != nil {
		return fmt.Sprintf("Status(%d)", int(status))
	}
	return string(text)
}

// MarshalText returns a string representing a precondition.
func (p Precondition) MarshalText() ([]byte, error) {
	switch p {
	case PreconditionETag:
		return []byte("etag"), nil
	case PreconditionLastModified:
		return []byte("last-modified"), nil
	default:
		return nil, fmt.Errorf("invalid precondition (marshal, %+v)", int(p))
	}
}

// UnmarshalText populates a precondition from a string.
func (p *Precondition) UnmarshalText(text []byte) error {
	switch string(text) {
	case "etag":
		*p = PreconditionETag
	case "last-modified":
		*p = PreconditionLastModified
	default:
		return fmt.Errorf("invalid precondition (unmarshal, %+v)", string(text))
	}
	return nil
}

// String returns the textual form of the precondition.
func (p Precondition) String() string {
	text, err := p.MarshalText()
	if err != nil {
		return fmt.Sprintf("Precondition(%d)", int(p))
	}
	return string(text)
}
