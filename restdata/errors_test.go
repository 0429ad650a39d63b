// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diffeo/go-jsonhome/registry"
	"github.com/diffeo/go-jsonhome/restdata"
)

func TestErrorResponseRoundTrip(t *testing.T) {
	for _, err := range []error{
		registry.ErrNoHref,
		registry.ErrNoSuchSource{Href: "http://example.com/home"},
		registry.ErrBadHref{Href: "ftp://example.com"},
		restdata.ErrMissingResources,
	} {
		resp := restdata.ErrorResponse{Error: "error", Message: err.Error()}
		resp.FromError(err)
		assert.Equal(t, err, resp.ToError())
	}
}

func TestErrorResponseUnwrapsNotFound(t *testing.T) {
	err := restdata.ErrNotFound{Err: registry.ErrNoSuchSource{Href: "http://x"}}
	resp := restdata.ErrorResponse{Error: "error", Message: err.Error()}
	resp.FromError(err)
	assert.Equal(t, "ErrNoSuchSource", resp.Error)
	assert.Equal(t, "http://x", resp.Value)
	assert.True(t, errors.As(err, new(registry.ErrNoSuchSource)))
}

func TestErrorResponseGeneric(t *testing.T) {
	resp := restdata.ErrorResponse{Error: "error", Message: "it broke"}
	resp.FromError(errors.New("it broke"))
	assert.EqualError(t, resp.ToError(), "it broke")
}

func TestErrorResponsePanic(t *testing.T) {
	resp := restdata.ErrorResponse{}
	resp.FromPanic("oops")
	assert.Equal(t, "panic", resp.Error)
	assert.Equal(t, "oops", resp.Message)
	assert.NotEmpty(t, resp.Stack)
}
