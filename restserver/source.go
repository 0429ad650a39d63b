// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"github.com/diffeo/go-jsonhome/registry"
	"github.com/diffeo/go-jsonhome/restdata"
)

func (api *restAPI) fillSource(source registry.Source) (restdata.Source, error) {
	result := restdata.Source{Title: source.Title, Href: source.Href}
	err := buildURLs(api.Router, "source", restdata.SourceName(source.Href)).
		URL(&result.URL, "source").
		Error
	return result, err
}

// SourceList gets a list of all registered sources.
func (api *restAPI) SourceList(ctx *context) (interface{}, error) {
	sources, err := api.Registry.List()
	if err != nil {
		return nil, err
	}
	result := restdata.SourceList{Sources: []restdata.Source{}}
	for _, source := range sources {
		data, err := api.fillSource(source)
		if err != nil {
			return nil, err
		}
		result.Sources = append(result.Sources, data)
	}
	return result, nil
}

// SourcePost registers a new source, or changes the title of an
// existing one.
func (api *restAPI) SourcePost(ctx *context, in interface{}) (interface{}, error) {
	req, valid := in.(restdata.Source)
	if !valid {
		return nil, errUnmarshal
	}
	source := registry.Source{Title: req.Title, Href: req.Href}
	err := api.Registry.Put(source)
	switch err.(type) {
	case nil:
	case registry.ErrBadHref:
		return nil, restdata.ErrBadRequest{Err: err}
	default:
		if err == registry.ErrNoHref {
			return nil, restdata.ErrBadRequest{Err: err}
		}
		return nil, err
	}
	result, err := api.fillSource(source)
	if err != nil {
		return nil, err
	}
	return responseCreated{
		Location: result.URL,
		Body:     result,
	}, nil
}

// SourceGet returns a single source.
func (api *restAPI) SourceGet(ctx *context) (interface{}, error) {
	// If we've gotten here, we're just returning ctx.Source
	return api.fillSource(*ctx.Source)
}

// SourceDelete unregisters a source.  Its resources remain in the
// catalog until the next aggregation cycle.
func (api *restAPI) SourceDelete(ctx *context) (interface{}, error) {
	err := api.Registry.Remove(ctx.Source.Href)
	if _, missing := err.(registry.ErrNoSuchSource); missing {
		err = restdata.ErrNotFound{Err: err}
	}
	return nil, err
}
