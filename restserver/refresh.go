// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"errors"

	"github.com/diffeo/go-jsonhome/aggregator"
	"github.com/diffeo/go-jsonhome/restclient"
	"github.com/diffeo/go-jsonhome/restdata"
)

// errNoCycle is returned from GET /refresh before any aggregation
// cycle has finished.
var errNoCycle = restdata.ErrNotFound{Err: errors.New("No aggregation cycle has completed")}

func resultData(result *aggregator.Result) restdata.RefreshResult {
	data := restdata.RefreshResult{
		Cycle:     result.Cycle.String(),
		Resources: result.Home.Len(),
		Outcomes:  make([]restdata.Outcome, len(result.Outcomes)),
	}
	for i, outcome := range result.Outcomes {
		data.Outcomes[i] = restdata.Outcome{
			Title:     outcome.Source.Title,
			Href:      outcome.Source.Href,
			State:     outcome.State.String(),
			Attempts:  outcome.Attempts,
			Resources: outcome.Resources,
		}
		if outcome.Err != nil {
			data.Outcomes[i].Error = outcome.Err.Error()
		}
	}
	for _, collision := range result.Collisions {
		data.Collisions = append(data.Collisions, collision.Error())
	}
	return data
}

// RefreshGet reports the outcome of the most recent aggregation cycle.
func (api *restAPI) RefreshGet(ctx *context) (interface{}, error) {
	result := api.Aggregator.Current()
	if result == nil {
		return nil, errNoCycle
	}
	return resultData(result), nil
}

// RefreshPost runs an aggregation cycle now and reports its outcome.
func (api *restAPI) RefreshPost(ctx *context, in interface{}) (interface{}, error) {
	result, err := api.Aggregator.RefreshFrom(ctx.Request.Context(), api.Registry)
	if errors.Is(err, restclient.ErrClientClosed) {
		return nil, errUnavailable{Err: err}
	}
	if err != nil {
		return nil, err
	}
	return resultData(result), nil
}
