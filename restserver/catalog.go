// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"github.com/diffeo/go-jsonhome/jsonhome"
	"github.com/diffeo/go-jsonhome/restdata"
)

// CatalogGet returns the most recently aggregated catalog, in the
// negotiated variant.
func (api *restAPI) CatalogGet(ctx *context) (interface{}, error) {
	return restdata.FromJSONHome(api.Aggregator.Home(), ctx.ResponseType), nil
}

// HomeGet returns a directory of this service's own resources.
func (api *restAPI) HomeGet(ctx *context) (interface{}, error) {
	var root, sources, source, refresh string
	err := buildURLs(api.Router).
		URL(&root, "root").
		URL(&sources, "sources").
		Template(&source, "source", "source").
		URL(&refresh, "refresh").
		Error
	if err != nil {
		return nil, err
	}

	home, err := jsonhome.FromRoutes(ctx.BaseURL(),
		jsonhome.Route{
			RelationType: restdata.RelCatalog,
			Path:         root,
			Hints: jsonhome.NewHints().
				Allow("GET", "HEAD").
				Representations(restdata.DirectoryMediaType, restdata.JSONMediaType).
				Docs(jsonhome.Docs{Description: []string{
					"The merged directory of every registered source.",
				}}).
				Build(),
		},
		jsonhome.Route{
			RelationType: restdata.RelSources,
			Path:         sources,
			Hints: jsonhome.NewHints().
				Allow("GET", "POST").
				Representations(restdata.JSONMediaType).
				AcceptPost(restdata.JSONMediaType).
				Docs(jsonhome.Docs{Description: []string{
					"The registered directory sources.",
					"POST a source with a title and href to register it.",
				}}).
				Build(),
		},
		jsonhome.Route{
			RelationType: restdata.RelSource,
			Path:         source,
			Vars: []jsonhome.HrefVar{{
				Name:    "source",
				VarType: restdata.RelSource + "#source",
				Docs: jsonhome.Docs{Description: []string{
					"The source href, base64 encoded with the URL-safe alphabet and no padding.",
				}},
			}},
			Hints: jsonhome.NewHints().
				Allow("GET", "DELETE").
				Representations(restdata.JSONMediaType).
				Build(),
		},
		jsonhome.Route{
			RelationType: restdata.RelRefresh,
			Path:         refresh,
			Hints: jsonhome.NewHints().
				Allow("GET", "POST").
				Representations(restdata.JSONMediaType).
				Docs(jsonhome.Docs{Description: []string{
					"GET the outcome of the last aggregation cycle, or POST to run one now.",
				}}).
				Build(),
		},
	)
	if err != nil {
		return nil, err
	}
	return restdata.FromJSONHome(home, ctx.ResponseType), nil
}
