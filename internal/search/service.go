package search

import (
	"context"
	"encoding/json"

	"github.com/olivere/elastic/v7"

	lbryerrors "github.com/lbryio/lbry.go/v2/extras/errors"

	"github.com/openaleph/openaleph-search/internal/auth"
	"github.com/openaleph/openaleph-search/internal/executor"
	"github.com/openaleph/openaleph-search/internal/ftm"
	"github.com/openaleph/openaleph-search/internal/mapping"
	"github.com/openaleph/openaleph-search/internal/params"
	"github.com/openaleph/openaleph-search/internal/query"
	"github.com/openaleph/openaleph-search/internal/settings"
)

// Service ties the parameter parser, query builders and executor together
// into the request-level operations spec §4 describes, the layer a CLI or
// HTTP front-end (out of scope per spec §1) sits on top of.
type Service struct {
	Executor *executor.Executor
	Catalog  ftm.Catalog
	Settings *settings.Settings
	Cache    *Cache
}

// Result is the decoded, dehydrated response shape returned to callers.
type Result struct {
	Total        int64                    `json:"total"`
	Offset       int                      `json:"offset"`
	Limit        int                      `json:"limit"`
	Results      []map[string]interface{} `json:"results"`
	Facets       map[string]interface{}   `json:"facets,omitempty"`
	NextOffset   *int                     `json:"next_offset,omitempty"`
}

// Entities runs an EntitiesQuery (spec §4.4) for the given view, populating
// facets/significant-terms aggregations and applying dehydration.
func (s *Service) Entities(ctx context.Context, view *params.View, schemata []string, authField string, randomSamplerProbability map[string]float64) (*Result, error) {
	eq := query.NewEntitiesQuery(view, view.Auth, authField, s.Catalog, true, query.BucketBoostsFromSettings(s.Settings))
	src := s.buildSource(eq.Query(), eq.Sort(), view, authField, randomSamplerProbability)
	if postFilter := eq.PostFilter(); postFilter != nil {
		src = src.PostFilter(postFilter)
	}
	return s.run(ctx, schemata, view, src)
}

// MatchEntity runs a MatchQuery scoring candidates against a source entity
// (spec §4.5).
func (s *Service) MatchEntity(ctx context.Context, mq *query.MatchQuery, view *params.View, authField string) (*Result, error) {
	schemata, err := mq.MatchableSchemata()
	if err != nil {
		return nil, err
	}
	q, err := mq.Query()
	if err != nil {
		return nil, err
	}
	src := s.buildSource(q, nil, view, authField, nil)
	return s.run(ctx, schemata, view, src)
}

// MoreLikeThis runs a MoreLikeThisQuery (spec's supplemented §4.8 feature).
func (s *Service) MoreLikeThis(ctx context.Context, mlt *query.MoreLikeThisQuery, view *params.View, authField string) (*Result, error) {
	src := s.buildSource(mlt.Query(), nil, view, authField, nil)
	return s.run(ctx, []string{"Document", "Pages", "Page"}, view, src)
}

// NearbyAddresses runs a GeoDistanceQuery (spec's supplemented feature).
func (s *Service) NearbyAddresses(ctx context.Context, gq *query.GeoDistanceQuery, view *params.View, authField string) (*Result, error) {
	src := s.buildSource(gq.Query(), gq.Sort(), view, authField, nil)
	return s.run(ctx, []string{"Address"}, view, src)
}

func (s *Service) buildSource(q elastic.Query, sorters []elastic.Sorter, view *params.View, authField string, randomSamplerProbability map[string]float64) *elastic.SearchSource {
	src := elastic.NewSearchSource().Query(q).From(view.Offset).Size(view.Limit)
	if len(sorters) > 0 {
		src = src.SortBy(sorters...)
	}

	ab := &query.AggregationBuilder{
		View: view, Auth: view.Auth, AuthField: authField,
		Authenticated: view.Auth != nil, Settings: s.Settings,
		DateFields:                dateFieldsOf(s.Catalog),
		RandomSamplerProbability:  randomSamplerProbability,
	}
	for name, agg := range ab.Build() {
		src = src.Aggregation(name, agg)
	}

	if view.Highlight {
		block := query.HighlightBlock(s.Settings, query.HighlightOptions{
			Count: view.HighlightCount, MaxHighlightAnalyzedOffset: view.MaxHighlightAnalyzedOffset,
		}, nil)
		src = src.Highlight(rawHighlight(block))
	}

	fsc := elastic.NewFetchSourceContext(true).Exclude(mapping.SourceExcludes()...)
	if view.Dehydrate {
		fsc = fsc.Exclude(mapping.FieldProperties)
	}
	src = src.FetchSourceContext(fsc)
	return src
}

func rawHighlight(block query.Raw) *elastic.Highlight {
	h := elastic.NewHighlight()
	if fields, ok := block["fields"].(query.Raw); ok {
		for name, cfg := range fields {
			hf := elastic.NewHighlighterField(name)
			if raw, ok := cfg.(query.Raw); ok {
				if t, ok := raw["type"].(string); ok {
					hf = hf.HighlighterType(t)
				}
			}
			h = h.Field(hf)
		}
	}
	return h
}

func dateFieldsOf(catalog ftm.Catalog) map[string]bool {
	out := map[string]bool{}
	if catalog == nil {
		return out
	}
	for _, schema := range catalog.Schemata() {
		for _, prop := range schema.Properties {
			if prop.TypeGroup == ftm.GroupDate {
				out[prop.Name] = true
			}
		}
	}
	return out
}

func (s *Service) run(ctx context.Context, schemata []string, view *params.View, src *elastic.SearchSource) (*Result, error) {
	resp, err := s.Executor.Search(ctx, schemata, view.RoutingKey, src)
	if err != nil {
		return nil, lbryerrors.Err(err)
	}
	return s.decode(resp, view)
}

func (s *Service) decode(resp *elastic.SearchResult, view *params.View) (*Result, error) {
	out := &Result{Offset: view.Offset, Limit: view.Limit}
	if resp.Hits != nil && resp.Hits.TotalHits != nil {
		out.Total = resp.Hits.TotalHits.Value
	}
	if resp.Hits != nil {
		for _, hit := range resp.Hits.Hits {
			if hit.Source == nil {
				continue
			}
			var doc map[string]interface{}
			if err := json.Unmarshal(hit.Source, &doc); err != nil {
				return nil, lbryerrors.Err(err)
			}
			doc["id"] = hit.Id
			out.Results = append(out.Results, doc)
		}
	}
	out.Results = executor.Dehydrate(out.Results, view.Dehydrate)

	if len(resp.Aggregations) > 0 {
		facets := map[string]interface{}{}
		for name, raw := range resp.Aggregations {
			var v interface{}
			if err := json.Unmarshal(raw, &v); err == nil {
				facets[name] = v
			}
		}
		out.Facets = facets
	}

	if out.Total > int64(view.Offset+view.Limit) {
		next := view.Offset + view.NextLimit
		out.NextOffset = &next
	}
	return out, nil
}

// AuthField returns the field authorization is checked against, mirroring
// `auth.Field`.
func AuthField(openAlephMode bool) string {
	return auth.Field(openAlephMode)
}
