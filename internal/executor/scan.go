package executor

import (
	"context"
	"encoding/json"
	"io"

	"github.com/olivere/elastic/v7"

	lbryerrors "github.com/lbryio/lbry.go/v2/extras/errors"

	"github.com/openaleph/openaleph-search/internal/auth"
	"github.com/openaleph/openaleph-search/internal/query"
)

// ScanOptions configures Scan (spec §4.9, grounded on `index/entities.py:
// iter_entities`'s scroll parameters). Datasets carries the
// already-authorization-intersected allow-list, the same value
// params.View.Datasets/CollectionIDs computed for any other query builder.
type ScanOptions struct {
	Schemata      []string
	CollectionID  string
	Auth          *auth.Authorization
	AuthField     string
	Datasets      []string
	Filter        elastic.Query
	Sort          []elastic.Sorter
	Includes      []string
	Excludes      []string
	ScrollSize    int
	ScrollTimeout string
}

func (o ScanOptions) withDefaults() ScanOptions {
	if o.ScrollSize <= 0 {
		o.ScrollSize = 1000
	}
	if o.ScrollTimeout == "" {
		o.ScrollTimeout = "5m"
	}
	return o
}

// Scan iterates every entity matching the given criteria via ES's scroll
// API, calling `yield` for each decoded `_source` document. It stops and
// returns the first error from either the cluster or `yield` (the Go
// analogue of `index/entities.py: iter_entities`'s generator).
func (e *Executor) Scan(ctx context.Context, opts ScanOptions, yield func(doc map[string]interface{}) error) error {
	opts = opts.withDefaults()

	b := elastic.NewBoolQuery()
	if opts.Filter != nil {
		b.Filter(opts.Filter)
	}
	if opts.CollectionID != "" {
		b.Filter(elastic.NewTermQuery("collection_id", opts.CollectionID))
	}
	if opts.Auth != nil || len(opts.Datasets) > 0 {
		b.Filter(query.DatasetsFilter(opts.Auth, opts.AuthField, opts.Datasets))
	}

	src := elastic.NewSearchSource().Query(b).FetchSourceContext(
		elastic.NewFetchSourceContext(true).Include(opts.Includes...).Exclude(opts.Excludes...))
	if len(opts.Sort) > 0 {
		src = src.SortBy(opts.Sort...)
	}

	indices := e.ReadIndices(opts.Schemata)
	scroller := e.Transport.Client().Scroll(indices...).
		SearchSource(src).
		Size(opts.ScrollSize).
		Scroll(opts.ScrollTimeout)

	for {
		result, err := scroller.Do(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return lbryerrors.Err(err)
		}
		for _, hit := range result.Hits.Hits {
			var doc map[string]interface{}
			if err := json.Unmarshal(hit.Source, &doc); err != nil {
				return lbryerrors.Err(err)
			}
			if err := yield(doc); err != nil {
				return err
			}
		}
		if len(result.Hits.Hits) == 0 {
			return nil
		}
	}
}
