package executor

import (
	"context"
	"encoding/json"

	"github.com/olivere/elastic/v7"

	lbryerrors "github.com/lbryio/lbry.go/v2/extras/errors"
)

// MaxPage bounds the single-request size used by GetByIDs, mirroring
// `index/util.py: MAX_PAGE` (the original fetches all requested ids in one
// non-scrolled search).
const MaxPage = 9999

// GetByIDs fetches entities by id in one round-trip and returns them in
// the same order as `ids`, dropping any id that wasn't found -- the Go
// analogue of `index/entities.py: entities_by_ids`.
func (e *Executor) GetByIDs(ctx context.Context, schemata []string, ids []string, includes, excludes []string) ([]map[string]interface{}, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	indices := e.ReadIndices(schemata)
	src := elastic.NewSearchSource().
		Query(elastic.NewIdsQuery().Ids(ids...)).
		FetchSourceContext(elastic.NewFetchSourceContext(true).Include(includes...).Exclude(excludes...)).
		Size(MaxPage)

	result, err := e.Transport.Client().Search(indices...).SearchSource(src).Do(ctx)
	if err != nil {
		return nil, lbryerrors.Err(err)
	}

	byID := make(map[string]map[string]interface{}, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var doc map[string]interface{}
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, lbryerrors.Err(err)
		}
		doc["id"] = hit.Id
		byID[hit.Id] = doc
	}

	out := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

// GetByID fetches a single entity, or nil if it doesn't exist.
func (e *Executor) GetByID(ctx context.Context, schemata []string, id string, includes, excludes []string) (map[string]interface{}, error) {
	docs, err := e.GetByIDs(ctx, schemata, []string{id}, includes, excludes)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}
