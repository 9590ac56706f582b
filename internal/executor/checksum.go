package executor

import (
	"context"

	"github.com/olivere/elastic/v7"

	lbryerrors "github.com/lbryio/lbry.go/v2/extras/errors"
)

// checksumSchemata names the schemata that carry a checksum-typed
// property, matching `model.get_type_schemata(registry.checksum)`'s role
// in the original -- restricted here to the documents/pages buckets since
// that's where this repo's builtin catalog places checksum-bearing
// schemata (Document, Pages).
var checksumSchemata = []string{"Document", "Pages"}

// ChecksumCounts runs one `_msearch` request counting how many documents
// reference each checksum, the Go analogue of `index/entities.py:
// checksums_count`.
func (e *Executor) ChecksumCounts(ctx context.Context, checksums []string) (map[string]int64, error) {
	if len(checksums) == 0 {
		return nil, nil
	}
	indices := e.ReadIndices(checksumSchemata)

	msearch := e.Transport.Client().MultiSearch()
	for _, checksum := range checksums {
		src := elastic.NewSearchSource().
			Query(elastic.NewTermQuery("checksums", checksum)).
			Size(0)
		req := elastic.NewSearchRequest().Index(indices...).SearchSource(src)
		msearch = msearch.Add(req)
	}

	resp, err := msearch.Do(ctx)
	if err != nil {
		return nil, lbryerrors.Err(err)
	}

	out := make(map[string]int64, len(checksums))
	for i, checksum := range checksums {
		if i >= len(resp.Responses) {
			break
		}
		r := resp.Responses[i]
		if r.Hits != nil && r.Hits.TotalHits != nil {
			out[checksum] = r.Hits.TotalHits.Value
		}
	}
	return out, nil
}
