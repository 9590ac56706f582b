package executor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaleph/openaleph-search/internal/transport"
)

func TestScanYieldsEveryHitAcrossScrollPages(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			fmt.Fprint(w, `{
				"_scroll_id": "scroll-1",
				"took": 1, "timed_out": false,
				"_shards": {"total": 1, "successful": 1, "skipped": 0, "failed": 0},
				"hits": {
					"total": {"value": 1, "relation": "eq"},
					"max_score": 1.0,
					"hits": [{"_index": "openaleph-entity-things-v1", "_id": "a", "_score": 1.0, "_source": {"schema": "Person"}}]
				}
			}`)
			return
		}
		fmt.Fprint(w, `{
			"_scroll_id": "scroll-1",
			"took": 1, "timed_out": false,
			"_shards": {"total": 1, "successful": 1, "skipped": 0, "failed": 0},
			"hits": {"total": {"value": 1, "relation": "eq"}, "max_score": null, "hits": []}
		}`)
	}))
	defer srv.Close()

	tr, err := transport.NewFromHTTPClient(srv.URL, srv.Client())
	require.NoError(t, err)

	e := New(tr, catalog(), "openaleph", []string{"v1"}, "v1")

	var seen []map[string]interface{}
	err = e.Scan(context.Background(), ScanOptions{}, func(doc map[string]interface{}) error {
		seen = append(seen, doc)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, "Person", seen[0]["schema"])
}

func TestScanPropagatesYieldError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"_scroll_id": "scroll-1",
			"took": 1, "timed_out": false,
			"_shards": {"total": 1, "successful": 1, "skipped": 0, "failed": 0},
			"hits": {
				"total": {"value": 1, "relation": "eq"},
				"max_score": 1.0,
				"hits": [{"_index": "openaleph-entity-things-v1", "_id": "a", "_score": 1.0, "_source": {"schema": "Person"}}]
			}
		}`)
	}))
	defer srv.Close()

	tr, err := transport.NewFromHTTPClient(srv.URL, srv.Client())
	require.NoError(t, err)

	e := New(tr, catalog(), "openaleph", []string{"v1"}, "v1")

	boom := fmt.Errorf("boom")
	err = e.Scan(context.Background(), ScanOptions{}, func(doc map[string]interface{}) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
