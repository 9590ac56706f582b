package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Transport, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	tr, err := NewFromHTTPClient(srv.URL, srv.Client())
	require.NoError(t, err)
	return tr, srv.Close
}

func TestTransportExistsTrue(t *testing.T) {
	tr, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/openaleph-entity-things-v1" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer closeFn()

	exists, err := tr.Exists(context.Background(), "openaleph-entity-things-v1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTransportExistsFalse(t *testing.T) {
	tr, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer closeFn()

	exists, err := tr.Exists(context.Background(), "missing-index")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTransportCreateSendsSettingsAndMappings(t *testing.T) {
	var gotPath, gotMethod string
	tr, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"acknowledged":true,"shards_acknowledged":true,"index":"openaleph-entity-things-v1"}`)
	})
	defer closeFn()

	err := tr.Create(context.Background(), "openaleph-entity-things-v1", map[string]interface{}{"index": map[string]interface{}{"number_of_shards": 1}}, map[string]interface{}{"properties": map[string]interface{}{}})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/openaleph-entity-things-v1", gotPath)
}

func TestTransportDeleteIndex(t *testing.T) {
	var gotMethod string
	tr, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"acknowledged":true}`)
	})
	defer closeFn()

	err := tr.DeleteIndex(context.Background(), "openaleph-entity-things-v1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestTransportGetDecodesSettingsAndMappings(t *testing.T) {
	tr, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"openaleph-entity-things-v1":{"settings":{"index":{"number_of_shards":"5"}},"mappings":{"properties":{"id":{"type":"keyword"}}}}}`)
	})
	defer closeFn()

	settingsDoc, mappingsDoc, err := tr.Get(context.Background(), "openaleph-entity-things-v1")
	require.NoError(t, err)
	assert.NotNil(t, settingsDoc["index"])
	assert.NotNil(t, mappingsDoc["properties"])
}

func TestTransportCloseAndOpen(t *testing.T) {
	var methods []string
	tr, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"acknowledged":true}`)
	})
	defer closeFn()

	require.NoError(t, tr.Close(context.Background(), "idx"))
	require.NoError(t, tr.Open(context.Background(), "idx"))
	assert.Contains(t, methods, http.MethodPost+" /idx/_close")
	assert.Contains(t, methods, http.MethodPost+" /idx/_open")
}

func TestTransportPutSettingsAndPutMapping(t *testing.T) {
	var paths []string
	tr, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"acknowledged":true}`)
	})
	defer closeFn()

	require.NoError(t, tr.PutSettings(context.Background(), "idx", map[string]interface{}{"index": map[string]interface{}{"refresh_interval": "-1"}}))
	require.NoError(t, tr.PutMapping(context.Background(), "idx", map[string]interface{}{"properties": map[string]interface{}{}}))
	assert.Contains(t, paths, "/idx/_settings")
	assert.Contains(t, paths, "/idx/_mapping")
}

func TestTransportRefresh(t *testing.T) {
	var gotPath string
	tr, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"_shards":{"total":1,"successful":1,"failed":0}}`)
	})
	defer closeFn()

	require.NoError(t, tr.Refresh(context.Background(), "idx"))
	assert.Equal(t, "/idx/_refresh", gotPath)
}
