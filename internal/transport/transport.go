// Package transport wraps the `olivere/elastic/v7` client the rest of the
// search core talks to, the Go analogue of the teacher's `app/es/es.go`
// (`Client *elastic.Client`) and `app/app.go: initElasticSearch`. It is the
// only package that constructs an `elastic.Client`. The executor and indexer
// packages reach that client through `Transport.Client()` for search,
// scroll, msearch and bulk calls; index administration goes through the
// narrow `mapping.IndicesAdmin` interface this package implements, and
// query building depends only on `elastic.Query`/`elastic.Aggregation`
// (I/O-free).
package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/olivere/elastic/v7"
	"github.com/sirupsen/logrus"

	lbryerrors "github.com/lbryio/lbry.go/v2/extras/errors"

	"github.com/openaleph/openaleph-search/internal/mapping"
	"github.com/openaleph/openaleph-search/internal/settings"
)

// Transport is the thin ES client wrapper the executor/indexer packages
// consume. It keeps `*elastic.Client` out of their signatures so they stay
// testable against fakes.
type Transport struct {
	client *elastic.Client
}

// New dials an elastic.Client per the given settings, mirroring
// `app/app.go: initElasticSearch`'s option assembly (error/info/trace
// logging via logrus, explicit URL override, sniffing and health checks
// left on the client default unless Settings.Testing turns both off).
func New(ctx context.Context, s *settings.Settings) (*Transport, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetErrorLog(logrus.StandardLogger()),
		elastic.SetURL(s.URI),
		elastic.SetHealthcheckTimeoutStartup(10 * time.Second),
	}
	if logrus.GetLevel() >= logrus.DebugLevel {
		opts = append(opts, elastic.SetInfoLog(logrus.StandardLogger()))
		opts = append(opts, elastic.SetTraceLog(logrus.StandardLogger()))
	}
	if s.Testing {
		opts = append(opts, elastic.SetSniff(false), elastic.SetHealthcheck(false))
	}

	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, lbryerrors.Err(err)
	}
	return &Transport{client: client}, nil
}

// NewFromHTTPClient builds a Transport against a caller-supplied
// *http.Client, used by tests that point at an httptest.Server instead of a
// live cluster.
func NewFromHTTPClient(url string, httpClient *http.Client) (*Transport, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetHttpClient(httpClient),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, lbryerrors.Err(err)
	}
	return &Transport{client: client}, nil
}

// Client exposes the underlying elastic.Client for the executor/indexer
// packages, which need the full query/bulk/scroll surface this package
// doesn't narrow down.
func (t *Transport) Client() *elastic.Client {
	return t.client
}

var _ mapping.IndicesAdmin = (*Transport)(nil)

// Exists reports whether an index already exists.
func (t *Transport) Exists(ctx context.Context, index string) (bool, error) {
	ok, err := t.client.IndexExists(index).Do(ctx)
	return ok, lbryerrors.Err(err)
}

// Get fetches an existing index's settings and mapping documents.
func (t *Transport) Get(ctx context.Context, index string) (settingsDoc, mappingsDoc mapping.M, err error) {
	resp, err := t.client.IndexGet(index).Do(ctx)
	if err != nil {
		return nil, nil, lbryerrors.Err(err)
	}
	info, ok := resp[index]
	if !ok {
		return nil, nil, lbryerrors.Err(lbryerrors.Base("transport: index %q missing from IndexGet response", index))
	}
	settingsDoc = toM(info.Settings)
	mappingsDoc = toM(info.Mappings)
	return settingsDoc, mappingsDoc, nil
}

// Close closes an index so its settings can be changed in place.
func (t *Transport) Close(ctx context.Context, index string) error {
	_, err := t.client.CloseIndex(index).Do(ctx)
	return lbryerrors.Err(err)
}

// Open reopens an index after a settings change.
func (t *Transport) Open(ctx context.Context, index string) error {
	_, err := t.client.OpenIndex(index).Do(ctx)
	return lbryerrors.Err(err)
}

// PutSettings applies a settings document to an (already closed) index.
func (t *Transport) PutSettings(ctx context.Context, index string, body mapping.M) error {
	_, err := t.client.IndexPutSettings(index).BodyJson(map[string]interface{}(body)).Do(ctx)
	return lbryerrors.Err(err)
}

// PutMapping applies a mapping document to an index.
func (t *Transport) PutMapping(ctx context.Context, index string, body mapping.M) error {
	_, err := t.client.PutMapping().Index(index).BodyJson(map[string]interface{}(body)).Do(ctx)
	return lbryerrors.Err(err)
}

// Create creates a brand new index with the given settings+mapping body,
// the Go analogue of `app/app.go: initElasticSearch`'s
// `CreateIndex(...).BodyString(index.ClaimMapping)` call.
func (t *Transport) Create(ctx context.Context, index string, settingsDoc, mappingsDoc mapping.M) error {
	body := map[string]interface{}{
		"settings": map[string]interface{}(settingsDoc),
		"mappings": map[string]interface{}(mappingsDoc),
	}
	_, err := t.client.CreateIndex(index).BodyJson(body).Do(ctx)
	return lbryerrors.Err(err)
}

// DeleteIndex drops an index outright, used by the `reset` CLI command.
func (t *Transport) DeleteIndex(ctx context.Context, index string) error {
	_, err := t.client.DeleteIndex(index).Do(ctx)
	return lbryerrors.Err(err)
}

// Refresh forces a refresh on one or more indices, used after a settings
// round-trip and by tests that need freshly-indexed documents to become
// searchable immediately.
func (t *Transport) Refresh(ctx context.Context, indices ...string) error {
	_, err := t.client.Refresh(indices...).Do(ctx)
	return lbryerrors.Err(err)
}

func toM(v interface{}) mapping.M {
	m, ok := v.(map[string]interface{})
	if !ok {
		return mapping.M{}
	}
	return mapping.M(m)
}
