package indexer

import (
	"context"
	"sync"

	"github.com/jasonlvhit/gocron"
	lbryerrors "github.com/lbryio/lbry.go/v2/extras/errors"
	"github.com/olivere/elastic/v7"
	"github.com/sirupsen/logrus"

	"github.com/openaleph/openaleph-search/internal/ftm"
	"github.com/openaleph/openaleph-search/internal/mapping"
)

// Sink accepts queued write actions; *Bulk is the production implementation,
// kept as an interface so Pipeline can be tested without a live cluster.
type Sink interface {
	Add(Action)
	Flush() error
}

// Pipeline runs the two-stage ingestion process spec §5 describes: a
// CPU-bound preprocessing worker pool that turns proxies into Documents,
// feeding a network-bound Bulk stage. Backpressure comes from the bounded
// input channel -- writers block once it fills, rather than buffering
// unboundedly in memory.
type Pipeline struct {
	Transformer *Transformer
	Bulk        Sink
	Concurrency int
}

// NewPipeline builds a Pipeline. Concurrency sizes the preprocessing
// worker pool (Settings.IndexerConcurrency).
func NewPipeline(t *Transformer, b Sink, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{Transformer: t, Bulk: b, Concurrency: concurrency}
}

// Run consumes proxies from `in` until it is closed, fans them out across
// Concurrency preprocessing workers, and queues the resulting Documents on
// the Bulk processor. It blocks until every proxy has been transformed and
// queued, then flushes the Bulk processor before returning.
func (p *Pipeline) Run(ctx context.Context, in <-chan *ftm.Proxy) error {
	var wg sync.WaitGroup
	for i := 0; i < p.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for proxy := range in {
				select {
				case <-ctx.Done():
					continue
				default:
				}
				doc := p.Transformer.Transform(proxy)
				if doc == nil {
					logrus.WithField("schema", proxy.Schema).Warn("skipping unindexable entity")
					continue
				}
				index := p.Transformer.Index(proxy.Schema)
				p.Bulk.Add(Action{Index: index, ID: docID(proxy), Doc: doc})
			}
		}()
	}
	wg.Wait()
	if ctx.Err() != nil {
		return lbryerrors.Err(ctx.Err())
	}
	return p.Bulk.Flush()
}

func docID(p *ftm.Proxy) string {
	return p.ID
}

// RunEntries is Run's counterpart for callers that carry optional
// ingestion-context timestamps (spec §9 AMBIENT STACK) alongside each
// proxy.
func (p *Pipeline) RunEntries(ctx context.Context, in <-chan *Entry) error {
	var wg sync.WaitGroup
	for i := 0; i < p.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range in {
				select {
				case <-ctx.Done():
					continue
				default:
				}
				doc := p.Transformer.TransformEntry(entry)
				if doc == nil {
					logrus.WithField("schema", entry.Proxy.Schema).Warn("skipping unindexable entity")
					continue
				}
				index := p.Transformer.Index(entry.Proxy.Schema)
				p.Bulk.Add(Action{Index: index, ID: docID(entry.Proxy), Doc: doc})
			}
		}()
	}
	wg.Wait()
	if ctx.Err() != nil {
		return lbryerrors.Err(ctx.Err())
	}
	return p.Bulk.Flush()
}

// IndexAdmin is the narrow slice of transport.Transport the pipeline needs
// to toggle the refresh interval around a bulk load.
type IndexAdmin interface {
	PutSettings(ctx context.Context, index string, body mapping.M) error
}

// DisableRefresh sets `refresh_interval` to -1 for the duration of a bulk
// load (spec §5), returning a restore function that puts the configured
// interval back.
func DisableRefresh(ctx context.Context, admin IndexAdmin, index, configuredInterval string) (restore func(context.Context) error, err error) {
	if err := admin.PutSettings(ctx, index, mapping.M{"index": mapping.M{"refresh_interval": "-1"}}); err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		return admin.PutSettings(ctx, index, mapping.M{"index": mapping.M{"refresh_interval": configuredInterval}})
	}, nil
}

// RefreshWatchdog runs a caller-supplied check on a gocron schedule
// (grounded on the teacher's `app/jobs/cron.go`) for the duration of a bulk
// load. It does not touch index settings itself; putting the configured
// refresh interval back is done by the function DisableRefresh returns.
type RefreshWatchdog struct {
	scheduler *gocron.Scheduler
	stop      chan bool
}

// StartRefreshWatchdog runs `check` every intervalMinutes minutes.
func StartRefreshWatchdog(intervalMinutes uint64, check func()) *RefreshWatchdog {
	s := gocron.NewScheduler()
	s.Every(intervalMinutes).Minutes().Do(check)
	return &RefreshWatchdog{scheduler: s, stop: s.Start()}
}

// Stop cancels the watchdog's schedule.
func (w *RefreshWatchdog) Stop() {
	w.scheduler.Clear()
	close(w.stop)
}

// DeleteDataset removes every document whose `dataset` field matches, via
// delete_by_query across the given indices (spec §4.5/§9's "delete a whole
// dataset" operation), the Go analogue of `index/entities.py:
// delete_entities` scoped by dataset rather than by id.
func DeleteDataset(ctx context.Context, client *elastic.Client, indices []string, dataset string) (int64, error) {
	if len(indices) == 0 {
		return 0, nil
	}
	q := elastic.NewTermQuery(mapping.FieldDataset, dataset)
	resp, err := client.DeleteByQuery(indices...).Query(q).Conflicts("proceed").Refresh("false").Do(ctx)
	if err != nil {
		return 0, lbryerrors.Err(err)
	}
	return resp.Deleted, nil
}
