package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	lbryerrors "github.com/lbryio/lbry.go/v2/extras/errors"
	"github.com/lbryio/lbry.go/v2/extras/null"

	"github.com/openaleph/openaleph-search/internal/bucket"
	"github.com/openaleph/openaleph-search/internal/executor"
	"github.com/openaleph/openaleph-search/internal/ftm"
	"github.com/openaleph/openaleph-search/internal/indexer"
	"github.com/openaleph/openaleph-search/internal/params"
	"github.com/openaleph/openaleph-search/internal/search"
	"github.com/openaleph/openaleph-search/internal/settings"
	"github.com/openaleph/openaleph-search/internal/transport"
)

func init() {
	formatEntitiesCmd.Flags().StringP("dataset", "d", "", "dataset name applied to entities that don't carry one")
	formatEntitiesCmd.Flags().StringP("input", "i", "-", "path to a JSONL/JSON-stream file of ingest entities, or - for stdin")
	rootCmd.AddCommand(formatEntitiesCmd)

	indexEntitiesCmd.Flags().StringP("dataset", "d", "", "dataset name applied to entities that don't carry one")
	indexEntitiesCmd.Flags().StringP("input", "i", "-", "path to a JSONL/JSON-stream file of ingest entities, or - for stdin")
	rootCmd.AddCommand(indexEntitiesCmd)

	indexActionsCmd.Flags().StringP("input", "i", "-", "path to a JSONL/JSON-stream file of pre-built bulk actions, or - for stdin")
	rootCmd.AddCommand(indexActionsCmd)

	dumpActionsCmd.Flags().String("args", "", "additional URL-style query parameters scoping the dump")
	rootCmd.AddCommand(dumpActionsCmd)

	analyzeCmd.Flags().String("field", "", "facet field to aggregate")
	analyzeCmd.Flags().String("schema", "", "restrict the aggregation to one schema")
	analyzeCmd.MarkFlagRequired("field")
	rootCmd.AddCommand(analyzeCmd)
}

// ingestEntity is the JSON shape spec §6 documents for entity ingestion:
// `{id, schema, properties, dataset, collection_id?, context?}`.
type ingestEntity struct {
	ID           string              `json:"id"`
	Schema       string              `json:"schema"`
	Properties   map[string][]string `json:"properties"`
	Dataset      string              `json:"dataset"`
	CollectionID string              `json:"collection_id"`
	Context      *ingestContext      `json:"context"`
}

type ingestContext struct {
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
	FirstSeen string   `json:"first_seen"`
	LastSeen  string   `json:"last_seen"`
	Referents []string `json:"referents"`
	Origin    string   `json:"origin"`
}

func parseTimeField(s string) null.Time {
	if s == "" {
		return null.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		logrus.WithError(err).WithField("value", s).Warn("ignoring unparseable timestamp")
		return null.Time{}
	}
	return null.TimeFrom(t)
}

// toEntry maps one decoded ingestEntity onto an indexer.Entry.
func (e ingestEntity) toEntry() *indexer.Entry {
	entry := &indexer.Entry{
		Proxy: &ftm.Proxy{
			ID:           e.ID,
			Schema:       e.Schema,
			Properties:   e.Properties,
			Dataset:      e.Dataset,
			CollectionID: e.CollectionID,
		},
	}
	if e.Context != nil {
		entry.CreatedAt = parseTimeField(e.Context.CreatedAt)
		entry.UpdatedAt = parseTimeField(e.Context.UpdatedAt)
		entry.FirstSeen = parseTimeField(e.Context.FirstSeen)
		entry.LastSeen = parseTimeField(e.Context.LastSeen)
		if e.Context.Origin != "" {
			entry.Origin = null.StringFrom(e.Context.Origin)
		}
		entry.Referents = e.Context.Referents
	}
	return entry
}

// openInput opens path for reading, treating "-" or "" as stdin. The
// returned closer is a no-op for stdin so callers can always defer Close.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, lbryerrors.Err(err)
	}
	return f, nil
}

// decodeEntities streams ingestEntity values from r, calling fn for each.
// A json.Decoder handles both line-delimited and whitespace-separated JSON
// streams, so callers don't have to care which one a file was written as.
func decodeEntities(r io.Reader, fn func(ingestEntity) error) error {
	dec := json.NewDecoder(r)
	for dec.More() {
		var raw ingestEntity
		if err := dec.Decode(&raw); err != nil {
			return lbryerrors.Err(err)
		}
		if err := fn(raw); err != nil {
			return err
		}
	}
	return nil
}

// bootstrapOffline builds the pieces format-entities needs without dialing
// the cluster: a Catalog and SymbolTable are pure, local lookups, so the
// dry-run transform path never requires a live Transport.
func bootstrapOffline() (*settings.Settings, *indexer.Transformer, error) {
	s, err := settings.NewFromEnv()
	if err != nil {
		return nil, nil, err
	}
	catalog := ftm.NewMapCatalog(ftm.BuiltinSchemata())
	t := &indexer.Transformer{
		Catalog:     catalog,
		SymbolTable: symbolTable(),
		IndexPrefix: s.IndexPrefix,
		IndexWrite:  s.IndexWrite,
	}
	return s, t, nil
}

// formatEntitiesCmd is a dry run of the transform stage: it prints the
// Document each input entity would become, without touching the cluster.
var formatEntitiesCmd = &cobra.Command{
	Use:   "format-entities -d DS -i FILE",
	Short: "Transform entities to indexable documents and print them, without writing",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataset, _ := cmd.Flags().GetString("dataset")
		path, _ := cmd.Flags().GetString("input")

		_, transformer, err := bootstrapOffline()
		if err != nil {
			return err
		}

		f, err := openInput(path)
		if err != nil {
			return err
		}
		defer f.Close()

		enc := json.NewEncoder(os.Stdout)
		return decodeEntities(f, func(raw ingestEntity) error {
			if raw.Dataset == "" {
				raw.Dataset = dataset
			}
			doc := transformer.TransformEntry(raw.toEntry())
			if doc == nil {
				logrus.WithField("schema", raw.Schema).Warn("skipping unindexable entity")
				return nil
			}
			return enc.Encode(doc)
		})
	},
}

// indexEntitiesCmd runs the full ingestion pipeline: transform, then bulk
// submit, with refresh disabled for the duration of the load and a
// per-dataset checkpoint so an interrupted load can resume.
var indexEntitiesCmd = &cobra.Command{
	Use:   "index-entities -d DS -i FILE",
	Short: "Transform and bulk-index entities from a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataset, _ := cmd.Flags().GetString("dataset")
		path, _ := cmd.Flags().GetString("input")

		s, _, ex, tr, err := bootstrap()
		if err != nil {
			return err
		}
		return indexEntities(cmdContext(), s, tr, ex, dataset, path)
	},
}

func indexEntities(ctx context.Context, s *settings.Settings, tr *transport.Transport, ex *executor.Executor, dataset, path string) error {
	transformer := &indexer.Transformer{
		Catalog:     ex.Catalog,
		SymbolTable: symbolTable(),
		IndexPrefix: s.IndexPrefix,
		IndexWrite:  s.IndexWrite,
	}

	bulk, err := indexer.NewBulk(ctx, tr, s.IndexerConcurrency, s.IndexerChunkSize, s.IndexerMaxChunkBytes, s.IndexerMaxRetries)
	if err != nil {
		return err
	}
	defer bulk.Close()

	restores := make([]func(context.Context) error, 0, len(bucket.All))
	for _, b := range bucket.All {
		index := bucket.IndexName(s.IndexPrefix, b, s.IndexWrite)
		restore, err := indexer.DisableRefresh(ctx, tr, index, s.IndexRefreshInterval)
		if err != nil {
			return err
		}
		restores = append(restores, restore)
	}
	defer func() {
		for _, restore := range restores {
			if err := restore(context.Background()); err != nil {
				logrus.WithError(err).Warn("failed to restore refresh interval")
			}
		}
	}()

	watchdog := indexer.StartRefreshWatchdog(5, func() {
		logrus.Debug("refresh watchdog tick")
	})
	defer watchdog.Stop()

	checkpoint, err := indexer.LoadCheckpoint(dataset)
	if err != nil {
		return err
	}

	f, err := openInput(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pipeline := indexer.NewPipeline(transformer, bulk, s.IndexerConcurrency)
	in := make(chan *indexer.Entry, s.IndexerChunkSize)
	pipelineErr := make(chan error, 1)
	go func() {
		pipelineErr <- pipeline.RunEntries(ctx, in)
	}()

	skipping := checkpoint.LastID != ""
	count := 0
	decodeErr := decodeEntities(f, func(raw ingestEntity) error {
		if raw.Dataset == "" {
			raw.Dataset = dataset
		}
		entry := raw.toEntry()
		if skipping {
			if entry.Proxy.ID == checkpoint.LastID {
				skipping = false
			}
			return nil
		}
		select {
		case in <- entry:
		case <-ctx.Done():
			return ctx.Err()
		}
		checkpoint.LastID = entry.Proxy.ID
		count++
		if count%1000 == 0 {
			if err := checkpoint.Save(); err != nil {
				logrus.WithError(err).Warn("checkpoint save failed")
			}
		}
		return nil
	})
	close(in)
	if err := <-pipelineErr; err != nil {
		return err
	}
	if decodeErr != nil {
		return decodeErr
	}
	logrus.Infof("indexed %d entities for dataset %s", count, dataset)
	return checkpoint.Save()
}

// bulkAction is a pre-built `_bulk` action, the output shape dump-actions
// produces and index-actions consumes directly without re-running the
// transform stage.
type bulkAction struct {
	Index  string                 `json:"_index"`
	ID     string                 `json:"_id"`
	Source map[string]interface{} `json:"_source"`
}

var indexActionsCmd = &cobra.Command{
	Use:   "index-actions -i FILE",
	Short: "Bulk-submit pre-built index actions from a file, skipping the transform stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("input")
		s, _, _, tr, err := bootstrap()
		if err != nil {
			return err
		}
		return indexActions(cmdContext(), s, tr, path)
	},
}

func indexActions(ctx context.Context, s *settings.Settings, tr *transport.Transport, path string) error {
	bulk, err := indexer.NewBulk(ctx, tr, s.IndexerConcurrency, s.IndexerChunkSize, s.IndexerMaxChunkBytes, s.IndexerMaxRetries)
	if err != nil {
		return err
	}
	defer bulk.Close()

	f, err := openInput(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	count := 0
	for dec.More() {
		var a bulkAction
		if err := dec.Decode(&a); err != nil {
			return lbryerrors.Err(err)
		}
		bulk.Add(indexer.Action{Index: a.Index, ID: a.ID, Doc: indexer.Document(a.Source)})
		count++
	}
	if err := bulk.Flush(); err != nil {
		return err
	}
	logrus.Infof("submitted %d pre-built actions", count)
	return nil
}

var dumpActionsCmd = &cobra.Command{
	Use:   "dump-actions --args URL",
	Short: "Scan every matching entity and print it as a bulk action, the inverse of index-actions",
	RunE: func(cmd *cobra.Command, args []string) error {
		argsFlag, _ := cmd.Flags().GetString("args")
		pairs, err := params.ParseQueryString(argsFlag)
		if err != nil {
			return err
		}
		s, _, ex, _, err := bootstrap()
		if err != nil {
			return err
		}
		view, err := params.Parse(pairs, params.Options{OpenAlephMode: s.OpenAlephMode, DefaultLimit: 20})
		if err != nil {
			return err
		}
		return dumpActions(cmdContext(), ex, s, view)
	},
}

func dumpActions(ctx context.Context, ex *executor.Executor, s *settings.Settings, view *params.View) error {
	enc := json.NewEncoder(os.Stdout)
	opts := executor.ScanOptions{
		Schemata:  schemataFilter(view),
		AuthField: search.AuthField(s.OpenAlephMode),
		Datasets:  view.Datasets,
	}
	count := 0
	err := ex.Scan(ctx, opts, func(doc map[string]interface{}) error {
		id, _ := doc["id"].(string)
		schemaName, _ := doc["schema"].(string)
		action := bulkAction{
			Index:  bucket.IndexName(s.IndexPrefix, bucket.ForSchema(ex.Catalog, schemaName), s.IndexWrite),
			ID:     id,
			Source: doc,
		}
		count++
		return enc.Encode(action)
	})
	if err != nil {
		return err
	}
	logrus.Infof("dumped %d actions", count)
	return nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze --field F [--schema S]",
	Short: "Run a facet aggregation on one field and print its buckets",
	RunE: func(cmd *cobra.Command, args []string) error {
		field, _ := cmd.Flags().GetString("field")
		schema, _ := cmd.Flags().GetString("schema")

		s, svc, _, _, err := bootstrap()
		if err != nil {
			return err
		}
		view := &params.View{
			Limit:  0,
			Facets: []params.FacetConfig{{Field: field}},
		}
		var schemata []string
		if schema != "" {
			schemata = []string{schema}
			view.Filters = map[string][]string{"schema": schemata}
		}
		authField := search.AuthField(s.OpenAlephMode)
		result, err := svc.Entities(cmdContext(), view, schemata, authField, nil)
		if err != nil {
			return err
		}
		body, err := json.MarshalIndent(result.Facets, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(body))
		return nil
	},
}
