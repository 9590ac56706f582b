package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	lbryerrors "github.com/lbryio/lbry.go/v2/extras/errors"

	"github.com/openaleph/openaleph-search/internal/bucket"
	"github.com/openaleph/openaleph-search/internal/ftm"
	"github.com/openaleph/openaleph-search/internal/mapping"
	"github.com/openaleph/openaleph-search/internal/settings"
	"github.com/openaleph/openaleph-search/internal/transport"
)

func init() {
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(resetCmd)
}

// upgradeCmd creates any missing per-bucket index and brings existing ones'
// mappings (and, when needed, settings) up to date in place, the CLI
// analogue of `index/util.py: upgrade_search`.
var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Create missing indices and bring existing mappings up to date",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, ex, tr, err := bootstrap()
		if err != nil {
			return err
		}
		return upgradeIndices(cmdContext(), tr, ex.Catalog, s)
	},
}

// resetCmd drops every bucket index outright, the CLI analogue of
// `index/util.py: delete_index`. Destructive; intended for test/dev
// environments, not called against a production cluster from automation.
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every bucket index (destructive)",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, tr, err := bootstrap()
		if err != nil {
			return err
		}
		return resetIndices(cmdContext(), tr, s)
	},
}

func upgradeIndices(ctx context.Context, admin mapping.IndicesAdmin, catalog ftm.Catalog, s *settings.Settings) error {
	for _, b := range bucket.All {
		index := bucket.IndexName(s.IndexPrefix, b, s.IndexWrite)
		newMapping := mapping.BuildBucketMapping(catalog, b, s.ContentTermVectors)
		newSettings := mapping.IndexSettings(b, s.IndexShards, s.IndexReplicas, s.IndexRefreshInterval, s.Testing)
		logrus.Infof("upgrading %s", index)
		if err := mapping.ConfigureIndex(ctx, admin, index, newMapping, newSettings); err != nil {
			return lbryerrors.Err(err)
		}
	}
	return nil
}

func resetIndices(ctx context.Context, tr *transport.Transport, s *settings.Settings) error {
	for _, b := range bucket.All {
		index := bucket.IndexName(s.IndexPrefix, b, s.IndexWrite)
		exists, err := tr.Exists(ctx, index)
		if err != nil {
			return lbryerrors.Err(err)
		}
		if !exists {
			continue
		}
		logrus.Infof("deleting %s", index)
		if err := tr.DeleteIndex(ctx, index); err != nil {
			return lbryerrors.Err(err)
		}
	}
	return nil
}
