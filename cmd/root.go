// Package cmd implements the thin command-line front-end spec.md §6 lists
// as an out-of-scope external collaborator: it wires settings, transport,
// catalog and executor together and dispatches to package search/indexer,
// but contains none of the core query-building logic itself. Grounded on
// the teacher's `cmd/root.go` (`spf13/cobra` + `spf13/viper` persistent
// flags).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	lbryerrors "github.com/lbryio/lbry.go/v2/extras/errors"

	"github.com/openaleph/openaleph-search/internal/executor"
	"github.com/openaleph/openaleph-search/internal/ftm"
	"github.com/openaleph/openaleph-search/internal/logging"
	"github.com/openaleph/openaleph-search/internal/nameproc"
	"github.com/openaleph/openaleph-search/internal/search"
	"github.com/openaleph/openaleph-search/internal/settings"
	"github.com/openaleph/openaleph-search/internal/transport"
)

func init() {
	rootCmd.PersistentFlags().Bool("debugmode", false, "turns on debug mode for the application command.")
	rootCmd.PersistentFlags().BoolP("tracemode", "t", false, "turns on trace mode for the application command, very verbose logging.")
	rootCmd.PersistentFlags().Bool("codeprofile", false, "captures a pprof CPU profile for the duration of the command.")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "openaleph-search",
	Short: "A search intermediary between a caller and an FtM-shaped Elasticsearch cluster",
	Long:  `A search intermediary between a caller and an FtM-shaped Elasticsearch cluster`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command and is the entry point of the application
// from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// bootstrap loads Settings from the environment, configures logging, and
// wires a Transport/Catalog/Executor/Service quartet -- every subcommand
// that touches the cluster starts here.
func bootstrap() (*settings.Settings, *search.Service, *executor.Executor, *transport.Transport, error) {
	s, err := settings.NewFromEnv()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logging.Configure(s, viper.GetBool("debugmode"), viper.GetBool("tracemode"))

	catalog := ftm.NewMapCatalog(ftm.BuiltinSchemata())

	tr, err := transport.New(cmdContext(), s)
	if err != nil {
		return nil, nil, nil, nil, lbryerrors.Err(err)
	}

	ex := executor.New(tr, catalog, s.IndexPrefix, s.IndexRead, s.IndexWrite)
	svc := &search.Service{
		Executor: ex,
		Catalog:  catalog,
		Settings: s,
		Cache:    search.NewCache(10000, cacheTTL),
	}
	return s, svc, ex, tr, nil
}

func symbolTable() nameproc.SymbolTable {
	return nameproc.DefaultSymbolTable()
}
