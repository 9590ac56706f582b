package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/openaleph/openaleph-search/internal/params"
	"github.com/openaleph/openaleph-search/internal/search"
)

func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.AddCommand(searchQueryStringCmd)
	searchCmd.AddCommand(searchBodyCmd)
	searchBodyCmd.Flags().StringP("input", "i", "", "path to a JSON file of (key, value) parameter pairs, or - for stdin")
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run an entity search against the configured cluster",
}

var searchQueryStringCmd = &cobra.Command{
	Use:   "query-string <q> [--args URL]",
	Short: "Run a search from a free-text query plus optional URL-style args",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		argsFlag, _ := cmd.Flags().GetString("args")
		pairs, err := params.ParseQueryString(argsFlag)
		if err != nil {
			return err
		}
		pairs = append([]params.KV{{Key: "q", Value: args[0]}}, pairs...)
		return runEntitiesSearch(pairs)
	},
}

func init() {
	searchQueryStringCmd.Flags().String("args", "", "additional URL-style query parameters")
}

var searchBodyCmd = &cobra.Command{
	Use:   "body -i FILE",
	Short: "Run a search from a JSON-encoded (key, value) parameter pair list",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("input")
		var raw []byte
		var err error
		if path == "-" || path == "" {
			raw, err = readAll(os.Stdin)
		} else {
			raw, err = os.ReadFile(path)
		}
		if err != nil {
			return err
		}
		var pairs []params.KV
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return err
		}
		return runEntitiesSearch(pairs)
	},
}

func runEntitiesSearch(pairs []params.KV) error {
	s, svc, _, _, err := bootstrap()
	if err != nil {
		return printResult(nil, err)
	}
	view, err := params.Parse(pairs, params.Options{
		OpenAlephMode: s.OpenAlephMode,
		DefaultLimit:  20,
	})
	if err != nil {
		return printResult(nil, err)
	}
	authField := search.AuthField(s.OpenAlephMode)
	res, err := svc.Entities(cmdContext(), view, schemataFilter(view), authField, nil)
	return printResult(res, err)
}

func schemataFilter(view *params.View) []string {
	return view.Filters["schema"]
}
