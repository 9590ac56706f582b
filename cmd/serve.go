package cmd

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fatih/color"
	"github.com/lbryio/lbry.go/v2/extras/api"
	"github.com/lbryio/lbry.go/v2/extras/errors"
	"github.com/lbryio/lbry.go/v2/extras/orderedmap"
	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openaleph/openaleph-search/internal/metrics"
	"github.com/openaleph/openaleph-search/internal/params"
	"github.com/openaleph/openaleph-search/internal/search"
	"github.com/openaleph/openaleph-search/internal/settings"
)

func init() {
	serveCmd.Flags().StringP("host", "", "0.0.0.0", "host to listen on")
	serveCmd.Flags().IntP("port", "p", 8080, "port binding used for the api server")
	viper.BindPFlags(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}

// serveCmd is the thin, explicitly out-of-scope (spec §1) HTTP front-end --
// an external collaborator kept only as a documented boundary, grounded on
// the teacher's `cmd/serve.go` / `app/app.go: initAPIServer`. It contains no
// query-building logic of its own: every request is translated into a
// params.KV list and handed straight to search.Service.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the search HTTP API server",
	Run: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("codeprofile") {
			defer profile.Start(profile.NoShutdownHook).Stop()
		}
		s, svc, _, _, err := bootstrap()
		if err != nil {
			logrus.Fatal(err)
		}
		serve(s, svc)
	},
}

// routes mirrors the teacher's actions.Routes: an ordered map from path to
// handler, kept insertion-ordered purely for readable startup logging.
type routes struct {
	m *orderedmap.Map
}

func (r *routes) set(path string, h api.Handler) {
	if r.m == nil {
		r.m = orderedmap.New()
	}
	r.m.Set(path, h)
}

func (r *routes) each(f func(string, api.Handler)) {
	if r.m == nil {
		return
	}
	for _, k := range r.m.Keys() {
		v, _ := r.m.Get(k)
		f(k, v.(api.Handler))
	}
}

func serve(s *settings.Settings, svc *search.Service) {
	api.Log = func(request *http.Request, response *api.Response, err error) {
		line := request.RemoteAddr + " [" + strconv.Itoa(response.Status) + "]: " + request.Method + " " + request.URL.Path
		if err == nil {
			logrus.Debug(color.GreenString(line))
			return
		}
		metrics.SearchErrors.WithLabelValues("http").Inc()
		logrus.Error(color.RedString(line + ": " + errors.FullTrace(response.Error)))
	}
	api.BuildJSONResponse = func(response api.ResponseInfo) ([]byte, error) {
		if response.Error != nil {
			return json.MarshalIndent(&response, "", "  ")
		}
		return json.MarshalIndent(&response.Data, "", "  ")
	}

	rs := &routes{}
	rs.set("/search", searchHandler(s, svc))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	rs.each(func(path string, h api.Handler) {
		mux.Handle(path, h)
	})

	host := viper.GetString("host")
	port := viper.GetInt("port")
	logrus.Infof("API server listening on http://%s:%d/search", host, port)
	logrus.Fatal(http.ListenAndServe(host+":"+strconv.Itoa(port), mux))
}

// searchHandler adapts an incoming query-string request to search.Service.
// It never builds Elasticsearch queries directly -- it only parses request
// parameters via package params and forwards them.
func searchHandler(s *settings.Settings, svc *search.Service) api.Handler {
	return func(r *http.Request) api.Response {
		pairs, err := params.ParseQueryString(r.URL.RawQuery)
		if err != nil {
			return api.Response{Error: errors.Err(err), Status: http.StatusBadRequest}
		}
		view, err := params.Parse(pairs, params.Options{OpenAlephMode: s.OpenAlephMode, DefaultLimit: 20, RequireAuth: s.SearchAuth})
		if err != nil {
			status := http.StatusBadRequest
			if _, ok := err.(*params.AuthorizationError); ok {
				status = http.StatusUnauthorized
			}
			return api.Response{Error: errors.Err(err), Status: status}
		}
		authField := search.AuthField(s.OpenAlephMode)
		result, err := svc.Entities(r.Context(), view, schemataFilter(view), authField, nil)
		if err != nil {
			return api.Response{Error: errors.Err(err), Status: http.StatusInternalServerError}
		}
		return api.Response{Data: result}
	}
}
