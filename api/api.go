// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/dposlab/bbpelect/api/election"
	"github.com/dposlab/bbpelect/api/schedule"
	"github.com/dposlab/bbpelect/log"
	"github.com/dposlab/bbpelect/metrics"
	"github.com/dposlab/bbpelect/proposer"
	"github.com/dposlab/bbpelect/runtime"
	"github.com/dposlab/bbpelect/schedlog"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	CacheSize       int
	ScheduleLimit   int64
	EnableReqLogger bool
	EnableMetrics   bool
}

// New return api router. sched and proposers are optional.
func New(
	rt *runtime.Runtime,
	proposers *proposer.Set,
	sched *schedlog.SchedLog,
	opts Options,
) (http.HandlerFunc, error) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	el, err := election.New(rt, proposers, opts.CacheSize)
	if err != nil {
		return nil, err
	}
	el.Mount(router, "/election")
	if sched != nil {
		schedule.New(sched, opts.ScheduleLimit).
			Mount(router, "/schedule")
	}

	if opts.EnableMetrics {
		router.PathPrefix("/metrics").Name("metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}
	return handler.ServeHTTP, nil
}
