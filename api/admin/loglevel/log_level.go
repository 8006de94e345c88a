// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package loglevel

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/api/utils"
	"github.com/dposlab/bbpelect/log"
)

type Request struct {
	Level string `json:"level"`
}

type Response struct {
	CurrentLevel string `json:"currentLevel"`
}

var levels = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}

type LogLevel struct {
	level *slog.LevelVar
}

func New(level *slog.LevelVar) *LogLevel {
	return &LogLevel{level}
}

func (l *LogLevel) handleGet(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, Response{CurrentLevel: l.level.Level().String()})
}

func (l *LogLevel) handlePost(w http.ResponseWriter, req *http.Request) error {
	var body Request
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	level, ok := levels[body.Level]
	if !ok {
		return utils.BadRequest(errors.New("invalid verbosity level"))
	}
	l.level.Set(level)
	return utils.WriteJSON(w, Response{CurrentLevel: l.level.Level().String()})
}

func (l *LogLevel) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("admin_get_log_level").
		HandlerFunc(utils.WrapHandlerFunc(l.handleGet))
	sub.Path("").
		Methods(http.MethodPost).
		Name("admin_post_log_level").
		HandlerFunc(utils.WrapHandlerFunc(l.handlePost))
}
