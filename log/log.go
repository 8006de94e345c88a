// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides package-scoped loggers bound lazily to the go-ethereum root logger,
// so loggers created in package vars pick up the handler installed later by Init.
package log

import (
	"context"
	"io"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Logger writes leveled, structured records.
type Logger interface {
	With(ctx ...any) Logger
	Enabled(level slog.Level) bool

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

// Levels re-exported for callers configuring verbosity.
const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

type logger struct {
	ctx []any
}

// WithContext returns a logger that prepends ctx to every record.
func WithContext(ctx ...any) Logger {
	return &logger{ctx: ctx}
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{ctx: append(append([]any(nil), l.ctx...), ctx...)}
}

func (l *logger) root() ethlog.Logger {
	return ethlog.Root().With(l.ctx...)
}

func (l *logger) Enabled(level slog.Level) bool {
	return ethlog.Root().Handler().Enabled(context.Background(), level)
}

func (l *logger) Trace(msg string, ctx ...any) { l.root().Trace(msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.root().Debug(msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.root().Info(msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.root().Warn(msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.root().Error(msg, ctx...) }

var root = WithContext()

// Root logger without context.
func Root() Logger { return root }

func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }

// Init installs the root handler. Format is one of "terminal", "logfmt" or "json".
// The returned level can be changed while running.
func Init(w io.Writer, verbosity slog.Level, format string, useColor bool) *slog.LevelVar {
	level := new(slog.LevelVar)
	level.Set(verbosity)

	var h slog.Handler
	switch format {
	case "json":
		h = JSONHandlerWithLevel(w, level)
	case "logfmt":
		h = LogfmtHandlerWithLevel(w, level)
	default:
		h = NewTerminalHandlerWithLevel(w, level, useColor)
	}
	ethlog.SetDefault(ethlog.NewLogger(h))
	return level
}

// Discard drops all records.
func Discard() {
	ethlog.SetDefault(ethlog.NewLogger(ethlog.DiscardHandler()))
}

// LevelFromVerbosity maps the numeric 0 (crit) to 5 (trace) verbosity to a level.
func LevelFromVerbosity(v int) slog.Level {
	return ethlog.FromLegacyLevel(v)
}
