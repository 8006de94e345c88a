// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"io"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// levelHandler gates an inner handler on a level that can change while running.
// The inner handler is built at trace level so it never filters on its own.
type levelHandler struct {
	inner slog.Handler
	level *slog.LevelVar
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.inner.Enabled(ctx, level)
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.level.Level() {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{h.inner.WithAttrs(attrs), h.level}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{h.inner.WithGroup(name), h.level}
}

// NewTerminalHandlerWithLevel returns a human readable handler outputting records at or above level.
func NewTerminalHandlerWithLevel(wr io.Writer, level *slog.LevelVar, useColor bool) slog.Handler {
	return &levelHandler{ethlog.NewTerminalHandlerWithLevel(wr, LevelTrace, useColor), level}
}

// JSONHandlerWithLevel returns a JSON handler outputting records at or above level.
func JSONHandlerWithLevel(wr io.Writer, level *slog.LevelVar) slog.Handler {
	return &levelHandler{ethlog.JSONHandlerWithLevel(wr, LevelTrace), level}
}

// LogfmtHandlerWithLevel returns a logfmt handler outputting records at or above level.
func LogfmtHandlerWithLevel(wr io.Writer, level *slog.LevelVar) slog.Handler {
	return &levelHandler{ethlog.LogfmtHandlerWithLevel(wr, LevelTrace), level}
}
