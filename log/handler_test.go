// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelHandlerFollowsLevelVar(t *testing.T) {
	tests := []struct {
		name string
		new  func(io.Writer, *slog.LevelVar) slog.Handler
	}{
		{"terminal", func(w io.Writer, l *slog.LevelVar) slog.Handler { return NewTerminalHandlerWithLevel(w, l, false) }},
		{"json", JSONHandlerWithLevel},
		{"logfmt", LogfmtHandlerWithLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				buf   bytes.Buffer
				level slog.LevelVar
			)
			level.Set(LevelInfo)
			h := tt.new(&buf, &level).WithAttrs([]slog.Attr{slog.String("pkg", "queue")})
			logger := slog.New(h)

			assert.False(t, h.Enabled(context.Background(), LevelDebug))
			logger.Debug("reinit skipped")
			assert.Empty(t, buf.String())

			level.Set(LevelTrace)
			assert.True(t, h.Enabled(context.Background(), LevelDebug))
			logger.Debug("reinit done")
			assert.Contains(t, buf.String(), "reinit done")
			assert.Contains(t, buf.String(), "queue")

			buf.Reset()
			level.Set(LevelError)
			logger.Warn("backup short")
			assert.Empty(t, buf.String())
		})
	}
}
