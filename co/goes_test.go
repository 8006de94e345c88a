// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGoesStop(t *testing.T) {
	g := NewGoes(context.Background())
	var n atomic.Int32
	for range 3 {
		g.Go(func(ctx context.Context) {
			<-ctx.Done()
			n.Add(1)
		})
	}
	g.Stop()
	g.Wait()
	assert.Equal(t, int32(3), n.Load())
}

func TestGoesParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	g := NewGoes(parent)
	g.Go(func(ctx context.Context) { <-ctx.Done() })

	select {
	case <-g.Done():
		t.Fatal("group finished before cancel")
	case <-time.After(10 * time.Millisecond):
	}
	cancel()
	select {
	case <-g.Done():
	case <-time.After(time.Second):
		t.Fatal("group not finished after parent cancel")
	}
}
