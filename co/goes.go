// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"context"
	"sync"
)

// Goes runs goroutines sharing one cancellation scope.
type Goes struct {
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewGoes creates a group whose goroutines are cancelled with parent or by Stop.
func NewGoes(parent context.Context) *Goes {
	ctx, cancel := context.WithCancel(parent)
	return &Goes{ctx: ctx, cancel: cancel}
}

// Go starts f in a new goroutine.
func (g *Goes) Go(f func(ctx context.Context)) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		f(g.ctx)
	}()
}

// Stop cancels the group's context. It does not wait.
func (g *Goes) Stop() {
	g.cancel()
}

// Wait blocks until every started goroutine returns.
func (g *Goes) Wait() {
	g.wg.Wait()
}

// Done returns a channel closed once Wait would return.
func (g *Goes) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.wg.Wait()
	}()
	return done
}
