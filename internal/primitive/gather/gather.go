// Copyright 2023 The zmz Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gather

import (
	// standard libraries.
	"sync"
)

// Gather is a one-shot multi-waiter completion gate: it fires once, after
// every outstanding count added with New or Add has been released with Done.
// Waiters registered after the gate has fired are invoked inline.
type Gather struct {
	mu      sync.Mutex
	pending int
	fired   bool
	waiters []func()
}

func New(n int) *Gather {
	if n < 0 {
		panic("gather: negative count")
	}
	return &Gather{pending: n}
}

// Add registers n more completions the gate must wait for.
func (g *Gather) Add(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fired {
		panic("gather: add after fire")
	}
	g.pending += n
}

// Done releases one outstanding completion, firing the gate when the last
// one is released.
func (g *Gather) Done() {
	g.mu.Lock()
	if g.fired {
		g.mu.Unlock()
		panic("gather: done after fire")
	}
	g.pending--
	if g.pending > 0 {
		g.mu.Unlock()
		return
	}
	if g.pending < 0 {
		g.mu.Unlock()
		panic("gather: negative pending")
	}
	g.fired = true
	waiters := g.waiters
	g.waiters = nil
	g.mu.Unlock()

	for _, w := range waiters {
		w()
	}
}

// OnComplete registers fn to run when the gate fires. Waiters run in
// registration order, on the goroutine that calls the final Done.
func (g *Gather) OnComplete(fn func()) {
	g.mu.Lock()
	if g.fired {
		g.mu.Unlock()
		fn()
		return
	}
	g.waiters = append(g.waiters, fn)
	g.mu.Unlock()
}

// Fired reports whether the gate has fired.
func (g *Gather) Fired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fired
}
