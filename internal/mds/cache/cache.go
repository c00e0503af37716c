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

// Package cache is the in-memory metadata cache of the MDS. For the journal
// it plays two roles: it supplies checkpoint records snapshotting the
// subtree partitioning, and it decides whether a log segment's content is
// still referenced by dirty state.
package cache

import (
	// standard libraries.
	"sort"
	"sync"

	// this project.
	"github.com/zmz/ceph/internal/mds/event"
	"github.com/zmz/ceph/internal/primitive/gather"
)

// Inode is the cached metadata of one dentry.
type Inode struct {
	Ino     uint64
	Mode    uint32
	Size    uint64
	Version uint64
}

// Cache holds the active metadata tree. Dirty entries are attributed to the
// journal segment whose record made them dirty; a segment stays referenced
// until a writeback cleans its entries.
type Cache struct {
	mu sync.Mutex

	entries  map[string]Inode
	subtrees []string

	// dirty maps a segment offset to the set of paths whose latest
	// journaled mutation lives in that segment.
	dirty map[int64]map[string]struct{}
	gates map[int64]*gather.Gather
}

func New() *Cache {
	return &Cache{
		entries:  make(map[string]Inode),
		subtrees: []string{"/"},
		dirty:    make(map[int64]map[string]struct{}),
		gates:    make(map[int64]*gather.Gather),
	}
}

// Update mutates the cached entry at path and returns the journal record
// for the mutation.
func (c *Cache) Update(path string, ino Inode) *event.Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	ino.Version = c.entries[path].Version + 1
	c.entries[path] = ino

	return &event.Update{
		Path:    path,
		Ino:     ino.Ino,
		Mode:    ino.Mode,
		Size:    ino.Size,
		Version: ino.Version,
	}
}

// Journaled attributes the dirtiness of path to the segment at segOffset.
// An entry is referenced only by the segment holding its latest mutation.
func (c *Cache) Journaled(path string, segOffset int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for off, paths := range c.dirty {
		if off != segOffset {
			delete(paths, path)
			if len(paths) == 0 {
				delete(c.dirty, off)
			}
		}
	}

	paths, ok := c.dirty[segOffset]
	if !ok {
		paths = make(map[string]struct{})
		c.dirty[segOffset] = paths
	}
	paths[path] = struct{}{}
}

// Flush writes back all dirty entries and fires the expirability gates of
// the segments they were pinning.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.dirty = make(map[int64]map[string]struct{})
	gates := c.gates
	c.gates = make(map[int64]*gather.Gather)
	c.mu.Unlock()

	for _, g := range gates {
		g.Done()
	}
}

func (c *Cache) Lookup(path string) (Inode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ino, ok := c.entries[path]
	return ino, ok
}

func (c *Cache) NumDirty() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, paths := range c.dirty {
		n += len(paths)
	}
	return n
}

func (c *Cache) Subtrees() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	roots := make([]string, len(c.subtrees))
	copy(roots, c.subtrees)
	return roots
}

func (c *Cache) SetSubtrees(roots []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subtrees = roots
}

// CreateCheckpointEvent snapshots the current subtree partitioning.
func (c *Cache) CreateCheckpointEvent() event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	roots := make([]string, len(c.subtrees))
	copy(roots, c.subtrees)
	sort.Strings(roots)
	return &event.Checkpoint{Roots: roots}
}

// SegmentExpirable reports whether the segment at offset is still
// referenced by dirty state. It returns nil when the segment may expire
// now, or a gate that fires after the next writeback. The caller re-queries
// after the gate fires.
func (c *Cache) SegmentExpirable(offset int64) *gather.Gather {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.dirty[offset]) == 0 {
		delete(c.dirty, offset)
		return nil
	}

	g, ok := c.gates[offset]
	if !ok {
		g = gather.New(1)
		c.gates[offset] = g
	}
	return g
}

// Make sure Cache implements event.ReplayState.
var _ event.ReplayState = (*Cache)(nil)

func (c *Cache) ApplyCheckpoint(cp *event.Checkpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	roots := make([]string, len(cp.Roots))
	copy(roots, cp.Roots)
	c.subtrees = roots
}

func (c *Cache) ApplyUpdate(u *event.Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[u.Path] = Inode{
		Ino:     u.Ino,
		Mode:    u.Mode,
		Size:    u.Size,
		Version: u.Version,
	}
}
