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

// Package mds wires the metadata server shell: the cache, the journal
// transport and the journal manager, serialized on one server lock.
package mds

import (
	// standard libraries.
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	// this project.
	"github.com/zmz/ceph/internal/mds/cache"
	"github.com/zmz/ceph/internal/mds/mdlog"
	"github.com/zmz/ceph/internal/store/journal"
	"github.com/zmz/ceph/observability/log"
)

const tickInterval = 5 * time.Second

type Server struct {
	// lk is the big server lock shared by the journal manager.
	lk sync.Mutex

	cache   *cache.Cache
	journal *journal.Journaler
	mdlog   *mdlog.MDLog

	closeC chan struct{}
	doneC  chan struct{}
}

func NewServer(cfg *Config) (*Server, error) {
	s := &Server{
		cache:  cache.New(),
		closeC: make(chan struct{}),
		doneC:  make(chan struct{}),
	}

	j, err := journal.New(filepath.Join(cfg.DataDir, "journal"),
		journal.WithObjectSize(cfg.Log.ObjectPeriod))
	if err != nil {
		return nil, err
	}
	s.journal = j
	s.mdlog = mdlog.New(&s.lk, j, s.cache, s.cache, cfg.Log.Options()...)

	return s, nil
}

// Boot recovers the journal, replaying it if it holds state, or creates a
// fresh one. Normal submission may begin once Boot returns.
func (s *Server) Boot(ctx context.Context) error {
	done := make(chan error, 1)
	s.mdlog.Open(func(err error) {
		done <- err
	})

	err := <-done
	switch {
	case errors.Is(err, journal.ErrNoHead):
		if err = s.mdlog.Create(nil); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		replayed := make(chan error, 1)
		s.mdlog.Replay(func(err2 error) {
			replayed <- err2
		})
		if err = <-replayed; err != nil {
			return err
		}
	}

	go s.runTick()

	return nil
}

// runTick periodically writes back the cache and flushes/trims the journal.
func (s *Server) runTick() {
	ticker := time.NewTicker(tickInterval)
	defer func() {
		ticker.Stop()
		close(s.doneC)
	}()

	for {
		select {
		case <-s.closeC:
			return
		case <-ticker.C:
		}
		s.cache.Flush()
		s.mdlog.Flush()
	}
}

// Update mutates the metadata at path and journals the mutation. onDurable,
// if given, fires once the record is durable.
//
// The version assignment and the journal append happen under one hold of
// the server lock, so replay applies concurrent updates to the same path in
// version order.
func (s *Server) Update(path string, ino cache.Inode, onDurable journal.Completion) {
	s.lk.Lock()
	defer s.lk.Unlock()

	ev := s.cache.Update(path, ino)
	off := s.mdlog.SubmitEntryLocked(ev, onDurable)
	if off >= 0 {
		s.cache.Journaled(path, off)
	}
}

func (s *Server) Lookup(path string) (cache.Inode, bool) {
	return s.cache.Lookup(path)
}

// Shutdown caps the journal, waits for durability and releases everything.
func (s *Server) Shutdown(ctx context.Context) {
	close(s.closeC)
	<-s.doneC

	s.mdlog.Cap()

	synced := make(chan error, 1)
	s.mdlog.WaitForSync(func(err error) {
		synced <- err
	})
	if err := <-synced; err != nil {
		log.Error(ctx, "Final journal sync failed.", map[string]interface{}{
			log.KeyError: err,
		})
	}

	s.cache.Flush()
	s.mdlog.Trim()
	s.mdlog.Close()

	log.Info(ctx, "MDS shut down.", nil)
}
