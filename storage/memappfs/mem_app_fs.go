// Copyright 2025 The BadgeLink Authors. All Rights Reserved.
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

// Package memappfs implements storage.AppStore as a fixed-size partition held
// in memory.
package memappfs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/badgelink/badgelink/storage"
	"github.com/jacobsa/syncutil"
)

type app struct {
	meta     storage.AppMetadata
	contents []byte
}

type memAppFS struct {
	/////////////////////////
	// Constant data
	/////////////////////////

	// The size of the partition in bytes.
	capacity int64

	/////////////////////////
	// Mutable state
	/////////////////////////

	mu syncutil.InvariantMutex

	// Installed apps by slug.
	//
	// INVARIANT: For each k, apps[k].meta.Slug == k
	// INVARIANT: For each k, apps[k].meta.Size == len(apps[k].contents)
	apps map[string]*app // GUARDED_BY(mu)

	// Uploads in progress. Their buffered bytes count against the capacity.
	//
	// INVARIANT: usage() <= capacity
	writers map[*appWriter]struct{} // GUARDED_BY(mu)
}

// Create an app store holding at most capacity bytes of app contents,
// including uploads in progress. A write that does not fit fails with
// storage.NoSpace and writes nothing.
//
// List returns apps ordered by slug.
func New(capacity int64) storage.AppStore {
	s := &memAppFS{
		capacity: capacity,
		apps:     make(map[string]*app),
		writers:  make(map[*appWriter]struct{}),
	}

	s.mu = syncutil.NewInvariantMutex(s.checkInvariants)

	return s
}

func (s *memAppFS) checkInvariants() {
	for k, a := range s.apps {
		// INVARIANT: For each k, apps[k].meta.Slug == k
		if a.meta.Slug != k {
			panic(fmt.Sprintf("Slug mismatch: %q vs. %q", a.meta.Slug, k))
		}

		// INVARIANT: For each k, apps[k].meta.Size == len(apps[k].contents)
		if int(a.meta.Size) != len(a.contents) {
			panic(fmt.Sprintf(
				"Size mismatch for %q: %d vs. %d",
				k,
				a.meta.Size,
				len(a.contents)))
		}
	}

	// INVARIANT: usage() <= capacity
	if s.usage() > s.capacity {
		panic(fmt.Sprintf("Over capacity: %d > %d", s.usage(), s.capacity))
	}
}

// LOCKS_REQUIRED(s.mu)
func (s *memAppFS) usage() (n int64) {
	for _, a := range s.apps {
		n += int64(len(a.contents))
	}

	for w := range s.writers {
		n += int64(len(w.contents))
	}

	return
}

func notFound(op string, slug string) error {
	return &storage.Error{Op: op, Path: slug, Kind: storage.NotFound}
}

////////////////////////////////////////////////////////////////////////
// AppStore
////////////////////////////////////////////////////////////////////////

// LOCKS_EXCLUDED(s.mu)
func (s *memAppFS) List(
	ctx context.Context,
	op *storage.ListAppsOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.apps {
		op.Apps = append(op.Apps, a.meta)
	}

	sort.Slice(op.Apps, func(i, j int) bool {
		return op.Apps[i].Slug < op.Apps[j].Slug
	})

	return nil
}

// LOCKS_EXCLUDED(s.mu)
func (s *memAppFS) Stat(
	ctx context.Context,
	op *storage.StatAppOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.apps[op.Slug]
	if a == nil {
		return notFound("stat", op.Slug)
	}

	op.Metadata = a.meta
	return nil
}

// LOCKS_EXCLUDED(s.mu)
func (s *memAppFS) Delete(
	ctx context.Context,
	op *storage.DeleteAppOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.apps[op.Slug] == nil {
		return notFound("delete", op.Slug)
	}

	delete(s.apps, op.Slug)
	return nil
}

// LOCKS_EXCLUDED(s.mu)
func (s *memAppFS) Create(
	ctx context.Context,
	op *storage.CreateAppOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if op.Metadata.Slug == "" {
		return &storage.Error{
			Op:   "create",
			Kind: storage.Other,
			Err:  fmt.Errorf("empty slug"),
		}
	}

	w := &appWriter{
		s:    s,
		meta: op.Metadata,
	}

	s.writers[w] = struct{}{}
	op.Handle = w

	return nil
}

// LOCKS_EXCLUDED(s.mu)
func (s *memAppFS) Open(
	ctx context.Context,
	op *storage.OpenAppOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.apps[op.Slug]
	if a == nil {
		return notFound("open", op.Slug)
	}

	op.Metadata = a.meta
	op.Handle = &appReader{bytes.NewReader(a.contents)}

	return nil
}

////////////////////////////////////////////////////////////////////////
// Handles
////////////////////////////////////////////////////////////////////////

// Buffers an upload, installing it on close.
type appWriter struct {
	s    *memAppFS
	meta storage.AppMetadata

	contents []byte // GUARDED_BY(s.mu)
	closed   bool   // GUARDED_BY(s.mu)
}

// LOCKS_EXCLUDED(w.s.mu)
func (w *appWriter) Write(p []byte) (n int, err error) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()

	if w.closed {
		err = os.ErrClosed
		return
	}

	if w.s.usage()+int64(len(p)) > w.s.capacity {
		err = &storage.Error{
			Op:   "write",
			Path: w.meta.Slug,
			Kind: storage.NoSpace,
		}

		return
	}

	w.contents = append(w.contents, p...)
	n = len(p)

	return
}

// Install the app, replacing any app with the same slug. Its size is the
// number of bytes actually written.
//
// LOCKS_EXCLUDED(w.s.mu)
func (w *appWriter) Close() error {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()

	if w.closed {
		return os.ErrClosed
	}

	w.closed = true
	delete(w.s.writers, w)

	meta := w.meta
	meta.Size = uint32(len(w.contents))
	w.s.apps[meta.Slug] = &app{
		meta:     meta,
		contents: w.contents,
	}

	return nil
}

type appReader struct {
	*bytes.Reader
}

func (r *appReader) Close() error {
	return nil
}
