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

// Package memfs implements storage.FileSystem in memory.
package memfs

import (
	"context"
	"path"
	"strings"

	"github.com/badgelink/badgelink/storage"
	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"
)

type memFS struct {
	/////////////////////////
	// Dependencies
	/////////////////////////

	clock timeutil.Clock

	/////////////////////////
	// Constant data
	/////////////////////////

	// The maximum number of content bytes across all files, or zero for no
	// limit.
	capacity int64

	/////////////////////////
	// Mutable state
	/////////////////////////

	mu syncutil.InvariantMutex

	// INVARIANT: root.dir
	// INVARIANT: If capacity > 0, root.usage() <= capacity
	root *inode // GUARDED_BY(mu)
}

// Create a file system that stores data and metadata in memory, taking times
// from the supplied clock. Writes that would take the total size of all files
// beyond capacity bytes fail with storage.NoSpace; a capacity of zero means
// no limit.
//
// The directory listing order is the order in which entries were created, and
// includes "." and "..".
func NewMemFS(
	clock timeutil.Clock,
	capacity int64) storage.FileSystem {
	fs := &memFS{
		clock:    clock,
		capacity: capacity,
		root:     newInode(clock.Now(), true),
	}

	fs.mu = syncutil.NewInvariantMutex(fs.checkInvariants)

	return fs
}

func (fs *memFS) checkInvariants() {
	// INVARIANT: root.dir
	if !fs.root.dir {
		panic("Root is not a directory")
	}

	var walk func(in *inode)
	walk = func(in *inode) {
		in.checkInvariants()
		for _, c := range in.children {
			walk(c)
		}
	}

	walk(fs.root)

	// INVARIANT: If capacity > 0, root.usage() <= capacity
	if fs.capacity > 0 && fs.root.usage() > fs.capacity {
		panic("Over capacity")
	}
}

////////////////////////////////////////////////////////////////////////
// Helpers
////////////////////////////////////////////////////////////////////////

// Split a path into its clean components. The root has none.
func split(p string) []string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}

	return strings.Split(p, "/")
}

// Find the inode for the supplied components, or return an error of kind
// NotFound or IsFile.
//
// LOCKS_REQUIRED(fs.mu)
func (fs *memFS) lookUp(components []string) (in *inode, err error) {
	in = fs.root
	for _, c := range components {
		if !in.dir {
			err = storage.IsFile
			return
		}

		child := in.children[c]
		if child == nil {
			err = storage.NotFound
			return
		}

		in = child
	}

	return
}

// Find the parent directory of the supplied path along with the final
// component. The root has no parent.
//
// LOCKS_REQUIRED(fs.mu)
func (fs *memFS) lookUpParent(p string) (parent *inode, name string, err error) {
	components := split(p)
	if len(components) == 0 {
		err = storage.Exists
		return
	}

	parent, err = fs.lookUp(components[:len(components)-1])
	if err != nil {
		return
	}

	if !parent.dir {
		err = storage.IsFile
		return
	}

	name = components[len(components)-1]
	return
}

func wrap(op string, p string, err error) error {
	if err == nil {
		return nil
	}

	return &storage.Error{Op: op, Path: p, Kind: storage.KindOf(err)}
}

////////////////////////////////////////////////////////////////////////
// Directories
////////////////////////////////////////////////////////////////////////

// LOCKS_EXCLUDED(fs.mu)
func (fs *memFS) ReadDir(
	ctx context.Context,
	op *storage.ReadDirOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	in, err := fs.lookUp(split(op.Path))
	if err != nil {
		return wrap("readdir", op.Path, err)
	}

	if !in.dir {
		return wrap("readdir", op.Path, storage.IsFile)
	}

	op.Entries = append(
		op.Entries,
		storage.Dirent{Name: ".", IsDir: true},
		storage.Dirent{Name: "..", IsDir: true})

	for _, n := range in.names {
		op.Entries = append(op.Entries, storage.Dirent{
			Name:  n,
			IsDir: in.children[n].dir,
		})
	}

	in.atime = fs.clock.Now()
	return
}

// LOCKS_EXCLUDED(fs.mu)
func (fs *memFS) MkDir(
	ctx context.Context,
	op *storage.MkDirOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, name, err := fs.lookUpParent(op.Path)
	if err != nil {
		return wrap("mkdir", op.Path, err)
	}

	if parent.children[name] != nil {
		return wrap("mkdir", op.Path, storage.Exists)
	}

	now := fs.clock.Now()
	parent.addChild(name, newInode(now, true), now)

	return
}

// LOCKS_EXCLUDED(fs.mu)
func (fs *memFS) RmDir(
	ctx context.Context,
	op *storage.RmDirOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, name, err := fs.lookUpParent(op.Path)
	if err != nil {
		// The root is never empty enough to remove.
		if storage.KindOf(err) == storage.Exists {
			err = storage.NotEmpty
		}

		return wrap("rmdir", op.Path, err)
	}

	child := parent.children[name]
	switch {
	case child == nil:
		return wrap("rmdir", op.Path, storage.NotFound)

	case !child.dir:
		return wrap("rmdir", op.Path, storage.IsFile)

	case len(child.names) != 0:
		return wrap("rmdir", op.Path, storage.NotEmpty)
	}

	parent.removeChild(name, fs.clock.Now())
	return
}

////////////////////////////////////////////////////////////////////////
// Files
////////////////////////////////////////////////////////////////////////

// LOCKS_EXCLUDED(fs.mu)
func (fs *memFS) Unlink(
	ctx context.Context,
	op *storage.UnlinkOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, name, err := fs.lookUpParent(op.Path)
	if err != nil {
		if storage.KindOf(err) == storage.Exists {
			err = storage.IsDir
		}

		return wrap("unlink", op.Path, err)
	}

	child := parent.children[name]
	switch {
	case child == nil:
		return wrap("unlink", op.Path, storage.NotFound)

	case child.dir:
		return wrap("unlink", op.Path, storage.IsDir)
	}

	parent.removeChild(name, fs.clock.Now())
	return
}

// LOCKS_EXCLUDED(fs.mu)
func (fs *memFS) Stat(
	ctx context.Context,
	op *storage.StatOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	in, err := fs.lookUp(split(op.Path))
	if err != nil {
		return wrap("stat", op.Path, err)
	}

	op.Attributes = in.attributes()
	return
}

// LOCKS_EXCLUDED(fs.mu)
func (fs *memFS) CreateFile(
	ctx context.Context,
	op *storage.CreateFileOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, name, err := fs.lookUpParent(op.Path)
	if err != nil {
		if storage.KindOf(err) == storage.Exists {
			err = storage.IsDir
		}

		return wrap("create", op.Path, err)
	}

	now := fs.clock.Now()
	in := parent.children[name]
	switch {
	case in == nil:
		in = newInode(now, false)
		parent.addChild(name, in, now)

	case in.dir:
		return wrap("create", op.Path, storage.IsDir)

	default:
		in.contents = nil
		in.mtime = now
		in.ctime = now
	}

	op.Handle = &fileWriter{fs: fs, in: in}
	return
}

// LOCKS_EXCLUDED(fs.mu)
func (fs *memFS) OpenFile(
	ctx context.Context,
	op *storage.OpenFileOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	in, err := fs.lookUp(split(op.Path))
	if err != nil {
		return wrap("open", op.Path, err)
	}

	if in.dir {
		return wrap("open", op.Path, storage.IsDir)
	}

	in.atime = fs.clock.Now()

	// Readers see the contents as of open time.
	op.Handle = newFileReader(in.contents)
	op.Size = uint64(len(in.contents))

	return
}
