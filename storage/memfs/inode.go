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

package memfs

import (
	"fmt"
	"time"

	"github.com/badgelink/badgelink/storage"
)

// A file or directory. inodes have no lock of their own; they are guarded by
// the memFS that owns them.
type inode struct {
	dir bool

	mtime time.Time
	ctime time.Time
	atime time.Time

	// For directories, the names of the children in the order they were
	// created.
	//
	// INVARIANT: If !dir, len(names) == 0
	// INVARIANT: len(names) == len(children)
	// INVARIANT: Contains no duplicates.
	names []string

	// For directories, the children by name.
	//
	// INVARIANT: For each name n in names, children[n] != nil
	children map[string]*inode

	// For files, the current contents.
	//
	// INVARIANT: If dir, len(contents) == 0
	contents []byte
}

func newInode(now time.Time, dir bool) (in *inode) {
	in = &inode{
		dir:   dir,
		mtime: now,
		ctime: now,
		atime: now,
	}

	if dir {
		in.children = make(map[string]*inode)
	}

	return
}

func (in *inode) checkInvariants() {
	// INVARIANT: If !dir, len(names) == 0
	if !in.dir && len(in.names) != 0 {
		panic(fmt.Sprintf("Unexpected names length: %d", len(in.names)))
	}

	// INVARIANT: len(names) == len(children)
	if len(in.names) != len(in.children) {
		panic(fmt.Sprintf(
			"Length mismatch: %d vs. %d",
			len(in.names),
			len(in.children)))
	}

	// INVARIANT: Contains no duplicates.
	// INVARIANT: For each name n in names, children[n] != nil
	seen := make(map[string]struct{})
	for _, n := range in.names {
		if _, ok := seen[n]; ok {
			panic(fmt.Sprintf("Duplicate name: %q", n))
		}
		seen[n] = struct{}{}

		if in.children[n] == nil {
			panic(fmt.Sprintf("Missing child: %q", n))
		}
	}

	// INVARIANT: If dir, len(contents) == 0
	if in.dir && len(in.contents) != 0 {
		panic(fmt.Sprintf("Unexpected contents length: %d", len(in.contents)))
	}
}

// Return the total number of content bytes in the subtree rooted here.
func (in *inode) usage() (n int64) {
	n = int64(len(in.contents))
	for _, c := range in.children {
		n += c.usage()
	}

	return
}

func (in *inode) attributes() storage.FileAttributes {
	return storage.FileAttributes{
		Size:  uint64(len(in.contents)),
		IsDir: in.dir,
		Mtime: in.mtime,
		Ctime: in.ctime,
		Atime: in.atime,
	}
}

// REQUIRES: in.dir
func (in *inode) addChild(name string, child *inode, now time.Time) {
	in.names = append(in.names, name)
	in.children[name] = child
	in.mtime = now
	in.ctime = now
}

// REQUIRES: in.dir
// REQUIRES: in.children[name] != nil
func (in *inode) removeChild(name string, now time.Time) {
	for i, n := range in.names {
		if n == name {
			in.names = append(in.names[:i], in.names[i+1:]...)
			break
		}
	}

	delete(in.children, name)
	in.mtime = now
	in.ctime = now
}
