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

package storage

import (
	"io"
	"time"
)

// A handle an upload writes to. Writes are sequential. A short write must
// return a non-nil error; NoSpace signals exhaustion.
type WriteHandle interface {
	io.Writer
	io.Closer
}

// A handle a download reads from.
type ReadHandle interface {
	io.Reader
	io.Seeker
	io.Closer
}

////////////////////////////////////////////////////////////////////////
// Filesystem
////////////////////////////////////////////////////////////////////////

// An entry within a directory.
type Dirent struct {
	Name  string
	IsDir bool
}

// Read the entries of a directory.
type ReadDirOp struct {
	// The directory of interest.
	Path string

	// Set by the file system: the entries of the directory, in a stable order.
	// May include "." and "..".
	Entries []Dirent
}

// Remove a file. The target must not be a directory.
type UnlinkOp struct {
	Path string
}

// Create a directory whose parent already exists.
type MkDirOp struct {
	Path string
}

// Remove an empty directory.
type RmDirOp struct {
	Path string
}

type FileAttributes struct {
	Size  uint64
	IsDir bool

	Mtime time.Time
	Ctime time.Time
	Atime time.Time
}

// Return the attributes of a file or directory.
type StatOp struct {
	Path string

	// Set by the file system.
	Attributes FileAttributes
}

// Create or truncate a file for writing.
type CreateFileOp struct {
	Path string

	// The number of bytes the caller expects to write. Backends may use it to
	// preallocate.
	SizeHint uint32

	// Set by the file system: a handle the caller must close.
	Handle WriteHandle
}

// Open an existing file for reading.
type OpenFileOp struct {
	Path string

	// Set by the file system: a handle the caller must close, and the size of
	// the file at open time.
	Handle ReadHandle
	Size   uint64
}

////////////////////////////////////////////////////////////////////////
// App storage
////////////////////////////////////////////////////////////////////////

// Describes an installed app.
type AppMetadata struct {
	Slug    string
	Title   string
	Version uint16

	// The size of the app's contents, in bytes.
	Size uint32
}

// List installed apps.
type ListAppsOp struct {
	// Set by the store: every installed app, in a stable order.
	Apps []AppMetadata
}

type StatAppOp struct {
	Slug string

	// Set by the store.
	Metadata AppMetadata
}

type DeleteAppOp struct {
	Slug string
}

// Install an app, replacing any existing app with the same slug once the
// handle is closed.
type CreateAppOp struct {
	// Metadata.Size is the number of bytes the caller will write.
	Metadata AppMetadata

	// Set by the store: a handle the caller must close.
	Handle WriteHandle
}

// Open an installed app for reading.
type OpenAppOp struct {
	Slug string

	// Set by the store: the app's metadata and a handle the caller must close.
	Metadata AppMetadata
	Handle   ReadHandle
}
