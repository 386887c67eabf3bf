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

// Package diskfs implements storage.FileSystem on top of a directory of the
// host's file system.
package diskfs

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"

	"github.com/badgelink/badgelink/storage"
	fallocate "github.com/detailyang/go-fallocate"
	"golang.org/x/sys/unix"
)

type diskFS struct {
	storage.NotImplementedFileSystem

	// The directory every protocol path is resolved beneath.
	root   string
	logger *log.Logger
}

var _ storage.FileSystem = &diskFS{}

// Create a file system that serves the contents of the directory at root.
// Protocol paths are resolved beneath it and cannot escape it. Unexpected
// failures are logged to logger.
func New(root string, logger *log.Logger) (fs storage.FileSystem, err error) {
	fi, err := os.Stat(root)
	if err != nil {
		return
	}

	if !fi.IsDir() {
		err = fmt.Errorf("%s is not a directory", root)
		return
	}

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	fs = &diskFS{
		root:   root,
		logger: logger,
	}

	return
}

// Map a protocol path to a host path beneath the root.
func (fs *diskFS) resolve(p string) string {
	return filepath.Join(fs.root, filepath.FromSlash(path.Clean("/"+p)))
}

////////////////////////////////////////////////////////////////////////
// Directories
////////////////////////////////////////////////////////////////////////

func (fs *diskFS) ReadDir(
	ctx context.Context,
	op *storage.ReadDirOp) error {
	entries, err := os.ReadDir(fs.resolve(op.Path))
	if err != nil {
		return fs.wrap("readdir", op.Path, err)
	}

	for _, e := range entries {
		op.Entries = append(op.Entries, storage.Dirent{
			Name:  e.Name(),
			IsDir: e.IsDir(),
		})
	}

	return nil
}

func (fs *diskFS) MkDir(
	ctx context.Context,
	op *storage.MkDirOp) error {
	err := unix.Mkdir(fs.resolve(op.Path), 0o755)
	return fs.wrap("mkdir", op.Path, err)
}

func (fs *diskFS) RmDir(
	ctx context.Context,
	op *storage.RmDirOp) error {
	err := unix.Rmdir(fs.resolve(op.Path))

	// Some systems report a non-empty directory as EEXIST.
	if err == unix.EEXIST {
		err = unix.ENOTEMPTY
	}

	return fs.wrap("rmdir", op.Path, err)
}

////////////////////////////////////////////////////////////////////////
// Files
////////////////////////////////////////////////////////////////////////

func (fs *diskFS) Unlink(
	ctx context.Context,
	op *storage.UnlinkOp) error {
	p := fs.resolve(op.Path)

	// unlink(2) reports directories inconsistently across systems.
	var st unix.Stat_t
	if err := unix.Lstat(p, &st); err != nil {
		return fs.wrap("unlink", op.Path, err)
	}

	if st.Mode&unix.S_IFMT == unix.S_IFDIR {
		return fs.wrap("unlink", op.Path, unix.EISDIR)
	}

	return fs.wrap("unlink", op.Path, unix.Unlink(p))
}

func (fs *diskFS) Stat(
	ctx context.Context,
	op *storage.StatOp) (err error) {
	op.Attributes, err = statAttributes(fs.resolve(op.Path))
	return fs.wrap("stat", op.Path, err)
}

func (fs *diskFS) CreateFile(
	ctx context.Context,
	op *storage.CreateFileOp) error {
	f, err := os.OpenFile(
		fs.resolve(op.Path),
		os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
		0o644)

	if err != nil {
		return fs.wrap("create", op.Path, err)
	}

	// Preallocation is best effort. The handle trims any unused tail on close.
	if op.SizeHint > 0 {
		if err := fallocate.Fallocate(f, 0, int64(op.SizeHint)); err != nil {
			fs.logger.Printf("fallocate %q: %v", op.Path, err)
		}
	}

	op.Handle = &fileWriter{fs: fs, path: op.Path, f: f}
	return nil
}

func (fs *diskFS) OpenFile(
	ctx context.Context,
	op *storage.OpenFileOp) error {
	f, err := os.Open(fs.resolve(op.Path))
	if err != nil {
		return fs.wrap("open", op.Path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return fs.wrap("open", op.Path, err)
	}

	if fi.IsDir() {
		f.Close()
		return fs.wrap("open", op.Path, unix.EISDIR)
	}

	op.Handle = f
	op.Size = uint64(fi.Size())

	return nil
}
