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
	"bytes"
	"fmt"
	"os"

	"github.com/badgelink/badgelink/storage"
)

// Appends to the contents of a file inode.
type fileWriter struct {
	fs *memFS
	in *inode

	closed bool // GUARDED_BY(fs.mu)
}

// Writes are all or nothing: a write that does not fit within the file
// system's capacity writes no bytes.
//
// LOCKS_EXCLUDED(w.fs.mu)
func (w *fileWriter) Write(p []byte) (n int, err error) {
	w.fs.mu.Lock()
	defer w.fs.mu.Unlock()

	if w.closed {
		err = os.ErrClosed
		return
	}

	if w.fs.capacity > 0 && w.fs.root.usage()+int64(len(p)) > w.fs.capacity {
		err = fmt.Errorf("write %d bytes: %w", len(p), storage.NoSpace)
		return
	}

	w.in.contents = append(w.in.contents, p...)
	now := w.fs.clock.Now()
	w.in.mtime = now
	w.in.ctime = now

	n = len(p)
	return
}

// LOCKS_EXCLUDED(w.fs.mu)
func (w *fileWriter) Close() error {
	w.fs.mu.Lock()
	defer w.fs.mu.Unlock()

	if w.closed {
		return os.ErrClosed
	}

	w.closed = true
	return nil
}

// Reads a snapshot of a file's contents.
type fileReader struct {
	*bytes.Reader
}

func newFileReader(contents []byte) *fileReader {
	return &fileReader{bytes.NewReader(contents)}
}

func (r *fileReader) Close() error {
	return nil
}
