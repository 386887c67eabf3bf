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

package diskfs

import "os"

// Writes sequentially to a possibly preallocated file.
type fileWriter struct {
	fs   *diskFS
	path string
	f    *os.File

	// The number of bytes written so far.
	written int64
}

func (w *fileWriter) Write(p []byte) (n int, err error) {
	n, err = w.f.Write(p)
	w.written += int64(n)

	if err != nil {
		err = w.fs.wrap("write", w.path, err)
	}

	return
}

// Trim the file to the bytes actually written, then close it.
func (w *fileWriter) Close() (err error) {
	err = w.f.Truncate(w.written)
	if closeErr := w.f.Close(); err == nil {
		err = closeErr
	}

	return w.fs.wrap("close", w.path, err)
}
