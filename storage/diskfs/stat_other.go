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

//go:build !linux

package diskfs

import (
	"os"

	"github.com/badgelink/badgelink/storage"
)

// Only the modification time is portable; it stands in for the others.
func statAttributes(p string) (attrs storage.FileAttributes, err error) {
	fi, err := os.Stat(p)
	if err != nil {
		return
	}

	attrs = storage.FileAttributes{
		Size:  uint64(fi.Size()),
		IsDir: fi.IsDir(),
		Mtime: fi.ModTime(),
		Ctime: fi.ModTime(),
		Atime: fi.ModTime(),
	}

	return
}
