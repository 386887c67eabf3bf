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

import (
	"time"

	"github.com/badgelink/badgelink/storage"
	"golang.org/x/sys/unix"
)

func statAttributes(p string) (attrs storage.FileAttributes, err error) {
	var st unix.Stat_t
	if err = unix.Stat(p, &st); err != nil {
		return
	}

	attrs = storage.FileAttributes{
		Size:  uint64(st.Size),
		IsDir: st.Mode&unix.S_IFMT == unix.S_IFDIR,
		Mtime: time.Unix(st.Mtim.Unix()),
		Ctime: time.Unix(st.Ctim.Unix()),
		Atime: time.Unix(st.Atim.Unix()),
	}

	return
}
