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
	"errors"

	"github.com/badgelink/badgelink/storage"
	"golang.org/x/sys/unix"
)

// Return the storage.Kind corresponding to the errno underlying err.
func kindOf(err error) storage.Kind {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return storage.Other
	}

	switch errno {
	case unix.ENOENT:
		return storage.NotFound

	case unix.EEXIST:
		return storage.Exists

	case unix.EISDIR:
		return storage.IsDir

	case unix.ENOTDIR:
		return storage.IsFile

	case unix.ENOTEMPTY:
		return storage.NotEmpty

	case unix.ENOSPC, unix.EDQUOT:
		return storage.NoSpace
	}

	return storage.Other
}

// Annotate err with the op and protocol path that caused it. Errors with no
// matching kind are logged.
func (fs *diskFS) wrap(op string, p string, err error) error {
	if err == nil {
		return nil
	}

	k := kindOf(err)
	if k == storage.Other {
		fs.logger.Printf("%s %q: %v", op, p, err)
	}

	return &storage.Error{Op: op, Path: p, Kind: k, Err: err}
}
