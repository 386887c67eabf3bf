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

package badgelink

import (
	"github.com/badgelink/badgelink/storage"
	"github.com/badgelink/badgelink/wire"
)

// Map a backend error to the status reported to the peer. Errors outside the
// expected taxonomy are logged, since the peer only ever sees
// StatusInternalError for them.
func (s *Server) statusFor(err error, what string) wire.StatusCode {
	if err == nil {
		return wire.StatusOk
	}

	switch storage.KindOf(err) {
	case storage.NotFound:
		return wire.StatusNotFound

	case storage.Exists:
		return wire.StatusExists

	case storage.IsDir:
		return wire.StatusIsDir

	case storage.IsFile:
		return wire.StatusIsFile

	case storage.NotEmpty:
		return wire.StatusNotEmpty

	case storage.NoSpace:
		return wire.StatusNoSpace

	case storage.Unsupported:
		return wire.StatusNotSupported
	}

	s.errorLogger.Printf("%s: %v", what, err)
	return wire.StatusInternalError
}
