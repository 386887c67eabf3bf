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
	"context"
	"fmt"
	"log"

	"github.com/badgelink/badgelink/internal/metrics"
	"github.com/badgelink/badgelink/storage"
	"github.com/jacobsa/syncutil"
)

// The state of one peer's link to a server: the negotiated protocol version
// and the single transfer slot. Every request on a connection is handled
// against that connection's session.
type Session struct {
	/////////////////////////
	// Dependencies
	/////////////////////////

	errorLogger *log.Logger

	/////////////////////////
	// Constant data
	/////////////////////////

	maxVersion uint16

	/////////////////////////
	// Mutable state
	/////////////////////////

	// Held for the whole of each request, so that requests are handled one at a
	// time.
	mu syncutil.InvariantMutex

	// INVARIANT: 1 <= version <= maxVersion
	version uint16 // GUARDED_BY(mu)

	// The active transfer, or nil when idle.
	//
	// INVARIANT: If xfer != nil, xfer.checkInvariants() does not panic
	xfer *transfer // GUARDED_BY(mu)
}

func newSession(maxVersion uint16, errorLogger *log.Logger) (s *Session) {
	s = &Session{
		errorLogger: errorLogger,
		maxVersion:  maxVersion,
		version:     1,
	}

	s.mu = syncutil.NewInvariantMutex(s.checkInvariants)
	return
}

func (s *Session) checkInvariants() {
	// INVARIANT: 1 <= version <= maxVersion
	if s.version < 1 || s.version > s.maxVersion {
		panic(fmt.Sprintf("Unexpected version: %d (max %d)", s.version, s.maxVersion))
	}

	if s.xfer != nil {
		s.xfer.checkInvariants()
	}
}

// Return the currently negotiated protocol version. It is 1 until a VersionReq
// is handled, and again after every sync.
//
// LOCKS_EXCLUDED(s.mu)
func (s *Session) Version() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.version
}

// Negotiate a version with a client that speaks at most clientVersion, making
// it current. A client version of zero is treated as 1.
//
// LOCKS_EXCLUDED(s.mu)
func (s *Session) Negotiate(clientVersion uint16) (server, negotiated uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.negotiate(clientVersion)
}

// LOCKS_REQUIRED(s.mu)
func (s *Session) negotiate(clientVersion uint16) (server, negotiated uint16) {
	server = s.maxVersion

	negotiated = clientVersion
	if negotiated < 1 {
		negotiated = 1
	}

	if negotiated > server {
		negotiated = server
	}

	s.version = negotiated
	return
}

// Return true if a transfer is in progress.
//
// LOCKS_EXCLUDED(s.mu)
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.xfer != nil
}

// Return the session to its initial state: version 1 and no transfer. An
// active transfer is aborted.
//
// LOCKS_EXCLUDED(s.mu)
func (s *Session) Sync(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abort(ctx, "sync")
	s.version = 1
}

// Abort any active transfer, e.g. because the peer went away. The negotiated
// version is unaffected.
//
// LOCKS_EXCLUDED(s.mu)
func (s *Session) Abort(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abort(ctx, "connection closed")
}

// Tear down the active transfer without responding to anyone. An aborted
// upload removes its partially written target.
//
// LOCKS_REQUIRED(s.mu)
func (s *Session) abort(ctx context.Context, reason string) {
	x := s.xfer
	if x == nil {
		return
	}

	s.xfer = nil

	if err := x.close(); err != nil {
		s.errorLogger.Printf("%v: close: %v", x, err)
	}

	if x.upload {
		err := x.remove(ctx)
		if err != nil && storage.KindOf(err) != storage.NotFound {
			s.errorLogger.Printf("%v: remove: %v", x, err)
		}
	}

	s.errorLogger.Printf("%v aborted (%s) at %d of %d bytes", x, reason, x.pos, x.size)
	metrics.RecordTransfer(x.domain.String(), x.direction(), "aborted")
}
