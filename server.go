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
	"io"
	"log"

	"github.com/badgelink/badgelink/internal/metrics"
	"github.com/badgelink/badgelink/storage"
	"github.com/badgelink/badgelink/wire"
	"github.com/jacobsa/timeutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// The device end of a BadgeLink link. Each connection served gets a Session
// of its own, so several peers may be served at once without seeing each
// other's version or transfer. The backends are shared.
type Server struct {
	/////////////////////////
	// Dependencies
	/////////////////////////

	fs          storage.FileSystem
	apps        storage.AppStore
	clock       timeutil.Clock
	tracer      trace.Tracer
	errorLogger *log.Logger
	debugLogger *log.Logger

	/////////////////////////
	// Constant data
	/////////////////////////

	legacy     bool
	maxVersion uint16
}

// Create a server that serves requests from the supplied backends. Either
// backend may be nil, in which case its requests are answered with
// StatusNotSupported. The config may be nil.
func NewServer(
	fs storage.FileSystem,
	apps storage.AppStore,
	cfg *ServerConfig) (s *Server) {
	config := cfg.withDefaults()

	if fs == nil {
		fs = &storage.NotImplementedFileSystem{}
	}

	if apps == nil {
		apps = &storage.NotImplementedAppStore{}
	}

	s = &Server{
		fs:          fs,
		apps:        apps,
		clock:       config.Clock,
		tracer:      otel.Tracer(config.TracerName),
		errorLogger: config.ErrorLogger,
		debugLogger: config.DebugLogger,
		legacy:      config.LegacyMode,
		maxVersion:  config.MaxVersion,
	}

	return
}

// Create a session at version 1 with no transfer, for use with ServeSession
// or HandlePacket.
func (s *Server) NewSession() *Session {
	return newSession(s.maxVersion, s.errorLogger)
}

// Serve the connection with a fresh session. See ServeSession.
func (s *Server) Serve(ctx context.Context, c *Connection) error {
	return s.ServeSession(ctx, s.NewSession(), c)
}

// Serve the connection by repeatedly reading packets and writing the
// responses they call for, one at a time, against sess. Return nil when the
// peer closes the stream, or an error if the transport fails. Either way, a
// transfer still in progress in sess is aborted.
//
// A session must not be served by more than one connection at a time.
func (s *Server) ServeSession(
	ctx context.Context,
	sess *Session,
	c *Connection) (err error) {
	defer sess.Abort(ctx)

	for {
		var p *wire.Packet
		p, err = c.ReadPacket()

		// ReadPacket returns EOF when the peer has closed the stream.
		if err == io.EOF {
			err = nil
			return
		}

		// Otherwise, forward on errors.
		if err != nil {
			err = fmt.Errorf("ReadPacket: %w", err)
			return
		}

		reply := s.HandlePacket(ctx, sess, p)
		if reply == nil {
			continue
		}

		if err = c.WritePacket(reply); err != nil {
			err = fmt.Errorf("WritePacket: %w", err)
			return
		}
	}
}

// Handle a single inbound packet against sess, returning the packet to send
// in reply or nil if nothing should be sent.
func (s *Server) HandlePacket(
	ctx context.Context,
	sess *Session,
	p *wire.Packet) *wire.Packet {
	switch {
	case p.Sync:
		sess.Sync(ctx)
		metrics.RecordSync()

		// The echo marks the boundary; anything the peer receives after it
		// answers requests sent after the sync.
		return &wire.Packet{Serial: p.Serial, Sync: true}

	case p.Request != nil:
		return &wire.Packet{
			Serial:   p.Serial,
			Response: s.dispatch(ctx, sess, p.Serial, p.Request),
		}

	default:
		// Responses and empty packets have nothing to answer.
		s.debugLogger.Printf("Ignoring #%d: not a request", p.Serial)
		return nil
	}
}
