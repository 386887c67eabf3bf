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

	"github.com/badgelink/badgelink/internal/metrics"
	"github.com/badgelink/badgelink/wire"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Handle a single request on behalf of sess, returning the response to send.
// The session lock is held throughout.
//
// LOCKS_EXCLUDED(sess.mu)
func (s *Server) dispatch(
	ctx context.Context,
	sess *Session,
	serial uint32,
	req wire.Request) (resp *wire.Response) {
	kind := wire.RequestKind(req)
	start := s.clock.Now()

	ctx, span := s.tracer.Start(
		ctx,
		"badgelink."+kind,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.Int64("badgelink.serial", int64(serial))))
	defer span.End()

	sess.mu.Lock()
	resp = s.handleRequest(ctx, sess, req)
	sess.mu.Unlock()

	status := resp.StatusCode.String()
	span.SetAttributes(attribute.String("badgelink.status", status))
	if resp.StatusCode == wire.StatusOk {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, status)
	}

	metrics.RecordRequest(kind, status, s.clock.Now().Sub(start))
	return
}

// LOCKS_REQUIRED(sess.mu)
func (s *Server) handleRequest(
	ctx context.Context,
	sess *Session,
	req wire.Request) *wire.Response {
	switch typed := req.(type) {
	default:
		return wire.StatusOnly(wire.StatusNotSupported)

	case *wire.VersionReq:
		return s.handleVersion(sess, typed)

	case *wire.FsActionReq:
		return s.handleFsAction(ctx, sess, typed)

	case *wire.AppfsActionReq:
		return s.handleAppfsAction(ctx, sess, typed)

	case *wire.Chunk:
		return s.uploadChunk(ctx, sess, typed)

	case *wire.XferCtrlReq:
		switch typed.Ctrl {
		case wire.XferContinue:
			return s.downloadChunk(ctx, sess)

		case wire.XferFinish:
			return s.finishTransfer(ctx, sess)

		default:
			return wire.StatusOnly(wire.StatusNotSupported)
		}
	}
}

// LOCKS_REQUIRED(sess.mu)
func (s *Server) handleVersion(
	sess *Session,
	req *wire.VersionReq) *wire.Response {
	// Firmware predating negotiation does not recognise the request at all.
	if s.legacy {
		return wire.StatusOnly(wire.StatusNotSupported)
	}

	server, negotiated := sess.negotiate(req.ClientVersion)
	s.debugLogger.Printf(
		"Negotiated version %d (client %d, server %d)",
		negotiated,
		req.ClientVersion,
		server)

	return &wire.Response{
		Body: &wire.VersionResp{
			ServerVersion:     server,
			NegotiatedVersion: negotiated,
		},
	}
}
