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

	"github.com/badgelink/badgelink/storage"
	"github.com/badgelink/badgelink/wire"
)

// LOCKS_REQUIRED(sess.mu)
func (s *Server) handleAppfsAction(
	ctx context.Context,
	sess *Session,
	req *wire.AppfsActionReq) *wire.Response {
	switch req.Type {
	case wire.AppfsActionList:
		return s.appfsList(ctx, req)

	case wire.AppfsActionDelete:
		op := &storage.DeleteAppOp{Slug: req.Target()}
		return wire.StatusOnly(s.statusFor(s.apps.Delete(ctx, op), "Delete"))

	case wire.AppfsActionStat:
		return s.appfsStat(ctx, req)

	case wire.AppfsActionUpload:
		return s.appfsUpload(ctx, sess, req)

	case wire.AppfsActionDownload:
		return s.appfsDownload(ctx, sess, req)

	default:
		return wire.StatusOnly(wire.StatusNotSupported)
	}
}

func toWireMetadata(md *storage.AppMetadata) wire.AppfsMetadata {
	return wire.AppfsMetadata{
		Slug:    md.Slug,
		Title:   md.Title,
		Version: md.Version,
		Size:    md.Size,
	}
}

func (s *Server) appfsList(
	ctx context.Context,
	req *wire.AppfsActionReq) *wire.Response {
	op := &storage.ListAppsOp{}
	if err := s.apps.List(ctx, op); err != nil {
		return wire.StatusOnly(s.statusFor(err, "List"))
	}

	list := &wire.AppfsMetaList{
		TotalSize: uint32(len(op.Apps)),
	}

	for i := range op.Apps {
		if uint32(i) < req.ListOffset {
			continue
		}

		if len(list.Entries) == wire.MaxListEntries {
			break
		}

		list.Entries = append(list.Entries, toWireMetadata(&op.Apps[i]))
	}

	return &wire.Response{Body: &wire.AppfsActionResp{Val: list}}
}

func (s *Server) appfsStat(
	ctx context.Context,
	req *wire.AppfsActionReq) *wire.Response {
	op := &storage.StatAppOp{Slug: req.Target()}
	if err := s.apps.Stat(ctx, op); err != nil {
		return wire.StatusOnly(s.statusFor(err, "Stat"))
	}

	md := toWireMetadata(&op.Metadata)
	return &wire.Response{
		Body: &wire.AppfsActionResp{
			Val:  &md,
			Size: md.Size,
		},
	}
}

// LOCKS_REQUIRED(sess.mu)
func (s *Server) appfsUpload(
	ctx context.Context,
	sess *Session,
	req *wire.AppfsActionReq) *wire.Response {
	if sess.xfer != nil {
		return wire.StatusOnly(wire.StatusIllState)
	}

	// The metadata names the app and says how large it is.
	if req.Metadata == nil {
		return wire.StatusOnly(wire.StatusMalformed)
	}

	md := req.Metadata
	op := &storage.CreateAppOp{
		Metadata: storage.AppMetadata{
			Slug:    md.Slug,
			Title:   md.Title,
			Version: md.Version,
			Size:    md.Size,
		},
	}

	if err := s.apps.Create(ctx, op); err != nil {
		return wire.StatusOnly(s.statusFor(err, "Create"))
	}

	slug := md.Slug
	s.beginTransfer(sess, &transfer{
		domain:      domainAppFS,
		upload:      true,
		target:      slug,
		version:     sess.version,
		w:           op.Handle,
		size:        md.Size,
		expectedCRC: req.Crc32,
		remove: func(ctx context.Context) error {
			return s.apps.Delete(ctx, &storage.DeleteAppOp{Slug: slug})
		},
	})

	return wire.StatusOnly(wire.StatusOk)
}

// LOCKS_REQUIRED(sess.mu)
func (s *Server) appfsDownload(
	ctx context.Context,
	sess *Session,
	req *wire.AppfsActionReq) *wire.Response {
	if sess.xfer != nil {
		return wire.StatusOnly(wire.StatusIllState)
	}

	op := &storage.OpenAppOp{Slug: req.Target()}
	if err := s.apps.Open(ctx, op); err != nil {
		return wire.StatusOnly(s.statusFor(err, "Open"))
	}

	x := &transfer{
		domain:  domainAppFS,
		target:  op.Slug,
		version: sess.version,
		r:       op.Handle,
	}

	crc, status := s.prepareDownload(x, uint64(op.Metadata.Size))
	if status != wire.StatusOk {
		return wire.StatusOnly(status)
	}

	s.beginTransfer(sess, x)
	return &wire.Response{
		Body: &wire.AppfsActionResp{
			Val:  &wire.CRC32{Value: crc},
			Size: x.size,
		},
	}
}
