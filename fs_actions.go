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
	"time"

	"github.com/badgelink/badgelink/storage"
	"github.com/badgelink/badgelink/wire"
)

// LOCKS_REQUIRED(sess.mu)
func (s *Server) handleFsAction(
	ctx context.Context,
	sess *Session,
	req *wire.FsActionReq) *wire.Response {
	switch req.Type {
	case wire.FsActionList:
		return s.fsList(ctx, req)

	case wire.FsActionDelete:
		op := &storage.UnlinkOp{Path: req.Path}
		return wire.StatusOnly(s.statusFor(s.fs.Unlink(ctx, op), "Unlink"))

	case wire.FsActionMkdir:
		op := &storage.MkDirOp{Path: req.Path}
		return wire.StatusOnly(s.statusFor(s.fs.MkDir(ctx, op), "MkDir"))

	case wire.FsActionRmdir:
		op := &storage.RmDirOp{Path: req.Path}
		return wire.StatusOnly(s.statusFor(s.fs.RmDir(ctx, op), "RmDir"))

	case wire.FsActionStat:
		return s.fsStat(ctx, req)

	case wire.FsActionUpload:
		return s.fsUpload(ctx, sess, req)

	case wire.FsActionDownload:
		return s.fsDownload(ctx, sess, req)

	default:
		// Including Crc32 and GetUsage, which the device firmware declares but
		// never implemented.
		return wire.StatusOnly(wire.StatusNotSupported)
	}
}

// Convert to milliseconds since the epoch, mapping the zero time to zero.
func toMillis(t time.Time) uint64 {
	if t.IsZero() || t.Before(time.Unix(0, 0)) {
		return 0
	}

	return uint64(t.UnixMilli())
}

////////////////////////////////////////////////////////////////////////
// Stateless actions
////////////////////////////////////////////////////////////////////////

func (s *Server) fsList(
	ctx context.Context,
	req *wire.FsActionReq) *wire.Response {
	op := &storage.ReadDirOp{Path: req.Path}
	if err := s.fs.ReadDir(ctx, op); err != nil {
		return wire.StatusOnly(s.statusFor(err, "ReadDir"))
	}

	list := &wire.FsDirentList{}
	var matched uint32
	for _, e := range op.Entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}

		// Skip the first ListOffset matches, then fill the response up to its
		// capacity. Keep counting regardless.
		if matched >= req.ListOffset && len(list.Entries) < wire.MaxListEntries {
			list.Entries = append(list.Entries, wire.FsDirent{
				Name:  e.Name,
				IsDir: e.IsDir,
			})
		}

		matched++
	}

	list.TotalSize = matched
	return &wire.Response{Body: &wire.FsActionResp{Val: list}}
}

func (s *Server) fsStat(
	ctx context.Context,
	req *wire.FsActionReq) *wire.Response {
	op := &storage.StatOp{Path: req.Path}
	if err := s.fs.Stat(ctx, op); err != nil {
		return wire.StatusOnly(s.statusFor(err, "Stat"))
	}

	attrs := &op.Attributes
	return &wire.Response{
		Body: &wire.FsActionResp{
			Val: &wire.FsStat{
				Size:  attrs.Size,
				Mtime: toMillis(attrs.Mtime),
				Ctime: toMillis(attrs.Ctime),
				Atime: toMillis(attrs.Atime),
				IsDir: attrs.IsDir,
			},
		},
	}
}

////////////////////////////////////////////////////////////////////////
// Transfers
////////////////////////////////////////////////////////////////////////

// LOCKS_REQUIRED(sess.mu)
func (s *Server) fsUpload(
	ctx context.Context,
	sess *Session,
	req *wire.FsActionReq) *wire.Response {
	if sess.xfer != nil {
		return wire.StatusOnly(wire.StatusIllState)
	}

	op := &storage.CreateFileOp{
		Path:     req.Path,
		SizeHint: req.Size,
	}

	if err := s.fs.CreateFile(ctx, op); err != nil {
		return wire.StatusOnly(s.statusFor(err, "CreateFile"))
	}

	path := req.Path
	s.beginTransfer(sess, &transfer{
		domain:      domainFS,
		upload:      true,
		target:      path,
		version:     sess.version,
		w:           op.Handle,
		size:        req.Size,
		expectedCRC: req.Crc32,
		remove: func(ctx context.Context) error {
			return s.fs.Unlink(ctx, &storage.UnlinkOp{Path: path})
		},
	})

	return wire.StatusOnly(wire.StatusOk)
}

// LOCKS_REQUIRED(sess.mu)
func (s *Server) fsDownload(
	ctx context.Context,
	sess *Session,
	req *wire.FsActionReq) *wire.Response {
	if sess.xfer != nil {
		return wire.StatusOnly(wire.StatusIllState)
	}

	op := &storage.OpenFileOp{Path: req.Path}
	if err := s.fs.OpenFile(ctx, op); err != nil {
		return wire.StatusOnly(s.statusFor(err, "OpenFile"))
	}

	x := &transfer{
		domain:  domainFS,
		target:  req.Path,
		version: sess.version,
		r:       op.Handle,
	}

	crc, status := s.prepareDownload(x, op.Size)
	if status != wire.StatusOk {
		return wire.StatusOnly(status)
	}

	s.beginTransfer(sess, x)
	return &wire.Response{
		Body: &wire.FsActionResp{
			Val:  &wire.CRC32{Value: crc},
			Size: x.size,
		},
	}
}
