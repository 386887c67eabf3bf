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
	"hash/crc32"
	"io"
	"math"

	"github.com/badgelink/badgelink/internal/metrics"
	"github.com/badgelink/badgelink/storage"
	"github.com/badgelink/badgelink/wire"
)

// The backend a transfer moves data to or from.
type domain int

const (
	domainFS domain = iota
	domainAppFS
)

func (d domain) String() string {
	switch d {
	case domainFS:
		return "fs"
	case domainAppFS:
		return "appfs"
	default:
		return fmt.Sprintf("domain(%d)", int(d))
	}
}

// A single in-flight upload or download. Chunks move strictly sequentially;
// the position field carried by upload chunks is not consulted.
type transfer struct {
	domain domain
	upload bool

	// The path or slug being transferred.
	target string

	// The version negotiated when the transfer started. Later negotiation
	// does not change how it finishes.
	version uint16

	// Exactly one of w and r is set: w for uploads, r for downloads.
	w storage.WriteHandle
	r storage.ReadHandle

	// The total size of the object, and the number of bytes moved so far.
	//
	// INVARIANT: pos <= size
	size uint32
	pos  uint32

	// For uploads, the checksum announced by the client.
	expectedCRC uint32

	// The IEEE CRC-32 of the bytes moved so far. For downloads it is only
	// maintained on version 2 and above.
	runningCRC uint32

	// For uploads, removes the target. Used when the transfer fails.
	remove func(ctx context.Context) error
}

func (x *transfer) checkInvariants() {
	if (x.w != nil) != x.upload || (x.r != nil) == x.upload {
		panic(fmt.Sprintf("Unexpected handles for %v", x))
	}

	if x.upload && x.remove == nil {
		panic(fmt.Sprintf("No remove func for %v", x))
	}

	// INVARIANT: pos <= size
	if x.pos > x.size {
		panic(fmt.Sprintf("Position %d beyond size %d", x.pos, x.size))
	}
}

func (x *transfer) direction() string {
	if x.upload {
		return "upload"
	}

	return "download"
}

func (x *transfer) String() string {
	return fmt.Sprintf("%s %s of %q", x.domain, x.direction(), x.target)
}

func (x *transfer) close() error {
	if x.upload {
		return x.w.Close()
	}

	return x.r.Close()
}

////////////////////////////////////////////////////////////////////////
// Start
////////////////////////////////////////////////////////////////////////

// Install x as the active transfer.
//
// LOCKS_REQUIRED(sess.mu)
func (s *Server) beginTransfer(sess *Session, x *transfer) {
	sess.xfer = x
	s.debugLogger.Printf("Started %v (%d bytes, version %d)", x, x.size, x.version)
	metrics.RecordTransfer(x.domain.String(), x.direction(), "started")
}

// Prepare a download from r: work out the size and, on version 1, the
// checksum that goes in the start response. The caller supplies the size
// reported by the backend. On failure r is closed.
func (s *Server) prepareDownload(
	x *transfer,
	backendSize uint64) (crc uint32, status wire.StatusCode) {
	var size uint64
	var err error

	if x.version >= 2 {
		size = backendSize
	} else {
		// Read the whole object once to checksum it, then rewind.
		h := crc32.NewIEEE()
		var n int64
		if n, err = io.Copy(h, x.r); err != nil {
			err = fmt.Errorf("read: %w", err)
		} else if _, err = x.r.Seek(0, io.SeekStart); err != nil {
			err = fmt.Errorf("seek: %w", err)
		}

		size = uint64(n)
		crc = h.Sum32()
	}

	if err == nil && size > math.MaxUint32 {
		err = fmt.Errorf("%d bytes is too large to transfer", size)
	}

	if err != nil {
		s.errorLogger.Printf("%v: %v", x, err)
		if closeErr := x.r.Close(); closeErr != nil {
			s.errorLogger.Printf("%v: close: %v", x, closeErr)
		}

		status = wire.StatusInternalError
		return
	}

	x.size = uint32(size)
	return
}

////////////////////////////////////////////////////////////////////////
// Continue
////////////////////////////////////////////////////////////////////////

// Write an upload chunk at the current position.
//
// LOCKS_REQUIRED(sess.mu)
func (s *Server) uploadChunk(
	ctx context.Context,
	sess *Session,
	c *wire.Chunk) *wire.Response {
	x := sess.xfer
	if x == nil || !x.upload {
		return wire.StatusOnly(wire.StatusIllState)
	}

	if uint64(x.pos)+uint64(len(c.Data)) > uint64(x.size) {
		s.debugLogger.Printf(
			"%v: %d byte chunk at %d overruns size %d",
			x,
			len(c.Data),
			x.pos,
			x.size)

		return wire.StatusOnly(wire.StatusMalformed)
	}

	n, err := x.w.Write(c.Data)

	// Whatever reached the backend counts, so that the checksum at finish
	// reflects what is actually stored.
	x.runningCRC = crc32.Update(x.runningCRC, crc32.IEEETable, c.Data[:n])
	x.pos += uint32(n)
	metrics.RecordTransferBytes("upload", n)

	if err != nil {
		if storage.KindOf(err) == storage.NoSpace {
			return wire.StatusOnly(wire.StatusNoSpace)
		}

		s.errorLogger.Printf("%v: write: %v", x, err)
		return wire.StatusOnly(wire.StatusInternalError)
	}

	return wire.StatusOnly(wire.StatusOk)
}

// Read the next download chunk.
//
// LOCKS_REQUIRED(sess.mu)
func (s *Server) downloadChunk(ctx context.Context, sess *Session) *wire.Response {
	x := sess.xfer
	if x == nil || x.upload {
		return wire.StatusOnly(wire.StatusIllState)
	}

	want := x.size - x.pos
	if want > wire.MaxChunkSize {
		want = wire.MaxChunkSize
	}

	buf := make([]byte, want)
	n, err := io.ReadFull(x.r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		// The object shrank underneath us. Send what there is; the checksum
		// will tell the client.
		err = nil
	}

	if err != nil {
		s.errorLogger.Printf("%v: read: %v", x, err)
		return wire.StatusOnly(wire.StatusInternalError)
	}

	chunk := &wire.Chunk{
		Position: x.pos,
		Data:     buf[:n],
	}

	if x.version >= 2 {
		x.runningCRC = crc32.Update(x.runningCRC, crc32.IEEETable, chunk.Data)
	}

	x.pos += uint32(n)
	metrics.RecordTransferBytes("download", n)

	return &wire.Response{Body: chunk}
}

////////////////////////////////////////////////////////////////////////
// Finish
////////////////////////////////////////////////////////////////////////

// Close the active transfer. Uploads are verified against the checksum the
// client announced; a mismatch removes the target.
//
// LOCKS_REQUIRED(sess.mu)
func (s *Server) finishTransfer(ctx context.Context, sess *Session) *wire.Response {
	x := sess.xfer
	if x == nil {
		return wire.StatusOnly(wire.StatusIllState)
	}

	sess.xfer = nil
	closeErr := x.close()

	if x.upload {
		return s.finishUpload(ctx, x, closeErr)
	}

	return s.finishDownload(x, closeErr)
}

func (s *Server) finishUpload(
	ctx context.Context,
	x *transfer,
	closeErr error) *wire.Response {
	var err error
	outcome := "ok"

	switch {
	case closeErr != nil:
		err = fmt.Errorf("close: %w", closeErr)
		outcome = "failed"

	case x.runningCRC != x.expectedCRC:
		err = fmt.Errorf(
			"CRC32 mismatch; expected %08x, actual %08x",
			x.expectedCRC,
			x.runningCRC)
		outcome = "crc_mismatch"
	}

	metrics.RecordTransfer(x.domain.String(), x.direction(), outcome)

	if err == nil {
		s.debugLogger.Printf("Finished %v", x)
		return wire.StatusOnly(wire.StatusOk)
	}

	s.errorLogger.Printf("%v: %v", x, err)
	if removeErr := x.remove(ctx); removeErr != nil {
		s.errorLogger.Printf("%v: remove: %v", x, removeErr)
	}

	return wire.StatusOnly(wire.StatusInternalError)
}

func (s *Server) finishDownload(x *transfer, closeErr error) *wire.Response {
	// Every byte has already been sent, so a failure to close changes nothing
	// for the client.
	if closeErr != nil {
		s.errorLogger.Printf("%v: close: %v", x, closeErr)
	}

	s.debugLogger.Printf("Finished %v", x)
	metrics.RecordTransfer(x.domain.String(), x.direction(), "ok")

	if x.version < 2 {
		return wire.StatusOnly(wire.StatusOk)
	}

	// Let the client check its own running checksum against ours.
	crc := &wire.CRC32{Value: x.runningCRC}
	switch x.domain {
	case domainAppFS:
		return &wire.Response{Body: &wire.AppfsActionResp{Val: crc, Size: x.size}}
	default:
		return &wire.Response{Body: &wire.FsActionResp{Val: crc, Size: x.size}}
	}
}
