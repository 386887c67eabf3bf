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

package badgelinktesting

import (
	"fmt"
	"hash/crc32"

	"github.com/badgelink/badgelink/wire"
)

// Return the checksum BadgeLink uses for transfers.
func Checksum(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// Run an upload: send start, then data in chunks of at most chunkSize bytes,
// then XferFinish. Return the status of the first response that is not
// StatusOk, or of the finish.
//
// A chunkSize of zero means wire.MaxChunkSize.
func (c *Client) Upload(
	start wire.Request,
	data []byte,
	chunkSize int) (status wire.StatusCode, err error) {
	if chunkSize <= 0 || chunkSize > wire.MaxChunkSize {
		chunkSize = wire.MaxChunkSize
	}

	resp, err := c.Send(start)
	if err != nil || resp.StatusCode != wire.StatusOk {
		status = statusOf(resp)
		return
	}

	for pos := 0; pos < len(data); pos += chunkSize {
		end := pos + chunkSize
		if end > len(data) {
			end = len(data)
		}

		resp, err = c.Send(&wire.Chunk{Position: uint32(pos), Data: data[pos:end]})
		if err != nil || resp.StatusCode != wire.StatusOk {
			status = statusOf(resp)
			return
		}
	}

	resp, err = c.Send(&wire.XferCtrlReq{Ctrl: wire.XferFinish})
	status = statusOf(resp)
	return
}

func statusOf(resp *wire.Response) wire.StatusCode {
	if resp == nil {
		return wire.StatusInternalError
	}

	return resp.StatusCode
}

// The responses seen during a download, and the bytes received.
type Download struct {
	Start  *wire.Response
	Data   []byte
	Finish *wire.Response
}

// The size and checksum reported by the start response.
func (d *Download) StartCRC() (size uint32, crc uint32) {
	return crcOf(d.Start)
}

// The size and checksum reported by the finish response. Both are zero when
// the finish carried a bare status.
func (d *Download) FinishCRC() (size uint32, crc uint32) {
	return crcOf(d.Finish)
}

func crcOf(resp *wire.Response) (size uint32, crc uint32) {
	if resp == nil {
		return
	}

	switch b := resp.Body.(type) {
	case *wire.FsActionResp:
		size = b.Size
		if v, ok := b.Val.(*wire.CRC32); ok {
			crc = v.Value
		}

	case *wire.AppfsActionResp:
		size = b.Size
		if v, ok := b.Val.(*wire.CRC32); ok {
			crc = v.Value
		}
	}

	return
}

// Run a download: send start, then XferContinue until the reported size has
// been received, then XferFinish. If the start fails, return with only
// d.Start set.
func (c *Client) Download(start wire.Request) (d *Download, err error) {
	d = &Download{}

	if d.Start, err = c.Send(start); err != nil {
		return
	}

	if d.Start.StatusCode != wire.StatusOk {
		return
	}

	size, _ := d.StartCRC()
	for uint32(len(d.Data)) < size {
		var resp *wire.Response
		resp, err = c.Send(&wire.XferCtrlReq{Ctrl: wire.XferContinue})
		if err != nil {
			return
		}

		chunk, ok := resp.Body.(*wire.Chunk)
		if resp.StatusCode != wire.StatusOk || !ok {
			err = fmt.Errorf("XferContinue: unexpected response %v", resp)
			return
		}

		if chunk.Position != uint32(len(d.Data)) {
			err = fmt.Errorf(
				"XferContinue: chunk at %d, expected %d",
				chunk.Position,
				len(d.Data))
			return
		}

		// A short object yields an empty chunk; stop rather than spin.
		if len(chunk.Data) == 0 {
			break
		}

		d.Data = append(d.Data, chunk.Data...)
	}

	d.Finish, err = c.Send(&wire.XferCtrlReq{Ctrl: wire.XferFinish})
	return
}
