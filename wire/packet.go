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

package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// A single unit of the protocol. At most one of Request, Response and Sync is
// set; if more than one is, EncodePacket prefers Sync, then Request.
type Packet struct {
	// Chosen by the host for requests and echoed by the device in the
	// matching response.
	Serial uint32

	Request  Request
	Response *Response

	// A sync marker, resetting the session of the receiving device.
	Sync bool
}

func (p *Packet) String() string {
	switch {
	case p.Sync:
		return fmt.Sprintf("#%d sync", p.Serial)
	case p.Request != nil:
		return fmt.Sprintf("#%d %v", p.Serial, p.Request)
	case p.Response != nil:
		return fmt.Sprintf("#%d %v", p.Serial, p.Response)
	default:
		return fmt.Sprintf("#%d empty", p.Serial)
	}
}

////////////////////////////////////////////////////////////////////////
// Requests
////////////////////////////////////////////////////////////////////////

// A request sent by the host. The set of implementations is closed; see the
// package documentation.
type Request interface {
	requestKind() string
}

// Return a short, stable name for the request's type suitable for use in
// logs and metric labels, e.g. "FsAction.Upload".
func RequestKind(r Request) string {
	if r == nil {
		return "None"
	}

	return r.requestKind()
}

// Ask the device which protocol version it speaks.
type VersionReq struct {
	ClientVersion uint16
}

func (r *VersionReq) requestKind() string { return "Version" }

// A filesystem action.
type FsActionReq struct {
	Type FsActionType
	Path string

	// Upload only: the size of the file and the CRC32 of its contents.
	Size  uint32
	Crc32 uint32

	// List only: the number of matching entries to skip.
	ListOffset uint32
}

func (r *FsActionReq) requestKind() string { return "FsAction." + r.Type.String() }

func (r *FsActionReq) String() string {
	return fmt.Sprintf(
		"FsAction{%v %q size=%d crc32=%08x offset=%d}",
		r.Type,
		r.Path,
		r.Size,
		r.Crc32,
		r.ListOffset)
}

// An app-storage action. Uploads identify their target with Metadata; all
// other actions use Slug.
type AppfsActionReq struct {
	Type AppfsActionType

	Metadata *AppfsMetadata
	Slug     string

	// Upload only: the CRC32 of the app's contents.
	Crc32 uint32

	// List only: the number of apps to skip.
	ListOffset uint32
}

func (r *AppfsActionReq) requestKind() string { return "AppfsAction." + r.Type.String() }

// Return the slug the action refers to, wherever it was specified.
func (r *AppfsActionReq) Target() string {
	if r.Metadata != nil {
		return r.Metadata.Slug
	}

	return r.Slug
}

func (r *AppfsActionReq) String() string {
	return fmt.Sprintf(
		"AppfsAction{%v %q crc32=%08x offset=%d}",
		r.Type,
		r.Target(),
		r.Crc32,
		r.ListOffset)
}

// A transfer control command.
type XferCtrlReq struct {
	Ctrl XferCtrl
}

func (r *XferCtrlReq) requestKind() string { return "Xfer." + r.Ctrl.String() }

// A request whose tag is not part of the catalogue.
type UnknownReq struct {
	Tag protowire.Number
}

func (r *UnknownReq) requestKind() string { return "Unknown" }

////////////////////////////////////////////////////////////////////////
// Responses
////////////////////////////////////////////////////////////////////////

// A response sent by the device. Body is nil for status-only responses.
type Response struct {
	StatusCode StatusCode
	Body       ResponseBody
}

// Create a response carrying nothing but the supplied status.
func StatusOnly(code StatusCode) *Response {
	return &Response{StatusCode: code}
}

func (r *Response) String() string {
	if r.Body == nil {
		return r.StatusCode.String()
	}

	return fmt.Sprintf("%v %v", r.StatusCode, r.Body)
}

// The payload of a response. Implemented by *Chunk, *FsActionResp,
// *AppfsActionResp and *VersionResp.
type ResponseBody interface {
	isResponseBody()
}

type VersionResp struct {
	ServerVersion     uint16
	NegotiatedVersion uint16
}

func (*VersionResp) isResponseBody() {}

// A slice of transfer payload tagged with its byte offset. Used both as an
// upload request and as a download response.
type Chunk struct {
	Position uint32
	Data     []byte
}

func (*Chunk) requestKind() string { return "UploadChunk" }
func (*Chunk) isResponseBody()     {}

func (c *Chunk) String() string {
	return fmt.Sprintf("Chunk{position=%d len=%d}", c.Position, len(c.Data))
}

type FsActionResp struct {
	// One of *FsStat, *FsDirentList and *CRC32.
	Val FsValue

	// Download only: the size of the file being transferred.
	Size uint32
}

func (*FsActionResp) isResponseBody() {}

func (r *FsActionResp) String() string {
	return fmt.Sprintf("FsResp{%v size=%d}", r.Val, r.Size)
}

type FsValue interface {
	isFsValue()
}

// Times are in milliseconds since the epoch.
type FsStat struct {
	Size  uint64
	Mtime uint64
	Ctime uint64
	Atime uint64
	IsDir bool
}

func (*FsStat) isFsValue() {}

type FsDirent struct {
	Name  string
	IsDir bool
}

type FsDirentList struct {
	// At most MaxListEntries entries.
	Entries []FsDirent

	// The number of matching entries in the directory, regardless of
	// pagination.
	TotalSize uint32
}

func (*FsDirentList) isFsValue() {}

// The number of entries carried by this response.
func (l *FsDirentList) ListCount() uint32 {
	return uint32(len(l.Entries))
}

func (l *FsDirentList) String() string {
	return fmt.Sprintf("List{count=%d total=%d}", len(l.Entries), l.TotalSize)
}

// A checksum, in either action response.
type CRC32 struct {
	Value uint32
}

func (*CRC32) isFsValue()    {}
func (*CRC32) isAppfsValue() {}

func (c *CRC32) String() string {
	return fmt.Sprintf("crc32=%08x", c.Value)
}

type AppfsActionResp struct {
	// One of *AppfsMetadata, *AppfsMetaList and *CRC32.
	Val AppfsValue

	// Download and Stat: the size of the app.
	Size uint32
}

func (*AppfsActionResp) isResponseBody() {}

func (r *AppfsActionResp) String() string {
	return fmt.Sprintf("AppfsResp{%v size=%d}", r.Val, r.Size)
}

type AppfsValue interface {
	isAppfsValue()
}

type AppfsMetadata struct {
	Slug    string
	Title   string
	Version uint16
	Size    uint32
}

func (*AppfsMetadata) isAppfsValue() {}

type AppfsMetaList struct {
	// At most MaxListEntries entries.
	Entries []AppfsMetadata

	// The number of apps installed, regardless of pagination.
	TotalSize uint32
}

func (*AppfsMetaList) isAppfsValue() {}

func (l *AppfsMetaList) ListCount() uint32 {
	return uint32(len(l.Entries))
}
