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
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// An error returned by DecodePacket for truncated, invalid, or out-of-bounds
// input.
type DecodeError struct {
	// The message and field being decoded, e.g. "FsActionReq" and "path".
	// Field is empty for errors in the message framing itself.
	Message string
	Field   string

	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode %s: %s", e.Message, e.Reason)
	}

	return fmt.Sprintf("decode %s.%s: %s", e.Message, e.Field, e.Reason)
}

// Decode a single packet. Oneof semantics are honoured: when more than one
// member of a oneof is present, the last one wins and the others are
// discarded. Request tags that are not part of the catalogue decode to
// *UnknownReq.
func DecodePacket(b []byte) (p *Packet, err error) {
	if len(b) > MaxPacketSize {
		err = &DecodeError{
			Message: "Packet",
			Reason:  fmt.Sprintf("%d bytes exceeds %d", len(b), MaxPacketSize),
		}
		return
	}

	p = &Packet{}
	r := fieldReader{msg: "Packet", b: b}
	for r.next() {
		switch r.num {
		case 1:
			p.Serial = r.uint32("serial")

		case 2:
			m := r.bytes("request")
			if r.err != nil {
				break
			}

			var req Request
			if req, err = decodeRequest(m); err != nil {
				p = nil
				return
			}

			p.Request, p.Response, p.Sync = req, nil, false

		case 3:
			m := r.bytes("response")
			if r.err != nil {
				break
			}

			var resp *Response
			if resp, err = decodeResponse(m); err != nil {
				p = nil
				return
			}

			p.Request, p.Response, p.Sync = nil, resp, false

		case 4:
			sync := r.bool("sync")
			p.Request, p.Response, p.Sync = nil, nil, sync

		default:
			r.skip()
		}
	}

	if r.err != nil {
		p = nil
		err = r.err
		return
	}

	return
}

////////////////////////////////////////////////////////////////////////
// fieldReader
////////////////////////////////////////////////////////////////////////

// A cursor over the fields of a single encoded message. Errors are sticky:
// after the first one, next returns false and r.err is set.
type fieldReader struct {
	msg string
	b   []byte

	// The current field.
	num protowire.Number
	typ protowire.Type

	err error
}

func (r *fieldReader) fail(field string, format string, v ...interface{}) {
	if r.err == nil {
		r.err = &DecodeError{
			Message: r.msg,
			Field:   field,
			Reason:  fmt.Sprintf(format, v...),
		}
	}
}

// Advance to the next field, returning false at the end of the message or on
// error.
func (r *fieldReader) next() bool {
	if r.err != nil || len(r.b) == 0 {
		return false
	}

	num, typ, n := protowire.ConsumeTag(r.b)
	if n < 0 {
		r.fail("", "tag: %v", protowire.ParseError(n))
		return false
	}

	r.b = r.b[n:]
	r.num = num
	r.typ = typ

	return true
}

// Skip the value of the current field.
func (r *fieldReader) skip() {
	n := protowire.ConsumeFieldValue(r.num, r.typ, r.b)
	if n < 0 {
		r.fail("", "field %d: %v", r.num, protowire.ParseError(n))
		return
	}

	r.b = r.b[n:]
}

func (r *fieldReader) varint(field string) (v uint64) {
	if r.typ != protowire.VarintType {
		r.fail(field, "wire type %d, want varint", r.typ)
		return
	}

	v, n := protowire.ConsumeVarint(r.b)
	if n < 0 {
		r.fail(field, "%v", protowire.ParseError(n))
		return
	}

	r.b = r.b[n:]
	return
}

func (r *fieldReader) uint32(field string) uint32 {
	v := r.varint(field)
	if v > math.MaxUint32 {
		r.fail(field, "%d overflows uint32", v)
		return 0
	}

	return uint32(v)
}

func (r *fieldReader) uint16(field string) uint16 {
	v := r.varint(field)
	if v > math.MaxUint16 {
		r.fail(field, "%d overflows uint16", v)
		return 0
	}

	return uint16(v)
}

func (r *fieldReader) int32(field string) int32 {
	// Enums are encoded as sign-extended varints.
	return int32(r.varint(field))
}

func (r *fieldReader) bool(field string) bool {
	return protowire.DecodeBool(r.varint(field))
}

func (r *fieldReader) bytes(field string) (v []byte) {
	if r.typ != protowire.BytesType {
		r.fail(field, "wire type %d, want bytes", r.typ)
		return
	}

	v, n := protowire.ConsumeBytes(r.b)
	if n < 0 {
		r.fail(field, "%v", protowire.ParseError(n))
		return
	}

	r.b = r.b[n:]
	return
}

// Read a string field of at most max bytes.
func (r *fieldReader) string(field string, max int) string {
	v := r.bytes(field)
	if len(v) > max {
		r.fail(field, "%d bytes exceeds %d", len(v), max)
		return ""
	}

	return string(v)
}

////////////////////////////////////////////////////////////////////////
// Messages
////////////////////////////////////////////////////////////////////////

func decodeRequest(b []byte) (req Request, err error) {
	r := fieldReader{msg: "Request", b: b}
	for r.next() {
		switch r.num {
		case 1:
			m := r.bytes("upload_chunk")
			if r.err == nil {
				var c *Chunk
				if c, err = decodeChunk(m); err != nil {
					return
				}
				req = c
			}

		case 4:
			m := r.bytes("fs_action")
			if r.err == nil {
				if req, err = decodeFsActionReq(m); err != nil {
					return
				}
			}

		case 5:
			m := r.bytes("appfs_action")
			if r.err == nil {
				if req, err = decodeAppfsActionReq(m); err != nil {
					return
				}
			}

		case 6:
			req = &XferCtrlReq{Ctrl: XferCtrl(r.int32("xfer_ctrl"))}

		case 7:
			m := r.bytes("version_req")
			if r.err == nil {
				vr := fieldReader{msg: "VersionReq", b: m}
				v := &VersionReq{}
				for vr.next() {
					if vr.num == 1 {
						v.ClientVersion = vr.uint16("client_version")
					} else {
						vr.skip()
					}
				}

				if err = vr.err; err != nil {
					return
				}
				req = v
			}

		default:
			req = &UnknownReq{Tag: r.num}
			r.skip()
		}
	}

	err = r.err
	if err == nil && req == nil {
		// An empty request selects nothing we know how to serve.
		req = &UnknownReq{}
	}

	return
}

func decodeChunk(b []byte) (c *Chunk, err error) {
	c = &Chunk{}
	r := fieldReader{msg: "Chunk", b: b}
	for r.next() {
		switch r.num {
		case 1:
			c.Position = r.uint32("position")

		case 2:
			data := r.bytes("data")
			if len(data) > MaxChunkSize {
				r.fail("data", "%d bytes exceeds %d", len(data), MaxChunkSize)
				break
			}

			c.Data = append([]byte(nil), data...)

		default:
			r.skip()
		}
	}

	err = r.err
	return
}

func decodeFsActionReq(b []byte) (req *FsActionReq, err error) {
	req = &FsActionReq{}
	r := fieldReader{msg: "FsActionReq", b: b}
	for r.next() {
		switch r.num {
		case 1:
			req.Type = FsActionType(r.int32("type"))
		case 2:
			req.Path = r.string("path", MaxPathLen)
		case 3:
			req.Size = r.uint32("size")
		case 4:
			req.Crc32 = r.uint32("crc32")
		case 5:
			req.ListOffset = r.uint32("list_offset")
		default:
			r.skip()
		}
	}

	err = r.err
	return
}

func decodeAppfsMetadata(b []byte) (m *AppfsMetadata, err error) {
	m = &AppfsMetadata{}
	r := fieldReader{msg: "AppfsMetadata", b: b}
	for r.next() {
		switch r.num {
		case 1:
			m.Slug = r.string("slug", MaxSlugLen)
		case 2:
			m.Title = r.string("title", MaxTitleLen)
		case 3:
			m.Version = r.uint16("version")
		case 4:
			m.Size = r.uint32("size")
		default:
			r.skip()
		}
	}

	err = r.err
	return
}

func decodeAppfsActionReq(b []byte) (req *AppfsActionReq, err error) {
	req = &AppfsActionReq{}
	r := fieldReader{msg: "AppfsActionReq", b: b}
	for r.next() {
		switch r.num {
		case 1:
			req.Type = AppfsActionType(r.int32("type"))

		case 2:
			m := r.bytes("metadata")
			if r.err == nil {
				if req.Metadata, err = decodeAppfsMetadata(m); err != nil {
					return
				}
				req.Slug = ""
			}

		case 3:
			req.Slug = r.string("slug", MaxSlugLen)
			req.Metadata = nil

		case 4:
			req.Crc32 = r.uint32("crc32")

		case 5:
			req.ListOffset = r.uint32("list_offset")

		default:
			r.skip()
		}
	}

	err = r.err
	return
}

func decodeResponse(b []byte) (resp *Response, err error) {
	resp = &Response{}
	r := fieldReader{msg: "Response", b: b}
	for r.next() {
		switch r.num {
		case 1:
			resp.StatusCode = StatusCode(r.int32("status_code"))

		case 2:
			m := r.bytes("download_chunk")
			if r.err == nil {
				var c *Chunk
				if c, err = decodeChunk(m); err != nil {
					return
				}
				resp.Body = c
			}

		case 3:
			m := r.bytes("fs_resp")
			if r.err == nil {
				var fr *FsActionResp
				if fr, err = decodeFsActionResp(m); err != nil {
					return
				}
				resp.Body = fr
			}

		case 4:
			m := r.bytes("appfs_resp")
			if r.err == nil {
				var ar *AppfsActionResp
				if ar, err = decodeAppfsActionResp(m); err != nil {
					return
				}
				resp.Body = ar
			}

		case 6:
			m := r.bytes("version_resp")
			if r.err == nil {
				vr := fieldReader{msg: "VersionResp", b: m}
				v := &VersionResp{}
				for vr.next() {
					switch vr.num {
					case 1:
						v.ServerVersion = vr.uint16("server_version")
					case 2:
						v.NegotiatedVersion = vr.uint16("negotiated_version")
					default:
						vr.skip()
					}
				}

				if err = vr.err; err != nil {
					return
				}
				resp.Body = v
			}

		default:
			r.skip()
		}
	}

	err = r.err
	return
}

func decodeFsActionResp(b []byte) (resp *FsActionResp, err error) {
	resp = &FsActionResp{}
	r := fieldReader{msg: "FsActionResp", b: b}
	for r.next() {
		switch r.num {
		case 1:
			m := r.bytes("stat")
			if r.err == nil {
				st := &FsStat{}
				sr := fieldReader{msg: "FsStat", b: m}
				for sr.next() {
					switch sr.num {
					case 1:
						st.Size = sr.varint("size")
					case 2:
						st.Mtime = sr.varint("mtime")
					case 3:
						st.Ctime = sr.varint("ctime")
					case 4:
						st.Atime = sr.varint("atime")
					case 5:
						st.IsDir = sr.bool("is_dir")
					default:
						sr.skip()
					}
				}

				if err = sr.err; err != nil {
					return
				}
				resp.Val = st
			}

		case 2:
			m := r.bytes("list")
			if r.err == nil {
				var l *FsDirentList
				if l, err = decodeFsDirentList(m); err != nil {
					return
				}
				resp.Val = l
			}

		case 3:
			resp.Val = &CRC32{Value: r.uint32("crc32")}

		case 5:
			resp.Size = r.uint32("size")

		default:
			r.skip()
		}
	}

	err = r.err
	return
}

func decodeFsDirentList(b []byte) (l *FsDirentList, err error) {
	l = &FsDirentList{}
	r := fieldReader{msg: "FsDirentList", b: b}
	for r.next() {
		switch r.num {
		case 1:
			m := r.bytes("list")
			if r.err != nil {
				break
			}

			if len(l.Entries) == MaxListEntries {
				r.fail("list", "more than %d entries", MaxListEntries)
				break
			}

			var e FsDirent
			er := fieldReader{msg: "FsDirent", b: m}
			for er.next() {
				switch er.num {
				case 1:
					e.Name = er.string("name", MaxNameLen)
				case 2:
					e.IsDir = er.bool("is_dir")
				default:
					er.skip()
				}
			}

			if err = er.err; err != nil {
				return
			}
			l.Entries = append(l.Entries, e)

		case 2:
			l.TotalSize = r.uint32("total_size")

		default:
			r.skip()
		}
	}

	err = r.err
	return
}

func decodeAppfsActionResp(b []byte) (resp *AppfsActionResp, err error) {
	resp = &AppfsActionResp{}
	r := fieldReader{msg: "AppfsActionResp", b: b}
	for r.next() {
		switch r.num {
		case 1:
			m := r.bytes("metadata")
			if r.err == nil {
				var md *AppfsMetadata
				if md, err = decodeAppfsMetadata(m); err != nil {
					return
				}
				resp.Val = md
			}

		case 2:
			m := r.bytes("list")
			if r.err != nil {
				break
			}

			l := &AppfsMetaList{}
			lr := fieldReader{msg: "AppfsMetaList", b: m}
			for lr.next() {
				switch lr.num {
				case 1:
					em := lr.bytes("list")
					if lr.err != nil {
						break
					}

					if len(l.Entries) == MaxListEntries {
						lr.fail("list", "more than %d entries", MaxListEntries)
						break
					}

					var md *AppfsMetadata
					if md, err = decodeAppfsMetadata(em); err != nil {
						return
					}
					l.Entries = append(l.Entries, *md)

				case 2:
					l.TotalSize = lr.uint32("total_size")

				default:
					lr.skip()
				}
			}

			if err = lr.err; err != nil {
				return
			}
			resp.Val = l

		case 3:
			resp.Val = &CRC32{Value: r.uint32("crc32")}

		case 5:
			resp.Size = r.uint32("size")

		default:
			r.skip()
		}
	}

	err = r.err
	return
}
