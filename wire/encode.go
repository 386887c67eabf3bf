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
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Encode the supplied packet. Strings exceeding their capacity are
// truncated, and chunk data and lists are cut to MaxChunkSize and
// MaxListEntries respectively.
func EncodePacket(p *Packet) []byte {
	return AppendPacket(nil, p)
}

// Like EncodePacket, but append to the supplied buffer.
func AppendPacket(b []byte, p *Packet) []byte {
	b = appendUint(b, 1, uint64(p.Serial))

	switch {
	case p.Sync:
		b = protowire.AppendTag(b, 4, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))

	case p.Request != nil:
		b = appendMessage(b, 2, appendRequest(nil, p.Request))

	case p.Response != nil:
		b = appendMessage(b, 3, appendResponse(nil, p.Response))
	}

	return b
}

////////////////////////////////////////////////////////////////////////
// Helpers
////////////////////////////////////////////////////////////////////////

// Append a scalar field with implicit presence, omitting zero values.
func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}

	return appendOneofUint(b, num, v)
}

// Append a scalar field that is a oneof member, and so always present.
func appendOneofUint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}

	return appendOneofUint(b, num, 1)
}

func appendString(b []byte, num protowire.Number, s string, max int) []byte {
	s = truncate(s, max)
	if s == "" {
		return b
	}

	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, m []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}

// Cut s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	n := max
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}

////////////////////////////////////////////////////////////////////////
// Messages
////////////////////////////////////////////////////////////////////////

func appendRequest(b []byte, r Request) []byte {
	switch typed := r.(type) {
	case *Chunk:
		b = appendMessage(b, 1, appendChunk(nil, typed))

	case *FsActionReq:
		m := appendUint(nil, 1, uint64(typed.Type))
		m = appendString(m, 2, typed.Path, MaxPathLen)
		m = appendUint(m, 3, uint64(typed.Size))
		m = appendUint(m, 4, uint64(typed.Crc32))
		m = appendUint(m, 5, uint64(typed.ListOffset))
		b = appendMessage(b, 4, m)

	case *AppfsActionReq:
		m := appendUint(nil, 1, uint64(typed.Type))
		if typed.Metadata != nil {
			m = appendMessage(m, 2, appendAppfsMetadata(nil, typed.Metadata))
		} else {
			m = appendString(m, 3, typed.Slug, MaxSlugLen)
		}
		m = appendUint(m, 4, uint64(typed.Crc32))
		m = appendUint(m, 5, uint64(typed.ListOffset))
		b = appendMessage(b, 5, m)

	case *XferCtrlReq:
		b = appendOneofUint(b, 6, uint64(typed.Ctrl))

	case *VersionReq:
		b = appendMessage(b, 7, appendUint(nil, 1, uint64(typed.ClientVersion)))

	case *UnknownReq:
		// Round-trip as an empty message so that peers see the same tag.
		b = appendMessage(b, typed.Tag, nil)
	}

	return b
}

func appendResponse(b []byte, r *Response) []byte {
	b = appendUint(b, 1, uint64(r.StatusCode))

	switch typed := r.Body.(type) {
	case *Chunk:
		b = appendMessage(b, 2, appendChunk(nil, typed))

	case *FsActionResp:
		b = appendMessage(b, 3, appendFsActionResp(nil, typed))

	case *AppfsActionResp:
		b = appendMessage(b, 4, appendAppfsActionResp(nil, typed))

	case *VersionResp:
		m := appendUint(nil, 1, uint64(typed.ServerVersion))
		m = appendUint(m, 2, uint64(typed.NegotiatedVersion))
		b = appendMessage(b, 6, m)
	}

	return b
}

func appendChunk(b []byte, c *Chunk) []byte {
	data := c.Data
	if len(data) > MaxChunkSize {
		data = data[:MaxChunkSize]
	}

	b = appendUint(b, 1, uint64(c.Position))
	if len(data) > 0 {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, data)
	}

	return b
}

func appendFsActionResp(b []byte, r *FsActionResp) []byte {
	switch v := r.Val.(type) {
	case *FsStat:
		m := appendUint(nil, 1, v.Size)
		m = appendUint(m, 2, v.Mtime)
		m = appendUint(m, 3, v.Ctime)
		m = appendUint(m, 4, v.Atime)
		m = appendBool(m, 5, v.IsDir)
		b = appendMessage(b, 1, m)

	case *FsDirentList:
		var m []byte
		for i, e := range v.Entries {
			if i == MaxListEntries {
				break
			}

			d := appendString(nil, 1, e.Name, MaxNameLen)
			d = appendBool(d, 2, e.IsDir)
			m = appendMessage(m, 1, d)
		}

		m = appendUint(m, 2, uint64(v.TotalSize))
		b = appendMessage(b, 2, m)

	case *CRC32:
		b = appendOneofUint(b, 3, uint64(v.Value))
	}

	return appendUint(b, 5, uint64(r.Size))
}

func appendAppfsMetadata(b []byte, m *AppfsMetadata) []byte {
	b = appendString(b, 1, m.Slug, MaxSlugLen)
	b = appendString(b, 2, m.Title, MaxTitleLen)
	b = appendUint(b, 3, uint64(m.Version))
	return appendUint(b, 4, uint64(m.Size))
}

func appendAppfsActionResp(b []byte, r *AppfsActionResp) []byte {
	switch v := r.Val.(type) {
	case *AppfsMetadata:
		b = appendMessage(b, 1, appendAppfsMetadata(nil, v))

	case *AppfsMetaList:
		var m []byte
		for i := range v.Entries {
			if i == MaxListEntries {
				break
			}

			m = appendMessage(m, 1, appendAppfsMetadata(nil, &v.Entries[i]))
		}

		m = appendUint(m, 2, uint64(v.TotalSize))
		b = appendMessage(b, 2, m)

	case *CRC32:
		b = appendOneofUint(b, 3, uint64(v.Value))
	}

	return appendUint(b, 5, uint64(r.Size))
}
