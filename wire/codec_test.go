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

package wire_test

import (
	"strings"
	"testing"

	"github.com/badgelink/badgelink/wire"
	"github.com/kylelemons/godebug/pretty"
	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestCodec(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Boilerplate
////////////////////////////////////////////////////////////////////////

type CodecTest struct {
}

func init() { RegisterTestSuite(&CodecTest{}) }

// Encode and decode the packet, returning the result.
func roundTrip(p *wire.Packet) *wire.Packet {
	decoded, err := wire.DecodePacket(wire.EncodePacket(p))
	AssertEq(nil, err)
	return decoded
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func (t *CodecTest) Sync() {
	p := &wire.Packet{Serial: 7, Sync: true}
	ExpectEq("", pretty.Compare(p, roundTrip(p)))
}

func (t *CodecTest) EmptyPacket() {
	p, err := wire.DecodePacket(nil)
	AssertEq(nil, err)

	ExpectEq(0, p.Serial)
	ExpectEq(nil, p.Request)
	ExpectEq(nil, p.Response)
	ExpectFalse(p.Sync)
}

func (t *CodecTest) Requests() {
	requests := []wire.Request{
		&wire.VersionReq{ClientVersion: 2},
		&wire.FsActionReq{
			Type:  wire.FsActionUpload,
			Path:  "/int/hello.txt",
			Size:  11,
			Crc32: 0x0d4a1185,
		},
		&wire.FsActionReq{Type: wire.FsActionList, Path: "/sd", ListOffset: 32},
		&wire.AppfsActionReq{
			Type: wire.AppfsActionUpload,
			Metadata: &wire.AppfsMetadata{
				Slug:    "snake",
				Title:   "Snake",
				Version: 3,
				Size:    4096,
			},
			Crc32: 0xdeadbeef,
		},
		&wire.AppfsActionReq{Type: wire.AppfsActionStat, Slug: "snake"},
		&wire.Chunk{Position: 1024, Data: []byte("taco")},
		&wire.XferCtrlReq{Ctrl: wire.XferFinish},
		&wire.XferCtrlReq{Ctrl: wire.XferContinue},
	}

	for i, req := range requests {
		p := &wire.Packet{Serial: uint32(i + 1), Request: req}
		ExpectEq("", pretty.Compare(p, roundTrip(p)), "%v", req)
	}
}

func (t *CodecTest) Responses() {
	responses := []*wire.Response{
		wire.StatusOnly(wire.StatusIllState),
		{Body: &wire.VersionResp{ServerVersion: 2, NegotiatedVersion: 1}},
		{Body: &wire.Chunk{Position: 0, Data: []byte("burrito")}},
		{
			Body: &wire.FsActionResp{
				Val: &wire.FsStat{
					Size:  17,
					Mtime: 1700000000123,
					Ctime: 1700000000000,
					Atime: 1700000000456,
				},
			},
		},
		{
			Body: &wire.FsActionResp{
				Val: &wire.FsDirentList{
					Entries: []wire.FsDirent{
						{Name: "apps", IsDir: true},
						{Name: "config.json"},
					},
					TotalSize: 19,
				},
			},
		},
		{Body: &wire.FsActionResp{Val: &wire.CRC32{Value: 0xcafef00d}, Size: 99}},
		{
			Body: &wire.AppfsActionResp{
				Val: &wire.AppfsMetaList{
					Entries: []wire.AppfsMetadata{
						{Slug: "a", Title: "A", Version: 1, Size: 10},
						{Slug: "b", Title: "B", Version: 2, Size: 20},
					},
					TotalSize: 2,
				},
			},
		},
		{
			StatusCode: wire.StatusOk,
			Body: &wire.AppfsActionResp{
				Val:  &wire.AppfsMetadata{Slug: "snake", Title: "Snake", Size: 4},
				Size: 4,
			},
		},
	}

	for i, resp := range responses {
		p := &wire.Packet{Serial: uint32(i + 1), Response: resp}
		ExpectEq("", pretty.Compare(p, roundTrip(p)), "%v", resp)
	}
}

func (t *CodecTest) CRC32ZeroSurvivesRoundTrip() {
	p := &wire.Packet{
		Response: &wire.Response{
			Body: &wire.FsActionResp{Val: &wire.CRC32{}},
		},
	}

	ExpectEq("", pretty.Compare(p, roundTrip(p)))
}

func (t *CodecTest) EncodeTruncatesStrings() {
	long := strings.Repeat("x", wire.MaxPathLen+10)
	p := &wire.Packet{
		Request: &wire.FsActionReq{Type: wire.FsActionStat, Path: long},
	}

	decoded := roundTrip(p)
	req, ok := decoded.Request.(*wire.FsActionReq)
	AssertTrue(ok)
	ExpectEq(long[:wire.MaxPathLen], req.Path)
}

func (t *CodecTest) EncodeTruncatesAtRuneBoundary() {
	// "é" is two bytes; 25 of them straddle the slug capacity.
	slug := strings.Repeat("é", wire.MaxSlugLen/2+1)
	p := &wire.Packet{
		Request: &wire.AppfsActionReq{Type: wire.AppfsActionStat, Slug: slug},
	}

	decoded := roundTrip(p)
	req := decoded.Request.(*wire.AppfsActionReq)
	ExpectEq(strings.Repeat("é", wire.MaxSlugLen/2), req.Slug)
}

func (t *CodecTest) EncodeCapsLists() {
	entries := make([]wire.FsDirent, wire.MaxListEntries+4)
	for i := range entries {
		entries[i].Name = "f"
	}

	p := &wire.Packet{
		Response: &wire.Response{
			Body: &wire.FsActionResp{
				Val: &wire.FsDirentList{Entries: entries, TotalSize: 20},
			},
		},
	}

	decoded := roundTrip(p)
	l := decoded.Response.Body.(*wire.FsActionResp).Val.(*wire.FsDirentList)
	ExpectEq(wire.MaxListEntries, l.ListCount())
	ExpectEq(20, l.TotalSize)
}

func (t *CodecTest) UnknownRequestTag() {
	var req []byte
	req = protowire.AppendTag(req, 3, protowire.BytesType)
	req = protowire.AppendBytes(req, []byte{0x08, 0x01})

	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, req)

	p, err := wire.DecodePacket(b)
	AssertEq(nil, err)

	ExpectEq(42, p.Serial)
	ExpectEq("", pretty.Compare(&wire.UnknownReq{Tag: 3}, p.Request))
	ExpectEq("Unknown", wire.RequestKind(p.Request))
}

func (t *CodecTest) EmptyRequest() {
	var b []byte
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, nil)

	p, err := wire.DecodePacket(b)
	AssertEq(nil, err)
	ExpectEq("Unknown", wire.RequestKind(p.Request))
}

func (t *CodecTest) LastOneofMemberWins() {
	b := wire.EncodePacket(&wire.Packet{Serial: 1, Sync: true})
	b = wire.AppendPacket(b, &wire.Packet{
		Request: &wire.VersionReq{ClientVersion: 1},
	})

	p, err := wire.DecodePacket(b)
	AssertEq(nil, err)

	ExpectFalse(p.Sync)
	ExpectEq("Version", wire.RequestKind(p.Request))
}

func (t *CodecTest) UnknownFieldsAreSkipped() {
	b := wire.EncodePacket(&wire.Packet{Serial: 5, Sync: true})
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("ignored"))

	p, err := wire.DecodePacket(b)
	AssertEq(nil, err)
	ExpectEq(5, p.Serial)
	ExpectTrue(p.Sync)
}

func (t *CodecTest) TruncatedInput() {
	b := wire.EncodePacket(&wire.Packet{
		Serial:  1,
		Request: &wire.FsActionReq{Type: wire.FsActionStat, Path: "/int"},
	})

	_, err := wire.DecodePacket(b[:len(b)-2])
	ExpectThat(err, Error(HasSubstr("decode Packet")))
}

func (t *CodecTest) WrongWireType() {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("nope"))

	_, err := wire.DecodePacket(b)
	ExpectThat(err, Error(HasSubstr("Packet.serial")))
}

func (t *CodecTest) OversizePath() {
	var req []byte
	req = protowire.AppendTag(req, 2, protowire.BytesType)
	req = protowire.AppendString(req, strings.Repeat("a", wire.MaxPathLen+1))

	var b []byte
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, protowire.AppendBytes(protowire.AppendTag(nil, 4, protowire.BytesType), req))

	_, err := wire.DecodePacket(b)
	ExpectThat(err, Error(HasSubstr("FsActionReq.path")))
}

func (t *CodecTest) OversizeChunk() {
	var chunk []byte
	chunk = protowire.AppendTag(chunk, 2, protowire.BytesType)
	chunk = protowire.AppendBytes(chunk, make([]byte, wire.MaxChunkSize+1))

	var req []byte
	req = protowire.AppendTag(req, 1, protowire.BytesType)
	req = protowire.AppendBytes(req, chunk)

	var b []byte
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, req)

	_, err := wire.DecodePacket(b)
	ExpectThat(err, Error(HasSubstr("Chunk.data")))
}

func (t *CodecTest) VersionOverflow() {
	var vr []byte
	vr = protowire.AppendTag(vr, 1, protowire.VarintType)
	vr = protowire.AppendVarint(vr, 1<<16)

	var req []byte
	req = protowire.AppendTag(req, 7, protowire.BytesType)
	req = protowire.AppendBytes(req, vr)

	var b []byte
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, req)

	_, err := wire.DecodePacket(b)
	ExpectThat(err, Error(HasSubstr("overflows uint16")))
}

func (t *CodecTest) OversizePacket() {
	_, err := wire.DecodePacket(make([]byte, wire.MaxPacketSize+1))
	ExpectThat(err, Error(HasSubstr("exceeds")))
}

func (t *CodecTest) RequestKinds() {
	ExpectEq("FsAction.Rmdir", wire.RequestKind(&wire.FsActionReq{Type: wire.FsActionRmdir}))
	ExpectEq("AppfsAction.Download", wire.RequestKind(&wire.AppfsActionReq{Type: wire.AppfsActionDownload}))
	ExpectEq("UploadChunk", wire.RequestKind(&wire.Chunk{}))
	ExpectEq("Xfer.Finish", wire.RequestKind(&wire.XferCtrlReq{Ctrl: wire.XferFinish}))
	ExpectEq("None", wire.RequestKind(nil))
}

func (t *CodecTest) StatusNames() {
	ExpectEq("StatusNotEmpty", wire.StatusNotEmpty.String())
	ExpectEq("StatusCode(77)", wire.StatusCode(77).String())
}
