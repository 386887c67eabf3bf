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

package badgelink_test

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/badgelink/badgelink"
	"github.com/badgelink/badgelink/internal/framer"
	"github.com/badgelink/badgelink/wire"
	"github.com/kylelemons/godebug/pretty"
	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
)

////////////////////////////////////////////////////////////////////////
// Boilerplate
////////////////////////////////////////////////////////////////////////

// Reads from in, writes to out.
type loopback struct {
	in  bytes.Buffer
	out bytes.Buffer

	// Returned by Read once in is drained, in place of io.EOF.
	readErr error
}

func (l *loopback) Read(p []byte) (int, error) {
	if l.in.Len() == 0 && l.readErr != nil {
		return 0, l.readErr
	}

	return l.in.Read(p)
}

func (l *loopback) Write(p []byte) (int, error) {
	return l.out.Write(p)
}

type ConnectionTest struct {
	rw   loopback
	conn *badgelink.Connection
}

func init() { RegisterTestSuite(&ConnectionTest{}) }

func (t *ConnectionTest) SetUp(ti *TestInfo) {
	t.conn = badgelink.NewConnection(&t.rw, nil)
}

func (t *ConnectionTest) feed(p *wire.Packet) {
	t.rw.in.Write(framer.AppendFrame(nil, wire.EncodePacket(p)))
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func (t *ConnectionTest) EmptyStream() {
	_, err := t.conn.ReadPacket()
	ExpectEq(io.EOF, err)
}

func (t *ConnectionTest) SeveralPackets() {
	expected := []*wire.Packet{
		{Serial: 1, Request: &wire.VersionReq{ClientVersion: 2}},
		{Serial: 2, Sync: true},
		{Serial: 3, Request: &wire.FsActionReq{Type: wire.FsActionStat, Path: "/a"}},
	}

	for _, p := range expected {
		t.feed(p)
	}

	for _, want := range expected {
		p, err := t.conn.ReadPacket()
		AssertEq(nil, err)
		ExpectEq("", pretty.Compare(want, p))
	}

	_, err := t.conn.ReadPacket()
	ExpectEq(io.EOF, err)
}

func (t *ConnectionTest) SkipsGarbageAndBadFrames() {
	t.rw.in.WriteString("hello BL")

	// A frame whose payload is not a packet.
	t.rw.in.Write(framer.AppendFrame(nil, []byte{0x0a}))

	// A frame with a broken checksum.
	bad := framer.AppendFrame(nil, wire.EncodePacket(&wire.Packet{Serial: 7, Sync: true}))
	bad[len(bad)-1] ^= 0xff
	t.rw.in.Write(bad)

	want := &wire.Packet{Serial: 8, Sync: true}
	t.feed(want)

	p, err := t.conn.ReadPacket()
	AssertEq(nil, err)
	ExpectEq("", pretty.Compare(want, p))

	_, err = t.conn.ReadPacket()
	ExpectEq(io.EOF, err)
}

func (t *ConnectionTest) ReadErrorIsSticky() {
	t.rw.readErr = errors.New("taco")
	t.feed(&wire.Packet{Serial: 1, Sync: true})

	// Frames already received are delivered first.
	_, err := t.conn.ReadPacket()
	AssertEq(nil, err)

	_, err = t.conn.ReadPacket()
	ExpectThat(err, Error(HasSubstr("taco")))

	_, err = t.conn.ReadPacket()
	ExpectThat(err, Error(HasSubstr("taco")))
}

func (t *ConnectionTest) WritePacketFrames() {
	p := &wire.Packet{
		Serial:   5,
		Response: &wire.Response{Body: &wire.VersionResp{ServerVersion: 2, NegotiatedVersion: 1}},
	}

	AssertEq(nil, t.conn.WritePacket(p))

	f := framer.New(wire.MaxPacketSize)
	payloads := f.Feed(t.rw.out.Bytes())
	AssertEq(1, len(payloads))

	decoded, err := wire.DecodePacket(payloads[0])
	AssertEq(nil, err)
	ExpectEq("", pretty.Compare(p, decoded))
}

func (t *ConnectionTest) ServeAnswersUntilEOF() {
	s := badgelink.NewServer(nil, nil, nil)

	t.feed(&wire.Packet{Serial: 1, Request: &wire.VersionReq{ClientVersion: 2}})
	t.feed(&wire.Packet{Serial: 2, Sync: true})

	session := s.NewSession()
	AssertEq(nil, s.ServeSession(context.Background(), session, t.conn))

	f := framer.New(wire.MaxPacketSize)
	payloads := f.Feed(t.rw.out.Bytes())
	AssertEq(2, len(payloads))

	first, err := wire.DecodePacket(payloads[0])
	AssertEq(nil, err)
	ExpectEq(1, first.Serial)
	AssertNe(nil, first.Response)
	ExpectEq("", pretty.Compare(
		&wire.VersionResp{ServerVersion: 2, NegotiatedVersion: 2},
		first.Response.Body))

	second, err := wire.DecodePacket(payloads[1])
	AssertEq(nil, err)
	ExpectEq(2, second.Serial)
	ExpectTrue(second.Sync)

	ExpectEq(1, session.Version())
}

func (t *ConnectionTest) ServeReportsTransportErrors() {
	s := badgelink.NewServer(nil, nil, nil)
	t.rw.readErr = errors.New("taco")

	err := s.Serve(context.Background(), t.conn)
	ExpectThat(err, Error(HasSubstr("ReadPacket")))
	ExpectThat(err, Error(HasSubstr("taco")))
}
