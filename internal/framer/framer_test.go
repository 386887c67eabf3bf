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

package framer_test

import (
	"testing"

	"github.com/badgelink/badgelink/internal/framer"
	. "github.com/jacobsa/ogletest"
)

func TestFramer(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Boilerplate
////////////////////////////////////////////////////////////////////////

type FramerTest struct {
	f *framer.Framer
}

func init() { RegisterTestSuite(&FramerTest{}) }

func (t *FramerTest) SetUp(ti *TestInfo) {
	t.f = framer.New(64)
}

func frame(payload string) []byte {
	return framer.AppendFrame(nil, []byte(payload))
}

func concat(parts ...[]byte) (b []byte) {
	for _, p := range parts {
		b = append(b, p...)
	}

	return
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func (t *FramerTest) Layout() {
	b := frame("hi")

	AssertEq(framer.HeaderSize+2+framer.TrailerSize, len(b))
	ExpectEq('B', b[0])
	ExpectEq('L', b[1])
	ExpectEq(2, b[2])
	ExpectEq(0, b[3])
	ExpectEq("hi", string(b[4:6]))
}

func (t *FramerTest) SingleFrame() {
	payloads := t.f.Feed(frame("taco"))

	AssertEq(1, len(payloads))
	ExpectEq("taco", string(payloads[0]))
	ExpectEq(0, t.f.Buffered())
	ExpectEq(0, t.f.Discarded())
}

func (t *FramerTest) EmptyPayload() {
	payloads := t.f.Feed(frame(""))

	AssertEq(1, len(payloads))
	ExpectEq(0, len(payloads[0]))
}

func (t *FramerTest) SeveralFramesInOneRead() {
	payloads := t.f.Feed(concat(frame("a"), frame("bb"), frame("ccc")))

	AssertEq(3, len(payloads))
	ExpectEq("a", string(payloads[0]))
	ExpectEq("bb", string(payloads[1]))
	ExpectEq("ccc", string(payloads[2]))
}

func (t *FramerTest) ByteAtATime() {
	var payloads [][]byte
	for _, c := range concat(frame("burrito"), frame("enchilada")) {
		payloads = append(payloads, t.f.Feed([]byte{c})...)
	}

	AssertEq(2, len(payloads))
	ExpectEq("burrito", string(payloads[0]))
	ExpectEq("enchilada", string(payloads[1]))
	ExpectEq(0, t.f.Discarded())
}

func (t *FramerTest) PartialFrameStaysBuffered() {
	b := frame("queso")

	ExpectEq(0, len(t.f.Feed(b[:5])))
	ExpectEq(5, t.f.Buffered())

	payloads := t.f.Feed(b[5:])
	AssertEq(1, len(payloads))
	ExpectEq("queso", string(payloads[0]))
}

func (t *FramerTest) LeadingGarbage() {
	payloads := t.f.Feed(concat([]byte("xyzB"), frame("ok")))

	AssertEq(1, len(payloads))
	ExpectEq("ok", string(payloads[0]))
	ExpectEq(4, t.f.Discarded())
}

func (t *FramerTest) CorruptChecksum() {
	bad := frame("nope")
	bad[len(bad)-1] ^= 0xff

	payloads := t.f.Feed(concat(bad, frame("yes")))

	AssertEq(1, len(payloads))
	ExpectEq("yes", string(payloads[0]))
	ExpectEq(len(bad), t.f.Discarded())
}

func (t *FramerTest) CorruptPayload() {
	bad := frame("nope")
	bad[framer.HeaderSize] = 'm'

	payloads := t.f.Feed(concat(bad, frame("yes")))

	AssertEq(1, len(payloads))
	ExpectEq("yes", string(payloads[0]))
}

func (t *FramerTest) OversizeLength() {
	bad := []byte{'B', 'L', 0xff, 0x00}

	payloads := t.f.Feed(concat(bad, frame("fine")))

	AssertEq(1, len(payloads))
	ExpectEq("fine", string(payloads[0]))
	ExpectEq(len(bad), t.f.Discarded())
}

func (t *FramerTest) Reset() {
	b := frame("gone")
	t.f.Feed(b[:6])
	AssertEq(6, t.f.Buffered())

	t.f.Reset()
	ExpectEq(0, t.f.Buffered())

	payloads := t.f.Feed(frame("back"))
	AssertEq(1, len(payloads))
	ExpectEq("back", string(payloads[0]))
}

func (t *FramerTest) PayloadsAreCopies() {
	in := frame("abc")
	payloads := t.f.Feed(in)
	AssertEq(1, len(payloads))

	in[framer.HeaderSize] = 'z'
	ExpectEq("abc", string(payloads[0]))
}

func (t *FramerTest) NoiseHeaderBeforeFrames() {
	noise := []byte{'B', 'L', 48, 0x00}

	payloads := t.f.Feed(concat(noise, frame("salsa"), frame("verde")))

	AssertEq(2, len(payloads))
	ExpectEq("salsa", string(payloads[0]))
	ExpectEq("verde", string(payloads[1]))
	ExpectEq(len(noise), t.f.Discarded())
	ExpectEq(0, t.f.Buffered())
}

func (t *FramerTest) NoiseHeaderThenFramesInLaterReads() {
	noise := []byte{'B', 'L', 48, 0x00}

	// On its own the header may be the start of a real frame.
	ExpectEq(0, len(t.f.Feed(noise)))
	ExpectEq(len(noise), t.f.Buffered())

	payloads := t.f.Feed(frame("salsa"))
	AssertEq(1, len(payloads))
	ExpectEq("salsa", string(payloads[0]))
	ExpectEq(0, t.f.Buffered())
}

func (t *FramerTest) NoiseHeaderBeforePartialFrameWaits() {
	noise := []byte{'B', 'L', 48, 0x00}
	b := frame("salsa")

	ExpectEq(0, len(t.f.Feed(concat(noise, b[:5]))))
	ExpectEq(len(noise)+5, t.f.Buffered())

	payloads := t.f.Feed(b[5:])
	AssertEq(1, len(payloads))
	ExpectEq("salsa", string(payloads[0]))
}

func (t *FramerTest) NoiseHeaderWithLargeLength() {
	f := framer.New(4096)

	in := []byte{'B', 'L', 0xff, 0x0f}
	for i := 0; i < 50; i++ {
		in = append(in, frame("sync")...)
	}

	payloads := f.Feed(in)

	ExpectEq(50, len(payloads))
	ExpectEq(0, f.Buffered())
	ExpectEq(4, f.Discarded())
}
