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

// Package framer splits a raw byte stream into BadgeLink frames.
//
// A frame on the wire looks like this:
//
//	'B' 'L' | length (u16 LE) | payload | crc32(payload) (u32 LE)
//
// The checksum is the IEEE CRC-32 of the payload alone. Corrupt or
// misaligned input is skipped one byte at a time until the stream
// resynchronizes on a valid frame. A header whose frame is still incomplete
// is skipped too once a complete frame has been buffered behind it.
package framer

import (
	"encoding/binary"
	"hash/crc32"
)

const (
	Magic0 = 'B'
	Magic1 = 'L'

	// Magic plus length.
	HeaderSize = 4

	// The checksum.
	TrailerSize = 4
)

// Accumulates stream bytes and yields complete, verified frame payloads.
// Not safe for concurrent use.
type Framer struct {
	maxPayload int

	// Bytes received but not yet consumed. buf[0] is always the candidate
	// start of the next frame.
	buf []byte

	// The total number of bytes skipped while searching for frames.
	discarded uint64
}

// Create a framer that accepts payloads of at most maxPayload bytes. Larger
// length fields are treated as corruption.
func New(maxPayload int) *Framer {
	return &Framer{
		maxPayload: maxPayload,
	}
}

// The state of a candidate frame.
type candidate int

const (
	invalid candidate = iota
	incomplete
	complete
)

// Examine the candidate frame at the start of b, returning its total length
// when it is complete and verifies.
func (f *Framer) check(b []byte) (c candidate, length int) {
	if b[0] != Magic0 {
		return invalid, 0
	}

	if len(b) < 2 {
		return incomplete, 0
	}

	if b[1] != Magic1 {
		return invalid, 0
	}

	if len(b) < HeaderSize {
		return incomplete, 0
	}

	n := int(binary.LittleEndian.Uint16(b[2:4]))
	if n > f.maxPayload {
		return invalid, 0
	}

	length = HeaderSize + n + TrailerSize
	if len(b) < length {
		return incomplete, 0
	}

	payload := b[HeaderSize : HeaderSize+n]
	want := binary.LittleEndian.Uint32(b[HeaderSize+n:])
	if crc32.Update(0, crc32.IEEETable, payload) != want {
		return invalid, 0
	}

	return complete, length
}

// Return the offset of the first frame after b[0] that is already complete
// and verifies, or -1 if there is none.
func (f *Framer) nextComplete(b []byte) int {
	for i := 1; i < len(b); i++ {
		if c, _ := f.check(b[i:]); c == complete {
			return i
		}
	}

	return -1
}

// Add the supplied bytes to the stream, returning the payloads of every frame
// they complete, in order. A trailing partial frame stays buffered for the
// next call. The returned slices are owned by the caller.
//
// A partial frame is only waited for while no complete frame follows it in
// the buffer. Otherwise its header was noise, and it is skipped.
func (f *Framer) Feed(p []byte) (payloads [][]byte) {
	f.buf = append(f.buf, p...)

	start := 0
scan:
	for start < len(f.buf) {
		rest := f.buf[start:]
		c, length := f.check(rest)

		switch c {
		case complete:
			payload := rest[HeaderSize : length-TrailerSize]
			payloads = append(payloads, append([]byte(nil), payload...))
			start += length

		case invalid:
			start++
			f.discarded++

		case incomplete:
			skip := f.nextComplete(rest)
			if skip < 0 {
				break scan
			}

			start += skip
			f.discarded += uint64(skip)
		}
	}

	// Compact.
	remaining := copy(f.buf, f.buf[start:])
	f.buf = f.buf[:remaining]

	return
}

// Discard any buffered partial frame.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
}

// Return the number of bytes buffered waiting for the rest of a frame.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// Return the total number of bytes skipped as corrupt since the framer was
// created.
func (f *Framer) Discarded() uint64 {
	return f.discarded
}

// Append a frame wrapping the supplied payload to dst. The payload must be at
// most 0xffff bytes.
func AppendFrame(dst []byte, payload []byte) []byte {
	dst = append(dst, Magic0, Magic1)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(payload)))
	dst = append(dst, payload...)
	return binary.LittleEndian.AppendUint32(dst, crc32.ChecksumIEEE(payload))
}
