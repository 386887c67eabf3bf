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
	"fmt"
	"io"
	"log"

	"github.com/badgelink/badgelink/internal/framer"
	"github.com/badgelink/badgelink/internal/metrics"
	"github.com/badgelink/badgelink/wire"
)

// The size of the buffer used for each read from the transport.
const readSize = 4096

// A framed packet stream over a byte transport.
type Connection struct {
	debugLogger *log.Logger
	rw          io.ReadWriter
	framer      *framer.Framer

	// Scratch space for reads from rw.
	readBuf []byte

	// Payloads already unframed but not yet returned by ReadPacket.
	pending [][]byte

	// The framer's discard count as of the last call to RecordGarbage.
	discarded uint64

	// The first error returned by rw.Read, if any. Sticky.
	readErr error

	// The number of packets received, used to tag log lines.
	nextPacketID uint64
}

// Create a connection that reads and writes packets over rw. The config may
// be nil.
func NewConnection(rw io.ReadWriter, cfg *ServerConfig) (c *Connection) {
	config := cfg.withDefaults()
	c = &Connection{
		debugLogger: config.DebugLogger,
		rw:          rw,
		framer:      framer.New(wire.MaxPacketSize),
		readBuf:     make([]byte, readSize),
	}

	return
}

// Log information for the packet with the given ID.
func (c *Connection) log(
	packetID uint64,
	format string,
	v ...interface{}) {
	c.debugLogger.Printf("[%d] %s", packetID, fmt.Sprintf(format, v...))
}

// Read the next packet from the transport, skipping garbage and frames that
// fail to verify or decode. Return the transport's error (io.EOF if the peer
// has closed the stream) once no complete frames remain.
//
// It must not be called multiple times concurrently.
func (c *Connection) ReadPacket() (p *wire.Packet, err error) {
	// Keep going until we find a packet we know how to decode.
	for {
		for len(c.pending) > 0 {
			payload := c.pending[0]
			c.pending = c.pending[1:]

			packetID := c.nextPacketID
			c.nextPacketID++

			p, err = wire.DecodePacket(payload)
			if err != nil {
				c.log(packetID, "Dropping %d byte packet: %v", len(payload), err)
				metrics.RecordDroppedFrame("decode")
				err = nil
				continue
			}

			c.log(packetID, "Received: %v", p)
			return
		}

		if c.readErr != nil {
			err = c.readErr
			return
		}

		var n int
		n, c.readErr = c.rw.Read(c.readBuf)
		if n > 0 {
			c.pending = c.framer.Feed(c.readBuf[:n])
			c.recordGarbage()
		}
	}
}

func (c *Connection) recordGarbage() {
	d := c.framer.Discarded()
	if d > c.discarded {
		metrics.RecordGarbage(d - c.discarded)
		c.discarded = d
	}
}

// Frame and send a single packet.
func (c *Connection) WritePacket(p *wire.Packet) (err error) {
	c.debugLogger.Printf("Sending: %v", p)

	payload := wire.EncodePacket(p)
	if len(payload) > wire.MaxPacketSize {
		err = fmt.Errorf("packet of %d bytes exceeds the maximum", len(payload))
		return
	}

	frame := make([]byte, 0, framer.HeaderSize+len(payload)+framer.TrailerSize)
	frame = framer.AppendFrame(frame, payload)
	if _, err = c.rw.Write(frame); err != nil {
		err = fmt.Errorf("Write: %w", err)
		return
	}

	return
}
