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

// Package badgelinktesting contains a host-side client and matchers for
// testing BadgeLink servers.
package badgelinktesting

import (
	"context"
	"fmt"
	"net"

	"github.com/badgelink/badgelink"
	"github.com/badgelink/badgelink/wire"
)

// A host speaking the protocol to a server over an in-memory pipe. Calls must
// not be made concurrently.
type Client struct {
	conn    *badgelink.Connection
	raw     net.Conn
	session *badgelink.Session

	nextSerial uint32

	// Receives the result of Server.ServeSession.
	serveErr chan error
}

// Start serving a fresh connection and session on s and return a client
// connected to it. The caller must call Close.
func NewClient(ctx context.Context, s *badgelink.Server) (c *Client) {
	host, device := net.Pipe()

	c = &Client{
		conn:       badgelink.NewConnection(host, nil),
		raw:        host,
		session:    s.NewSession(),
		nextSerial: 1,
		serveErr:   make(chan error, 1),
	}

	go func() {
		conn := badgelink.NewConnection(device, nil)
		c.serveErr <- s.ServeSession(ctx, c.session, conn)
	}()

	return
}

// Return the server-side session serving this client. It remains valid after
// Close.
func (c *Client) Session() *badgelink.Session {
	return c.session
}

// Close the host end of the pipe, then wait for the server to notice and
// return the result of Serve.
func (c *Client) Close() (err error) {
	if err = c.raw.Close(); err != nil {
		err = fmt.Errorf("Close: %w", err)
		return
	}

	err = <-c.serveErr
	return
}

// Write bytes directly to the stream, bypassing framing.
func (c *Client) WriteRaw(b []byte) (err error) {
	_, err = c.raw.Write(b)
	return
}

// Read packets until one satisfies f.
func (c *Client) readUntil(f func(p *wire.Packet) bool) (p *wire.Packet, err error) {
	for {
		if p, err = c.conn.ReadPacket(); err != nil {
			err = fmt.Errorf("ReadPacket: %w", err)
			return
		}

		if f(p) {
			return
		}
	}
}

// Send a request and wait for the response carrying its serial.
func (c *Client) Send(req wire.Request) (resp *wire.Response, err error) {
	serial := c.nextSerial
	c.nextSerial++

	err = c.conn.WritePacket(&wire.Packet{Serial: serial, Request: req})
	if err != nil {
		return
	}

	p, err := c.readUntil(func(p *wire.Packet) bool {
		return p.Response != nil && p.Serial == serial
	})

	if err != nil {
		return
	}

	resp = p.Response
	return
}

// Send a sync packet and wait for its echo. Responses to earlier requests
// still in flight are discarded.
func (c *Client) Sync() (err error) {
	serial := c.nextSerial
	c.nextSerial++

	if err = c.conn.WritePacket(&wire.Packet{Serial: serial, Sync: true}); err != nil {
		return
	}

	_, err = c.readUntil(func(p *wire.Packet) bool {
		return p.Sync && p.Serial == serial
	})

	return
}
