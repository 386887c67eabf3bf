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

package transport

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// The path at which the bridge accepts websocket connections.
const BridgePath = "/badgelink"

// Serves a stream until the peer goes away.
type ServeFunc func(ctx context.Context, rw io.ReadWriter) error

// An HTTP handler that upgrades requests to websockets and serves the byte
// stream they carry. Each binary message is a run of bytes of the stream;
// message boundaries need not line up with frames. Only one peer is served at
// a time; others are turned away with 503.
type Bridge struct {
	upgrader websocket.Upgrader
	serve    ServeFunc
	logger   *log.Logger

	// Holds a token while a peer is being served.
	busy chan struct{}
}

// Create a bridge that hands each connection to serve.
func NewBridge(serve ServeFunc, logger *log.Logger) *Bridge {
	return &Bridge{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		serve:  serve,
		logger: logger,
		busy:   make(chan struct{}, 1),
	}
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case b.busy <- struct{}{}:
		defer func() { <-b.busy }()

	default:
		http.Error(w, "another host is connected", http.StatusServiceUnavailable)
		return
	}

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		b.logger.Printf("Upgrade: %v", err)
		return
	}

	defer conn.Close()

	b.logger.Printf("Serving websocket peer %s", r.RemoteAddr)
	if err := b.serve(r.Context(), &wsStream{conn: conn}); err != nil {
		b.logger.Printf("Serving %s: %v", r.RemoteAddr, err)
	}
}

// Create a router serving the bridge at BridgePath and, if non-nil, the
// supplied handler at /metrics.
func NewRouter(b *Bridge, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get(BridgePath, b.ServeHTTP)

	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	return r
}

////////////////////////////////////////////////////////////////////////
// Stream
////////////////////////////////////////////////////////////////////////

// Adapts a websocket to a byte stream.
type wsStream struct {
	conn *websocket.Conn

	// The message currently being read, if any.
	r io.Reader
}

// Read returns io.EOF when the peer closes the websocket cleanly. Text
// messages are ignored.
func (s *wsStream) Read(p []byte) (n int, err error) {
	for {
		if s.r == nil {
			var typ int
			var r io.Reader
			typ, r, err = s.conn.NextReader()

			if websocket.IsCloseError(
				err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway) {
				err = io.EOF
				return
			}

			if err != nil {
				return
			}

			if typ != websocket.BinaryMessage {
				continue
			}

			s.r = r
		}

		n, err = s.r.Read(p)
		if err == io.EOF {
			s.r = nil
			err = nil
			if n == 0 {
				continue
			}
		}

		return
	}
}

func (s *wsStream) Write(p []byte) (n int, err error) {
	if err = s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return
	}

	n = len(p)
	return
}
