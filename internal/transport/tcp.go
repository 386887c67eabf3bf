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

// Package transport provides the byte streams a BadgeLink server can be served
// over: serial devices, TCP and websockets.
package transport

import (
	"fmt"
	"net"

	"golang.org/x/net/netutil"
)

// Listen for TCP connections on addr, accepting at most one at a time. Like a
// serial line, a link has a single peer; a second host waits in the backlog
// until the first disconnects.
func ListenTCP(addr string) (l net.Listener, err error) {
	l, err = net.Listen("tcp", addr)
	if err != nil {
		err = fmt.Errorf("Listen: %w", err)
		return
	}

	l = netutil.LimitListener(l, 1)
	return
}
